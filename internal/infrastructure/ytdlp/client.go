// Package ytdlp drives the yt-dlp binary as the media extraction library
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/Conte777/MediaFlow/config"
	"github.com/Conte777/MediaFlow/internal/domain/media/deps"
)

const (
	stderrTail = 500
	waitDelay  = 5 * time.Second
)

// ExecError is returned when yt-dlp exits with a non-zero status
type ExecError struct {
	ExitCode int
	Stderr   string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("yt-dlp exited with code %d: %s", e.ExitCode, e.Stderr)
}

// Client implements deps.Extractor on top of the yt-dlp command line
type Client struct {
	path   string
	fs     afero.Fs
	logger zerolog.Logger
}

// NewClient creates a new yt-dlp client
func NewClient(cfg *config.DownloadConfig, fs afero.Fs, logger zerolog.Logger) *Client {
	path := cfg.YtDlpPath
	if path == "" {
		path = "yt-dlp"
	}

	return &Client{
		path:   path,
		fs:     fs,
		logger: logger.With().Str("component", "ytdlp").Logger(),
	}
}

// Probe runs yt-dlp in JSON dump mode and returns the parsed metadata
func (c *Client) Probe(ctx context.Context, url string, opts deps.ExtractOptions) (*deps.ProbeResult, error) {
	args := append([]string{"-J", "--skip-download"}, c.buildArgs(opts)...)
	args = append(args, "--", url)

	start := time.Now()
	out, err := c.run(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", url, err)
	}

	probe, err := ParseProbe(out)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", url, err)
	}

	c.logger.Debug().
		Str("url", url).
		Str("title", probe.Title).
		Float64("duration", probe.Duration).
		Dur("elapsed", time.Since(start)).
		Msg("Probe completed")

	return probe, nil
}

// Download runs yt-dlp and writes the media to opts.OutputTemplate
func (c *Client) Download(ctx context.Context, url string, opts deps.ExtractOptions) error {
	if opts.OutputTemplate == "" {
		return fmt.Errorf("download %s: output template is required", url)
	}

	args := append(c.buildArgs(opts), "--no-progress", "--", url)

	start := time.Now()
	if _, err := c.run(ctx, args); err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}

	c.logger.Debug().
		Str("url", url).
		Dur("elapsed", time.Since(start)).
		Msg("Download completed")

	return nil
}

// buildArgs converts options into command line flags shared by probe and download
func (c *Client) buildArgs(opts deps.ExtractOptions) []string {
	args := []string{"--no-playlist", "--no-warnings"}

	if opts.SocketTimeout > 0 {
		secs := int(opts.SocketTimeout.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		args = append(args, "--socket-timeout", strconv.Itoa(secs))
	}
	if opts.Retries > 0 {
		args = append(args, "--retries", strconv.Itoa(opts.Retries))
	}

	keys := make([]string, 0, len(opts.Headers))
	for k := range opts.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--add-header", k+":"+opts.Headers[k])
	}

	if opts.Format != "" {
		args = append(args, "-f", opts.Format)
	}
	if opts.OutputTemplate != "" {
		args = append(args, "-o", opts.OutputTemplate)
	}
	if opts.RestrictFilename {
		args = append(args, "--restrict-filenames")
	}
	if opts.CookiesFile != "" {
		if ok, err := afero.Exists(c.fs, opts.CookiesFile); ok && err == nil {
			args = append(args, "--cookies", opts.CookiesFile)
		} else {
			c.logger.Debug().Str("cookies", opts.CookiesFile).Msg("Cookies file not found, skipping")
		}
	}

	return args
}

func (c *Client) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.path, args...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExecError{
				ExitCode: exitErr.ExitCode(),
				Stderr:   tail(strings.TrimSpace(stderr.String()), stderrTail),
			}
		}
		return nil, fmt.Errorf("run %s: %w", c.path, err)
	}

	return stdout.Bytes(), nil
}

type probeJSON struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Duration       float64         `json:"duration"`
	Uploader       string          `json:"uploader"`
	ViewCount      float64         `json:"view_count"`
	UploadDate     string          `json:"upload_date"`
	Thumbnail      string          `json:"thumbnail"`
	Thumbnails     []thumbnailJSON `json:"thumbnails"`
	Filesize       float64         `json:"filesize"`
	FilesizeApprox float64         `json:"filesize_approx"`
	Formats        []struct{}      `json:"formats"`
}

type thumbnailJSON struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ParseProbe decodes a yt-dlp JSON dump; a playlist dump yields its first entry
func ParseProbe(data []byte) (*deps.ProbeResult, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty probe output")
	}

	var envelope struct {
		probeJSON
		Type    string      `json:"_type"`
		Entries []probeJSON `json:"entries"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode probe output: %w", err)
	}

	p := envelope.probeJSON
	if envelope.Type == "playlist" {
		if len(envelope.Entries) == 0 {
			return nil, errors.New("playlist without entries")
		}
		p = envelope.Entries[0]
	}

	result := &deps.ProbeResult{
		ID:             p.ID,
		Title:          p.Title,
		Duration:       p.Duration,
		Uploader:       p.Uploader,
		ViewCount:      int64(p.ViewCount),
		UploadDate:     p.UploadDate,
		Thumbnail:      p.Thumbnail,
		Filesize:       int64(p.Filesize),
		FilesizeApprox: int64(p.FilesizeApprox),
		FormatCount:    len(p.Formats),
	}
	for _, t := range p.Thumbnails {
		result.Thumbnails = append(result.Thumbnails, deps.Thumbnail{URL: t.URL, Width: t.Width, Height: t.Height})
	}

	return result, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
