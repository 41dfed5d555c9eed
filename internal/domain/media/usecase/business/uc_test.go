package business

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/MediaFlow/config"
	"github.com/Conte777/MediaFlow/internal/domain/media/admission"
	"github.com/Conte777/MediaFlow/internal/domain/media/deps"
	"github.com/Conte777/MediaFlow/internal/domain/media/dto"
	"github.com/Conte777/MediaFlow/internal/domain/media/entities"
	mediaerrors "github.com/Conte777/MediaFlow/internal/domain/media/errors"
	"github.com/Conte777/MediaFlow/internal/domain/media/resolver"
)

// Fakes

type fakeExtractor struct {
	probeFunc     func(ctx context.Context, url string, opts deps.ExtractOptions) (*deps.ProbeResult, error)
	downloadFunc  func(ctx context.Context, url string, opts deps.ExtractOptions) error
	probeCalls    []string
	downloadCalls []string
	lastOpts      deps.ExtractOptions
}

func (f *fakeExtractor) Probe(ctx context.Context, url string, opts deps.ExtractOptions) (*deps.ProbeResult, error) {
	f.probeCalls = append(f.probeCalls, url)
	f.lastOpts = opts
	if f.probeFunc != nil {
		return f.probeFunc(ctx, url, opts)
	}
	return &deps.ProbeResult{Title: "Clip", Uploader: "Author", Duration: 42}, nil
}

func (f *fakeExtractor) Download(ctx context.Context, url string, opts deps.ExtractOptions) error {
	f.downloadCalls = append(f.downloadCalls, url)
	f.lastOpts = opts
	if f.downloadFunc != nil {
		return f.downloadFunc(ctx, url, opts)
	}
	return errors.New("download not configured")
}

type fakeScraper struct {
	fetchFunc func(ctx context.Context, req *entities.MediaRequest, dir string) (*entities.DownloadedArtifact, error)
	calls     int
}

func (f *fakeScraper) FetchPhoto(ctx context.Context, req *entities.MediaRequest, dir string) (*entities.DownloadedArtifact, error) {
	f.calls++
	if f.fetchFunc != nil {
		return f.fetchFunc(ctx, req, dir)
	}
	return nil, mediaerrors.ErrUnsupportedContent
}

type fakeResolver struct {
	mapping map[string]string
}

func (f *fakeResolver) Resolve(_ context.Context, rawURL string) string {
	if to, ok := f.mapping[rawURL]; ok {
		return to
	}
	return rawURL
}

func (f *fakeResolver) ClassifyContent(ctx context.Context, rawURL string) (string, entities.ContentKind) {
	resolved := f.Resolve(ctx, rawURL)
	return resolved, resolver.ContentKindOf(resolved)
}

type sentFile struct {
	chatID  int64
	path    string
	caption string
	kind    entities.ContentKind
}

type fakeGateway struct {
	mu sync.Mutex

	texts   []string
	edits   []string
	deleted []deps.StatusHandle
	files   []sentFile

	sendStatusErr error
	editErr       error
	sendFileFunc  func(path string) error
	nextID        int
}

func (f *fakeGateway) SendText(_ context.Context, _ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeGateway) SendStatus(_ context.Context, chatID int64, _ string) (deps.StatusHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendStatusErr != nil {
		return deps.StatusHandle{}, f.sendStatusErr
	}
	f.nextID++
	return deps.StatusHandle{ChatID: chatID, MessageID: f.nextID}, nil
}

func (f *fakeGateway) EditStatus(_ context.Context, _ deps.StatusHandle, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeGateway) DeleteStatus(_ context.Context, handle deps.StatusHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, handle)
	return nil
}

func (f *fakeGateway) SendFile(_ context.Context, chatID int64, path, caption string, kind entities.ContentKind) error {
	if f.sendFileFunc != nil {
		if err := f.sendFileFunc(path); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(f.files, sentFile{chatID: chatID, path: path, caption: caption, kind: kind})
	return nil
}

func (f *fakeGateway) lastEdit() string {
	if len(f.edits) == 0 {
		return ""
	}
	return f.edits[len(f.edits)-1]
}

type fakeMetrics struct {
	mu        sync.Mutex
	outcomes  []string
	inFlight  []int
	delivered int64
}

func (f *fakeMetrics) RecordOutcome(p entities.PlatformID, k entities.ContentKind, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, fmt.Sprintf("%s/%s/%s", p, k, outcome))
}

func (f *fakeMetrics) RecordAcquisition(entities.PlatformID, float64) {}

func (f *fakeMetrics) SetInFlight(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = append(f.inFlight, n)
}

func (f *fakeMetrics) RecordDeliveredBytes(n int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered += n
}

func (f *fakeMetrics) RecordSweep(int) {}

// Fixture

type fixture struct {
	uc        *UseCase
	cfg       *config.DownloadConfig
	fs        afero.Fs
	extractor *fakeExtractor
	scraper   *fakeScraper
	resolver  *fakeResolver
	gateway   *fakeGateway
	metrics   *fakeMetrics
	gate      *admission.Gate
}

const (
	testChatID = int64(1001)
	testUserID = int64(42)
	requestID  = "11111111-2222-3333-4444-555555555555"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.DownloadConfig{
		Dir:           "downloads",
		MaxFileSizeMB: 500,
		Timeout:       5 * time.Second,
		MaxConcurrent: 2,
		MaxDuration:   time.Hour,
		ProbeTimeout:  30 * time.Second,
		ProbeRetries:  3,
		DesktopUA:     "desktop-agent",
		MobileUA:      "iphone-agent",
		TikTokCookies: "cookies.txt",
	}

	f := &fixture{
		cfg:       cfg,
		fs:        afero.NewMemMapFs(),
		extractor: &fakeExtractor{},
		scraper:   &fakeScraper{},
		resolver:  &fakeResolver{mapping: map[string]string{}},
		gateway:   &fakeGateway{},
		metrics:   &fakeMetrics{},
		gate:      admission.NewGate(cfg),
	}

	f.uc = NewUseCase(cfg, f.extractor, f.scraper, f.resolver, f.gate, f.fs, f.metrics, zerolog.Nop())
	f.uc.SetSender(f.gateway)
	f.uc.newID = func() string { return requestID }
	f.uc.now = func() time.Time { return time.Unix(1700000000, 0) }

	return f
}

func (f *fixture) requestDir() string {
	return filepath.Join("downloads", requestID)
}

// writeVideo makes the fake extractor materialize the output template with n bytes
func (f *fixture) writeVideo(n int) {
	f.extractor.downloadFunc = func(_ context.Context, _ string, opts deps.ExtractOptions) error {
		path := strings.Replace(opts.OutputTemplate, "%(title).50s.%(ext)s", "Sample_Clip.mp4", 1)
		return afero.WriteFile(f.fs, path, make([]byte, n), 0o644)
	}
}

func (f *fixture) assertDirRemoved(t *testing.T) {
	t.Helper()
	exists, err := afero.DirExists(f.fs, f.requestDir())
	require.NoError(t, err)
	assert.False(t, exists, "request directory must be removed")
}

// Tests

func TestHandleURL_UnsupportedLink(t *testing.T) {
	f := newFixture(t)

	f.uc.HandleURL(context.Background(), testChatID, testUserID, "https://vimeo.com/12345")

	require.Len(t, f.gateway.texts, 1)
	assert.Contains(t, f.gateway.texts[0], "Неподдерживаемая ссылка")
	assert.Empty(t, f.gateway.edits)
	assert.Empty(t, f.extractor.probeCalls)
	assert.Equal(t, []string{"unknown/unknown/unsupported_link"}, f.metrics.outcomes)
	assert.Zero(t, f.gate.Snapshot().TotalCompleted)
}

func TestHandleURL_VideoDelivered(t *testing.T) {
	f := newFixture(t)
	f.resolver.mapping["https://vm.tiktok.com/ZMabc/"] = "https://www.tiktok.com/@creator/video/7300000000000000002"
	f.writeVideo(2048)

	f.uc.HandleURL(context.Background(), testChatID, testUserID, "https://vm.tiktok.com/ZMabc/")

	require.Len(t, f.extractor.downloadCalls, 1)
	assert.Equal(t, "https://www.tiktok.com/@creator/video/7300000000000000002", f.extractor.downloadCalls[0])
	assert.Zero(t, f.scraper.calls, "video posts never go through the scraper")

	require.Len(t, f.gateway.files, 1)
	sent := f.gateway.files[0]
	assert.Equal(t, filepath.Join(f.requestDir(), "video_1700000000_Sample_Clip.mp4"), sent.path)
	assert.Equal(t, entities.ContentVideo, sent.kind)
	assert.Equal(t, "🎭 Clip\n👤 Author", sent.caption)

	assert.Len(t, f.gateway.deleted, 1, "status message is removed after delivery")
	assert.Empty(t, f.gateway.texts)

	s := f.gate.Snapshot()
	assert.Equal(t, int64(1), s.TotalCompleted)
	assert.Equal(t, 0, s.InFlight)
	assert.Equal(t, int64(2048), f.metrics.delivered)
	assert.Equal(t, []int{1, 0}, f.metrics.inFlight)
	f.assertDirRemoved(t)
}

func TestHandleURL_TooLong(t *testing.T) {
	f := newFixture(t)
	f.extractor.probeFunc = func(context.Context, string, deps.ExtractOptions) (*deps.ProbeResult, error) {
		return &deps.ProbeResult{Title: "Lecture", Uploader: "Uni", Duration: 4000}, nil
	}

	f.uc.HandleURL(context.Background(), testChatID, testUserID, "https://www.youtube.com/watch?v=abc")

	assert.Empty(t, f.extractor.downloadCalls, "no download may start for over-long media")
	assert.Empty(t, f.gateway.files)
	assert.Empty(t, f.gateway.texts)
	assert.Contains(t, f.gateway.lastEdit(), "Видео слишком длинное")
	assert.Contains(t, f.gateway.lastEdit(), "Длительность: 66 мин.")
	assert.Equal(t, []string{"youtube/video/rejected_too_long"}, f.metrics.outcomes)
	assert.Zero(t, f.gate.Snapshot().TotalCompleted)
}

func TestHandleURL_DeclaredSizeTooLarge(t *testing.T) {
	f := newFixture(t)
	f.extractor.probeFunc = func(context.Context, string, deps.ExtractOptions) (*deps.ProbeResult, error) {
		return &deps.ProbeResult{Title: "Huge", Duration: 120, FilesizeApprox: 600_000_000}, nil
	}

	f.uc.HandleURL(context.Background(), testChatID, testUserID, "https://youtu.be/abc")

	assert.Empty(t, f.extractor.downloadCalls)
	assert.Contains(t, f.gateway.lastEdit(), "Файл слишком большой")
	assert.Contains(t, f.gateway.lastEdit(), "572 MiB")
	assert.Equal(t, []string{"youtube/video/rejected_too_large"}, f.metrics.outcomes)
}

func TestHandleURL_DeclaredSizeFollowsDownloadFormat(t *testing.T) {
	f := newFixture(t)
	f.extractor.probeFunc = func(_ context.Context, _ string, opts deps.ExtractOptions) (*deps.ProbeResult, error) {
		if opts.Format != videoFormat {
			return &deps.ProbeResult{Title: "HD", Duration: 300, FilesizeApprox: 900_000_000}, nil
		}
		return &deps.ProbeResult{Title: "HD", Duration: 300, FilesizeApprox: 40_000_000}, nil
	}
	f.writeVideo(4096)

	f.uc.HandleURL(context.Background(), testChatID, testUserID, "https://www.youtube.com/watch?v=hd")

	require.Len(t, f.extractor.downloadCalls, 1, "the selected rendition fits, so the download proceeds")
	require.Len(t, f.gateway.files, 1)
	assert.Equal(t, []string{"youtube/video/delivered"}, f.metrics.outcomes)
}

func TestHandleURL_InstagramPhotoDelivered(t *testing.T) {
	f := newFixture(t)
	f.extractor.downloadFunc = func(_ context.Context, _ string, opts deps.ExtractOptions) error {
		path := strings.Replace(opts.OutputTemplate, "%(title).50s.%(ext)s", "Post.jpg", 1)
		return afero.WriteFile(f.fs, path, []byte("jpeg"), 0o644)
	}

	f.uc.HandleURL(context.Background(), testChatID, testUserID, "https://www.instagram.com/p/Cabc123/")

	require.Len(t, f.extractor.downloadCalls, 1)
	assert.Zero(t, f.scraper.calls, "Instagram posts go through the extraction library")

	require.Len(t, f.gateway.files, 1)
	sent := f.gateway.files[0]
	assert.Equal(t, filepath.Join(f.requestDir(), "video_1700000000_Post.jpg"), sent.path)
	assert.Equal(t, entities.ContentPhoto, sent.kind)
	assert.Equal(t, []string{"instagram/photo/delivered"}, f.metrics.outcomes)
	assert.Equal(t, int64(1), f.gate.Snapshot().TotalCompleted)
	f.assertDirRemoved(t)
}

func TestHandleURL_TikTokPhotoUnsupported(t *testing.T) {
	f := newFixture(t)

	f.uc.HandleURL(context.Background(), testChatID, testUserID, "https://www.tiktok.com/@creator/photo/7300000000000000001")

	assert.Equal(t, 1, f.scraper.calls)
	assert.Empty(t, f.extractor.probeCalls, "photo posts get synthetic metadata")
	assert.Empty(t, f.extractor.downloadCalls)
	assert.Contains(t, f.gateway.lastEdit(), "TikTok фото не поддерживается")
	assert.NotContains(t, f.gateway.lastEdit(), "Произошла ошибка")
	assert.Equal(t, []string{"tiktok/photo/unsupported"}, f.metrics.outcomes)
	f.assertDirRemoved(t)
}

func TestHandleURL_TikTokPhotoDelivered(t *testing.T) {
	f := newFixture(t)
	f.scraper.fetchFunc = func(_ context.Context, req *entities.MediaRequest, dir string) (*entities.DownloadedArtifact, error) {
		path := filepath.Join(dir, "photo_1700000000_7300000000000000001.jpg")
		if err := afero.WriteFile(f.fs, path, []byte("jpeg"), 0o644); err != nil {
			return nil, err
		}
		return &entities.DownloadedArtifact{LocalPath: path, ByteSize: 4, Extension: "jpg"}, nil
	}

	f.uc.HandleURL(context.Background(), testChatID, testUserID, "https://www.tiktok.com/@creator/photo/7300000000000000001")

	require.Len(t, f.gateway.files, 1)
	assert.Equal(t, entities.ContentPhoto, f.gateway.files[0].kind)
	assert.Equal(t, "🎭 TikTok photo\n👤 TikTok", f.gateway.files[0].caption)
	assert.Equal(t, int64(1), f.gate.Snapshot().TotalCompleted)
	f.assertDirRemoved(t)
}

func TestHandleURL_DownloadFailureClassified(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
		outcome string
	}{
		{"Forbidden", errors.New("ERROR: [youtube] abc: HTTP Error 403: Forbidden"), "заблокировано", "youtube/video/failed_forbidden"},
		{"Not found", errors.New("ERROR: HTTP Error 404: Not Found"), "не найдено", "youtube/video/failed_not_found"},
		{"TikTok block", errors.New("ERROR: Video not available, status code 0"), "TikTok блокирует", "youtube/video/failed_blocked"},
		{"Other", errors.New("ERROR: something odd"), "Произошла ошибка", "youtube/video/failed_unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.extractor.downloadFunc = func(_ context.Context, _ string, opts deps.ExtractOptions) error {
				partial := strings.Replace(opts.OutputTemplate, "%(title).50s.%(ext)s", "x.mp4.part", 1)
				_ = afero.WriteFile(f.fs, partial, []byte("partial"), 0o644)
				return tt.err
			}

			f.uc.HandleURL(context.Background(), testChatID, testUserID, "https://youtu.be/abc")

			assert.Contains(t, f.gateway.lastEdit(), tt.wantMsg)
			assert.Empty(t, f.gateway.texts, "exactly one outcome message")
			assert.Equal(t, []string{tt.outcome}, f.metrics.outcomes)
			assert.Zero(t, f.gate.Snapshot().TotalCompleted)
			f.assertDirRemoved(t)
		})
	}
}

func TestHandleURL_NoFileProduced(t *testing.T) {
	f := newFixture(t)
	f.extractor.downloadFunc = func(context.Context, string, deps.ExtractOptions) error { return nil }

	f.uc.HandleURL(context.Background(), testChatID, testUserID, "https://youtu.be/abc")

	assert.Contains(t, f.gateway.lastEdit(), "Ошибка загрузки")
	assert.Equal(t, []string{"youtube/video/failed_no_file"}, f.metrics.outcomes)
}

func TestHandleURL_NoMetadata(t *testing.T) {
	f := newFixture(t)
	f.extractor.probeFunc = func(context.Context, string, deps.ExtractOptions) (*deps.ProbeResult, error) {
		return nil, errors.New("ERROR: Private video")
	}

	f.uc.HandleURL(context.Background(), testChatID, testUserID, "https://www.instagram.com/p/abc/")

	assert.Empty(t, f.extractor.downloadCalls)
	assert.Contains(t, f.gateway.lastEdit(), "Ошибка получения информации")
	assert.Equal(t, []string{"instagram/video/no_metadata"}, f.metrics.outcomes)
}

func TestHandleURL_SendFileFailure(t *testing.T) {
	f := newFixture(t)
	f.writeVideo(10)
	f.gateway.sendFileFunc = func(string) error {
		return errors.New("telegram API error: Forbidden: bot was blocked by the user")
	}

	f.uc.HandleURL(context.Background(), testChatID, testUserID, "https://youtu.be/abc")

	assert.Empty(t, f.gateway.deleted)
	assert.Contains(t, f.gateway.lastEdit(), "заблокировано")
	assert.Zero(t, f.gate.Snapshot().TotalCompleted)
	f.assertDirRemoved(t)
}

func TestHandleURL_StatusUnavailable(t *testing.T) {
	f := newFixture(t)
	f.gateway.sendStatusErr = errors.New("network down")
	f.extractor.probeFunc = func(context.Context, string, deps.ExtractOptions) (*deps.ProbeResult, error) {
		return &deps.ProbeResult{Duration: 7200}, nil
	}

	f.uc.HandleURL(context.Background(), testChatID, testUserID, "https://youtu.be/abc")

	assert.Empty(t, f.gateway.edits)
	require.Len(t, f.gateway.texts, 1, "outcome falls back to a new message")
	assert.Contains(t, f.gateway.texts[0], "слишком длинное")
}

func TestHandleURL_EditFailureFallsBackToText(t *testing.T) {
	f := newFixture(t)
	f.gateway.editErr = errors.New("message to edit not found")
	f.extractor.probeFunc = func(context.Context, string, deps.ExtractOptions) (*deps.ProbeResult, error) {
		return nil, errors.New("boom")
	}

	f.uc.HandleURL(context.Background(), testChatID, testUserID, "https://youtu.be/abc")

	require.Len(t, f.gateway.texts, 1)
	assert.Contains(t, f.gateway.texts[0], "Ошибка получения информации")
}

func TestHandleURL_PanicRecovered(t *testing.T) {
	f := newFixture(t)
	f.writeVideo(10)
	f.gateway.sendFileFunc = func(string) error { panic("upload exploded") }

	assert.NotPanics(t, func() {
		f.uc.HandleURL(context.Background(), testChatID, testUserID, "https://youtu.be/abc")
	})

	assert.Contains(t, f.gateway.lastEdit(), "Произошла ошибка")
	assert.Equal(t, []string{"youtube/video/panic"}, f.metrics.outcomes)

	s := f.gate.Snapshot()
	assert.Equal(t, 0, s.InFlight)
	assert.Zero(t, s.TotalCompleted)
	f.assertDirRemoved(t)
}

func TestHandleURL_CanceledWhileWaitingForSlot(t *testing.T) {
	f := newFixture(t)
	f.gate = admission.New(1)
	f.uc.gate = f.gate

	hold := make(chan struct{})
	entered := make(chan struct{})
	go func() {
		_ = f.gate.WithSlot(context.Background(), func(context.Context) bool {
			close(entered)
			<-hold
			return false
		})
	}()
	<-entered
	defer close(hold)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	f.uc.HandleURL(ctx, testChatID, testUserID, "https://youtu.be/abc")

	assert.Empty(t, f.extractor.probeCalls)
	assert.Empty(t, f.gateway.edits)
}

func TestAcquire_Timeout(t *testing.T) {
	f := newFixture(t)
	f.cfg.Timeout = 50 * time.Millisecond
	f.extractor.downloadFunc = func(ctx context.Context, _ string, opts deps.ExtractOptions) error {
		partial := strings.Replace(opts.OutputTemplate, "%(title).50s.%(ext)s", "slow.mp4.part", 1)
		_ = afero.WriteFile(f.fs, partial, []byte("partial"), 0o644)
		<-ctx.Done()
		return ctx.Err()
	}

	req := &entities.MediaRequest{ID: requestID, RawURL: "https://youtu.be/abc", Platform: entities.PlatformYouTube, Kind: entities.ContentVideo}
	result := f.uc.Acquire(context.Background(), req, &entities.MediaMetadata{DurationSeconds: 10})

	assert.Equal(t, entities.ResultFailed, result.Kind)
	assert.Equal(t, entities.ReasonTimeout, result.Reason)
	assert.ErrorIs(t, result.Err, mediaerrors.ErrDownloadTimeout)
	f.assertDirRemoved(t)
}

func TestAcquire_ActualSizeTooLarge(t *testing.T) {
	f := newFixture(t)
	f.cfg.MaxFileSizeMB = 1
	f.writeVideo(2 * 1024 * 1024)

	req := &entities.MediaRequest{ID: requestID, RawURL: "https://youtu.be/abc", Platform: entities.PlatformYouTube, Kind: entities.ContentVideo}
	result := f.uc.Acquire(context.Background(), req, &entities.MediaMetadata{DurationSeconds: 10})

	assert.Equal(t, entities.ResultRejected, result.Kind)
	assert.Equal(t, entities.ReasonTooLarge, result.Reason)
	assert.Equal(t, int64(2*1024*1024), result.Size)
	assert.ErrorIs(t, result.Err, mediaerrors.ErrTooLarge)

	exists, err := afero.Exists(f.fs, filepath.Join(f.requestDir(), "video_1700000000_Sample_Clip.mp4"))
	require.NoError(t, err)
	assert.False(t, exists, "oversized artifact is deleted immediately")
}

func TestAcquire_ImageIgnoredWithoutPhotoSupport(t *testing.T) {
	f := newFixture(t)
	f.extractor.downloadFunc = func(_ context.Context, _ string, opts deps.ExtractOptions) error {
		path := strings.Replace(opts.OutputTemplate, "%(title).50s.%(ext)s", "Thumb.jpg", 1)
		return afero.WriteFile(f.fs, path, []byte("jpeg"), 0o644)
	}

	req := &entities.MediaRequest{ID: requestID, RawURL: "https://youtu.be/abc", Platform: entities.PlatformYouTube, Kind: entities.ContentVideo}
	result := f.uc.Acquire(context.Background(), req, &entities.MediaMetadata{DurationSeconds: 10})

	assert.Equal(t, entities.ResultFailed, result.Kind)
	assert.Equal(t, entities.ReasonNoFile, result.Reason)
	assert.ErrorIs(t, result.Err, mediaerrors.ErrFileNotFound)
}

func TestAcquire_DownloadOptions(t *testing.T) {
	f := newFixture(t)
	f.writeVideo(1)

	req := &entities.MediaRequest{
		ID:          requestID,
		RawURL:      "https://vm.tiktok.com/x/",
		ResolvedURL: "https://www.tiktok.com/@c/video/1",
		Platform:    entities.PlatformTikTok,
		Kind:        entities.ContentVideo,
	}
	result := f.uc.Acquire(context.Background(), req, &entities.MediaMetadata{})
	require.Equal(t, entities.ResultDelivered, result.Kind)

	opts := f.extractor.lastOpts
	assert.Equal(t, videoFormat, opts.Format)
	assert.Equal(t, filepath.Join(f.requestDir(), "video_1700000000_%(title).50s.%(ext)s"), opts.OutputTemplate)
	assert.True(t, opts.RestrictFilename)
	assert.Equal(t, "iphone-agent", opts.Headers["User-Agent"])
	assert.Equal(t, "cookies.txt", opts.CookiesFile)
	assert.Equal(t, 3, opts.Retries)
	assert.Equal(t, "mp4", result.Artifact.Extension)
	assert.Equal(t, entities.ContentVideo, result.Artifact.Kind)
}

func TestGetMetadata(t *testing.T) {
	t.Run("TikTok photo is synthetic", func(t *testing.T) {
		f := newFixture(t)
		req := &entities.MediaRequest{Platform: entities.PlatformTikTok, Kind: entities.ContentPhoto}

		meta := f.uc.GetMetadata(context.Background(), req)
		require.NotNil(t, meta)
		assert.Equal(t, "TikTok photo", meta.Title)
		assert.Equal(t, "TikTok", meta.Uploader)
		assert.Zero(t, meta.DurationSeconds)
		assert.Empty(t, f.extractor.probeCalls)
	})

	t.Run("Probe fields and platform headers", func(t *testing.T) {
		f := newFixture(t)
		f.extractor.probeFunc = func(context.Context, string, deps.ExtractOptions) (*deps.ProbeResult, error) {
			return &deps.ProbeResult{
				Title: "Reel", Uploader: "someone", Duration: 15.5, ViewCount: 10,
				UploadDate: "20240101", Thumbnail: "https://t", FilesizeApprox: 1234, FormatCount: 4,
			}, nil
		}
		req := &entities.MediaRequest{RawURL: "https://www.instagram.com/reel/x/", Platform: entities.PlatformInstagram, Kind: entities.ContentVideo}

		meta := f.uc.GetMetadata(context.Background(), req)
		require.NotNil(t, meta)
		assert.Equal(t, entities.MediaMetadata{
			Title: "Reel", DurationSeconds: 15.5, Uploader: "someone", Platform: entities.PlatformInstagram,
			ViewCount: 10, UploadDate: "20240101", ThumbnailURL: "https://t", DeclaredFilesize: 1234, FormatCount: 4,
		}, *meta)

		opts := f.extractor.lastOpts
		assert.Equal(t, videoFormat, opts.Format)
		assert.Equal(t, "iphone-agent", opts.Headers["User-Agent"])
		assert.Equal(t, 30*time.Second, opts.SocketTimeout)
		assert.Equal(t, 3, opts.Retries)
		assert.Empty(t, opts.CookiesFile)
	})

	t.Run("YouTube has no custom headers and defaults names", func(t *testing.T) {
		f := newFixture(t)
		f.extractor.probeFunc = func(context.Context, string, deps.ExtractOptions) (*deps.ProbeResult, error) {
			return &deps.ProbeResult{Filesize: 99, FilesizeApprox: 12345}, nil
		}
		req := &entities.MediaRequest{RawURL: "https://youtu.be/x", Platform: entities.PlatformYouTube, Kind: entities.ContentVideo}

		meta := f.uc.GetMetadata(context.Background(), req)
		require.NotNil(t, meta)
		assert.Equal(t, int64(99), meta.DeclaredFilesize)
		assert.Equal(t, "Unknown", meta.Title)
		assert.Equal(t, "Unknown", meta.Uploader)
		assert.Nil(t, f.extractor.lastOpts.Headers)
		assert.Equal(t, videoFormat, f.extractor.lastOpts.Format)
	})

	t.Run("TikTok video carries cookies", func(t *testing.T) {
		f := newFixture(t)
		req := &entities.MediaRequest{RawURL: "https://www.tiktok.com/@c/video/1", Platform: entities.PlatformTikTok, Kind: entities.ContentVideo}

		require.NotNil(t, f.uc.GetMetadata(context.Background(), req))
		assert.Equal(t, "iphone-agent", f.extractor.lastOpts.Headers["User-Agent"])
		assert.Equal(t, "cookies.txt", f.extractor.lastOpts.CookiesFile)
	})

	t.Run("Extractor error wraps ErrNoMetadata", func(t *testing.T) {
		f := newFixture(t)
		f.extractor.probeFunc = func(context.Context, string, deps.ExtractOptions) (*deps.ProbeResult, error) {
			return nil, errors.New("ERROR: Private video")
		}
		req := &entities.MediaRequest{RawURL: "https://youtu.be/x", Platform: entities.PlatformYouTube, Kind: entities.ContentVideo}

		meta, err := f.uc.fetchMetadata(context.Background(), req)
		assert.Nil(t, meta)
		assert.ErrorIs(t, err, mediaerrors.ErrNoMetadata)
		assert.Contains(t, err.Error(), "Private video")
		assert.Nil(t, f.uc.GetMetadata(context.Background(), req))
	})

	t.Run("Empty result is ErrNoMetadata", func(t *testing.T) {
		f := newFixture(t)
		f.extractor.probeFunc = func(context.Context, string, deps.ExtractOptions) (*deps.ProbeResult, error) {
			return nil, nil
		}
		req := &entities.MediaRequest{RawURL: "https://youtu.be/x", Platform: entities.PlatformYouTube, Kind: entities.ContentVideo}

		_, err := f.uc.fetchMetadata(context.Background(), req)
		assert.ErrorIs(t, err, mediaerrors.ErrNoMetadata)
	})
}

func TestPrepareRequest(t *testing.T) {
	f := newFixture(t)
	f.resolver.mapping["https://vm.tiktok.com/ZMphoto/"] = "https://www.tiktok.com/@c/photo/7300000000000000001"

	req, err := f.uc.PrepareRequest(context.Background(), testChatID, testUserID, "  https://vm.tiktok.com/ZMphoto/ ")
	require.NoError(t, err)
	assert.Equal(t, &entities.MediaRequest{
		ID:          requestID,
		ChatID:      testChatID,
		UserID:      testUserID,
		RawURL:      "https://vm.tiktok.com/ZMphoto/",
		ResolvedURL: "https://www.tiktok.com/@c/photo/7300000000000000001",
		Platform:    entities.PlatformTikTok,
		Kind:        entities.ContentPhoto,
	}, req)

	_, err = f.uc.PrepareRequest(context.Background(), testChatID, testUserID, "hello there")
	assert.ErrorIs(t, err, mediaerrors.ErrUnsupportedURL)
}

func TestLocateArtifact(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "downloads/req"
	require.NoError(t, afero.WriteFile(fs, dir+"/video_1_a.mp4.part", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, dir+"/video_2_b.mp4", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, dir+"/video_1_c.WEBM", []byte("abc"), 0o644))

	require.NoError(t, afero.WriteFile(fs, dir+"/video_1_c.jpg", []byte("thumb"), 0o644))
	require.NoError(t, afero.WriteFile(fs, dir+"/video_4_d.jpeg", []byte("jpeg"), 0o644))

	artifact, err := locateArtifact(fs, dir, "video_1_", true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "video_1_c.WEBM"), artifact.LocalPath, "video wins over an image with the same prefix")
	assert.Equal(t, int64(3), artifact.ByteSize)
	assert.Equal(t, "webm", artifact.Extension)
	assert.Equal(t, entities.ContentVideo, artifact.Kind)

	artifact, err = locateArtifact(fs, dir, "video_4_", true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "video_4_d.jpeg"), artifact.LocalPath)
	assert.Equal(t, "jpeg", artifact.Extension)
	assert.Equal(t, entities.ContentPhoto, artifact.Kind)

	_, err = locateArtifact(fs, dir, "video_4_", false)
	assert.ErrorIs(t, err, mediaerrors.ErrFileNotFound)

	_, err = locateArtifact(fs, dir, "video_3_", true)
	assert.ErrorIs(t, err, mediaerrors.ErrFileNotFound)
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		err  error
		want entities.FailureReason
	}{
		{nil, entities.ReasonUnknown},
		{context.DeadlineExceeded, entities.ReasonTimeout},
		{fmt.Errorf("wrap: %w", mediaerrors.ErrDownloadTimeout), entities.ReasonTimeout},
		{fmt.Errorf("x: %w", mediaerrors.ErrFileNotFound), entities.ReasonNoFile},
		{fmt.Errorf("x: %w", mediaerrors.ErrNoImageFound), entities.ReasonNoFile},
		{fmt.Errorf("download 404 page: %w", mediaerrors.ErrDownloadTimeout), entities.ReasonTimeout},
		{fmt.Errorf("%w: HTTP Error 403", mediaerrors.ErrTelegramAPI), entities.ReasonForbidden},
		{errors.New("HTTP Error 403"), entities.ReasonForbidden},
		{errors.New("Forbidden"), entities.ReasonForbidden},
		{errors.New("HTTP Error 404"), entities.ReasonNotFound},
		{errors.New("Requested format Not Found"), entities.ReasonNotFound},
		{errors.New("Read timeout"), entities.ReasonTimeout},
		{errors.New("Video not available, status code 0"), entities.ReasonBlocked},
		{errors.New("weird"), entities.ReasonUnknown},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyFailure(tt.err))
		})
	}
}

func TestCommands(t *testing.T) {
	f := newFixture(t)

	start, err := f.uc.HandleStart(context.Background(), &dto.StartCommandRequest{UserID: testUserID, Username: "tester"})
	require.NoError(t, err)
	assert.Contains(t, start.Message, "Инструкция")

	help, err := f.uc.HandleHelp(context.Background())
	require.NoError(t, err)
	assert.Contains(t, help.Message, "500 MiB")

	stats, err := f.uc.HandleStats(context.Background())
	require.NoError(t, err)
	assert.Contains(t, stats.Message, "Лимит одновременных: 2")
	assert.Contains(t, stats.Message, "🎵 TikTok")
}

func TestMessages_EscapeUserContent(t *testing.T) {
	desc := entities.PlatformDescriptor{Emoji: "📺"}
	got := caption(desc, &entities.MediaMetadata{Title: "<b>bold</b> & more", Uploader: "a<b"})
	assert.Equal(t, "📺 &lt;b&gt;bold&lt;/b&gt; &amp; more\n👤 a&lt;b", got)

	assert.Equal(t, "1:05", formatDuration(65))
	assert.Equal(t, "неизвестно", formatDuration(0))
	assert.Equal(t, "абв", truncate("абвгд", 3))
}
