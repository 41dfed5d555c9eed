package workers

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/Conte777/MediaFlow/config"
	"github.com/Conte777/MediaFlow/internal/domain/media/deps"
)

// RetentionSweeper periodically removes stale entries from the downloads directory
// Request directories are normally removed by the pipeline itself, so the sweeper
// only catches leftovers from crashes and killed extractor processes
type RetentionSweeper struct {
	fs       afero.Fs
	metrics  deps.MetricsRecorder
	logger   zerolog.Logger
	dir      string
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time

	wg       sync.WaitGroup
	stopOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewRetentionSweeper creates a new retention sweeper worker
func NewRetentionSweeper(
	downloadCfg *config.DownloadConfig,
	cleanupCfg *config.CleanupConfig,
	fs afero.Fs,
	metrics deps.MetricsRecorder,
	logger zerolog.Logger,
) *RetentionSweeper {
	ctx, cancel := context.WithCancel(context.Background())

	interval := time.Hour
	maxAge := 24 * time.Hour

	if cleanupCfg != nil {
		if cleanupCfg.Interval > 0 {
			interval = cleanupCfg.Interval
		}
		if cleanupCfg.MaxFileAge > 0 {
			maxAge = cleanupCfg.MaxFileAge
		}
	}

	return &RetentionSweeper{
		fs:       fs,
		metrics:  metrics,
		logger:   logger.With().Str("component", "retention_sweeper").Logger(),
		dir:      downloadCfg.Dir,
		interval: interval,
		maxAge:   maxAge,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the retention sweeper worker
func (s *RetentionSweeper) Start() {
	s.logger.Info().
		Str("dir", s.dir).
		Dur("interval", s.interval).
		Dur("max_age", s.maxAge).
		Msg("starting retention sweeper worker")

	s.wg.Add(1)
	go s.run()
}

// Stop stops the retention sweeper worker; repeated calls are no-ops
func (s *RetentionSweeper) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info().Msg("stopping retention sweeper worker")
		s.cancel()
		s.wg.Wait()
		s.logger.Info().Msg("retention sweeper worker stopped")
	})
}

func (s *RetentionSweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.now())
		}
	}
}

// Sweep removes every direct child of the downloads directory whose
// modification time is older than the configured max age
// Returns the number of removed entries
func (s *RetentionSweeper) Sweep(now time.Time) int {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		s.logger.Error().Err(err).Str("dir", s.dir).Msg("failed to list downloads directory")
		return 0
	}

	cutoff := now.Add(-s.maxAge)
	removed := 0

	for _, entry := range entries {
		if !entry.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		if err := s.fs.RemoveAll(path); err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("failed to remove stale entry")
			continue
		}

		s.logger.Debug().
			Str("path", path).
			Bool("is_dir", entry.IsDir()).
			Dur("age", now.Sub(entry.ModTime())).
			Msg("removed stale entry")
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("retention sweep completed")
	}
	s.metrics.RecordSweep(removed)

	return removed
}
