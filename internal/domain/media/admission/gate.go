// Package admission bounds how many acquisitions run at once
package admission

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/Conte777/MediaFlow/config"
	"github.com/Conte777/MediaFlow/internal/domain/media/entities"
)

// Gate is a counting semaphore with observable counters
type Gate struct {
	sem *semaphore.Weighted

	mu       sync.Mutex
	state    entities.AdmissionState
	observer func(entities.AdmissionState)
}

// NewGate creates a gate admitting at most cfg.MaxConcurrent slots
func NewGate(cfg *config.DownloadConfig) *Gate {
	return New(cfg.MaxConcurrent)
}

// New creates a gate admitting at most maxConcurrent slots
func New(maxConcurrent int) *Gate {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Gate{
		sem:   semaphore.NewWeighted(int64(maxConcurrent)),
		state: entities.AdmissionState{MaxConcurrent: maxConcurrent},
	}
}

// Observe registers a callback invoked with a snapshot after every counter change
func (g *Gate) Observe(fn func(entities.AdmissionState)) {
	g.mu.Lock()
	g.observer = fn
	g.mu.Unlock()
}

// WithSlot waits for a free slot, runs fn and releases the slot on every exit path.
// TotalCompleted grows only when fn reports success.
// The only error is ctx cancellation while waiting; fn is not run in that case.
func (g *Gate) WithSlot(ctx context.Context, fn func(ctx context.Context) bool) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	g.update(func(s *entities.AdmissionState) { s.InFlight++ })

	completed := false
	defer func() {
		g.update(func(s *entities.AdmissionState) {
			s.InFlight--
			if completed {
				s.TotalCompleted++
			}
		})
		g.sem.Release(1)
	}()

	completed = fn(ctx)
	return nil
}

// Snapshot returns a copy of the counters
func (g *Gate) Snapshot() entities.AdmissionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) update(change func(*entities.AdmissionState)) {
	g.mu.Lock()
	change(&g.state)
	snapshot := g.state
	observer := g.observer
	g.mu.Unlock()

	if observer != nil {
		observer(snapshot)
	}
}
