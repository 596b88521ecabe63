package importance

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handle tracks a detached annotation run. Callers can wait on Done, cancel
// through the context they passed in, and read the outcome once finished.
type Handle struct {
	ID string

	done  chan struct{}
	mu    sync.Mutex
	stats RunStats
	err   error
}

// Done is closed when the run finishes.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the run's error, valid after Done is closed.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Stats returns the run's stats, valid after Done is closed.
func (h *Handle) Stats() RunStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// RunDetached starts Run in the background and returns a handle for it.
// The provided context cancels the run; the shard guard still applies, so a
// detached run overlapping another run on the same gate finishes immediately
// with ErrRunInProgress.
func (g *Gate) RunDetached(ctx context.Context) *Handle {
	h := &Handle{
		ID:   uuid.New().String(),
		done: make(chan struct{}),
	}

	g.logger.Info("starting detached annotation run", zap.String("run_id", h.ID))
	go func() {
		defer close(h.done)
		stats, err := g.Run(ctx)
		h.mu.Lock()
		h.stats = stats
		h.err = err
		h.mu.Unlock()
		if err != nil {
			g.logger.Warn("detached annotation run failed",
				zap.String("run_id", h.ID),
				zap.Error(err))
			return
		}
		g.logger.Info("detached annotation run finished",
			zap.String("run_id", h.ID),
			zap.Int("classified", stats.Classified),
			zap.Int("pushed", stats.Pushed))
	}()
	return h
}
