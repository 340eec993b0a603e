package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/issuedesk/internal/observability/metrics"
)

// Purger drops expired entries and reports how many it removed
type Purger interface {
	Purge() int
}

// RevocationSweeper periodically purges expired token revocations from the
// in-memory store. It is not needed when revocations live in Redis.
type RevocationSweeper struct {
	store    Purger
	logger   *slog.Logger
	interval time.Duration
}

// NewRevocationSweeper creates a new sweeper
func NewRevocationSweeper(store Purger, logger *slog.Logger, interval time.Duration) *RevocationSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &RevocationSweeper{
		store:    store,
		logger:   logger,
		interval: interval,
	}
}

// Start runs the sweep loop until ctx is cancelled
func (w *RevocationSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("revocation sweeper started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("revocation sweeper stopped")
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep purges once and returns the number of removed entries
func (w *RevocationSweeper) Sweep() int {
	removed := w.store.Purge()
	metrics.ObserveRevocationsPurged(removed)
	if removed > 0 {
		w.logger.Debug("expired revocations purged", slog.Int("count", removed))
	}
	return removed
}
