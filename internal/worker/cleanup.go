package worker

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredCodeSweeper deletes verification codes past their expiry.
type ExpiredCodeSweeper interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// VerificationCleaner periodically sweeps expired verification codes.
type VerificationCleaner struct {
	sweeper  ExpiredCodeSweeper
	interval time.Duration
	logger   *slog.Logger
}

// NewVerificationCleaner creates a cleaner. A non-positive interval disables it.
func NewVerificationCleaner(sweeper ExpiredCodeSweeper, interval time.Duration, logger *slog.Logger) *VerificationCleaner {
	return &VerificationCleaner{sweeper: sweeper, interval: interval, logger: logger}
}

// Start runs the sweep loop in a goroutine until ctx is cancelled. The
// returned channel is closed once the loop has exited.
func (w *VerificationCleaner) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if w.interval <= 0 {
		w.logger.Info("verification cleanup disabled")
		close(done)
		return done
	}
	go func() {
		defer close(done)
		w.run(ctx)
	}()
	return done
}

func (w *VerificationCleaner) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("verification cleanup stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *VerificationCleaner) sweep(ctx context.Context) {
	removed, err := w.sweeper.CleanupExpired(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "sweep expired verification codes", "error", err)
		return
	}
	if removed > 0 {
		w.logger.InfoContext(ctx, "removed expired verification codes", "count", removed)
	}
}
