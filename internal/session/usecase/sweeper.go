package usecase

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically removes expired sessions. SQL-backed session stores
// need it to keep the table bounded; with the Redis store each sweep is a
// cheap no-op because keys expire natively.
type Sweeper struct {
	useCase  UseCase
	interval time.Duration
}

// Run executes sweeps until the context is cancelled. A failed sweep is logged
// and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			deleted, err := s.useCase.DeleteExpired(ctx)
			if err != nil {
				slog.Error("session sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				slog.Info("expired sessions removed", "count", deleted)
			}
		}
	}
}

// NewSweeper creates a Sweeper running at the given interval.
func NewSweeper(useCase UseCase, interval time.Duration) *Sweeper {
	return &Sweeper{useCase: useCase, interval: interval}
}
