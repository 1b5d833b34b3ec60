package membership

import (
	"context"
	"time"

	"gymhub/internal/clock"
	"gymhub/internal/logger"
	"gymhub/internal/metrics"
)

// Sweeper periodically writes EXPIRED onto lapsed ACTIVE rows. Readers never
// depend on it: every read path already applies lazy expiry.
type Sweeper struct {
	repo     Repository
	clock    clock.Clock
	interval time.Duration
}

func NewSweeper(repo Repository, clk clock.Clock, interval time.Duration) *Sweeper {
	return &Sweeper{repo: repo, clock: clk, interval: interval}
}

// Run sweeps on every tick until ctx is done. A non-positive interval
// disables the loop.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		logger.Warn("membership sweeper disabled", "interval", s.interval.String())
		return
	}
	logger.Info("membership sweeper started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("membership sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				logger.Error("membership sweep failed", "error", err)
			}
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireLapsed(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info("expired lapsed memberships", "count", n)
		metrics.RecordExpiredMemberships(n)
	}
	return n, nil
}
