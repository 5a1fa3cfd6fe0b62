package cron

import (
	"context"
	"time"

	nonceRepo "slotchain/database/repository/nonce"
	"slotchain/utils"

	"go.uber.org/zap"
)

// NonceSweeper periodically drops expired access nonces so an idle process
// does not accumulate them between requests.
type NonceSweeper struct {
	Store    nonceRepo.NonceStore
	Interval time.Duration
	Logger   *zap.Logger
	Metrics  *utils.Metrics
	Now      func() time.Time
}

// Run blocks until ctx is done.
func (s *NonceSweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *NonceSweeper) SweepOnce(ctx context.Context) int {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	removed, err := s.Store.SweepExpired(ctx, now())
	if err != nil {
		s.Logger.Warn("Nonce sweep failed", zap.Error(err))
		return 0
	}
	if removed > 0 {
		s.Logger.Debug("Swept expired nonces", zap.Int("removed", removed))
		if s.Metrics != nil {
			s.Metrics.NoncesSwept.Add(float64(removed))
		}
	}
	return removed
}
