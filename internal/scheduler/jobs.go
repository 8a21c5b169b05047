package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// League is the slice of the league service the periodic jobs drive.
type League interface {
	ExpireReferrals(ctx context.Context) (int64, error)
	RefreshLiveGames(ctx context.Context) error
}

// RegisterLeagueJobs adds claim referral expiry and the LIVE_GAMES refresh.
func (s *Service) RegisterLeagueJobs(l League, expireEvery, liveEvery time.Duration) error {
	if _, err := s.Every("expire-claim-referrals", expireEvery, func(ctx context.Context) error {
		n, err := l.ExpireReferrals(ctx)
		if n > 0 {
			s.log.Info("claim referrals expired", zap.Int64("count", n))
		}
		return err
	}); err != nil {
		return err
	}
	_, err := s.Every("refresh-live-games", liveEvery, l.RefreshLiveGames)
	return err
}
