package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kugather/signup-verification/internal/core/ports"
)

// RateLimiterService implements a fixed-window limit with one static policy.
type RateLimiterService struct {
	repo   ports.RateLimitRepository
	limit  int
	window time.Duration
	logger *logrus.Logger
}

// RateLimiterConfig groups configuration parameters for the rate limiter.
type RateLimiterConfig struct {
	RequestsPerWindow int
	Window            time.Duration
}

func NewRateLimiterService(repo ports.RateLimitRepository, cfg *RateLimiterConfig, logger *logrus.Logger) *RateLimiterService {
	// Apply defaults
	limit := 5
	w := 10 * time.Minute
	if cfg != nil {
		if cfg.RequestsPerWindow > 0 {
			limit = cfg.RequestsPerWindow
		}
		if cfg.Window > 0 {
			w = cfg.Window
		}
	}
	return &RateLimiterService{repo: repo, limit: limit, window: w, logger: logger}
}

var _ ports.RateLimiterService = (*RateLimiterService)(nil)

func (s *RateLimiterService) Allow(ctx context.Context, key string) (bool, int, int, time.Time, error) {
	ttl := s.window * 2 // retain overlap window
	count, windowStart, err := s.repo.IncrementWindow(ctx, key, s.window, ttl)
	reset := windowStart.Add(s.window)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"key": key}).WithError(err).Error("rate limiter: failed to increment window")
		}
		// fail open
		return true, s.limit, s.limit, reset, err
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"key": key, "count": count, "limit": s.limit}).Debug("rate limiter window state")
	}
	if count > s.limit {
		return false, 0, s.limit, reset, nil
	}
	return true, s.limit - count, s.limit, reset, nil
}
