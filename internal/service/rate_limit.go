package service

import (
	"context"
	"fmt"
	"time"

	"github.com/set-night/seyedbot/internal/repository"
)

// RateLimitService counts hits per chat in fixed one-minute windows.
type RateLimitService struct {
	queries *repository.Queries
	limit   int
}

func NewRateLimitService(queries *repository.Queries, perMinute int) *RateLimitService {
	return &RateLimitService{queries: queries, limit: perMinute}
}

// Allow records a hit and reports whether the chat is still within its limit.
// A non-positive limit disables the check.
func (s *RateLimitService) Allow(ctx context.Context, chatID int64) (bool, error) {
	if s.limit <= 0 {
		return true, nil
	}
	hits, err := s.queries.CheckAndIncrementRateLimit(ctx, chatID)
	if err != nil {
		return false, fmt.Errorf("check rate limit: %w", err)
	}
	return int(hits) <= s.limit, nil
}

// Cleanup drops windows older than maxAge.
func (s *RateLimitService) Cleanup(ctx context.Context, maxAge time.Duration) error {
	if err := s.queries.CleanupRateLimits(ctx, time.Now().Add(-maxAge)); err != nil {
		return fmt.Errorf("cleanup rate limits: %w", err)
	}
	return nil
}
