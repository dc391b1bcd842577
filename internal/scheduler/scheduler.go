// Package scheduler runs the bot's periodic housekeeping.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// parser uses standard 5-field cron expressions plus descriptors like @every.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type SessionEvicter interface {
	EvictIdle(maxIdle time.Duration) int
}

type RateLimitCleaner interface {
	Cleanup(ctx context.Context, maxAge time.Duration) error
}

type Scheduler struct {
	cron *cron.Cron
}

func New() *Scheduler {
	return &Scheduler{cron: cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))}
}

// Add registers fn under a cron spec.
func (s *Scheduler) Add(spec, name string, fn func()) error {
	if _, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		fn()
		slog.Debug("scheduled job finished", "job", name, "duration", time.Since(start))
	}); err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	return nil
}

// EvictSessions drops sessions idle for longer than maxIdle.
func (s *Scheduler) EvictSessions(spec string, store SessionEvicter, maxIdle time.Duration) error {
	return s.Add(spec, "evict_sessions", func() {
		if n := store.EvictIdle(maxIdle); n > 0 {
			slog.Info("evicted idle sessions", "count", n)
		}
	})
}

// CleanupRateLimits drops rate limit windows older than maxAge every maxAge.
func (s *Scheduler) CleanupRateLimits(ctx context.Context, cleaner RateLimitCleaner, maxAge time.Duration) error {
	return s.Add("@every "+maxAge.String(), "cleanup_rate_limits", func() {
		if err := cleaner.Cleanup(ctx, maxAge); err != nil {
			slog.Error("cleanup rate limits", "error", err)
		}
	})
}

// Run starts the scheduler and stops it when ctx is done, waiting for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
