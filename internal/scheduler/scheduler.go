// Package scheduler implements the daily guidance digest for Sophia.
// On the configured cron schedule it generates the three-part daily
// sequence (morning, midday, evening) for every configured seeker and
// persists the insights through the engine.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sophia-platform/sophia/internal/config"
	"github.com/sophia-platform/sophia/internal/engine"
	"github.com/sophia-platform/sophia/internal/notification"
)

// Scheduler fires the daily digest on a cron schedule.
// It runs as a background goroutine in gateway mode.
type Scheduler struct {
	engine   engine.Engine
	metrics  *Metrics
	logger   *slog.Logger
	config   *config.DailyDigestConfig
	notifier notification.Notifier

	schedule cron.Schedule
	now      func() time.Time
}

// New creates a Scheduler. Returns an error when the cron expression
// cannot be parsed, so a typo is caught at startup rather than silently
// never firing.
func New(eng engine.Engine, metrics *Metrics, logger *slog.Logger, cfg *config.DailyDigestConfig) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cfg.CronSchedule())
	if err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", cfg.CronSchedule(), err)
	}

	return &Scheduler{
		engine:   eng,
		metrics:  metrics,
		logger:   logger,
		config:   cfg,
		schedule: schedule,
		now:      time.Now,
	}, nil
}

// WithNotifier attaches a delivery channel for generated digests.
// Without one, digests are only persisted and logged.
func (s *Scheduler) WithNotifier(n notification.Notifier) *Scheduler {
	s.notifier = n
	return s
}

// Start begins the scheduler loop. Returns a cancel function.
func (s *Scheduler) Start(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		s.logger.InfoContext(ctx, "daily digest scheduler started",
			slog.String("schedule", s.config.CronSchedule()),
			slog.Int("seekers", len(s.config.Seekers)),
		)

		for {
			next := s.schedule.Next(s.now().UTC())
			timer := time.NewTimer(time.Until(next))

			select {
			case <-ctx.Done():
				timer.Stop()
				s.logger.Info("daily digest scheduler stopped")
				return
			case <-timer.C:
				s.fire(ctx)
			}
		}
	}()

	return cancel
}

// fire generates a digest for every configured seeker.
func (s *Scheduler) fire(ctx context.Context) {
	start := s.now()

	for _, seekerID := range s.config.Seekers {
		if ctx.Err() != nil {
			return
		}
		s.fireSeeker(ctx, seekerID)
	}

	if s.metrics != nil {
		s.metrics.RunDuration.Observe(time.Since(start).Seconds())
	}
}

func (s *Scheduler) fireSeeker(ctx context.Context, seekerID string) {
	if s.metrics != nil {
		s.metrics.DigestsFired.Inc()
	}

	digest, err := s.engine.DailyGuidance(ctx, seekerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "daily digest failed",
			slog.String("seeker_id", seekerID),
			slog.String("error", err.Error()),
		)
		if s.metrics != nil {
			s.metrics.DigestsFailed.Inc()
		}
		return
	}

	if s.metrics != nil {
		s.metrics.DigestsSucceeded.Inc()
	}

	if s.notifier != nil {
		if err := s.notifier.Deliver(ctx, digest); err != nil {
			s.logger.WarnContext(ctx, "digest notification failed",
				slog.String("seeker_id", seekerID),
				slog.String("channel", s.notifier.Type()),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "daily digest delivered",
		slog.String("seeker_id", seekerID),
		slog.String("date", digest.Date),
		slog.String("morning_domain", string(digest.Morning.Domain)),
		slog.String("evening_domain", string(digest.Evening.Domain)),
	)
}

// ValidateSchedule checks a cron expression without building a scheduler.
// Used by config validation and the HTTP API.
func ValidateSchedule(expr string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}
