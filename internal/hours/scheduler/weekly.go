package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/medflow/hours-service/internal/hours/domain"
	"github.com/medflow/hours-service/internal/hours/service"
	"github.com/medflow/hours-service/pkg/logger"
)

// WeeklyRunner is the job the scheduler triggers
type WeeklyRunner interface {
	RunWeekly(ctx context.Context) (*service.RunReport, error)
}

// WeeklyScheduler polls on an interval and fires the weekly run once per
// week, at the first tick after the configured weekday and hour. A missed
// slot is caught up on the next tick, which is safe because the run is idempotent.
type WeeklyScheduler struct {
	runner   WeeklyRunner
	location *time.Location
	weekday  time.Weekday
	hour     int
	interval time.Duration
	now      func() time.Time
	logger   *logger.Logger

	mu       sync.Mutex
	lastSlot time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewWeeklyScheduler creates a new weekly scheduler
func NewWeeklyScheduler(runner WeeklyRunner, loc *time.Location, weekday time.Weekday, hour int, interval time.Duration, log *logger.Logger) *WeeklyScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &WeeklyScheduler{
		runner:   runner,
		location: loc,
		weekday:  weekday,
		hour:     hour,
		interval: interval,
		now:      time.Now,
		logger:   log.WithComponent("weekly_scheduler"),
	}
}

// Start starts the scheduler in a background goroutine
func (s *WeeklyScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.logger.Info().
			Dur("interval", s.interval).
			Str("weekday", s.weekday.String()).
			Int("hour", s.hour).
			Msg("weekly scheduler started")

		s.Tick(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("weekly scheduler stopped")
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Stop stops the scheduler goroutine and waits for a running job to return
func (s *WeeklyScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// Tick runs the weekly job if a slot passed since the last run. It reports whether it ran.
func (s *WeeklyScheduler) Tick(ctx context.Context) bool {
	slot := s.dueSlot(s.now().In(s.location))

	s.mu.Lock()
	if !slot.After(s.lastSlot) {
		s.mu.Unlock()
		return false
	}
	s.lastSlot = slot
	s.mu.Unlock()

	start := time.Now()
	report, err := s.runner.RunWeekly(ctx)
	if err != nil {
		s.logger.Error().Err(err).Time("slot", slot).Msg("weekly summary run failed")
		s.mu.Lock()
		s.lastSlot = time.Time{}
		s.mu.Unlock()
		return true
	}

	s.logger.Info().
		Time("slot", slot).
		Str("week_start", report.WeekStart).
		Int("created", report.Created).
		Int("notified", report.Notified).
		Int("failed", report.Failed).
		Dur("duration", time.Since(start)).
		Msg("weekly summary run completed")
	return true
}

// dueSlot returns the most recent run slot at or before now
func (s *WeeklyScheduler) dueSlot(now time.Time) time.Time {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, s.location)
	monday := midnight.AddDate(0, 0, -domain.MondayIndex(midnight))

	offset := (int(s.weekday) + 6) % 7
	slot := time.Date(monday.Year(), monday.Month(), monday.Day()+offset, s.hour, 0, 0, 0, s.location)
	if slot.After(now) {
		slot = slot.AddDate(0, 0, -7)
	}
	return slot
}
