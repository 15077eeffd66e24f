package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/medflow/hours-service/internal/hours/domain"
	"github.com/medflow/hours-service/internal/hours/events"
	"github.com/medflow/hours-service/internal/hours/notifier"
	"github.com/medflow/hours-service/pkg/logger"
)

// Run kinds
const (
	RunWeekly  = "weekly"
	RunMidWeek = "midweek"
)

// RunReport counts what one weekly run or mid-week check did
type RunReport struct {
	Kind         string    `json:"kind"`
	WeekStart    string    `json:"week_start"`
	WeekEnd      string    `json:"week_end"`
	Employees    int       `json:"employees"`
	Created      int       `json:"created"`
	Skipped      int       `json:"skipped"`
	Notified     int       `json:"notified"`
	NotifyFailed int       `json:"notify_failed"`
	Failed       int       `json:"failed"`
	Inactive     bool      `json:"inactive,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeCreated
	outcomeNotified
	outcomeNotifyFailed
)

func (r *RunReport) add(o outcome) {
	switch o {
	case outcomeSkipped:
		r.Skipped++
	case outcomeCreated:
		r.Created++
	case outcomeNotified:
		r.Created++
		r.Notified++
	case outcomeNotifyFailed:
		r.Created++
		r.NotifyFailed++
	}
}

// GateConfig carries the calendar and timeout settings of the gate
type GateConfig struct {
	Location      *time.Location
	MidWeekDays   []time.Weekday
	StoreTimeout  time.Duration
	NotifyTimeout time.Duration
}

// NotificationGate decides when a weekly summary is stored and when the
// manager hears about it. Each employee-week is notified at most once.
type NotificationGate struct {
	employees  EmployeeStore
	aggregator *HoursAggregator
	summaries  SummaryStore
	notifier   notifier.Notifier
	locker     Locker
	events     *events.HoursEventPublisher
	cfg        GateConfig
	now        func() time.Time
	logger     *logger.Logger
}

// NewNotificationGate creates a gate. events may be nil.
func NewNotificationGate(
	employees EmployeeStore,
	aggregator *HoursAggregator,
	summaries SummaryStore,
	n notifier.Notifier,
	locker Locker,
	publisher *events.HoursEventPublisher,
	cfg GateConfig,
	log *logger.Logger,
) *NotificationGate {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &NotificationGate{
		employees:  employees,
		aggregator: aggregator,
		summaries:  summaries,
		notifier:   n,
		locker:     locker,
		events:     publisher,
		cfg:        cfg,
		now:        time.Now,
		logger:     log.WithComponent("notification_gate"),
	}
}

// SetClock replaces the wall clock
func (g *NotificationGate) SetClock(now func() time.Time) {
	g.now = now
}

func (g *NotificationGate) today() time.Time {
	return g.now().In(g.cfg.Location)
}

// RunWeekly summarizes the previous week for every active employee
func (g *NotificationGate) RunWeekly(ctx context.Context) (*RunReport, error) {
	return g.RunWeeklyAt(ctx, g.today())
}

// RunWeeklyAt summarizes the week before the one containing ref. Running it
// again for the same ref creates nothing and notifies nobody.
func (g *NotificationGate) RunWeeklyAt(ctx context.Context, ref time.Time) (*RunReport, error) {
	start, end := domain.WeekWindow(ref, -1)
	report := g.newReport(RunWeekly, start, end)
	log := g.logger.With().Str("run", RunWeekly).Str("week_start", report.WeekStart).Logger()

	storeCtx, cancel := g.storeContext(ctx)
	employees, err := g.employees.ListActive(storeCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}
	report.Employees = len(employees)

	log.Info().Int("employees", len(employees)).Msg("weekly summary run started")

	for _, emp := range employees {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = g.now()
			return report, err
		}
		g.isolate(emp, start, report, func() (outcome, error) {
			return g.summarizeWeek(ctx, emp, start, end)
		})
	}

	report.FinishedAt = g.now()
	log.Info().
		Int("created", report.Created).
		Int("skipped", report.Skipped).
		Int("notified", report.Notified).
		Int("notify_failed", report.NotifyFailed).
		Int("failed", report.Failed).
		Msg("weekly summary run finished")

	return report, nil
}

func (g *NotificationGate) summarizeWeek(ctx context.Context, emp *domain.Employee, start, end time.Time) (outcome, error) {
	unlock, err := g.locker.Lock(ctx, WeekLockKey(emp.ID, start))
	if err != nil {
		return outcomeSkipped, fmt.Errorf("lock: %w", err)
	}
	defer unlock()

	storeCtx, cancel := g.storeContext(ctx)
	defer cancel()

	logged, err := g.aggregator.WeeklyHours(storeCtx, emp.ID, start, end)
	if err != nil {
		return outcomeSkipped, err
	}

	s := domain.NewWeeklySummary(emp.ID, start, logged, emp.ExpectedWeeklyHours, domain.SourceWeekly)
	created, err := g.summaries.CreateWeekly(storeCtx, s)
	if err != nil {
		return outcomeSkipped, err
	}
	if !created {
		return outcomeSkipped, nil
	}

	g.events.PublishSummaryCreated(ctx, s)

	if s.Status == domain.StatusOnTrack {
		return outcomeCreated, nil
	}
	return g.notify(ctx, emp, s), nil
}

// CheckMidWeek looks at the running week of the given employees and notifies
// managers of large discrepancies. Outside the configured days it does nothing.
func (g *NotificationGate) CheckMidWeek(ctx context.Context, employeeIDs []string) (*RunReport, error) {
	today := g.today()
	start, end := domain.WeekWindow(today, 0)
	report := g.newReport(RunMidWeek, start, end)

	ids := uniqueIDs(employeeIDs)
	if len(ids) == 0 {
		report.FinishedAt = g.now()
		return report, nil
	}

	if !g.isMidWeekDay(today) {
		report.Inactive = true
		report.FinishedAt = g.now()
		g.logger.Debug().Str("weekday", today.Weekday().String()).Msg("not a mid-week check day, skipping")
		return report, nil
	}

	storeCtx, cancel := g.storeContext(ctx)
	employees, err := g.employees.GetByIDs(storeCtx, ids)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}
	report.Employees = len(employees)

	for _, emp := range employees {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = g.now()
			return report, err
		}
		g.isolate(emp, start, report, func() (outcome, error) {
			return g.checkWeek(ctx, emp, start, end)
		})
	}

	report.FinishedAt = g.now()
	return report, nil
}

func (g *NotificationGate) checkWeek(ctx context.Context, emp *domain.Employee, start, end time.Time) (outcome, error) {
	unlock, err := g.locker.Lock(ctx, WeekLockKey(emp.ID, start))
	if err != nil {
		return outcomeSkipped, fmt.Errorf("lock: %w", err)
	}
	defer unlock()

	storeCtx, cancel := g.storeContext(ctx)
	defer cancel()

	logged, err := g.aggregator.WeeklyHours(storeCtx, emp.ID, start, end)
	if err != nil {
		return outcomeSkipped, err
	}

	s := domain.NewWeeklySummary(emp.ID, start, logged, emp.ExpectedWeeklyHours, domain.SourceMidWeek)
	if !domain.NeedsMidWeekNotice(s.Discrepancy) {
		return outcomeSkipped, nil
	}

	notified, err := g.summaries.HasNotified(storeCtx, emp.ID, start)
	if err != nil {
		return outcomeSkipped, err
	}
	if notified {
		return outcomeSkipped, nil
	}

	if err := g.summaries.Create(storeCtx, s); err != nil {
		return outcomeSkipped, err
	}
	g.events.PublishSummaryCreated(ctx, s)

	return g.notify(ctx, emp, s), nil
}

// OnTimesheetChanged is the change listener for timesheet mutations
func (g *NotificationGate) OnTimesheetChanged(ctx context.Context, employeeIDs []string) {
	report, err := g.CheckMidWeek(ctx, employeeIDs)
	if err != nil {
		g.logger.Error().Err(err).Strs("employee_ids", employeeIDs).Msg("mid-week check failed")
		return
	}
	if report.Notified > 0 || report.Failed > 0 {
		g.logger.Info().
			Int("notified", report.Notified).
			Int("failed", report.Failed).
			Msg("mid-week check finished")
	}
}

// notify delivers the notification for s and marks it. Every failure here is
// logged and leaves the summary unnotified so a later run may retry.
func (g *NotificationGate) notify(ctx context.Context, emp *domain.Employee, s *domain.WeeklySummary) outcome {
	log := g.logger.WithEmployee(emp.ID, s.WeekStart)

	if emp.ManagerID == nil || emp.ManagerName == nil {
		log.Warn().Str("status", string(s.Status)).Msg("employee has no manager, notification skipped")
		return outcomeCreated
	}
	if emp.ManagerEmail == nil || *emp.ManagerEmail == "" {
		log.Warn().Str("manager_id", *emp.ManagerID).Msg("manager has no email address, notification skipped")
		return outcomeCreated
	}

	notifyCtx, cancel := withTimeout(ctx, g.cfg.NotifyTimeout)
	err := g.notifier.NotifyManager(notifyCtx, domain.NewNotificationPayload(emp, s))
	cancel()
	if errors.Is(err, notifier.ErrTemplateMissing) {
		log.Warn().Err(err).Msg("notification template missing, notification skipped")
		return outcomeCreated
	}
	if err != nil {
		log.Error().Err(err).Str("summary_id", s.ID).Msg("manager notification failed")
		return outcomeNotifyFailed
	}

	at := g.now()
	s.MarkNotified(at)

	storeCtx, cancel := g.storeContext(ctx)
	defer cancel()
	if err := g.summaries.MarkNotified(storeCtx, s.ID, at); err != nil {
		log.Error().Err(err).Str("summary_id", s.ID).Msg("manager notified but summary not marked")
		return outcomeNotified
	}

	g.events.PublishManagerNotified(ctx, s, at)
	return outcomeNotified
}

// CurrentWeek computes the running week's hours and status for one employee
func (g *NotificationGate) CurrentWeek(ctx context.Context, employeeID string) (*domain.WeekStatus, error) {
	storeCtx, cancel := g.storeContext(ctx)
	defer cancel()

	emp, err := g.employees.GetByID(storeCtx, employeeID)
	if err != nil {
		return nil, err
	}

	start, end := domain.WeekWindow(g.today(), 0)
	logged, err := g.aggregator.WeeklyHours(storeCtx, emp.ID, start, end)
	if err != nil {
		return nil, err
	}

	d, status := domain.Classify(logged, emp.ExpectedWeeklyHours)
	return &domain.WeekStatus{
		EmployeeID:    emp.ID,
		EmployeeName:  emp.Name,
		WeekStart:     start,
		WeekEnd:       end,
		LoggedHours:   logged,
		ExpectedHours: emp.ExpectedWeeklyHours,
		Discrepancy:   d,
		Status:        status,
	}, nil
}

// Summaries lists an employee's stored summaries, newest week first
func (g *NotificationGate) Summaries(ctx context.Context, employeeID string, limit int) ([]*domain.WeeklySummary, error) {
	storeCtx, cancel := g.storeContext(ctx)
	defer cancel()

	if _, err := g.employees.GetByID(storeCtx, employeeID); err != nil {
		return nil, err
	}
	return g.summaries.ListByEmployee(storeCtx, employeeID, limit)
}

// AnnotateSummary sets the notes of a stored summary. Blank notes clear them.
func (g *NotificationGate) AnnotateSummary(ctx context.Context, summaryID, notes string) (*domain.WeeklySummary, error) {
	storeCtx, cancel := g.storeContext(ctx)
	defer cancel()

	var value *string
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		value = &trimmed
	}
	return g.summaries.SetNotes(storeCtx, summaryID, value)
}

// isolate runs one employee's step so that an error or panic is counted and
// logged without stopping the rest of the run.
func (g *NotificationGate) isolate(emp *domain.Employee, weekStart time.Time, report *RunReport, step func() (outcome, error)) {
	log := g.logger.WithEmployee(emp.ID, weekStart)

	defer func() {
		if r := recover(); r != nil {
			report.Failed++
			log.Error().Interface("panic", r).Str("run", report.Kind).Msg("employee step panicked")
		}
	}()

	o, err := step()
	if err != nil {
		report.Failed++
		log.Error().Err(err).Str("run", report.Kind).Msg("employee step failed")
		return
	}
	report.add(o)
}

func (g *NotificationGate) newReport(kind string, start, end time.Time) *RunReport {
	return &RunReport{
		Kind:      kind,
		WeekStart: domain.FormatDate(start),
		WeekEnd:   domain.FormatDate(end),
		StartedAt: g.now(),
	}
}

func (g *NotificationGate) isMidWeekDay(t time.Time) bool {
	for _, d := range g.cfg.MidWeekDays {
		if t.Weekday() == d {
			return true
		}
	}
	return false
}

func (g *NotificationGate) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, g.cfg.StoreTimeout)
}

// withTimeout treats a zero timeout as none
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
