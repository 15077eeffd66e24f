package events

import (
	"context"
	"time"

	"github.com/medflow/hours-service/internal/hours/domain"
	"github.com/medflow/hours-service/pkg/logger"
	"github.com/medflow/hours-service/pkg/messaging"
)

// HoursEventPublisher publishes hours-related events. A nil publisher drops
// every event, which is how the CLI runs without a broker.
type HoursEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewHoursEventPublisher creates a new hours event publisher
func NewHoursEventPublisher(publisher messaging.EventPublisher, log *logger.Logger) *HoursEventPublisher {
	return &HoursEventPublisher{
		publisher: publisher,
		logger:    log,
	}
}

// PublishSummaryCreated publishes a summary created event
func (p *HoursEventPublisher) PublishSummaryCreated(ctx context.Context, s *domain.WeeklySummary) {
	if p == nil {
		return
	}

	data := messaging.SummaryCreatedEvent{
		SummaryID:   s.ID,
		EmployeeID:  s.EmployeeID,
		WeekStart:   domain.FormatDate(s.WeekStart),
		Source:      s.Source,
		Status:      string(s.Status),
		Discrepancy: s.Discrepancy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventSummaryCreated, data); err != nil {
		p.logger.Error().Err(err).Str("summary_id", s.ID).Msg("failed to publish summary created event")
	}
}

// PublishManagerNotified publishes a manager notified event
func (p *HoursEventPublisher) PublishManagerNotified(ctx context.Context, s *domain.WeeklySummary, at time.Time) {
	if p == nil {
		return
	}

	data := messaging.ManagerNotifiedEvent{
		SummaryID:  s.ID,
		EmployeeID: s.EmployeeID,
		WeekStart:  domain.FormatDate(s.WeekStart),
		Status:     string(s.Status),
		NotifiedAt: at,
	}

	if err := p.publisher.Publish(ctx, messaging.EventManagerNotified, data); err != nil {
		p.logger.Error().Err(err).Str("summary_id", s.ID).Msg("failed to publish manager notified event")
	}
}

// PublishTimesheetChanged lets other replicas and services know which employees' weeks moved
func (p *HoursEventPublisher) PublishTimesheetChanged(ctx context.Context, entryID string, employeeIDs []string) {
	if p == nil {
		return
	}

	data := messaging.TimesheetChangedEvent{
		EmployeeIDs: employeeIDs,
		EntryID:     entryID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventTimesheetChanged, data); err != nil {
		p.logger.Error().Err(err).Str("entry_id", entryID).Msg("failed to publish timesheet changed event")
	}
}
