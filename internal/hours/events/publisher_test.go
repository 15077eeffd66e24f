package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medflow/hours-service/internal/hours/domain"
	"github.com/medflow/hours-service/internal/hours/events"
	"github.com/medflow/hours-service/pkg/logger"
	"github.com/medflow/hours-service/pkg/messaging"
)

type recordingPublisher struct {
	types []string
	data  []interface{}
	err   error
}

func (r *recordingPublisher) Publish(_ context.Context, eventType string, data interface{}) error {
	r.types = append(r.types, eventType)
	r.data = append(r.data, data)
	return r.err
}

func TestPublishSummaryCreated(t *testing.T) {
	rec := &recordingPublisher{}
	p := events.NewHoursEventPublisher(rec, logger.Nop())

	s := domain.NewWeeklySummary("emp-1", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), 28, 40, domain.SourceWeekly)
	s.ID = "sum-1"
	p.PublishSummaryCreated(context.Background(), s)

	require.Equal(t, []string{messaging.EventSummaryCreated}, rec.types)
	data := rec.data[0].(messaging.SummaryCreatedEvent)
	assert.Equal(t, "2024-01-01", data.WeekStart)
	assert.Equal(t, "undertime", data.Status)
	assert.Equal(t, -12.0, data.Discrepancy)
}

func TestPublish_ErrorsAreSwallowed(t *testing.T) {
	rec := &recordingPublisher{err: errors.New("channel closed")}
	p := events.NewHoursEventPublisher(rec, logger.Nop())

	assert.NotPanics(t, func() {
		p.PublishTimesheetChanged(context.Background(), "entry-1", []string{"emp-1"})
	})
	assert.Equal(t, []string{messaging.EventTimesheetChanged}, rec.types)
}

func TestNilPublisher_DropsEvents(t *testing.T) {
	var p *events.HoursEventPublisher

	assert.NotPanics(t, func() {
		p.PublishManagerNotified(context.Background(), &domain.WeeklySummary{}, time.Now())
	})
}
