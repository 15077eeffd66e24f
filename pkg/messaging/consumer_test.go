package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medflow/hours-service/pkg/logger"
)

func TestDispatch_UnknownTypeIsAcked(t *testing.T) {
	event := &Event{ID: "e1", Type: "staff.employee.created"}

	outcome := Dispatch(context.Background(), map[string]MessageHandler{}, event, 0, logger.Nop())

	assert.Equal(t, Ack, outcome)
}

func TestDispatch_PassesCorrelationID(t *testing.T) {
	var got string
	handlers := map[string]MessageHandler{
		EventTimesheetChanged: func(ctx context.Context, _ *Event) error {
			got = CorrelationID(ctx)
			return nil
		},
	}

	event := &Event{ID: "e1", Type: EventTimesheetChanged, CorrelationID: "corr-7"}
	outcome := Dispatch(context.Background(), handlers, event, 0, logger.Nop())

	assert.Equal(t, Ack, outcome)
	assert.Equal(t, "corr-7", got)
}

func TestDispatch_FailureRequeuesUntilLimit(t *testing.T) {
	handlers := map[string]MessageHandler{
		EventTimeClockOut: func(context.Context, *Event) error { return errors.New("db down") },
	}
	event := &Event{ID: "e1", Type: EventTimeClockOut}

	assert.Equal(t, Requeue, Dispatch(context.Background(), handlers, event, 0, logger.Nop()))
	assert.Equal(t, Requeue, Dispatch(context.Background(), handlers, event, MaxDeliveryAttempts-1, logger.Nop()))
	assert.Equal(t, DeadLetter, Dispatch(context.Background(), handlers, event, MaxDeliveryAttempts, logger.Nop()))
}

func TestNewEvent_RoundTripsData(t *testing.T) {
	event, err := NewEvent(EventTimesheetChanged, "hours-service", "corr-1", TimesheetChangedEvent{
		EmployeeIDs: []string{"emp-1", "emp-2"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "hours-service", event.Source)

	var data TimesheetChangedEvent
	require.NoError(t, event.UnmarshalData(&data))
	assert.Equal(t, []string{"emp-1", "emp-2"}, data.EmployeeIDs)
}
