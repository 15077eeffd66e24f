package consumers

import (
	"context"

	"github.com/medflow/hours-service/internal/hours/service"
	"github.com/medflow/hours-service/pkg/logger"
	"github.com/medflow/hours-service/pkg/messaging"
)

// QueueName is the durable queue this service consumes from
const QueueName = "hours-service.timesheet-events"

// TimesheetEventConsumer turns staff clock-outs and timesheet change events
// from other writers into mid-week checks
type TimesheetEventConsumer struct {
	consumer *messaging.Consumer
	listener service.ChangeListener
	source   string
	logger   *logger.Logger
}

// NewTimesheetEventConsumer declares the queue, binds it and registers the handlers.
// Events published by source itself are ignored since they were already handled in-process.
func NewTimesheetEventConsumer(
	rmq *messaging.RabbitMQ,
	listener service.ChangeListener,
	source string,
	log *logger.Logger,
) (*TimesheetEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, QueueName, log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeStaffEvents, messaging.EventTimeClockOut); err != nil {
		return nil, err
	}
	if err := consumer.Subscribe(messaging.ExchangeHoursEvents, messaging.EventTimesheetChanged); err != nil {
		return nil, err
	}

	c := NewTimesheetEventHandlers(listener, source, log)
	c.consumer = consumer

	consumer.RegisterHandler(messaging.EventTimeClockOut, c.HandleClockOut)
	consumer.RegisterHandler(messaging.EventTimesheetChanged, c.HandleTimesheetChanged)

	return c, nil
}

// NewTimesheetEventHandlers builds the handlers without a broker connection
func NewTimesheetEventHandlers(listener service.ChangeListener, source string, log *logger.Logger) *TimesheetEventConsumer {
	return &TimesheetEventConsumer{
		listener: listener,
		source:   source,
		logger:   log.WithComponent("timesheet_consumer"),
	}
}

// Start starts consuming messages
func (c *TimesheetEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

// HandleClockOut runs the mid-week check for the employee who clocked out
func (c *TimesheetEventConsumer) HandleClockOut(ctx context.Context, event *messaging.Event) error {
	var data messaging.TimeClockOutEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}
	if data.EmployeeID == "" {
		c.logger.Warn().Str("event_id", event.ID).Msg("clock-out event without employee, ignoring")
		return nil
	}

	c.logger.Debug().
		Str("employee_id", data.EmployeeID).
		Str("time_entry_id", data.TimeEntryID).
		Msg("received clock-out event")

	c.listener.OnTimesheetChanged(ctx, []string{data.EmployeeID})
	return nil
}

// HandleTimesheetChanged runs the mid-week check for the listed employees
func (c *TimesheetEventConsumer) HandleTimesheetChanged(ctx context.Context, event *messaging.Event) error {
	if event.Source == c.source {
		return nil
	}

	var data messaging.TimesheetChangedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}
	if len(data.EmployeeIDs) == 0 {
		return nil
	}

	c.logger.Debug().
		Strs("employee_ids", data.EmployeeIDs).
		Str("source", event.Source).
		Msg("received timesheet changed event")

	c.listener.OnTimesheetChanged(ctx, data.EmployeeIDs)
	return nil
}
