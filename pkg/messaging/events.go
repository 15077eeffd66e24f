package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Consumed from the staff service
	EventTimeClockOut = "staff.time.clock_out"

	// Hours events
	EventTimesheetChanged = "hours.timesheet.changed"
	EventSummaryCreated   = "hours.summary.created"
	EventManagerNotified  = "hours.manager.notified"

	// Outbound mail requests picked up by the notification worker
	EventEmailRequested = "notification.email.requested"
)

// Exchange names
const (
	ExchangeStaffEvents        = "staff.events"
	ExchangeHoursEvents        = "hours.events"
	ExchangeNotificationEvents = "notification.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// TimeClockOutEvent is published by the staff service when an employee clocks out
type TimeClockOutEvent struct {
	TimeEntryID      string    `json:"time_entry_id"`
	EmployeeID       string    `json:"employee_id"`
	ClockIn          time.Time `json:"clock_in"`
	ClockOut         time.Time `json:"clock_out"`
	TotalWorkMinutes int       `json:"total_work_minutes"`
}

// TimesheetChangedEvent announces that entries of these employees were created or edited
type TimesheetChangedEvent struct {
	EmployeeIDs []string `json:"employee_ids"`
	EntryID     string   `json:"entry_id,omitempty"`
}

// SummaryCreatedEvent is published when a weekly summary row is stored
type SummaryCreatedEvent struct {
	SummaryID   string  `json:"summary_id"`
	EmployeeID  string  `json:"employee_id"`
	WeekStart   string  `json:"week_start"`
	Source      string  `json:"source"`
	Status      string  `json:"status"`
	Discrepancy float64 `json:"discrepancy"`
}

// ManagerNotifiedEvent is published after a manager was notified about a week
type ManagerNotifiedEvent struct {
	SummaryID  string    `json:"summary_id"`
	EmployeeID string    `json:"employee_id"`
	WeekStart  string    `json:"week_start"`
	Status     string    `json:"status"`
	NotifiedAt time.Time `json:"notified_at"`
}

// EmailRequestedEvent asks the notification worker to deliver one email
type EmailRequestedEvent struct {
	To       string            `json:"to"`
	ToName   string            `json:"to_name,omitempty"`
	Subject  string            `json:"subject"`
	Body     string            `json:"body"`
	Template string            `json:"template"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
