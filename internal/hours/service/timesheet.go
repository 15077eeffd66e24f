package service

import (
	"context"
	"time"

	"github.com/medflow/hours-service/internal/hours/domain"
	"github.com/medflow/hours-service/internal/hours/events"
	"github.com/medflow/hours-service/pkg/errors"
	"github.com/medflow/hours-service/pkg/logger"
)

// ChangeListener is told which employees' timesheets moved
type ChangeListener interface {
	OnTimesheetChanged(ctx context.Context, employeeIDs []string)
}

// TimesheetService handles timesheet entry writes and announces the changes
type TimesheetService struct {
	repo      TimesheetStore
	employees EmployeeStore
	listener  ChangeListener
	publisher *events.HoursEventPublisher
	logger    *logger.Logger
}

// NewTimesheetService creates a new timesheet service. publisher may be nil.
func NewTimesheetService(
	repo TimesheetStore,
	employees EmployeeStore,
	listener ChangeListener,
	publisher *events.HoursEventPublisher,
	log *logger.Logger,
) *TimesheetService {
	return &TimesheetService{
		repo:      repo,
		employees: employees,
		listener:  listener,
		publisher: publisher,
		logger:    log.WithComponent("timesheet_service"),
	}
}

// TimesheetInput holds the writable fields of an entry
type TimesheetInput struct {
	EmployeeID    string
	EntryDate     time.Time
	DurationHours float64
	ProjectID     *string
	Description   *string
}

// CreateEntry stores a new entry and runs the mid-week check for its employee
func (s *TimesheetService) CreateEntry(ctx context.Context, in TimesheetInput) (*domain.TimeEntry, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	entry := &domain.TimeEntry{
		EmployeeID:    in.EmployeeID,
		EntryDate:     domain.Date(in.EntryDate),
		DurationHours: in.DurationHours,
		ProjectID:     in.ProjectID,
		Description:   in.Description,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.changed(ctx, entry.ID, []string{entry.EmployeeID})
	return entry, nil
}

// UpdateEntry rewrites an entry. The mid-week check runs only when the
// duration, date or employee changed, for both the old and the new employee.
func (s *TimesheetService) UpdateEntry(ctx context.Context, id string, in TimesheetInput) (*domain.TimeEntry, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	before := *entry
	entry.EmployeeID = in.EmployeeID
	entry.EntryDate = domain.Date(in.EntryDate)
	entry.DurationHours = in.DurationHours
	entry.ProjectID = in.ProjectID
	entry.Description = in.Description

	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}

	if affected := affectedEmployees(&before, entry); len(affected) > 0 {
		s.changed(ctx, entry.ID, affected)
	}
	return entry, nil
}

func (s *TimesheetService) validate(ctx context.Context, in TimesheetInput) error {
	if in.DurationHours < 0 {
		return errors.Validation(map[string]string{"duration_hours": "must not be negative"})
	}
	if in.EntryDate.IsZero() {
		return errors.Validation(map[string]string{"entry_date": "this field is required"})
	}
	if _, err := s.employees.GetByID(ctx, in.EmployeeID); err != nil {
		return err
	}
	return nil
}

func (s *TimesheetService) changed(ctx context.Context, entryID string, employeeIDs []string) {
	s.publisher.PublishTimesheetChanged(ctx, entryID, employeeIDs)
	if s.listener != nil {
		s.listener.OnTimesheetChanged(ctx, employeeIDs)
	}
}

// affectedEmployees returns the employees whose weekly totals may have moved
func affectedEmployees(before, after *domain.TimeEntry) []string {
	durationChanged := before.DurationHours != after.DurationHours
	dateChanged := !domain.Date(before.EntryDate).Equal(domain.Date(after.EntryDate))
	employeeChanged := before.EmployeeID != after.EmployeeID

	if !durationChanged && !dateChanged && !employeeChanged {
		return nil
	}
	if employeeChanged {
		return []string{before.EmployeeID, after.EmployeeID}
	}
	return []string{after.EmployeeID}
}
