package service

import (
	"context"
	"time"

	"github.com/medflow/hours-service/internal/hours/domain"
)

// EmployeeStore is the read side of the employee table
type EmployeeStore interface {
	ListActive(ctx context.Context) ([]*domain.Employee, error)
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Employee, error)
}

// EntryStore lists the durations that count toward an employee's hours
type EntryStore interface {
	ListDurations(ctx context.Context, employeeID string, start, end time.Time) ([]float64, error)
}

// SummaryStore persists weekly summaries
type SummaryStore interface {
	CreateWeekly(ctx context.Context, s *domain.WeeklySummary) (bool, error)
	Create(ctx context.Context, s *domain.WeeklySummary) error
	MarkNotified(ctx context.Context, id string, at time.Time) error
	SetNotes(ctx context.Context, id string, notes *string) (*domain.WeeklySummary, error)
	Find(ctx context.Context, employeeID string, weekStart time.Time) (*domain.WeeklySummary, error)
	HasNotified(ctx context.Context, employeeID string, weekStart time.Time) (bool, error)
	ListByEmployee(ctx context.Context, employeeID string, limit int) ([]*domain.WeeklySummary, error)
}

// TimesheetStore persists timesheet entries
type TimesheetStore interface {
	Create(ctx context.Context, entry *domain.TimeEntry) error
	GetByID(ctx context.Context, id string) (*domain.TimeEntry, error)
	Update(ctx context.Context, entry *domain.TimeEntry) error
}
