package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/medflow/hours-service/internal/hours/domain"
	"github.com/medflow/hours-service/pkg/database"
	"github.com/medflow/hours-service/pkg/errors"
)

// TimesheetRepository handles timesheet entry persistence
type TimesheetRepository struct {
	db *database.DB
}

// NewTimesheetRepository creates a new timesheet repository
func NewTimesheetRepository(db *database.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

// Create inserts an entry and fills its id and timestamps
func (r *TimesheetRepository) Create(ctx context.Context, entry *domain.TimeEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO timesheet_entries (id, employee_id, entry_date, duration_hours, project_id, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		entry.ID, entry.EmployeeID, domain.Date(entry.EntryDate), entry.DurationHours, entry.ProjectID, entry.Description,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("failed to create timesheet entry: %w", err)
	}
	return nil
}

// GetByID returns a live entry or a NOT_FOUND AppError
func (r *TimesheetRepository) GetByID(ctx context.Context, id string) (*domain.TimeEntry, error) {
	query := `
		SELECT id, employee_id, entry_date, duration_hours, project_id, description,
		       created_at, updated_at, deleted_at
		FROM timesheet_entries
		WHERE id = $1 AND deleted_at IS NULL
	`

	var entry domain.TimeEntry
	err := sqlx.GetContext(ctx, r.db, &entry, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("timesheet entry")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get timesheet entry %s: %w", id, err)
	}
	return &entry, nil
}

// Update rewrites the mutable fields of a live entry
func (r *TimesheetRepository) Update(ctx context.Context, entry *domain.TimeEntry) error {
	query := `
		UPDATE timesheet_entries
		SET employee_id = $2, entry_date = $3, duration_hours = $4, project_id = $5,
		    description = $6, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		entry.ID, entry.EmployeeID, domain.Date(entry.EntryDate), entry.DurationHours, entry.ProjectID, entry.Description,
	).Scan(&entry.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.NotFound("timesheet entry")
	}
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("failed to update timesheet entry %s: %w", entry.ID, err)
	}
	return nil
}

// ListDurations returns the durations of an employee's live entries dated
// within [start, end] that carry a project. Entries without a project do not
// count toward worked hours.
func (r *TimesheetRepository) ListDurations(ctx context.Context, employeeID string, start, end time.Time) ([]float64, error) {
	query := `
		SELECT duration_hours
		FROM timesheet_entries
		WHERE employee_id = $1
		  AND entry_date BETWEEN $2 AND $3
		  AND project_id IS NOT NULL
		  AND deleted_at IS NULL
	`

	var durations []float64
	if err := sqlx.SelectContext(ctx, r.db, &durations, query, employeeID, domain.Date(start), domain.Date(end)); err != nil {
		return nil, fmt.Errorf("failed to list durations for employee %s: %w", employeeID, err)
	}
	return durations, nil
}
