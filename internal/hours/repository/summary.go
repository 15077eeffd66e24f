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
	"github.com/medflow/hours-service/pkg/logger"
)

const weeklyRunIndex = "uq_weekly_summaries_weekly_run"

const summaryColumns = `
	id, employee_id, week_start, week_end, logged_hours, expected_hours, discrepancy,
	status, source, notified, notified_at, notes, created_at
`

// SummaryRepository persists weekly summaries. Rows are append-only apart
// from the notified flag and the free-text notes.
type SummaryRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db *database.DB, log *logger.Logger) *SummaryRepository {
	return &SummaryRepository{db: db, logger: log.WithComponent("summary_store")}
}

// CreateWeekly stores the scheduled-job summary unless any summary already
// exists for the employee-week. created is false when the row was skipped,
// including when a concurrent writer won the unique index.
func (r *SummaryRepository) CreateWeekly(ctx context.Context, s *domain.WeeklySummary) (bool, error) {
	var exists bool
	err := r.db.QueryRowxContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM weekly_summaries WHERE employee_id = $1 AND week_start = $2)`,
		s.EmployeeID, domain.Date(s.WeekStart),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existing summary: %w", err)
	}
	if exists {
		return false, nil
	}

	s.Source = domain.SourceWeekly
	if err := r.insert(ctx, s); err != nil {
		if database.IsUniqueViolation(err, weeklyRunIndex) {
			r.logger.Debug().
				Str("employee_id", s.EmployeeID).
				Str("week_start", domain.FormatDate(s.WeekStart)).
				Msg("weekly summary written concurrently, skipping")
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Create stores a summary unconditionally. Used for mid-week rows.
func (r *SummaryRepository) Create(ctx context.Context, s *domain.WeeklySummary) error {
	return r.insert(ctx, s)
}

func (r *SummaryRepository) insert(ctx context.Context, s *domain.WeeklySummary) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	query := `
		INSERT INTO weekly_summaries (
			id, employee_id, week_start, week_end, logged_hours, expected_hours,
			discrepancy, status, source, notified, notified_at, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		s.ID, s.EmployeeID, domain.Date(s.WeekStart), domain.Date(s.WeekEnd), s.LoggedHours, s.ExpectedHours,
		s.Discrepancy, string(s.Status), s.Source, s.Notified, s.NotifiedAt, s.Notes,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create weekly summary: %w", err)
	}
	return nil
}

// MarkNotified sets notified once. A second call leaves the row alone and
// only logs, so notified_at keeps the first delivery time.
func (r *SummaryRepository) MarkNotified(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE weekly_summaries SET notified = TRUE, notified_at = $2 WHERE id = $1 AND notified = FALSE`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("failed to mark summary %s notified: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark summary %s notified: %w", id, err)
	}
	if rows == 0 {
		r.logger.Warn().Str("summary_id", id).Msg("summary already notified or missing, ignoring")
	}
	return nil
}

// SetNotes replaces the notes of a summary and returns the updated row.
// A nil notes clears them.
func (r *SummaryRepository) SetNotes(ctx context.Context, id string, notes *string) (*domain.WeeklySummary, error) {
	query := `UPDATE weekly_summaries SET notes = $2 WHERE id = $1 RETURNING ` + summaryColumns

	var s domain.WeeklySummary
	err := sqlx.GetContext(ctx, r.db, &s, query, id, notes)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("weekly summary")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update summary notes: %w", err)
	}
	return &s, nil
}

// Find returns the summary for the employee-week, preferring a notified row
// and then the newest one. It returns nil when there is none.
func (r *SummaryRepository) Find(ctx context.Context, employeeID string, weekStart time.Time) (*domain.WeeklySummary, error) {
	query := `SELECT ` + summaryColumns + `
		FROM weekly_summaries
		WHERE employee_id = $1 AND week_start = $2
		ORDER BY notified DESC, created_at DESC
		LIMIT 1
	`

	var s domain.WeeklySummary
	err := sqlx.GetContext(ctx, r.db, &s, query, employeeID, domain.Date(weekStart))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find summary: %w", err)
	}
	return &s, nil
}

// HasNotified reports whether any summary of the employee-week was notified
func (r *SummaryRepository) HasNotified(ctx context.Context, employeeID string, weekStart time.Time) (bool, error) {
	var notified bool
	err := r.db.QueryRowxContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM weekly_summaries WHERE employee_id = $1 AND week_start = $2 AND notified = TRUE)`,
		employeeID, domain.Date(weekStart),
	).Scan(&notified)
	if err != nil {
		return false, fmt.Errorf("failed to check notified summary: %w", err)
	}
	return notified, nil
}

// ListByEmployee returns an employee's summaries, newest week first
func (r *SummaryRepository) ListByEmployee(ctx context.Context, employeeID string, limit int) ([]*domain.WeeklySummary, error) {
	if limit <= 0 || limit > 200 {
		limit = 52
	}

	query := `SELECT ` + summaryColumns + `
		FROM weekly_summaries
		WHERE employee_id = $1
		ORDER BY week_start DESC, created_at DESC
		LIMIT $2
	`

	var summaries []*domain.WeeklySummary
	if err := sqlx.SelectContext(ctx, r.db, &summaries, query, employeeID, limit); err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	return summaries, nil
}
