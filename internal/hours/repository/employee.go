package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/medflow/hours-service/internal/hours/domain"
	"github.com/medflow/hours-service/pkg/database"
	"github.com/medflow/hours-service/pkg/errors"
)

const employeeColumns = `
	e.id, e.name, e.work_email, e.expected_weekly_hours, e.active, e.manager_id,
	m.name AS manager_name, m.work_email AS manager_email
`

// EmployeeRepository reads employees together with their manager's contact fields
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// ListActive returns every active employee ordered by name
func (r *EmployeeRepository) ListActive(ctx context.Context) ([]*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + `
		FROM employees e
		LEFT JOIN employees m ON m.id = e.manager_id
		WHERE e.active = TRUE
		ORDER BY e.name, e.id
	`

	var employees []*domain.Employee
	if err := sqlx.SelectContext(ctx, r.db, &employees, query); err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	return employees, nil
}

// GetByID returns one employee or a NOT_FOUND AppError
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + `
		FROM employees e
		LEFT JOIN employees m ON m.id = e.manager_id
		WHERE e.id = $1
	`

	var emp domain.Employee
	err := sqlx.GetContext(ctx, r.db, &emp, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("employee")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee %s: %w", id, err)
	}
	return &emp, nil
}

// GetByIDs returns the employees that exist among ids, active or not
func (r *EmployeeRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + employeeColumns + `
		FROM employees e
		LEFT JOIN employees m ON m.id = e.manager_id
		WHERE e.id = ANY($1)
		ORDER BY e.name, e.id
	`

	var employees []*domain.Employee
	if err := sqlx.SelectContext(ctx, r.db, &employees, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get employees: %w", err)
	}
	return employees, nil
}
