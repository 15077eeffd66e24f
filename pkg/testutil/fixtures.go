package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medflow/hours-service/pkg/database"
)

// EmployeeFixture represents test employee data
type EmployeeFixture struct {
	ID                  string
	Name                string
	WorkEmail           *string
	ManagerID           *string
	ExpectedWeeklyHours float64
	Active              bool
}

// NewEmployeeFixture returns an active 40-hour employee without a manager
func NewEmployeeFixture(name string) *EmployeeFixture {
	return &EmployeeFixture{
		ID:                  uuid.New().String(),
		Name:                name,
		ExpectedWeeklyHours: 40.0,
		Active:              true,
	}
}

// SeedEmployee inserts the fixture into employees
func SeedEmployee(t *testing.T, ctx context.Context, db *database.DB, emp *EmployeeFixture) {
	t.Helper()
	_, err := db.ExecContext(ctx, `
		INSERT INTO employees (id, name, work_email, manager_id, expected_weekly_hours, active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, emp.ID, emp.Name, emp.WorkEmail, emp.ManagerID, emp.ExpectedWeeklyHours, emp.Active)
	if err != nil {
		t.Fatalf("failed to seed employee %s: %v", emp.Name, err)
	}
}

// SeedEntry inserts one timesheet entry; projectID nil means no project association
func SeedEntry(t *testing.T, ctx context.Context, db *database.DB, employeeID string, date time.Time, hours float64, projectID *string) string {
	t.Helper()
	id := uuid.New().String()
	_, err := db.ExecContext(ctx, `
		INSERT INTO timesheet_entries (id, employee_id, entry_date, duration_hours, project_id)
		VALUES ($1, $2, $3, $4, $5)
	`, id, employeeID, date, hours, projectID)
	if err != nil {
		t.Fatalf("failed to seed timesheet entry: %v", err)
	}
	return id
}
