// Package domain holds the weekly hours model and the pure rules around it.
package domain

import (
	"time"
)

// Employee is read from the staff employee table; this service never writes it.
type Employee struct {
	ID                  string  `db:"id" json:"id"`
	Name                string  `db:"name" json:"name"`
	WorkEmail           *string `db:"work_email" json:"work_email,omitempty"`
	ExpectedWeeklyHours float64 `db:"expected_weekly_hours" json:"expected_weekly_hours"`
	Active              bool    `db:"active" json:"active"`
	ManagerID           *string `db:"manager_id" json:"manager_id,omitempty"`

	// Joined from the manager row
	ManagerName  *string `db:"manager_name" json:"manager_name,omitempty"`
	ManagerEmail *string `db:"manager_email" json:"manager_email,omitempty"`
}

// DefaultExpectedWeeklyHours applies when an employee has no explicit expectation.
const DefaultExpectedWeeklyHours = 40.0

// TimeEntry is one logged block of work
type TimeEntry struct {
	ID            string     `db:"id" json:"id"`
	EmployeeID    string     `db:"employee_id" json:"employee_id"`
	EntryDate     time.Time  `db:"entry_date" json:"entry_date"`
	DurationHours float64    `db:"duration_hours" json:"duration_hours"`
	ProjectID     *string    `db:"project_id" json:"project_id,omitempty"`
	Description   *string    `db:"description" json:"description,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at" json:"-"`
}

// Summary sources
const (
	SourceWeekly  = "weekly"
	SourceMidWeek = "midweek"
)

// WeeklySummary is the persisted record of one employee's week
type WeeklySummary struct {
	ID            string     `db:"id" json:"id"`
	EmployeeID    string     `db:"employee_id" json:"employee_id"`
	WeekStart     time.Time  `db:"week_start" json:"week_start"`
	WeekEnd       time.Time  `db:"week_end" json:"week_end"`
	LoggedHours   float64    `db:"logged_hours" json:"logged_hours"`
	ExpectedHours float64    `db:"expected_hours" json:"expected_hours"`
	Discrepancy   float64    `db:"discrepancy" json:"discrepancy"`
	Status        Status     `db:"status" json:"status"`
	Source        string     `db:"source" json:"source"`
	Notified      bool       `db:"notified" json:"notified"`
	NotifiedAt    *time.Time `db:"notified_at" json:"notified_at,omitempty"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// NewWeeklySummary builds an unnotified summary for the week starting at weekStart.
// Discrepancy and status are derived from the hours here and nowhere else.
func NewWeeklySummary(employeeID string, weekStart time.Time, logged, expected float64, source string) *WeeklySummary {
	start := Date(weekStart)
	d, status := Classify(logged, expected)

	return &WeeklySummary{
		EmployeeID:    employeeID,
		WeekStart:     start,
		WeekEnd:       start.AddDate(0, 0, 6),
		LoggedHours:   logged,
		ExpectedHours: expected,
		Discrepancy:   d,
		Status:        status,
		Source:        source,
	}
}

// MarkNotified flips the summary to notified. It returns false when it already was.
func (s *WeeklySummary) MarkNotified(at time.Time) bool {
	if s.Notified {
		return false
	}
	s.Notified = true
	s.NotifiedAt = &at
	return true
}

// WeekStatus is the computed view of an employee's running week
type WeekStatus struct {
	EmployeeID    string    `json:"employee_id"`
	EmployeeName  string    `json:"employee_name"`
	WeekStart     time.Time `json:"week_start"`
	WeekEnd       time.Time `json:"week_end"`
	LoggedHours   float64   `json:"current_week_hours"`
	ExpectedHours float64   `json:"expected_weekly_hours"`
	Discrepancy   float64   `json:"hours_discrepancy"`
	Status        Status    `json:"discrepancy_status"`
}

// NotificationPayload is everything a manager message is rendered from
type NotificationPayload struct {
	SummaryID     string  `json:"summary_id"`
	EmployeeID    string  `json:"employee_id"`
	EmployeeName  string  `json:"employee_name"`
	ManagerName   string  `json:"manager_name"`
	ManagerEmail  string  `json:"manager_email"`
	LoggedHours   float64 `json:"logged_hours"`
	ExpectedHours float64 `json:"expected_hours"`
	Discrepancy   float64 `json:"discrepancy"`
	Status        Status  `json:"status"`
	WeekStart     string  `json:"week_start"`
	WeekEnd       string  `json:"week_end"`
}

// NewNotificationPayload assembles the payload. The caller has already checked
// that the employee has a manager with an address.
func NewNotificationPayload(emp *Employee, s *WeeklySummary) NotificationPayload {
	p := NotificationPayload{
		SummaryID:     s.ID,
		EmployeeID:    emp.ID,
		EmployeeName:  emp.Name,
		LoggedHours:   s.LoggedHours,
		ExpectedHours: s.ExpectedHours,
		Discrepancy:   s.Discrepancy,
		Status:        s.Status,
		WeekStart:     FormatDate(s.WeekStart),
		WeekEnd:       FormatDate(s.WeekEnd),
	}
	if emp.ManagerName != nil {
		p.ManagerName = *emp.ManagerName
	}
	if emp.ManagerEmail != nil {
		p.ManagerEmail = *emp.ManagerEmail
	}
	return p
}
