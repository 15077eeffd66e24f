package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medflow/hours-service/internal/hours/domain"
	"github.com/medflow/hours-service/internal/hours/repository"
	"github.com/medflow/hours-service/pkg/errors"
	"github.com/medflow/hours-service/pkg/testutil"
)

func TestTimesheetRepository_ListDurations(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	start := testutil.Date(2024, time.January, 8)
	end := testutil.Date(2024, time.January, 14)
	mockDB.ExpectQuery("AND project_id IS NOT NULL").
		WithArgs("emp-1", start, end).
		WillReturnRows(testutil.MockRows("duration_hours").AddRow(8.0).AddRow(7.5))

	repo := repository.NewTimesheetRepository(mockDB.DB)
	durations, err := repo.ListDurations(context.Background(), "emp-1", start, end)

	require.NoError(t, err)
	assert.Equal(t, []float64{8.0, 7.5}, durations)
	mockDB.ExpectationsWereMet(t)
}

func TestTimesheetRepository_ListDurations_TruncatesToDates(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("FROM timesheet_entries").
		WithArgs("emp-1", testutil.Date(2024, time.January, 8), testutil.Date(2024, time.January, 14)).
		WillReturnRows(testutil.MockRows("duration_hours"))

	repo := repository.NewTimesheetRepository(mockDB.DB)
	durations, err := repo.ListDurations(context.Background(), "emp-1",
		time.Date(2024, time.January, 8, 13, 45, 0, 0, time.UTC),
		time.Date(2024, time.January, 14, 23, 59, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Empty(t, durations)
	mockDB.ExpectationsWereMet(t)
}

func TestTimesheetRepository_Create(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	project := "proj-1"
	entry := &domain.TimeEntry{
		EmployeeID:    "emp-1",
		EntryDate:     testutil.Date(2024, time.January, 10),
		DurationHours: 8,
		ProjectID:     &project,
	}

	now := time.Now()
	mockDB.ExpectQuery("INSERT INTO timesheet_entries").
		WithArgs(sqlmock.AnyArg(), "emp-1", entry.EntryDate, 8.0, &project, nil).
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))

	repo := repository.NewTimesheetRepository(mockDB.DB)
	require.NoError(t, repo.Create(context.Background(), entry))

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, now, entry.CreatedAt)
	mockDB.ExpectationsWereMet(t)
}

func TestTimesheetRepository_GetByID_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("FROM timesheet_entries").
		WithArgs("missing").
		WillReturnRows(testutil.MockRows("id"))

	repo := repository.NewTimesheetRepository(mockDB.DB)
	_, err := repo.GetByID(context.Background(), "missing")

	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestTimesheetRepository_Update_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("UPDATE timesheet_entries").
		WillReturnRows(testutil.MockRows("updated_at"))

	repo := repository.NewTimesheetRepository(mockDB.DB)
	err := repo.Update(context.Background(), &domain.TimeEntry{ID: "gone", EmployeeID: "emp-1"})

	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
