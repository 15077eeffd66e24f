package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medflow/hours-service/internal/hours/repository"
	"github.com/medflow/hours-service/pkg/errors"
	"github.com/medflow/hours-service/pkg/testutil"
)

var employeeCols = []string{
	"id", "name", "work_email", "expected_weekly_hours", "active", "manager_id", "manager_name", "manager_email",
}

func TestEmployeeRepository_ListActive_JoinsManager(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("WHERE e.active = TRUE").
		WillReturnRows(testutil.MockRows(employeeCols...).
			AddRow("emp-1", "Anna Schmidt", "anna@example.com", 40.0, true, "mgr-1", "Max Mueller", "max@example.com").
			AddRow("emp-2", "Ben Weber", nil, 30.0, true, nil, nil, nil))

	repo := repository.NewEmployeeRepository(mockDB.DB)
	employees, err := repo.ListActive(context.Background())

	require.NoError(t, err)
	require.Len(t, employees, 2)
	require.NotNil(t, employees[0].ManagerEmail)
	assert.Equal(t, "max@example.com", *employees[0].ManagerEmail)
	assert.Nil(t, employees[1].ManagerID)
	assert.Equal(t, 30.0, employees[1].ExpectedWeeklyHours)
	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeRepository_GetByID_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("WHERE e.id = $1").
		WithArgs("missing").
		WillReturnRows(testutil.MockRows(employeeCols...))

	repo := repository.NewEmployeeRepository(mockDB.DB)
	_, err := repo.GetByID(context.Background(), "missing")

	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestEmployeeRepository_GetByIDs_EmptyInput(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewEmployeeRepository(mockDB.DB)
	employees, err := repo.GetByIDs(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, employees)
	mockDB.ExpectationsWereMet(t)
}
