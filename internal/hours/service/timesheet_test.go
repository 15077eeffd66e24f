package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medflow/hours-service/internal/hours/domain"
	"github.com/medflow/hours-service/pkg/errors"
	"github.com/medflow/hours-service/pkg/logger"
)

type fakeTimesheets struct {
	entries map[string]*domain.TimeEntry
	seq     int
}

func (f *fakeTimesheets) Create(_ context.Context, e *domain.TimeEntry) error {
	f.seq++
	e.ID = fmt.Sprintf("entry-%d", f.seq)
	copied := *e
	f.entries[e.ID] = &copied
	return nil
}

func (f *fakeTimesheets) GetByID(_ context.Context, id string) (*domain.TimeEntry, error) {
	e, ok := f.entries[id]
	if !ok {
		return nil, errors.NotFound("timesheet entry")
	}
	copied := *e
	return &copied, nil
}

func (f *fakeTimesheets) Update(_ context.Context, e *domain.TimeEntry) error {
	copied := *e
	f.entries[e.ID] = &copied
	return nil
}

type recordingListener struct {
	calls [][]string
}

func (r *recordingListener) OnTimesheetChanged(_ context.Context, ids []string) {
	r.calls = append(r.calls, ids)
}

func newTimesheetFixture() (*TimesheetService, *fakeTimesheets, *recordingListener) {
	repo := &fakeTimesheets{entries: map[string]*domain.TimeEntry{}}
	listener := &recordingListener{}
	employees := newFakeEmployees(managedEmployee("e1"), managedEmployee("e2"))
	return NewTimesheetService(repo, employees, listener, nil, logger.Nop()), repo, listener
}

func input(employeeID string, date time.Time, hours float64) TimesheetInput {
	return TimesheetInput{EmployeeID: employeeID, EntryDate: date, DurationHours: hours, ProjectID: ptr("p1")}
}

func TestCreateEntry_NotifiesListener(t *testing.T) {
	svc, repo, listener := newTimesheetFixture()

	entry, err := svc.CreateEntry(context.Background(), input("e1", time.Date(2024, time.January, 11, 15, 0, 0, 0, time.UTC), 8))
	require.NoError(t, err)

	assert.Equal(t, day(2024, time.January, 11), repo.entries[entry.ID].EntryDate)
	assert.Equal(t, [][]string{{"e1"}}, listener.calls)
}

func TestCreateEntry_RejectsNegativeDuration(t *testing.T) {
	svc, repo, listener := newTimesheetFixture()

	_, err := svc.CreateEntry(context.Background(), input("e1", day(2024, time.January, 11), -1))

	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Empty(t, repo.entries)
	assert.Empty(t, listener.calls)
}

func TestCreateEntry_UnknownEmployee(t *testing.T) {
	svc, _, _ := newTimesheetFixture()

	_, err := svc.CreateEntry(context.Background(), input("nobody", day(2024, time.January, 11), 8))

	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestUpdateEntry_TriggersOnlyOnRelevantChanges(t *testing.T) {
	tests := []struct {
		name   string
		update TimesheetInput
		want   [][]string
	}{
		{"description only", TimesheetInput{EmployeeID: "e1", EntryDate: day(2024, time.January, 10), DurationHours: 8, ProjectID: ptr("p1"), Description: ptr("notes")}, nil},
		{"same day different time", input("e1", time.Date(2024, time.January, 10, 18, 0, 0, 0, time.UTC), 8), nil},
		{"duration", input("e1", day(2024, time.January, 10), 9), [][]string{{"e1"}}},
		{"date", input("e1", day(2024, time.January, 11), 8), [][]string{{"e1"}}},
		{"employee", input("e2", day(2024, time.January, 10), 8), [][]string{{"e1", "e2"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, listener := newTimesheetFixture()
			entry, err := svc.CreateEntry(context.Background(), input("e1", day(2024, time.January, 10), 8))
			require.NoError(t, err)
			listener.calls = nil

			_, err = svc.UpdateEntry(context.Background(), entry.ID, tt.update)
			require.NoError(t, err)

			assert.Equal(t, tt.want, listener.calls)
		})
	}
}

func TestUpdateEntry_NotFound(t *testing.T) {
	svc, _, listener := newTimesheetFixture()

	_, err := svc.UpdateEntry(context.Background(), "missing", input("e1", day(2024, time.January, 10), 8))

	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Empty(t, listener.calls)
}

func TestTimesheetService_DrivesGateEndToEnd(t *testing.T) {
	f := newGateFixture(thursday, managedEmployee("e1"))
	repo := &fakeTimesheets{entries: map[string]*domain.TimeEntry{}}
	svc := NewTimesheetService(repo, f.employees, f.gate, nil, logger.Nop())

	// The gate reads hours through its own entry store
	f.logWeek("e1", day(2024, time.January, 8), 47)
	_, err := svc.CreateEntry(context.Background(), input("e1", day(2024, time.January, 11), 1))
	require.NoError(t, err)

	assert.Equal(t, 1, f.notifier.calls())
}
