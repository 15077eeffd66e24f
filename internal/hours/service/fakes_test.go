package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/medflow/hours-service/internal/hours/domain"
	"github.com/medflow/hours-service/pkg/errors"
)

type fakeEmployees struct {
	byID map[string]*domain.Employee
	err  error
}

func newFakeEmployees(emps ...*domain.Employee) *fakeEmployees {
	f := &fakeEmployees{byID: map[string]*domain.Employee{}}
	for _, e := range emps {
		f.byID[e.ID] = e
	}
	return f
}

func (f *fakeEmployees) ListActive(context.Context) ([]*domain.Employee, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Employee
	for _, e := range f.byID {
		if e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmployees) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, errors.NotFound("employee")
}

func (f *fakeEmployees) GetByIDs(_ context.Context, ids []string) ([]*domain.Employee, error) {
	var out []*domain.Employee
	for _, id := range ids {
		if e, ok := f.byID[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeEntry struct {
	date    time.Time
	hours   float64
	project bool
}

type fakeEntries struct {
	byEmployee map[string][]fakeEntry
	failFor    map[string]bool
	panicFor   map[string]bool
}

func newFakeEntries() *fakeEntries {
	return &fakeEntries{
		byEmployee: map[string][]fakeEntry{},
		failFor:    map[string]bool{},
		panicFor:   map[string]bool{},
	}
}

func (f *fakeEntries) add(employeeID string, date time.Time, hours float64, project bool) {
	f.byEmployee[employeeID] = append(f.byEmployee[employeeID], fakeEntry{date: date, hours: hours, project: project})
}

func (f *fakeEntries) ListDurations(_ context.Context, employeeID string, start, end time.Time) ([]float64, error) {
	if f.panicFor[employeeID] {
		panic("corrupt row")
	}
	if f.failFor[employeeID] {
		return nil, fmt.Errorf("connection reset")
	}
	var out []float64
	for _, e := range f.byEmployee[employeeID] {
		if !e.project || e.date.Before(start) || e.date.After(end) {
			continue
		}
		out = append(out, e.hours)
	}
	return out, nil
}

type fakeSummaries struct {
	mu        sync.Mutex
	rows      []*domain.WeeklySummary
	markCalls int
	seq       int
}

func (f *fakeSummaries) CreateWeekly(_ context.Context, s *domain.WeeklySummary) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.EmployeeID == s.EmployeeID && r.WeekStart.Equal(s.WeekStart) {
			return false, nil
		}
	}
	f.insertLocked(s)
	return true, nil
}

func (f *fakeSummaries) Create(_ context.Context, s *domain.WeeklySummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertLocked(s)
	return nil
}

func (f *fakeSummaries) insertLocked(s *domain.WeeklySummary) {
	f.seq++
	s.ID = fmt.Sprintf("sum-%d", f.seq)
	copied := *s
	f.rows = append(f.rows, &copied)
}

func (f *fakeSummaries) MarkNotified(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls++
	for _, r := range f.rows {
		if r.ID == id {
			r.MarkNotified(at)
		}
	}
	return nil
}

func (f *fakeSummaries) SetNotes(_ context.Context, id string, notes *string) (*domain.WeeklySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			r.Notes = notes
			copied := *r
			return &copied, nil
		}
	}
	return nil, errors.NotFound("weekly summary")
}

func (f *fakeSummaries) Find(_ context.Context, employeeID string, weekStart time.Time) (*domain.WeeklySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *domain.WeeklySummary
	for _, r := range f.rows {
		if r.EmployeeID != employeeID || !r.WeekStart.Equal(weekStart) {
			continue
		}
		if found == nil || (r.Notified && !found.Notified) {
			found = r
		}
	}
	return found, nil
}

func (f *fakeSummaries) HasNotified(_ context.Context, employeeID string, weekStart time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.EmployeeID == employeeID && r.WeekStart.Equal(weekStart) && r.Notified {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSummaries) ListByEmployee(_ context.Context, employeeID string, _ int) ([]*domain.WeeklySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.WeeklySummary
	for _, r := range f.rows {
		if r.EmployeeID == employeeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSummaries) forEmployee(employeeID string) []*domain.WeeklySummary {
	out, _ := f.ListByEmployee(context.Background(), employeeID, 0)
	return out
}

type fakeNotifier struct {
	mu       sync.Mutex
	payloads []domain.NotificationPayload
	err      error
}

func (f *fakeNotifier) NotifyManager(_ context.Context, p domain.NotificationPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, p)
	return nil
}

func (f *fakeNotifier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}
