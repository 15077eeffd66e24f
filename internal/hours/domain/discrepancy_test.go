package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		logged   float64
		expected float64
		want     Status
	}{
		{"exact", 40, 40, StatusOnTrack},
		{"upper tolerance edge", 42, 40, StatusOnTrack},
		{"lower tolerance edge", 38, 40, StatusOnTrack},
		{"just over tolerance", 42.5, 40, StatusOvertime},
		{"overtime at critical boundary", 50, 40, StatusOvertime},
		{"critical just past boundary", 50.25, 40, StatusCritical},
		{"critical", 60, 40, StatusCritical},
		{"just under tolerance", 37.5, 40, StatusUndertime},
		{"large deficit is still undertime", 0, 40, StatusUndertime},
		{"deficit beyond ten is still undertime", 20, 40, StatusUndertime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, status := Classify(tt.logged, tt.expected)
			assert.InDelta(t, tt.logged-tt.expected, d, 1e-9)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestClassify_OnTrackBand(t *testing.T) {
	for d := -2.0; d <= 2.0; d += 0.25 {
		_, status := Classify(40+d, 40)
		assert.Equal(t, StatusOnTrack, status, "discrepancy %.2f", d)
	}
}

func TestClassify_NoCriticalUndertime(t *testing.T) {
	for _, logged := range []float64{37, 25, 10, 0} {
		_, status := Classify(logged, 40)
		assert.Equal(t, StatusUndertime, status, "logged %.1f", logged)
	}
}

func TestNeedsMidWeekNotice(t *testing.T) {
	assert.False(t, NeedsMidWeekNotice(5))
	assert.False(t, NeedsMidWeekNotice(-5))
	assert.True(t, NeedsMidWeekNotice(5.5))
	assert.True(t, NeedsMidWeekNotice(-20))
}

func TestNewWeeklySummary_DerivesFields(t *testing.T) {
	s := NewWeeklySummary("emp-1", time.Date(2024, 1, 8, 15, 0, 0, 0, time.UTC), 52, 40, SourceWeekly)

	assert.Equal(t, date(2024, 1, 8), s.WeekStart)
	assert.Equal(t, date(2024, 1, 14), s.WeekEnd)
	assert.InDelta(t, 12.0, s.Discrepancy, 1e-9)
	assert.Equal(t, StatusCritical, s.Status)
	assert.False(t, s.Notified)
	assert.Nil(t, s.NotifiedAt)
}

func TestWeeklySummary_MarkNotifiedOnce(t *testing.T) {
	s := NewWeeklySummary("emp-1", date(2024, 1, 8), 30, 40, SourceMidWeek)
	first := time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)

	require.True(t, s.MarkNotified(first))
	assert.False(t, s.MarkNotified(first.Add(time.Hour)))
	assert.True(t, s.Notified)
	assert.Equal(t, first, *s.NotifiedAt)
}

func TestNewNotificationPayload(t *testing.T) {
	manager := "Dr. Weber"
	email := "weber@clinic.de"
	emp := &Employee{ID: "emp-1", Name: "Anna Schmidt", ManagerName: &manager, ManagerEmail: &email}
	s := NewWeeklySummary(emp.ID, date(2024, 1, 1), 31, 40, SourceWeekly)

	p := NewNotificationPayload(emp, s)

	assert.Equal(t, "Anna Schmidt", p.EmployeeName)
	assert.Equal(t, "Dr. Weber", p.ManagerName)
	assert.Equal(t, "weber@clinic.de", p.ManagerEmail)
	assert.Equal(t, "2024-01-01", p.WeekStart)
	assert.Equal(t, "2024-01-07", p.WeekEnd)
	assert.Equal(t, StatusUndertime, p.Status)
}
