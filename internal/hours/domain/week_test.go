package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekWindow(t *testing.T) {
	tests := []struct {
		name      string
		ref       time.Time
		offset    int
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"wednesday current week", date(2024, 1, 10), 0, date(2024, 1, 8), date(2024, 1, 14)},
		{"wednesday previous week", date(2024, 1, 10), -1, date(2024, 1, 1), date(2024, 1, 7)},
		{"monday is its own start", date(2024, 1, 8), 0, date(2024, 1, 8), date(2024, 1, 14)},
		{"sunday belongs to the week before", date(2024, 1, 14), 0, date(2024, 1, 8), date(2024, 1, 14)},
		{"previous week across year end", date(2024, 1, 3), -1, date(2023, 12, 25), date(2023, 12, 31)},
		{"next week", date(2024, 1, 10), 1, date(2024, 1, 15), date(2024, 1, 21)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := WeekWindow(tt.ref, tt.offset)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
			assert.Equal(t, time.Monday, start.Weekday())
			assert.Equal(t, time.Sunday, end.Weekday())
		})
	}
}

func TestWeekWindow_IgnoresTimeOfDayAndZone(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata not available")
	}

	// 23:30 on Sunday in Berlin is still Sunday for the week calculation.
	ref := time.Date(2024, 1, 14, 23, 30, 0, 0, berlin)
	start, end := WeekWindow(ref, 0)

	assert.Equal(t, date(2024, 1, 8), start)
	assert.Equal(t, date(2024, 1, 14), end)
}

func TestMondayIndex(t *testing.T) {
	assert.Equal(t, 0, MondayIndex(date(2024, 1, 8)))
	assert.Equal(t, 3, MondayIndex(date(2024, 1, 11)))
	assert.Equal(t, 6, MondayIndex(date(2024, 1, 14)))
}
