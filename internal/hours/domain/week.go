package domain

import "time"

// Date truncates t to its calendar day in t's location and returns it as midnight UTC,
// so dates compare and serialize independently of the configured zone.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MondayIndex returns the weekday with Monday = 0 ... Sunday = 6.
func MondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeekWindow returns the Monday..Sunday span containing ref, shifted by offset
// whole weeks (0 = current week, -1 = previous week). Both ends are inclusive dates.
func WeekWindow(ref time.Time, offset int) (start, end time.Time) {
	day := Date(ref)
	start = day.AddDate(0, 0, -MondayIndex(day)+7*offset)
	end = start.AddDate(0, 0, 6)
	return start, end
}

// FormatDate renders a calendar date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
