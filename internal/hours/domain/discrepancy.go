package domain

import "math"

// Status is the weekly discrepancy tier
type Status string

const (
	StatusOnTrack   Status = "on_track"
	StatusOvertime  Status = "overtime"
	StatusUndertime Status = "undertime"
	StatusCritical  Status = "critical"
)

// Thresholds in hours.
const (
	// OnTrackTolerance is the band around expected hours that counts as on track.
	OnTrackTolerance = 2.0
	// CriticalOvertime is the overtime beyond which a week is critical.
	// There is deliberately no undertime counterpart.
	CriticalOvertime = 10.0
	// MidWeekNotifyThreshold is the absolute discrepancy that interrupts a manager mid-week.
	MidWeekNotifyThreshold = 5.0
)

// Classify returns logged - expected and its status tier. First match wins:
// |d| <= 2 on_track, d > 10 critical, d > 2 overtime, otherwise undertime.
func Classify(logged, expected float64) (float64, Status) {
	d := logged - expected

	switch {
	case math.Abs(d) <= OnTrackTolerance:
		return d, StatusOnTrack
	case d > CriticalOvertime:
		return d, StatusCritical
	case d > OnTrackTolerance:
		return d, StatusOvertime
	default:
		return d, StatusUndertime
	}
}

// NeedsMidWeekNotice reports whether a running-week discrepancy is large enough to notify.
func NeedsMidWeekNotice(discrepancy float64) bool {
	return math.Abs(discrepancy) > MidWeekNotifyThreshold
}
