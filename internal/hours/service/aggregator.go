package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// HoursAggregator totals the hours an employee logged against projects in a date window
type HoursAggregator struct {
	entries EntryStore
}

// NewHoursAggregator creates a new aggregator
func NewHoursAggregator(entries EntryStore) *HoursAggregator {
	return &HoursAggregator{entries: entries}
}

// WeeklyHours sums the durations dated within [start, end]. No entries is 0.
func (a *HoursAggregator) WeeklyHours(ctx context.Context, employeeID string, start, end time.Time) (float64, error) {
	durations, err := a.entries.ListDurations(ctx, employeeID, start, end)
	if err != nil {
		return 0, fmt.Errorf("aggregate hours: %w", err)
	}

	total := decimal.Zero
	for _, d := range durations {
		total = total.Add(decimal.NewFromFloat(d))
	}

	hours, _ := total.Float64()
	return hours, nil
}
