package model

import "time"

// PeriodGranularity controls how job keys are derived from the clock.
type PeriodGranularity string

const (
	PeriodHourly  PeriodGranularity = "hourly"
	PeriodDaily   PeriodGranularity = "daily"
	PeriodMonthly PeriodGranularity = "monthly"
)

func (g PeriodGranularity) Valid() bool {
	switch g {
	case PeriodHourly, PeriodDaily, PeriodMonthly:
		return true
	}
	return false
}

// JobKeyFor returns the job key for the most recently fully-elapsed period at
// the given instant. The key is deterministic: every invocation within the same
// period yields the same key, which is what makes the enqueue pass re-invokable.
func JobKeyFor(now time.Time, g PeriodGranularity) string {
	now = now.UTC()
	switch g {
	case PeriodHourly:
		return now.Add(-time.Hour).Format("2006-01-02T15")
	case PeriodMonthly:
		y, m, _ := now.Date()
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0).Format("2006-01")
	default: // daily
		return now.AddDate(0, 0, -1).Format("2006-01-02")
	}
}
