//go:build !integration

package model

import (
	"testing"
	"time"
)

func TestJobKeyFor(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		g    PeriodGranularity
		want string
	}{
		{"hourly uses previous hour", PeriodHourly, "2026-02-28T23"},
		{"daily uses previous day", PeriodDaily, "2026-02-28"},
		{"monthly uses previous month", PeriodMonthly, "2026-02"},
		{"unknown granularity falls back to daily", PeriodGranularity("weekly"), "2026-02-28"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := JobKeyFor(at, tc.g); got != tc.want {
				t.Errorf("JobKeyFor(%s) = %q, want %q", tc.g, got, tc.want)
			}
		})
	}

	t.Run("deterministic within a period", func(t *testing.T) {
		a := JobKeyFor(time.Date(2026, 5, 10, 0, 1, 0, 0, time.UTC), PeriodDaily)
		b := JobKeyFor(time.Date(2026, 5, 10, 23, 59, 0, 0, time.UTC), PeriodDaily)
		if a != b {
			t.Errorf("expected same key within one day, got %q and %q", a, b)
		}
	})

	t.Run("normalizes to UTC", func(t *testing.T) {
		loc := time.FixedZone("UTC+5", 5*3600)
		local := time.Date(2026, 3, 1, 3, 0, 0, 0, loc) // 2026-02-28T22:00 UTC
		if got := JobKeyFor(local, PeriodDaily); got != "2026-02-27" {
			t.Errorf("JobKeyFor in non-UTC zone = %q, want %q", got, "2026-02-27")
		}
	})
}

func TestGranularityValid(t *testing.T) {
	if !PeriodDaily.Valid() {
		t.Error("daily should be valid")
	}
	if PeriodGranularity("fortnightly").Valid() {
		t.Error("unknown granularity should be invalid")
	}
}
