//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"tenant-fanout-pipeline/internal/domain/model"
)

func TestJobLogRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewJobLogRepo(testPool)

	appendEntry := func(t *testing.T, e *model.JobLogEntry) {
		t.Helper()
		if err := repo.Append(ctx, nil, e); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}

	t.Run("should aggregate run stats per job key", func(t *testing.T) {
		cleanup(t)

		appendEntry(t, &model.JobLogEntry{TenantID: "acme", JobKey: "2024-06-01", Status: model.JobStatusQueued, Attempt: 1})
		appendEntry(t, &model.JobLogEntry{TenantID: "acme", JobKey: "2024-06-01", Status: model.JobStatusCompleted, Attempt: 1})
		appendEntry(t, &model.JobLogEntry{TenantID: "globex", JobKey: "2024-06-01", Status: model.JobStatusFailed, Attempt: 2})
		appendEntry(t, &model.JobLogEntry{TenantID: "acme", JobKey: "2024-06-02", Status: model.JobStatusQueued, Attempt: 1})

		stats, err := repo.RunStats(ctx, nil, "2024-06-01")
		if err != nil {
			t.Fatalf("failed to read run stats: %v", err)
		}
		if stats.Queued != 1 || stats.Completed != 1 || stats.Failed != 1 || stats.DeadLettered != 0 {
			t.Errorf("unexpected stats: %+v", stats)
		}
	})

	t.Run("should compute duration percentiles over completed rows", func(t *testing.T) {
		cleanup(t)

		for i := 1; i <= 10; i++ {
			appendEntry(t, &model.JobLogEntry{
				TenantID: "acme",
				JobKey:   "2024-06-01",
				Status:   model.JobStatusCompleted,
				Attempt:  1,
				Duration: time.Duration(i) * 100 * time.Millisecond,
			})
		}
		// Failed rows must not skew the distribution.
		appendEntry(t, &model.JobLogEntry{
			TenantID: "acme",
			JobKey:   "2024-06-01",
			Status:   model.JobStatusFailed,
			Attempt:  1,
			Duration: time.Hour,
		})

		p, err := repo.DurationPercentiles(ctx, nil, "2024-06-01")
		if err != nil {
			t.Fatalf("failed to read percentiles: %v", err)
		}
		if p.P50 < 400*time.Millisecond || p.P50 > 700*time.Millisecond {
			t.Errorf("p50 out of range: %v", p.P50)
		}
		if p.P99 > time.Second {
			t.Errorf("p99 skewed by non-completed rows: %v", p.P99)
		}
		if p.P95 > p.P99 {
			t.Errorf("p95 (%v) must not exceed p99 (%v)", p.P95, p.P99)
		}
	})

	t.Run("should rank tenants by failures", func(t *testing.T) {
		cleanup(t)

		for i := 0; i < 3; i++ {
			appendEntry(t, &model.JobLogEntry{TenantID: "globex", JobKey: "k", Status: model.JobStatusFailed, Attempt: i + 1})
		}
		appendEntry(t, &model.JobLogEntry{TenantID: "acme", JobKey: "k", Status: model.JobStatusDeadLettered, Attempt: 4})
		appendEntry(t, &model.JobLogEntry{TenantID: "initech", JobKey: "k", Status: model.JobStatusCompleted, Attempt: 1})

		rows, err := repo.FailureLeaderboard(ctx, nil, 10)
		if err != nil {
			t.Fatalf("failed to read leaderboard: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 tenants on the leaderboard, got %d", len(rows))
		}
		if rows[0].TenantID != "globex" || rows[0].Failures != 3 {
			t.Errorf("unexpected top row: %+v", rows[0])
		}
	})

	t.Run("last queued time is zero on an empty log", func(t *testing.T) {
		cleanup(t)

		last, err := repo.LastQueuedAt(ctx, nil)
		if err != nil {
			t.Fatalf("failed to read last queued: %v", err)
		}
		if !last.IsZero() {
			t.Errorf("expected zero time, got %v", last)
		}

		appendEntry(t, &model.JobLogEntry{TenantID: "acme", JobKey: "k", Status: model.JobStatusQueued, Attempt: 1})
		last, err = repo.LastQueuedAt(ctx, nil)
		if err != nil {
			t.Fatalf("failed to read last queued: %v", err)
		}
		if last.IsZero() {
			t.Error("expected a non-zero time after a queued row")
		}
	})

	t.Run("should list newest rows for a status first", func(t *testing.T) {
		cleanup(t)

		appendEntry(t, &model.JobLogEntry{TenantID: "acme", JobKey: "k", Status: model.JobStatusDeadLettered, Attempt: 4, ErrorMessage: "old", CreatedAt: time.Now().Add(-time.Hour)})
		appendEntry(t, &model.JobLogEntry{TenantID: "globex", JobKey: "k", Status: model.JobStatusDeadLettered, Attempt: 4, ErrorMessage: "new"})

		rows, err := repo.ListByStatus(ctx, nil, model.JobStatusDeadLettered, 10)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		if rows[0].ErrorMessage != "new" {
			t.Errorf("expected the newest row first, got %q", rows[0].ErrorMessage)
		}
	})
}
