//go:build !integration

package web

import (
	"context"
	"io"
	"time"

	"tenant-fanout-pipeline/internal/domain/model"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// --- Mock use cases ---

type mockStatsUC struct {
	QueuesFunc      func(ctx context.Context) (*model.QueueMetrics, *model.QueueMetrics, error)
	RunFunc         func(ctx context.Context, jobKey string) (*model.RunStats, error)
	DurationsFunc   func(ctx context.Context, jobKey string) (*model.DurationPercentiles, error)
	FailuresFunc    func(ctx context.Context, limit int) ([]*model.TenantFailureCount, error)
	DeadLettersFunc func(ctx context.Context, limit int) ([]*model.JobLogEntry, error)
	StalledFunc     func(ctx context.Context, window time.Duration) (bool, error)
}

func (m *mockStatsUC) Queues(ctx context.Context) (*model.QueueMetrics, *model.QueueMetrics, error) {
	if m.QueuesFunc != nil {
		return m.QueuesFunc(ctx)
	}
	return &model.QueueMetrics{}, &model.QueueMetrics{}, nil
}

func (m *mockStatsUC) Run(ctx context.Context, jobKey string) (*model.RunStats, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx, jobKey)
	}
	return &model.RunStats{JobKey: jobKey}, nil
}

func (m *mockStatsUC) Durations(ctx context.Context, jobKey string) (*model.DurationPercentiles, error) {
	if m.DurationsFunc != nil {
		return m.DurationsFunc(ctx, jobKey)
	}
	return &model.DurationPercentiles{}, nil
}

func (m *mockStatsUC) Failures(ctx context.Context, limit int) ([]*model.TenantFailureCount, error) {
	if m.FailuresFunc != nil {
		return m.FailuresFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockStatsUC) DeadLetters(ctx context.Context, limit int) ([]*model.JobLogEntry, error) {
	if m.DeadLettersFunc != nil {
		return m.DeadLettersFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockStatsUC) Stalled(ctx context.Context, window time.Duration) (bool, error) {
	if m.StalledFunc != nil {
		return m.StalledFunc(ctx, window)
	}
	return false, nil
}

type mockEnqueueUC struct {
	RunPassFunc func(ctx context.Context, jobKeyOverride string) (*model.EnqueueSummary, error)
}

func (m *mockEnqueueUC) RunPass(ctx context.Context, jobKeyOverride string) (*model.EnqueueSummary, error) {
	if m.RunPassFunc != nil {
		return m.RunPassFunc(ctx, jobKeyOverride)
	}
	return &model.EnqueueSummary{JobKey: jobKeyOverride}, nil
}

type mockProcessUC struct {
	ProcessMessageFunc func(ctx context.Context, msg *model.Message) error
	RunDirectFunc      func(ctx context.Context, tenantID, jobKey string) (*model.RunSummary, error)
}

func (m *mockProcessUC) ProcessMessage(ctx context.Context, msg *model.Message) error {
	if m.ProcessMessageFunc != nil {
		return m.ProcessMessageFunc(ctx, msg)
	}
	return nil
}

func (m *mockProcessUC) RunDirect(ctx context.Context, tenantID, jobKey string) (*model.RunSummary, error) {
	if m.RunDirectFunc != nil {
		return m.RunDirectFunc(ctx, tenantID, jobKey)
	}
	return &model.RunSummary{TenantID: tenantID, JobKey: jobKey, Status: model.JobStatusCompleted}, nil
}
