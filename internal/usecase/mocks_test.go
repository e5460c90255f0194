package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"tenant-fanout-pipeline/internal/domain"
	"tenant-fanout-pipeline/internal/domain/model"
	"tenant-fanout-pipeline/internal/domain/ports/repository"
	"tenant-fanout-pipeline/internal/infra/worker"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// memJobStore is an in-memory queue used by unit tests. Its clock is
// injectable so tests can fast-forward past visibility timeouts without
// sleeping.
type memJobStore struct {
	mu         sync.Mutex
	msgs       map[string]*model.Message
	seq        int
	now        func() time.Time
	enqueueErr error
	// enqueueHook lets a test fail the enqueue for selected messages only.
	enqueueHook func(msg *model.Message) error
	ackErr      error
	readErr     error
}

func newMemJobStore() *memJobStore {
	return &memJobStore{
		msgs: make(map[string]*model.Message),
		now:  time.Now,
	}
}

func (m *memJobStore) Enqueue(ctx context.Context, msg *model.Message) (string, error) {
	if m.enqueueErr != nil {
		return "", m.enqueueErr
	}
	if m.enqueueHook != nil {
		if err := m.enqueueHook(msg); err != nil {
			return "", err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	cp := *msg
	cp.ID = fmt.Sprintf("m%d", m.seq)
	cp.EnqueuedAt = m.now()
	cp.VisibleAt = cp.EnqueuedAt
	m.msgs[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memJobStore) ReadBatch(ctx context.Context, maxCount int, visibilityTimeout time.Duration) ([]*model.Message, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var due []*model.Message
	for _, msg := range m.msgs {
		if !msg.VisibleAt.After(now) {
			due = append(due, msg)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].EnqueuedAt.Before(due[j].EnqueuedAt) })
	if len(due) > maxCount {
		due = due[:maxCount]
	}
	out := make([]*model.Message, 0, len(due))
	for _, msg := range due {
		msg.DeliveryCount++
		msg.VisibleAt = now.Add(visibilityTimeout)
		cp := *msg
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memJobStore) Ack(ctx context.Context, messageID string) error {
	if m.ackErr != nil {
		return m.ackErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.msgs, messageID)
	return nil
}

func (m *memJobStore) Metrics(ctx context.Context) (*model.QueueMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	qm := &model.QueueMetrics{PendingCount: len(m.msgs)}
	for _, msg := range m.msgs {
		if age := m.now().Sub(msg.EnqueuedAt); age > qm.OldestAge {
			qm.OldestAge = age
		}
	}
	return qm, nil
}

func (m *memJobStore) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}

func (m *memJobStore) get(id string) (*model.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.msgs[id]
	if !ok {
		return nil, false
	}
	cp := *msg
	return &cp, true
}

// memJobLog collects appended entries and answers the stats queries over them.
type memJobLog struct {
	mu        sync.Mutex
	entries   []*model.JobLogEntry
	appendErr error
}

func newMemJobLog() *memJobLog {
	return &memJobLog{}
}

func (m *memJobLog) Append(ctx context.Context, tx repository.Tx, entry *model.JobLogEntry) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memJobLog) RunStats(ctx context.Context, tx repository.Tx, jobKey string) (*model.RunStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := &model.RunStats{JobKey: jobKey}
	for _, e := range m.entries {
		if e.JobKey != jobKey {
			continue
		}
		switch e.Status {
		case model.JobStatusQueued:
			st.Queued++
		case model.JobStatusCompleted:
			st.Completed++
		case model.JobStatusFailed:
			st.Failed++
		case model.JobStatusDeadLettered:
			st.DeadLettered++
		}
	}
	return st, nil
}

func (m *memJobLog) DurationPercentiles(ctx context.Context, tx repository.Tx, jobKey string) (*model.DurationPercentiles, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ds []time.Duration
	for _, e := range m.entries {
		if e.Status == model.JobStatusCompleted && (jobKey == "" || e.JobKey == jobKey) {
			ds = append(ds, e.Duration)
		}
	}
	out := &model.DurationPercentiles{}
	if len(ds) == 0 {
		return out, nil
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
	pick := func(q float64) time.Duration {
		idx := int(q * float64(len(ds)-1))
		return ds[idx]
	}
	out.P50 = pick(0.50)
	out.P95 = pick(0.95)
	out.P99 = pick(0.99)
	return out, nil
}

func (m *memJobLog) FailureLeaderboard(ctx context.Context, tx repository.Tx, limit int) ([]*model.TenantFailureCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, e := range m.entries {
		if e.Status == model.JobStatusFailed || e.Status == model.JobStatusDeadLettered {
			counts[e.TenantID]++
		}
	}
	var out []*model.TenantFailureCount
	for id, c := range counts {
		out = append(out, &model.TenantFailureCount{TenantID: id, Failures: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Failures > out[j].Failures })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memJobLog) LastQueuedAt(ctx context.Context, tx repository.Tx) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last time.Time
	for _, e := range m.entries {
		if e.Status == model.JobStatusQueued && e.CreatedAt.After(last) {
			last = e.CreatedAt
		}
	}
	return last, nil
}

func (m *memJobLog) ListByStatus(ctx context.Context, tx repository.Tx, status model.JobStatus, limit int) ([]*model.JobLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.JobLogEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].Status == status {
			cp := *m.entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memJobLog) byStatus(status model.JobStatus) []*model.JobLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.JobLogEntry
	for _, e := range m.entries {
		if e.Status == status {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out
}

// memTenantRepo holds tenants in insertion order.
type memTenantRepo struct {
	mu      sync.Mutex
	order   []string
	store   map[string]*model.Tenant
	listErr error
}

func newMemTenantRepo(tenants ...*model.Tenant) *memTenantRepo {
	r := &memTenantRepo{store: make(map[string]*model.Tenant)}
	for _, t := range tenants {
		r.order = append(r.order, t.ID)
		cp := *t
		r.store[t.ID] = &cp
	}
	return r
}

func (m *memTenantRepo) Save(ctx context.Context, tx repository.Tx, t *model.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[t.ID]; !ok {
		m.order = append(m.order, t.ID)
	}
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *memTenantRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTenantRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Tenant, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Tenant
	for _, id := range m.order {
		if t := m.store[id]; t.Active {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

// memCompletionRepo is the idempotency guard backing store for tests.
type memCompletionRepo struct {
	mu        sync.Mutex
	done      map[string]bool
	existsErr error
	saveErr   error
}

func newMemCompletionRepo() *memCompletionRepo {
	return &memCompletionRepo{done: make(map[string]bool)}
}

func completionKey(tenantID, jobKey string) string {
	return tenantID + "|" + jobKey
}

func (m *memCompletionRepo) Exists(ctx context.Context, tx repository.Tx, tenantID, jobKey string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done[completionKey(tenantID, jobKey)], nil
}

func (m *memCompletionRepo) Save(ctx context.Context, tx repository.Tx, tenantID, jobKey string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done[completionKey(tenantID, jobKey)] = true
	return nil
}

func (m *memCompletionRepo) mark(tenantID, jobKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done[completionKey(tenantID, jobKey)] = true
}

// mockRunner records Execute calls. When fn is nil it behaves like a real
// runner that succeeds: it writes the completion record before returning.
type mockRunner struct {
	mu          sync.Mutex
	calls       []string
	fn          func(ctx context.Context, tenantID, jobKey string) error
	completions *memCompletionRepo
}

func (r *mockRunner) Execute(ctx context.Context, tenantID, jobKey string) error {
	r.mu.Lock()
	r.calls = append(r.calls, completionKey(tenantID, jobKey))
	r.mu.Unlock()
	if r.fn != nil {
		return r.fn(ctx, tenantID, jobKey)
	}
	if r.completions != nil {
		r.completions.mark(tenantID, jobKey)
	}
	return nil
}

func (r *mockRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type mockAlertSink struct {
	mu      sync.Mutex
	alerts  []model.Alert
	sendErr error
}

func (s *mockAlertSink) Send(ctx context.Context, alert model.Alert) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
	return nil
}

func (s *mockAlertSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

// syncSubmitter runs submitted tasks inline, so dispatch tests see worker
// effects without goroutine coordination. submitErr simulates saturation.
type syncSubmitter struct {
	submitErr error
	submitted int
}

func (s *syncSubmitter) Submit(task worker.Task) error {
	if s.submitErr != nil {
		return s.submitErr
	}
	s.submitted++
	return task(context.Background())
}
