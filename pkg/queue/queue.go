// Package queue runs background jobs through a pluggable driver.
//
//	type OrderPlacedMail struct{ OrderID uint }
//	func (j *OrderPlacedMail) Handle(ctx context.Context) error { ... }
//
//	q := queue.New(queue.NewMemoryDriver(1000))
//	q.Register(func() queue.Job { return &OrderPlacedMail{} })
//	q.Dispatch(ctx, &OrderPlacedMail{OrderID: 7})
//	q.Start(ctx, 2)
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/farmchain/farmchain/pkg/logger"
	"github.com/farmchain/farmchain/pkg/metrics"
)

// Job is a unit of background work. Jobs travel through the driver as JSON,
// so their exported fields are the payload.
type Job interface {
	Handle(ctx context.Context) error
}

// Driver is the queue storage backend. Pop returns (nil, nil) when nothing
// arrived before its own poll timeout.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context) ([]byte, error)
}

// DelayedDriver is implemented by drivers that can hold a job until a
// point in time.
type DelayedDriver interface {
	PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error
}

// FailedJob describes a job that exhausted its retries.
type FailedJob struct {
	JobType  string
	Payload  string
	Error    string
	Attempts int
	FailedAt time.Time
}

// FailedStore persists failed jobs.
type FailedStore interface {
	Record(ctx context.Context, f FailedJob) error
}

const keepFailed = 100

// Manager dispatches jobs to a driver and runs workers that consume them.
type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]func() Job
	failed   []FailedJob
	store    FailedStore
	maxRetry int
	backoff  func(attempt int) time.Duration
	wg       sync.WaitGroup
}

type Option func(*Manager)

func WithMaxRetry(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxRetry = n
		}
	}
}

// WithBackoff sets the pause before retry attempt+1.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(m *Manager) { m.backoff = fn }
}

func WithFailedStore(s FailedStore) Option {
	return func(m *Manager) { m.store = s }
}

func New(driver Driver, opts ...Option) *Manager {
	m := &Manager{
		driver:   driver,
		registry: map[string]func() Job{},
		maxRetry: 3,
		backoff:  func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func typeName(job Job) string { return fmt.Sprintf("%T", job) }

// Register makes a job type decodable by workers. factory must return a
// pointer to a fresh job.
func (m *Manager) Register(factory func() Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[typeName(factory())] = factory
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encode(job Job) ([]byte, error) {
	name := typeName(job)
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal job %s: %w", name, err)
	}
	return json.Marshal(envelope{Type: name, Payload: payload})
}

// Dispatch pushes job for immediate processing.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	raw, err := encode(job)
	if err != nil {
		return err
	}
	return m.driver.Push(ctx, raw)
}

// DispatchAfter pushes job once delay has passed. Drivers without delay
// support get the job from a timer in this process.
func (m *Manager) DispatchAfter(ctx context.Context, job Job, delay time.Duration) error {
	raw, err := encode(job)
	if err != nil {
		return err
	}
	if dd, ok := m.driver.(DelayedDriver); ok {
		return dd.PushDelayed(ctx, raw, delay)
	}
	ctx = context.WithoutCancel(ctx)
	time.AfterFunc(delay, func() {
		if err := m.driver.Push(ctx, raw); err != nil {
			logger.Error("queue: delayed dispatch failed", "type", typeName(job), "error", err)
		}
	})
	return nil
}

// Start launches n workers that consume jobs until ctx is cancelled.
func (m *Manager) Start(ctx context.Context, n int) {
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.work(ctx)
		}()
	}
	logger.Info("queue: workers started", "count", n)
}

// Wait blocks until every worker started with Start has returned.
func (m *Manager) Wait() { m.wg.Wait() }

func (m *Manager) work(ctx context.Context) {
	for ctx.Err() == nil {
		raw, err := m.driver.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			sleep(ctx, 500*time.Millisecond)
			continue
		}
		if raw != nil {
			m.Process(ctx, raw)
		}
	}
}

// Process decodes one envelope and runs it with retries.
func (m *Manager) Process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		return
	}

	m.run(ctx, job, env)
}

func (m *Manager) run(ctx context.Context, job Job, env envelope) {
	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= m.maxRetry; attempt++ {
		if lastErr = job.Handle(ctx); lastErr == nil {
			metrics.RecordQueueJob(env.Type, "success", start)
			logger.Debug("queue: job processed", "type", env.Type, "attempt", attempt)
			return
		}
		logger.Warn("queue: job failed", "type", env.Type, "attempt", attempt, "error", lastErr)
		if attempt < m.maxRetry && !sleep(ctx, m.backoff(attempt)) {
			break
		}
	}

	metrics.RecordQueueJob(env.Type, "failed", start)
	m.recordFailed(ctx, FailedJob{
		JobType:  env.Type,
		Payload:  string(env.Payload),
		Error:    lastErr.Error(),
		Attempts: m.maxRetry,
		FailedAt: time.Now().UTC(),
	})
}

func (m *Manager) recordFailed(ctx context.Context, f FailedJob) {
	m.mu.Lock()
	m.failed = append(m.failed, f)
	if len(m.failed) > keepFailed {
		m.failed = m.failed[len(m.failed)-keepFailed:]
	}
	m.mu.Unlock()

	logger.Error("queue: job exhausted retries", "type", f.JobType, "error", f.Error)
	if m.store == nil {
		return
	}
	if err := m.store.Record(context.WithoutCancel(ctx), f); err != nil {
		logger.Error("queue: persist failed job", "type", f.JobType, "error", err)
	}
}

// FailedJobs returns the most recent failures seen by this process.
func (m *Manager) FailedJobs() []FailedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FailedJob, len(m.failed))
	copy(out, m.failed)
	return out
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
