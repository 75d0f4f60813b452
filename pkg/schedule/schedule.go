// Package schedule runs named maintenance tasks at fixed intervals.
//
//	s := schedule.New()
//	s.Every(5*time.Minute, "stock:reconcile", reconcile).WithoutOverlapping()
//	s.Start(ctx)
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/farmchain/farmchain/pkg/logger"
)

// Task is one unit of scheduled work.
type Task func(ctx context.Context) error

type entry struct {
	name      string
	interval  time.Duration
	task      Task
	noOverlap bool

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

// Entry is the handle returned by Every for chaining options.
type Entry struct{ e *entry }

// WithoutOverlapping skips a tick while the previous run is still going.
func (e Entry) WithoutOverlapping() Entry {
	e.e.noOverlap = true
	return e
}

// Scheduler holds registered tasks.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	tick    time.Duration
	wg      sync.WaitGroup
}

func New() *Scheduler {
	return &Scheduler{tick: time.Second}
}

// Every registers task to run every interval. The first run happens on the
// first tick after Start.
func (s *Scheduler) Every(interval time.Duration, name string, task Task) Entry {
	e := &entry{name: name, interval: interval, task: task}
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	return Entry{e: e}
}

func (s *Scheduler) snapshot() []*entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Start dispatches due tasks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		logger.Info("schedule: started", "tasks", len(s.snapshot()))
		for {
			select {
			case <-ctx.Done():
				logger.Info("schedule: stopped")
				return
			case now := <-ticker.C:
				s.RunDue(ctx, now)
			}
		}
	}()
}

// RunDue dispatches every task whose interval has elapsed at now.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) {
	for _, e := range s.snapshot() {
		e.mu.Lock()
		due := e.lastRun.IsZero() || now.Sub(e.lastRun) >= e.interval
		if !due {
			e.mu.Unlock()
			continue
		}
		if e.noOverlap && e.running {
			e.mu.Unlock()
			logger.Warn("schedule: skipping overlapping run", "task", e.name)
			continue
		}
		e.running = true
		e.lastRun = now
		e.mu.Unlock()

		s.wg.Add(1)
		go func(e *entry) {
			defer s.wg.Done()
			s.execute(ctx, e)
		}(e)
	}
}

// RunAll runs every task once, in registration order, and returns the
// first error.
func (s *Scheduler) RunAll(ctx context.Context) error {
	var first error
	for _, e := range s.snapshot() {
		if err := s.execute(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Wait blocks until dispatched runs have finished.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) execute(ctx context.Context, e *entry) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("schedule: %s panicked: %v", e.name, r)
		}
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()

		if err != nil {
			logger.Error("schedule: task failed", "task", e.name, "error", err)
			return
		}
		logger.Debug("schedule: task done", "task", e.name, "duration", time.Since(start))
	}()
	return e.task(ctx)
}

// List describes the registered tasks for display.
func (s *Scheduler) List() []string {
	entries := s.snapshot()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%s  [every %s]", e.name, e.interval))
	}
	return out
}
