// Package worker runs fire-and-forget background tasks on a fixed set of
// goroutines fed by a bounded queue.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"printshop-scheduler/internal/logging"
)

// Task is a unit of background work. The context is detached from the
// request that scheduled it and carries the pool's per-task timeout.
type Task func(ctx context.Context) error

type Config struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
}

type Stats struct {
	Submitted uint64 `json:"submitted"`
	Succeeded uint64 `json:"succeeded"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
}

type job struct {
	id        string
	name      string
	requestID string
	fn        Task
}

type Pool struct {
	cfg   Config
	queue chan job
	group *errgroup.Group

	mu     sync.RWMutex
	closed bool

	submitted, succeeded, failed, dropped atomic.Uint64
}

// New starts cfg.Workers goroutines. Call Shutdown to drain and stop them.
func New(cfg Config) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 30 * time.Second
	}
	p := &Pool{
		cfg:   cfg,
		queue: make(chan job, cfg.QueueSize),
		group: &errgroup.Group{},
	}
	for i := 0; i < cfg.Workers; i++ {
		p.group.Go(p.loop)
	}
	logging.L().Info("worker pool started", "workers", cfg.Workers, "queue", cfg.QueueSize)
	return p
}

// Submit enqueues fn without blocking. It returns false when the pool is
// closed or the queue is full; the task is then dropped and logged.
func (p *Pool) Submit(ctx context.Context, name string, fn Task) bool {
	j := job{id: uuid.NewString(), name: name, requestID: logging.RequestID(ctx), fn: fn}
	log := logging.FromContext(ctx).With("task", name, "task_id", j.id)

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		log.Warn("task dropped: pool closed")
		return false
	}
	select {
	case p.queue <- j:
		p.submitted.Add(1)
		log.Debug("task queued")
		return true
	default:
		p.dropped.Add(1)
		log.Warn("task dropped: queue full")
		return false
	}
}

func (p *Pool) loop() error {
	for j := range p.queue {
		p.run(j)
	}
	return nil
}

func (p *Pool) run(j job) {
	ctx := context.Background()
	if j.requestID != "" {
		ctx = logging.WithRequestID(ctx, j.requestID)
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.TaskTimeout)
	defer cancel()
	log := logging.FromContext(ctx).With("task", j.name, "task_id", j.id)

	start := time.Now()
	err := p.call(ctx, j)
	if err != nil {
		p.failed.Add(1)
		log.Error("task failed", "error", err, "stack", fmt.Sprintf("%+v", err), "duration_ms", time.Since(start).Milliseconds())
		return
	}
	p.succeeded.Add(1)
	log.Debug("task done", "duration_ms", time.Since(start).Milliseconds())
}

// call returns when the task does or when ctx ends, whichever is first. A
// task that ignores its context is abandoned and no longer holds the worker.
func (p *Pool) call(ctx context.Context, j job) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- errors.Errorf("panic in task %s: %v", j.name, r)
			}
		}()
		if err := j.fn(ctx); err != nil {
			done <- errors.WithStack(err)
			return
		}
		done <- nil
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "task %s abandoned", j.name)
	}
}

// Shutdown stops intake and waits for queued tasks to finish or ctx to end.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = p.group.Wait()
		close(done)
	}()
	select {
	case <-done:
		logging.L().Info("worker pool drained", "stats", p.Stats())
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
}

func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.submitted.Load(),
		Succeeded: p.succeeded.Load(),
		Failed:    p.failed.Load(),
		Dropped:   p.dropped.Load(),
	}
}
