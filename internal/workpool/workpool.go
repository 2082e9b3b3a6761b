// Package workpool runs one task per input record on a fixed set of worker
// goroutines. Submission blocks while MaxOutstanding tasks are queued or
// running, which bounds memory held by pending records.
package workpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/metrics"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxOutstanding is the admission ceiling when none is configured.
const DefaultMaxOutstanding = 25000

// DefaultWaitTimeout bounds Wait when no timeout is given.
const DefaultWaitTimeout = 24 * time.Hour

// ErrClosed is returned by Submit after Wait has been called.
var ErrClosed = errors.New("work pool closed")

// Task is one unit of work. A returned error or a panic is logged and
// counted; it does not stop other tasks.
type Task func(ctx context.Context) error

type Config struct {
	Name           string
	Workers        int
	MaxOutstanding int
}

type Stats struct {
	Submitted   int64
	Completed   int64
	Failed      int64
	Cancelled   int64
	Outstanding int64
}

type Pool struct {
	cfg       Config
	ctx       context.Context
	tasks     chan Task
	sem       *semaphore.Weighted
	group     *errgroup.Group
	closed    atomic.Bool
	closeOnce sync.Once
	mu        sync.RWMutex

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	cancelled atomic.Int64

	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New starts cfg.Workers workers. Tasks run with ctx; once ctx is done,
// queued tasks are drained without running.
func New(ctx context.Context, cfg Config, m *metrics.Metrics) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.MaxOutstanding <= 0 {
		cfg.MaxOutstanding = DefaultMaxOutstanding
	}
	if cfg.Name == "" {
		cfg.Name = "workpool"
	}
	p := &Pool{
		cfg:     cfg,
		ctx:     ctx,
		tasks:   make(chan Task, cfg.MaxOutstanding),
		sem:     semaphore.NewWeighted(int64(cfg.MaxOutstanding)),
		group:   new(errgroup.Group),
		metrics: m,
		logger:  slog.Default().With("component", "workpool", "pool", cfg.Name),
	}
	for i := 0; i < cfg.Workers; i++ {
		p.group.Go(p.work)
	}
	p.logger.Debug("work pool started",
		"workers", cfg.Workers,
		"max_outstanding", cfg.MaxOutstanding,
	)
	return p
}

func (p *Pool) work() error {
	for t := range p.tasks {
		if p.ctx.Err() != nil {
			p.cancelled.Add(1)
			p.finish(false)
			continue
		}
		p.finish(p.run(t))
	}
	return nil
}

func (p *Pool) finish(failed bool) {
	p.sem.Release(1)
	p.metrics.TaskDone(failed)
}

// run reports whether the task failed.
func (p *Pool) run(t Task) (failed bool) {
	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			p.logger.Error("task panicked",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			failed = true
		}
	}()
	if err := t(p.ctx); err != nil {
		p.failed.Add(1)
		p.logger.Error("task failed", "error", err)
		return true
	}
	p.completed.Add(1)
	return false
}

// Submit queues t, blocking while MaxOutstanding tasks are pending. It
// returns ctx's error if ctx ends first and ErrClosed after Wait.
func (p *Pool) Submit(ctx context.Context, t Task) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		p.sem.Release(1)
		return ErrClosed
	}
	p.submitted.Add(1)
	p.metrics.TaskStarted()
	p.tasks <- t
	return nil
}

// Wait stops admission and blocks until every queued task has finished or
// timeout elapses. A zero timeout means DefaultWaitTimeout.
func (p *Pool) Wait(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed.Store(true)
		close(p.tasks)
		p.mu.Unlock()
	})

	done := make(chan error, 1)
	go func() { done <- p.group.Wait() }()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		st := p.Stats()
		p.logger.Debug("work pool drained",
			"completed", st.Completed,
			"failed", st.Failed,
			"cancelled", st.Cancelled,
		)
		return err
	case <-timer.C:
		return apperrors.Newf(apperrors.ErrTimeout, apperrors.ExitFailure,
			"%s: %d tasks still outstanding after %v", p.cfg.Name, p.Stats().Outstanding, timeout)
	}
}

func (p *Pool) Stats() Stats {
	s := Stats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Cancelled: p.cancelled.Load(),
	}
	s.Outstanding = s.Submitted - s.Completed - s.Failed - s.Cancelled
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("submitted=%d completed=%d failed=%d cancelled=%d outstanding=%d",
		s.Submitted, s.Completed, s.Failed, s.Cancelled, s.Outstanding)
}
