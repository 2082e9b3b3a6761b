package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while a breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type BreakerConfig struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}

// Breaker stops a sink from being retried on every flush once it has failed
// FailureThreshold times in a row. After ResetTimeout a single probe call is
// let through; its outcome closes or re-opens the breaker.
type Breaker struct {
	name     string
	cfg      BreakerConfig
	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
	now      func() time.Time
	logger   *slog.Logger
}

func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	return &Breaker{
		name:   name,
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default().With("component", "breaker", "name", name),
	}
}

// Execute runs fn unless the breaker is open.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateOpen:
		wait := b.cfg.ResetTimeout - b.now().Sub(b.openedAt)
		if wait > 0 {
			return fmt.Errorf("%w: %s (retry after %v)", ErrCircuitOpen, b.name, wait.Round(time.Millisecond))
		}
		b.state = StateHalfOpen
		b.probing = true
		b.logger.Info("probing sink")
	case StateHalfOpen:
		if b.probing {
			return fmt.Errorf("%w: %s (probe in flight)", ErrCircuitOpen, b.name)
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	if err == nil {
		if b.state != StateClosed {
			b.logger.Info("sink recovered")
		}
		b.state = StateClosed
		b.failures = 0
		return
	}
	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.cfg.FailureThreshold {
		if b.state != StateOpen {
			b.logger.Warn("circuit opened", "consecutive_failures", b.failures)
		}
		b.state = StateOpen
		b.openedAt = b.now()
	}
}
