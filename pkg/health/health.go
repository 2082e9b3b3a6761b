// Package health reports the state of a k-mer run. Progress tracks the run
// phase; registered checks probe the external sinks and stores. Together they
// back the liveness and readiness probes served next to /metrics.
package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the health state of a component or the run overall.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Check probes a single dependency.
type Check func(ctx context.Context) ComponentHealth

type ComponentHealth struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// PingCheck adapts a Ping-style function. A failing sink only degrades the
// run since hit delivery to it is best effort.
func PingCheck(ping func(ctx context.Context) error, failure Status) Check {
	return func(ctx context.Context) ComponentHealth {
		if err := ping(ctx); err != nil {
			return ComponentHealth{Status: failure, Message: err.Error()}
		}
		return ComponentHealth{Status: StatusUp}
	}
}

type Report struct {
	Status     Status                     `json:"status"`
	Phase      Phase                      `json:"phase,omitempty"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

// Checker runs registered checks concurrently.
type Checker struct {
	checks map[string]Check
	mu     sync.RWMutex
}

func NewChecker() *Checker {
	return &Checker{checks: make(map[string]Check)}
}

func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Run executes every check and returns the worst status among them.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()
	report := Report{
		Status:     StatusUp,
		Components: make(map[string]ComponentHealth, len(checks)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for name, check := range checks {
		wg.Add(1)
		go func(n string, ch Check) {
			defer wg.Done()
			start := time.Now()
			result := ch(ctx)
			result.Latency = time.Since(start).Round(time.Millisecond).String()
			mu.Lock()
			report.Components[n] = result
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()
	report.Status = worst(report.Status, report.Components)
	return report
}

func worst(s Status, comps map[string]ComponentHealth) Status {
	for _, comp := range comps {
		switch comp.Status {
		case StatusDown:
			return StatusDown
		case StatusDegraded:
			s = StatusDegraded
		}
	}
	return s
}
