package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Phase is a stage of a run.
type Phase string

const (
	PhaseStarting   Phase = "starting"
	PhaseBuilding   Phase = "building"
	PhaseScanning   Phase = "scanning"
	PhaseFinalizing Phase = "finalizing"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// ready reports whether the index is built and queries are being served.
func (p Phase) ready() bool {
	switch p {
	case PhaseScanning, PhaseFinalizing, PhaseDone:
		return true
	}
	return false
}

// Progress tracks the phase of one run. Safe for concurrent use.
type Progress struct {
	mu      sync.RWMutex
	phase   Phase
	started time.Time
	changed time.Time
	checker *Checker
	logger  *slog.Logger
}

// NewProgress starts in PhaseStarting. checker may be nil.
func NewProgress(checker *Checker) *Progress {
	now := time.Now()
	return &Progress{
		phase:   PhaseStarting,
		started: now,
		changed: now,
		checker: checker,
		logger:  slog.Default().With("component", "progress"),
	}
}

func (p *Progress) Set(phase Phase) {
	p.mu.Lock()
	prev, since := p.phase, p.changed
	p.phase = phase
	p.changed = time.Now()
	p.mu.Unlock()
	p.logger.Info("phase changed",
		"from", prev,
		"to", phase,
		"previous_duration", time.Since(since).Round(time.Millisecond),
	)
}

func (p *Progress) Phase() Phase {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.phase
}

// Report combines the phase with the registered dependency checks. The run
// is down until the index is built and after a failure.
func (p *Progress) Report(ctx context.Context) Report {
	report := Report{
		Status:     StatusUp,
		Components: map[string]ComponentHealth{},
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if p.checker != nil {
		report = p.checker.Run(ctx)
	}
	report.Phase = p.Phase()
	if !report.Phase.ready() {
		report.Status = StatusDown
	}
	return report
}

func (p *Progress) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.mu.RLock()
		body := map[string]any{
			"status": "alive",
			"phase":  p.phase,
			"uptime": time.Since(p.started).Round(time.Second).String(),
		}
		p.mu.RUnlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(body)
	}
}

func (p *Progress) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		report := p.Report(ctx)
		w.Header().Set("Content-Type", "application/json")
		if report.Status == StatusDown {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(report)
	}
}
