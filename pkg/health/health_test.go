package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerWorstStatus(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Check
		want   Status
	}{
		{"no checks", nil, StatusUp},
		{
			"degraded sink",
			map[string]Check{
				"kafka":    PingCheck(func(context.Context) error { return errors.New("no brokers") }, StatusDegraded),
				"postgres": PingCheck(func(context.Context) error { return nil }, StatusDown),
			},
			StatusDegraded,
		},
		{
			"down store",
			map[string]Check{
				"kafka":    PingCheck(func(context.Context) error { return errors.New("no brokers") }, StatusDegraded),
				"postgres": PingCheck(func(context.Context) error { return errors.New("refused") }, StatusDown),
			},
			StatusDown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			for name, check := range tt.checks {
				c.Register(name, check)
			}
			r := c.Run(context.Background())
			if r.Status != tt.want {
				t.Errorf("status %s, want %s", r.Status, tt.want)
			}
			if len(r.Components) != len(tt.checks) {
				t.Errorf("expected %d components, got %d", len(tt.checks), len(r.Components))
			}
		})
	}
}

func TestReadinessFollowsPhase(t *testing.T) {
	p := NewProgress(nil)
	tests := []struct {
		phase Phase
		code  int
	}{
		{PhaseStarting, http.StatusServiceUnavailable},
		{PhaseBuilding, http.StatusServiceUnavailable},
		{PhaseScanning, http.StatusOK},
		{PhaseFinalizing, http.StatusOK},
		{PhaseDone, http.StatusOK},
		{PhaseFailed, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		p.Set(tt.phase)
		rec := httptest.NewRecorder()
		p.ReadyHandler()(rec, httptest.NewRequest("GET", "/health/ready", nil))
		if rec.Code != tt.code {
			t.Errorf("phase %s: code %d, want %d", tt.phase, rec.Code, tt.code)
		}
	}
}

func TestLiveAlwaysOK(t *testing.T) {
	p := NewProgress(nil)
	p.Set(PhaseFailed)
	rec := httptest.NewRecorder()
	p.LiveHandler()(rec, httptest.NewRequest("GET", "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("live probe returned %d", rec.Code)
	}
}
