package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestBreakerTripsAndRecovers(t *testing.T) {
	clock := time.Unix(0, 0)
	b := NewBreaker("kafka", BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	b.now = func() time.Time { return clock }
	fail := func() error { return errors.New("down") }

	b.Execute(fail)
	if b.State() != StateClosed {
		t.Fatal("one failure must not trip the breaker")
	}
	b.Execute(fail)
	if b.State() != StateOpen {
		t.Fatal("breaker should be open after threshold")
	}

	called := false
	err := b.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("open breaker must reject calls, got %v", err)
	}

	clock = clock.Add(2 * time.Minute)
	if err := b.Execute(fail); err == nil || errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("probe should run and fail, got %v", err)
	}
	if b.State() != StateOpen {
		t.Fatal("failed probe must re-open")
	}

	clock = clock.Add(2 * time.Minute)
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	if b.State() != StateClosed {
		t.Errorf("successful probe should close, state %s", b.State())
	}
}
