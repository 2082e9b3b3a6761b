package workpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
)

func TestRunsEveryTask(t *testing.T) {
	p := New(context.Background(), Config{Workers: 4, MaxOutstanding: 8}, nil)
	var sum atomic.Int64
	for i := 1; i <= 100; i++ {
		n := int64(i)
		if err := p.Submit(context.Background(), func(context.Context) error {
			sum.Add(n)
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.Wait(time.Minute); err != nil {
		t.Fatal(err)
	}
	if sum.Load() != 5050 {
		t.Errorf("expected 5050, got %d", sum.Load())
	}
	st := p.Stats()
	if st.Submitted != 100 || st.Completed != 100 || st.Outstanding != 0 {
		t.Errorf("unexpected stats %s", st)
	}
}

func TestFailuresDoNotStopSiblings(t *testing.T) {
	p := New(context.Background(), Config{Workers: 2, MaxOutstanding: 4}, nil)
	var ran atomic.Int64
	for i := 0; i < 10; i++ {
		i := i
		p.Submit(context.Background(), func(context.Context) error {
			ran.Add(1)
			switch i {
			case 3:
				return errors.New("bad query")
			case 6:
				panic("boom")
			}
			return nil
		})
	}
	if err := p.Wait(time.Minute); err != nil {
		t.Fatal(err)
	}
	if ran.Load() != 10 {
		t.Errorf("expected all 10 tasks to run, got %d", ran.Load())
	}
	if st := p.Stats(); st.Failed != 2 || st.Completed != 8 {
		t.Errorf("unexpected stats %s", st)
	}
}

func TestSubmitBlocksAtCeiling(t *testing.T) {
	p := New(context.Background(), Config{Workers: 1, MaxOutstanding: 2}, nil)
	release := make(chan struct{})
	block := func(context.Context) error {
		<-release
		return nil
	}
	p.Submit(context.Background(), block)
	p.Submit(context.Background(), block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Submit(ctx, block); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("third submit should block until the deadline, got %v", err)
	}
	if st := p.Stats(); st.Submitted != 2 {
		t.Errorf("rejected submit must not be counted, got %d", st.Submitted)
	}

	close(release)
	if err := p.Wait(time.Minute); err != nil {
		t.Fatal(err)
	}
}

func TestSubmitAfterWait(t *testing.T) {
	p := New(context.Background(), Config{Workers: 1}, nil)
	if err := p.Wait(time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := p.Submit(context.Background(), func(context.Context) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := p.Wait(time.Minute); err != nil {
		t.Errorf("second Wait should be harmless, got %v", err)
	}
}

func TestWaitTimeout(t *testing.T) {
	p := New(context.Background(), Config{Workers: 1}, nil)
	release := make(chan struct{})
	defer close(release)
	p.Submit(context.Background(), func(context.Context) error {
		<-release
		return nil
	})
	if err := p.Wait(20 * time.Millisecond); !errors.Is(err, apperrors.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestCancelledContextDrainsQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := New(ctx, Config{Workers: 1, MaxOutstanding: 10}, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	p.Submit(context.Background(), func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started
	var ran atomic.Int64
	for i := 0; i < 5; i++ {
		p.Submit(context.Background(), func(context.Context) error {
			ran.Add(1)
			return nil
		})
	}
	cancel()
	close(release)
	if err := p.Wait(time.Minute); err != nil {
		t.Fatal(err)
	}
	if ran.Load() != 0 {
		t.Errorf("queued tasks should be skipped after cancel, %d ran", ran.Load())
	}
	if st := p.Stats(); st.Cancelled != 5 || st.Outstanding != 0 {
		t.Errorf("unexpected stats %s", st)
	}
}
