// Package sink delivers hit records to external systems. Records are
// buffered and flushed in batches either when the buffer is full or on a
// timer. Delivery is best effort: a failed flush is retried, then logged,
// counted and re-queued up to a cap, and never fails the search.
package sink

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/resilience"
)

// flushFunc delivers one batch.
type flushFunc func(ctx context.Context, batch []hits.Record) error

type Options struct {
	BatchSize     int
	FlushInterval time.Duration
	Retry         resilience.RetryConfig
	Breaker       resilience.BreakerConfig
	Metrics       *metrics.Metrics
}

// OptionsFromConfig reads batching and retry settings.
func OptionsFromConfig(cfg *config.Config, m *metrics.Metrics) Options {
	return Options{
		BatchSize:     cfg.Sinks.BatchSize,
		FlushInterval: cfg.Sinks.FlushInterval,
		Retry:         resilience.FromConfig(cfg.Retry),
		Metrics:       m,
	}
}

// Batcher implements hits.Sink on top of a flush function.
type Batcher struct {
	name      string
	flush     flushFunc
	opts      Options
	breaker   *resilience.Breaker
	mu        sync.Mutex
	flushMu   sync.Mutex
	buffer    []hits.Record
	dropped   int64
	logger    *slog.Logger
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newBatcher(name string, flush flushFunc, opts Options) *Batcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 2 * time.Second
	}
	b := &Batcher{
		name:    name,
		flush:   flush,
		opts:    opts,
		breaker: resilience.NewBreaker(name, opts.Breaker),
		buffer:  make([]hits.Record, 0, opts.BatchSize),
		logger:  slog.Default().With("component", "hit-sink", "sink", name),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go b.loop()
	b.logger.Info("hit sink started",
		"batch_size", opts.BatchSize,
		"flush_interval", opts.FlushInterval,
	)
	return b
}

func (b *Batcher) loop() {
	defer close(b.done)
	ticker := time.NewTicker(b.opts.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.flushBuffered(context.Background())
		case <-b.stop:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			b.flushBuffered(ctx)
			cancel()
			return
		}
	}
}

// WriteHits buffers recs and flushes in the caller's goroutine once the
// buffer is full. It never returns a delivery error.
func (b *Batcher) WriteHits(ctx context.Context, recs []hits.Record) error {
	b.mu.Lock()
	b.buffer = append(b.buffer, recs...)
	full := len(b.buffer) >= b.opts.BatchSize
	b.mu.Unlock()
	if full {
		b.flushBuffered(ctx)
	}
	return nil
}

// Close flushes what is left and stops the timer loop.
func (b *Batcher) Close() error {
	b.closeOnce.Do(func() {
		close(b.stop)
		<-b.done
		b.mu.Lock()
		left, dropped := len(b.buffer), b.dropped
		b.mu.Unlock()
		if left > 0 || dropped > 0 {
			b.logger.Warn("hit sink closed with undelivered records",
				"pending", left,
				"dropped", dropped,
			)
		}
	})
	return nil
}

// Pending returns the number of buffered records.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buffer)
}

func (b *Batcher) flushBuffered(ctx context.Context) {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	if len(b.buffer) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.buffer
	b.buffer = make([]hits.Record, 0, b.opts.BatchSize)
	b.mu.Unlock()

	err := b.breaker.Execute(func() error {
		return resilience.Retry(ctx, b.name+"-flush", b.opts.Retry, func() error {
			return b.flush(ctx, batch)
		})
	})
	if err == nil {
		b.opts.Metrics.SinkDelivered(b.name, len(batch))
		b.logger.Debug("batch flushed", "records", len(batch))
		return
	}

	b.opts.Metrics.SinkFailed(b.name)
	b.logger.Error("batch flush failed", "records", len(batch), "error", err)

	limit := b.opts.BatchSize * 3
	b.mu.Lock()
	b.buffer = append(batch, b.buffer...)
	if len(b.buffer) > limit {
		dropped := len(b.buffer) - limit
		b.buffer = b.buffer[:limit]
		b.dropped += int64(dropped)
		b.logger.Warn("buffer overflow, records dropped", "dropped", dropped)
	}
	b.mu.Unlock()
}
