// Package searcher runs query sequences against a built reference index on
// a bounded work pool and delivers each query's hits as one batch.
package searcher

import (
	"context"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/seqio"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/workpool"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/metrics"
)

type Config struct {
	Workers        int
	MaxOutstanding int
	WaitTimeout    time.Duration
}

// Summary counts what a run did.
type Summary struct {
	Queries  int64
	Skipped  int64
	Matched  int64
	Hits     int64
	Pool     workpool.Stats
	Duration time.Duration
}

type Runner struct {
	exec    *executor.Executor
	cfg     Config
	metrics *metrics.Metrics
}

func NewRunner(exec *executor.Executor, cfg Config, m *metrics.Metrics) *Runner {
	return &Runner{exec: exec, cfg: cfg, metrics: m}
}

// queryTask probes one query and reports whether it matched.
type queryTask func(ctx context.Context, q seqio.Record) (bool, int, error)

// Search writes the hits of every query to sink. Each query's records reach
// the sink in a single WriteHits call.
func (r *Runner) Search(ctx context.Context, queries iter.Seq2[seqio.Record, error], sink hits.Sink) (Summary, error) {
	return r.run(ctx, "search", queries, func(ctx context.Context, q seqio.Record) (bool, int, error) {
		recs, err := r.exec.Execute(ctx, q)
		if err != nil {
			return false, 0, err
		}
		if len(recs) == 0 {
			return false, 0, nil
		}
		if err := sink.WriteHits(ctx, recs); err != nil {
			return true, len(recs), fmt.Errorf("writing hits for %s: %w", q.ID, err)
		}
		return true, len(recs), nil
	})
}

// Filter writes every query sharing at least one k-mer with the index to out.
func (r *Runner) Filter(ctx context.Context, queries iter.Seq2[seqio.Record, error], out *seqio.Writer) (Summary, error) {
	return r.run(ctx, "filter", queries, func(ctx context.Context, q seqio.Record) (bool, int, error) {
		ok, err := r.exec.Matches(ctx, q)
		if err != nil || !ok {
			return false, 0, err
		}
		return true, 0, out.Write(q)
	})
}

func (r *Runner) run(ctx context.Context, mode string, queries iter.Seq2[seqio.Record, error], task queryTask) (Summary, error) {
	log := logger.FromContext(ctx).With("component", "searcher", "mode", mode)
	start := time.Now()
	pool := workpool.New(ctx, workpool.Config{
		Name:           mode,
		Workers:        r.cfg.Workers,
		MaxOutstanding: r.cfg.MaxOutstanding,
	}, r.metrics)

	var sum Summary
	var matched, nhits atomic.Int64
	minLen := r.exec.MinQueryLength()

	var readErr error
	for q, err := range queries {
		if err != nil {
			readErr = err
			break
		}
		sum.Queries++
		if len(q.Seq) < minLen {
			sum.Skipped++
			r.metrics.Query("skipped")
			continue
		}
		err := pool.Submit(ctx, func(ctx context.Context) error {
			ok, n, err := task(ctx, q)
			switch {
			case err != nil:
				r.metrics.Query("error")
			case ok:
				r.metrics.Query("hit")
			default:
				r.metrics.Query("miss")
			}
			if ok {
				matched.Add(1)
				nhits.Add(int64(n))
				r.metrics.Hits(n)
			}
			return err
		})
		if err != nil {
			readErr = fmt.Errorf("submitting query %s: %w", q.ID, err)
			break
		}
		if sum.Queries%100000 == 0 {
			log.Info("queries submitted", "count", sum.Queries, "pool", pool.Stats().String())
		}
	}

	waitErr := pool.Wait(r.cfg.WaitTimeout)
	sum.Matched = matched.Load()
	sum.Hits = nhits.Load()
	sum.Pool = pool.Stats()
	sum.Duration = time.Since(start)
	log.Info("queries processed",
		"queries", sum.Queries,
		"skipped", sum.Skipped,
		"matched", sum.Matched,
		"hits", sum.Hits,
		"failed", sum.Pool.Failed,
		"duration", sum.Duration.Round(time.Millisecond),
	)
	if readErr != nil {
		return sum, readErr
	}
	return sum, waitErr
}
