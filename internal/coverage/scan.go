package coverage

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/seqio"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/workpool"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/metrics"
)

type ScanConfig struct {
	Workers        int
	MaxOutstanding int
	WaitTimeout    time.Duration
}

// Scan runs ScanReads and finalizes acc when every read was processed.
func Scan(ctx context.Context, acc *Accumulator, reads iter.Seq2[seqio.Record, error], cfg ScanConfig, m *metrics.Metrics) (workpool.Stats, error) {
	stats, err := ScanReads(ctx, acc, reads, cfg, m)
	if err == nil {
		acc.Finalize()
	}
	return stats, err
}

// ScanReads feeds every read to acc on a work pool. A read error stops
// submission; reads already queued still complete.
func ScanReads(ctx context.Context, acc *Accumulator, reads iter.Seq2[seqio.Record, error], cfg ScanConfig, m *metrics.Metrics) (workpool.Stats, error) {
	log := logger.FromContext(ctx).With("component", "coverage")
	start := time.Now()
	pool := workpool.New(ctx, workpool.Config{
		Name:           "coverage",
		Workers:        cfg.Workers,
		MaxOutstanding: cfg.MaxOutstanding,
	}, m)

	var readErr error
	var n int64
	for rec, err := range reads {
		if err != nil {
			readErr = err
			break
		}
		n++
		err := pool.Submit(ctx, func(context.Context) error {
			_, err := acc.ProcessRead(rec)
			return err
		})
		if err != nil {
			readErr = fmt.Errorf("submitting read %s: %w", rec.ID, err)
			break
		}
		if n%1000000 == 0 {
			log.Info("reads submitted", "count", n, "pool", pool.Stats().String())
		}
	}

	waitErr := pool.Wait(cfg.WaitTimeout)
	stats := pool.Stats()
	log.Info("reads processed",
		"reads", n,
		"scanned", acc.ReadsScanned(),
		"matched", acc.ReadsMatched(),
		"failed", stats.Failed,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	if readErr != nil {
		return stats, readErr
	}
	return stats, waitErr
}
