// Command hitcollector consumes hit records from the Kafka hit topic and
// stores them in PostgreSQL. Given hit files as arguments it loads those
// instead and exits. Running totals are served as JSON at /stats, and stored
// hits at /hits?query=<id> and /hits/genes, on the metrics port next to
// /metrics and the health probes.
//
// Usage:
//
//	hitcollector [-config configs/development.yaml] [-metrics 9090] [hits.tsv ...]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/cli"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/resilience"
)

func main() {
	fs := flag.NewFlagSet("hitcollector", flag.ExitOnError)
	common := cli.RegisterFlags(fs)
	logEvery := fs.Duration("log-interval", time.Minute, "interval between hit total log lines")
	fs.Parse(os.Args[1:])

	cfg, err := cli.LoadConfig(common)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := analytics.NewHitStats(10)
	queries := store.NewQueryHandler()
	ctx, rt := cli.Start(ctx, "hitcollector", cfg,
		metrics.Route{Pattern: "/stats", Handler: analytics.NewHandler(stats)},
		metrics.Route{Pattern: "/hits", Handler: queries},
		metrics.Route{Pattern: "/hits/genes", Handler: queries},
	)
	code := rt.Finish(run(ctx, rt, stats, queries, fs.Args(), *logEvery))
	stop()
	os.Exit(code)
}

// collector saves each batch and then counts it.
type collector struct {
	store   *store.Store
	stats   *analytics.HitStats
	retry   resilience.RetryConfig
	metrics *metrics.Metrics
}

func (c *collector) Save(ctx context.Context, recs []hits.Record) error {
	err := resilience.Retry(ctx, "hit-store", c.retry, func() error {
		return c.store.Save(ctx, recs)
	})
	if err != nil {
		c.metrics.SinkFailed("postgres")
		return err
	}
	c.metrics.SinkDelivered("postgres", len(recs))
	c.stats.Observe(recs)
	return nil
}

func run(ctx context.Context, rt *cli.Runtime, stats *analytics.HitStats, queries *store.QueryHandler, files []string, logEvery time.Duration) error {
	cfg := rt.Config
	log := logger.FromContext(ctx)

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	st := store.New(db)
	if err := st.Migrate(ctx); err != nil {
		return err
	}
	queries.Attach(st)
	rt.Checker.Register("postgres", health.PingCheck(db.Ping, health.StatusDown))

	c := &collector{
		store:   st,
		stats:   stats,
		retry:   resilience.FromConfig(cfg.Retry),
		metrics: rt.Metrics,
	}
	if len(files) > 0 {
		return load(ctx, rt, c, files)
	}

	rt.Checker.Register("kafka", health.PingCheck(func(ctx context.Context) error {
		return kafka.Ping(ctx, cfg.Kafka)
	}, health.StatusDegraded))

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.Hits, store.HandleMessage(c))
	defer consumer.Close()

	stats.StartPeriodicLog(ctx, logEvery)
	ctx, span := rt.Phase(ctx, health.PhaseScanning)
	defer span.End()
	log.Info("hit collector started", "topic", cfg.Kafka.Topics.Hits, "group", cfg.Kafka.ConsumerGroup)
	if err := consumer.Start(ctx); err != nil {
		return err
	}
	return stats.Close()
}

func load(ctx context.Context, rt *cli.Runtime, c *collector, files []string) error {
	log := logger.FromContext(ctx)
	ctx, span := rt.Phase(ctx, health.PhaseScanning)
	defer span.End()
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening hit file: %w", err)
		}
		n, err := store.Load(ctx, f, c, rt.Config.Sinks.BatchSize)
		f.Close()
		log.Info("hit file loaded", "file", filepath.Base(path), "records", n)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return c.stats.Close()
}
