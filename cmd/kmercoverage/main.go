// Command kmercoverage estimates per-position read coverage of assembled
// contigs from shared k-mers and writes two tables: per-contig mean and
// median coverage, and the k-mer abundance histogram.
//
// Usage:
//
//	kmercoverage [flags] <k> <contigs> <coverage_out> <abundance_out> <reads> ...
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/cli"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/coverage"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/coverage/store"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/seqio"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/postgres"
)

func main() {
	fs := flag.NewFlagSet("kmercoverage", flag.ExitOnError)
	common := cli.RegisterFlags(fs)
	threads := fs.Int("threads", 0, "read worker count (default from config)")
	matchOut := fs.String("match-reads-out", "", "write reads sharing a k-mer with a contig to this FASTA file")
	storeSummary := fs.Bool("store", false, "persist the run summary in PostgreSQL")
	fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) < 5 {
		cli.Usage(fs, "usage: kmercoverage [flags] <k> <contigs> <coverage_out> <abundance_out> <reads> ...")
	}
	k, err := strconv.Atoi(args[0])
	if err != nil {
		cli.Usage(fs, fmt.Sprintf("kmer size %q is not a number", args[0]))
	}

	cfg, err := cli.LoadConfig(common)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
	if *threads > 0 {
		cfg.Coverage.Threads = *threads
	}
	cfg.Coverage.StoreSummary = cfg.Coverage.StoreSummary || *storeSummary
	cfg.Kmer.Size = k
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(apperrors.ExitCode(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, rt := cli.Start(ctx, "kmercoverage", cfg)
	code := rt.Finish(run(ctx, rt, args[1], args[2], args[3], args[4:], *matchOut))
	stop()
	os.Exit(code)
}

func run(ctx context.Context, rt *cli.Runtime, contigPath, coverageOut, abundanceOut string, readPaths []string, matchOut string) error {
	cfg := rt.Config
	log := logger.FromContext(ctx)

	_, span := rt.Phase(ctx, health.PhaseBuilding)
	contigs, err := seqio.ReadAll(contigPath)
	if err != nil {
		span.End()
		return err
	}
	opts := []coverage.Option{coverage.WithMetrics(rt.Metrics)}
	var matched *seqio.Writer
	if matchOut != "" {
		f, err := os.Create(matchOut)
		if err != nil {
			span.End()
			return fmt.Errorf("creating matched reads output: %w", err)
		}
		matched = seqio.NewWriter(f)
		// released here on early returns; the success path closes explicitly
		defer matched.Close()
		opts = append(opts, coverage.WithMatchedReads(matched))
	}
	acc, err := coverage.New(cfg.Kmer.Size, contigs, opts...)
	span.End()
	if err != nil {
		return err
	}
	if len(acc.Contigs()) == 0 {
		fmt.Printf("Found 0 contig with length >= kmer size %d in input file %s. Exit program.\n", cfg.Kmer.Size, contigPath)
		return nil
	}

	scanCtx, span := rt.Phase(ctx, health.PhaseScanning)
	scan := coverage.ScanConfig{
		Workers:        cfg.Coverage.Threads,
		MaxOutstanding: cfg.Coverage.MaxOutstanding,
		WaitTimeout:    cfg.Pipeline.WaitTimeout,
	}
	for _, path := range readPaths {
		if err := scanFile(scanCtx, acc, path, scan, rt); err != nil {
			span.End()
			return err
		}
	}
	span.SetAttr("reads_scanned", acc.ReadsScanned())
	span.SetAttr("reads_matched", acc.ReadsMatched())
	span.End()
	if matched != nil {
		if err := matched.Close(); err != nil {
			return fmt.Errorf("writing matched reads to %s: %w", matchOut, err)
		}
	}

	_, span = rt.Phase(ctx, health.PhaseFinalizing)
	defer span.End()
	acc.Finalize()
	sum := acc.Summary(rt.RunID)
	if err := writeFile(coverageOut, sum, coverage.WriteReport); err != nil {
		return err
	}
	if err := writeFile(abundanceOut, sum, coverage.WriteAbundance); err != nil {
		return err
	}
	log.Info("coverage written",
		"contigs", len(sum.Contigs),
		"reads_scanned", sum.ReadsScanned,
		"reads_matched", sum.ReadsMatched,
	)

	if cfg.Coverage.StoreSummary {
		return saveSummary(ctx, rt, sum)
	}
	return nil
}

// scanFile feeds one reads file to acc. Finalize is deferred to the caller
// so several files can be scanned into the same accumulator.
func scanFile(ctx context.Context, acc *coverage.Accumulator, path string, cfg coverage.ScanConfig, rt *cli.Runtime) error {
	r, err := seqio.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = coverage.ScanReads(ctx, acc, r.All(), cfg, rt.Metrics)
	return err
}

func writeFile(path string, sum coverage.Summary, write func(w io.Writer, s coverage.Summary) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f, sum); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// saveSummary is best effort: the report files are already written.
func saveSummary(ctx context.Context, rt *cli.Runtime, sum coverage.Summary) error {
	log := logger.FromContext(ctx)
	db, err := postgres.New(rt.Config.Postgres)
	if err != nil {
		log.Warn("postgres unavailable, coverage summary not stored", "error", err)
		return nil
	}
	defer db.Close()
	st := store.New(db)
	if err := st.Migrate(ctx); err != nil {
		log.Warn("coverage schema migration failed", "error", err)
		return nil
	}
	if err := st.Save(ctx, sum); err != nil {
		log.Warn("coverage summary not stored", "error", err)
	}
	return nil
}
