// Command kmerfilter reports every k-mer a query read shares with one or more
// reference sets. Each hit is written as a tab-separated record:
//
//	gene  query  ref  nucl_kmer  is_prot  frame  prot_kmer  model_pos
//
// Protein references are matched by translating each query strand in three
// frames. Hits can additionally be published to Kafka and a Redis stream.
//
// Usage:
//
//	kmerfilter [flags] <word_size> <queries> [name=]<ref_file> ...
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/cli"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/seqio"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/metrics"
)

func main() {
	fs := flag.NewFlagSet("kmerfilter", flag.ExitOnError)
	common := cli.RegisterFlags(fs)
	indexKind := fs.String("index", "", "index kind: hashed or trie")
	aligned := fs.Bool("aligned", false, "references are aligned; record model positions")
	threads := fs.Int("threads", -1, "query worker count (0 = number of CPUs)")
	translTable := fs.Int("transl-table", 0, "NCBI translation table for protein references")
	outPath := fs.String("out", "-", "hit output file")
	fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) < 3 {
		cli.Usage(fs, "usage: kmerfilter [flags] <word_size> <queries> [name=]<ref_file> ...")
	}
	wordSize, err := strconv.Atoi(args[0])
	if err != nil {
		cli.Usage(fs, fmt.Sprintf("word size %q is not a number", args[0]))
	}

	cfg, err := cli.LoadConfig(common)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
	if *indexKind != "" {
		cfg.Pipeline.Index = *indexKind
	}
	if *aligned {
		cfg.Pipeline.Aligned = true
	}
	if *threads >= 0 {
		cfg.Pipeline.Threads = *threads
	}
	if *translTable > 0 {
		cfg.Pipeline.TranslTable = *translTable
	}
	cfg.Kmer.Size = wordSize
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(apperrors.ExitCode(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := analytics.NewHitStats(10)
	ctx, rt := cli.Start(ctx, "kmerfilter", cfg, metrics.Route{Pattern: "/stats", Handler: analytics.NewHandler(stats)})
	code := rt.Finish(run(ctx, rt, stats, args[1], args[2:], *outPath))
	stop()
	os.Exit(code)
}

func run(ctx context.Context, rt *cli.Runtime, stats *analytics.HitStats, queryPath string, refs []string, outPath string) error {
	cfg := rt.Config
	if err := cli.RequireNucleotide(queryPath); err != nil {
		return err
	}
	ic, err := cli.IndexConfig(cfg, cfg.Kmer.Size, refs)
	if err != nil {
		return err
	}
	engine, err := rt.BuildEngine(ctx, ic, refs)
	if err != nil {
		return err
	}
	exec, err := executor.New(engine, executor.Options{
		WordSize:    cfg.Kmer.Size,
		TranslTable: cfg.Pipeline.TranslTable,
	}, rt.Metrics)
	if err != nil {
		return err
	}

	out, err := cli.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating hit output: %w", err)
	}
	sink, err := rt.OpenSinks(ctx, out, stats)
	if err != nil {
		out.Close()
		return err
	}

	queries, err := seqio.Open(queryPath)
	if err != nil {
		sink.Close()
		return err
	}
	defer queries.Close()

	scanCtx, span := rt.Phase(ctx, health.PhaseScanning)
	runner := searcher.NewRunner(exec, searcher.Config{
		Workers:        cfg.Pipeline.Threads,
		MaxOutstanding: cfg.Pipeline.MaxOutstanding,
		WaitTimeout:    cfg.Pipeline.WaitTimeout,
	}, rt.Metrics)
	sum, searchErr := runner.Search(scanCtx, queries.All(), sink)
	span.SetAttr("queries", sum.Queries)
	span.SetAttr("hits", sum.Hits)
	span.End()

	_, span = rt.Phase(ctx, health.PhaseFinalizing)
	closeErr := sink.Close()
	span.End()
	if searchErr != nil {
		return searchErr
	}
	return closeErr
}
