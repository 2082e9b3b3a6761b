// Command kmersearch passes query reads that share at least one k-mer with
// the reference and writes them as FASTA. Counts of processed, passed and
// failed reads are logged at the end of the run.
//
// Usage:
//
//	kmersearch [flags] <ref_file> <word_size> <queries>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/cli"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/seqio"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/logger"
)

func main() {
	fs := flag.NewFlagSet("kmersearch", flag.ExitOnError)
	common := cli.RegisterFlags(fs)
	indexKind := fs.String("index", "trie", "index kind: hashed or trie")
	correct := fs.Bool("correct", false, "queries are in the correct orientation; skip the reverse strand")
	threads := fs.Int("threads", -1, "query worker count (0 = number of CPUs)")
	translTable := fs.Int("transl-table", 0, "NCBI translation table for protein references")
	outPath := fs.String("out", "-", "FASTA output for passing reads")
	fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) != 3 {
		cli.Usage(fs, "usage: kmersearch [flags] <ref_file> <word_size> <queries>")
	}
	wordSize, err := strconv.Atoi(args[1])
	if err != nil {
		cli.Usage(fs, fmt.Sprintf("word size %q is not a number", args[1]))
	}

	cfg, err := cli.LoadConfig(common)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
	cfg.Pipeline.Index = *indexKind
	cfg.Pipeline.CorrectOrientation = cfg.Pipeline.CorrectOrientation || *correct
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

	ctx, rt := cli.Start(ctx, "kmersearch", cfg)
	code := rt.Finish(run(ctx, rt, args[0], args[2], *outPath))
	stop()
	os.Exit(code)
}

func run(ctx context.Context, rt *cli.Runtime, refPath, queryPath, outPath string) error {
	cfg := rt.Config
	if err := cli.RequireNucleotide(queryPath); err != nil {
		return err
	}
	refs := []string{refPath}
	ic, err := cli.IndexConfig(cfg, cfg.Kmer.Size, refs)
	if err != nil {
		return err
	}
	engine, err := rt.BuildEngine(ctx, ic, refs)
	if err != nil {
		return err
	}
	exec, err := executor.New(engine, executor.Options{
		WordSize:           cfg.Kmer.Size,
		TranslTable:        cfg.Pipeline.TranslTable,
		CorrectOrientation: cfg.Pipeline.CorrectOrientation,
	}, rt.Metrics)
	if err != nil {
		return err
	}
	if exec.Translated() {
		logger.FromContext(ctx).Info("reference is protein, queries will be translated")
	}

	f, err := cli.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	out := seqio.NewWriter(f)

	queries, err := seqio.Open(queryPath)
	if err != nil {
		out.Close()
		return err
	}
	defer queries.Close()

	scanCtx, span := rt.Phase(ctx, health.PhaseScanning)
	runner := searcher.NewRunner(exec, searcher.Config{
		Workers:        cfg.Pipeline.Threads,
		MaxOutstanding: cfg.Pipeline.MaxOutstanding,
		WaitTimeout:    cfg.Pipeline.WaitTimeout,
	}, rt.Metrics)
	sum, filterErr := runner.Filter(scanCtx, queries.All(), out)
	span.SetAttr("processed", sum.Queries)
	span.SetAttr("passed", sum.Matched)
	span.End()

	logger.FromContext(ctx).Info("search finished",
		"processed", sum.Queries,
		"passed", sum.Matched,
		"failed", sum.Queries-sum.Matched,
		"duration", sum.Duration,
	)
	closeErr := out.Close()
	if filterErr != nil {
		return filterErr
	}
	return closeErr
}
