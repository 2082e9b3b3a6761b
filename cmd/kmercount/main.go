// Command kmercount counts every nucleotide k-mer of a sequence file exactly.
// The occurrence histogram ("occurrences<TAB>kmers") goes to stdout; with
// -counts each distinct k-mer and its count are written to a file.
//
// Usage:
//
//	kmercount [flags] <seq_file> <k>
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
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/seqio"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/logger"
)

func main() {
	fs := flag.NewFlagSet("kmercount", flag.ExitOnError)
	common := cli.RegisterFlags(fs)
	countsPath := fs.String("counts", "", "write every k-mer and its count to this file")
	buckets := fs.Int("buckets", 0, "hash table bucket count (0 = default)")
	fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) != 2 {
		cli.Usage(fs, "usage: kmercount [flags] <seq_file> <k>")
	}
	k, err := strconv.Atoi(args[1])
	if err != nil {
		cli.Usage(fs, fmt.Sprintf("kmer size %q is not a number", args[1]))
	}

	cfg, err := cli.LoadConfig(common)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, rt := cli.Start(ctx, "kmercount", cfg)
	code := rt.Finish(run(ctx, rt, args[0], k, *buckets, *countsPath))
	stop()
	os.Exit(code)
}

func run(ctx context.Context, rt *cli.Runtime, path string, k, buckets int, countsPath string) error {
	log := logger.FromContext(ctx)
	counter, err := analytics.NewCounter(k, buckets)
	if err != nil {
		return err
	}

	_, span := rt.Phase(ctx, health.PhaseScanning)
	r, err := seqio.Open(path)
	if err != nil {
		span.End()
		return err
	}
	err = counter.AddAll(r.All())
	r.Close()
	span.End()
	if err != nil {
		return err
	}
	if counter.Sequences() == 0 {
		return apperrors.Newf(apperrors.ErrSequenceTooShort, apperrors.ExitInput,
			"no sequences of length >= %d in %s", k, path)
	}
	st := counter.TableStats()
	log.Info("kmers loaded",
		"sequences", counter.Sequences(),
		"kmers", counter.Total(),
		"distinct", counter.Distinct(),
		"used_buckets", st.UsedBuckets,
		"collisions", st.Collisions,
		"longest_tail", st.LongestTail,
	)

	_, span = rt.Phase(ctx, health.PhaseFinalizing)
	defer span.End()
	if countsPath != "" {
		f, err := os.Create(countsPath)
		if err != nil {
			return fmt.Errorf("creating counts output: %w", err)
		}
		if err := counter.WriteCounts(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return analytics.WriteHistogram(os.Stdout, counter.Histogram())
}
