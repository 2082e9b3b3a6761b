// Command sharedkmers reports how many forward k-mers of one read file also
// occur in a second. Reads are assumed to be in the correct orientation.
//
// Usage:
//
//	sharedkmers [flags] <k> <reads_a> <reads_b>
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
)

func main() {
	fs := flag.NewFlagSet("sharedkmers", flag.ExitOnError)
	common := cli.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) != 3 {
		cli.Usage(fs, "usage: sharedkmers [flags] <k> <reads_a> <reads_b>")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, rt := cli.Start(ctx, "sharedkmers", cfg)
	code := rt.Finish(run(ctx, rt, k, args[1], args[2]))
	stop()
	os.Exit(code)
}

func run(ctx context.Context, rt *cli.Runtime, k int, pathA, pathB string) error {
	_, span := rt.Phase(ctx, health.PhaseScanning)
	defer span.End()

	a, err := seqio.Open(pathA)
	if err != nil {
		return err
	}
	defer a.Close()
	b, err := seqio.Open(pathB)
	if err != nil {
		return err
	}
	defer b.Close()

	res, err := analytics.Shared(k, a.All(), b.All())
	if err != nil {
		return err
	}
	span.SetAttr("total", res.Total)
	span.SetAttr("shared", res.Shared)
	fmt.Printf("%s\t%s\t%s\n", pathA, pathB, res)
	return nil
}
