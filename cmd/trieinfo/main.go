// Command trieinfo builds a trie from a reference file and prints its size:
//
//	word_size  nodes  unique_words  build_ms
//
// An optional third argument receives the word histogram, one
// "occurrences<TAB>words" row per distinct insertion count.
//
// Usage:
//
//	trieinfo [flags] <ref_file> <word_size> [histogram_out]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/cli"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/logger"
)

func main() {
	fs := flag.NewFlagSet("trieinfo", flag.ExitOnError)
	common := cli.RegisterFlags(fs)
	aligned := fs.Bool("aligned", false, "reference is aligned; record model positions")
	fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) != 2 && len(args) != 3 {
		cli.Usage(fs, "usage: trieinfo [flags] <ref_file> <word_size> [histogram_out]")
	}
	k, err := strconv.Atoi(args[1])
	if err != nil {
		cli.Usage(fs, fmt.Sprintf("word size %q is not a number", args[1]))
	}
	histPath := ""
	if len(args) == 3 {
		histPath = args[2]
	}

	cfg, err := cli.LoadConfig(common)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
	cfg.Pipeline.Index = indexer.KindTrie
	cfg.Pipeline.Aligned = cfg.Pipeline.Aligned || *aligned

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, rt := cli.Start(ctx, "trieinfo", cfg)
	code := rt.Finish(run(ctx, rt, args[0], k, histPath))
	stop()
	os.Exit(code)
}

func run(ctx context.Context, rt *cli.Runtime, refPath string, k int, histPath string) error {
	log := logger.FromContext(ctx)
	refs := []string{refPath}
	alpha, err := cli.ReferenceAlphabet(rt.Config, refs)
	if err != nil {
		return err
	}
	ic := indexer.Config{Kind: indexer.KindTrie, K: k, Alphabet: alpha, Aligned: rt.Config.Pipeline.Aligned}
	log.Info("building trie", "word_size", k, "alphabet", ic.Alphabet.Name())
	engine, err := rt.BuildEngine(ctx, ic, refs)
	if err != nil {
		return err
	}
	t := engine.Trie()
	st := engine.Stats()
	nodes, unique := t.CountNodes(), t.UniqueWords()
	log.Info("trie built",
		"alphabet", t.Alphabet().Name(),
		"nodes", nodes,
		"unique_words", unique,
		"duration", st.Duration,
	)
	fmt.Printf("%d\t%d\t%d\t%d\n", k, nodes, unique, st.Duration.Milliseconds())

	if histPath == "" {
		return nil
	}
	_, span := rt.Phase(ctx, health.PhaseFinalizing)
	defer span.End()
	f, err := os.Create(histPath)
	if err != nil {
		return fmt.Errorf("creating histogram output: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, bin := range t.WordHistogram() {
		fmt.Fprintf(w, "%d\t%d\n", bin.Occurrences, bin.Words)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
