package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits/sink"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmer"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/seqio"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/kafka"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/redis"
)

// Create opens path for writing; "" and "-" mean stdout.
func Create(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return os.Stdout, nil
	}
	return os.Create(path)
}

// BuildEngine indexes every reference argument ("label=path" or a bare path).
func (r *Runtime) BuildEngine(ctx context.Context, cfg indexer.Config, refs []string) (*indexer.Engine, error) {
	ctx, span := r.Phase(ctx, health.PhaseBuilding)
	defer span.End()

	engine, err := indexer.NewEngine(cfg, r.Metrics)
	if err != nil {
		return nil, err
	}
	for _, arg := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := engine.AddReference(seqio.ParseReference(arg)); err != nil {
			return nil, err
		}
	}
	st := engine.Stats()
	span.SetAttr("references", st.References)
	span.SetAttr("sequences", st.Sequences)
	span.SetAttr("skipped", st.Skipped)
	r.Checker.Register("index", func(context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp, Message: engine.Index().Kind()}
	})
	return engine, nil
}

// withCloser closes extra after the wrapped sink has drained.
type withCloser struct {
	hits.Sink
	extra io.Closer
}

func (s withCloser) Close() error {
	return errors.Join(s.Sink.Close(), s.extra.Close())
}

// OpenSinks returns the TSV writer on out plus the external sinks enabled in
// the config. An unreachable Redis is logged and skipped.
func (r *Runtime) OpenSinks(ctx context.Context, out io.Writer, extra ...hits.Sink) (hits.Sink, error) {
	tsv, err := hits.NewWriter(out)
	if err != nil {
		return nil, err
	}
	sinks := hits.MultiSink{tsv}
	cfg := r.Config
	opts := sink.OptionsFromConfig(cfg, r.Metrics)

	if cfg.Sinks.Kafka {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Hits)
		sinks = append(sinks, withCloser{Sink: sink.NewKafka(producer, opts), extra: producer})
		r.Checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
			if err := kafka.Ping(ctx, cfg.Kafka); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}
	if cfg.Sinks.Redis {
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			r.logger.Warn("redis unavailable, hit stream disabled", "error", err)
		} else {
			sinks = append(sinks, withCloser{
				Sink:  sink.NewRedis(client, cfg.Redis.HitStream, cfg.Redis.StreamMaxLen, opts),
				extra: client,
			})
			r.Checker.Register("redis", health.PingCheck(client.Ping, health.StatusDegraded))
		}
	}
	sinks = append(sinks, extra...)
	return sinks, nil
}

// IndexConfig derives the index layout for a query word size of wordSize
// nucleotides. Protein references need a word size that is a multiple of 3
// and are indexed with k = wordSize/3.
func IndexConfig(cfg *config.Config, wordSize int, refs []string) (indexer.Config, error) {
	ic := indexer.Config{Kind: cfg.Pipeline.Index, Aligned: cfg.Pipeline.Aligned, K: wordSize}
	a, err := ReferenceAlphabet(cfg, refs)
	if err != nil {
		return ic, err
	}
	ic.Alphabet = a
	if a == kmer.Protein {
		if wordSize%3 != 0 {
			return ic, apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage,
				"kmerSize should be multiple of 3, (recommend 45, minimum 30, maximum 63), got %d", wordSize)
		}
		ic.K = wordSize / 3
	}
	return ic, nil
}

// ReferenceAlphabet is the configured alphabet or, when unset, the one
// guessed from the first reference file.
func ReferenceAlphabet(cfg *config.Config, refs []string) (*kmer.Alphabet, error) {
	if len(refs) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitUsage, "no reference files given")
	}
	if cfg.Kmer.Alphabet != "" {
		return kmer.ParseAlphabet(cfg.Kmer.Alphabet)
	}
	return seqio.GuessAlphabet(seqio.ParseReference(refs[0]).Path)
}

// RequireNucleotide fails when path holds protein sequences.
func RequireNucleotide(path string) error {
	a, err := seqio.GuessAlphabet(path)
	if err != nil {
		return err
	}
	if a != kmer.Nucleotide {
		return apperrors.Newf(apperrors.ErrIncompatibleAlphabet, apperrors.ExitInput,
			"expected nucleotide query sequences in %s", path)
	}
	return nil
}
