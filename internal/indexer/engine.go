// Package indexer builds the reference k-mer index that queries are probed
// against. The index is built once on a single goroutine and is read-only
// afterwards.
package indexer

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmer"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmerset"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/trie"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/seqio"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/metrics"
)

// Config describes the index to build. K is the index word size in symbols
// of Alphabet.
type Config struct {
	Kind     string
	K        int
	Alphabet *kmer.Alphabet
	Aligned  bool
	Buckets  int
}

// BuildStats summarises index construction.
type BuildStats struct {
	References int
	Sequences  int
	Skipped    int
	Kmers      int
	Duration   time.Duration
}

type Engine struct {
	cfg     Config
	labels  []string
	hashed  *kmerset.Set[*kmerset.RefKmerSet]
	trie    *trie.Trie
	index   Index
	stats   BuildStats
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewEngine(cfg Config, m *metrics.Metrics) (*Engine, error) {
	if cfg.Alphabet == nil {
		return nil, apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitUsage, "index alphabet not set")
	}
	if cfg.K < 1 || cfg.K > cfg.Alphabet.MaxK() {
		return nil, apperrors.Newf(apperrors.ErrOversizeKmer, apperrors.ExitUsage,
			"k=%d outside 1..%d for %s", cfg.K, cfg.Alphabet.MaxK(), cfg.Alphabet.Name())
	}
	e := &Engine{
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "indexer", "index", cfg.Kind),
	}
	switch cfg.Kind {
	case KindHashed, "":
		e.cfg.Kind = KindHashed
		if cfg.Buckets > 0 {
			e.hashed = kmerset.NewWithBuckets[*kmerset.RefKmerSet](cfg.Buckets)
		} else {
			e.hashed = kmerset.New[*kmerset.RefKmerSet]()
		}
	case KindTrie:
		t, err := trie.New(cfg.Alphabet, cfg.K)
		if err != nil {
			return nil, err
		}
		e.trie = t
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage,
			"unknown index kind %q", cfg.Kind)
	}
	return e, nil
}

// AddReference indexes every record of a reference file under a new
// reference set. The file must hold sequences of the index alphabet.
func (e *Engine) AddReference(ref seqio.Reference) error {
	alpha, err := seqio.GuessAlphabet(ref.Path)
	if err != nil {
		return err
	}
	if alpha != e.cfg.Alphabet {
		return apperrors.Newf(apperrors.ErrIncompatibleAlphabet, apperrors.ExitUsage,
			"reference file %s contains %s sequences but expected %s sequences",
			ref.Path, alpha.Name(), e.cfg.Alphabet.Name())
	}
	r, err := seqio.Open(ref.Path)
	if err != nil {
		return err
	}
	defer r.Close()
	return e.AddRecords(ref.Label, r.All())
}

// AddRecords indexes records under a new reference set labelled label.
// Records whose id starts with '#' are skipped. A sequence that cannot be
// indexed is logged and skipped; only read errors are returned.
func (e *Engine) AddRecords(label string, records iter.Seq2[seqio.Record, error]) error {
	start := time.Now()
	refSet := len(e.labels)
	indexed, skipped := 0, 0
	for rec, err := range records {
		if err != nil {
			return fmt.Errorf("reading reference %s: %w", label, err)
		}
		if strings.HasPrefix(rec.ID, "#") {
			continue
		}
		if err := e.add(refSet, rec); err != nil {
			skipped++
			reason := "invalid_symbol"
			if errors.Is(err, apperrors.ErrSequenceTooShort) {
				reason = "too_short"
			}
			e.metrics.ReferenceSkipped(reason)
			e.logger.Warn("reference sequence skipped",
				"refset", label,
				"seq_id", rec.ID,
				"reason", reason,
				"error", err,
			)
			continue
		}
		indexed++
	}
	e.labels = append(e.labels, label)
	e.index = nil

	e.stats.References++
	e.stats.Sequences += indexed
	e.stats.Skipped += skipped
	e.stats.Duration += time.Since(start)
	e.logger.Info("reference indexed",
		"refset", label,
		"sequences", indexed,
		"skipped", skipped,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

func (e *Engine) add(refSet int, rec seqio.Record) error {
	if e.trie != nil {
		if e.cfg.Aligned {
			return e.trie.AddModelSequence(rec.ID, rec.Seq, refSet)
		}
		return e.trie.AddSequence(rec.ID, rec.Seq, refSet)
	}

	var opts []kmer.Option
	if e.cfg.Aligned {
		opts = append(opts, kmer.ModelPositions())
	}
	g, err := kmer.NewGenerator(e.cfg.Alphabet, rec.Seq, e.cfg.K, opts...)
	if err != nil {
		return err
	}
	placed, err := g.Collect()
	if err != nil {
		return err
	}
	for _, p := range placed {
		key := p.Kmer.Key()
		refs, ok := e.hashed.Get(key)
		if !ok {
			refs = kmerset.NewRefKmerSet()
			e.hashed.Add(key, refs)
		}
		refs.Add(kmerset.RefKmer{ModelPos: p.Pos, RefFile: refSet, RefSeqID: rec.ID})
	}
	return nil
}

// Index returns the query view of everything added so far.
func (e *Engine) Index() Index {
	if e.index != nil {
		return e.index
	}
	if e.trie != nil {
		e.index = &trieIndex{t: e.trie, words: e.trie.UniqueWords()}
	} else {
		e.index = &hashedIndex{set: e.hashed}
	}
	e.stats.Kmers = e.index.Size()
	if e.metrics != nil {
		e.metrics.IndexSize.WithLabelValues(e.cfg.Kind).Set(float64(e.stats.Kmers))
		e.metrics.IndexBuildSeconds.Set(e.stats.Duration.Seconds())
	}
	return e.index
}

// Labels returns reference-set labels indexed by reference-set id.
func (e *Engine) Labels() []string { return e.labels }

func (e *Engine) K() int { return e.cfg.K }

func (e *Engine) Alphabet() *kmer.Alphabet { return e.cfg.Alphabet }

// Trie returns the underlying trie, or nil for a hashed index.
func (e *Engine) Trie() *trie.Trie { return e.trie }

// HashedStats reports bucket usage of a hashed index.
func (e *Engine) HashedStats() (kmerset.Stats, bool) {
	if e.hashed == nil {
		return kmerset.Stats{}, false
	}
	return e.hashed.Stats(), true
}

func (e *Engine) Stats() BuildStats {
	e.Index()
	return e.stats
}
