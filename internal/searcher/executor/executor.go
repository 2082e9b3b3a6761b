// Package executor probes the reference index with the k-mers of one query
// sequence: both strands (unless the orientation is known), and three
// translated frames per strand when the index holds protein k-mers.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmer"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/seqio"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/metrics"
)

type Options struct {
	// WordSize is the query k-mer length in nucleotides.
	WordSize           int
	TranslTable        int
	CorrectOrientation bool
}

type Executor struct {
	index     indexer.Index
	labels    []string
	translate bool
	k         int
	opts      Options
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New prepares an executor over a built engine. A protein index requires a
// word size that is a multiple of 3.
func New(engine *indexer.Engine, opts Options, m *metrics.Metrics) (*Executor, error) {
	e := &Executor{
		index:   engine.Index(),
		labels:  engine.Labels(),
		opts:    opts,
		metrics: m,
		logger:  slog.Default().With("component", "query-executor"),
	}
	if opts.TranslTable == 0 {
		e.opts.TranslTable = 11
	}
	e.translate = engine.Alphabet() == kmer.Protein
	if e.translate {
		if opts.WordSize%3 != 0 {
			return nil, apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage,
				"word size %d must be a multiple of 3 for a protein reference", opts.WordSize)
		}
		e.k = opts.WordSize / 3
	} else {
		e.k = opts.WordSize
	}
	if e.k != engine.K() {
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage,
			"word size %d does not match index k=%d", opts.WordSize, engine.K())
	}
	return e, nil
}

// Translated reports whether queries are translated before probing.
func (e *Executor) Translated() bool { return e.translate }

// MinQueryLength is the shortest query worth probing.
func (e *Executor) MinQueryLength() int {
	if e.translate {
		return e.opts.WordSize + 2
	}
	return e.opts.WordSize
}

// hit is called for every matched k-mer; returning false stops the scan.
type hit func(reverse bool, frame int, nuclKmer string, protKmer string, placements []indexer.Placement) bool

// Execute returns one record per placement of every matched query k-mer.
func (e *Executor) Execute(ctx context.Context, q seqio.Record) ([]hits.Record, error) {
	start := time.Now()
	var out []hits.Record
	err := e.scan(ctx, q, func(reverse bool, frame int, nucl, prot string, ps []indexer.Placement) bool {
		f := frame + 1
		if reverse {
			f = -f
		}
		for _, p := range ps {
			out = append(out, hits.Record{
				GeneName: e.labels[p.RefSet],
				QueryID:  q.ID,
				RefID:    p.SeqID,
				NuclKmer: nucl,
				IsProt:   e.translate,
				Frame:    f,
				ProtKmer: prot,
				ModelPos: p.ModelPos,
			})
		}
		return true
	})
	if e.metrics != nil {
		e.metrics.QueryLatency.Observe(time.Since(start).Seconds())
	}
	return out, err
}

// Matches reports whether q shares at least one k-mer with the index.
func (e *Executor) Matches(ctx context.Context, q seqio.Record) (bool, error) {
	found := false
	err := e.scan(ctx, q, func(bool, int, string, string, []indexer.Placement) bool {
		found = true
		return false
	})
	return found, err
}

func (e *Executor) scan(ctx context.Context, q seqio.Record, fn hit) error {
	strands := [][]byte{q.Seq}
	if !e.opts.CorrectOrientation {
		strands = append(strands, seqio.ReverseComplement(q.Seq))
	}
	probed := 0
	defer func() { e.metrics.Probed(e.index.Kind(), probed) }()

	for i, strand := range strands {
		if err := ctx.Err(); err != nil {
			return err
		}
		reverse := i == 1
		var windows []string
		nuclAt := func(pos int) string {
			if windows == nil {
				windows = kmer.Windows(strand, e.opts.WordSize)
			}
			if pos < 0 || pos >= len(windows) {
				return ""
			}
			return windows[pos]
		}

		if !e.translate {
			g, err := kmer.NewGenerator(kmer.Nucleotide, strand, e.k)
			if err != nil {
				return skipShort(err)
			}
			for pos, km := range g.All() {
				probed++
				if ps := e.index.Lookup(km); len(ps) > 0 {
					if !fn(reverse, 0, nuclAt(pos-1), "", ps) {
						return nil
					}
				}
			}
			continue
		}

		for frame := 0; frame < 3; frame++ {
			if len(strand)-frame < 3*e.k {
				break
			}
			prot, err := seqio.Translate(strand[frame:], e.opts.TranslTable)
			if err != nil {
				return err
			}
			g, err := kmer.NewGenerator(kmer.Protein, prot, e.k)
			if err != nil {
				if skipShort(err) == nil {
					continue
				}
				return err
			}
			for pos, km := range g.All() {
				probed++
				ps := e.index.Lookup(km)
				if len(ps) == 0 {
					continue
				}
				if !fn(reverse, frame, nuclAt((pos-1)*3+frame), km.String(), ps) {
					return nil
				}
			}
		}
	}
	return nil
}

func skipShort(err error) error {
	if errors.Is(err, apperrors.ErrSequenceTooShort) {
		return nil
	}
	return err
}
