// Package coverage estimates per-position read coverage of assembled
// contigs. Every contig k-mer (both strands) is indexed once; reads are then
// scanned concurrently and each read k-mer found in a contig bumps that
// k-mer's counter. Finalize spreads every counter evenly over the contig
// positions holding the k-mer.
package coverage

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmer"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmerset"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/seqio"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/metrics"
)

const (
	forward = 0
	reverse = 1
)

// Contig is a contig long enough to hold at least one k-mer. Coverage has
// one entry per k-mer start, Length-k+1 in all.
type Contig struct {
	ID       string
	Length   int
	coverage []float64
}

type placement struct {
	contig int32
	pos    int32
}

// Abundance counts read occurrences of one contig k-mer.
type Abundance struct {
	kmer       kmer.Kmer
	count      atomic.Int64
	placements []placement
}

func (a *Abundance) Count() int64 { return a.count.Load() }

type Option func(*Accumulator)

// WithMatchedReads writes every read sharing a k-mer with a contig to w.
func WithMatchedReads(w *seqio.Writer) Option {
	return func(a *Accumulator) { a.matchedOut = w }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Accumulator) { a.metrics = m }
}

// WithBuckets sizes the k-mer sets; the default suits genome-scale input.
func WithBuckets(n int) Option {
	return func(a *Accumulator) { a.buckets = n }
}

type Accumulator struct {
	k          int
	contigs    []*Contig
	sets       [2]*kmerset.Set[*Abundance]
	scanned    atomic.Int64
	matched    atomic.Int64
	finalize   sync.Once
	matchedOut *seqio.Writer
	buckets    int
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New indexes the forward and reverse-complement k-mers of contigs. Contigs
// shorter than k are left out.
func New(k int, contigs []seqio.Record, opts ...Option) (*Accumulator, error) {
	if k < 1 || k > kmer.Nucleotide.MaxK() {
		return nil, apperrors.Newf(apperrors.ErrOversizeKmer, apperrors.ExitUsage,
			"k=%d outside 1..%d", k, kmer.Nucleotide.MaxK())
	}
	a := &Accumulator{
		k:      k,
		logger: slog.Default().With("component", "coverage"),
	}
	for _, opt := range opts {
		opt(a)
	}
	for i := range a.sets {
		if a.buckets > 0 {
			a.sets[i] = kmerset.NewWithBuckets[*Abundance](a.buckets)
		} else {
			a.sets[i] = kmerset.New[*Abundance]()
		}
	}

	for _, rec := range contigs {
		if len(rec.Seq) < k {
			a.logger.Debug("contig shorter than k skipped", "contig", rec.ID, "length", len(rec.Seq))
			continue
		}
		idx := int32(len(a.contigs))
		n := len(rec.Seq)
		a.contigs = append(a.contigs, &Contig{
			ID:       rec.ID,
			Length:   n,
			coverage: make([]float64, n-k+1),
		})
		if err := a.index(forward, rec.Seq, func(pos int) placement {
			return placement{contig: idx, pos: int32(pos - 1)}
		}); err != nil {
			return nil, fmt.Errorf("indexing contig %s: %w", rec.ID, err)
		}
		if err := a.index(reverse, seqio.ReverseComplement(rec.Seq), func(pos int) placement {
			return placement{contig: idx, pos: int32(n - pos - k + 1)}
		}); err != nil {
			return nil, fmt.Errorf("indexing contig %s: %w", rec.ID, err)
		}
	}
	a.logger.Info("contig k-mers indexed",
		"contigs", len(a.contigs),
		"forward_kmers", a.sets[forward].Size(),
		"reverse_kmers", a.sets[reverse].Size(),
	)
	return a, nil
}

func (a *Accumulator) index(strand int, text []byte, at func(pos int) placement) error {
	g, err := kmer.NewGenerator(kmer.Nucleotide, text, a.k)
	if err != nil {
		return err
	}
	set := a.sets[strand]
	for pos, km := range g.All() {
		ab, ok := set.Get(km.Key())
		if !ok {
			ab = &Abundance{kmer: km}
			set.Add(km.Key(), ab)
		}
		ab.placements = append(ab.placements, at(pos))
	}
	return nil
}

// K is the k-mer length.
func (a *Accumulator) K() int { return a.k }

// Contigs returns the indexed contigs in input order.
func (a *Accumulator) Contigs() []*Contig { return a.contigs }

// ProcessRead counts the read's k-mers against both strands of every contig
// and reports whether any matched. Reads shorter than k are ignored. Safe for
// concurrent use until Finalize.
func (a *Accumulator) ProcessRead(rec seqio.Record) (bool, error) {
	if len(rec.Seq) < a.k {
		return false, nil
	}
	g, err := kmer.NewGenerator(kmer.Nucleotide, rec.Seq, a.k)
	if err != nil {
		return false, err
	}
	found := false
	for _, km := range g.All() {
		key := km.Key()
		for _, set := range a.sets {
			if ab, ok := set.Get(key); ok {
				ab.count.Add(1)
				found = true
			}
		}
	}
	a.scanned.Add(1)
	a.metrics.Read(found)
	if !found {
		return false, nil
	}
	a.matched.Add(1)
	if a.matchedOut != nil {
		if err := a.matchedOut.Write(rec); err != nil {
			return true, err
		}
	}
	return true, nil
}

// ReadsScanned counts reads of length at least k passed to ProcessRead.
func (a *Accumulator) ReadsScanned() int64 { return a.scanned.Load() }

// ReadsMatched counts reads that shared at least one k-mer with a contig.
func (a *Accumulator) ReadsMatched() int64 { return a.matched.Load() }

// Finalize distributes k-mer counts over contig positions. Only the first
// call has an effect; later calls return immediately.
func (a *Accumulator) Finalize() {
	a.finalize.Do(func() {
		for _, set := range a.sets {
			set.Range(func(_ kmerset.Key, ab *Abundance) bool {
				weighted := float64(ab.count.Load()) / float64(len(ab.placements))
				for _, p := range ab.placements {
					a.contigs[p.contig].coverage[p.pos] += weighted
				}
				return true
			})
		}
	})
}

// Coverage returns the finalized coverage of contig i.
func (a *Accumulator) Coverage(i int) []float64 {
	a.Finalize()
	return a.contigs[i].coverage
}

// Abundances returns, for every distinct forward contig k-mer, its forward
// count plus the reverse-strand count of its reverse complement.
func (a *Accumulator) Abundances() []int64 {
	out := make([]int64, 0, a.sets[forward].Size())
	a.sets[forward].Range(func(_ kmerset.Key, ab *Abundance) bool {
		total := ab.count.Load()
		if rc, ok := a.sets[reverse].Get(ab.kmer.ReverseComplement().Key()); ok {
			total += rc.count.Load()
		}
		out = append(out, total)
		return true
	})
	return out
}
