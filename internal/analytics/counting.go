// Package analytics computes summary statistics over k-mer content: exact
// k-mer counts, k-mers shared between two read sets, and running totals of
// emitted hit records.
package analytics

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmer"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmerset"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/seqio"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
)

// KmerCount is one distinct k-mer and its number of occurrences.
type KmerCount struct {
	Kmer  kmer.Kmer
	Count int
}

// Bin is the number of distinct k-mers seen exactly Occurrences times.
type Bin struct {
	Occurrences int `json:"occurrences"`
	Kmers       int `json:"kmers"`
}

// Counter counts every nucleotide k-mer of the sequences added to it.
// Not safe for concurrent use.
type Counter struct {
	k         int
	set       *kmerset.Set[*KmerCount]
	sequences int
	total     int64
}

func NewCounter(k, buckets int) (*Counter, error) {
	if k < 1 || k > kmer.Nucleotide.MaxK() {
		return nil, apperrors.Newf(apperrors.ErrOversizeKmer, apperrors.ExitUsage,
			"k=%d outside 1..%d", k, kmer.Nucleotide.MaxK())
	}
	set := kmerset.New[*KmerCount]()
	if buckets > 0 {
		set = kmerset.NewWithBuckets[*KmerCount](buckets)
	}
	return &Counter{k: k, set: set}, nil
}

// Add counts the k-mers of s. Sequences shorter than k are ignored.
func (c *Counter) Add(s []byte) {
	g, err := kmer.NewGenerator(kmer.Nucleotide, s, c.k)
	if err != nil {
		return
	}
	c.sequences++
	for _, km := range g.All() {
		c.total++
		if kc, ok := c.set.Get(km.Key()); ok {
			kc.Count++
			continue
		}
		c.set.Add(km.Key(), &KmerCount{Kmer: km, Count: 1})
	}
}

// AddAll counts every record of recs and returns the first read error.
func (c *Counter) AddAll(recs iter.Seq2[seqio.Record, error]) error {
	for rec, err := range recs {
		if err != nil {
			return err
		}
		c.Add(rec.Seq)
	}
	return nil
}

// Sequences is the number of sequences at least k long.
func (c *Counter) Sequences() int { return c.sequences }

// Total is the number of k-mer occurrences counted.
func (c *Counter) Total() int64 { return c.total }

// Distinct is the number of distinct k-mers.
func (c *Counter) Distinct() int { return c.set.Size() }

func (c *Counter) Count(km kmer.Kmer) int {
	if kc, ok := c.set.Get(km.Key()); ok {
		return kc.Count
	}
	return 0
}

// TableStats reports the occupancy of the underlying hash table.
func (c *Counter) TableStats() kmerset.Stats { return c.set.Stats() }

// Histogram groups distinct k-mers by occurrence count, ascending.
func (c *Counter) Histogram() []Bin {
	hist := make(map[int]int)
	c.set.Range(func(_ kmerset.Key, kc *KmerCount) bool {
		hist[kc.Count]++
		return true
	})
	bins := make([]Bin, 0, len(hist))
	for occ, n := range hist {
		bins = append(bins, Bin{Occurrences: occ, Kmers: n})
	}
	slices.SortFunc(bins, func(a, b Bin) int { return a.Occurrences - b.Occurrences })
	return bins
}

// WriteCounts writes "kmer\tcount" for every distinct k-mer in table order.
func (c *Counter) WriteCounts(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var err error
	c.set.Range(func(_ kmerset.Key, kc *KmerCount) bool {
		_, err = fmt.Fprintf(bw, "%s\t%d\n", kc.Kmer.String(), kc.Count)
		return err == nil
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

// WriteHistogram writes "occurrences\tkmers" rows, ascending.
func WriteHistogram(w io.Writer, bins []Bin) error {
	bw := bufio.NewWriter(w)
	for _, b := range bins {
		fmt.Fprintf(bw, "%d\t%d\n", b.Occurrences, b.Kmers)
	}
	return bw.Flush()
}
