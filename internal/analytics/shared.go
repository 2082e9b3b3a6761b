package analytics

import (
	"fmt"
	"iter"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmer"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmerset"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/seqio"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
)

// SharedResult compares the forward k-mers of two read sets. Total is the
// number of distinct k-mers of the first set plus every k-mer occurrence of
// the second set missing from the first; Shared is the number of distinct
// first-set k-mers seen in the second.
type SharedResult struct {
	Total  int64 `json:"total"`
	Shared int64 `json:"shared"`
}

func (r SharedResult) Pct() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Shared) / float64(r.Total)
}

// String formats r as the tab-separated summary line.
func (r SharedResult) String() string {
	return fmt.Sprintf("total\t%d\tshared\t%d\tpct\t%v", r.Total, r.Shared, r.Pct())
}

// Shared counts the k-mers of a found in b. Reads are taken in the given
// orientation only; reads shorter than k are skipped.
func Shared(k int, a, b iter.Seq2[seqio.Record, error]) (SharedResult, error) {
	if k < 1 || k > kmer.Nucleotide.MaxK() {
		return SharedResult{}, apperrors.Newf(apperrors.ErrOversizeKmer, apperrors.ExitUsage,
			"kmerSize should be less than %d", kmer.Nucleotide.MaxK()+1)
	}
	seen := kmerset.New[*int64]()
	for rec, err := range a {
		if err != nil {
			return SharedResult{}, err
		}
		g, gerr := kmer.NewGenerator(kmer.Nucleotide, rec.Seq, k)
		if gerr != nil {
			continue
		}
		for _, km := range g.All() {
			if _, ok := seen.Get(km.Key()); !ok {
				seen.Add(km.Key(), new(int64))
			}
		}
	}

	var res SharedResult
	for rec, err := range b {
		if err != nil {
			return SharedResult{}, err
		}
		g, gerr := kmer.NewGenerator(kmer.Nucleotide, rec.Seq, k)
		if gerr != nil {
			continue
		}
		for _, km := range g.All() {
			if n, ok := seen.Get(km.Key()); ok {
				*n++
			} else {
				res.Total++
			}
		}
	}
	seen.Range(func(_ kmerset.Key, n *int64) bool {
		res.Total++
		if *n > 0 {
			res.Shared++
		}
		return true
	})
	return res, nil
}
