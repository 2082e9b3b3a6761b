package coverage

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"time"
)

// ContigStats summarises the coverage of one contig.
type ContigStats struct {
	ID           string  `json:"id"`
	MeanCov      float64 `json:"mean_cov"`
	MedianCov    float64 `json:"median_cov"`
	TotalPos     int     `json:"total_pos"`
	CoveredPos   int     `json:"covered_pos"`
	CoveredRatio float64 `json:"covered_ratio"`
}

// AbundanceBin is the number of distinct contig k-mers seen Abundance times
// in the reads.
type AbundanceBin struct {
	Abundance int64 `json:"abundance"`
	Kmers     int   `json:"kmers"`
}

// Summary is the full result of a coverage run.
type Summary struct {
	RunID        string         `json:"run_id,omitempty"`
	K            int            `json:"k"`
	ReadsScanned int64          `json:"reads_scanned"`
	ReadsMatched int64          `json:"reads_matched"`
	Contigs      []ContigStats  `json:"contigs"`
	Abundance    []AbundanceBin `json:"abundance"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Stats finalizes the accumulator and summarises every contig in input order.
func (a *Accumulator) Stats() []ContigStats {
	a.Finalize()
	out := make([]ContigStats, 0, len(a.contigs))
	for _, c := range a.contigs {
		out = append(out, contigStats(c))
	}
	return out
}

func contigStats(c *Contig) ContigStats {
	st := ContigStats{ID: c.ID, TotalPos: len(c.coverage)}
	var sum float64
	for _, v := range c.coverage {
		if v > 0 {
			st.CoveredPos++
		}
		sum += v
	}
	if st.CoveredPos == 0 {
		return st
	}
	st.MeanCov = sum / float64(st.TotalPos)
	st.MedianCov = median(c.coverage)
	st.CoveredRatio = float64(st.CoveredPos) / float64(st.TotalPos)
	return st
}

func median(vals []float64) float64 {
	sorted := slices.Clone(vals)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// AbundanceHistogram groups forward contig k-mers by abundance, ascending.
func (a *Accumulator) AbundanceHistogram() []AbundanceBin {
	a.Finalize()
	counts := make(map[int64]int)
	for _, ab := range a.Abundances() {
		counts[ab]++
	}
	bins := make([]AbundanceBin, 0, len(counts))
	for ab, n := range counts {
		bins = append(bins, AbundanceBin{Abundance: ab, Kmers: n})
	}
	slices.SortFunc(bins, func(x, y AbundanceBin) int {
		switch {
		case x.Abundance < y.Abundance:
			return -1
		case x.Abundance > y.Abundance:
			return 1
		}
		return 0
	})
	return bins
}

// Summary collects the per-contig statistics and the abundance histogram.
func (a *Accumulator) Summary(runID string) Summary {
	return Summary{
		RunID:        runID,
		K:            a.k,
		ReadsScanned: a.ReadsScanned(),
		ReadsMatched: a.ReadsMatched(),
		Contigs:      a.Stats(),
		Abundance:    a.AbundanceHistogram(),
		CreatedAt:    time.Now().UTC(),
	}
}

// WriteReport writes the coverage table: three header lines, then one row
// per contig.
func WriteReport(w io.Writer, s Summary) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#total reads: %d\n", s.ReadsMatched)
	fmt.Fprintln(bw, "#use mean_cov to adjust the contig abundance, not median_cov ")
	fmt.Fprintln(bw, "#seqid\tmean_cov\tmedian_cov\ttotal_pos\tcovered_pos\tcovered_ratio")
	for _, c := range s.Contigs {
		if c.CoveredPos == 0 {
			fmt.Fprintf(bw, "%s\t0\t0\t%d\t0\t0\n", c.ID, c.TotalPos)
			continue
		}
		fmt.Fprintf(bw, "%s\t%.3f\t%.3f\t%d\t%d\t%.3f\n",
			c.ID, c.MeanCov, c.MedianCov, c.TotalPos, c.CoveredPos, c.CoveredRatio)
	}
	return bw.Flush()
}

// WriteAbundance writes the k-mer abundance histogram.
func WriteAbundance(w io.Writer, s Summary) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "kmer_abundance\tfrequency")
	for _, b := range s.Abundance {
		fmt.Fprintf(bw, "%d\t%d\n", b.Abundance, b.Kmers)
	}
	return bw.Flush()
}
