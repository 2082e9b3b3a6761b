package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits"
)

type HitSummary struct {
	TotalHits     int64         `json:"total_hits"`
	NuclHits      int64         `json:"nucl_hits"`
	ProtHits      int64         `json:"prot_hits"`
	Queries       int           `json:"queries"`
	Genes         int           `json:"genes"`
	FrameHits     map[int]int64 `json:"frame_hits,omitempty"`
	TopGenes      []NameCount   `json:"top_genes"`
	TopQueries    []NameCount   `json:"top_queries"`
	HitsPerMinute float64       `json:"hits_per_minute"`
}

type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// HitStats keeps running totals of hit records. It is a hits.Sink, so it can
// sit beside the TSV writer or behind the Kafka collector.
type HitStats struct {
	mu         sync.RWMutex
	total      atomic.Int64
	prot       atomic.Int64
	geneCounts map[string]int64
	queryHits  map[string]int64
	frameHits  map[int]int64
	startTime  time.Time
	topN       int
	logger     *slog.Logger
}

func NewHitStats(topN int) *HitStats {
	if topN <= 0 {
		topN = 10
	}
	return &HitStats{
		geneCounts: make(map[string]int64),
		queryHits:  make(map[string]int64),
		frameHits:  make(map[int]int64),
		startTime:  time.Now(),
		topN:       topN,
		logger:     slog.Default().With("component", "hit-stats"),
	}
}

func (s *HitStats) WriteHits(_ context.Context, recs []hits.Record) error {
	s.Observe(recs)
	return nil
}

// Close logs the final totals.
func (s *HitStats) Close() error {
	sum := s.Summary()
	s.logger.Info("hit totals",
		"hits", sum.TotalHits,
		"queries", sum.Queries,
		"genes", sum.Genes,
		"prot_hits", sum.ProtHits,
	)
	return nil
}

func (s *HitStats) Observe(recs []hits.Record) {
	if len(recs) == 0 {
		return
	}
	s.total.Add(int64(len(recs)))

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		if r.IsProt {
			s.prot.Add(1)
			s.frameHits[r.Frame]++
		}
		s.geneCounts[r.GeneName]++
		s.queryHits[r.QueryID]++
	}
}

func (s *HitStats) Summary() HitSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := HitSummary{
		TotalHits: s.total.Load(),
		ProtHits:  s.prot.Load(),
		Queries:   len(s.queryHits),
		Genes:     len(s.geneCounts),
	}
	sum.NuclHits = sum.TotalHits - sum.ProtHits
	if len(s.frameHits) > 0 {
		sum.FrameHits = make(map[int]int64, len(s.frameHits))
		for f, n := range s.frameHits {
			sum.FrameHits[f] = n
		}
	}
	sum.TopGenes = topN(s.geneCounts, s.topN)
	sum.TopQueries = topN(s.queryHits, s.topN)
	if elapsed := time.Since(s.startTime).Minutes(); elapsed > 0 {
		sum.HitsPerMinute = float64(sum.TotalHits) / elapsed
	}
	return sum
}

// topN orders by count descending, then name.
func topN(counts map[string]int64, n int) []NameCount {
	result := make([]NameCount, 0, len(counts))
	for name, count := range counts {
		result = append(result, NameCount{Name: name, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Name < result[j].Name
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

// StartPeriodicLog logs the summary every interval until ctx is done.
func (s *HitStats) StartPeriodicLog(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sum := s.Summary()
				s.logger.Info("hit totals",
					"hits", sum.TotalHits,
					"queries", sum.Queries,
					"genes", sum.Genes,
					"hits_per_minute", sum.HitsPerMinute,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
