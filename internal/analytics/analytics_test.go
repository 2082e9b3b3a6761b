package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmer"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/seqio"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
)

func TestCounterHistogram(t *testing.T) {
	c, err := NewCounter(2, 17)
	if err != nil {
		t.Fatal(err)
	}
	c.Add([]byte("aaaac"))
	c.Add([]byte("ca"))
	c.Add([]byte("g"))

	if c.Sequences() != 2 || c.Total() != 5 || c.Distinct() != 3 {
		t.Errorf("sequences=%d total=%d distinct=%d", c.Sequences(), c.Total(), c.Distinct())
	}
	if got := c.Count(kmer.MustPack(kmer.Nucleotide, "aa")); got != 3 {
		t.Errorf("aa counted %d times, want 3", got)
	}
	want := []Bin{{Occurrences: 1, Kmers: 2}, {Occurrences: 3, Kmers: 1}}
	got := c.Histogram()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("histogram %v, want %v", got, want)
	}

	var buf bytes.Buffer
	if err := WriteHistogram(&buf, got); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "1\t2\n3\t1\n" {
		t.Errorf("unexpected histogram output %q", buf.String())
	}
}

func TestCounterAmbiguityResets(t *testing.T) {
	c, _ := NewCounter(2, 0)
	c.Add([]byte("acNAC"))
	if got := c.Count(kmer.MustPack(kmer.Nucleotide, "ac")); got != 2 {
		t.Errorf("ac counted %d times, want 2", got)
	}
	if c.Distinct() != 1 {
		t.Errorf("k-mers spanning N must be skipped, distinct=%d", c.Distinct())
	}
}

func TestCounterWriteCounts(t *testing.T) {
	c, _ := NewCounter(3, 5)
	if err := c.AddAll(seqio.Records([]seqio.Record{{ID: "a", Seq: []byte("acgacg")}})); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := c.WriteCounts(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 rows, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "acg\t2\n") {
		t.Errorf("missing acg row in %q", buf.String())
	}
}

func TestNewCounterRejectsOversize(t *testing.T) {
	if _, err := NewCounter(65, 0); !errors.Is(err, apperrors.ErrOversizeKmer) {
		t.Errorf("expected ErrOversizeKmer, got %v", err)
	}
}

func TestShared(t *testing.T) {
	tests := []struct {
		name   string
		a, b   []string
		total  int64
		shared int64
	}{
		{"partial", []string{"acgt"}, []string{"acgg"}, 4, 2},
		{"identical", []string{"acgt"}, []string{"acgt"}, 3, 3},
		{"disjoint", []string{"aaa"}, []string{"ccc"}, 3, 0},
		{"short reads skipped", []string{"acgt", "a"}, []string{"c"}, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Shared(2, records(tt.a), records(tt.b))
			if err != nil {
				t.Fatal(err)
			}
			if res.Total != tt.total || res.Shared != tt.shared {
				t.Errorf("got %+v, want total=%d shared=%d", res, tt.total, tt.shared)
			}
		})
	}
}

func TestSharedString(t *testing.T) {
	r := SharedResult{Total: 4, Shared: 2}
	if r.String() != "total\t4\tshared\t2\tpct\t0.5" {
		t.Errorf("unexpected summary %q", r.String())
	}
	if (SharedResult{}).Pct() != 0 {
		t.Error("empty result should have zero pct")
	}
}

func records(seqs []string) func(func(seqio.Record, error) bool) {
	recs := make([]seqio.Record, len(seqs))
	for i, s := range seqs {
		recs[i] = seqio.Record{ID: s, Seq: []byte(s)}
	}
	return seqio.Records(recs)
}

func TestHitStats(t *testing.T) {
	s := NewHitStats(2)
	ctx := context.Background()
	_ = s.WriteHits(ctx, []hits.Record{
		{GeneName: "rplB", QueryID: "q1", IsProt: true, Frame: 1},
		{GeneName: "rplB", QueryID: "q1", IsProt: true, Frame: -2},
		{GeneName: "nifH", QueryID: "q2"},
	})
	_ = s.WriteHits(ctx, []hits.Record{{GeneName: "amoA", QueryID: "q3"}})
	_ = s.WriteHits(ctx, nil)

	sum := s.Summary()
	if sum.TotalHits != 4 || sum.ProtHits != 2 || sum.NuclHits != 2 {
		t.Errorf("unexpected totals %+v", sum)
	}
	if sum.Queries != 3 || sum.Genes != 3 {
		t.Errorf("queries=%d genes=%d", sum.Queries, sum.Genes)
	}
	if len(sum.TopGenes) != 2 || sum.TopGenes[0] != (NameCount{"rplB", 2}) || sum.TopGenes[1].Name != "amoA" {
		t.Errorf("unexpected top genes %v", sum.TopGenes)
	}
	if sum.FrameHits[1] != 1 || sum.FrameHits[-2] != 1 {
		t.Errorf("unexpected frame counts %v", sum.FrameHits)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestHandler(t *testing.T) {
	s := NewHitStats(0)
	s.Observe([]hits.Record{{GeneName: "rplB", QueryID: "q1"}})
	rec := httptest.NewRecorder()
	NewHandler(s).ServeHTTP(rec, httptest.NewRequest("GET", "/stats", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type %q", ct)
	}
	var got HitSummary
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.TotalHits != 1 || got.TopQueries[0].Name != "q1" {
		t.Errorf("unexpected summary %+v", got)
	}
}
