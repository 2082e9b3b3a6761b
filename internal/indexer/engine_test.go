package indexer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmer"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/seqio"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
)

func build(t *testing.T, kind string, aligned bool, alpha *kmer.Alphabet, k int, sets ...[]seqio.Record) *Engine {
	t.Helper()
	e, err := NewEngine(Config{Kind: kind, K: k, Alphabet: alpha, Aligned: aligned, Buckets: 101}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, recs := range sets {
		if err := e.AddRecords(string(rune('A'+i)), seqio.Records(recs)); err != nil {
			t.Fatal(err)
		}
	}
	return e
}

func TestLookupBothKinds(t *testing.T) {
	refs := []seqio.Record{
		{ID: "#consensus", Seq: []byte("ggggg")},
		{ID: "r1", Seq: []byte("acgtac")},
		{ID: "short", Seq: []byte("ac")},
	}
	for _, kind := range []string{KindHashed, KindTrie} {
		t.Run(kind, func(t *testing.T) {
			e := build(t, kind, false, kmer.Nucleotide, 4, refs, []seqio.Record{{ID: "r2", Seq: []byte("ttacgt")}})
			idx := e.Index()
			if idx.Kind() != kind {
				t.Errorf("kind %s", idx.Kind())
			}
			// acgt cgta gtac from r1; ttac tacg acgt from r2
			if idx.Size() != 5 {
				t.Errorf("expected 5 distinct k-mers, got %d", idx.Size())
			}
			got := idx.Lookup(kmer.MustPack(kmer.Nucleotide, "acgt"))
			if len(got) != 2 {
				t.Fatalf("expected 2 placements, got %v", got)
			}
			if got[0].RefSet != 0 || got[0].SeqID != "r1" || got[1].RefSet != 1 || got[1].SeqID != "r2" {
				t.Errorf("unexpected placements %v", got)
			}
			if idx.Lookup(kmer.MustPack(kmer.Nucleotide, "gggg")) != nil {
				t.Error("'#' records must not be indexed")
			}
			st := e.Stats()
			if st.References != 2 || st.Sequences != 2 || st.Skipped != 1 {
				t.Errorf("unexpected stats %+v", st)
			}
			if labels := e.Labels(); len(labels) != 2 || labels[1] != "B" {
				t.Errorf("labels %v", labels)
			}
		})
	}
}

func TestHashedRecordsColumnPositions(t *testing.T) {
	e := build(t, KindHashed, false, kmer.Nucleotide, 3, []seqio.Record{{ID: "r", Seq: []byte("aacgt")}})
	got := e.Index().Lookup(kmer.MustPack(kmer.Nucleotide, "cgt"))
	if len(got) != 1 || got[0].ModelPos != 3 {
		t.Errorf("expected cgt at column 3, got %v", got)
	}
	tr := build(t, KindTrie, false, kmer.Nucleotide, 3, []seqio.Record{{ID: "r", Seq: []byte("aacgt")}})
	if got := tr.Index().Lookup(kmer.MustPack(kmer.Nucleotide, "cgt")); len(got) != 1 || got[0].ModelPos != -1 {
		t.Errorf("unaligned trie placements carry no model position, got %v", got)
	}
}

func TestAlignedReferences(t *testing.T) {
	refs := []seqio.Record{
		{ID: "aln1", Seq: []byte("-BCDeFG.Hijk")},
		{ID: "aln2", Seq: []byte("--BCD")},
	}
	for _, kind := range []string{KindHashed, KindTrie} {
		t.Run(kind, func(t *testing.T) {
			e := build(t, kind, true, kmer.Protein, 3, refs)
			got := e.Index().Lookup(kmer.MustPack(kmer.Protein, "bcd"))
			if len(got) != 2 || got[0].ModelPos != 2 || got[1].ModelPos != 3 {
				t.Errorf("unexpected placements %v", got)
			}
			if e.Index().Lookup(kmer.MustPack(kmer.Protein, "cde")) != nil {
				t.Error("insertion column must break the run")
			}
		})
	}
}

func TestRefKmerIdentityCollapses(t *testing.T) {
	refs := []seqio.Record{
		{ID: "s1", Seq: []byte("acgt")},
		{ID: "s2", Seq: []byte("acgt")},
	}
	e := build(t, KindHashed, false, kmer.Nucleotide, 4, refs)
	got := e.Index().Lookup(kmer.MustPack(kmer.Nucleotide, "acgt"))
	if len(got) != 1 || got[0].SeqID != "s1" {
		t.Errorf("same position in the same file keeps the first sequence, got %v", got)
	}
}

func TestTrieLookupCountsQueries(t *testing.T) {
	e := build(t, KindTrie, false, kmer.Nucleotide, 4, []seqio.Record{{ID: "r", Seq: []byte("acgt")}})
	km := kmer.MustPack(kmer.Nucleotide, "acgt")
	e.Index().Lookup(km)
	e.Index().Lookup(km)
	if n := e.Trie().Contains(km).QueryCount(); n != 2 {
		t.Errorf("expected 2 query hits, got %d", n)
	}
}

func TestNewEngineErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"oversize", Config{Kind: KindHashed, K: 25, Alphabet: kmer.Protein}, apperrors.ErrOversizeKmer},
		{"zero k", Config{Kind: KindTrie, K: 0, Alphabet: kmer.Nucleotide}, apperrors.ErrOversizeKmer},
		{"unknown kind", Config{Kind: "btree", K: 4, Alphabet: kmer.Nucleotide}, apperrors.ErrInvalidConfig},
		{"no alphabet", Config{Kind: KindHashed, K: 4}, apperrors.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEngine(tt.cfg, nil); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAddReferenceRejectsOtherAlphabet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prot.fa")
	if err := os.WriteFile(path, []byte(">p\nMEEPQSDPSVEPPLSQETFSDLWKLL\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	e, _ := NewEngine(Config{Kind: KindHashed, K: 4, Alphabet: kmer.Nucleotide, Buckets: 11}, nil)
	err := e.AddReference(seqio.Reference{Label: "prot", Path: path})
	if !errors.Is(err, apperrors.ErrIncompatibleAlphabet) {
		t.Errorf("expected ErrIncompatibleAlphabet, got %v", err)
	}
}

func TestInvalidSymbolSkipsSequenceForEveryIndex(t *testing.T) {
	refs := []seqio.Record{
		{ID: "bad", Seq: []byte("ACGTACRGGTCA")},
		{ID: "good", Seq: []byte("TTTTCCCC")},
	}
	tests := []struct {
		kind    string
		aligned bool
	}{
		{KindHashed, false},
		{KindHashed, true},
		{KindTrie, false},
		{KindTrie, true},
	}
	for _, tt := range tests {
		name := tt.kind
		if tt.aligned {
			name += "/aligned"
		}
		t.Run(name, func(t *testing.T) {
			e := build(t, tt.kind, tt.aligned, kmer.Nucleotide, 4, refs)
			idx := e.Index()
			for _, w := range []string{"acgt", "ggtc", "gtca"} {
				if got := idx.Lookup(kmer.MustPack(kmer.Nucleotide, w)); got != nil {
					t.Errorf("%s from the skipped sequence is indexed: %v", w, got)
				}
			}
			if got := idx.Lookup(kmer.MustPack(kmer.Nucleotide, "tccc")); len(got) != 1 || got[0].SeqID != "good" {
				t.Errorf("tccc: unexpected placements %v", got)
			}
			st := e.Stats()
			// tttt tttc ttcc tccc cccc
			if st.Sequences != 1 || st.Skipped != 1 || st.Kmers != 5 {
				t.Errorf("unexpected stats %+v", st)
			}
			if tr := e.Trie(); tr != nil && tr.Sequences() != 1 {
				t.Errorf("trie counted %d sequences, want 1", tr.Sequences())
			}
		})
	}
}
