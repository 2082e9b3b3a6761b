package seqio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmer"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadAll(t *testing.T) {
	path := writeFile(t, "reads.fa", ">r1 first read\nacgtac\ngtac\n>r2\nTTTT\n")
	recs, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].ID != "r1" || string(recs[0].Seq) != "acgtacgtac" {
		t.Errorf("unexpected first record %+v", recs[0])
	}
	if recs[1].ID != "r2" || string(recs[1].Seq) != "TTTT" {
		t.Errorf("unexpected second record %+v", recs[1])
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.fa")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReverseComplement(t *testing.T) {
	got := ReverseComplement([]byte("AACGTN"))
	if string(got) != "NACGTT" {
		t.Errorf("got %q, want NACGTT", got)
	}
	in := []byte("acc")
	ReverseComplement(in)
	if string(in) != "acc" {
		t.Error("input must not be modified")
	}
}

func TestTranslate(t *testing.T) {
	got, err := Translate([]byte("atggcctaa"), 11)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("MA*")) {
		t.Errorf("got %q, want MA*", got)
	}
}

func TestTranslateUnknownTable(t *testing.T) {
	if _, err := Translate([]byte("atggcctaa"), 99); err == nil {
		t.Fatal("expected error for unknown translation table")
	}
}

func TestReverseComplementLowercaseAndGaps(t *testing.T) {
	got := ReverseComplement([]byte("aaRy-c"))
	if string(got) != "g-rYtt" {
		t.Errorf("got %q, want g-rYtt", got)
	}
}

func TestGuessAlphabetOf(t *testing.T) {
	if a := GuessAlphabetOf([]byte("ACGTTGCAACGTNACGT")); a != kmer.Nucleotide {
		t.Errorf("expected nucleotide, got %s", a)
	}
	if a := GuessAlphabetOf([]byte("MEEPQSDPSVEPPLSQETFSDLWKLL")); a != kmer.Protein {
		t.Errorf("expected protein, got %s", a)
	}
}

func TestGuessAlphabetFile(t *testing.T) {
	path := writeFile(t, "prot.fa", ">p1\nMEEPQSDPSVEPPLSQETFSDLWKLL\n")
	a, err := GuessAlphabet(path)
	if err != nil {
		t.Fatal(err)
	}
	if a != kmer.Protein {
		t.Errorf("expected protein, got %s", a)
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		arg   string
		label string
		path  string
	}{
		{"rplB=refs/rplB.fa", "rplB", "refs/rplB.fa"},
		{"refs/nifH.aligned.fasta", "nifH.aligned", "refs/nifH.aligned.fasta"},
		{"genes", "genes", "genes"},
	}
	for _, tt := range tests {
		got := ParseReference(tt.arg)
		if got.Label != tt.label || got.Path != tt.path {
			t.Errorf("ParseReference(%q) = %+v", tt.arg, got)
		}
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Write(Record{ID: "q1", Seq: []byte("acgt")}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != ">q1\nacgt\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

type failingFile struct {
	writeErr error
	closeErr error
	closes   int
}

func (f *failingFile) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return len(p), nil
}

func (f *failingFile) Close() error {
	f.closes++
	return f.closeErr
}

func TestWriterCloseReportsErrors(t *testing.T) {
	diskFull := errors.New("no space left on device")
	tests := []struct {
		name string
		file *failingFile
	}{
		{"flush fails", &failingFile{writeErr: diskFull}},
		{"close fails", &failingFile{closeErr: diskFull}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter(tt.file)
			if err := w.Write(Record{ID: "r1", Seq: []byte("acgt")}); err != nil {
				t.Fatal(err)
			}
			if err := w.Close(); !errors.Is(err, diskFull) {
				t.Fatalf("expected %v, got %v", diskFull, err)
			}
			if tt.file.closes != 1 {
				t.Errorf("underlying file closed %d times, want 1", tt.file.closes)
			}
			if err := w.Close(); err != nil {
				t.Errorf("second Close should be a no-op, got %v", err)
			}
			if tt.file.closes != 1 {
				t.Errorf("second Close reached the file")
			}
		})
	}
}
