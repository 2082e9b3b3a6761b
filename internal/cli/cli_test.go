package cli

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmer"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
)

func writeFasta(t *testing.T, name, seq string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(">s1\n"+seq+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const (
	nuclSeq = "ACGTTGCAACGTACGTTGCAACGTAACGTTGCA"
	protSeq = "MEEPQSDPSVEPPLSQETFSDLWKLLPENNVLSPLPSQAMDDLMLSPDDIEQWFTEDPGP"
)

func TestLoadConfigOverrides(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse([]string{"-metrics", "9191", "-log-level", "debug"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Port != 9191 {
		t.Errorf("metrics override not applied: %+v", cfg.Metrics)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %q", cfg.Logging.Level)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(&Flags{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")})
	if !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if apperrors.ExitCode(err) != apperrors.ExitUsage {
		t.Errorf("expected usage exit code, got %d", apperrors.ExitCode(err))
	}
}

func TestIndexConfig(t *testing.T) {
	nucl := writeFasta(t, "nucl.fa", nuclSeq)
	prot := writeFasta(t, "prot.fa", protSeq)

	tests := []struct {
		name     string
		alphabet string
		wordSize int
		ref      string
		wantK    int
		wantA    *kmer.Alphabet
		wantErr  error
	}{
		{"nucleotide keeps word size", "", 30, nucl, 30, kmer.Nucleotide, nil},
		{"protein divides by three", "", 45, "rplB=" + prot, 15, kmer.Protein, nil},
		{"protein not a multiple of three", "", 44, prot, 0, nil, apperrors.ErrInvalidConfig},
		{"configured alphabet wins", "protein", 30, nucl, 10, kmer.Protein, nil},
		{"unknown alphabet", "rna-ish", 30, nucl, 0, nil, apperrors.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := config.Load("")
			cfg.Kmer.Alphabet = tt.alphabet
			ic, err := IndexConfig(cfg, tt.wordSize, []string{tt.ref})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if ic.K != tt.wantK || ic.Alphabet != tt.wantA {
				t.Errorf("got k=%d alphabet=%v, want k=%d alphabet=%v", ic.K, ic.Alphabet, tt.wantK, tt.wantA)
			}
		})
	}
}

func TestReferenceAlphabetNoRefs(t *testing.T) {
	cfg, _ := config.Load("")
	if _, err := ReferenceAlphabet(cfg, nil); !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRequireNucleotide(t *testing.T) {
	if err := RequireNucleotide(writeFasta(t, "q.fa", nuclSeq)); err != nil {
		t.Errorf("nucleotide queries rejected: %v", err)
	}
	err := RequireNucleotide(writeFasta(t, "p.fa", protSeq))
	if !errors.Is(err, apperrors.ErrIncompatibleAlphabet) {
		t.Errorf("expected ErrIncompatibleAlphabet, got %v", err)
	}
}

func TestCreate(t *testing.T) {
	for _, p := range []string{"", "-"} {
		w, err := Create(p)
		if err != nil || w != os.Stdout {
			t.Errorf("Create(%q) should return stdout, got %v, %v", p, w, err)
		}
	}
	path := filepath.Join(t.TempDir(), "out.tsv")
	w, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(path); string(data) != "x" {
		t.Errorf("unexpected file content %q", data)
	}
}
