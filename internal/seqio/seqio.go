// Package seqio adapts shenwei356/bio for the k-mer tools: it streams
// FASTA/FASTQ records (plain or gzipped), reverse-complements and translates
// nucleotide text, and guesses the alphabet of a sequence file.
package seqio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

func init() {
	// aligned references carry '.', '-' and mixed case
	seq.ValidateSeq = false
}

// Record is one sequence. Both fields are owned by the caller.
type Record struct {
	ID  string
	Seq []byte
}

// Reader streams records from a sequence file. "-" reads stdin.
type Reader struct {
	path string
	r    *fastx.Reader
}

func Open(path string) (*Reader, error) {
	r, err := fastx.NewReader(nil, path, "")
	if err != nil {
		return nil, fmt.Errorf("opening sequence file %s: %w", path, err)
	}
	return &Reader{path: path, r: r}, nil
}

// Next returns the next record or io.EOF.
func (r *Reader) Next() (Record, error) {
	rec, err := r.r.Read()
	if err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("reading %s: %w", r.path, err)
	}
	// the fastx reader reuses its buffers
	return Record{
		ID:  string(rec.ID),
		Seq: append([]byte(nil), rec.Seq.Seq...),
	}, nil
}

// All yields records until EOF. A read error is yielded once and ends the
// sequence.
func (r *Reader) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			rec, err := r.Next()
			if err == io.EOF {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

func (r *Reader) Close() error {
	r.r.Close()
	return nil
}

// Records yields in-memory records in order.
func Records(recs []Record) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, rec := range recs {
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// ReadAll loads every record of path.
func ReadAll(path string) ([]Record, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var out []Record
	for rec, err := range r.All() {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReverseComplement returns the reverse complement of nucleotide text.
// IUPAC codes and case are preserved.
func ReverseComplement(s []byte) []byte {
	// the unvalidated constructor only fails on a quality length mismatch
	sq, _ := seq.NewSeqWithoutValidation(seq.DNAredundant, s)
	return sq.RevCom().Seq
}

// Translate translates nucleotide text in its first frame with the given
// NCBI translation table. Codons with ambiguous bases become X.
func Translate(nucl []byte, table int) ([]byte, error) {
	s, err := seq.NewSeqWithoutValidation(seq.DNAredundant, bytes.ToUpper(nucl))
	if err != nil {
		return nil, fmt.Errorf("translating: %w", err)
	}
	p, err := s.Translate(table, 1, false, false, true, false)
	if err != nil {
		return nil, fmt.Errorf("translating with table %d: %w", table, err)
	}
	return p.Seq, nil
}

// GuessAlphabet inspects the first record of path.
func GuessAlphabet(path string) (*kmer.Alphabet, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	rec, err := r.Next()
	if err == io.EOF {
		return nil, apperrors.Newf(apperrors.ErrIncompatibleAlphabet, apperrors.ExitInput,
			"%s contains no sequences", path)
	}
	if err != nil {
		return nil, err
	}
	return GuessAlphabetOf(rec.Seq), nil
}

// GuessAlphabetOf classifies sequence text as nucleotide or protein.
func GuessAlphabetOf(s []byte) *kmer.Alphabet {
	switch seq.GuessAlphabet(s) {
	case seq.DNA, seq.DNAredundant, seq.RNA, seq.RNAredundant:
		return kmer.Nucleotide
	default:
		return kmer.Protein
	}
}

// Reference is a labelled reference file.
type Reference struct {
	Label string
	Path  string
}

// ParseReference reads "label=path" or a bare path, in which case the label
// is the file name without its last extension.
func ParseReference(arg string) Reference {
	if label, path, ok := strings.Cut(arg, "="); ok {
		return Reference{Label: label, Path: path}
	}
	name := filepath.Base(arg)
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return Reference{Label: name, Path: arg}
}

// Writer writes FASTA records. It is safe for concurrent use; each record is
// written whole.
type Writer struct {
	mu     sync.Mutex
	w      *bufio.Writer
	c      io.Closer
	closed bool
}

func NewWriter(w io.Writer) *Writer {
	sw := &Writer{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok && w != os.Stdout {
		sw.c = c
	}
	return sw
}

func (w *Writer) Write(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintf(w.w, ">%s\n%s\n", rec.ID, rec.Seq); err != nil {
		return fmt.Errorf("writing record %s: %w", rec.ID, err)
	}
	return nil
}

// Close flushes and closes the underlying writer. Calls after the first
// return nil.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.w.Flush()
	if w.c != nil {
		if cerr := w.c.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("closing sequence output: %w", err)
	}
	return nil
}
