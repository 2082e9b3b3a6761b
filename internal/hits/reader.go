package hits

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
)

// Reader parses hit files written by Writer. Blank lines and lines starting
// with '#' are skipped.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{sc: sc}
}

// Next returns the next record or io.EOF. A line with the wrong shape yields
// an error wrapping ErrMalformedRecord.
func (r *Reader) Next() (Record, error) {
	for r.sc.Scan() {
		r.line++
		line := r.sc.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return r.parse(line)
	}
	if err := r.sc.Err(); err != nil {
		return Record{}, fmt.Errorf("reading hits: %w", err)
	}
	return Record{}, io.EOF
}

// All yields records until EOF or the first error.
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

func (r *Reader) parse(line string) (Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != fieldCount {
		return Record{}, r.malformed("expected %d fields, found %d", fieldCount, len(fields))
	}
	rec := Record{
		GeneName: fields[0],
		QueryID:  fields[1],
		RefID:    fields[2],
		NuclKmer: fields[3],
	}
	isProt, err := strconv.ParseBool(fields[4])
	if err != nil {
		return Record{}, r.malformed("is prot? %q", fields[4])
	}
	rec.IsProt = isProt
	if isProt {
		if rec.Frame, err = strconv.Atoi(fields[5]); err != nil {
			return Record{}, r.malformed("starting_frame %q", fields[5])
		}
		rec.ProtKmer = fields[6]
	}
	if rec.ModelPos, err = strconv.Atoi(fields[7]); err != nil {
		return Record{}, r.malformed("model pos %q", fields[7])
	}
	return rec, nil
}

func (r *Reader) malformed(format string, args ...any) error {
	return apperrors.Newf(apperrors.ErrMalformedRecord, apperrors.ExitInput,
		"line %d: %s", r.line, fmt.Sprintf(format, args...))
}
