package hits

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Writer is the TSV sink. All records of one WriteHits call are written
// under one lock so a query's lines are never interleaved with another's.
type Writer struct {
	mu      sync.Mutex
	w       *bufio.Writer
	c       io.Closer
	records int64
}

// NewWriter writes the header line immediately.
func NewWriter(w io.Writer) (*Writer, error) {
	hw := &Writer{w: bufio.NewWriterSize(w, 1<<16)}
	if c, ok := w.(io.Closer); ok && w != os.Stdout {
		hw.c = c
	}
	if _, err := hw.w.WriteString(Header + "\n"); err != nil {
		return nil, fmt.Errorf("writing hit header: %w", err)
	}
	return hw, nil
}

func (w *Writer) WriteHits(_ context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	var b strings.Builder
	for _, r := range recs {
		r.appendTo(&b)
		b.WriteByte('\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.WriteString(b.String()); err != nil {
		return fmt.Errorf("writing hits for %s: %w", recs[0].QueryID, err)
	}
	w.records += int64(len(recs))
	return nil
}

// Records returns the number of lines written after the header.
func (w *Writer) Records() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.records
}

func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flushing hits: %w", err)
	}
	if w.c != nil {
		return w.c.Close()
	}
	return nil
}
