package hits

import (
	"context"
	"errors"
)

// Sink receives the records of one query at a time.
type Sink interface {
	WriteHits(ctx context.Context, recs []Record) error
	Close() error
}

// MultiSink fans records out to every sink in order. Every sink sees the
// batch even when an earlier one fails.
type MultiSink []Sink

func (m MultiSink) WriteHits(ctx context.Context, recs []Record) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteHits(ctx, recs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes sinks in reverse order.
func (m MultiSink) Close() error {
	var errs []error
	for i := len(m) - 1; i >= 0; i-- {
		if err := m[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
