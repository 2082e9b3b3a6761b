package sink

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/kafka"
)

// Publisher is the part of kafka.Producer the sink needs.
type Publisher interface {
	Publish(ctx context.Context, events ...kafka.Event) error
}

// NewKafka publishes every record as one JSON message keyed by query id.
func NewKafka(p Publisher, opts Options) *Batcher {
	return newBatcher("kafka", func(ctx context.Context, batch []hits.Record) error {
		events := make([]kafka.Event, len(batch))
		for i, r := range batch {
			events[i] = kafka.Event{Key: r.QueryID, Value: r}
		}
		return p.Publish(ctx, events...)
	}, opts)
}
