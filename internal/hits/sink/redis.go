package sink

import (
	"context"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits"
)

// Appender is the part of redis.Client the sink needs.
type Appender interface {
	Append(ctx context.Context, stream string, maxLen int64, entries []map[string]any) error
}

// NewRedis appends every record to stream as one entry.
func NewRedis(a Appender, stream string, maxLen int64, opts Options) *Batcher {
	return newBatcher("redis", func(ctx context.Context, batch []hits.Record) error {
		entries := make([]map[string]any, len(batch))
		for i, r := range batch {
			entries[i] = StreamValues(r)
		}
		return a.Append(ctx, stream, maxLen, entries)
	}, opts)
}

// StreamValues is the field map of a record in the hit stream.
func StreamValues(r hits.Record) map[string]any {
	v := map[string]any{
		"gene":      r.GeneName,
		"query":     r.QueryID,
		"ref":       r.RefID,
		"nucl_kmer": r.NuclKmer,
		"is_prot":   strconv.FormatBool(r.IsProt),
		"frame":     strconv.Itoa(r.Frame),
		"model_pos": strconv.Itoa(r.ModelPos),
	}
	if r.IsProt {
		v["prot_kmer"] = r.ProtKmer
	}
	return v
}
