package store

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/kafka"
)

// Saver is satisfied by *Store.
type Saver interface {
	Save(ctx context.Context, recs []hits.Record) error
}

// HandleMessage decodes one hit record per message and saves it. Undecodable
// messages are logged and acknowledged; save failures are returned so the
// message is not committed.
func HandleMessage(s Saver) kafka.MessageHandler {
	logger := slog.Default().With("component", "hit-collector")
	return func(ctx context.Context, key []byte, value []byte) error {
		rec, err := kafka.DecodeJSON[hits.Record](value)
		if err != nil {
			logger.Error("failed to decode hit", "key", string(key), "error", err)
			return nil
		}
		return s.Save(ctx, []hits.Record{rec})
	}
}
