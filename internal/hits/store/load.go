package store

import (
	"context"
	"io"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits"
)

// Load reads a hit file and saves it in batches of batchSize. It returns the
// number of records saved; a malformed line stops the load after the batches
// before it were saved.
func Load(ctx context.Context, r io.Reader, s Saver, batchSize int) (int, error) {
	if batchSize < 1 {
		batchSize = 1
	}
	saved := 0
	batch := make([]hits.Record, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.Save(ctx, batch); err != nil {
			return err
		}
		saved += len(batch)
		batch = make([]hits.Record, 0, batchSize)
		return nil
	}
	for rec, err := range hits.NewReader(r).All() {
		if err != nil {
			if ferr := flush(); ferr != nil {
				return saved, ferr
			}
			return saved, err
		}
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		batch = append(batch, rec)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return saved, err
			}
		}
	}
	return saved, flush()
}
