// Package store persists coverage run summaries in PostgreSQL as JSONB so
// runs over the same contigs can be compared later.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/coverage"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/postgres"
)

var Schema = []string{
	`CREATE TABLE IF NOT EXISTS coverage_runs (
		run_id        TEXT PRIMARY KEY,
		k             INTEGER     NOT NULL,
		reads_scanned BIGINT      NOT NULL,
		reads_matched BIGINT      NOT NULL,
		data          JSONB       NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS coverage_runs_created_idx ON coverage_runs (created_at DESC)`,
}

// Store keeps one row per coverage run.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "coverage-store"),
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.db.Migrate(ctx, Schema...)
}

// Save writes sum, replacing any earlier summary with the same run id.
func (s *Store) Save(ctx context.Context, sum coverage.Summary) error {
	if sum.RunID == "" {
		return errors.New("coverage summary has no run id")
	}
	data, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("marshaling coverage summary: %w", err)
	}
	_, err = s.db.DB.ExecContext(ctx, `
		INSERT INTO coverage_runs (run_id, k, reads_scanned, reads_matched, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id) DO UPDATE SET
			k = EXCLUDED.k,
			reads_scanned = EXCLUDED.reads_scanned,
			reads_matched = EXCLUDED.reads_matched,
			data = EXCLUDED.data,
			created_at = EXCLUDED.created_at`,
		sum.RunID, sum.K, sum.ReadsScanned, sum.ReadsMatched, data, sum.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving coverage run %s: %w", sum.RunID, err)
	}
	s.logger.Info("coverage summary saved",
		"run_id", sum.RunID,
		"contigs", len(sum.Contigs),
		"reads_scanned", sum.ReadsScanned,
	)
	return nil
}

// Get loads one run. Returns nil, nil if it does not exist.
func (s *Store) Get(ctx context.Context, runID string) (*coverage.Summary, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM coverage_runs WHERE run_id = $1`, runID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying coverage run %s: %w", runID, err)
	}
	var sum coverage.Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return nil, fmt.Errorf("unmarshaling coverage run %s: %w", runID, err)
	}
	return &sum, nil
}

// List returns the last limit runs, newest first. Corrupt rows are skipped.
func (s *Store) List(ctx context.Context, limit int) ([]coverage.Summary, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT data FROM coverage_runs ORDER BY created_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing coverage runs: %w", err)
	}
	defer rows.Close()

	var out []coverage.Summary
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning coverage row: %w", err)
		}
		var sum coverage.Summary
		if err := json.Unmarshal(data, &sum); err != nil {
			s.logger.Warn("skipping corrupt coverage row", "error", err)
			continue
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
