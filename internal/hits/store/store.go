// Package store persists hit records in PostgreSQL. The hit collector feeds
// it from the Kafka hit topic.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/postgres"
)

// Schema creates the hit table. Safe to apply repeatedly.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS kmer_hits (
		id           BIGSERIAL PRIMARY KEY,
		gene_name    TEXT        NOT NULL,
		query_id     TEXT        NOT NULL,
		ref_id       TEXT        NOT NULL,
		nucl_kmer    TEXT        NOT NULL,
		is_prot      BOOLEAN     NOT NULL,
		frame        SMALLINT    NOT NULL,
		prot_kmer    TEXT,
		model_pos    INTEGER     NOT NULL,
		collected_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS kmer_hits_query_idx ON kmer_hits (query_id)`,
	`CREATE INDEX IF NOT EXISTS kmer_hits_gene_idx ON kmer_hits (gene_name, model_pos)`,
}

type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "hit-store"),
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.db.Migrate(ctx, Schema...)
}

// Save inserts recs in one transaction.
func (s *Store) Save(ctx context.Context, recs []hits.Record) error {
	if len(recs) == 0 {
		return nil
	}
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO kmer_hits
				(gene_name, query_id, ref_id, nucl_kmer, is_prot, frame, prot_kmer, model_pos)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
		if err != nil {
			return fmt.Errorf("preparing hit insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range recs {
			var prot sql.NullString
			if r.IsProt {
				prot = sql.NullString{String: r.ProtKmer, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx,
				r.GeneName, r.QueryID, r.RefID, r.NuclKmer, r.IsProt, r.Frame, prot, r.ModelPos,
			); err != nil {
				return fmt.Errorf("inserting hit for %s: %w", r.QueryID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("hits saved", "count", len(recs))
	return nil
}

// ByQuery returns the stored hits of one query in insertion order.
func (s *Store) ByQuery(ctx context.Context, queryID string) ([]hits.Record, error) {
	rows, err := s.db.DB.QueryContext(ctx, `
		SELECT gene_name, query_id, ref_id, nucl_kmer, is_prot, frame, prot_kmer, model_pos
		FROM kmer_hits WHERE query_id = $1 ORDER BY id`, queryID)
	if err != nil {
		return nil, fmt.Errorf("querying hits for %s: %w", queryID, err)
	}
	defer rows.Close()

	var out []hits.Record
	for rows.Next() {
		var r hits.Record
		var prot sql.NullString
		if err := rows.Scan(&r.GeneName, &r.QueryID, &r.RefID, &r.NuclKmer,
			&r.IsProt, &r.Frame, &prot, &r.ModelPos); err != nil {
			return nil, fmt.Errorf("scanning hit row: %w", err)
		}
		r.ProtKmer = prot.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// GeneCounts returns the number of stored hits per gene.
func (s *Store) GeneCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT gene_name, COUNT(*) FROM kmer_hits GROUP BY gene_name`)
	if err != nil {
		return nil, fmt.Errorf("counting hits: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int64)
	for rows.Next() {
		var gene string
		var n int64
		if err := rows.Scan(&gene, &n); err != nil {
			return nil, fmt.Errorf("scanning count row: %w", err)
		}
		counts[gene] = n
	}
	return counts, rows.Err()
}
