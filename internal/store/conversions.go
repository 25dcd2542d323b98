package store

import (
	"context"
	"fmt"
	"strings"
)

// ConversionRecord is one converted chat as persisted to the ledger.
type ConversionRecord struct {
	ID         string
	SourceFile string
	Title      string
	Seed       string
	Models     []string
	Status     string
	Detail     string
}

// RecordConversion upserts a conversion result keyed by chat id, so re-runs
// over the same export refresh the status instead of duplicating rows.
func (s *Store) RecordConversion(ctx context.Context, rec ConversionRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversions (id, source_file, title, seed, models, status, detail, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (id)
		DO UPDATE SET
			source_file = $2,
			title = $3,
			seed = $4,
			models = $5,
			status = $6,
			detail = $7,
			updated_at = now()`,
		rec.ID, rec.SourceFile, rec.Title, rec.Seed, strings.Join(rec.Models, " "), rec.Status, rec.Detail,
	)
	if err != nil {
		return fmt.Errorf("record conversion: %w", err)
	}
	return nil
}

// ListConversions returns the most recent conversion records, newest first.
func (s *Store) ListConversions(ctx context.Context, limit int) ([]ConversionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, source_file, title, seed, models, status, detail
		FROM conversions
		ORDER BY updated_at DESC
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	defer rows.Close()

	var out []ConversionRecord
	for rows.Next() {
		var rec ConversionRecord
		var models string
		if err := rows.Scan(&rec.ID, &rec.SourceFile, &rec.Title, &rec.Seed, &models, &rec.Status, &rec.Detail); err != nil {
			return nil, fmt.Errorf("scan conversion row: %w", err)
		}
		if models != "" {
			rec.Models = strings.Split(models, " ")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversion rows: %w", err)
	}
	return out, nil
}
