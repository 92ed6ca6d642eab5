package repository

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/asclepius/internal/models"
	"github.com/jackc/pgx/v5"
)

const schemaQuery = `
	CREATE TABLE IF NOT EXISTS search_records (
		search_id     UUID PRIMARY KEY,
		origin_lat    DOUBLE PRECISION NOT NULL,
		origin_lng    DOUBLE PRECISION NOT NULL,
		radius_meters INTEGER NOT NULL,
		category      TEXT NOT NULL,
		outcome       TEXT NOT NULL,
		candidates    INTEGER NOT NULL,
		enriched      INTEGER NOT NULL,
		duration_ms   BIGINT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS search_drops (
		search_id    UUID NOT NULL REFERENCES search_records (search_id) ON DELETE CASCADE,
		candidate_id TEXT NOT NULL,
		reason       TEXT NOT NULL,
		error        TEXT NOT NULL
	);
`

const insertRecordQuery = `
	INSERT INTO search_records (
		search_id, origin_lat, origin_lng, radius_meters, category,
		outcome, candidates, enriched, duration_ms, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`

const insertDropQuery = `
	INSERT INTO search_drops (search_id, candidate_id, reason, error)
	VALUES ($1, $2, $3, $4);
`

// Migrate creates the telemetry tables if they do not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaQuery); err != nil {
		return fmt.Errorf("failed to create telemetry schema: %w", err)
	}

	return nil
}

// RecordSearch stores one search and the candidates it dropped in a single
// transaction.
func (r *Repository) RecordSearch(ctx context.Context, record models.SearchRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.Exec(ctx, insertRecordQuery,
		record.ID,
		record.Query.Origin.Latitude,
		record.Query.Origin.Longitude,
		record.Query.RadiusMeters,
		string(record.Query.Category),
		string(record.Outcome),
		record.Candidates,
		record.Enriched,
		record.Duration.Milliseconds(),
		record.CreatedAt,
	)
	if err != nil {
		r.rollback(ctx, tx)
		return fmt.Errorf("failed to insert search record: %w", err)
	}

	for _, drop := range record.Drops {
		if _, err = tx.Exec(ctx, insertDropQuery, record.ID, drop.CandidateID, string(drop.Reason), drop.Error); err != nil {
			r.rollback(ctx, tx)
			return fmt.Errorf("failed to insert dropped candidate: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit search record: %w", err)
	}

	r.log.DebugContext(ctx, "Search record stored",
		"search_id", record.ID, "outcome", record.Outcome, "drops", len(record.Drops))

	return nil
}

func (r *Repository) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil {
		r.log.ErrorContext(ctx, "Failed to roll back search record", "error", err)
	}
}
