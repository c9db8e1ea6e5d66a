// Package archive keeps a durable record of completed reviews in Postgres,
// so the history endpoint survives restarts and data-dir wipes.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Archive is the review history store. It is optional: the backend runs
// without it when no database URL is configured.
type Archive struct {
	pool *pgxpool.Pool
}

// Record is one archived review.
type Record struct {
	MatchID   string    `json:"matchId"`
	PUUID     string    `json:"puuid"`
	Champion  string    `json:"champion"`
	Win       bool      `json:"win"`
	KDA       string    `json:"kda"`
	Summary   string    `json:"summary"`
	AudioPath string    `json:"audioPath"`
	CreatedAt time.Time `json:"createdAt"`
}

// New connects to the database and creates the schema if needed.
func New(ctx context.Context, databaseURL string) (*Archive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	a := &Archive{pool: pool}
	if err := a.createSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return a, nil
}

// Close closes the connection pool.
func (a *Archive) Close() {
	a.pool.Close()
}

func (a *Archive) createSchema(ctx context.Context) error {
	_, err := a.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS analyses (
			id BIGSERIAL PRIMARY KEY,
			match_id TEXT NOT NULL,
			puuid TEXT NOT NULL,
			champion TEXT NOT NULL,
			win BOOLEAN NOT NULL,
			kda TEXT NOT NULL,
			summary TEXT NOT NULL,
			audio_path TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (match_id, puuid)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Insert records a completed review. Re-analyzing the same match for the
// same player replaces the previous record.
func (a *Archive) Insert(ctx context.Context, r *Record) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO analyses (match_id, puuid, champion, win, kda, summary, audio_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (match_id, puuid) DO UPDATE SET
			champion = EXCLUDED.champion,
			win = EXCLUDED.win,
			kda = EXCLUDED.kda,
			summary = EXCLUDED.summary,
			audio_path = EXCLUDED.audio_path,
			created_at = now()
	`, r.MatchID, r.PUUID, r.Champion, r.Win, r.KDA, r.Summary, r.AudioPath)
	return err
}

// Recent returns the latest archived reviews, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT match_id, puuid, champion, win, kda, summary, audio_path, created_at
		FROM analyses
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.MatchID, &r.PUUID, &r.Champion, &r.Win, &r.KDA,
			&r.Summary, &r.AudioPath, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
