// Package storage persists finished assessments to Postgres for later
// review. Persistence is optional: a Store built without a DSN accepts and
// discards every record.
package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagewarden/pagewarden/pkg/telemetry"
)

// Record is the flattened assessment row. It deliberately carries numbers
// and labels only, never raw page text.
type Record struct {
	ID            string    `json:"id"`
	Domain        string    `json:"domain"`
	Level         string    `json:"level"`
	Total         float64   `json:"total"`
	SignalCount   int       `json:"signal_count"`
	AIProbability float64   `json:"ai_probability"`
	DomainRisk    int       `json:"domain_risk"`
	JailbreakHits int       `json:"jailbreak_hits"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store wraps a pgx pool. A nil Store or nil pool is a valid no-op sink.
type Store struct {
	pool     *pgxpool.Pool
	counters *telemetry.Counters
}

// Open connects to Postgres and prepares the schema. An empty DSN returns a
// no-op store and no error.
func Open(ctx context.Context, dsn string, counters *telemetry.Counters) (*Store, error) {
	if dsn == "" {
		return &Store{counters: counters}, nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: connect: %w", err)
	}
	s := &Store{pool: pool, counters: counters}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	log.Println("[STARTUP] Assessment storage connected")
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS assessments (
	id             TEXT PRIMARY KEY,
	domain         TEXT NOT NULL,
	level          TEXT NOT NULL,
	total          DOUBLE PRECISION NOT NULL,
	signal_count   INTEGER NOT NULL,
	ai_probability DOUBLE PRECISION NOT NULL,
	domain_risk    INTEGER NOT NULL,
	jailbreak_hits INTEGER NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS assessments_domain_idx ON assessments (domain, created_at DESC);`

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("storage: schema: %w", err)
	}
	return nil
}

// Save writes one record. Disabled storage accepts silently.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if s == nil || s.pool == nil {
		return nil
	}

	const q = `
INSERT INTO assessments
	(id, domain, level, total, signal_count, ai_probability, domain_risk, jailbreak_hits, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, q,
		rec.ID, rec.Domain, rec.Level, rec.Total, rec.SignalCount,
		rec.AIProbability, rec.DomainRisk, rec.JailbreakHits, rec.CreatedAt)
	if err != nil {
		s.counters.StoreError()
		return fmt.Errorf("storage: save %s: %w", rec.ID, err)
	}
	return nil
}

// RecentByDomain returns up to limit assessments for a domain, newest first.
func (s *Store) RecentByDomain(ctx context.Context, domain string, limit int) ([]Record, error) {
	if s == nil || s.pool == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	const q = `
SELECT id, domain, level, total, signal_count, ai_probability, domain_risk, jailbreak_hits, created_at
FROM assessments WHERE domain = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := s.pool.Query(ctx, q, domain, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: query %s: %w", domain, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Domain, &r.Level, &r.Total, &r.SignalCount,
			&r.AIProbability, &r.DomainRisk, &r.JailbreakHits, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}
