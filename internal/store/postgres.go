// Package store mirrors reviewer feedback and run-performance history into
// Postgres so a dashboard can query trends without replaying the JSON-lines
// files. It is optional: the pipeline and feedback collector work fully
// without it, and a store failure to connect is logged and skipped rather
// than treated as fatal.
package store

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rawblock/fraudring-engine/internal/feedback"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx.
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL for the fraud ring engine")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema loads and executes the schema.sql file.
func (s *PostgresStore) InitSchema() error {
	schemaBytes, err := os.ReadFile("internal/store/schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %v", err)
	}

	_, err = s.pool.Exec(context.Background(), string(schemaBytes))
	if err != nil {
		return fmt.Errorf("failed to execute schema migrations: %v", err)
	}

	log.Println("feedback/performance schema initialized")
	return nil
}

// SaveFeedback upserts one reviewer verdict, keyed on (account_id, timestamp).
func (s *PostgresStore) SaveFeedback(ctx context.Context, e feedback.Entry) error {
	sql := `
		INSERT INTO reviewer_feedback
		(account_id, predicted_score, predicted_flags, actual_fraud, fraud_type, notes, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (account_id, reviewed_at) DO UPDATE
		SET predicted_score = EXCLUDED.predicted_score,
		    predicted_flags = EXCLUDED.predicted_flags,
		    actual_fraud = EXCLUDED.actual_fraud,
		    fraud_type = EXCLUDED.fraud_type,
		    notes = EXCLUDED.notes;
	`
	_, err := s.pool.Exec(ctx, sql, e.AccountID, e.PredictedScore, e.PredictedFlags, e.ActualFraud, e.FraudType, e.Notes, e.Timestamp)
	return err
}

// SaveRunMetrics records one completed analysis run.
func (s *PostgresStore) SaveRunMetrics(ctx context.Context, m feedback.RunMetrics) error {
	sql := `
		INSERT INTO run_metrics
		(recorded_at, total_accounts, total_transactions, suspicious_accounts, fraud_rings, processing_time_seconds, fraud_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := s.pool.Exec(ctx, sql, m.Timestamp, m.TotalAccounts, m.TotalTransactions, m.SuspiciousAccounts, m.FraudRings, m.ProcessingTimeSeconds, m.FraudRate)
	return err
}

// SaveFraudRingBatch persists one analysis run's detected rings and their
// member accounts inside a single transaction, mirroring the teacher's
// batch-insert-inside-a-transaction shape for evidence edges.
func (s *PostgresStore) SaveFraudRingBatch(ctx context.Context, analysisID string, rings []RingRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insertRingSQL := `
		INSERT INTO fraud_rings (analysis_id, ring_id, total_flow, transaction_count, risk_score, cycle_length)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (analysis_id, ring_id) DO UPDATE
		SET total_flow = EXCLUDED.total_flow, risk_score = EXCLUDED.risk_score;
	`
	insertMemberSQL := `
		INSERT INTO fraud_ring_members (analysis_id, ring_id, account_id)
		VALUES ($1, $2, $3);
	`
	for _, r := range rings {
		if _, err := tx.Exec(ctx, insertRingSQL, analysisID, r.RingID, r.TotalFlow, r.TransactionCount, r.RiskScore, r.CycleLength); err != nil {
			return fmt.Errorf("failed to insert fraud_rings: %v", err)
		}
		for _, member := range r.Members {
			if _, err := tx.Exec(ctx, insertMemberSQL, analysisID, r.RingID, member); err != nil {
				return fmt.Errorf("failed to insert fraud_ring_members: %v", err)
			}
		}
	}

	return tx.Commit(ctx)
}

// RingRecord is the persisted shape of a detected fraud ring, independent of
// the assembler's wire-facing FraudRing so a storage-layer rename never
// touches the HTTP response shape.
type RingRecord struct {
	RingID           string
	Members          []string
	TotalFlow        float64
	TransactionCount int
	RiskScore        float64
	CycleLength      int
}

// GetRecentMetrics pages through recorded run_metrics rows, newest first.
func (s *PostgresStore) GetRecentMetrics(ctx context.Context, limit int) ([]feedback.RunMetrics, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	sql := `
		SELECT recorded_at, total_accounts, total_transactions, suspicious_accounts, fraud_rings, processing_time_seconds, fraud_rate
		FROM run_metrics
		ORDER BY recorded_at DESC
		LIMIT $1;
	`
	rows, err := s.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []feedback.RunMetrics
	for rows.Next() {
		var m feedback.RunMetrics
		if err := rows.Scan(&m.Timestamp, &m.TotalAccounts, &m.TotalTransactions, &m.SuspiciousAccounts, &m.FraudRings, &m.ProcessingTimeSeconds, &m.FraudRate); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if out == nil {
		out = []feedback.RunMetrics{}
	}
	return out, nil
}

// GetPool exposes the connection pool for callers that need a raw query.
func (s *PostgresStore) GetPool() *pgxpool.Pool {
	return s.pool
}
