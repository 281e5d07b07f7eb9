package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
)

const schemaLockKey = int64(2026101601)

// RecordRepository archives extraction records. The full record is kept as
// JSONB next to a few columns used for filtering.
type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across worker replicas.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS extraction_records (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	predicted_topic TEXT NOT NULL DEFAULT '',
	rule_keywords JSONB NOT NULL DEFAULT '[]'::jsonb,
	ml_keywords JSONB NOT NULL DEFAULT '[]'::jsonb,
	failed_stages JSONB NOT NULL DEFAULT '[]'::jsonb,
	record JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_extraction_records_topic ON extraction_records(predicted_topic);
CREATE INDEX IF NOT EXISTS idx_extraction_records_created_at ON extraction_records(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Save is idempotent on record id so redelivered events are harmless.
func (r *RecordRepository) Save(ctx context.Context, record domain.ExtractionRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	ruleJSON, err := json.Marshal(record.RuleKeywords())
	if err != nil {
		return fmt.Errorf("marshal rule keywords: %w", err)
	}
	mlJSON, err := json.Marshal(record.MLKeywords())
	if err != nil {
		return fmt.Errorf("marshal ml keywords: %w", err)
	}
	failedJSON, err := json.Marshal(record.FailedStages())
	if err != nil {
		return fmt.Errorf("marshal failed stages: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO extraction_records (
	id, text, summary, predicted_topic, rule_keywords, ml_keywords, failed_stages, record, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO NOTHING
`,
		record.ID, record.Text, record.Summary.Summary, record.PredictedTopic(),
		ruleJSON, mlJSON, failedJSON, recordJSON, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert extraction record: %w", err)
	}
	return nil
}

func (r *RecordRepository) GetByID(ctx context.Context, id string) (*domain.ExtractionRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT record
FROM extraction_records
WHERE id = $1
`, id)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get extraction record", fmt.Errorf("record %s", id))
		}
		return nil, fmt.Errorf("scan extraction record: %w", err)
	}

	var record domain.ExtractionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("unmarshal extraction record: %w", err)
	}
	return &record, nil
}
