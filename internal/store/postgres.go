package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/agriscan/agriscan-api/internal/model"
)

// Postgres is a Store backed by a predictions table. The ranked prediction
// list is stored as JSONB; confidence is kept at full precision.
type Postgres struct{ DB *sql.DB }

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{DB: db} }

// EnsureSchema creates the predictions table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	const q = `
create table if not exists predictions (
  prediction_id     text primary key,
  filename          text not null,
  ts                timestamptz not null,
  predicted_disease text not null,
  confidence        double precision not null,
  all_predictions   jsonb not null,
  model_version     text not null default ''
)`
	if _, err := p.DB.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("%w: ensure schema: %v", ErrUnavailable, err)
	}
	return nil
}

// Insert appends one record. The identifier is generated here so a caller
// never has to coordinate; the write is a single statement with no
// read-modify-write step.
func (p *Postgres) Insert(ctx context.Context, rec model.PredictionRecord) (string, error) {
	id := uuid.NewString()

	ranked, err := json.Marshal(rec.AllPredictions)
	if err != nil {
		return "", fmt.Errorf("marshal ranked predictions: %w", err)
	}

	const q = `
insert into predictions (prediction_id, filename, ts, predicted_disease, confidence, all_predictions, model_version)
values ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := p.DB.ExecContext(ctx, q,
		id, rec.Filename, rec.Timestamp, rec.PredictedDisease, rec.Confidence, ranked, rec.ModelVersion,
	); err != nil {
		return "", fmt.Errorf("%w: insert: %v", ErrUnavailable, err)
	}
	return id, nil
}

// History fetches a newest-first page and, separately, the total count.
// The two reads are independent; under concurrent inserts the total may
// not match the page. That tradeoff is deliberate.
func (p *Postgres) History(ctx context.Context, limit, skip int) ([]model.PredictionRecord, int64, error) {
	const q = `
select prediction_id, filename, ts, predicted_disease, confidence, all_predictions, model_version
from predictions
order by ts desc
offset $1 limit $2`
	rows, err := p.DB.QueryContext(ctx, q, skip, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: query: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	records := []model.PredictionRecord{}
	for rows.Next() {
		var rec model.PredictionRecord
		var ranked []byte
		if err := rows.Scan(&rec.PredictionID, &rec.Filename, &rec.Timestamp,
			&rec.PredictedDisease, &rec.Confidence, &ranked, &rec.ModelVersion); err != nil {
			return nil, 0, fmt.Errorf("%w: scan: %v", ErrUnavailable, err)
		}
		if err := json.Unmarshal(ranked, &rec.AllPredictions); err != nil {
			return nil, 0, fmt.Errorf("unmarshal ranked predictions: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: rows: %v", ErrUnavailable, err)
	}

	var total int64
	if err := p.DB.QueryRowContext(ctx, `select count(*) from predictions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: count: %v", ErrUnavailable, err)
	}

	return records, total, nil
}
