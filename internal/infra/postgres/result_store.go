package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"assessment-engine/internal/domain"
)

// ResultStore persists finalized results as JSONB rows. ON CONFLICT DO
// NOTHING enforces the create-exactly-once rule at the storage layer.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) Save(ctx context.Context, res domain.Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO results (participant_id, round_id, data)
		 VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (participant_id, round_id) DO NOTHING`,
		res.ParticipantID, res.RoundID, string(raw))
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *ResultStore) Get(ctx context.Context, participantID, roundID string) (domain.Result, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM results WHERE participant_id=$1 AND round_id=$2`,
		participantID, roundID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Result{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("load result: %w", err)
	}
	var res domain.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return domain.Result{}, fmt.Errorf("unmarshal result: %w", err)
	}
	return res, nil
}
