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

// RoundLoader loads round bundle JSONB from Postgres, as authored by the
// external round catalog.
type RoundLoader struct {
	pool *pgxpool.Pool
}

func NewRoundLoader(pool *pgxpool.Pool) *RoundLoader {
	return &RoundLoader{pool: pool}
}

func (l *RoundLoader) LoadRound(ctx context.Context, roundID string) (domain.RoundBundle, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM rounds WHERE id=$1`, roundID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RoundBundle{}, domain.ErrRoundNotFound
	}
	if err != nil {
		return domain.RoundBundle{}, fmt.Errorf("load round: %w", err)
	}
	var bundle domain.RoundBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return domain.RoundBundle{}, fmt.Errorf("unmarshal round: %w", err)
	}
	return bundle, nil
}
