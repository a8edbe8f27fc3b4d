package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"assessment-engine/internal/app"
	"assessment-engine/internal/domain"
)

// ResultStore caches finalized results in Redis in front of a durable
// inner store. Results are immutable, so cached copies never go stale:
//
//	SET round:{roundID}:result:{participantID} {json} EX ttl
type ResultStore struct {
	client *redis.Client
	inner  app.ResultStore
	ttl    time.Duration
}

func NewResultStore(client *redis.Client, inner app.ResultStore, ttl time.Duration) *ResultStore {
	return &ResultStore{client: client, inner: inner, ttl: ttl}
}

func (s *ResultStore) Save(ctx context.Context, res domain.Result) error {
	if err := s.inner.Save(ctx, res); err != nil {
		return err
	}
	// best-effort cache fill
	if raw, err := json.Marshal(res); err == nil {
		_ = s.client.Set(ctx, s.key(res.ParticipantID, res.RoundID), raw, s.ttl).Err()
	}
	return nil
}

func (s *ResultStore) Get(ctx context.Context, participantID, roundID string) (domain.Result, error) {
	key := s.key(participantID, roundID)
	if raw, err := s.client.Get(ctx, key).Bytes(); err == nil {
		var res domain.Result
		if err := json.Unmarshal(raw, &res); err == nil {
			return res, nil
		}
	}

	res, err := s.inner.Get(ctx, participantID, roundID)
	if err != nil {
		if errors.Is(err, domain.ErrResultNotFound) {
			return domain.Result{}, domain.ErrResultNotFound
		}
		return domain.Result{}, err
	}
	if raw, err := json.Marshal(res); err == nil {
		_ = s.client.Set(ctx, key, raw, s.ttl).Err()
	}
	return res, nil
}

func (s *ResultStore) key(participantID, roundID string) string {
	return "round:" + roundID + ":result:" + participantID
}
