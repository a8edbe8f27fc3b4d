package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"assessment-engine/internal/domain"
	"assessment-engine/internal/infra/memory"
)

// RoundRepository caches round bundles in Redis as JSON blobs and falls
// back to a loader on cache miss:
//
//	SET round:{roundID}:bundle {json} EX ttl
//
// Correct answers and hidden-case contents stay server-side; the cache is
// never exposed to clients directly.
type RoundRepository struct {
	client *redis.Client
	loader memory.RoundLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewRoundRepository(client *redis.Client, loader memory.RoundLoader, ttl time.Duration) *RoundRepository {
	return &RoundRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *RoundRepository) GetRound(ctx context.Context, roundID string) (domain.RoundBundle, error) {
	key := r.bundleKey(roundID)

	if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var bundle domain.RoundBundle
		if err := json.Unmarshal(raw, &bundle); err == nil {
			return bundle, nil
		}
		// Corrupt cache entries fall through to a reload.
		_ = r.client.Del(ctx, key).Err()
	}

	result, err, _ := r.sf.Do(roundID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
			var bundle domain.RoundBundle
			if err := json.Unmarshal(raw, &bundle); err == nil {
				return bundle, nil
			}
		}

		bundle, err := r.loader.LoadRound(ctx, roundID)
		if err != nil {
			return domain.RoundBundle{}, err
		}

		if raw, err := json.Marshal(bundle); err == nil {
			_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		}
		return bundle, nil
	})
	if err != nil {
		return domain.RoundBundle{}, err
	}
	return result.(domain.RoundBundle), nil
}

func (r *RoundRepository) bundleKey(roundID string) string {
	return "round:" + roundID + ":bundle"
}

func (r *RoundRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
