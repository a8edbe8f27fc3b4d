package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"assessment-engine/internal/domain"
)

// RoundLoader fetches round bundles from a backing store (the external
// round-authoring system).
type RoundLoader interface {
	LoadRound(ctx context.Context, roundID string) (domain.RoundBundle, error)
}

// RoundRepository caches round bundles with TTL to avoid repeated catalog
// hits while attempts are running.
type RoundRepository struct {
	loader RoundLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedRound
}

type cachedRound struct {
	bundle    domain.RoundBundle
	expiresAt time.Time
}

func NewRoundRepository(loader RoundLoader, ttl time.Duration) *RoundRepository {
	return &RoundRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedRound),
	}
}

func (r *RoundRepository) GetRound(ctx context.Context, roundID string) (domain.RoundBundle, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[roundID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.bundle, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(roundID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[roundID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.bundle, nil
		}
		r.mu.RUnlock()

		bundle, err := r.loader.LoadRound(ctx, roundID)
		if err != nil {
			return domain.RoundBundle{}, err
		}

		r.mu.Lock()
		r.cache[roundID] = cachedRound{
			bundle:    bundle,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return bundle, nil
	})
	if err != nil {
		return domain.RoundBundle{}, err
	}
	return result.(domain.RoundBundle), nil
}

func (r *RoundRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticRoundLoader serves rounds from an in-memory map, for tests and
// local development.
type StaticRoundLoader struct {
	rounds map[string]domain.RoundBundle
}

func NewStaticRoundLoader(rounds map[string]domain.RoundBundle) *StaticRoundLoader {
	return &StaticRoundLoader{rounds: rounds}
}

func (l *StaticRoundLoader) LoadRound(_ context.Context, roundID string) (domain.RoundBundle, error) {
	if bundle, ok := l.rounds[roundID]; ok {
		return bundle, nil
	}
	return domain.RoundBundle{}, domain.ErrRoundNotFound
}
