package memory

import (
	"context"
	"sync"

	"assessment-engine/internal/domain"
)

// ResultStore keeps finalized results in memory. Results are immutable:
// the first write for a (participant, round) pair wins.
type ResultStore struct {
	mu      sync.RWMutex
	results map[attemptKey]domain.Result
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[attemptKey]domain.Result)}
}

func (s *ResultStore) Save(_ context.Context, res domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attemptKey{res.ParticipantID, res.RoundID}
	if _, ok := s.results[key]; ok {
		return nil
	}
	s.results[key] = res
	return nil
}

func (s *ResultStore) Get(_ context.Context, participantID, roundID string) (domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[attemptKey{participantID, roundID}]
	if !ok {
		return domain.Result{}, domain.ErrResultNotFound
	}
	return res, nil
}
