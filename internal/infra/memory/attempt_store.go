package memory

import (
	"sync"

	"assessment-engine/internal/app"
	"assessment-engine/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
// Sessions are keyed by (participant, round); the store enforces the
// one-attempt-per-pair rule.
type AttemptStore struct {
	mu       sync.RWMutex
	sessions map[attemptKey]*app.Session
}

type attemptKey struct {
	participantID string
	roundID       string
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		sessions: make(map[attemptKey]*app.Session),
	}
}

func (s *AttemptStore) Get(participantID, roundID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[attemptKey{participantID, roundID}]
	return session, ok
}

func (s *AttemptStore) Create(session *app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attemptKey{session.ParticipantID(), session.RoundID()}
	if existing, ok := s.sessions[key]; ok {
		if existing.Status() == domain.AttemptInProgress {
			return domain.ErrAttemptAlreadyInProgress
		}
		return domain.ErrAttemptAlreadyCompleted
	}
	s.sessions[key] = session
	return nil
}

func (s *AttemptStore) InProgress() []*app.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		if session.Status() == domain.AttemptInProgress {
			out = append(out, session)
		}
	}
	return out
}
