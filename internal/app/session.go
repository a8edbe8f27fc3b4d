package app

import (
	"sync"
	"time"

	"assessment-engine/internal/domain"
	"assessment-engine/internal/scoring"
)

// Event types published to attempt subscribers.
const (
	EventAnswerRecorded   = "answer_recorded"
	EventSubmissionJudged = "submission_judged"
	EventFinalized        = "finalized"
)

// Event is a notification about one attempt's progress.
type Event struct {
	Type          string         `json:"type"`
	AttemptID     string         `json:"attemptId"`
	RoundID       string         `json:"roundId"`
	ItemID        string         `json:"itemId,omitempty"`
	RemainingSec  int            `json:"remainingSec"`
	SubmissionID  string         `json:"submissionId,omitempty"`
	Verdict       domain.Verdict `json:"verdict,omitempty"`
	Result        *domain.Result `json:"result,omitempty"`
}

// Session is one participant's timed pass through a round's drawn item
// set. The deadline is computed once at creation and never changes; the
// session mutex serializes all mutating operations, and judging runs
// happen outside it.
type Session struct {
	id            string
	participantID string
	cfg           domain.RoundConfig
	questions     []domain.AttemptQuestion
	problems      []domain.ProblemSpec
	startedAt     time.Time
	deadline      time.Time
	now           func() time.Time

	mu          sync.Mutex
	status      domain.AttemptStatus
	expired     bool
	answers     map[string]int
	submissions map[string][]domain.Submission
	result      *domain.Result
	subscribers map[chan Event]struct{}
}

// NewSession is exported for infrastructure layers that need to seed
// sessions.
func NewSession(id, participantID string, cfg domain.RoundConfig, questions []domain.AttemptQuestion, problems []domain.ProblemSpec) *Session {
	return newSession(id, participantID, cfg, questions, problems, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id, participantID string, cfg domain.RoundConfig, questions []domain.AttemptQuestion, problems []domain.ProblemSpec, now func() time.Time) *Session {
	return newSession(id, participantID, cfg, questions, problems, now)
}

func newSession(id, participantID string, cfg domain.RoundConfig, questions []domain.AttemptQuestion, problems []domain.ProblemSpec, now func() time.Time) *Session {
	start := now()
	return &Session{
		id:            id,
		participantID: participantID,
		cfg:           cfg,
		questions:     questions,
		problems:      problems,
		startedAt:     start,
		deadline:      start.Add(cfg.Duration()),
		now:           now,
		status:        domain.AttemptInProgress,
		answers:       make(map[string]int),
		submissions:   make(map[string][]domain.Submission),
		subscribers:   make(map[chan Event]struct{}),
	}
}

// ID returns the attempt id.
func (s *Session) ID() string { return s.id }

// ParticipantID returns the owning participant.
func (s *Session) ParticipantID() string { return s.participantID }

// RoundID returns the round this attempt belongs to.
func (s *Session) RoundID() string { return s.cfg.ID }

// Kind returns the round kind.
func (s *Session) Kind() domain.RoundKind { return s.cfg.Kind }

// Deadline returns the immutable attempt deadline.
func (s *Session) Deadline() time.Time { return s.deadline }

// Status returns the current lifecycle state.
func (s *Session) Status() domain.AttemptStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) deadlinePassed() bool {
	return !s.now().Before(s.deadline)
}

// guardMutableLocked rejects mutations on finished or expired attempts.
// Expiry and manual completion map to distinct errors so callers can tell
// "ran out of time" from "already finished".
func (s *Session) guardMutableLocked() error {
	if s.status == domain.AttemptCompleted {
		if s.expired {
			return domain.ErrAttemptExpired
		}
		return domain.ErrAttemptAlreadyCompleted
	}
	if s.deadlinePassed() {
		return domain.ErrAttemptExpired
	}
	return nil
}

// recordAnswer stores the selected option for a drawn question,
// overwriting any earlier choice. Last write wins, no history.
func (s *Session) recordAnswer(questionID string, optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardMutableLocked(); err != nil {
		return err
	}
	var question *domain.AttemptQuestion
	for i := range s.questions {
		if s.questions[i].QuestionID == questionID {
			question = &s.questions[i]
			break
		}
	}
	if question == nil {
		return domain.ErrItemNotInAttempt
	}
	if optionIndex < 0 || optionIndex >= len(question.Options) {
		return domain.ErrOptionOutOfRange
	}

	s.answers[questionID] = optionIndex
	s.broadcastLocked(Event{
		Type:   EventAnswerRecorded,
		ItemID: questionID,
	})
	return nil
}

// beginJudging validates that a judging call may start and returns the
// problem spec to judge against. The session lock is NOT held while the
// judging pipeline runs.
func (s *Session) beginJudging(problemID string) (domain.ProblemSpec, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardMutableLocked(); err != nil {
		return domain.ProblemSpec{}, time.Time{}, err
	}
	for _, p := range s.problems {
		if p.ID == problemID {
			return p, s.now(), nil
		}
	}
	return domain.ProblemSpec{}, time.Time{}, domain.ErrItemNotInAttempt
}

// appendSubmission records a judged submission. The attempt may have been
// finalized while the judge ran; in that case nothing is appended.
func (s *Session) appendSubmission(sub domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.AttemptCompleted {
		if s.expired {
			return domain.ErrAttemptExpired
		}
		return domain.ErrAttemptAlreadyCompleted
	}
	s.submissions[sub.ProblemID] = append(s.submissions[sub.ProblemID], sub)
	s.broadcastLocked(Event{
		Type:         EventSubmissionJudged,
		ItemID:       sub.ProblemID,
		SubmissionID: sub.ID,
		Verdict:      sub.Verdict,
	})
	return nil
}

// finalize moves the session to Completed and scores it. Idempotent: a
// second call returns the existing Result and reports created=false.
func (s *Session) finalize(expired bool) (domain.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.AttemptCompleted {
		return *s.result, false
	}

	var raw, max float64
	var breakdown []domain.ItemScore
	switch s.cfg.Kind {
	case domain.RoundCoding:
		raw, max, breakdown = scoring.Coding(s.problems, s.submissions)
	default:
		raw, max, breakdown = scoring.MCQ(s.questions, s.answers, s.cfg)
	}
	result := scoring.BuildResult(s.participantID, s.cfg, raw, max, breakdown, s.now(), expired)

	s.result = &result
	s.status = domain.AttemptCompleted
	s.expired = expired
	s.broadcastLocked(Event{Type: EventFinalized, Result: &result})
	return result, true
}

func (s *Session) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked(ev Event) {
	ev.AttemptID = s.id
	ev.RoundID = s.cfg.ID
	ev.RemainingSec = s.remainingSecLocked()
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest pending event so slow subscribers never
			// block the session lock.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func (s *Session) remainingSecLocked() int {
	if s.status == domain.AttemptCompleted {
		return 0
	}
	remaining := s.deadline.Sub(s.now())
	if remaining < 0 {
		return 0
	}
	return int(remaining / time.Second)
}
