// Package app contains the assessment engine use cases: starting timed
// attempts, recording answers, judging code, scoring, and gating rounds.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"assessment-engine/internal/domain"
	"assessment-engine/internal/draw"
	"assessment-engine/internal/judge"
)

// RoundRepository loads round bundles (config + pool) from the catalog.
type RoundRepository interface {
	GetRound(ctx context.Context, roundID string) (domain.RoundBundle, error)
}

// AttemptRepository stores live attempt sessions keyed by
// (participant, round). Create must reject a duplicate for the pair.
type AttemptRepository interface {
	Get(participantID, roundID string) (*Session, bool)
	Create(s *Session) error
	InProgress() []*Session
}

// ResultStore persists finalized results.
type ResultStore interface {
	Save(ctx context.Context, res domain.Result) error
	Get(ctx context.Context, participantID, roundID string) (domain.Result, error)
}

// JudgePipeline abstracts the judging capability (see internal/judge).
type JudgePipeline interface {
	Judge(ctx context.Context, problem domain.ProblemSpec, language, source string, scope judge.Scope) (domain.JudgeReport, error)
}

// Engine wires the randomizer, attempt sessions, judging pipeline,
// scoring, and the round unlock gate.
type Engine struct {
	rounds   RoundRepository
	attempts AttemptRepository
	results  ResultStore
	judge    JudgePipeline
	rng      *draw.Randomizer
	clock    func() time.Time
	onResult func(domain.Result)
	log      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock injects a deterministic clock, for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.clock = now }
}

// WithRandomizer injects a seeded randomizer, for tests.
func WithRandomizer(r *draw.Randomizer) EngineOption {
	return func(e *Engine) { e.rng = r }
}

// WithResultHook registers a callback fired once per created Result,
// e.g. to emit a notification.
func WithResultHook(fn func(domain.Result)) EngineOption {
	return func(e *Engine) { e.onResult = fn }
}

// WithLogger sets the engine logger.
func WithLogger(log *slog.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

func NewEngine(rounds RoundRepository, attempts AttemptRepository, results ResultStore, pipeline JudgePipeline, opts ...EngineOption) *Engine {
	e := &Engine{
		rounds:   rounds,
		attempts: attempts,
		results:  results,
		judge:    pipeline,
		rng:      draw.New(),
		clock:    time.Now,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartAttempt draws a fresh item set and opens an attempt session with
// deadline = now + round duration. One attempt per (participant, round):
// an in-progress attempt rejects the start, a finished one does too.
func (e *Engine) StartAttempt(ctx context.Context, participantID, roundID string) (AttemptView, error) {
	bundle, err := e.rounds.GetRound(ctx, roundID)
	if err != nil {
		return AttemptView{}, err
	}

	ok, err := e.canEnter(ctx, bundle.Config, participantID)
	if err != nil {
		return AttemptView{}, err
	}
	if !ok {
		return AttemptView{}, domain.ErrRoundLocked
	}

	if existing, found := e.attempts.Get(participantID, roundID); found {
		if existing.Status() == domain.AttemptInProgress && !existing.deadlinePassed() {
			return AttemptView{}, domain.ErrAttemptAlreadyInProgress
		}
		// An expired leftover gets finalized before the start is refused.
		if _, err := e.finalizeSession(ctx, existing, true); err != nil {
			return AttemptView{}, err
		}
		return AttemptView{}, domain.ErrAttemptAlreadyCompleted
	}

	cfg := bundle.Config
	var questions []domain.AttemptQuestion
	var problems []domain.ProblemSpec
	switch cfg.Kind {
	case domain.RoundCoding:
		problems, err = e.rng.Problems(bundle.Problems, cfg.ItemCount)
	default:
		questions, err = e.rng.Questions(bundle.Questions, cfg.ItemCount, draw.Flags{
			ShuffleQuestions: cfg.ShuffleQuestions,
			ShuffleOptions:   cfg.ShuffleOptions,
		})
	}
	if err != nil {
		return AttemptView{}, err
	}

	session := newSession(uuid.NewString(), participantID, cfg, questions, problems, e.clock)
	if err := e.attempts.Create(session); err != nil {
		return AttemptView{}, err
	}
	e.log.Info("attempt started",
		"attemptId", session.id, "participantId", participantID,
		"roundId", roundID, "deadline", session.deadline)
	return session.view(), nil
}

// GetAttempt returns the participant-safe snapshot of a live attempt,
// lazily finalizing it if the deadline already passed.
func (e *Engine) GetAttempt(ctx context.Context, participantID, roundID string) (AttemptView, error) {
	s, err := e.session(participantID, roundID)
	if err != nil {
		return AttemptView{}, err
	}
	if s.Status() == domain.AttemptInProgress && s.deadlinePassed() {
		if _, err := e.finalizeSession(ctx, s, true); err != nil {
			return AttemptView{}, err
		}
	}
	return s.view(), nil
}

// RecordAnswer stores an MCQ option choice, overwriting earlier choices
// for the same question.
func (e *Engine) RecordAnswer(ctx context.Context, participantID, roundID, questionID string, optionIndex int) error {
	s, err := e.session(participantID, roundID)
	if err != nil {
		return err
	}
	if s.Kind() != domain.RoundMCQ {
		return domain.ErrWrongRoundKind
	}

	if err := s.recordAnswer(questionID, optionIndex); err != nil {
		e.reapIfExpired(ctx, s, err)
		return err
	}
	return nil
}

// RunCode judges source against a problem's visible cases only. The
// outcome is transient feedback: nothing is persisted and hidden cases
// are not touched.
func (e *Engine) RunCode(ctx context.Context, participantID, roundID, problemID, language, source string) (RunFeedback, error) {
	s, err := e.session(participantID, roundID)
	if err != nil {
		return RunFeedback{}, err
	}
	if s.Kind() != domain.RoundCoding {
		return RunFeedback{}, domain.ErrWrongRoundKind
	}

	problem, _, err := s.beginJudging(problemID)
	if err != nil {
		e.reapIfExpired(ctx, s, err)
		return RunFeedback{}, err
	}

	report, err := e.judge.Judge(ctx, problem, language, source, judge.ScopeVisible)
	if err != nil {
		return RunFeedback{}, err
	}
	return RunFeedback{ProblemID: problemID, Cases: report.Cases, AllPassed: report.AllPassed}, nil
}

// SubmitCode judges source against all cases (visible + hidden) and
// appends a Submission. The session lock is released for the duration of
// the judging run; a failed run records nothing.
func (e *Engine) SubmitCode(ctx context.Context, participantID, roundID, problemID, language, source string) (SubmitReceipt, error) {
	s, err := e.session(participantID, roundID)
	if err != nil {
		return SubmitReceipt{}, err
	}
	if s.Kind() != domain.RoundCoding {
		return SubmitReceipt{}, domain.ErrWrongRoundKind
	}

	problem, acceptedAt, err := s.beginJudging(problemID)
	if err != nil {
		e.reapIfExpired(ctx, s, err)
		return SubmitReceipt{}, err
	}

	report, err := e.judge.Judge(ctx, problem, language, source, judge.ScopeAll)
	if err != nil {
		return SubmitReceipt{}, err
	}

	sub := domain.Submission{
		ID:          uuid.NewString(),
		ProblemID:   problemID,
		Language:    language,
		Source:      source,
		SubmittedAt: acceptedAt,
		Verdict:     domain.VerdictWrongAnswer,
		CasesTotal:  len(report.Cases),
	}
	for _, c := range report.Cases {
		if c.Passed {
			sub.CasesPassed++
		}
	}
	// All-or-nothing: full points only when every case passed.
	if report.AllPassed {
		sub.Verdict = domain.VerdictAccepted
		sub.Points = problem.Points
	}

	if err := s.appendSubmission(sub); err != nil {
		return SubmitReceipt{}, err
	}
	return SubmitReceipt{
		SubmissionID: sub.ID,
		ProblemID:    problemID,
		Verdict:      sub.Verdict,
		CasesPassed:  sub.CasesPassed,
		CasesTotal:   sub.CasesTotal,
		Points:       sub.Points,
		SubmittedAt:  sub.SubmittedAt,
	}, nil
}

// FinalizeAttempt completes the attempt and returns its Result. Safe to
// call repeatedly; later calls return the same Result.
func (e *Engine) FinalizeAttempt(ctx context.Context, participantID, roundID string) (domain.Result, error) {
	s, err := e.session(participantID, roundID)
	if err != nil {
		return domain.Result{}, err
	}
	return e.finalizeSession(ctx, s, s.Status() == domain.AttemptInProgress && s.deadlinePassed())
}

// GetResult returns the finalized Result for (participant, round). An
// expired-but-idle attempt is finalized on the way.
func (e *Engine) GetResult(ctx context.Context, participantID, roundID string) (domain.Result, error) {
	res, err := e.results.Get(ctx, participantID, roundID)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, domain.ErrResultNotFound) {
		return domain.Result{}, err
	}
	s, found := e.attempts.Get(participantID, roundID)
	if !found || !s.deadlinePassed() {
		return domain.Result{}, domain.ErrResultNotFound
	}
	return e.finalizeSession(ctx, s, s.Status() == domain.AttemptInProgress)
}

// CanEnterRound implements the unlock gate. The opening round is
// enterable once its window began; any later round requires a passed
// Result for the previous round. Fails closed.
func (e *Engine) CanEnterRound(ctx context.Context, participantID, roundID string) (bool, error) {
	bundle, err := e.rounds.GetRound(ctx, roundID)
	if err != nil {
		return false, err
	}
	return e.canEnter(ctx, bundle.Config, participantID)
}

func (e *Engine) canEnter(ctx context.Context, cfg domain.RoundConfig, participantID string) (bool, error) {
	if cfg.PrevRoundID == "" {
		return !e.clock().Before(cfg.OpensAt), nil
	}
	res, err := e.GetResult(ctx, participantID, cfg.PrevRoundID)
	if errors.Is(err, domain.ErrResultNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res.Passed, nil
}

// Subscribe streams attempt events (answers, judged submissions,
// finalization) for one live attempt. The caller must invoke cancel.
func (e *Engine) Subscribe(participantID, roundID string) (<-chan Event, func(), error) {
	s, err := e.session(participantID, roundID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.subscribe()
	return ch, cancel, nil
}

// FinalizeExpired sweeps in-progress sessions whose deadline passed, so
// their Results become available without participant activity. Returns
// how many were finalized.
func (e *Engine) FinalizeExpired(ctx context.Context) int {
	finalized := 0
	for _, s := range e.attempts.InProgress() {
		if !s.deadlinePassed() {
			continue
		}
		if _, err := e.finalizeSession(ctx, s, true); err != nil {
			e.log.Error("sweep finalize failed", "attemptId", s.id, "err", err)
			continue
		}
		finalized++
	}
	return finalized
}

func (e *Engine) session(participantID, roundID string) (*Session, error) {
	s, ok := e.attempts.Get(participantID, roundID)
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	return s, nil
}

// reapIfExpired lazily finalizes a session after an operation was refused
// because the deadline passed.
func (e *Engine) reapIfExpired(ctx context.Context, s *Session, opErr error) {
	if !errors.Is(opErr, domain.ErrAttemptExpired) {
		return
	}
	if _, err := e.finalizeSession(ctx, s, true); err != nil {
		e.log.Error("lazy finalize failed", "attemptId", s.id, "err", err)
	}
}

func (e *Engine) finalizeSession(ctx context.Context, s *Session, expired bool) (domain.Result, error) {
	res, created := s.finalize(expired)
	if !created {
		return res, nil
	}
	if err := e.results.Save(ctx, res); err != nil {
		return res, fmt.Errorf("persist result: %w", err)
	}
	e.log.Info("result created",
		"participantId", res.ParticipantID, "roundId", res.RoundID,
		"raw", res.RawScore, "percentage", res.Percentage, "passed", res.Passed)
	if e.onResult != nil {
		e.onResult(res)
	}
	return res, nil
}
