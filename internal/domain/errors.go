package domain

import "errors"

var (
	// ErrRoundNotFound indicates the round catalog has no such round.
	ErrRoundNotFound = errors.New("round not found")
	// ErrInsufficientPoolSize is returned when a round asks for more items
	// than its pool contains.
	ErrInsufficientPoolSize = errors.New("insufficient pool size for draw")
	// ErrAttemptAlreadyInProgress is returned when starting a second attempt
	// for the same (participant, round) pair.
	ErrAttemptAlreadyInProgress = errors.New("attempt already in progress")
	// ErrAttemptNotFound is returned when no attempt exists for the pair.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptExpired is returned for operations after the deadline.
	ErrAttemptExpired = errors.New("attempt deadline expired")
	// ErrAttemptAlreadyCompleted is returned for mutating operations against
	// an attempt the participant already finished.
	ErrAttemptAlreadyCompleted = errors.New("attempt already completed")
	// ErrItemNotInAttempt indicates the referenced question or problem was
	// not part of the attempt's drawn item set.
	ErrItemNotInAttempt = errors.New("item not part of attempt")
	// ErrOptionOutOfRange indicates a selected option index outside the
	// question's option list.
	ErrOptionOutOfRange = errors.New("option index out of range")
	// ErrWrongRoundKind indicates an MCQ operation on a coding round or
	// vice versa.
	ErrWrongRoundKind = errors.New("operation does not match round kind")
	// ErrJudgeUnavailable indicates the judging backend failed; the call is
	// retryable and leaves attempt state untouched.
	ErrJudgeUnavailable = errors.New("judging backend unavailable")
	// ErrResultNotFound indicates no finalized result exists yet.
	ErrResultNotFound = errors.New("result not found")
	// ErrRoundLocked indicates the unlock gate denied entry to the round.
	ErrRoundLocked = errors.New("round locked")
)
