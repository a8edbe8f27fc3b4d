package domain

import "time"

// RoundKind distinguishes the two assessment formats.
type RoundKind string

const (
	RoundMCQ    RoundKind = "mcq"
	RoundCoding RoundKind = "coding"
)

// AttemptStatus enumerates the attempt lifecycle states.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// Verdict is the judging outcome of a code submission.
type Verdict string

const (
	VerdictAccepted    Verdict = "accepted"
	VerdictWrongAnswer Verdict = "wrong_answer"
)

// QuestionSpec is an authored MCQ pool item. CorrectIndex always points
// into Options; specs are read-only during attempts, per-attempt option
// shuffles operate on copies.
type QuestionSpec struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Marks        int      `json:"marks"` // defaults to 1 if zero
	Difficulty   string   `json:"difficulty"`
}

// TestCase is a single input/expected-output pair. Hidden cases are used
// only at submit time and their contents never leave the server.
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Hidden   bool   `json:"hidden"`
}

// ProblemSpec is an authored coding pool item. Every problem carries at
// least one visible test case for run feedback.
type ProblemSpec struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  string     `json:"difficulty"`
	Points      int        `json:"points"`
	Cases       []TestCase `json:"cases"`
}

// VisibleCases returns the subset of cases shown to participants.
func (p ProblemSpec) VisibleCases() []TestCase {
	out := make([]TestCase, 0, len(p.Cases))
	for _, c := range p.Cases {
		if !c.Hidden {
			out = append(out, c)
		}
	}
	return out
}

// RoundConfig describes one timed round of a hackathon.
type RoundConfig struct {
	ID          string    `json:"id"`
	HackathonID string    `json:"hackathonId"`
	Kind        RoundKind `json:"kind"`
	// PrevRoundID is empty for the opening round; otherwise the unlock
	// gate requires a passed Result for that round.
	PrevRoundID string    `json:"prevRoundId,omitempty"`
	OpensAt     time.Time `json:"opensAt"`

	DurationSec  int     `json:"durationSec"`
	ItemCount    int     `json:"itemCount"`
	PassingScore float64 `json:"passingScore"` // percentage threshold

	// MCQ-only knobs.
	NegativeMarking  bool    `json:"negativeMarking"`
	PenaltyFraction  float64 `json:"penaltyFraction"` // in [0,1]
	ShuffleQuestions bool    `json:"shuffleQuestions"`
	ShuffleOptions   bool    `json:"shuffleOptions"`
}

// Duration converts the configured round length to a time.Duration.
func (c RoundConfig) Duration() time.Duration {
	return time.Duration(c.DurationSec) * time.Second
}

// RoundBundle is a round's config plus the item pool it draws from, as
// delivered by the round catalog.
type RoundBundle struct {
	Config    RoundConfig    `json:"config"`
	Questions []QuestionSpec `json:"questions,omitempty"`
	Problems  []ProblemSpec  `json:"problems,omitempty"`
}

// AttemptQuestion is a per-attempt snapshot of a drawn MCQ question with
// its (possibly permuted) option order and remapped correct index. The
// correct index is never serialized to clients.
type AttemptQuestion struct {
	QuestionID   string   `json:"questionId"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"-"`
	Marks        int      `json:"marks"`
}

// Submission is one judged attempt at a coding problem. Run evaluations
// are transient and never become Submissions.
type Submission struct {
	ID          string    `json:"id"`
	ProblemID   string    `json:"problemId"`
	Language    string    `json:"language"`
	Source      string    `json:"-"`
	SubmittedAt time.Time `json:"submittedAt"`
	Verdict     Verdict   `json:"verdict"`
	CasesPassed int       `json:"casesPassed"`
	CasesTotal  int       `json:"casesTotal"`
	Points      int       `json:"points"` // 0 or the problem's full points
}

// CaseOutcome is the judging result for a single test case.
type CaseOutcome struct {
	Index    int    `json:"index"`
	Passed   bool   `json:"passed"`
	TimedOut bool   `json:"timedOut"`
	Actual   string `json:"actual,omitempty"`
	TimeMs   int64  `json:"timeMs"`
	Hidden   bool   `json:"hidden"`
}

// JudgeReport is the ordered outcome of judging one piece of code against
// a set of test cases.
type JudgeReport struct {
	Cases     []CaseOutcome `json:"cases"`
	AllPassed bool          `json:"allPassed"`
}

// ItemScore is the per-item line of a Result breakdown.
type ItemScore struct {
	ItemID   string  `json:"itemId"`
	Answered bool    `json:"answered"`
	Correct  bool    `json:"correct"`
	Awarded  float64 `json:"awarded"`
	Max      float64 `json:"max"`
	// SolvedAt is set for coding items, from the first accepted submission.
	SolvedAt *time.Time `json:"solvedAt,omitempty"`
}

// Result is the immutable outcome of a completed attempt, created exactly
// once at finalization.
type Result struct {
	RoundID       string      `json:"roundId"`
	ParticipantID string      `json:"participantId"`
	Kind          RoundKind   `json:"kind"`
	RawScore      float64     `json:"rawScore"` // may be negative under negative marking
	MaxScore      float64     `json:"maxScore"`
	Percentage    float64     `json:"percentage"`
	Passed        bool        `json:"passed"`
	Breakdown     []ItemScore `json:"breakdown"`
	FinalizedAt   time.Time   `json:"finalizedAt"`
	Expired       bool        `json:"expired"` // finalized by deadline, not by the participant
}
