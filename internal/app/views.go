package app

import (
	"time"

	"assessment-engine/internal/domain"
)

// QuestionView is a drawn question as shown to the participant: option
// order per this attempt, correct index withheld.
type QuestionView struct {
	QuestionID string   `json:"questionId"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Marks      int      `json:"marks"`
}

// CaseView is a visible test case as shown to the participant.
type CaseView struct {
	Index    int    `json:"index"`
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// ProblemView is a drawn problem as shown to the participant: visible
// cases only, hidden cases reported as a count.
type ProblemView struct {
	ProblemID    string     `json:"problemId"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Difficulty   string     `json:"difficulty"`
	Points       int        `json:"points"`
	VisibleCases []CaseView `json:"visibleCases"`
	HiddenCases  int        `json:"hiddenCases"`
}

// AttemptView is a participant-safe snapshot of a session.
type AttemptView struct {
	AttemptID    string                         `json:"attemptId"`
	RoundID      string                         `json:"roundId"`
	Kind         domain.RoundKind               `json:"kind"`
	Status       domain.AttemptStatus           `json:"status"`
	StartedAt    time.Time                      `json:"startedAt"`
	Deadline     time.Time                      `json:"deadline"`
	RemainingSec int                            `json:"remainingSec"`
	Questions    []QuestionView                 `json:"questions,omitempty"`
	Problems     []ProblemView                  `json:"problems,omitempty"`
	Answers      map[string]int                 `json:"answers,omitempty"`
	Submissions  map[string][]domain.Submission `json:"submissions,omitempty"`
}

// RunFeedback is the transient outcome of judging against visible cases.
// It is never persisted.
type RunFeedback struct {
	ProblemID string               `json:"problemId"`
	Cases     []domain.CaseOutcome `json:"cases"`
	AllPassed bool                 `json:"allPassed"`
}

// SubmitReceipt summarizes a recorded submission. Hidden-case feedback is
// aggregate only: counts and verdict, never per-case detail.
type SubmitReceipt struct {
	SubmissionID string         `json:"submissionId"`
	ProblemID    string         `json:"problemId"`
	Verdict      domain.Verdict `json:"verdict"`
	CasesPassed  int            `json:"casesPassed"`
	CasesTotal   int            `json:"casesTotal"`
	Points       int            `json:"points"`
	SubmittedAt  time.Time      `json:"submittedAt"`
}

// view snapshots the session under its lock.
func (s *Session) view() AttemptView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := AttemptView{
		AttemptID:    s.id,
		RoundID:      s.cfg.ID,
		Kind:         s.cfg.Kind,
		Status:       s.status,
		StartedAt:    s.startedAt,
		Deadline:     s.deadline,
		RemainingSec: s.remainingSecLocked(),
	}
	for _, q := range s.questions {
		v.Questions = append(v.Questions, QuestionView{
			QuestionID: q.QuestionID,
			Text:       q.Text,
			Options:    append([]string(nil), q.Options...),
			Marks:      q.Marks,
		})
	}
	for _, p := range s.problems {
		pv := ProblemView{
			ProblemID:   p.ID,
			Title:       p.Title,
			Description: p.Description,
			Difficulty:  p.Difficulty,
			Points:      p.Points,
		}
		for i, c := range p.Cases {
			if c.Hidden {
				pv.HiddenCases++
				continue
			}
			pv.VisibleCases = append(pv.VisibleCases, CaseView{Index: i, Input: c.Input, Expected: c.Expected})
		}
		v.Problems = append(v.Problems, pv)
	}
	if len(s.answers) > 0 {
		v.Answers = make(map[string]int, len(s.answers))
		for k, val := range s.answers {
			v.Answers[k] = val
		}
	}
	if len(s.submissions) > 0 {
		v.Submissions = make(map[string][]domain.Submission, len(s.submissions))
		for k, subs := range s.submissions {
			v.Submissions[k] = append([]domain.Submission(nil), subs...)
		}
	}
	return v
}
