// Package scoring turns a completed attempt's recorded answers and
// submissions into a Result. Scoring runs exactly once, at finalization.
package scoring

import (
	"time"

	"assessment-engine/internal/domain"
)

// MCQ scores a drawn question set against the recorded answers, keyed by
// question id. Correct answers earn the question's marks; incorrect ones
// cost marks*penalty when negative marking is on; unanswered questions
// score zero either way.
func MCQ(items []domain.AttemptQuestion, answers map[string]int, cfg domain.RoundConfig) (raw, max float64, breakdown []domain.ItemScore) {
	breakdown = make([]domain.ItemScore, 0, len(items))
	for _, q := range items {
		max += float64(q.Marks)
		line := domain.ItemScore{ItemID: q.QuestionID, Max: float64(q.Marks)}
		if selected, ok := answers[q.QuestionID]; ok {
			line.Answered = true
			if selected == q.CorrectIndex {
				line.Correct = true
				line.Awarded = float64(q.Marks)
			} else if cfg.NegativeMarking {
				line.Awarded = -float64(q.Marks) * cfg.PenaltyFraction
			}
		}
		raw += line.Awarded
		breakdown = append(breakdown, line)
	}
	return raw, max, breakdown
}

// Coding scores a drawn problem set against the recorded submissions,
// keyed by problem id. A problem's full points are awarded iff at least
// one submission passed every test case; partial passes earn nothing.
// The first accepted submission's timestamp is the solve time.
func Coding(problems []domain.ProblemSpec, submissions map[string][]domain.Submission) (raw, max float64, breakdown []domain.ItemScore) {
	breakdown = make([]domain.ItemScore, 0, len(problems))
	for _, p := range problems {
		max += float64(p.Points)
		line := domain.ItemScore{ItemID: p.ID, Max: float64(p.Points)}
		for _, sub := range submissions[p.ID] {
			line.Answered = true
			if sub.Verdict != domain.VerdictAccepted {
				continue
			}
			if line.SolvedAt == nil {
				at := sub.SubmittedAt
				line.SolvedAt = &at
				line.Correct = true
				line.Awarded = float64(p.Points)
			}
		}
		raw += line.Awarded
		breakdown = append(breakdown, line)
	}
	return raw, max, breakdown
}

// Percentage returns 100*raw/max without clamping, so a negative raw
// score stays visible in the Result.
func Percentage(raw, max float64) float64 {
	if max == 0 {
		return 0
	}
	return 100 * raw / max
}

// Passed applies the round's threshold to the percentage clamped into
// [0,100]; the clamp affects only this comparison, never the stored raw
// score or percentage.
func Passed(percentage, passingScore float64) bool {
	clamped := percentage
	if clamped < 0 {
		clamped = 0
	} else if clamped > 100 {
		clamped = 100
	}
	return clamped >= passingScore
}

// BuildResult assembles the immutable Result record.
func BuildResult(participantID string, cfg domain.RoundConfig, raw, max float64, breakdown []domain.ItemScore, finalizedAt time.Time, expired bool) domain.Result {
	pct := Percentage(raw, max)
	return domain.Result{
		RoundID:       cfg.ID,
		ParticipantID: participantID,
		Kind:          cfg.Kind,
		RawScore:      raw,
		MaxScore:      max,
		Percentage:    pct,
		Passed:        Passed(pct, cfg.PassingScore),
		Breakdown:     breakdown,
		FinalizedAt:   finalizedAt,
		Expired:       expired,
	}
}
