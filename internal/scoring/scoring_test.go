package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-engine/internal/domain"
)

func mcqItems() []domain.AttemptQuestion {
	return []domain.AttemptQuestion{
		{QuestionID: "q1", Options: []string{"a", "b"}, CorrectIndex: 0, Marks: 1},
		{QuestionID: "q2", Options: []string{"a", "b"}, CorrectIndex: 0, Marks: 2},
		{QuestionID: "q3", Options: []string{"a", "b"}, CorrectIndex: 0, Marks: 3},
	}
}

func TestMCQNegativeMarking(t *testing.T) {
	cfg := domain.RoundConfig{NegativeMarking: true, PenaltyFraction: 0.25}
	// q1 correct, q2 incorrect, q3 unanswered.
	answers := map[string]int{"q1": 0, "q2": 1}

	raw, max, breakdown := MCQ(mcqItems(), answers, cfg)
	assert.InDelta(t, 0.5, raw, 1e-9) // 1 - 2*0.25 + 0
	assert.EqualValues(t, 6, max)
	require.Len(t, breakdown, 3)
	assert.True(t, breakdown[0].Correct)
	assert.InDelta(t, -0.5, breakdown[1].Awarded, 1e-9)
	assert.False(t, breakdown[2].Answered)
	assert.Zero(t, breakdown[2].Awarded)
}

func TestMCQWithoutNegativeMarking(t *testing.T) {
	raw, _, _ := MCQ(mcqItems(), map[string]int{"q2": 1}, domain.RoundConfig{})
	assert.Zero(t, raw)
}

func TestMCQAllWrongCanGoNegative(t *testing.T) {
	cfg := domain.RoundConfig{NegativeMarking: true, PenaltyFraction: 0.5}
	answers := map[string]int{"q1": 1, "q2": 1, "q3": 1}

	raw, max, _ := MCQ(mcqItems(), answers, cfg)
	assert.InDelta(t, -3, raw, 1e-9)
	// The raw score and percentage stay negative; only the pass
	// comparison clamps.
	pct := Percentage(raw, max)
	assert.Less(t, pct, 0.0)
	assert.False(t, Passed(pct, 1))
	assert.True(t, Passed(pct, 0))
}

func codingProblems() []domain.ProblemSpec {
	return []domain.ProblemSpec{{ID: "p1", Points: 10}, {ID: "p2", Points: 5}}
}

func TestCodingAllOrNothing(t *testing.T) {
	// 3 of 4 cases passed earns nothing; partial credit must never appear.
	subs := map[string][]domain.Submission{
		"p1": {{Verdict: domain.VerdictWrongAnswer, CasesPassed: 3, CasesTotal: 4}},
	}
	raw, max, breakdown := Coding(codingProblems(), subs)
	assert.Zero(t, raw)
	assert.EqualValues(t, 15, max)
	assert.True(t, breakdown[0].Answered)
	assert.False(t, breakdown[0].Correct)
	assert.Zero(t, breakdown[0].Awarded)
}

func TestCodingFirstAcceptedWins(t *testing.T) {
	first := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(10 * time.Minute)
	subs := map[string][]domain.Submission{
		"p1": {
			{Verdict: domain.VerdictWrongAnswer, SubmittedAt: first.Add(-time.Minute)},
			{Verdict: domain.VerdictAccepted, SubmittedAt: first},
			{Verdict: domain.VerdictAccepted, SubmittedAt: later},
		},
	}
	raw, _, breakdown := Coding(codingProblems(), subs)
	// A second accepted submission adds no further points.
	assert.EqualValues(t, 10, raw)
	require.NotNil(t, breakdown[0].SolvedAt)
	assert.True(t, breakdown[0].SolvedAt.Equal(first))
}

func TestBuildResult(t *testing.T) {
	cfg := domain.RoundConfig{ID: "round-1", Kind: domain.RoundMCQ, PassingScore: 50}
	at := time.Now()
	res := BuildResult("alice", cfg, 3, 6, nil, at, false)
	assert.Equal(t, "round-1", res.RoundID)
	assert.Equal(t, "alice", res.ParticipantID)
	assert.InDelta(t, 50, res.Percentage, 1e-9)
	assert.True(t, res.Passed)
	assert.True(t, res.FinalizedAt.Equal(at))

	res = BuildResult("alice", cfg, 2.9, 6, nil, at, true)
	assert.False(t, res.Passed)
	assert.True(t, res.Expired)
}
