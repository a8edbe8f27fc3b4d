package judge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-engine/internal/domain"
)

// scriptedRunner maps stdin to canned stdout; unknown inputs error.
type scriptedRunner struct {
	outputs map[string]string
	delay   time.Duration

	mu    sync.Mutex
	calls int
}

func (r *scriptedRunner) Run(ctx context.Context, language, source, stdin string) (RunResult, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return RunResult{}, ctx.Err()
		}
	}
	out, ok := r.outputs[stdin]
	if !ok {
		return RunResult{}, errors.New("backend exploded")
	}
	return RunResult{Stdout: out, TimeMs: 1}, nil
}

func sumProblem() domain.ProblemSpec {
	return domain.ProblemSpec{
		ID:     "p1",
		Points: 10,
		Cases: []domain.TestCase{
			{Input: "1 2", Expected: "3"},
			{Input: "2 2", Expected: "4"},
			{Input: "5 5", Expected: "10", Hidden: true},
			{Input: "9 9", Expected: "18", Hidden: true},
		},
	}
}

func TestJudgeAllPassed(t *testing.T) {
	runner := &scriptedRunner{outputs: map[string]string{
		"1 2": "3", "2 2": "4", "5 5": "10", "9 9": "18",
	}}
	p := New(runner)

	report, err := p.Judge(context.Background(), sumProblem(), "python3", "code", ScopeAll)
	require.NoError(t, err)
	assert.True(t, report.AllPassed)
	assert.Len(t, report.Cases, 4)
	assert.Equal(t, 4, runner.calls)
}

func TestJudgePartialPassIsNotAllPassed(t *testing.T) {
	runner := &scriptedRunner{outputs: map[string]string{
		"1 2": "3", "2 2": "4", "5 5": "10", "9 9": "wrong",
	}}
	p := New(runner)

	report, err := p.Judge(context.Background(), sumProblem(), "python3", "code", ScopeAll)
	require.NoError(t, err)
	assert.False(t, report.AllPassed)
	passed := 0
	for _, c := range report.Cases {
		if c.Passed {
			passed++
		}
	}
	assert.Equal(t, 3, passed)
}

func TestJudgeVisibleScopeSkipsHiddenCases(t *testing.T) {
	runner := &scriptedRunner{outputs: map[string]string{"1 2": "3", "2 2": "4"}}
	p := New(runner)

	report, err := p.Judge(context.Background(), sumProblem(), "python3", "code", ScopeVisible)
	require.NoError(t, err)
	assert.True(t, report.AllPassed)
	assert.Len(t, report.Cases, 2)
	assert.Equal(t, 2, runner.calls)
	for _, c := range report.Cases {
		assert.False(t, c.Hidden)
	}
}

func TestJudgeTimeoutBecomesFailedOutcome(t *testing.T) {
	runner := &scriptedRunner{
		outputs: map[string]string{"1 2": "3", "2 2": "4", "5 5": "10", "9 9": "18"},
		delay:   50 * time.Millisecond,
	}
	p := New(runner, WithCaseLimit(5*time.Millisecond), WithWorkers(1))

	report, err := p.Judge(context.Background(), sumProblem(), "python3", "code", ScopeAll)
	require.NoError(t, err)
	assert.False(t, report.AllPassed)
	for _, c := range report.Cases {
		assert.False(t, c.Passed)
		assert.True(t, c.TimedOut)
	}
}

func TestJudgeBackendFailure(t *testing.T) {
	runner := &scriptedRunner{outputs: map[string]string{}}
	p := New(runner)

	_, err := p.Judge(context.Background(), sumProblem(), "python3", "code", ScopeAll)
	assert.ErrorIs(t, err, domain.ErrJudgeUnavailable)
}

func TestOutputsMatchTrimsTrailingWhitespace(t *testing.T) {
	assert.True(t, OutputsMatch("3\n", "3"))
	assert.True(t, OutputsMatch("3  \n", "3"))
	assert.True(t, OutputsMatch("a\nb \n\n", "a\nb"))
	assert.True(t, OutputsMatch("a\r\nb\r\n", "a\nb"))
	assert.False(t, OutputsMatch(" 3", "3"))
	assert.False(t, OutputsMatch("a\n\nb", "a\nb"))
}
