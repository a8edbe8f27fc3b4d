// Package judge evaluates participant code against test cases. Execution
// itself is delegated to a pluggable Runner; the pipeline owns test-case
// selection, per-case time limits, and output comparison.
package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"assessment-engine/internal/domain"
)

// Scope selects which test cases a judging call sees.
type Scope string

const (
	// ScopeVisible is used by run feedback before submitting.
	ScopeVisible Scope = "visible"
	// ScopeAll includes hidden cases and is used at submit time.
	ScopeAll Scope = "all"
)

// RunResult is the output of executing code once against one stdin.
type RunResult struct {
	Stdout string
	TimeMs int64
}

// Runner executes code in some backend (container, external judge host).
// Implementations must honor ctx cancellation; the pipeline derives a
// per-case deadline from its configured time limit.
type Runner interface {
	Run(ctx context.Context, language, source, stdin string) (RunResult, error)
}

// Pipeline judges code against a problem's test cases. A bounded number
// of cases run concurrently; a case exceeding the time limit becomes a
// failed, timed-out outcome rather than an error.
type Pipeline struct {
	runner    Runner
	caseLimit time.Duration
	workers   int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCaseLimit overrides the per-test-case wall-clock limit.
func WithCaseLimit(d time.Duration) Option {
	return func(p *Pipeline) { p.caseLimit = d }
}

// WithWorkers overrides how many cases run concurrently per judging call.
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

func New(runner Runner, opts ...Option) *Pipeline {
	p := &Pipeline{
		runner:    runner,
		caseLimit: 2 * time.Second,
		workers:   4,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Judge runs source against the problem's cases in the given scope and
// returns ordered per-case outcomes. A backend failure aborts the whole
// call with ErrJudgeUnavailable and no partial report.
func (p *Pipeline) Judge(ctx context.Context, problem domain.ProblemSpec, language, source string, scope Scope) (domain.JudgeReport, error) {
	cases := problem.Cases
	if scope == ScopeVisible {
		cases = problem.VisibleCases()
	}

	outcomes := make([]domain.CaseOutcome, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, tc := range cases {
		i, tc := i, tc
		g.Go(func() error {
			outcome, err := p.judgeCase(gctx, i, language, source, tc)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.JudgeReport{}, fmt.Errorf("%w: %v", domain.ErrJudgeUnavailable, err)
	}

	report := domain.JudgeReport{Cases: outcomes, AllPassed: true}
	for _, o := range outcomes {
		if !o.Passed {
			report.AllPassed = false
			break
		}
	}
	return report, nil
}

func (p *Pipeline) judgeCase(ctx context.Context, index int, language, source string, tc domain.TestCase) (domain.CaseOutcome, error) {
	caseCtx, cancel := context.WithTimeout(ctx, p.caseLimit)
	defer cancel()

	started := time.Now()
	res, err := p.runner.Run(caseCtx, language, source, tc.Input)
	if err != nil {
		if timedOut(caseCtx, err) {
			return domain.CaseOutcome{
				Index:    index,
				Passed:   false,
				TimedOut: true,
				TimeMs:   time.Since(started).Milliseconds(),
				Hidden:   tc.Hidden,
			}, nil
		}
		return domain.CaseOutcome{}, err
	}

	return domain.CaseOutcome{
		Index:  index,
		Passed: OutputsMatch(res.Stdout, tc.Expected),
		Actual: res.Stdout,
		TimeMs: res.TimeMs,
		Hidden: tc.Hidden,
	}, nil
}

// timedOut reports whether the run failed because the per-case deadline
// fired, as opposed to the parent ctx being cancelled or a backend error.
func timedOut(caseCtx context.Context, err error) bool {
	return errors.Is(caseCtx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded)
}

// OutputsMatch compares produced output to the expected output: exact
// string match after trimming trailing whitespace on each line and
// trailing newlines overall.
func OutputsMatch(actual, expected string) bool {
	return normalize(actual) == normalize(expected)
}

func normalize(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
