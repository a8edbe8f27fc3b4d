package judge

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// LanguageSpec tells the exec runner how to materialize and run source
// for one language. Argv entries may reference {file}, the path the
// source was written to.
type LanguageSpec struct {
	// Filename the source is written as inside the scratch dir.
	Filename string   `yaml:"filename" json:"filename"`
	Argv     []string `yaml:"argv" json:"argv"`
}

// ExecRunner runs code via os/exec on the judging host. It provides no
// sandboxing and is intended for local development and tests; production
// deployments plug in an isolated Runner behind the same interface.
type ExecRunner struct {
	languages map[string]LanguageSpec
}

func NewExecRunner(languages map[string]LanguageSpec) *ExecRunner {
	return &ExecRunner{languages: languages}
}

// DefaultLanguages covers interpreters commonly present on a dev host.
func DefaultLanguages() map[string]LanguageSpec {
	return map[string]LanguageSpec{
		"python3": {Filename: "main.py", Argv: []string{"python3", "{file}"}},
		"node":    {Filename: "main.js", Argv: []string{"node", "{file}"}},
		"sh":      {Filename: "main.sh", Argv: []string{"sh", "{file}"}},
	}
}

func (r *ExecRunner) Run(ctx context.Context, language, source, stdin string) (RunResult, error) {
	spec, ok := r.languages[language]
	if !ok {
		return RunResult{}, fmt.Errorf("unsupported language %q", language)
	}

	dir, err := os.MkdirTemp("", "judge-*")
	if err != nil {
		return RunResult{}, fmt.Errorf("scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, spec.Filename)
	if err := os.WriteFile(file, []byte(source), 0o600); err != nil {
		return RunResult{}, fmt.Errorf("write source: %w", err)
	}

	argv := make([]string, len(spec.Argv))
	for i, a := range spec.Argv {
		argv[i] = strings.ReplaceAll(a, "{file}", file)
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Stdout = &stdout

	started := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return RunResult{}, ctx.Err()
		}
		// Non-zero exit is a wrong answer, not a backend failure; report
		// whatever output was produced.
		if _, ok := err.(*exec.ExitError); ok {
			return RunResult{Stdout: stdout.String(), TimeMs: time.Since(started).Milliseconds()}, nil
		}
		return RunResult{}, fmt.Errorf("exec %s: %w", language, err)
	}
	return RunResult{Stdout: stdout.String(), TimeMs: time.Since(started).Milliseconds()}, nil
}
