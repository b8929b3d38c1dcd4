// Package engine invokes the external analysis engine as a subprocess and
// turns its free-form output into a schema-validated result. The engine is a
// black box; this adapter owns the invocation contract, the timeout, and the
// strict validation gate.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/env0/claude-pr-reviewer/internal/config"
	"github.com/env0/claude-pr-reviewer/internal/domain"
)

// livenessTimeout bounds the trivial probe invocation
const livenessTimeout = 15 * time.Second

// Request addresses one engine invocation inside a prepared workspace
type Request struct {
	WorkspacePath string
	PRNumber      int
	BaseBranch    string
	HeadBranch    string
}

// Invocation is a successful engine run: the validated result plus the raw
// output kept for diagnostics
type Invocation struct {
	Result    *domain.EngineResult
	RawOutput string
}

// Adapter builds engine invocations and validates their output
type Adapter struct {
	config config.EngineConfig
	logger *log.Logger
	runner Runner
}

// NewAdapter creates a new Adapter using the given subprocess runner
func NewAdapter(cfg config.EngineConfig, logger *log.Logger, runner Runner) *Adapter {
	if runner == nil {
		runner = NewLocalRunner()
	}
	return &Adapter{
		config: cfg,
		logger: logger,
		runner: runner,
	}
}

// IsAvailable probes whether the engine executable responds to a trivial
// invocation. Used as a precondition gate before starting real work.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	result, err := a.runner.Run(ctx, []string{a.config.Command, "--version"}, RunOpts{
		Timeout: livenessTimeout,
	})
	if err != nil {
		a.logger.Printf("engine liveness probe failed: %v", err)
		return false
	}
	return result.ExitCode == 0
}

// Invoke runs one engine analysis rooted at the workspace, bounded by the
// configured wall-clock timeout. On expiry the subprocess is killed and no
// partial output is trusted.
func (a *Adapter) Invoke(ctx context.Context, req Request) (*Invocation, error) {
	prompt := a.buildPrompt(req)

	cmd := append([]string{a.config.Command}, a.config.Args...)
	cmd = append(cmd, prompt)

	a.logger.Printf("invoking engine for PR #%d (%s...%s), timeout %s",
		req.PRNumber, req.BaseBranch, req.HeadBranch, a.config.Timeout())

	result, err := a.runner.Run(ctx, cmd, RunOpts{
		WorkDir: req.WorkspacePath,
		Env:     a.config.Env,
		Timeout: a.config.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("launching engine: %w", err)
	}

	if result.TimedOut {
		return nil, fmt.Errorf("%w after %s", ErrTimeout, result.Duration.Round(time.Second))
	}

	output := result.Stdout
	if result.Stderr != "" {
		output += "\n" + result.Stderr
	}

	if result.ExitCode != 0 {
		return nil, &OutputError{
			Kind:   OutputExitFailure,
			Detail: fmt.Sprintf("exit code %d: %s", result.ExitCode, tail(result.Stderr, 2000)),
		}
	}

	raw, ok := extractJSONObject(output)
	if !ok {
		return nil, &OutputError{
			Kind:   OutputNoJSON,
			Detail: "no JSON object with status and findings fields found in engine output",
		}
	}

	var res domain.EngineResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, &OutputError{Kind: OutputSchemaInvalid, Detail: "result does not match schema", Err: err}
	}
	if err := res.Validate(); err != nil {
		return nil, &OutputError{Kind: OutputSchemaInvalid, Detail: "result failed validation", Err: err}
	}

	a.logger.Printf("engine completed in %s: status=%s findings=%d",
		result.Duration.Round(time.Millisecond), res.Status, len(res.Findings))

	return &Invocation{Result: &res, RawOutput: output}, nil
}

func (a *Adapter) buildPrompt(req Request) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(instructionHeader, req.PRNumber, req.BaseBranch, req.HeadBranch, req.BaseBranch, req.HeadBranch))
	sb.WriteString("\n\n")
	sb.WriteString(reviewPrinciples)
	sb.WriteString("\n\n")
	sb.WriteString(outputContract)

	return sb.String()
}

// extractJSONObject finds the first substring of output that parses as a
// JSON object containing both a status and a findings field. The engine is
// allowed to emit prose around the object.
func extractJSONObject(output string) (string, bool) {
	for i := 0; i < len(output); i++ {
		if output[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(output[i:]))
		var raw map[string]json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			continue
		}
		if _, ok := raw["status"]; !ok {
			continue
		}
		if _, ok := raw["findings"]; !ok {
			continue
		}
		return output[i : i+int(dec.InputOffset())], true
	}
	return "", false
}

// tail returns the last n bytes of s, for bounded error details
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

const instructionHeader = `You are reviewing pull request #%d in the repository checked out in the current directory. The base branch is %q and the head branch is %q.

Run ` + "`git diff %s...%s`" + ` to see the full change set, read any surrounding code you need for context, and review the changes.`

const reviewPrinciples = `## Review Principles

1. **Signal over noise** - Only flag issues that genuinely matter. If the code looks fine, say so.
2. **Mentor mindset** - Explain why something is a problem, not just that it is one.
3. **Context-aware** - Consider the language, framework, and apparent intent.
4. **No nitpicking** - Ignore formatting, naming style, and minor stylistic preferences entirely.
5. **Evidence-based** - Only flag issues you can point to in the diff.

Look for: bugs and logic errors, security problems, missing error handling, type-safety holes, performance problems, and real maintainability hazards.`

const outputContract = `## Required Output

After your analysis, emit exactly one JSON object (no markdown fences) with this shape:

{
  "status": "completed",
  "summary": "One or two sentence summary of the change set",
  "findings": [
    {
      "severity": "critical|high|medium|low",
      "category": "security|performance|logic|error-handling|type-safety|maintainability",
      "confidence": "high|medium|low",
      "file": "path/relative/to/repo/root.go",
      "line": 42,
      "endLine": 45,
      "title": "Brief issue title",
      "description": "Why this is a problem and what could go wrong",
      "suggestion": "replacement code, if a concrete fix exists",
      "severityReason": "Why this severity was assigned",
      "references": ["https://..."]
    }
  ],
  "metadata": {
    "headCommit": "sha of the reviewed head commit",
    "filesReviewed": 0,
    "skippedFiles": 0,
    "reviewDurationMs": 0
  }
}

Use "status": "skipped" with an "error" field if the diff cannot be reviewed, and "status": "failed" with an "error" field if analysis itself failed. If there are no meaningful issues, return an empty findings array. The JSON object must be the last thing you print.`
