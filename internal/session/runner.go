// Package session orchestrates one full review attempt for one pull
// request: precondition checks, workspace lifecycle, engine invocation,
// finding reconciliation, remote mutations, and label transitions. Every
// terminal outcome leaves the PR in a consistent, inspectable state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/env0/claude-pr-reviewer/internal/config"
	"github.com/env0/claude-pr-reviewer/internal/domain"
	"github.com/env0/claude-pr-reviewer/internal/engine"
	"github.com/env0/claude-pr-reviewer/internal/githubapi"
	"github.com/env0/claude-pr-reviewer/internal/gitops"
	"github.com/env0/claude-pr-reviewer/internal/metrics"
	"github.com/env0/claude-pr-reviewer/internal/reconcile"
)

// Status is a terminal session outcome
type Status string

const (
	StatusReviewed Status = "reviewed"
	StatusSkipped  Status = "skipped"
	StatusError    Status = "error"
)

// Outcome is what a session reports back to its caller
type Outcome struct {
	Status        Status
	FindingsCount int
	Reason        string // set for skips
	Message       string // set for errors
}

// Params addresses the single pull request a session reviews
type Params struct {
	Owner  string
	Repo   string
	Number int
}

func (p Params) String() string {
	return fmt.Sprintf("%s/%s#%d", p.Owner, p.Repo, p.Number)
}

// Engine is the slice of the analysis adapter a session uses
type Engine interface {
	IsAvailable(ctx context.Context) bool
	Invoke(ctx context.Context, req engine.Request) (*engine.Invocation, error)
}

// skipReason marks a precondition skip: not an error, the session still
// posts the reason and flips labels
type skipReason struct {
	reason string
}

// Runner drives the review session state machine. One Runner serves many
// sessions; each Run call is one session.
type Runner struct {
	config   *config.Config
	logger   *log.Logger
	client   githubapi.Client
	engine   Engine
	cloner   Cloner
	recorder *metrics.Recorder
}

// NewRunner creates a session Runner
func NewRunner(cfg *config.Config, logger *log.Logger, client githubapi.Client, eng Engine, cloner Cloner, recorder *metrics.Recorder) *Runner {
	if cloner == nil {
		cloner = NewCloner(logger)
	}
	return &Runner{
		config:   cfg,
		logger:   logger,
		client:   client,
		engine:   eng,
		cloner:   cloner,
		recorder: recorder,
	}
}

// Run executes one full review session and always returns a terminal
// outcome; it never panics across the remote-mutation path
func (r *Runner) Run(ctx context.Context, p Params) Outcome {
	start := time.Now()
	outcome := r.run(ctx, p)
	r.recorder.ObserveSession(string(outcome.Status), time.Since(start))
	r.logger.Printf("%s: session finished in %s: %s", p, time.Since(start).Round(time.Millisecond), outcome.Status)
	return outcome
}

func (r *Runner) run(ctx context.Context, p Params) Outcome {
	// Entry: PR metadata. Failure here is fatal and not retried; no labels
	// have been touched yet.
	pr, err := r.client.GetPullRequest(ctx, p.Owner, p.Repo, p.Number)
	if err != nil {
		r.logger.Printf("%s: %v", p, err)
		return Outcome{Status: StatusError, Message: err.Error()}
	}

	// LabelPending: best-effort, the review result does not depend on it
	r.setLabel(ctx, p, r.config.Review.PendingLabel, r.config.Review.ReviewedLabel)

	// The pending label must never be left stuck, whichever path terminates
	// the session
	defer r.setLabel(ctx, p, r.config.Review.ReviewedLabel, r.config.Review.PendingLabel)

	// Liveness gate: a dead engine fails the session immediately, no retry
	if !r.engine.IsAvailable(ctx) {
		return r.fail(ctx, p, engine.ErrUnavailable)
	}

	result, skip, err := r.attempt(ctx, pr)
	if err != nil && r.config.Review.RetryOnError {
		r.logger.Printf("%s: work phase failed, retrying once: %v", p, err)
		result, skip, err = r.attempt(ctx, pr)
	}
	if err != nil {
		return r.fail(ctx, p, err)
	}
	if skip != nil {
		return r.skip(ctx, p, skip.reason)
	}

	// Reconcile against the comments currently on the platform, read fresh
	existing, err := r.client.ListBotComments(ctx, p.Owner, p.Repo, p.Number)
	if err != nil {
		return r.fail(ctx, p, err)
	}
	rec := reconcile.Reconcile(result.Findings, existing)
	r.logger.Printf("%s: reconciled: %d to post, %d to resolve, %d unchanged",
		p, len(rec.ToPost), len(rec.ToResolve), len(rec.ToLeave))

	if err := r.mutate(ctx, p, pr, result, &rec); err != nil {
		return r.fail(ctx, p, err)
	}

	return Outcome{Status: StatusReviewed, FindingsCount: len(result.Findings)}
}

// attempt runs the retryable work phase: Precheck, Clone, Invoke. The
// workspace is removed before it returns, on every path.
func (r *Runner) attempt(ctx context.Context, pr *domain.PullRequest) (*domain.EngineResult, *skipReason, error) {
	p := Params{Owner: pr.Owner, Repo: pr.Repo, Number: pr.Number}

	// Precheck: diff size
	if pr.ChangedFiles > r.config.Review.MaxChangedFiles {
		return nil, &skipReason{fmt.Sprintf("this PR changes %d files, above the review limit of %d; split it up or review it manually",
			pr.ChangedFiles, r.config.Review.MaxChangedFiles)}, nil
	}

	// Precheck: at least one reviewable code file
	files, err := r.client.ListChangedFiles(ctx, pr.Owner, pr.Repo, pr.Number)
	if err != nil {
		return nil, nil, err
	}
	if !hasCodeFiles(files) {
		return nil, &skipReason{"no reviewable code files in this PR (docs/config-only changes are not reviewed)"}, nil
	}

	// Clone: disposable workspace via a short-lived installation token
	token, err := r.client.InstallationToken(ctx)
	if err != nil {
		return nil, nil, err
	}
	path, cleanup, err := r.cloner.Prepare(ctx, gitops.CloneOpts{
		Owner:      pr.Owner,
		Repo:       pr.Repo,
		HeadBranch: pr.HeadBranch,
		Token:      token,
	})
	if err != nil {
		return nil, nil, err
	}
	defer cleanup()

	// Invoke
	inv, err := r.engine.Invoke(ctx, engine.Request{
		WorkspacePath: path,
		PRNumber:      pr.Number,
		BaseBranch:    pr.BaseBranch,
		HeadBranch:    pr.HeadBranch,
	})
	if err != nil {
		r.recorder.ObserveEngineFailure(failureKind(err))
		return nil, nil, err
	}

	switch inv.Result.Status {
	case domain.EngineFailed:
		r.recorder.ObserveEngineFailure("reported-failure")
		return nil, nil, fmt.Errorf("engine reported failure: %s", inv.Result.Error)
	case domain.EngineSkipped:
		reason := inv.Result.Error
		if reason == "" {
			reason = inv.Result.Summary
		}
		return nil, &skipReason{fmt.Sprintf("engine skipped the review: %s", reason)}, nil
	}

	r.logger.Printf("%s: engine found %d findings", p, len(inv.Result.Findings))
	return inv.Result, nil, nil
}

// mutate applies the reconciled actions to the platform in deterministic
// order: new comments, then thread resolution, then stale-review cleanup and
// the summary review. The final label flip happens in the caller's defer.
func (r *Runner) mutate(ctx context.Context, p Params, pr *domain.PullRequest, result *domain.EngineResult, rec *reconcile.Result) error {
	// New findings, most severe first
	sort.SliceStable(rec.ToPost, func(i, j int) bool {
		return rec.ToPost[i].Severity.Rank() < rec.ToPost[j].Severity.Rank()
	})
	for i := range rec.ToPost {
		f := &rec.ToPost[i]
		if err := r.client.CreateReviewComment(ctx, p.Owner, p.Repo, p.Number, pr.HeadSHA, formatFindingComment(f), f); err != nil {
			return err
		}
	}
	r.recorder.ObserveFindingsPosted(len(rec.ToPost))

	// Fixed findings: resolve their threads. Best-effort; thread resolution
	// is non-essential cleanup and must never fail the session.
	if len(rec.ToResolve) > 0 {
		ids := make([]int64, len(rec.ToResolve))
		for i := range rec.ToResolve {
			ids[i] = rec.ToResolve[i].ID
		}
		if err := r.client.ResolveThreads(ctx, p.Owner, p.Repo, p.Number, ids); err != nil {
			r.logger.Printf("%s: Warning: resolving fixed threads: %v", p, err)
		} else {
			r.recorder.ObserveThreadsResolved(len(ids))
		}
	}

	// Verdict over the complete current finding set, not the reconciled
	// subset: the top-level state reflects total unresolved risk
	verdict := domain.VerdictFor(result.Findings)

	// A PR must never stay blocked by a review whose blocking findings no
	// longer exist. Best-effort.
	if verdict != domain.VerdictRequestChanges {
		if err := r.client.DismissStaleReviews(ctx, p.Owner, p.Repo, p.Number, "Blocking findings no longer present in the latest review."); err != nil {
			r.logger.Printf("%s: Warning: dismissing stale reviews: %v", p, err)
		}
	}

	// Summary: a review for blocking/commenting verdicts, a plain comment
	// for approval
	body := formatSummary(result, verdict, rec)
	if verdict == domain.VerdictApprove {
		return r.client.CreateIssueComment(ctx, p.Owner, p.Repo, p.Number, body)
	}
	return r.client.CreateReview(ctx, p.Owner, p.Repo, p.Number, verdict, body)
}

// skip posts the human-readable reason as a comment-type review and reports
// the skipped outcome
func (r *Runner) skip(ctx context.Context, p Params, reason string) Outcome {
	r.logger.Printf("%s: skipping review: %s", p, reason)
	if err := r.client.CreateReview(ctx, p.Owner, p.Repo, p.Number, domain.VerdictComment, formatSkip(reason)); err != nil {
		r.logger.Printf("%s: Warning: posting skip notice: %v", p, err)
	}
	return Outcome{Status: StatusSkipped, Reason: reason}
}

// fail posts a best-effort error comment and reports the error outcome
func (r *Runner) fail(ctx context.Context, p Params, cause error) Outcome {
	r.logger.Printf("%s: session failed: %v", p, cause)
	if err := r.client.CreateIssueComment(ctx, p.Owner, p.Repo, p.Number, formatError(cause.Error())); err != nil {
		r.logger.Printf("%s: Warning: posting error comment: %v", p, err)
	}
	return Outcome{Status: StatusError, Message: cause.Error()}
}

// setLabel adds one label and removes another, both best-effort
func (r *Runner) setLabel(ctx context.Context, p Params, add, remove string) {
	if err := r.client.RemoveLabel(ctx, p.Owner, p.Repo, p.Number, remove); err != nil {
		r.logger.Printf("%s: Warning: removing label %q: %v", p, remove, err)
	}
	if err := r.client.AddLabel(ctx, p.Owner, p.Repo, p.Number, add); err != nil {
		r.logger.Printf("%s: Warning: adding label %q: %v", p, add, err)
	}
}

// failureKind maps an invocation error to a metrics label
func failureKind(err error) string {
	var outErr *engine.OutputError
	switch {
	case errors.Is(err, engine.ErrTimeout):
		return "timeout"
	case errors.As(err, &outErr):
		return string(outErr.Kind)
	default:
		return "launch"
	}
}
