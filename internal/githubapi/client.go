// Package githubapi wraps the hosting-platform REST/GraphQL API behind the
// narrow interface a review session needs. The session is the sole writer of
// remote review state during its lifetime; every call here is issued
// sequentially by one session.
package githubapi

import (
	"context"

	"github.com/env0/claude-pr-reviewer/internal/domain"
)

// Client is the remote review-platform collaborator
type Client interface {
	// GetPullRequest fetches the addressing metadata for one PR
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*domain.PullRequest, error)

	// ListChangedFiles returns the filenames changed by the PR
	ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]string, error)

	// ListBotComments returns existing review comments with any finding hash
	// recovered from their embedded marker
	ListBotComments(ctx context.Context, owner, repo string, number int) ([]domain.RemoteComment, error)

	// CreateReviewComment posts one comment anchored to the finding's file
	// and line range at the given head commit
	CreateReviewComment(ctx context.Context, owner, repo string, number int, headSHA, body string, f *domain.Finding) error

	// ResolveThreads resolves the discussion threads containing the given
	// review comment ids. Best-effort: callers swallow its errors.
	ResolveThreads(ctx context.Context, owner, repo string, number int, commentIDs []int64) error

	// CreateReview submits a top-level review carrying the verdict
	CreateReview(ctx context.Context, owner, repo string, number int, verdict domain.Verdict, body string) error

	// CreateIssueComment posts a plain comment on the PR conversation
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error

	// DismissStaleReviews dismisses any open request-changes review authored
	// by the bot. Best-effort: callers swallow its errors.
	DismissStaleReviews(ctx context.Context, owner, repo string, number int, message string) error

	// AddLabel and RemoveLabel manage the pending/reviewed labels
	AddLabel(ctx context.Context, owner, repo string, number int, label string) error
	RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error

	// InstallationToken mints a short-lived token usable for cloning
	InstallationToken(ctx context.Context) (string, error)
}
