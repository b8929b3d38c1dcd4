package githubapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v71/github"

	"github.com/env0/claude-pr-reviewer/internal/config"
	"github.com/env0/claude-pr-reviewer/internal/domain"
	"github.com/env0/claude-pr-reviewer/internal/reconcile"
)

// client implements Client against the GitHub REST and GraphQL APIs
type client struct {
	gh        *github.Client
	transport *ghinstallation.Transport // nil when using a plain token
	token     string
	botLogin  string
	logger    *log.Logger
}

// New creates a GitHub-backed Client. App credentials take precedence over a
// personal access token.
func New(cfg config.GitHubConfig, logger *log.Logger) (Client, error) {
	c := &client{
		botLogin: cfg.BotLogin,
		logger:   logger,
	}

	if cfg.UsesApp() {
		itr, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, cfg.AppID, cfg.InstallationID, cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("loading app credentials: %w", err)
		}
		c.transport = itr
		c.gh = github.NewClient(&http.Client{Transport: itr})
		return c, nil
	}

	c.token = cfg.Token
	c.gh = github.NewClient(nil).WithAuthToken(cfg.Token)
	return c, nil
}

func (c *client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*domain.PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetching PR %s/%s#%d: %w", owner, repo, number, err)
	}
	return &domain.PullRequest{
		Owner:        owner,
		Repo:         repo,
		Number:       number,
		BaseBranch:   pr.GetBase().GetRef(),
		HeadBranch:   pr.GetHead().GetRef(),
		HeadSHA:      pr.GetHead().GetSHA(),
		ChangedFiles: pr.GetChangedFiles(),
	}, nil
}

func (c *client) ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]string, error) {
	var files []string
	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing changed files: %w", err)
		}
		for _, f := range page {
			files = append(files, f.GetFilename())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return files, nil
}

func (c *client) ListBotComments(ctx context.Context, owner, repo string, number int) ([]domain.RemoteComment, error) {
	var comments []domain.RemoteComment
	opts := &github.PullRequestListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		page, resp, err := c.gh.PullRequests.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing review comments: %w", err)
		}
		for _, rc := range page {
			comments = append(comments, domain.RemoteComment{
				ID:     rc.GetID(),
				NodeID: rc.GetNodeID(),
				File:   rc.GetPath(),
				Line:   rc.GetLine(),
				// Empty for replies and human comments; reconciliation skips those
				Hash: reconcile.ExtractHash(rc.GetBody()),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return comments, nil
}

func (c *client) CreateReviewComment(ctx context.Context, owner, repo string, number int, headSHA, body string, f *domain.Finding) error {
	comment := &github.PullRequestComment{
		Body:     github.Ptr(body),
		CommitID: github.Ptr(headSHA),
		Path:     github.Ptr(f.File),
		Line:     github.Ptr(f.Line),
		Side:     github.Ptr("RIGHT"),
	}
	if f.EndLine > f.Line {
		comment.StartLine = github.Ptr(f.Line)
		comment.StartSide = github.Ptr("RIGHT")
		comment.Line = github.Ptr(f.EndLine)
	}
	if _, _, err := c.gh.PullRequests.CreateComment(ctx, owner, repo, number, comment); err != nil {
		return fmt.Errorf("creating review comment on %s: %w", f.Location(), err)
	}
	return nil
}

func (c *client) CreateReview(ctx context.Context, owner, repo string, number int, verdict domain.Verdict, body string) error {
	event := "COMMENT"
	if verdict == domain.VerdictRequestChanges {
		event = "REQUEST_CHANGES"
	}
	review := &github.PullRequestReviewRequest{
		Body:  github.Ptr(body),
		Event: github.Ptr(event),
	}
	if _, _, err := c.gh.PullRequests.CreateReview(ctx, owner, repo, number, review); err != nil {
		return fmt.Errorf("creating %s review: %w", event, err)
	}
	return nil
}

func (c *client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error {
	comment := &github.IssueComment{Body: github.Ptr(body)}
	if _, _, err := c.gh.Issues.CreateComment(ctx, owner, repo, number, comment); err != nil {
		return fmt.Errorf("creating issue comment: %w", err)
	}
	return nil
}

func (c *client) DismissStaleReviews(ctx context.Context, owner, repo string, number int, message string) error {
	reviews, _, err := c.gh.PullRequests.ListReviews(ctx, owner, repo, number, &github.ListOptions{PerPage: 100})
	if err != nil {
		return fmt.Errorf("listing reviews: %w", err)
	}
	for _, rev := range reviews {
		if rev.GetState() != "CHANGES_REQUESTED" {
			continue
		}
		if !c.isBot(rev.GetUser().GetLogin()) {
			continue
		}
		dismissal := &github.PullRequestReviewDismissalRequest{Message: github.Ptr(message)}
		if _, _, err := c.gh.PullRequests.DismissReview(ctx, owner, repo, number, rev.GetID(), dismissal); err != nil {
			return fmt.Errorf("dismissing review %d: %w", rev.GetID(), err)
		}
		c.logger.Printf("dismissed stale request-changes review %d on %s/%s#%d", rev.GetID(), owner, repo, number)
	}
	return nil
}

func (c *client) AddLabel(ctx context.Context, owner, repo string, number int, label string) error {
	if _, _, err := c.gh.Issues.AddLabelsToIssue(ctx, owner, repo, number, []string{label}); err != nil {
		return fmt.Errorf("adding label %q: %w", label, err)
	}
	return nil
}

func (c *client) RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error {
	if _, err := c.gh.Issues.RemoveLabelForIssue(ctx, owner, repo, number, label); err != nil {
		// Removing an absent label is a no-op
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("removing label %q: %w", label, err)
	}
	return nil
}

func (c *client) InstallationToken(ctx context.Context) (string, error) {
	if c.transport != nil {
		token, err := c.transport.Token(ctx)
		if err != nil {
			return "", fmt.Errorf("minting installation token: %w", err)
		}
		return token, nil
	}
	return c.token, nil
}

// isBot matches a review author against the configured bot identity; app
// authors show up with a "[bot]" suffix
func (c *client) isBot(login string) bool {
	if login == "" {
		return false
	}
	return login == c.botLogin || login == strings.TrimSuffix(c.botLogin, "[bot]")+"[bot]"
}
