// Package gitops materializes the disposable local checkout a review session
// analyzes. A workspace is exclusively owned by one session and removed
// unconditionally when the session ends.
package gitops

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// CloneOpts addresses the repository revision to check out
type CloneOpts struct {
	Owner      string
	Repo       string
	HeadBranch string
	Token      string // short-lived installation token, never logged
}

// Workspace is a temporary checkout keyed by a fresh random identifier
type Workspace struct {
	Path   string
	token  string
	logger *log.Logger
}

// Create makes a new empty workspace directory under the system temp dir
func Create(logger *log.Logger) (*Workspace, error) {
	path := filepath.Join(os.TempDir(), "ai-review-"+uuid.NewString())
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	return &Workspace{Path: path, logger: logger}, nil
}

// Clone shallow-clones the repository into the workspace and checks out the
// head branch
func (w *Workspace) Clone(ctx context.Context, opts CloneOpts) error {
	w.token = opts.Token
	cloneURL := fmt.Sprintf("https://x-access-token:%s@github.com/%s/%s.git", opts.Token, opts.Owner, opts.Repo)

	if err := w.git(ctx, "", "clone", "--depth", "1", cloneURL, w.Path); err != nil {
		return fmt.Errorf("cloning %s/%s: %w", opts.Owner, opts.Repo, err)
	}
	if err := w.git(ctx, w.Path, "fetch", "--depth", "1", "origin", opts.HeadBranch); err != nil {
		return fmt.Errorf("fetching %s: %w", opts.HeadBranch, err)
	}
	if err := w.git(ctx, w.Path, "checkout", opts.HeadBranch); err != nil {
		return fmt.Errorf("checking out %s: %w", opts.HeadBranch, err)
	}

	w.logger.Printf("workspace ready at %s (%s/%s @ %s)", w.Path, opts.Owner, opts.Repo, opts.HeadBranch)
	return nil
}

// Cleanup removes the workspace directory. Safe to call on every exit path.
func (w *Workspace) Cleanup() {
	if w.Path == "" {
		return
	}
	if err := os.RemoveAll(w.Path); err != nil {
		w.logger.Printf("Warning: failed to remove workspace %s: %v", w.Path, err)
		return
	}
	w.logger.Printf("removed workspace %s", w.Path)
}

// git runs one git command, redacting the token from any error output
func (w *Workspace) git(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s: %v: %s", args[0], err, w.redact(string(output)))
	}
	return nil
}

func (w *Workspace) redact(s string) string {
	if w.token == "" {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(strings.ReplaceAll(s, w.token, "***"))
}
