package session

import (
	"context"
	"log"

	"github.com/env0/claude-pr-reviewer/internal/gitops"
)

// Cloner materializes a disposable workspace for one session. It exists as
// an interface so tests can substitute a prepared directory.
type Cloner interface {
	// Prepare creates the workspace and checks out the head branch. The
	// returned cleanup must run on every exit path.
	Prepare(ctx context.Context, opts gitops.CloneOpts) (path string, cleanup func(), err error)
}

// gitCloner is the production Cloner backed by gitops
type gitCloner struct {
	logger *log.Logger
}

// NewCloner creates the production workspace cloner
func NewCloner(logger *log.Logger) Cloner {
	return &gitCloner{logger: logger}
}

func (c *gitCloner) Prepare(ctx context.Context, opts gitops.CloneOpts) (string, func(), error) {
	ws, err := gitops.Create(c.logger)
	if err != nil {
		return "", nil, err
	}
	if err := ws.Clone(ctx, opts); err != nil {
		ws.Cleanup()
		return "", nil, err
	}
	return ws.Path, ws.Cleanup, nil
}
