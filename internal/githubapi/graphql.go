package githubapi

import (
	"context"
	"fmt"
)

// Thread resolution is a GraphQL-only capability: the REST API can create and
// list review comments but cannot mark their threads resolved. One query maps
// comment database ids to thread node ids, then each thread is resolved with
// the resolveReviewThread mutation.

const threadQuery = `query($owner: String!, $repo: String!, $number: Int!) {
  repository(owner: $owner, name: $repo) {
    pullRequest(number: $number) {
      reviewThreads(first: 100) {
        nodes {
          id
          isResolved
          comments(first: 1) {
            nodes { databaseId }
          }
        }
      }
    }
  }
}`

const resolveMutation = `mutation($threadId: ID!) {
  resolveReviewThread(input: {threadId: $threadId}) {
    thread { id }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type threadQueryResponse struct {
	Data struct {
		Repository struct {
			PullRequest struct {
				ReviewThreads struct {
					Nodes []struct {
						ID         string `json:"id"`
						IsResolved bool   `json:"isResolved"`
						Comments   struct {
							Nodes []struct {
								DatabaseID int64 `json:"databaseId"`
							} `json:"nodes"`
						} `json:"comments"`
					} `json:"nodes"`
				} `json:"reviewThreads"`
			} `json:"pullRequest"`
		} `json:"repository"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type mutationResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *client) ResolveThreads(ctx context.Context, owner, repo string, number int, commentIDs []int64) error {
	if len(commentIDs) == 0 {
		return nil
	}

	threads, err := c.threadIDs(ctx, owner, repo, number)
	if err != nil {
		return err
	}

	wanted := make(map[int64]bool, len(commentIDs))
	for _, id := range commentIDs {
		wanted[id] = true
	}

	for commentID, threadID := range threads {
		if !wanted[commentID] {
			continue
		}
		if err := c.resolveThread(ctx, threadID); err != nil {
			return fmt.Errorf("resolving thread for comment %d: %w", commentID, err)
		}
		c.logger.Printf("resolved review thread for comment %d on %s/%s#%d", commentID, owner, repo, number)
	}
	return nil
}

// threadIDs maps first-comment database ids to unresolved thread node ids
func (c *client) threadIDs(ctx context.Context, owner, repo string, number int) (map[int64]string, error) {
	req, err := c.gh.NewRequest("POST", "graphql", graphQLRequest{
		Query: threadQuery,
		Variables: map[string]any{
			"owner":  owner,
			"repo":   repo,
			"number": number,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("building thread query: %w", err)
	}

	var resp threadQueryResponse
	if _, err := c.gh.Do(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("querying review threads: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("querying review threads: %s", resp.Errors[0].Message)
	}

	threads := make(map[int64]string)
	for _, node := range resp.Data.Repository.PullRequest.ReviewThreads.Nodes {
		if node.IsResolved || len(node.Comments.Nodes) == 0 {
			continue
		}
		threads[node.Comments.Nodes[0].DatabaseID] = node.ID
	}
	return threads, nil
}

func (c *client) resolveThread(ctx context.Context, threadID string) error {
	req, err := c.gh.NewRequest("POST", "graphql", graphQLRequest{
		Query:     resolveMutation,
		Variables: map[string]any{"threadId": threadID},
	})
	if err != nil {
		return fmt.Errorf("building resolve mutation: %w", err)
	}

	var resp mutationResponse
	if _, err := c.gh.Do(ctx, req, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		return fmt.Errorf("%s", resp.Errors[0].Message)
	}
	return nil
}
