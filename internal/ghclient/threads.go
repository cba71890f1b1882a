package ghclient

import (
	"context"
	"fmt"
	"time"

	"github.com/shurcooL/githubv4"

	"github.com/spiffcs/broombot/internal/model"
)

// gqlComment is the comment shape shared by conversation and review threads.
type gqlComment struct {
	DatabaseID int64 `graphql:"databaseId"`
	Author     struct {
		Login string
	}
	Body      string
	CreatedAt githubv4.DateTime
	UpdatedAt githubv4.DateTime
}

// threadsQuery reads a PR's opening post, its latest conversation comments
// and its review threads in one round trip.
type threadsQuery struct {
	Repository struct {
		PullRequest struct {
			Author struct {
				Login string
			}
			Body      string
			CreatedAt githubv4.DateTime
			Comments  struct {
				Nodes []gqlComment
			} `graphql:"comments(last: 100)"`
			ReviewThreads struct {
				Nodes []struct {
					ID          string
					IsResolved  bool
					RootComment struct {
						Nodes []gqlComment
					} `graphql:"rootComment: comments(first: 1)"`
					Comments struct {
						Nodes []gqlComment
					} `graphql:"comments(last: 100)"`
				}
			} `graphql:"reviewThreads(last: 100)"`
		} `graphql:"pullRequest(number: $number)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// ListThreads returns the PR conversation as one thread, opened by the PR
// description, followed by one thread per review thread.
func (c *Client) ListThreads(ctx context.Context, pr model.PullRequest) ([]model.Thread, error) {
	var q threadsQuery
	vars := map[string]interface{}{
		"owner":  githubv4.String(pr.Repo.Owner),
		"name":   githubv4.String(pr.Repo.Name),
		"number": githubv4.Int(pr.Number),
	}
	if err := c.gql.Query(ctx, &q, vars); err != nil {
		return nil, fmt.Errorf("failed to query threads for %s: %w", pr.Key(), err)
	}

	p := q.Repository.PullRequest
	opening := model.Comment{
		AuthorID:  p.Author.Login,
		Content:   p.Body,
		CreatedAt: p.CreatedAt.Time,
		UpdatedAt: p.CreatedAt.Time,
	}
	conversation := model.Thread{
		ID:       threadID(model.ThreadConversation, ""),
		Kind:     model.ThreadConversation,
		Status:   "active",
		Comments: append([]model.Comment{opening}, toComments(p.Comments.Nodes)...),
	}
	conversation.LastUpdated = lastUpdated(conversation.Comments)
	threads := []model.Thread{conversation}

	for _, rt := range p.ReviewThreads.Nodes {
		if len(rt.Comments.Nodes) == 0 {
			continue
		}
		status := "active"
		if rt.IsResolved {
			status = "resolved"
		}
		comments := toComments(rt.Comments.Nodes)
		thread := model.Thread{
			ID:          threadID(model.ThreadReview, rt.ID),
			Kind:        model.ThreadReview,
			Status:      status,
			LastUpdated: lastUpdated(comments),
			Comments:    comments,
		}
		if len(rt.RootComment.Nodes) > 0 {
			thread.RootCommentID = rt.RootComment.Nodes[0].DatabaseID
		}
		threads = append(threads, thread)
	}

	return threads, nil
}

func toComments(nodes []gqlComment) []model.Comment {
	comments := make([]model.Comment, 0, len(nodes))
	for _, n := range nodes {
		comments = append(comments, model.Comment{
			ID:        n.DatabaseID,
			AuthorID:  n.Author.Login,
			Content:   n.Body,
			CreatedAt: n.CreatedAt.Time,
			UpdatedAt: n.UpdatedAt.Time,
		})
	}
	return comments
}

func lastUpdated(comments []model.Comment) time.Time {
	var latest time.Time
	for _, c := range comments {
		if c.UpdatedAt.After(latest) {
			latest = c.UpdatedAt
		}
		if c.CreatedAt.After(latest) {
			latest = c.CreatedAt
		}
	}
	return latest
}
