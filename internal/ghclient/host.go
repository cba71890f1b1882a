package ghclient

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/broombot/internal/broom"
	"github.com/spiffcs/broombot/internal/constants"
	"github.com/spiffcs/broombot/internal/log"
	"github.com/spiffcs/broombot/internal/model"
)

// Ensure Client implements the broom Host interface.
var _ broom.Host = (*Client)(nil)

// ListPullRequests returns the open pull requests of every repository in
// scope. Open PRs are the bot's active PRs.
func (c *Client) ListPullRequests(ctx context.Context) ([]model.PullRequest, error) {
	repos, err := c.repositories(ctx)
	if err != nil {
		return nil, err
	}

	var prs []model.PullRequest
	for _, repo := range repos {
		if c.opts.Exclude(repo.FullName()) {
			log.Debug("skipping excluded repository", "repo", repo.FullName())
			continue
		}

		opts := &gh.PullRequestListOptions{
			State:       "open",
			ListOptions: gh.ListOptions{PerPage: constants.PageSize},
		}
		for {
			page, resp, err := c.rest.PullRequests.List(ctx, repo.Owner, repo.Name, opts)
			if err != nil {
				return nil, fmt.Errorf("failed to list pull requests for %s: %w", repo.FullName(), err)
			}
			for _, pr := range page {
				prs = append(prs, toPullRequest(repo, pr))
			}
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
	}
	return prs, nil
}

// repositories returns the configured repositories, or every non-archived
// repository of the owner organization.
func (c *Client) repositories(ctx context.Context) ([]model.Repository, error) {
	if len(c.opts.Repos) > 0 {
		repos := make([]model.Repository, 0, len(c.opts.Repos))
		for _, name := range c.opts.Repos {
			repos = append(repos, model.Repository{Owner: c.opts.Owner, Name: name})
		}
		return repos, nil
	}

	var repos []model.Repository
	opts := &gh.RepositoryListByOrgOptions{
		Type:        "all",
		ListOptions: gh.ListOptions{PerPage: constants.PageSize},
	}
	for {
		page, resp, err := c.rest.Repositories.ListByOrg(ctx, c.opts.Owner, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories for %s: %w", c.opts.Owner, err)
		}
		for _, r := range page {
			if r.GetArchived() {
				continue
			}
			repos = append(repos, model.Repository{Owner: c.opts.Owner, Name: r.GetName()})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return repos, nil
}

func toPullRequest(repo model.Repository, pr *gh.PullRequest) model.PullRequest {
	reviewers := make([]string, 0, len(pr.RequestedReviewers))
	for _, u := range pr.RequestedReviewers {
		reviewers = append(reviewers, u.GetLogin())
	}

	status := model.StatusActive
	if pr.GetState() == "closed" {
		status = model.StatusAbandoned
	}

	return model.PullRequest{
		Repo:      repo,
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Author:    pr.GetUser().GetLogin(),
		Reviewers: reviewers,
		Status:    status,
		HTMLURL:   pr.GetHTMLURL(),
		CreatedAt: pr.GetCreatedAt().Time,
	}
}

// PostComment adds a comment to the PR conversation.
func (c *Client) PostComment(ctx context.Context, pr model.PullRequest, body string) error {
	_, _, err := c.rest.Issues.CreateComment(ctx, pr.Repo.Owner, pr.Repo.Name, pr.Number, &gh.IssueComment{
		Body: gh.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to comment on %s: %w", pr.Key(), err)
	}
	return nil
}

// ReplyToThread replies inside a review thread, or comments on the
// conversation for the conversation thread.
func (c *Client) ReplyToThread(ctx context.Context, pr model.PullRequest, thread model.Thread, body string) error {
	// GitHub only accepts replies to the top-level comment of a thread.
	root := thread.RootCommentID
	if root == 0 && len(thread.Comments) > 0 {
		root = thread.Comments[0].ID
	}
	if thread.Kind != model.ThreadReview || root == 0 {
		return c.PostComment(ctx, pr, body)
	}

	_, _, err := c.rest.PullRequests.CreateCommentInReplyTo(ctx, pr.Repo.Owner, pr.Repo.Name, pr.Number, body, root)
	if err != nil {
		return fmt.Errorf("failed to reply to thread %s on %s: %w", thread.ID, pr.Key(), err)
	}
	return nil
}

// ListLabels returns the labels of a pull request.
func (c *Client) ListLabels(ctx context.Context, pr model.PullRequest) ([]model.Label, error) {
	var labels []model.Label
	opts := &gh.ListOptions{PerPage: constants.PageSize}
	for {
		page, resp, err := c.rest.Issues.ListLabelsByIssue(ctx, pr.Repo.Owner, pr.Repo.Name, pr.Number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list labels for %s: %w", pr.Key(), err)
		}
		for _, l := range page {
			labels = append(labels, model.Label{ID: l.GetID(), Name: l.GetName()})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return labels, nil
}

// AddLabel attaches a label, creating it in the repository if needed.
func (c *Client) AddLabel(ctx context.Context, pr model.PullRequest, name string) error {
	if _, _, err := c.rest.Issues.AddLabelsToIssue(ctx, pr.Repo.Owner, pr.Repo.Name, pr.Number, []string{name}); err != nil {
		return fmt.Errorf("failed to add label %q to %s: %w", name, pr.Key(), err)
	}
	return nil
}

// RemoveLabel detaches a label from the pull request.
func (c *Client) RemoveLabel(ctx context.Context, pr model.PullRequest, label model.Label) error {
	if _, err := c.rest.Issues.RemoveLabelForIssue(ctx, pr.Repo.Owner, pr.Repo.Name, pr.Number, label.Name); err != nil {
		return fmt.Errorf("failed to remove label %q from %s: %w", label.Name, pr.Key(), err)
	}
	return nil
}

// Abandon closes the pull request without merging.
func (c *Client) Abandon(ctx context.Context, pr model.PullRequest) error {
	_, _, err := c.rest.PullRequests.Edit(ctx, pr.Repo.Owner, pr.Repo.Name, pr.Number, &gh.PullRequest{
		State: gh.String("closed"),
	})
	if err != nil {
		return fmt.Errorf("failed to close %s: %w", pr.Key(), err)
	}
	return nil
}

func threadID(kind model.ThreadKind, id string) string {
	if id == "" {
		return string(kind)
	}
	return string(kind) + ":" + id
}
