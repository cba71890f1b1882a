package workitem

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/broombot/internal/broom"
	"github.com/spiffcs/broombot/internal/model"
)

// Ensure GitHubIssues implements the broom Tracker interface.
var _ broom.Tracker = (*GitHubIssues)(nil)

// GitHubIssues files work items as issues in one repository.
type GitHubIssues struct {
	client *gh.Client
	owner  string
	repo   string
}

// NewGitHubIssues creates a tracker for the owner/name repository.
func NewGitHubIssues(client *gh.Client, fullName string) (*GitHubIssues, error) {
	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("invalid repository %q, expected owner/name", fullName)
	}
	return &GitHubIssues{client: client, owner: owner, repo: repo}, nil
}

// CreateWorkItem opens an issue titled title.
func (g *GitHubIssues) CreateWorkItem(ctx context.Context, title string) (model.WorkItem, error) {
	issue, _, err := g.client.Issues.Create(ctx, g.owner, g.repo, &gh.IssueRequest{
		Title: gh.String(title),
	})
	if err != nil {
		return model.WorkItem{}, fmt.Errorf("failed to create issue in %s/%s: %w", g.owner, g.repo, err)
	}
	return model.WorkItem{
		ID:    strconv.Itoa(issue.GetNumber()),
		Title: issue.GetTitle(),
		URL:   issue.GetHTMLURL(),
	}, nil
}
