// Package broom implements the staleness and escalation policy of the bot.
package broom

import (
	"context"

	"github.com/spiffcs/broombot/internal/model"
)

// Host defines the hosting service operations the policy depends on.
// Implementations return plain value records so the policy can be tested
// without network access.
type Host interface {
	// ListPullRequests returns all active pull requests in scope.
	ListPullRequests(ctx context.Context) ([]model.PullRequest, error)

	// ListThreads returns the comment threads of a pull request.
	ListThreads(ctx context.Context, pr model.PullRequest) ([]model.Thread, error)

	// PostComment starts a new thread on the pull request.
	PostComment(ctx context.Context, pr model.PullRequest, body string) error

	// ReplyToThread appends a comment to an existing thread.
	ReplyToThread(ctx context.Context, pr model.PullRequest, thread model.Thread, body string) error

	// Labels
	ListLabels(ctx context.Context, pr model.PullRequest) ([]model.Label, error)
	AddLabel(ctx context.Context, pr model.PullRequest, name string) error
	RemoveLabel(ctx context.Context, pr model.PullRequest, label model.Label) error

	// Abandon sets the pull request status to abandoned.
	Abandon(ctx context.Context, pr model.PullRequest) error
}

// Tracker creates work items in a work-tracking service.
type Tracker interface {
	CreateWorkItem(ctx context.Context, title string) (model.WorkItem, error)
}

// BotMatcher reports whether an author identifier belongs to the bot.
type BotMatcher func(authorID string) bool

// Ensure Engine implements Runner interface.
var _ Runner = (*Engine)(nil)

// Runner executes one full pass of the bot.
type Runner interface {
	Run(ctx context.Context) (*PassResult, error)
}
