// Package dryrun wraps a Host and a Tracker so that a pass reads real data
// but writes nothing.
package dryrun

import (
	"context"
	"fmt"

	"github.com/spiffcs/broombot/internal/broom"
	"github.com/spiffcs/broombot/internal/log"
	"github.com/spiffcs/broombot/internal/model"
)

// PlaceholderURL is the link reported for work items that were not created.
const PlaceholderURL = "https://example.invalid/dry-run"

// Host forwards reads to the wrapped host and logs writes instead of
// performing them.
type Host struct {
	broom.Host
}

// Ensure Host implements the broom Host interface.
var _ broom.Host = Host{}

// WrapHost returns a read-only view of h.
func WrapHost(h broom.Host) Host {
	return Host{Host: h}
}

func (h Host) PostComment(_ context.Context, pr model.PullRequest, body string) error {
	log.Info("dry run: would comment", "pr", pr.Key(), "body", body)
	return nil
}

func (h Host) ReplyToThread(_ context.Context, pr model.PullRequest, thread model.Thread, body string) error {
	log.Info("dry run: would reply", "pr", pr.Key(), "thread", thread.ID, "body", body)
	return nil
}

func (h Host) AddLabel(_ context.Context, pr model.PullRequest, name string) error {
	log.Info("dry run: would add label", "pr", pr.Key(), "label", name)
	return nil
}

func (h Host) RemoveLabel(_ context.Context, pr model.PullRequest, label model.Label) error {
	log.Info("dry run: would remove label", "pr", pr.Key(), "label", label.Name)
	return nil
}

func (h Host) Abandon(_ context.Context, pr model.PullRequest) error {
	log.Info("dry run: would abandon", "pr", pr.Key())
	return nil
}

// Tracker reports work items without creating them.
type Tracker struct {
	created int
}

// Ensure Tracker implements the broom Tracker interface.
var _ broom.Tracker = (*Tracker)(nil)

func (t *Tracker) CreateWorkItem(_ context.Context, title string) (model.WorkItem, error) {
	t.created++
	id := fmt.Sprintf("dry-run-%d", t.created)
	log.Info("dry run: would create work item", "title", title)
	return model.WorkItem{ID: id, Title: title, URL: PlaceholderURL + "/" + id}, nil
}
