package dryrun

import (
	"context"
	"errors"
	"testing"

	"github.com/spiffcs/broombot/internal/model"
)

// recordingHost fails every write so a forwarded call is detectable.
type recordingHost struct {
	listed int
}

var errWrite = errors.New("write reached the real host")

func (r *recordingHost) ListPullRequests(context.Context) ([]model.PullRequest, error) {
	r.listed++
	return []model.PullRequest{{Number: 1}}, nil
}

func (r *recordingHost) ListThreads(context.Context, model.PullRequest) ([]model.Thread, error) {
	return nil, nil
}

func (r *recordingHost) PostComment(context.Context, model.PullRequest, string) error {
	return errWrite
}

func (r *recordingHost) ReplyToThread(context.Context, model.PullRequest, model.Thread, string) error {
	return errWrite
}

func (r *recordingHost) ListLabels(context.Context, model.PullRequest) ([]model.Label, error) {
	return nil, nil
}

func (r *recordingHost) AddLabel(context.Context, model.PullRequest, string) error {
	return errWrite
}

func (r *recordingHost) RemoveLabel(context.Context, model.PullRequest, model.Label) error {
	return errWrite
}

func (r *recordingHost) Abandon(context.Context, model.PullRequest) error {
	return errWrite
}

func TestHost(t *testing.T) {
	ctx := context.Background()
	inner := &recordingHost{}
	h := WrapHost(inner)
	pr := model.PullRequest{Repo: model.Repository{Owner: "acme", Name: "api"}, Number: 1}

	prs, err := h.ListPullRequests(ctx)
	if err != nil || len(prs) != 1 || inner.listed != 1 {
		t.Fatalf("ListPullRequests() = %v, %v; want reads forwarded", prs, err)
	}

	writes := map[string]func() error{
		"PostComment":   func() error { return h.PostComment(ctx, pr, "hi") },
		"ReplyToThread": func() error { return h.ReplyToThread(ctx, pr, model.Thread{ID: "conversation"}, "hi") },
		"AddLabel":      func() error { return h.AddLabel(ctx, pr, "stale") },
		"RemoveLabel":   func() error { return h.RemoveLabel(ctx, pr, model.Label{Name: "stale"}) },
		"Abandon":       func() error { return h.Abandon(ctx, pr) },
	}
	for name, write := range writes {
		if err := write(); err != nil {
			t.Errorf("%s() error = %v, want nil", name, err)
		}
	}
}

func TestTracker(t *testing.T) {
	tr := &Tracker{}

	first, err := tr.CreateWorkItem(context.Background(), "BUG: one")
	if err != nil {
		t.Fatalf("CreateWorkItem() error = %v", err)
	}
	second, _ := tr.CreateWorkItem(context.Background(), "BUG: two")

	if first.Title != "BUG: one" {
		t.Errorf("Title = %q, want %q", first.Title, "BUG: one")
	}
	if first.ID == second.ID {
		t.Errorf("IDs should differ, both %q", first.ID)
	}
	if first.URL != PlaceholderURL+"/dry-run-1" {
		t.Errorf("URL = %q", first.URL)
	}
}
