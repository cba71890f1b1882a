package broom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spiffcs/broombot/internal/model"
)

const testBot = "broombot[bot]"

var errRemote = errors.New("remote unavailable")

// fakeHost is an in-memory Host that records every mutation.
type fakeHost struct {
	prs     []model.PullRequest
	threads map[string][]model.Thread
	labels  map[string][]model.Label
	nextID  int64

	comments  map[string][]string
	replies   map[string][]string
	abandoned []string

	listErr     error
	commentErr  error
	abandonFail map[string]bool
}

func newFakeHost(prs ...model.PullRequest) *fakeHost {
	return &fakeHost{
		prs:         prs,
		threads:     map[string][]model.Thread{},
		labels:      map[string][]model.Label{},
		comments:    map[string][]string{},
		replies:     map[string][]string{},
		abandonFail: map[string]bool{},
	}
}

func (f *fakeHost) ListPullRequests(_ context.Context) ([]model.PullRequest, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.prs, nil
}

func (f *fakeHost) ListThreads(_ context.Context, pr model.PullRequest) ([]model.Thread, error) {
	return f.threads[pr.Key()], nil
}

func (f *fakeHost) PostComment(_ context.Context, pr model.PullRequest, body string) error {
	if f.commentErr != nil {
		return f.commentErr
	}
	f.comments[pr.Key()] = append(f.comments[pr.Key()], body)
	return nil
}

// ReplyToThread records the reply and refreshes the thread the way a real
// host would. The stored slice is replaced so earlier ListThreads results
// are not mutated.
func (f *fakeHost) ReplyToThread(_ context.Context, pr model.PullRequest, thread model.Thread, body string) error {
	key := pr.Key() + "/" + thread.ID
	f.replies[key] = append(f.replies[key], body)

	updated := make([]model.Thread, len(f.threads[pr.Key()]))
	for i, t := range f.threads[pr.Key()] {
		if t.ID == thread.ID {
			t.Comments = append(append([]model.Comment(nil), t.Comments...), comment(testBot, body))
			t.LastUpdated = testNow
		}
		updated[i] = t
	}
	f.threads[pr.Key()] = updated
	return nil
}

func (f *fakeHost) ListLabels(_ context.Context, pr model.PullRequest) ([]model.Label, error) {
	return append([]model.Label(nil), f.labels[pr.Key()]...), nil
}

func (f *fakeHost) AddLabel(_ context.Context, pr model.PullRequest, name string) error {
	f.nextID++
	f.labels[pr.Key()] = append(f.labels[pr.Key()], model.Label{ID: f.nextID, Name: name})
	return nil
}

func (f *fakeHost) RemoveLabel(_ context.Context, pr model.PullRequest, label model.Label) error {
	kept := f.labels[pr.Key()][:0]
	for _, l := range f.labels[pr.Key()] {
		if l.ID != label.ID {
			kept = append(kept, l)
		}
	}
	f.labels[pr.Key()] = kept
	return nil
}

func (f *fakeHost) Abandon(_ context.Context, pr model.PullRequest) error {
	if f.abandonFail[pr.Key()] {
		return errRemote
	}
	f.abandoned = append(f.abandoned, pr.Key())
	return nil
}

func (f *fakeHost) countLabels(pr model.PullRequest, prefix string) int {
	n := 0
	for _, l := range f.labels[pr.Key()] {
		if strings.HasPrefix(l.Name, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeHost) seedWarnings(pr model.PullRequest, n int) {
	for i := 0; i < n; i++ {
		_ = f.AddLabel(context.Background(), pr, fmt.Sprintf("%s: (UTC) 2024-01-0%dT00:00Z", testPrefix, i+1))
	}
}

// fakeTracker returns sequential work items or a fixed error.
type fakeTracker struct {
	titles []string
	err    error
}

func (t *fakeTracker) CreateWorkItem(_ context.Context, title string) (model.WorkItem, error) {
	t.titles = append(t.titles, title)
	if t.err != nil {
		return model.WorkItem{}, t.err
	}
	id := fmt.Sprintf("%d", len(t.titles))
	return model.WorkItem{ID: id, Title: title, URL: "https://tracker.example/items/" + id}, nil
}

const testPrefix = "stale-warning"

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func testPolicy() Policy {
	return Policy{
		StaleAfter:     7 * 24 * time.Hour,
		IsBot:          func(id string) bool { return id == testBot },
		WarningPrefix:  testPrefix,
		WarningCount:   3,
		WarningMessage: "@{reviewer} this PR is stale",
		AbandonMessage: "@{reviewer} this PR will be abandoned",
		Keywords:       []string{"BUG", "TODO"},
	}
}

func makePR(n int, reviewers ...string) model.PullRequest {
	return model.PullRequest{
		Repo:      model.Repository{Owner: "acme", Name: "widgets"},
		Number:    n,
		Author:    "author",
		Reviewers: reviewers,
		Status:    model.StatusActive,
	}
}

func makeThread(id string, updated time.Time, comments ...model.Comment) model.Thread {
	return model.Thread{ID: id, Kind: model.ThreadConversation, LastUpdated: updated, Comments: comments}
}

func comment(author, content string) model.Comment {
	return model.Comment{AuthorID: author, Content: content}
}
