// Package model defines the value records exchanged between the hosting
// service adapters and the staleness policy engine.
package model

import (
	"fmt"
	"time"
)

// PRStatus is the lifecycle status of a pull request as seen by the bot.
type PRStatus string

const (
	StatusActive    PRStatus = "active"
	StatusAbandoned PRStatus = "abandoned"
)

// Repository identifies the repository that owns a pull request.
type Repository struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// FullName returns owner/name.
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// PullRequest is a read-only snapshot of a pull request for one run.
type PullRequest struct {
	Repo      Repository `json:"repo"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	Reviewers []string   `json:"reviewers"`
	Status    PRStatus   `json:"status"`
	HTMLURL   string     `json:"htmlUrl"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Key returns a stable identifier such as "owner/repo#12".
func (p PullRequest) Key() string {
	return fmt.Sprintf("%s#%d", p.Repo.FullName(), p.Number)
}

// FirstReviewer returns the identifier used to address the warning comment.
// PRs without reviewers fall back to the author.
func (p PullRequest) FirstReviewer() string {
	if len(p.Reviewers) > 0 {
		return p.Reviewers[0]
	}
	return p.Author
}

// ThreadKind distinguishes the PR conversation from review threads.
type ThreadKind string

const (
	ThreadConversation ThreadKind = "conversation"
	ThreadReview       ThreadKind = "review"
)

// Comment is a single comment in a thread.
type Comment struct {
	ID        int64     `json:"id"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Thread is an ordered sequence of comments, oldest first.
type Thread struct {
	ID          string     `json:"id"`
	Kind        ThreadKind `json:"kind"`
	Status      string     `json:"status"`
	LastUpdated time.Time  `json:"lastUpdated"`
	Comments    []Comment  `json:"comments"`

	// RootCommentID is the first comment of a review thread, which replies
	// must target. Comments may start later when the thread is long.
	RootCommentID int64 `json:"rootCommentId,omitempty"`
}

// Latest returns the most recent comment of the thread.
func (t Thread) Latest() (Comment, bool) {
	if len(t.Comments) == 0 {
		return Comment{}, false
	}
	return t.Comments[len(t.Comments)-1], true
}

// Label is a tag attached to a pull request.
type Label struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// StaleResult is the classifier output for one stale pull request.
type StaleResult struct {
	PR               PullRequest `json:"pr"`
	LastCommentByBot bool        `json:"lastCommentByBot"`
	// LastActivity is zero when the PR has no thread at all.
	LastActivity time.Time `json:"lastActivity"`
}

// WorkItem is a tracked item created from a PR comment.
type WorkItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}
