package broom

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spiffcs/broombot/internal/log"
	"github.com/spiffcs/broombot/internal/model"
)

// WorkItemMessage is the confirmation posted after a work item is created.
const WorkItemMessage = "Work item created by bot. See link: %s"

// Trigger records a keyword match in a PR comment.
type Trigger struct {
	PR       model.PullRequest `json:"pr"`
	ThreadID string            `json:"threadId"`
	Keyword  string            `json:"keyword"`
	Title    string            `json:"title"`
	WorkItem *model.WorkItem   `json:"workItem,omitempty"`
}

// MatchKeyword returns the first keyword found in content, in keyword
// order, and the substring of content from the match to the end.
func MatchKeyword(content string, keywords []string) (keyword, title string, ok bool) {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if idx := indexFold(content, kw); idx >= 0 {
			return kw, content[idx:], true
		}
	}
	return "", "", false
}

// indexFold is a case-insensitive strings.Index. The returned offset is a
// byte offset into s.
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return -1
}

// ScanKeywords converts keyword mentions in the latest human comment of
// each thread into work items. Work item creation failures are logged and
// dropped; only host failures are returned.
func (e *Engine) ScanKeywords(ctx context.Context, prs []model.PullRequest) ([]Trigger, error) {
	threads, err := e.fetchThreads(ctx, prs)
	if err != nil {
		return nil, err
	}
	return e.scanThreads(ctx, prs, threads)
}

// scanThreads is ScanKeywords over threads already fetched.
func (e *Engine) scanThreads(ctx context.Context, prs []model.PullRequest, threads map[string][]model.Thread) ([]Trigger, error) {
	var triggers []Trigger

	for _, pr := range prs {
		for _, thread := range threads[pr.Key()] {
			latest, ok := thread.Latest()
			if !ok || e.policy.IsBot(latest.AuthorID) {
				continue
			}

			keyword, title, ok := MatchKeyword(latest.Content, e.policy.Keywords)
			if !ok {
				continue
			}

			trigger := Trigger{PR: pr, ThreadID: thread.ID, Keyword: keyword, Title: title}
			item, err := e.tracker.CreateWorkItem(ctx, title)
			if err != nil {
				log.Warn("work item creation failed", "pr", pr.Key(), "keyword", keyword, "error", err)
				triggers = append(triggers, trigger)
				continue
			}
			trigger.WorkItem = &item

			if err := e.host.ReplyToThread(ctx, pr, thread, fmt.Sprintf(WorkItemMessage, item.URL)); err != nil {
				return triggers, fmt.Errorf("failed to confirm work item on %s: %w", pr.Key(), err)
			}
			log.Info("created work item from comment", "pr", pr.Key(), "keyword", keyword, "work_item", item.ID)
			triggers = append(triggers, trigger)
		}
	}

	return triggers, nil
}
