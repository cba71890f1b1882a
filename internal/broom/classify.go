package broom

import (
	"context"
	"fmt"
	"time"

	"github.com/spiffcs/broombot/internal/log"
	"github.com/spiffcs/broombot/internal/model"
)

// FindStale fetches the threads of every PR and classifies them.
func (e *Engine) FindStale(ctx context.Context, prs []model.PullRequest) ([]model.StaleResult, error) {
	threads, err := e.fetchThreads(ctx, prs)
	if err != nil {
		return nil, err
	}
	return Classify(prs, threads, e.Cutoff(), e.policy.IsBot), nil
}

// fetchThreads lists the threads of every PR, keyed by PullRequest.Key.
func (e *Engine) fetchThreads(ctx context.Context, prs []model.PullRequest) (map[string][]model.Thread, error) {
	threads := make(map[string][]model.Thread, len(prs))
	for _, pr := range prs {
		ts, err := e.host.ListThreads(ctx, pr)
		if err != nil {
			return nil, fmt.Errorf("failed to list threads for %s: %w", pr.Key(), err)
		}
		threads[pr.Key()] = ts
	}
	return threads, nil
}

// Classify returns the stale subset of prs. threads is keyed by
// PullRequest.Key. A PR is stale when it has no thread or its most recently
// updated thread was last updated strictly before cutoff.
func Classify(prs []model.PullRequest, threads map[string][]model.Thread, cutoff time.Time, isBot BotMatcher) []model.StaleResult {
	var stale []model.StaleResult
	for _, pr := range prs {
		latest, ok := latestThread(threads[pr.Key()])
		if ok && !latest.LastUpdated.Before(cutoff) {
			log.Debug("pull request is active", "pr", pr.Key(), "last_updated", latest.LastUpdated)
			continue
		}

		result := model.StaleResult{PR: pr}
		if ok {
			result.LastActivity = latest.LastUpdated
			if c, has := latest.Latest(); has && isBot != nil {
				result.LastCommentByBot = isBot(c.AuthorID)
			}
		}
		log.Debug("pull request is stale", "pr", pr.Key(), "last_comment_by_bot", result.LastCommentByBot)
		stale = append(stale, result)
	}
	return stale
}

// latestThread picks the thread with the greatest LastUpdated. Ties keep
// the first thread seen.
func latestThread(threads []model.Thread) (model.Thread, bool) {
	if len(threads) == 0 {
		return model.Thread{}, false
	}
	latest := threads[0]
	for _, t := range threads[1:] {
		if t.LastUpdated.After(latest.LastUpdated) {
			latest = t
		}
	}
	return latest, true
}
