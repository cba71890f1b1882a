package broom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spiffcs/broombot/internal/log"
	"github.com/spiffcs/broombot/internal/model"
)

// LabelTimeLayout is the timestamp layout of warning labels. It is fixed
// and always rendered in UTC so labels can be parsed back unambiguously.
const LabelTimeLayout = "2006-01-02T15:04Z"

// ErrAbandonFailed is returned when any abandonment in a batch fails.
var ErrAbandonFailed = errors.New("abandonment failed")

// Action is the escalation step applied to a stale PR.
type Action string

const (
	// ActionWarn posts the warning message.
	ActionWarn Action = "warn"
	// ActionReset clears prior warnings after human activity, then warns.
	ActionReset Action = "reset"
	// ActionAbandon posts the abandonment message and marks a candidate.
	ActionAbandon Action = "abandon"
)

// Escalation records what was done to a single stale PR.
type Escalation struct {
	PR            model.PullRequest `json:"pr"`
	Action        Action            `json:"action"`
	PriorWarnings int               `json:"priorWarnings"`
	RemovedLabels int               `json:"removedLabels"`
	AddedLabel    string            `json:"addedLabel"`
	LastActivity  time.Time         `json:"lastActivity"`
}

// EscalationReport is the output of Escalate.
type EscalationReport struct {
	Actions    []Escalation        `json:"actions"`
	Candidates []model.PullRequest `json:"candidates"`
}

// WarningLabel formats the label name stamped on a PR at t.
func WarningLabel(prefix string, t time.Time) string {
	return fmt.Sprintf("%s: (UTC) %s", prefix, t.UTC().Format(LabelTimeLayout))
}

// RenderMessage substitutes the reviewer into a comment template.
func RenderMessage(template, reviewer string) string {
	return strings.ReplaceAll(template, ReviewerPlaceholder, reviewer)
}

// Escalate warns every stale PR and returns the PRs whose warning count
// reached the threshold.
//
// When the last comment was not the bot's, prior warning labels are removed
// before the new warning label is added, so such a PR ends the pass with
// exactly one warning label.
func (e *Engine) Escalate(ctx context.Context, stale []model.StaleResult) (EscalationReport, error) {
	var report EscalationReport

	for _, s := range stale {
		pr := s.PR
		labels, err := e.host.ListLabels(ctx, pr)
		if err != nil {
			return report, fmt.Errorf("failed to list labels for %s: %w", pr.Key(), err)
		}

		warnings := e.warningLabels(labels)
		esc := Escalation{
			PR:            pr,
			PriorWarnings: len(warnings),
			LastActivity:  s.LastActivity,
		}

		message := e.policy.WarningMessage
		switch {
		case !s.LastCommentByBot:
			esc.Action = ActionReset
			for _, l := range warnings {
				if err := e.host.RemoveLabel(ctx, pr, l); err != nil {
					return report, fmt.Errorf("failed to remove label %q from %s: %w", l.Name, pr.Key(), err)
				}
				esc.RemovedLabels++
			}
		case len(warnings) >= e.policy.WarningCount:
			esc.Action = ActionAbandon
			message = e.policy.AbandonMessage
			report.Candidates = append(report.Candidates, pr)
		default:
			esc.Action = ActionWarn
		}

		if err := e.host.PostComment(ctx, pr, RenderMessage(message, pr.FirstReviewer())); err != nil {
			return report, fmt.Errorf("failed to comment on %s: %w", pr.Key(), err)
		}

		esc.AddedLabel = WarningLabel(e.policy.WarningPrefix, e.now())
		if err := e.host.AddLabel(ctx, pr, esc.AddedLabel); err != nil {
			return report, fmt.Errorf("failed to label %s: %w", pr.Key(), err)
		}

		log.Info("escalated stale pull request",
			"pr", pr.Key(),
			"action", esc.Action,
			"prior_warnings", esc.PriorWarnings,
			"removed", esc.RemovedLabels)
		report.Actions = append(report.Actions, esc)
	}

	return report, nil
}

// Abandon sets every candidate to abandoned, in order, and returns the PRs
// it abandoned. The first failure stops the batch. Candidates processed
// before the failure stay abandoned and are returned with the error.
func (e *Engine) Abandon(ctx context.Context, candidates []model.PullRequest) ([]model.PullRequest, error) {
	var abandoned []model.PullRequest
	for _, pr := range candidates {
		if err := e.host.Abandon(ctx, pr); err != nil {
			log.Error("failed to abandon pull request", "pr", pr.Key(), "error", err)
			return abandoned, fmt.Errorf("%w: %s: %w", ErrAbandonFailed, pr.Key(), err)
		}
		log.Info("abandoned pull request", "pr", pr.Key())
		abandoned = append(abandoned, pr)
	}
	return abandoned, nil
}

func (e *Engine) warningLabels(labels []model.Label) []model.Label {
	var out []model.Label
	for _, l := range labels {
		if strings.HasPrefix(l.Name, e.policy.WarningPrefix) {
			out = append(out, l)
		}
	}
	return out
}
