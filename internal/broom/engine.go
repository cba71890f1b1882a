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

// ReviewerPlaceholder is replaced with the first reviewer's identifier in
// the warning and abandonment templates.
const ReviewerPlaceholder = "{reviewer}"

// Policy holds the tunables of the staleness policy.
type Policy struct {
	// StaleAfter is how long a PR may go without thread activity.
	StaleAfter time.Duration

	// IsBot identifies comments written by the bot itself.
	IsBot BotMatcher

	WarningPrefix  string
	WarningCount   int
	WarningMessage string
	AbandonMessage string

	// Keywords are matched case-insensitively in configured order.
	Keywords []string
}

// Validate checks that the policy can drive a pass.
func (p Policy) Validate() error {
	var errs []error
	if p.StaleAfter <= 0 {
		errs = append(errs, fmt.Errorf("stale-after must be positive, got %s", p.StaleAfter))
	}
	if p.IsBot == nil {
		errs = append(errs, errors.New("bot matcher is required"))
	}
	if strings.TrimSpace(p.WarningPrefix) == "" {
		errs = append(errs, errors.New("warning prefix must not be empty"))
	}
	if p.WarningCount < 1 {
		errs = append(errs, fmt.Errorf("warning count must be at least 1, got %d", p.WarningCount))
	}
	return errors.Join(errs...)
}

// Engine runs the policy against a Host and a Tracker.
type Engine struct {
	host    Host
	tracker Tracker
	policy  Policy
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine. A nil tracker disables the keyword trigger.
func NewEngine(host Host, tracker Tracker, policy Policy, opts ...Option) *Engine {
	e := &Engine{
		host:    host,
		tracker: tracker,
		policy:  policy,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cutoff returns the timestamp before which activity counts as stale.
func (e *Engine) Cutoff() time.Time {
	return e.now().Add(-e.policy.StaleAfter)
}

// PassResult summarizes one run of the bot.
type PassResult struct {
	StartedAt    time.Time           `json:"startedAt"`
	Cutoff       time.Time           `json:"cutoff"`
	Scanned      int                 `json:"scanned"`
	Stale        []model.StaleResult `json:"stale"`
	Escalation   EscalationReport    `json:"escalation"`
	Abandoned    []model.PullRequest `json:"abandoned"`
	AbandonError string              `json:"abandonError,omitempty"`
	Triggers     []Trigger           `json:"triggers"`
}

// Run executes one pass: keyword scan, staleness classification,
// escalation and abandonment. Threads are fetched once and both the scan
// and the classification read that snapshot, so the confirmation reply
// posted by the scan does not refresh a stale PR. Keywords are scanned
// first so that the warning comment posted by escalation does not hide a
// human comment.
func (e *Engine) Run(ctx context.Context) (*PassResult, error) {
	res := &PassResult{StartedAt: e.now().UTC(), Cutoff: e.Cutoff().UTC()}

	prs, err := e.host.ListPullRequests(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list pull requests: %w", err)
	}
	res.Scanned = len(prs)
	log.Info("listed active pull requests", "count", len(prs))

	threads, err := e.fetchThreads(ctx, prs)
	if err != nil {
		return res, err
	}

	if e.tracker != nil && len(e.policy.Keywords) > 0 {
		triggers, err := e.scanThreads(ctx, prs, threads)
		res.Triggers = triggers
		if err != nil {
			return res, err
		}
	}

	stale := Classify(prs, threads, e.Cutoff(), e.policy.IsBot)
	res.Stale = stale
	log.Info("classified pull requests", "stale", len(stale), "cutoff", res.Cutoff.Format(time.RFC3339))

	report, err := e.Escalate(ctx, stale)
	res.Escalation = report
	if err != nil {
		return res, err
	}

	abandoned, err := e.Abandon(ctx, report.Candidates)
	res.Abandoned = abandoned
	if err != nil {
		res.AbandonError = err.Error()
		return res, err
	}

	return res, nil
}
