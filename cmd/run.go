package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/spiffcs/broombot/config"
	"github.com/spiffcs/broombot/internal/broom"
	"github.com/spiffcs/broombot/internal/dryrun"
	"github.com/spiffcs/broombot/internal/ghclient"
	"github.com/spiffcs/broombot/internal/history"
	"github.com/spiffcs/broombot/internal/log"
	"github.com/spiffcs/broombot/internal/report"
	"github.com/spiffcs/broombot/internal/workitem"
)

// NewCmdRun creates the run command.
func NewCmdRun(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one pass over all active pull requests (same as root broombot)",
		Long: `Lists the active pull requests, turns keyword comments into work items,
warns on stale pull requests and abandons the ones that were warned too often.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPass(cmd, opts)
		},
	}
	addRunFlags(cmd, opts)
	return cmd
}

func addRunFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "table", "Report format (table, json)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Read pull requests but do not comment, label, abandon or create work items")

	// Profiling flags
	cmd.Flags().StringVar(&opts.CPUProfile, "cpuprofile", "", "Write CPU profile to file")
	cmd.Flags().StringVar(&opts.MemProfile, "memprofile", "", "Write memory profile to file")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", "Write execution trace to file")
}

func runPass(cmd *cobra.Command, opts *Options) error {
	if err := validateOutput(opts.Output); err != nil {
		return err
	}

	profiler := NewProfiler(opts)
	if err := profiler.Start(); err != nil {
		return err
	}
	defer profiler.Stop()

	ctx := cmd.Context()
	b, err := setupBot(ctx, opts)
	if err != nil {
		return err
	}
	return b.pass(ctx, cmd.OutOrStdout())
}

// bot bundles the loaded configuration and the engine built from it.
type bot struct {
	cfg       *config.Config
	engine    *broom.Engine
	formatter report.Formatter
	// history is nil when the history file cannot be used.
	history *history.Store
}

// pass runs the engine once and renders its report. The report is rendered
// even when the pass fails part way.
func (b *bot) pass(ctx context.Context, w io.Writer) error {
	runID := uuid.NewString()
	restore := log.With("run_id", runID)
	defer restore()

	start := time.Now()
	log.Info("starting pass", "owner", b.cfg.Owner, "dry_run", b.cfg.DryRun)

	res, err := b.engine.Run(ctx)
	if res != nil {
		if ferr := b.formatter.Format(res, w); ferr != nil {
			log.Warn("failed to render report", "error", ferr)
		}
		b.record(runID, res, err)
	}
	if err != nil {
		return err
	}

	remaining, limit, resetAt, _ := ghclient.RateLimitStatus()
	log.Info("pass complete",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"rate_remaining", remaining,
		"rate_limit", limit,
		"rate_resets_at", resetAt.Format(time.RFC3339))
	return nil
}

func (b *bot) record(runID string, res *broom.PassResult, passErr error) {
	if b.history == nil {
		return
	}
	rec := history.Record{
		RunID:     runID,
		Timestamp: res.StartedAt,
		Owner:     b.cfg.Owner,
		DryRun:    b.cfg.DryRun,
		Summary:   report.Summarize(res),
	}
	if passErr != nil {
		rec.Error = passErr.Error()
	}
	if err := b.history.Append(rec); err != nil {
		log.Warn("failed to record pass history", "error", err)
	}
}

// openHistory opens the default history store, or returns nil when it is
// unavailable.
func openHistory() *history.Store {
	path, err := history.DefaultPath()
	if err == nil {
		var store *history.Store
		if store, err = history.NewStore(path); err == nil {
			return store
		}
	}
	log.Warn("pass history disabled", "error", err)
	return nil
}

// setupBot loads and validates the configuration and wires the hosting
// service, the tracker and the engine.
func setupBot(ctx context.Context, opts *Options) (*bot, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.DryRun {
		cfg.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client, err := ghclient.NewClient(ctx, cfg.Secrets.GitHubToken, ghclient.Options{
		Owner:   cfg.Owner,
		Repos:   cfg.Repos,
		Exclude: cfg.IsRepoExcluded,
	})
	if err != nil {
		return nil, err
	}

	if len(cfg.BotIDs) == 0 {
		login, err := client.AuthenticatedUser(ctx)
		if err != nil {
			return nil, err
		}
		log.Info("no bot_ids configured, using authenticated user", "login", login)
		cfg.BotIDs = []string{login}
	}

	tracker, err := newTracker(cfg, client.REST())
	if err != nil {
		return nil, err
	}

	var host broom.Host = client
	if cfg.DryRun {
		host = dryrun.WrapHost(client)
		if tracker != nil {
			tracker = &dryrun.Tracker{}
		}
	}

	policy, err := newPolicy(cfg)
	if err != nil {
		return nil, err
	}

	return &bot{
		cfg:       cfg,
		engine:    broom.NewEngine(host, tracker, policy),
		formatter: report.NewFormatter(report.Format(opts.Output)),
		history:   openHistory(),
	}, nil
}

func newPolicy(cfg *config.Config) (broom.Policy, error) {
	staleAfter, err := cfg.GetStaleAfter()
	if err != nil {
		return broom.Policy{}, err
	}
	policy := broom.Policy{
		StaleAfter:     staleAfter,
		IsBot:          cfg.IsBot,
		WarningPrefix:  cfg.GetWarningPrefix(),
		WarningCount:   cfg.GetWarningCount(),
		WarningMessage: cfg.GetWarningMessage(),
		AbandonMessage: cfg.GetAbandonMessage(),
		Keywords:       cfg.Keywords,
	}
	if err := policy.Validate(); err != nil {
		return broom.Policy{}, fmt.Errorf("invalid policy: %w", err)
	}
	return policy, nil
}

// newTracker returns the configured tracker, or nil when keyword triggers
// are disabled.
func newTracker(cfg *config.Config, rest *gh.Client) (broom.Tracker, error) {
	if len(cfg.Keywords) == 0 {
		return nil, nil
	}

	switch cfg.GetTracker() {
	case config.TrackerAzure:
		t, err := workitem.NewAzureBoards(workitem.AzureOptions{
			Organization:      cfg.Azure.Organization,
			Project:           cfg.Azure.Project,
			WorkItemType:      cfg.GetWorkItemType(),
			Token:             cfg.Secrets.AzureToken,
			RequestsPerSecond: cfg.GetRequestsPerSecond(),
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	case config.TrackerGitHub:
		t, err := workitem.NewGitHubIssues(rest, cfg.GitHubTracker.Repo)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		log.Debug("keywords configured without a tracker, keyword triggers disabled")
		return nil, nil
	}
}
