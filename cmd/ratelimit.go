package cmd

import (
	"fmt"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/spf13/cobra"

	"github.com/spiffcs/broombot/config"
	"github.com/spiffcs/broombot/internal/ghclient"
)

// NewCmdRateLimit creates the ratelimit command.
func NewCmdRateLimit(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Check GitHub API rate limit status",
		Long:  `Display current GitHub API rate limit status including remaining quota and reset time.`,
	}
	cmd.AddCommand(NewCmdRateLimitStatus(opts))
	return cmd
}

// NewCmdRateLimitStatus creates the ratelimit status subcommand.
func NewCmdRateLimitStatus(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current rate limit status",
		Long:  `Display the current GitHub API rate limit status for the core and GraphQL APIs a pass uses.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRateLimitStatus(cmd, opts)
		},
	}
}

func runRateLimitStatus(cmd *cobra.Command, opts *Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := ghclient.NewClient(cmd.Context(), cfg.Secrets.GitHubToken, ghclient.Options{Owner: cfg.Owner})
	if err != nil {
		return err
	}

	limits, err := client.RateLimits(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "GitHub API Rate Limits:")
	fmt.Fprintln(out)
	printRate(cmd, "Core API:", limits.Core)
	printRate(cmd, "GraphQL: ", limits.GraphQL)
	return nil
}

func printRate(cmd *cobra.Command, name string, rate *gh.Rate) {
	if rate == nil {
		return
	}
	resetIn := time.Until(rate.Reset.Time).Round(time.Second)
	if resetIn < 0 {
		resetIn = 0
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d/%d remaining (resets in %s)\n", name, rate.Remaining, rate.Limit, resetIn)
}
