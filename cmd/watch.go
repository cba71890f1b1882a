package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/broombot/internal/duration"
	"github.com/spiffcs/broombot/internal/log"
)

// NewCmdWatch creates the watch command.
func NewCmdWatch(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run passes repeatedly until interrupted",
		Long: `Runs a pass immediately and then once per interval until interrupted.
A failed pass is logged and the next pass runs on schedule.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}
	addRunFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.Interval, "interval", "", "Time between passes (e.g., 30m, 1h, 1d; default: watch_interval)")
	return cmd
}

func runWatch(cmd *cobra.Command, opts *Options) error {
	if err := validateOutput(opts.Output); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := setupBot(ctx, opts)
	if err != nil {
		return err
	}

	interval, err := watchInterval(opts, b)
	if err != nil {
		return err
	}
	log.Info("watching pull requests", "interval", duration.Format(interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	out := cmd.OutOrStdout()
	if err := watchLoop(ctx, ticker.C, func(ctx context.Context) error {
		return b.pass(ctx, out)
	}); err != nil {
		return err
	}
	log.Info("watch stopped")
	return nil
}

// watchLoop runs pass once immediately and then once per tick until ctx is
// done. A tick that arrives while a pass is still running is dropped. Pass
// errors are logged and do not stop the loop.
func watchLoop(ctx context.Context, tick <-chan time.Time, pass func(context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	ticks := make(chan time.Time, 1)

	g.Go(func() error {
		defer close(ticks)
		ticks <- time.Now()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case t := <-tick:
				select {
				case ticks <- t:
				default:
					log.Warn("previous pass still running, skipping tick")
				}
			}
		}
	})

	g.Go(func() error {
		for range ticks {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := pass(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Error("pass failed", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func watchInterval(opts *Options, b *bot) (time.Duration, error) {
	if opts.Interval != "" {
		return duration.Parse(opts.Interval)
	}
	return b.cfg.GetWatchInterval()
}
