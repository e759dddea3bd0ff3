// File: cmd/watch.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/floatgeo/internal/browser/capture"
	"github.com/xkilldash9x/floatgeo/internal/geometry"
	"github.com/xkilldash9x/floatgeo/internal/observability"
	"github.com/xkilldash9x/floatgeo/internal/snapshot"
	"github.com/xkilldash9x/floatgeo/internal/tracker"
)

type watchOptions struct {
	url         string
	floating    string
	reference   string
	waitVisible string
	strategy    string
	interval    time.Duration
}

func newWatchCmd(deps dependencies) *cobra.Command {
	var opts watchOptions
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recapture a page periodically and print element rects when they change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, deps, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.url, "url", "u", "", "Page URL (required)")
	cmd.Flags().StringVar(&opts.floating, "floating", "", "XPath of the floating element (required)")
	cmd.Flags().StringVar(&opts.reference, "reference", "", "XPath of the reference element (required)")
	cmd.Flags().StringVar(&opts.waitVisible, "wait", "", "CSS selector to wait for before each capture")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "Positioning strategy: absolute or fixed (default from config)")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "Recapture interval (default from config)")
	for _, name := range []string{"url", "floating", "reference"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, deps dependencies, opts watchOptions) error {
	logger := observability.GetLogger()
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return err
	}
	strategy, err := pickStrategy(opts.strategy, cfg.Geometry().Strategy)
	if err != nil {
		return err
	}
	if opts.interval > 0 {
		cfg.SetTrackerInterval(opts.interval)
	}
	trackerCfg := cfg.Tracker()

	capturer, err := deps.capturers(ctx, logger, cfg.Browser())
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer capturer.Close()

	target := tracker.PageTarget{
		Load: func(ctx context.Context) (*snapshot.Page, error) {
			snap, err := capturer.Capture(ctx, capture.Request{URL: opts.url, WaitVisible: opts.waitVisible})
			if err != nil {
				return nil, err
			}
			return snapshot.NewPage(snap)
		},
		Floating:  opts.floating,
		Reference: opts.reference,
	}

	tr := tracker.New(logger, geometry.NewPlatform(), target,
		tracker.IntervalSignal{Interval: trackerCfg.Interval},
		tracker.WithStrategy(strategy),
		tracker.WithRateLimit(rate.Limit(trackerCfg.Rate), trackerCfg.Burst),
		tracker.WithBufferSize(trackerCfg.BufferSize),
	)
	_, updates, unsubscribe := tr.Subscribe()
	defer unsubscribe()

	logger.Info("Watching element rects",
		zap.String("url", opts.url),
		zap.Duration("interval", trackerCfg.Interval),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer tr.Close()
		return tr.Run(gctx)
	})
	g.Go(func() error {
		out := cmd.OutOrStdout()
		for u := range updates {
			line, err := json.Marshal(u)
			if err != nil {
				return fmt.Errorf("failed to encode update: %w", err)
			}
			if _, err := fmt.Fprintln(out, string(line)); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
