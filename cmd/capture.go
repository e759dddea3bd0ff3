// File: cmd/capture.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/floatgeo/api/schemas"
	"github.com/xkilldash9x/floatgeo/internal/browser/capture"
	"github.com/xkilldash9x/floatgeo/internal/config"
	"github.com/xkilldash9x/floatgeo/internal/observability"
	"github.com/xkilldash9x/floatgeo/internal/snapshot"
)

// pageCapturer is the subset of *capture.Capturer the commands use.
type pageCapturer interface {
	Capture(ctx context.Context, req capture.Request) (*schemas.PageSnapshot, error)
	Close()
}

// capturerFactory starts a browser-backed capturer.
type capturerFactory func(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (pageCapturer, error)

func newChromeCapturer(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (pageCapturer, error) {
	return capture.New(ctx, logger, cfg)
}

type captureOptions struct {
	url         string
	outputPath  string
	waitVisible string
	archive     bool
	headful     bool
}

func newCaptureCmd(deps dependencies) *cobra.Command {
	var opts captureOptions
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture the layout of a live page into a snapshot file",
		Long: `Loads the page in headless Chrome and records every element's geometry,
computed style and offset parent, including same-origin iframes. The snapshot can
be resolved offline with "floatgeo resolve".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd.Context(), cmd, deps, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.url, "url", "u", "", "Page URL (required)")
	_ = cmd.MarkFlagRequired("url")
	cmd.Flags().StringVarP(&opts.outputPath, "out", "o", "", "Output path (default: <snapshot.dir>/<id>.json[.br])")
	cmd.Flags().StringVar(&opts.waitVisible, "wait", "", "CSS selector to wait for before capturing")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "Also archive the snapshot in PostgreSQL")
	cmd.Flags().BoolVar(&opts.headful, "headful", false, "Show the browser window")
	return cmd
}

func runCapture(ctx context.Context, cmd *cobra.Command, deps dependencies, opts captureOptions) error {
	logger := observability.GetLogger()
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return err
	}
	if opts.headful {
		cfg.SetBrowserHeadless(false)
	}

	capturer, err := deps.capturers(ctx, logger, cfg.Browser())
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer capturer.Close()

	snap, err := capturer.Capture(ctx, capture.Request{URL: opts.url, WaitVisible: opts.waitVisible})
	if err != nil {
		return err
	}

	path := opts.outputPath
	if path == "" {
		path = defaultSnapshotPath(cfg.Snapshot(), snap.ID)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := snapshot.WriteFile(path, snap); err != nil {
		return err
	}
	logger.Info("Snapshot written", zap.String("snapshot_id", snap.ID), zap.String("path", path))

	if opts.archive {
		err := withStore(ctx, deps.stores, func(st archiveStore) error {
			return st.SaveSnapshot(ctx, snap, nil)
		})
		if err != nil {
			return fmt.Errorf("failed to archive snapshot: %w", err)
		}
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
	return err
}

func defaultSnapshotPath(cfg config.SnapshotConfig, id string) string {
	name := id + ".json"
	if cfg.Compress {
		name += ".br"
	}
	return filepath.Join(cfg.Dir, name)
}
