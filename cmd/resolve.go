// File: cmd/resolve.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/floatgeo/api/schemas"
	"github.com/xkilldash9x/floatgeo/internal/geometry"
	"github.com/xkilldash9x/floatgeo/internal/observability"
	"github.com/xkilldash9x/floatgeo/internal/overlay"
	"github.com/xkilldash9x/floatgeo/internal/snapshot"
	"github.com/xkilldash9x/floatgeo/internal/store"
)

// pairSpec names a floating element and its reference by XPath.
type pairSpec struct {
	Floating  string
	Reference string
}

type resolveOptions struct {
	snapshotPath string
	floating     string
	reference    string
	pairs        []string
	strategy     string
	svgPath      string
	archive      bool
}

func newResolveCmd(deps dependencies) *cobra.Command {
	var opts resolveOptions
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Compute element rects for floating/reference pairs in a snapshot",
		Long: `Loads a page snapshot and resolves the reference rect of each pair relative to
the floating element's offset parent, together with the floating element's size.
XPaths may cross into same-origin iframes with " >> ", for example
"//iframe[@id='embed'] >> //a".`,
		Example: `  floatgeo resolve --snapshot page.json.br --floating "//*[@id='tooltip']" --reference "//*[@id='anchor']"
  floatgeo resolve --snapshot page.json --pair "//*[@id='menu']=//*[@id='open']" --strategy fixed --svg out.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), cmd, deps, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.snapshotPath, "snapshot", "s", "", "Snapshot file (.json or .json.br) (required)")
	_ = cmd.MarkFlagRequired("snapshot")
	cmd.Flags().StringVar(&opts.floating, "floating", "", "XPath of the floating element")
	cmd.Flags().StringVar(&opts.reference, "reference", "", "XPath of the reference element")
	cmd.Flags().StringArrayVar(&opts.pairs, "pair", nil, "Additional FLOATING=REFERENCE XPath pair (repeatable)")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "Positioning strategy: absolute or fixed (default from config)")
	cmd.Flags().StringVar(&opts.svgPath, "svg", "", "Write an SVG overlay of the results to this path")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "Archive the snapshot and the results in PostgreSQL")
	return cmd
}

func runResolve(ctx context.Context, cmd *cobra.Command, deps dependencies, opts resolveOptions) error {
	logger := observability.GetLogger().Named("resolve")
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return err
	}

	strategy, err := pickStrategy(opts.strategy, cfg.Geometry().Strategy)
	if err != nil {
		return err
	}
	pairs, err := collectPairs(opts)
	if err != nil {
		return err
	}

	page, err := snapshot.Load(opts.snapshotPath)
	if err != nil {
		return err
	}

	resolutions, err := resolvePairs(ctx, geometry.NewPlatform(), page, pairs, strategy)
	if err != nil {
		return err
	}
	logger.Info("Resolved element rects",
		zap.String("snapshot_id", page.Snapshot().ID),
		zap.Int("pairs", len(resolutions)),
		zap.String("strategy", string(strategy)),
	)

	if opts.svgPath != "" {
		entries := make([]overlay.Entry, len(resolutions))
		for i, r := range resolutions {
			entries[i] = overlay.Entry{Name: r.Floating, Rects: r.Rects}
		}
		if err := overlay.WriteFile(opts.svgPath, entries); err != nil {
			return err
		}
	}

	if opts.archive {
		err := withStore(ctx, deps.stores, func(st archiveStore) error {
			return st.SaveSnapshot(ctx, page.Snapshot(), resolutions)
		})
		if err != nil {
			return fmt.Errorf("failed to archive results: %w", err)
		}
	}

	return writeJSON(cmd.OutOrStdout(), resolutions)
}

// pickStrategy prefers the flag over the configured default.
func pickStrategy(flag, configured string) (schemas.Strategy, error) {
	if flag != "" {
		return schemas.ParseStrategy(flag)
	}
	return schemas.ParseStrategy(configured)
}

func collectPairs(opts resolveOptions) ([]pairSpec, error) {
	var pairs []pairSpec
	switch {
	case opts.floating != "" && opts.reference != "":
		pairs = append(pairs, pairSpec{Floating: opts.floating, Reference: opts.reference})
	case opts.floating != "" || opts.reference != "":
		return nil, errors.New("--floating and --reference must be given together")
	}
	for _, raw := range opts.pairs {
		p, err := splitPair(raw)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	if len(pairs) == 0 {
		return nil, errors.New("no pairs to resolve: use --floating/--reference or --pair")
	}
	return pairs, nil
}

// splitPair splits "FLOATING=REFERENCE" on the first '=' outside of XPath
// predicates and string literals, so "//*[@id='a']=//*[@id='b']" works.
func splitPair(raw string) (pairSpec, error) {
	i := snapshot.IndexTopLevel(raw, "=")
	if i < 0 {
		return pairSpec{}, fmt.Errorf("invalid pair %q: expected FLOATING=REFERENCE", raw)
	}
	floating, reference := strings.TrimSpace(raw[:i]), strings.TrimSpace(raw[i+1:])
	if floating == "" || reference == "" {
		return pairSpec{}, fmt.Errorf("invalid pair %q: both sides must be non-empty", raw)
	}
	return pairSpec{Floating: floating, Reference: reference}, nil
}

// resolvePairs resolves every pair concurrently. The page is read-only, so
// the workers share it.
func resolvePairs(ctx context.Context, platform *geometry.Platform, page *snapshot.Page, pairs []pairSpec, strategy schemas.Strategy) ([]store.Resolution, error) {
	results := make([]store.Resolution, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, p := range pairs {
		g.Go(func() error {
			floating, err := page.Find(p.Floating)
			if err != nil {
				return fmt.Errorf("pair %d floating element: %w", i, err)
			}
			reference, err := page.Find(p.Reference)
			if err != nil {
				return fmt.Errorf("pair %d reference element: %w", i, err)
			}
			rects, err := platform.ResolveElementRects(gctx, floating, reference, strategy)
			if err != nil {
				return fmt.Errorf("pair %d: %w", i, err)
			}
			results[i] = store.Resolution{
				ID:         uuid.NewString(),
				SnapshotID: page.Snapshot().ID,
				Floating:   p.Floating,
				Reference:  p.Reference,
				Strategy:   strategy,
				Rects:      rects,
				ResolvedAt: time.Now().UTC(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
