// File: cmd/archive.go
package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/floatgeo/api/schemas"
	"github.com/xkilldash9x/floatgeo/internal/config"
	"github.com/xkilldash9x/floatgeo/internal/observability"
	"github.com/xkilldash9x/floatgeo/internal/snapshot"
	"github.com/xkilldash9x/floatgeo/internal/store"
)

// archiveStore is the subset of *store.Store the commands use.
type archiveStore interface {
	EnsureSchema(ctx context.Context) error
	SaveSnapshot(ctx context.Context, snap *schemas.PageSnapshot, resolutions []store.Resolution) error
	GetSnapshot(ctx context.Context, id string) (*schemas.PageSnapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]store.Summary, error)
	ListResolutions(ctx context.Context, snapshotID string) ([]store.Resolution, error)
}

// storeProvider creates the snapshot archive. This abstraction allows the
// injection of a mock store instead of a live database connection.
type storeProvider interface {
	// Create returns the archive, a cleanup function releasing its
	// resources, and an error if the creation fails.
	Create(ctx context.Context, cfg config.Interface) (archiveStore, func(), error)
}

// defaultStoreProvider connects to PostgreSQL.
type defaultStoreProvider struct{}

// NewStoreProvider returns the production store provider.
func NewStoreProvider() storeProvider {
	return &defaultStoreProvider{}
}

func (p *defaultStoreProvider) Create(ctx context.Context, cfg config.Interface) (archiveStore, func(), error) {
	logger := observability.GetLogger()
	if cfg.Store().DSN == "" {
		return nil, nil, fmt.Errorf("database DSN is not configured (FLOATGEO_STORE_DSN or DATABASE_URL)")
	}

	pool, err := pgxpool.New(ctx, cfg.Store().DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storeService, err := store.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to initialize store service: %w", err)
	}
	if err := storeService.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		logger.Debug("Database connection pool closed.")
	}
	return storeService, cleanup, nil
}

// withStore runs fn against a freshly created archive.
func withStore(ctx context.Context, provider storeProvider, fn func(archiveStore) error) error {
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return err
	}
	st, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer cleanup()
	return fn(st)
}

func newArchiveCmd(deps dependencies) *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Browse snapshots archived in PostgreSQL",
	}
	archiveCmd.AddCommand(
		newArchiveListCmd(deps.stores),
		newArchivePullCmd(deps.stores),
		newArchiveResolutionsCmd(deps.stores),
	)
	return archiveCmd
}

func newArchiveListCmd(provider storeProvider) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), provider, func(st archiveStore) error {
				summaries, err := st.ListSnapshots(cmd.Context(), limit)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tCAPTURED\tENGINE\tRESOLUTIONS\tURL")
				for _, s := range summaries {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.CapturedAt.Format(time.RFC3339), s.Engine, s.Resolutions, s.URL)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of snapshots to list")
	return cmd
}

func newArchivePullCmd(provider storeProvider) *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "pull ID",
		Short: "Write an archived snapshot to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), provider, func(st archiveStore) error {
				snap, err := st.GetSnapshot(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := snapshot.WriteFile(outputPath, snap); err != nil {
					return err
				}
				observability.GetLogger().Info("Snapshot pulled from archive",
					zap.String("snapshot_id", snap.ID),
					zap.String("path", outputPath),
				)
				_, err = fmt.Fprintln(cmd.OutOrStdout(), outputPath)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&outputPath, "out", "o", "", "Output path; a .br suffix compresses it (required)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newArchiveResolutionsCmd(provider storeProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "resolutions ID",
		Short: "Print the resolutions recorded for an archived snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), provider, func(st archiveStore) error {
				resolutions, err := st.ListResolutions(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), resolutions)
			})
		},
	}
}
