package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/floatgeo/api/schemas"
	"github.com/xkilldash9x/floatgeo/internal/snapshot"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrSnapshotNotFound is returned when no archived snapshot has the given ID.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Resolution is one resolved floating/reference pair recorded against a snapshot.
type Resolution struct {
	ID         string               `json:"id"`
	SnapshotID string               `json:"snapshotId"`
	Floating   string               `json:"floating"`
	Reference  string               `json:"reference"`
	Strategy   schemas.Strategy     `json:"strategy"`
	Rects      schemas.ElementRects `json:"rects"`
	ResolvedAt time.Time            `json:"resolvedAt"`
}

// Summary describes an archived snapshot without its payload.
type Summary struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Engine      string    `json:"engine"`
	CapturedAt  time.Time `json:"capturedAt"`
	Resolutions int       `json:"resolutions"`
}

// Store archives page snapshots and their resolutions in PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

const schemaSQL = `
        CREATE TABLE IF NOT EXISTS page_snapshots (
            id UUID PRIMARY KEY,
            url TEXT NOT NULL,
            engine TEXT NOT NULL,
            captured_at TIMESTAMPTZ NOT NULL,
            payload JSONB NOT NULL
        );
        CREATE TABLE IF NOT EXISTS element_resolutions (
            id UUID PRIMARY KEY,
            snapshot_id UUID NOT NULL REFERENCES page_snapshots(id) ON DELETE CASCADE,
            floating TEXT NOT NULL,
            reference TEXT NOT NULL,
            strategy TEXT NOT NULL,
            reference_x DOUBLE PRECISION NOT NULL,
            reference_y DOUBLE PRECISION NOT NULL,
            reference_width DOUBLE PRECISION NOT NULL,
            reference_height DOUBLE PRECISION NOT NULL,
            floating_width DOUBLE PRECISION NOT NULL,
            floating_height DOUBLE PRECISION NOT NULL,
            resolved_at TIMESTAMPTZ NOT NULL
        );
    `

// EnsureSchema creates the archive tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create archive schema: %w", err)
	}
	return nil
}

const upsertSnapshotSQL = `
        INSERT INTO page_snapshots (id, url, engine, captured_at, payload)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE SET
            url = EXCLUDED.url,
            engine = EXCLUDED.engine,
            captured_at = EXCLUDED.captured_at,
            payload = EXCLUDED.payload;
    `

var resolutionColumns = []string{
	"id", "snapshot_id", "floating", "reference", "strategy",
	"reference_x", "reference_y", "reference_width", "reference_height",
	"floating_width", "floating_height", "resolved_at",
}

// SaveSnapshot archives snap together with any resolutions made against it in
// a single transaction.
func (s *Store) SaveSnapshot(ctx context.Context, snap *schemas.PageSnapshot, resolutions []Resolution) error {
	if snap == nil || snap.ID == "" {
		return errors.New("snapshot must have an ID to be archived")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", snap.ID, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, upsertSnapshotSQL, snap.ID, snap.URL, snap.Engine, snap.CapturedAt.UTC(), payload); err != nil {
		return fmt.Errorf("failed to upsert snapshot %s: %w", snap.ID, err)
	}

	if len(resolutions) > 0 {
		if err := s.persistResolutions(ctx, tx, snap.ID, resolutions); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("Snapshot archived",
		zap.String("snapshot_id", snap.ID),
		zap.Int("resolutions", len(resolutions)),
	)
	return nil
}

func (s *Store) persistResolutions(ctx context.Context, tx pgx.Tx, snapshotID string, resolutions []Resolution) error {
	rows := make([][]interface{}, len(resolutions))
	for i, r := range resolutions {
		rows[i] = []interface{}{
			r.ID, snapshotID, r.Floating, r.Reference, string(r.Strategy),
			r.Rects.Reference.X, r.Rects.Reference.Y, r.Rects.Reference.Width, r.Rects.Reference.Height,
			r.Rects.Floating.Width, r.Rects.Floating.Height,
			r.ResolvedAt.UTC(),
		}
	}

	copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"element_resolutions"}, resolutionColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy resolutions: %w", err)
	}
	if int(copyCount) != len(resolutions) {
		return fmt.Errorf("mismatch in copied resolutions count: expected %d, got %d", len(resolutions), copyCount)
	}
	return nil
}

// GetSnapshot loads an archived snapshot.
func (s *Store) GetSnapshot(ctx context.Context, id string) (*schemas.PageSnapshot, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM page_snapshots WHERE id = $1;`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
		}
		return nil, fmt.Errorf("failed to query snapshot %s: %w", id, err)
	}

	snap, err := snapshot.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("archived snapshot %s is corrupt: %w", id, err)
	}
	return snap, nil
}

// ListSnapshots returns the most recently captured snapshots first.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
        SELECT s.id, s.url, s.engine, s.captured_at, COUNT(r.id)
        FROM page_snapshots s
        LEFT JOIN element_resolutions r ON r.snapshot_id = s.id
        GROUP BY s.id
        ORDER BY s.captured_at DESC
        LIMIT $1;
    `
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.URL, &sum.Engine, &sum.CapturedAt, &sum.Resolutions); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return summaries, nil
}

// ListResolutions returns the resolutions recorded for a snapshot in the order
// they were made.
func (s *Store) ListResolutions(ctx context.Context, snapshotID string) ([]Resolution, error) {
	query := `
        SELECT id, floating, reference, strategy,
               reference_x, reference_y, reference_width, reference_height,
               floating_width, floating_height, resolved_at
        FROM element_resolutions
        WHERE snapshot_id = $1
        ORDER BY resolved_at ASC;
    `
	rows, err := s.pool.Query(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	var resolutions []Resolution
	for rows.Next() {
		var (
			r        Resolution
			strategy string
		)
		err := rows.Scan(
			&r.ID, &r.Floating, &r.Reference, &strategy,
			&r.Rects.Reference.X, &r.Rects.Reference.Y, &r.Rects.Reference.Width, &r.Rects.Reference.Height,
			&r.Rects.Floating.Width, &r.Rects.Floating.Height,
			&r.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resolution row: %w", err)
		}
		r.Strategy = schemas.Strategy(strategy)
		r.SnapshotID = snapshotID
		resolutions = append(resolutions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return resolutions, nil
}
