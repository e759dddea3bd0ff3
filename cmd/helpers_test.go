// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/floatgeo/api/schemas"
	"github.com/xkilldash9x/floatgeo/internal/browser/capture"
	"github.com/xkilldash9x/floatgeo/internal/config"
	"github.com/xkilldash9x/floatgeo/internal/snapshot"
	"github.com/xkilldash9x/floatgeo/internal/store"
)

const fixturePath = "../internal/snapshot/testdata/toolbar.json"

func loadFixture(t *testing.T) *schemas.PageSnapshot {
	t.Helper()
	snap, err := snapshot.ReadFile(fixturePath)
	require.NoError(t, err)
	return snap
}

// -- Capturer --

type fakeCapturer struct {
	capture func(n int, req capture.Request) (*schemas.PageSnapshot, error)
	calls   atomic.Int32
	closed  atomic.Bool
}

func (f *fakeCapturer) Capture(_ context.Context, req capture.Request) (*schemas.PageSnapshot, error) {
	n := int(f.calls.Add(1))
	return f.capture(n, req)
}

func (f *fakeCapturer) Close() { f.closed.Store(true) }

func (f *fakeCapturer) factory() capturerFactory {
	return func(context.Context, *zap.Logger, config.BrowserConfig) (pageCapturer, error) {
		return f, nil
	}
}

// -- Store --

type fakeStore struct {
	mu          sync.Mutex
	saved       []*schemas.PageSnapshot
	resolutions []store.Resolution
	snapshots   map[string]*schemas.PageSnapshot
	summaries   []store.Summary
}

func (s *fakeStore) EnsureSchema(context.Context) error { return nil }

func (s *fakeStore) SaveSnapshot(_ context.Context, snap *schemas.PageSnapshot, resolutions []store.Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, snap)
	s.resolutions = append(s.resolutions, resolutions...)
	return nil
}

func (s *fakeStore) GetSnapshot(_ context.Context, id string) (*schemas.PageSnapshot, error) {
	if snap, ok := s.snapshots[id]; ok {
		return snap, nil
	}
	return nil, store.ErrSnapshotNotFound
}

func (s *fakeStore) ListSnapshots(context.Context, int) ([]store.Summary, error) {
	return s.summaries, nil
}

func (s *fakeStore) ListResolutions(_ context.Context, id string) ([]store.Resolution, error) {
	var out []store.Resolution
	for _, r := range s.resolutions {
		if r.SnapshotID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeStoreProvider struct {
	store *fakeStore
	err   error
}

func (p *fakeStoreProvider) Create(context.Context, config.Interface) (archiveStore, func(), error) {
	if p.err != nil {
		return nil, nil, p.err
	}
	return p.store, func() {}, nil
}

func testDependencies() dependencies {
	return dependencies{
		capturers: func(context.Context, *zap.Logger, config.BrowserConfig) (pageCapturer, error) {
			return nil, errors.New("no browser in unit tests")
		},
		stores: &fakeStoreProvider{err: errors.New("no database in unit tests")},
	}
}

// executeCommand runs a fresh command tree and returns its stdout.
func executeCommand(t *testing.T, ctx context.Context, deps dependencies, args ...string) (string, error) {
	t.Helper()
	rootCmd := newRootCmd(deps)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}
