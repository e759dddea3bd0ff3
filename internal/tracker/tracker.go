// internal/tracker/tracker.go
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/floatgeo/api/schemas"
	"github.com/xkilldash9x/floatgeo/internal/geometry"
)

var (
	// ErrClosed is returned by operations on a closed Tracker.
	ErrClosed = errors.New("tracker is closed")
	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("tracker is already running")
)

// Resolver computes element rects. *geometry.Platform implements it.
type Resolver interface {
	ResolveElementRects(ctx context.Context, floating geometry.Element, reference geometry.Measurable, strategy schemas.Strategy) (schemas.ElementRects, error)
}

// Target re-acquires the tracked pair. Elements may be replaced between calls,
// e.g. when the page is captured again.
type Target interface {
	Elements(ctx context.Context) (floating geometry.Element, reference geometry.Measurable, err error)
}

// Signal reports that layout may have changed. The channel is closed when the
// source is exhausted or ctx is done.
type Signal interface {
	Changes(ctx context.Context) (<-chan struct{}, error)
}

// Update is a published change of the tracked rects.
type Update struct {
	Sequence   uint64               `json:"sequence"`
	Rects      schemas.ElementRects `json:"rects"`
	ResolvedAt time.Time            `json:"resolvedAt"`
}

// Tracker recomputes the rects of a floating/reference pair whenever its
// Signal fires and publishes the result to subscribers when it changed.
// Recomputations are throttled; signals that arrive while throttled are
// coalesced into one recomputation.
type Tracker struct {
	logger   *zap.Logger
	resolver Resolver
	target   Target
	signal   Signal
	strategy schemas.Strategy
	limiter  *rate.Limiter

	bufferSize int

	mu          sync.Mutex
	subscribers map[string]chan Update
	last        schemas.ElementRects
	hasLast     bool
	seq         uint64
	closed      bool

	running   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithRateLimit caps recomputations at r per second with the given burst.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(t *Tracker) {
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(r, burst)
	}
}

// WithBufferSize sets the per-subscriber buffer. When a subscriber falls
// behind, its oldest pending update is dropped.
func WithBufferSize(n int) Option {
	return func(t *Tracker) {
		if n >= 1 {
			t.bufferSize = n
		}
	}
}

// WithStrategy sets the positioning strategy used for every resolution.
func WithStrategy(s schemas.Strategy) Option {
	return func(t *Tracker) {
		if s != "" {
			t.strategy = s
		}
	}
}

// New creates a tracker. It does nothing until Run or Recompute is called.
func New(logger *zap.Logger, resolver Resolver, target Target, signal Signal, opts ...Option) *Tracker {
	t := &Tracker{
		logger:      logger.Named("tracker"),
		resolver:    resolver,
		target:      target,
		signal:      signal,
		strategy:    schemas.StrategyAbsolute,
		limiter:     rate.NewLimiter(rate.Limit(4), 1),
		bufferSize:  8,
		subscribers: make(map[string]chan Update),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Subscribe registers a listener. The returned channel is closed by
// unsubscribe or Close, whichever comes first.
func (t *Tracker) Subscribe() (id string, updates <-chan Update, unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id = uuid.NewString()
	ch := make(chan Update, t.bufferSize)
	if t.closed {
		close(ch)
		return id, ch, func() {}
	}
	t.subscribers[id] = ch
	t.logger.Debug("Subscriber added", zap.String("subscription_id", id))

	return id, ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if sub, ok := t.subscribers[id]; ok {
			delete(t.subscribers, id)
			close(sub)
		}
	}
}

// Recompute resolves the pair once and publishes the result if it differs
// from the last published one. It reports whether an update was published.
func (t *Tracker) Recompute(ctx context.Context) (Update, bool, error) {
	floating, reference, err := t.target.Elements(ctx)
	if err != nil {
		return Update{}, false, fmt.Errorf("failed to acquire tracked elements: %w", err)
	}
	rects, err := t.resolver.ResolveElementRects(ctx, floating, reference, t.strategy)
	if err != nil {
		return Update{}, false, fmt.Errorf("failed to resolve element rects: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return Update{}, false, ErrClosed
	}
	if t.hasLast && t.last == rects {
		return Update{Sequence: t.seq, Rects: rects}, false, nil
	}

	t.seq++
	t.last, t.hasLast = rects, true
	u := Update{Sequence: t.seq, Rects: rects, ResolvedAt: time.Now().UTC()}
	for _, ch := range t.subscribers {
		deliver(ch, u)
	}
	return u, true, nil
}

// deliver never blocks: a full buffer loses its oldest entry. Callers hold
// t.mu, so they are the only sender.
func deliver(ch chan Update, u Update) {
	select {
	case ch <- u:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- u:
	default:
	}
}

// Run resolves the pair immediately and then on every signal until the signal
// is exhausted (nil), Close is called (nil) or ctx is done (ctx.Err()).
// Resolution failures are logged and do not stop the loop.
func (t *Tracker) Run(ctx context.Context) error {
	if !t.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	select {
	case <-t.done:
		return ErrClosed
	default:
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-t.done:
			cancel()
		case <-runCtx.Done():
		}
	}()

	changes, err := t.signal.Changes(runCtx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to layout changes: %w", err)
	}

	t.logger.Info("Tracking started", zap.String("strategy", string(t.strategy)))
	t.recompute(runCtx)

	for {
		select {
		case <-runCtx.Done():
			return t.stopReason(ctx)
		case _, ok := <-changes:
			if !ok {
				t.logger.Info("Layout signal exhausted; tracking stopped")
				return nil
			}
			if err := t.limiter.Wait(runCtx); err != nil {
				return t.stopReason(ctx)
			}
			open := drain(changes)
			t.recompute(runCtx)
			if !open {
				return nil
			}
		}
	}
}

func (t *Tracker) recompute(ctx context.Context) {
	u, published, err := t.Recompute(ctx)
	switch {
	case err != nil && ctx.Err() == nil && !errors.Is(err, ErrClosed):
		t.logger.Warn("Failed to recompute element rects", zap.Error(err))
	case published:
		t.logger.Debug("Element rects changed",
			zap.Uint64("sequence", u.Sequence),
			zap.Float64("reference_x", u.Rects.Reference.X),
			zap.Float64("reference_y", u.Rects.Reference.Y),
		)
	}
}

// stopReason is nil for a Close and the parent's error otherwise.
func (t *Tracker) stopReason(parent context.Context) error {
	select {
	case <-t.done:
		return nil
	default:
	}
	if err := parent.Err(); err != nil {
		return err
	}
	return context.Canceled
}

// drain consumes pending signals so a burst collapses into one recomputation.
// It reports false once the channel is closed.
func drain(ch <-chan struct{}) bool {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}

// Close stops Run and closes every subscriber channel. It is safe to call
// more than once.
func (t *Tracker) Close() {
	t.closeOnce.Do(func() {
		close(t.done)

		t.mu.Lock()
		defer t.mu.Unlock()
		t.closed = true
		for id, ch := range t.subscribers {
			close(ch)
			delete(t.subscribers, id)
		}
		t.logger.Debug("Tracker closed")
	})
}
