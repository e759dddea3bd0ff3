// internal/tracker/signal.go
package tracker

import (
	"context"
	"fmt"
	"time"
)

// IntervalSignal fires on a fixed period, for sources that cannot push layout
// changes (a remote page polled by recapture).
type IntervalSignal struct {
	Interval time.Duration
}

func (s IntervalSignal) Changes(ctx context.Context) (<-chan struct{}, error) {
	if s.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", s.Interval)
	}
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}

// ChannelSignal adapts a caller-owned channel. Closing it ends tracking.
type ChannelSignal <-chan struct{}

func (s ChannelSignal) Changes(context.Context) (<-chan struct{}, error) {
	return s, nil
}
