// Package schemas holds the geometry and page snapshot types shared across floatgeo.
package schemas

import (
	"errors"
	"fmt"
	"math"
)

// -- Geometry Value Types --

// Coordinates is a 2D offset in CSS pixels.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in CSS pixels. Which frame the rectangle is
// expressed in depends on the resolver that produced it.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ClientRect is a Rect with the derived DOMRect edges. The edges are always
// computed from X, Y, Width and Height.
type ClientRect struct {
	Rect
}

// NewClientRect wraps a Rect.
func NewClientRect(r Rect) ClientRect { return ClientRect{Rect: r} }

func (r ClientRect) Top() float64    { return r.Y }
func (r ClientRect) Left() float64   { return r.X }
func (r ClientRect) Right() float64  { return r.X + r.Width }
func (r ClientRect) Bottom() float64 { return r.Y + r.Height }

// Scale maps layout-box units to rendered pixels on each axis.
type Scale struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UnitScale is the identity scale.
var UnitScale = Scale{X: 1, Y: 1}

// NormalizeScale replaces a zero or non-finite axis with 1.
func NormalizeScale(s Scale) Scale {
	return Scale{X: normalizeFactor(s.X), Y: normalizeFactor(s.Y)}
}

func normalizeFactor(f float64) float64 {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 1
	}
	return f
}

// Dimensions is the width and height reported by a dimension source.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DimensionSample is a resolved content box size. FallbackApplied reports that
// the computed style disagreed with the layout offsets and the offsets won.
type DimensionSample struct {
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	FallbackApplied bool    `json:"fallbackApplied"`
}

// Dimensions drops the fallback flag.
func (d DimensionSample) Dimensions() Dimensions {
	return Dimensions{Width: d.Width, Height: d.Height}
}

// Scroll is a scroll position as read at resolution time.
type Scroll struct {
	ScrollLeft float64 `json:"scrollLeft"`
	ScrollTop  float64 `json:"scrollTop"`
}

// ElementRects is the output of a geometry resolution. Reference is relative to
// the floating element's offset parent; Floating only carries the floating
// element's size.
type ElementRects struct {
	Reference Rect `json:"reference"`
	Floating  Rect `json:"floating"`
}

// -- Positioning Strategy --

// Strategy is the CSS position used for the floating element.
type Strategy string

const (
	StrategyAbsolute Strategy = "absolute"
	StrategyFixed    Strategy = "fixed"
)

// ErrInvalidStrategy is returned by ParseStrategy for unknown values.
var ErrInvalidStrategy = errors.New("invalid positioning strategy")

// ParseStrategy accepts "absolute", "fixed" or the empty string (absolute).
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyAbsolute:
		return StrategyAbsolute, nil
	case StrategyFixed:
		return StrategyFixed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
	}
}

// IsFixed reports whether the strategy is fixed positioning.
func (s Strategy) IsFixed() bool { return s == StrategyFixed }
