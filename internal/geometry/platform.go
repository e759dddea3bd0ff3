// internal/geometry/platform.go
package geometry

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/floatgeo/api/schemas"
)

// DimensionSource reports the size of a floating element.
type DimensionSource interface {
	Dimensions(ctx context.Context, el Element) (schemas.Dimensions, error)
}

// OffsetParentSource resolves the coordinate origin of a floating element.
type OffsetParentSource interface {
	OffsetParent(ctx context.Context, el Element) (OffsetParent, error)
}

// DimensionFunc adapts a function to DimensionSource.
type DimensionFunc func(ctx context.Context, el Element) (schemas.Dimensions, error)

func (f DimensionFunc) Dimensions(ctx context.Context, el Element) (schemas.Dimensions, error) {
	return f(ctx, el)
}

// OffsetParentFunc adapts a function to OffsetParentSource.
type OffsetParentFunc func(ctx context.Context, el Element) (OffsetParent, error)

func (f OffsetParentFunc) OffsetParent(ctx context.Context, el Element) (OffsetParent, error) {
	return f(ctx, el)
}

// cssDimensionSource is the default DimensionSource.
type cssDimensionSource struct{}

func (cssDimensionSource) Dimensions(_ context.Context, el Element) (schemas.Dimensions, error) {
	return CSSDimensions(el).Dimensions(), nil
}

// treeOffsetParentSource is the default OffsetParentSource.
type treeOffsetParentSource struct {
	polyfill func(Element) Element
}

func (s treeOffsetParentSource) OffsetParent(_ context.Context, el Element) (OffsetParent, error) {
	return OffsetParentOf(el, s.polyfill), nil
}

// Platform resolves element rects for the placement pipeline. The zero value is
// not usable; construct it with NewPlatform.
type Platform struct {
	dimensions    DimensionSource
	offsetParents OffsetParentSource
}

// Option configures a Platform.
type Option func(*Platform)

// WithDimensionSource replaces the computed-style dimension lookup.
func WithDimensionSource(src DimensionSource) Option {
	return func(p *Platform) {
		if src != nil {
			p.dimensions = src
		}
	}
}

// WithOffsetParentSource replaces the offset parent lookup entirely.
func WithOffsetParentSource(src OffsetParentSource) Option {
	return func(p *Platform) {
		if src != nil {
			p.offsetParents = src
		}
	}
}

// WithOffsetParentPolyfill keeps the default offset parent walk but swaps the
// raw offsetParent read for fn.
func WithOffsetParentPolyfill(fn func(Element) Element) Option {
	return func(p *Platform) {
		p.offsetParents = treeOffsetParentSource{polyfill: fn}
	}
}

// NewPlatform builds a Platform with the default sources unless overridden.
func NewPlatform(opts ...Option) *Platform {
	p := &Platform{
		dimensions:    cssDimensionSource{},
		offsetParents: treeOffsetParentSource{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ResolveElementRects reads the current layout of floating and reference and
// returns the reference rect relative to the floating element's offset parent,
// together with the floating element's size. Nothing is cached; every call
// reads the live tree. A nil interface is rejected with ErrNilElement; element
// models must not hand out typed nil pointers.
func (p *Platform) ResolveElementRects(ctx context.Context, floating Element, reference Measurable, strategy schemas.Strategy) (schemas.ElementRects, error) {
	if floating == nil || reference == nil {
		return schemas.ElementRects{}, ErrNilElement
	}
	if err := ctx.Err(); err != nil {
		return schemas.ElementRects{}, err
	}

	dims, err := p.dimensions.Dimensions(ctx, floating)
	if err != nil {
		return schemas.ElementRects{}, fmt.Errorf("failed to resolve floating dimensions: %w", err)
	}
	offsetParent, err := p.offsetParents.OffsetParent(ctx, floating)
	if err != nil {
		return schemas.ElementRects{}, fmt.Errorf("failed to resolve offset parent: %w", err)
	}
	if !offsetParent.IsElement() && offsetParent.Window == nil {
		offsetParent = WindowParent(floating.Window())
	}

	return schemas.ElementRects{
		Reference: RectRelativeToOffsetParent(reference, offsetParent, strategy),
		Floating:  schemas.Rect{Width: dims.Width, Height: dims.Height},
	}, nil
}
