// internal/tracker/target.go
package tracker

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/floatgeo/internal/geometry"
	"github.com/xkilldash9x/floatgeo/internal/snapshot"
)

// PageLoader produces the current state of a page.
type PageLoader func(ctx context.Context) (*snapshot.Page, error)

// PageTarget locates the tracked pair by XPath in a freshly loaded page on
// every call.
type PageTarget struct {
	Load      PageLoader
	Floating  string
	Reference string
}

func (p PageTarget) Elements(ctx context.Context) (geometry.Element, geometry.Measurable, error) {
	page, err := p.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load page: %w", err)
	}
	floating, err := page.Find(p.Floating)
	if err != nil {
		return nil, nil, fmt.Errorf("floating element: %w", err)
	}
	reference, err := page.Find(p.Reference)
	if err != nil {
		return nil, nil, fmt.Errorf("reference element: %w", err)
	}
	return floating, reference, nil
}
