// internal/geometry/offsetparent_test.go
package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/floatgeo/api/schemas"
)

// tableTree builds body > div > table > td > span with every offsetParent
// pointer set the way Blink reports them for an all-static chain.
func tableTree() (w *fakeWindow, div, table, td, span *fakeElement) {
	w = newFakeWindow()
	div = w.add("div", w.doc.body, schemas.Rect{Width: 400, Height: 200})
	table = w.add("table", div, schemas.Rect{Width: 400, Height: 200})
	td = w.add("td", table, schemas.Rect{Width: 200, Height: 100})
	span = w.add("span", td, schemas.Rect{Width: 50, Height: 10})

	span.offsetParent = td
	td.offsetParent = table
	table.offsetParent = w.doc.body
	div.offsetParent = w.doc.body
	return w, div, table, td, span
}

func TestOffsetParentOf_SkipsStaticTables(t *testing.T) {
	t.Run("all static resolves to the window", func(t *testing.T) {
		w, _, table, _, span := tableTree()
		op := OffsetParentOf(span, nil)
		assert.False(t, op.IsElement())
		assert.Same(t, w, op.Window)
		assert.NotEqual(t, Element(table), op.Element)
	})

	t.Run("positioned wrapper is found past the table", func(t *testing.T) {
		_, div, table, _, span := tableTree()
		div.set("position", "relative")
		table.offsetParent = div

		op := OffsetParentOf(span, nil)
		require.True(t, op.IsElement())
		assert.Same(t, div, op.Element)
	})

	t.Run("positioned table is a valid origin", func(t *testing.T) {
		_, _, table, _, span := tableTree()
		table.set("position", "relative")

		op := OffsetParentOf(span, nil)
		assert.Same(t, table, op.Element)
	})
}

func TestOffsetParentOf_RootSubstitution(t *testing.T) {
	w := newFakeWindow()
	w.doc.html.set("position", "relative")
	el := w.add("div", w.doc.body, schemas.Rect{Width: 10, Height: 10}).set("position", "absolute")
	el.offsetParent = w.doc.html

	assert.Same(t, w.doc.body, trueOffsetParent(el, nil), "<html> is replaced by <body>")

	w.doc.body.set("position", "relative")
	op := OffsetParentOf(el, nil)
	assert.Same(t, w.doc.body, op.Element)

	w.doc.body.set("position", "static")
	op = OffsetParentOf(el, nil)
	assert.False(t, op.IsElement(), "a static body falls back to the window, never <html>")
}

func TestOffsetParentOf_StaticBodyThatIsAContainingBlock(t *testing.T) {
	w := newFakeWindow()
	w.doc.body.set("transform", "translateX(0px)")
	el := w.add("div", w.doc.body, schemas.Rect{}).set("position", "absolute")
	el.offsetParent = w.doc.body

	assert.Same(t, w.doc.body, OffsetParentOf(el, nil).Element)
}

func TestOffsetParentOf_TopLayer(t *testing.T) {
	w := newFakeWindow()
	host := w.add("div", w.doc.body, schemas.Rect{}).set("position", "relative")
	dialog := w.add("dialog", host, schemas.Rect{})
	dialog.offsetParent = host
	dialog.topLayer = true

	op := OffsetParentOf(dialog, nil)
	assert.False(t, op.IsElement())
	assert.Same(t, w, op.Window)
}

func TestOffsetParentOf_SVG(t *testing.T) {
	w := newFakeWindow()
	wrapper := w.add("div", w.doc.body, schemas.Rect{})
	svg := w.addSVG("svg", wrapper, schemas.Rect{})
	circle := w.addSVG("circle", svg, schemas.Rect{})

	assert.Same(t, w, OffsetParentOf(circle, nil).Window, "no positioned ancestor")

	wrapper.set("position", "relative")
	assert.Same(t, wrapper, OffsetParentOf(circle, nil).Element)

	svg.set("position", "absolute")
	assert.Same(t, svg, OffsetParentOf(circle, nil).Element)
}

func TestOffsetParentOf_FixedUsesContainingBlock(t *testing.T) {
	tests := []struct {
		name     string
		property string
		value    string
		webkit   bool
		found    bool
	}{
		{name: "transform", property: "transform", value: "scale(2)", found: true},
		{name: "transform none", property: "transform", value: "none", found: false},
		{name: "filter on blink", property: "filter", value: "blur(2px)", found: true},
		{name: "filter on webkit", property: "filter", value: "blur(2px)", webkit: true, found: false},
		{name: "backdrop filter", property: "backdrop-filter", value: "blur(1px)", found: true},
		{name: "will-change", property: "will-change", value: "opacity, transform", found: true},
		{name: "contain paint", property: "contain", value: "paint", found: true},
		{name: "container query", property: "container-type", value: "inline-size", found: true},
		{name: "container normal", property: "container-type", value: "normal", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newFakeWindow()
			w.webkit = tt.webkit
			wrapper := w.add("div", w.doc.body, schemas.Rect{}).set(tt.property, tt.value)
			el := w.add("div", wrapper, schemas.Rect{}).set("position", "fixed")

			op := OffsetParentOf(el, nil)
			if tt.found {
				assert.Same(t, wrapper, op.Element)
			} else {
				assert.Same(t, w, op.Window)
			}
		})
	}
}

func TestOffsetParentOf_TopLayerAncestorStopsContainingBlockWalk(t *testing.T) {
	w := newFakeWindow()
	outer := w.add("div", w.doc.body, schemas.Rect{}).set("transform", "scale(2)")
	dialog := w.add("dialog", outer, schemas.Rect{})
	dialog.topLayer = true
	el := w.add("div", dialog, schemas.Rect{}).set("position", "fixed")

	assert.Same(t, w, OffsetParentOf(el, nil).Window)
}

func TestOffsetParentOf_Polyfill(t *testing.T) {
	w, div, _, _, span := tableTree()
	div.set("position", "relative")

	var calls int
	polyfill := func(el Element) Element {
		calls++
		return div
	}
	op := OffsetParentOf(span, polyfill)
	assert.Same(t, div, op.Element)
	assert.Equal(t, 1, calls)

	op = OffsetParentOf(span, func(Element) Element { return nil })
	assert.Same(t, w, op.Window)
}
