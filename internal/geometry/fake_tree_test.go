// internal/geometry/fake_tree_test.go
package geometry

import (
	"fmt"

	"github.com/xkilldash9x/floatgeo/api/schemas"
)

// -- In-memory element tree used by the resolver tests --

type fakeStyle map[string]string

func (s fakeStyle) Get(property string) string { return s[property] }

type fakeElement struct {
	name         string
	parent       Node
	rect         schemas.Rect
	svg          bool
	style        fakeStyle
	offsetWidth  float64
	offsetHeight float64
	offsetParent *fakeElement
	clientLeft   float64
	clientTop    float64
	scroll       schemas.Scroll
	topLayer     bool
	win          *fakeWindow
}

func (e *fakeElement) NodeName() string                 { return e.name }
func (e *fakeElement) ParentNode() Node                 { return e.parent }
func (e *fakeElement) BoundingClientRect() schemas.Rect { return e.rect }
func (e *fakeElement) IsHTML() bool                     { return !e.svg }
func (e *fakeElement) ComputedStyle() Style             { return e.style }
func (e *fakeElement) OffsetWidth() float64             { return e.offsetWidth }
func (e *fakeElement) OffsetHeight() float64            { return e.offsetHeight }
func (e *fakeElement) ClientLeft() float64              { return e.clientLeft }
func (e *fakeElement) ClientTop() float64               { return e.clientTop }
func (e *fakeElement) Scroll() schemas.Scroll           { return e.scroll }
func (e *fakeElement) IsTopLayer() bool                 { return e.topLayer }
func (e *fakeElement) Window() Window                   { return e.win }

func (e *fakeElement) OffsetParent() Element {
	if e.offsetParent == nil {
		return nil
	}
	return e.offsetParent
}

// set overrides a computed style property and returns the element for chaining.
func (e *fakeElement) set(property, value string) *fakeElement {
	e.style[property] = value
	return e
}

type fakeDocument struct {
	html *fakeElement
	body *fakeElement
}

func (d *fakeDocument) NodeName() string { return "#document" }
func (d *fakeDocument) ParentNode() Node { return nil }

func (d *fakeDocument) DocumentElement() Element {
	if d.html == nil {
		return nil
	}
	return d.html
}

func (d *fakeDocument) Body() Element {
	if d.body == nil {
		return nil
	}
	return d.body
}

type fakeWindow struct {
	doc      *fakeDocument
	frame    *fakeElement
	frameErr error
	viewport *schemas.Coordinates
	webkit   bool
	page     schemas.Scroll
}

func (w *fakeWindow) Document() Document { return w.doc }
func (w *fakeWindow) IsWebKit() bool     { return w.webkit }
func (w *fakeWindow) PageOffset() schemas.Scroll {
	return w.page
}

func (w *fakeWindow) FrameElement() (Element, error) {
	if w.frameErr != nil {
		return nil, w.frameErr
	}
	if w.frame == nil {
		return nil, nil
	}
	return w.frame, nil
}

func (w *fakeWindow) VisualViewport() (schemas.Coordinates, bool) {
	if w.viewport == nil {
		return schemas.Coordinates{}, false
	}
	return *w.viewport, true
}

// newFakeWindow builds a window whose document has an <html> and a <body>
// covering an 800x600 viewport.
func newFakeWindow() *fakeWindow {
	w := &fakeWindow{doc: &fakeDocument{}}
	viewport := schemas.Rect{Width: 800, Height: 600}
	w.doc.html = w.newElement("html", w.doc, viewport)
	w.doc.body = w.add("body", w.doc.html, viewport)
	return w
}

func (w *fakeWindow) newElement(name string, parent Node, rect schemas.Rect) *fakeElement {
	return &fakeElement{
		name:   name,
		parent: parent,
		rect:   rect,
		style: fakeStyle{
			"position": "static",
			"display":  "block",
			"width":    fmt.Sprintf("%gpx", rect.Width),
			"height":   fmt.Sprintf("%gpx", rect.Height),
		},
		offsetWidth:  rect.Width,
		offsetHeight: rect.Height,
		win:          w,
	}
}

// add appends an untransformed HTML element whose layout box matches rect.
func (w *fakeWindow) add(name string, parent *fakeElement, rect schemas.Rect) *fakeElement {
	return w.newElement(name, parent, rect)
}

// addSVG appends an SVG element; SVG reports empty width/height strings.
func (w *fakeWindow) addSVG(name string, parent *fakeElement, rect schemas.Rect) *fakeElement {
	el := w.newElement(name, parent, rect)
	el.svg = true
	el.style["width"] = ""
	el.style["height"] = ""
	el.offsetWidth, el.offsetHeight = 0, 0
	return el
}

// addScaled appends an element with a layout box of cssW x cssH rendered at
// rect, as a CSS scale transform would.
func (w *fakeWindow) addScaled(name string, parent *fakeElement, rect schemas.Rect, cssW, cssH float64) *fakeElement {
	el := w.newElement(name, parent, rect)
	el.style["width"] = fmt.Sprintf("%gpx", cssW)
	el.style["height"] = fmt.Sprintf("%gpx", cssH)
	el.offsetWidth, el.offsetHeight = cssW, cssH
	return el
}

// addFrame appends an iframe to w and returns the child window it hosts.
func (w *fakeWindow) addFrame(parent *fakeElement, rect schemas.Rect, cssW, cssH float64) (*fakeElement, *fakeWindow) {
	frame := w.addScaled("iframe", parent, rect, cssW, cssH)
	child := newFakeWindow()
	child.frame = frame
	return frame, child
}

// fakeVirtual is a measurable that is not part of the tree.
type fakeVirtual struct {
	rect    schemas.Rect
	context *fakeElement
}

func (v fakeVirtual) BoundingClientRect() schemas.Rect { return v.rect }

func (v fakeVirtual) ContextElement() Element {
	if v.context == nil {
		return nil
	}
	return v.context
}
