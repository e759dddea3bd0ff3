// internal/snapshot/page.go
package snapshot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xkilldash9x/floatgeo/api/schemas"
	"github.com/xkilldash9x/floatgeo/internal/geometry"
)

// ErrInvalidSnapshot is returned when a snapshot's node table is inconsistent.
var ErrInvalidSnapshot = errors.New("invalid page snapshot")

// Page is a read-only element tree rebuilt from a captured snapshot. It is safe
// for concurrent use once constructed.
type Page struct {
	snap *schemas.PageSnapshot
	top  *Window
}

// NewPage validates snap and builds the element model for it and every nested
// frame. The snapshot must not be modified afterwards.
func NewPage(snap *schemas.PageSnapshot) (*Page, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	p := &Page{snap: snap}
	top, err := p.buildWindow(&snap.Root, nil, "root")
	if err != nil {
		return nil, err
	}
	p.top = top
	return p, nil
}

// Snapshot returns the underlying snapshot.
func (p *Page) Snapshot() *schemas.PageSnapshot { return p.snap }

// Window returns the top-level window.
func (p *Page) Window() *Window { return p.top }

func (p *Page) buildWindow(frame *schemas.FrameSnapshot, host *Element, path string) (*Window, error) {
	if len(frame.Nodes) == 0 {
		return nil, fmt.Errorf("%w: frame %s has no nodes", ErrInvalidSnapshot, path)
	}

	w := &Window{page: p, frame: frame, host: host}
	w.doc = &Document{win: w}
	w.elements = make([]*Element, len(frame.Nodes))

	for i := range frame.Nodes {
		n := &frame.Nodes[i]
		if n.Index != i {
			return nil, fmt.Errorf("%w: frame %s node %d has index %d", ErrInvalidSnapshot, path, i, n.Index)
		}
		if i == 0 && n.Parent != schemas.NoNode {
			return nil, fmt.Errorf("%w: frame %s document element has a parent", ErrInvalidSnapshot, path)
		}
		if i > 0 && (n.Parent < 0 || n.Parent >= i) {
			return nil, fmt.Errorf("%w: frame %s node %d has parent %d", ErrInvalidSnapshot, path, i, n.Parent)
		}
		if n.OffsetParent != schemas.NoNode && (n.OffsetParent < 0 || n.OffsetParent >= len(frame.Nodes)) {
			return nil, fmt.Errorf("%w: frame %s node %d has offset parent %d", ErrInvalidSnapshot, path, i, n.OffsetParent)
		}
		w.elements[i] = &Element{node: n, win: w, name: strings.ToLower(n.Tag)}
	}

	for _, el := range w.elements {
		if el.node.Parent != schemas.NoNode {
			parent := w.elements[el.node.Parent]
			el.parent = parent
			parent.children = append(parent.children, el)
		}
		if el.node.OffsetParent != schemas.NoNode {
			el.offsetParent = w.elements[el.node.OffsetParent]
		}
		if el.name == "body" && el.parent == w.elements[0] && w.doc.body == nil {
			w.doc.body = el
		}
	}

	for _, el := range w.elements {
		if el.node.Frame == nil {
			continue
		}
		child, err := p.buildWindow(el.node.Frame, el, fmt.Sprintf("%s/%d", path, el.node.Index))
		if err != nil {
			return nil, err
		}
		el.content = child
	}

	w.mirror = buildMirror(w)
	return w, nil
}

// -- Window --

// Window is one browsing context of a Page.
type Window struct {
	page     *Page
	frame    *schemas.FrameSnapshot
	host     *Element
	doc      *Document
	elements []*Element
	mirror   *mirror
}

// Elements returns the window's elements in document order.
func (w *Window) Elements() []*Element { return w.elements }

// Host is the iframe element this window is embedded in, nil at the top level.
func (w *Window) Host() *Element { return w.host }

func (w *Window) Document() geometry.Document { return w.doc }

// FrameElement reports ErrFrameInaccessible for frames captured across an
// origin boundary.
func (w *Window) FrameElement() (geometry.Element, error) {
	if w.host == nil {
		return nil, nil
	}
	if w.host.node.CrossOrigin {
		return nil, geometry.ErrFrameInaccessible
	}
	return w.host, nil
}

func (w *Window) VisualViewport() (schemas.Coordinates, bool) {
	if w.frame.VisualViewport == nil {
		return schemas.Coordinates{}, false
	}
	return *w.frame.VisualViewport, true
}

func (w *Window) IsWebKit() bool { return w.page.snap.Engine == schemas.EngineWebKit }

func (w *Window) PageOffset() schemas.Scroll {
	return schemas.Scroll{ScrollLeft: w.frame.ScrollX, ScrollTop: w.frame.ScrollY}
}

// -- Document --

// Document is the root node of a Window.
type Document struct {
	win  *Window
	body *Element
}

func (d *Document) NodeName() string          { return "#document" }
func (d *Document) ParentNode() geometry.Node { return nil }

func (d *Document) DocumentElement() geometry.Element { return d.win.elements[0] }

func (d *Document) Body() geometry.Element {
	if d.body == nil {
		return nil
	}
	return d.body
}
