// internal/snapshot/element.go
package snapshot

import (
	"github.com/xkilldash9x/floatgeo/api/schemas"
	"github.com/xkilldash9x/floatgeo/internal/geometry"
)

// Element is a node of a captured frame. It implements geometry.Element.
type Element struct {
	node         *schemas.NodeSnapshot
	win          *Window
	name         string
	parent       *Element
	children     []*Element
	offsetParent *Element
	// content is the window of an iframe, nil otherwise.
	content *Window
}

// styleMap is the computed style recorded at capture time.
type styleMap map[string]string

func (s styleMap) Get(property string) string { return s[property] }

// Index is the node's position in its frame.
func (e *Element) Index() int { return e.node.Index }

// Attribute returns the named attribute or the empty string.
func (e *Element) Attribute(name string) string { return e.node.Attributes[name] }

// ContentWindow is the window hosted by an iframe element, nil otherwise.
func (e *Element) ContentWindow() *Window { return e.content }

// Children returns the element children in document order.
func (e *Element) Children() []*Element { return e.children }

func (e *Element) NodeName() string { return e.name }

// ParentNode returns the parent element, or the document for the root.
func (e *Element) ParentNode() geometry.Node {
	if e.parent == nil {
		return e.win.doc
	}
	return e.parent
}

func (e *Element) BoundingClientRect() schemas.Rect { return e.node.Rect }

func (e *Element) IsHTML() bool {
	return e.node.Namespace == "" || e.node.Namespace == schemas.NamespaceHTML
}

func (e *Element) ComputedStyle() geometry.Style { return styleMap(e.node.Style) }

func (e *Element) OffsetWidth() float64  { return e.node.OffsetWidth }
func (e *Element) OffsetHeight() float64 { return e.node.OffsetHeight }

func (e *Element) OffsetParent() geometry.Element {
	if e.offsetParent == nil {
		return nil
	}
	return e.offsetParent
}

func (e *Element) ClientLeft() float64 { return e.node.ClientLeft }
func (e *Element) ClientTop() float64  { return e.node.ClientTop }

func (e *Element) Scroll() schemas.Scroll {
	return schemas.Scroll{ScrollLeft: e.node.ScrollLeft, ScrollTop: e.node.ScrollTop}
}

func (e *Element) IsTopLayer() bool { return e.node.TopLayer }

func (e *Element) Window() geometry.Window { return e.win }

// Frame is the concrete window of the element.
func (e *Element) Frame() *Window { return e.win }
