// internal/geometry/dom.go
package geometry

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/xkilldash9x/floatgeo/api/schemas"
)

// -- Element Model --

// Node is anything that can appear in an ancestor chain.
type Node interface {
	// NodeName is the lower-case tag name, or "#document" for documents.
	NodeName() string
	// ParentNode returns the flat-tree parent (slot or shadow host included), nil at the top.
	ParentNode() Node
}

// Style is a computed style declaration keyed by kebab-case property name.
// Unset properties read as the empty string.
type Style interface {
	Get(property string) string
}

// Measurable is anything with a bounding client rect.
type Measurable interface {
	BoundingClientRect() schemas.Rect
}

// VirtualElement is a measurable that is not itself in the tree, such as a text
// selection range or a cursor position. ContextElement may return nil.
type VirtualElement interface {
	Measurable
	ContextElement() Element
}

// Element is a live element of a document tree.
type Element interface {
	Node
	Measurable

	// IsHTML reports whether the element is a box-model (HTML) element. SVG and
	// MathML elements report false.
	IsHTML() bool
	ComputedStyle() Style
	OffsetWidth() float64
	OffsetHeight() float64
	// OffsetParent is the platform's raw offsetParent, nil when none.
	OffsetParent() Element
	ClientLeft() float64
	ClientTop() float64
	Scroll() schemas.Scroll
	// IsTopLayer reports :modal or :popover-open.
	IsTopLayer() bool
	Window() Window
}

// Document is the root node of a frame.
type Document interface {
	Node
	DocumentElement() Element
	Body() Element
}

// Window is the browsing context of a document.
type Window interface {
	Document() Document
	// FrameElement returns the iframe hosting this window, nil for a top-level
	// window, or ErrFrameInaccessible when the embedder cannot be read.
	FrameElement() (Element, error)
	VisualViewport() (schemas.Coordinates, bool)
	IsWebKit() bool
	// PageOffset is the window's own scroll position (scrollX/scrollY).
	PageOffset() schemas.Scroll
}

// -- Offset Parent --

// OffsetParent is the coordinate origin of a positioned floating element: an
// element or the window. Exactly one field is set.
type OffsetParent struct {
	Element Element
	Window  Window
}

// ElementParent wraps an element origin.
func ElementParent(el Element) OffsetParent { return OffsetParent{Element: el} }

// WindowParent wraps a window origin.
func WindowParent(w Window) OffsetParent { return OffsetParent{Window: w} }

// IsElement reports whether the origin is an element (HTML or not).
func (op OffsetParent) IsElement() bool { return op.Element != nil }

// IsHTMLElement reports whether the origin is a box-model element.
func (op OffsetParent) IsHTMLElement() bool { return op.Element != nil && op.Element.IsHTML() }

// OwnerWindow is the window of the element origin, or the window origin itself.
func (op OffsetParent) OwnerWindow() Window {
	if op.Element != nil {
		return op.Element.Window()
	}
	return op.Window
}

// DocumentElement is the <html> element of the origin's document.
func (op OffsetParent) DocumentElement() Element {
	w := op.OwnerWindow()
	if w == nil {
		return nil
	}
	return documentElementOf(w)
}

// NodeName is the origin's node name; windows have none.
func (op OffsetParent) NodeName() string {
	if op.Element != nil {
		return op.Element.NodeName()
	}
	return ""
}

// Scroll reads the origin's scroll offset: the element's scroll position or the
// window's page offset.
func (op OffsetParent) Scroll() schemas.Scroll {
	return nodeScroll(op.Element, op.Window)
}

// -- Predicates and Helpers --

// unwrapElement resolves a virtual element to its context element.
func unwrapElement(m Measurable) Element {
	switch v := m.(type) {
	case Element:
		return v
	case VirtualElement:
		return v.ContextElement()
	default:
		return nil
	}
}

func documentElementOf(w Window) Element {
	doc := w.Document()
	if doc == nil {
		return nil
	}
	return doc.DocumentElement()
}

func nodeScroll(el Element, w Window) schemas.Scroll {
	if el != nil {
		return el.Scroll()
	}
	if w != nil {
		return w.PageOffset()
	}
	return schemas.Scroll{}
}

// parentNode mirrors the DOM rule that <html> is its own parent for the
// purposes of ancestor walks.
func parentNode(n Node) Node {
	if n.NodeName() == "html" {
		return n
	}
	return n.ParentNode()
}

func isLastTraversableNode(n Node) bool {
	switch n.NodeName() {
	case "html", "body", "#document":
		return true
	}
	return false
}

func isTableElement(el Element) bool {
	switch el.NodeName() {
	case "table", "td", "th":
		return true
	}
	return false
}

func isStaticPositioned(el Element) bool {
	return el.ComputedStyle().Get("position") == "static"
}

var overflowValue = regexp.MustCompile(`auto|scroll|overlay|hidden|clip`)

// isOverflowElement reports whether el clips or scrolls its content.
func isOverflowElement(el Element) bool {
	css := el.ComputedStyle()
	overflow := css.Get("overflow") + css.Get("overflow-y") + css.Get("overflow-x")
	switch css.Get("display") {
	case "inline", "contents":
		return false
	}
	return overflowValue.MatchString(overflow)
}

var (
	transformProperties = []string{"transform", "translate", "scale", "rotate", "perspective"}
	willChangeValues    = []string{"transform", "translate", "scale", "rotate", "perspective", "filter"}
	containValues       = []string{"paint", "layout", "strict", "content"}
)

// isContainingBlock reports whether el establishes a containing block for
// absolutely and fixed positioned descendants.
func isContainingBlock(el Element) bool {
	css := el.ComputedStyle()
	for _, p := range transformProperties {
		if v := css.Get(p); v != "" && v != "none" {
			return true
		}
	}
	if v := css.Get("container-type"); v != "" && v != "normal" {
		return true
	}
	if !el.Window().IsWebKit() {
		if v := css.Get("backdrop-filter"); v != "" && v != "none" {
			return true
		}
		if v := css.Get("filter"); v != "" && v != "none" {
			return true
		}
	}
	willChange := css.Get("will-change")
	for _, v := range willChangeValues {
		if strings.Contains(willChange, v) {
			return true
		}
	}
	contain := css.Get("contain")
	for _, v := range containValues {
		if strings.Contains(contain, v) {
			return true
		}
	}
	return false
}

// containingBlock walks up from el to the nearest ancestor establishing a
// containing block. Top-layer ancestors stop the walk.
func containingBlock(el Element) Element {
	current := parentNode(el)
	for current != nil && !isLastTraversableNode(current) {
		ancestor, ok := current.(Element)
		if !ok || !ancestor.IsHTML() {
			return nil
		}
		if isContainingBlock(ancestor) {
			return ancestor
		}
		if ancestor.IsTopLayer() {
			return nil
		}
		current = parentNode(ancestor)
	}
	return nil
}

var leadingFloat = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)

// cssFloat parses the leading number of a CSS value ("12.5px" -> 12.5). It
// reports false when the value has no numeric prefix.
func cssFloat(s string) (float64, bool) {
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// cssFloatOrZero is cssFloat with 0 for unparsable values.
func cssFloatOrZero(s string) float64 {
	f, _ := cssFloat(s)
	return f
}

// round matches JavaScript Math.round: halves round towards +Inf.
func round(f float64) float64 {
	return math.Floor(f + 0.5)
}
