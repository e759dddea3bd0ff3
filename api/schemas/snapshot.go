package schemas

import "time"

// -- Page Snapshot Schemas --

// Rendering engines a snapshot can be captured from.
const (
	EngineBlink  = "blink"
	EngineWebKit = "webkit"
	EngineGecko  = "gecko"
)

// Namespaces recorded for snapshot nodes.
const (
	NamespaceHTML = "html"
	NamespaceSVG  = "svg"
)

// NoNode marks an absent parent or offset parent index.
const NoNode = -1

// PageSnapshot is a frozen copy of the geometry of a page and all of its
// same-origin frames.
type PageSnapshot struct {
	ID         string        `json:"id"`
	URL        string        `json:"url"`
	Engine     string        `json:"engine"`
	CapturedAt time.Time     `json:"capturedAt"`
	Viewport   Dimensions    `json:"viewport"`
	Root       FrameSnapshot `json:"root"`
}

// FrameSnapshot is one document. Nodes are in document order with parents
// before children; node 0 is the document element.
type FrameSnapshot struct {
	ScrollX        float64        `json:"scrollX"`
	ScrollY        float64        `json:"scrollY"`
	VisualViewport *Coordinates   `json:"visualViewport,omitempty"`
	Nodes          []NodeSnapshot `json:"nodes"`
}

// NodeSnapshot is one element of a frame.
type NodeSnapshot struct {
	Index        int               `json:"index"`
	Parent       int               `json:"parent"`
	Tag          string            `json:"tag"`
	Namespace    string            `json:"namespace,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	Rect         Rect              `json:"rect"`
	OffsetWidth  float64           `json:"offsetWidth"`
	OffsetHeight float64           `json:"offsetHeight"`
	OffsetParent int               `json:"offsetParent"`
	ClientLeft   float64           `json:"clientLeft"`
	ClientTop    float64           `json:"clientTop"`
	ScrollLeft   float64           `json:"scrollLeft"`
	ScrollTop    float64           `json:"scrollTop"`
	TopLayer     bool              `json:"topLayer,omitempty"`
	Style        map[string]string `json:"style,omitempty"`
	// Frame is the content document of an iframe.
	Frame       *FrameSnapshot `json:"frame,omitempty"`
	CrossOrigin bool           `json:"crossOrigin,omitempty"`
}
