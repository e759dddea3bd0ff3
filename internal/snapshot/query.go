// internal/snapshot/query.go
package snapshot

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FrameSeparator joins XPath expressions that step into nested frames, e.g.
// `//iframe[@id='checkout'] >> //button`.
const FrameSeparator = ">>"

// ErrNoMatch is returned when an expression selects nothing.
var ErrNoMatch = errors.New("no element matches xpath")

// mirror is an x/net/html tree shaped like a frame so XPath can run over it.
type mirror struct {
	root   *html.Node
	nodes  []*html.Node
	byNode map[*html.Node]*Element
	ids    map[string]int
}

func buildMirror(w *Window) *mirror {
	m := &mirror{
		root:   &html.Node{Type: html.DocumentNode},
		nodes:  make([]*html.Node, len(w.elements)),
		byNode: make(map[*html.Node]*Element, len(w.elements)),
		ids:    make(map[string]int),
	}

	for i, el := range w.elements {
		n := &html.Node{
			Type:     html.ElementNode,
			Data:     el.name,
			DataAtom: atom.Lookup([]byte(el.name)),
		}
		keys := make([]string, 0, len(el.node.Attributes))
		for k := range el.node.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			n.Attr = append(n.Attr, html.Attribute{Key: k, Val: el.node.Attributes[k]})
		}
		if id := el.node.Attributes["id"]; id != "" {
			m.ids[id]++
		}

		parent := m.root
		if el.parent != nil {
			parent = m.nodes[el.parent.node.Index]
		}
		parent.AppendChild(n)
		m.nodes[i] = n
		m.byNode[n] = el
	}
	return m
}

// IndexTopLevel returns the index of the first sep in s that lies outside
// string literals and [] or () groups, or -1 when there is none.
func IndexTopLevel(s, sep string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '[' || c == '(':
			depth++
		case c == ']' || c == ')':
			depth--
		case depth == 0 && strings.HasPrefix(s[i:], sep):
			return i
		}
	}
	return -1
}

// splitFrames cuts expr at every top-level FrameSeparator.
func splitFrames(expr string) []string {
	var segments []string
	for {
		i := IndexTopLevel(expr, FrameSeparator)
		if i < 0 {
			return append(segments, expr)
		}
		segments = append(segments, expr[:i])
		expr = expr[i+len(FrameSeparator):]
	}
}

// Find returns the first element selected by expr in document order. A nil
// error always comes with a non-nil element.
func (p *Page) Find(expr string) (*Element, error) {
	matches, err := p.FindAll(expr)
	if err != nil {
		return nil, err
	}
	return matches[0], nil
}

// FindAll returns every element selected by expr. Every segment but the last
// must select an iframe whose content was captured; its first match is the
// frame the next segment runs in. A separator inside a string literal or a
// predicate does not split.
func (p *Page) FindAll(expr string) ([]*Element, error) {
	segments := splitFrames(expr)
	w := p.top
	for i := 0; ; i++ {
		seg := strings.TrimSpace(segments[i])
		matches, err := w.queryAll(seg)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrNoMatch, seg)
		}
		if i == len(segments)-1 {
			return matches, nil
		}
		if matches[0].content == nil {
			return nil, fmt.Errorf("%w: %q does not select a captured frame", ErrNoMatch, seg)
		}
		w = matches[0].content
	}
}

func (w *Window) queryAll(expr string) ([]*Element, error) {
	nodes, err := htmlquery.QueryAll(w.mirror.root, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if el, ok := w.mirror.byNode[n]; ok {
			out = append(out, el)
		}
	}
	return out, nil
}

// XPath returns an expression that selects exactly e through Page.Find. Unique
// IDs are used as anchors; nested frames are joined with FrameSeparator.
func (e *Element) XPath() string {
	local := e.win.localXPath(e)
	if e.win.host == nil {
		return local
	}
	return e.win.host.XPath() + " " + FrameSeparator + " " + local
}

func (w *Window) localXPath(e *Element) string {
	var path []string
	for n := w.mirror.nodes[e.node.Index]; n != nil && n.Type != html.DocumentNode; n = n.Parent {
		id := htmlquery.SelectAttr(n, "id")
		if id != "" && w.mirror.ids[id] == 1 && !strings.Contains(id, "'") {
			path = append(path, fmt.Sprintf(`//*[@id='%s']`, id))
			break
		}

		index := 1
		for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
			if prev.Type == html.ElementNode && prev.Data == n.Data {
				index++
			}
		}
		path = append(path, fmt.Sprintf("%s[%d]", n.Data, index))
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	xpath := strings.Join(path, "/")
	if !strings.HasPrefix(xpath, "//") {
		xpath = "/" + xpath
	}
	return xpath
}
