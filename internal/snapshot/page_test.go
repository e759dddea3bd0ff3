// internal/snapshot/page_test.go
package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/floatgeo/api/schemas"
	"github.com/xkilldash9x/floatgeo/internal/geometry"
)

const fixturePath = "testdata/toolbar.json"

func loadFixture(t *testing.T) *Page {
	t.Helper()
	page, err := Load(fixturePath)
	require.NoError(t, err)
	return page
}

// loadFixtureWith decodes the fixture, applies mutate and builds the page.
func loadFixtureWith(t *testing.T, mutate func(*schemas.PageSnapshot)) *Page {
	t.Helper()
	snap, err := ReadFile(fixturePath)
	require.NoError(t, err)
	mutate(snap)
	page, err := NewPage(snap)
	require.NoError(t, err)
	return page
}

func TestNewPage_Fixture(t *testing.T) {
	page := loadFixture(t)
	w := page.Window()

	require.Len(t, w.Elements(), 13)
	assert.Nil(t, w.Host())
	assert.False(t, w.IsWebKit())
	assert.Equal(t, schemas.Scroll{ScrollTop: 100}, w.PageOffset())
	_, ok := w.VisualViewport()
	assert.False(t, ok)

	doc := w.Document()
	assert.Equal(t, "html", doc.DocumentElement().NodeName())
	assert.Equal(t, "body", doc.Body().NodeName())
	assert.Equal(t, "#document", doc.DocumentElement().ParentNode().NodeName())

	frame, err := w.FrameElement()
	assert.NoError(t, err)
	assert.Nil(t, frame)

	iframe := w.Elements()[10]
	child := iframe.ContentWindow()
	require.NotNil(t, child)
	assert.Same(t, iframe, child.Host())
	host, err := child.FrameElement()
	require.NoError(t, err)
	assert.Same(t, iframe, host)
}

func TestElement_Accessors(t *testing.T) {
	page := loadFixture(t)
	els := page.Window().Elements()
	toolbar, tooltip, circle := els[2], els[4], els[12]

	assert.Equal(t, "div", tooltip.NodeName(), "tags are lower-cased")
	assert.Equal(t, "tooltip", tooltip.Attribute("role"))
	assert.Same(t, toolbar, tooltip.ParentNode())
	assert.Same(t, toolbar, tooltip.OffsetParent())
	assert.Equal(t, "absolute", tooltip.ComputedStyle().Get("position"))
	assert.Empty(t, tooltip.ComputedStyle().Get("transform"))
	assert.Equal(t, 1.0, toolbar.ClientLeft())
	assert.Len(t, toolbar.Children(), 2)

	assert.True(t, tooltip.IsHTML())
	assert.False(t, circle.IsHTML())
	assert.Nil(t, circle.OffsetParent())
	assert.Same(t, page.Window(), circle.Frame())
}

func TestNewPage_Validation(t *testing.T) {
	node := func(index, parent, offsetParent int) schemas.NodeSnapshot {
		return schemas.NodeSnapshot{Index: index, Parent: parent, Tag: "div", OffsetParent: offsetParent}
	}

	tests := []struct {
		name  string
		snap  *schemas.PageSnapshot
		match string
	}{
		{name: "nil snapshot", snap: nil, match: "nil snapshot"},
		{name: "empty frame", snap: &schemas.PageSnapshot{}, match: "has no nodes"},
		{
			name:  "root with parent",
			snap:  &schemas.PageSnapshot{Root: schemas.FrameSnapshot{Nodes: []schemas.NodeSnapshot{node(0, 0, -1)}}},
			match: "document element has a parent",
		},
		{
			name:  "forward parent",
			snap:  &schemas.PageSnapshot{Root: schemas.FrameSnapshot{Nodes: []schemas.NodeSnapshot{node(0, -1, -1), node(1, 2, -1), node(2, 0, -1)}}},
			match: "node 1 has parent 2",
		},
		{
			name:  "misnumbered node",
			snap:  &schemas.PageSnapshot{Root: schemas.FrameSnapshot{Nodes: []schemas.NodeSnapshot{node(0, -1, -1), node(5, 0, -1)}}},
			match: "node 1 has index 5",
		},
		{
			name:  "offset parent out of range",
			snap:  &schemas.PageSnapshot{Root: schemas.FrameSnapshot{Nodes: []schemas.NodeSnapshot{node(0, -1, 3)}}},
			match: "offset parent 3",
		},
		{
			name: "broken nested frame",
			snap: &schemas.PageSnapshot{Root: schemas.FrameSnapshot{Nodes: []schemas.NodeSnapshot{
				node(0, -1, -1),
				{Index: 1, Parent: 0, Tag: "iframe", OffsetParent: -1, Frame: &schemas.FrameSnapshot{}},
			}}},
			match: "frame root/1 has no nodes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPage(tt.snap)
			require.ErrorIs(t, err, ErrInvalidSnapshot)
			assert.Contains(t, err.Error(), tt.match)
		})
	}
}

func TestWindow_CrossOriginFrame(t *testing.T) {
	page := loadFixtureWith(t, func(s *schemas.PageSnapshot) {
		s.Root.Nodes[10].CrossOrigin = true
	})
	child := page.Window().Elements()[10].ContentWindow()

	_, err := child.FrameElement()
	assert.ErrorIs(t, err, geometry.ErrFrameInaccessible)

	chain, err := geometry.FrameChain(child.Elements()[2])
	assert.ErrorIs(t, err, geometry.ErrFrameInaccessible)
	assert.Empty(t, chain)
}

func TestWindow_WebKitViewport(t *testing.T) {
	page := loadFixtureWith(t, func(s *schemas.PageSnapshot) {
		s.Engine = schemas.EngineWebKit
		s.Root.VisualViewport = &schemas.Coordinates{Y: 40}
	})
	w := page.Window()
	assert.True(t, w.IsWebKit())
	vv, ok := w.VisualViewport()
	require.True(t, ok)
	assert.Equal(t, schemas.Coordinates{Y: 40}, vv)
}
