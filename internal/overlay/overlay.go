// internal/overlay/overlay.go
package overlay

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/floatgeo/api/schemas"
)

const (
	svgNamespace = "http://www.w3.org/2000/svg"
	padding      = 10.0
)

// Entry is one resolved pair to draw.
type Entry struct {
	Name  string
	Rects schemas.ElementRects
}

// BottomPlacement positions the floating box centered below the reference, in
// the reference's coordinate space.
func BottomPlacement(rects schemas.ElementRects) schemas.Rect {
	ref, fl := rects.Reference, rects.Floating
	return schemas.Rect{
		X:      ref.X + ref.Width/2 - fl.Width/2,
		Y:      ref.Y + ref.Height,
		Width:  fl.Width,
		Height: fl.Height,
	}
}

// Render draws every entry in the floating element's offset parent space: the
// reference rect and the floating box at its bottom placement.
func Render(entries []Entry) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	svg := doc.CreateElement("svg")
	svg.CreateAttr("xmlns", svgNamespace)

	style := svg.CreateElement("style")
	style.SetText(".reference{fill:none;stroke:#1f77b4;stroke-width:1}" +
		".floating{fill:#ff7f0e;fill-opacity:0.25;stroke:#ff7f0e;stroke-dasharray:4 2}" +
		"text{font:10px sans-serif}")

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	extend := func(r schemas.Rect) {
		minX, minY = math.Min(minX, r.X), math.Min(minY, r.Y)
		maxX, maxY = math.Max(maxX, r.X+r.Width), math.Max(maxY, r.Y+r.Height)
	}

	for i, e := range entries {
		floating := BottomPlacement(e.Rects)
		extend(e.Rects.Reference)
		extend(floating)

		g := svg.CreateElement("g")
		g.CreateAttr("id", fmt.Sprintf("pair-%d", i))
		if e.Name != "" {
			g.CreateAttr("data-name", e.Name)
		}
		addRect(g, "reference", e.Rects.Reference)
		addRect(g, "floating", floating)

		label := g.CreateElement("text")
		label.CreateAttr("x", formatFloat(e.Rects.Reference.X))
		label.CreateAttr("y", formatFloat(e.Rects.Reference.Y-2))
		label.SetText(e.Name)
	}

	if len(entries) == 0 {
		minX, minY, maxX, maxY = 0, 0, 0, 0
	}
	minX, minY = minX-padding, minY-padding
	width, height := maxX-minX+padding, maxY-minY+padding
	svg.CreateAttr("viewBox", fmt.Sprintf("%s %s %s %s",
		formatFloat(minX), formatFloat(minY), formatFloat(width), formatFloat(height)))
	svg.CreateAttr("width", formatFloat(width))
	svg.CreateAttr("height", formatFloat(height))

	doc.Indent(2)
	return doc
}

func addRect(parent *etree.Element, class string, r schemas.Rect) {
	rect := parent.CreateElement("rect")
	rect.CreateAttr("class", class)
	rect.CreateAttr("x", formatFloat(r.X))
	rect.CreateAttr("y", formatFloat(r.Y))
	rect.CreateAttr("width", formatFloat(r.Width))
	rect.CreateAttr("height", formatFloat(r.Height))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Write renders entries to w.
func Write(w io.Writer, entries []Entry) error {
	if _, err := Render(entries).WriteTo(w); err != nil {
		return fmt.Errorf("failed to write overlay: %w", err)
	}
	return nil
}

// WriteFile renders entries to path.
func WriteFile(path string, entries []Entry) error {
	if err := Render(entries).WriteToFile(path); err != nil {
		return fmt.Errorf("failed to write overlay to %s: %w", path, err)
	}
	return nil
}
