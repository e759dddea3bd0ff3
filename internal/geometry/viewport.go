// internal/geometry/viewport.go
package geometry

import "github.com/xkilldash9x/floatgeo/api/schemas"

// VisualOffsets returns the visual viewport offset of the element's window.
// Only WebKit applies it inconsistently to bounding rects, so every other
// engine reports zero.
func VisualOffsets(el Element) schemas.Coordinates {
	w := el.Window()
	if w == nil || !w.IsWebKit() {
		return schemas.Coordinates{}
	}
	offsets, ok := w.VisualViewport()
	if !ok {
		return schemas.Coordinates{}
	}
	return offsets
}

// shouldAddVisualOffsets: the correction only applies to a fixed element whose
// offset parent is its own window. Element origins are left alone.
func shouldAddVisualOffsets(el Element, isFixed bool, offsetParent *OffsetParent) bool {
	if offsetParent == nil || !isFixed {
		return false
	}
	return offsetParent.Element == nil && offsetParent.Window == el.Window()
}
