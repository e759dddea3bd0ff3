// internal/geometry/relative.go
package geometry

import "github.com/xkilldash9x/floatgeo/api/schemas"

// RectRelativeToOffsetParent expresses the rect of m in the coordinate system of
// offsetParent: the parent's own position, border and scroll are removed. The
// size is carried through unchanged.
func RectRelativeToOffsetParent(m Measurable, offsetParent OffsetParent, strategy schemas.Strategy) schemas.Rect {
	isElement := offsetParent.IsHTMLElement()
	documentElement := offsetParent.DocumentElement()
	isFixed := strategy.IsFixed()
	rect := BoundingClientRect(m, true, isFixed, &offsetParent)

	var (
		scroll  schemas.Scroll
		offsets schemas.Coordinates
	)
	if isElement || !isFixed {
		// The document already accounts for <body> scroll unless <html> clips.
		if offsetParent.NodeName() != "body" || (documentElement != nil && isOverflowElement(documentElement)) {
			scroll = offsetParent.Scroll()
		}

		if isElement {
			parentRect := BoundingClientRect(offsetParent.Element, true, isFixed, &offsetParent)
			offsets.X = parentRect.X + offsetParent.Element.ClientLeft()
			offsets.Y = parentRect.Y + offsetParent.Element.ClientTop()
		} else if documentElement != nil {
			// Left-side <body> scrollbar on RTL systems.
			offsets.X = windowScrollBarX(documentElement, nil)
		}
	}

	var htmlOffset schemas.Coordinates
	if documentElement != nil && !isElement && !isFixed {
		htmlOffset = documentOffset(documentElement, scroll)
	}

	return schemas.Rect{
		X:      rect.X + scroll.ScrollLeft - offsets.X - htmlOffset.X,
		Y:      rect.Y + scroll.ScrollTop - offsets.Y - htmlOffset.Y,
		Width:  rect.Width,
		Height: rect.Height,
	}
}

// windowScrollBarX is the x position of the document element's left edge,
// which moves right when the root scrollbar sits on the left.
func windowScrollBarX(documentElement Element, rect *schemas.Rect) float64 {
	leftScroll := documentElement.Scroll().ScrollLeft
	if rect == nil {
		return BoundingClientRect(documentElement, false, false, nil).Left() + leftScroll
	}
	return rect.X + leftScroll
}

// documentOffset is the position of the document element plus scroll, minus
// the root scrollbar gutter.
func documentOffset(documentElement Element, scroll schemas.Scroll) schemas.Coordinates {
	htmlRect := documentElement.BoundingClientRect()
	return schemas.Coordinates{
		X: htmlRect.X + scroll.ScrollLeft - windowScrollBarX(documentElement, &htmlRect),
		Y: htmlRect.Y + scroll.ScrollTop,
	}
}
