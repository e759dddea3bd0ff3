// internal/geometry/clientrect.go
package geometry

import "github.com/xkilldash9x/floatgeo/api/schemas"

// BoundingClientRect resolves the bounding rect of m in the coordinate space of
// the offset parent's window.
//
// When includeScale is set the rect is divided by the scale of the offset parent
// (or of m itself when no offset parent is given). When m lives in a nested
// frame, the rect is carried up through every frame until it reaches the offset
// parent's window, applying each frame's scale, border and padding.
//
// A frame whose embedder cannot be read stops the walk; the rect computed up to
// that frame is returned.
func BoundingClientRect(m Measurable, includeScale, isFixedStrategy bool, offsetParent *OffsetParent) schemas.ClientRect {
	clientRect := m.BoundingClientRect()
	el := unwrapElement(m)

	scale := schemas.UnitScale
	if includeScale {
		if offsetParent != nil {
			if offsetParent.IsElement() {
				scale = Scale(offsetParent.Element)
			}
		} else {
			scale = Scale(m)
		}
	}

	var visual schemas.Coordinates
	if el != nil && shouldAddVisualOffsets(el, isFixedStrategy, offsetParent) {
		visual = VisualOffsets(el)
	}

	rect := schemas.Rect{
		X:      (clientRect.X + visual.X) / scale.X,
		Y:      (clientRect.Y + visual.Y) / scale.Y,
		Width:  clientRect.Width / scale.X,
		Height: clientRect.Height / scale.Y,
	}

	if el != nil && offsetParent != nil {
		// The partial rect is the documented answer for an unreadable frame.
		rect, _ = accumulateFrames(el.Window(), offsetParent.OwnerWindow(), rect)
	}
	return schemas.NewClientRect(rect)
}

// accumulateFrames maps rect from win's coordinate space outwards until it
// reaches target or the top-level window.
func accumulateFrames(win, target Window, rect schemas.Rect) (schemas.Rect, error) {
	for current := win; current != nil && current != target; {
		frame, err := current.FrameElement()
		if err != nil {
			return rect, err
		}
		if frame == nil {
			break
		}

		s := Scale(frame)
		frameRect := frame.BoundingClientRect()
		css := frame.ComputedStyle()
		left := frameRect.X + (frame.ClientLeft()+cssFloatOrZero(css.Get("padding-left")))*s.X
		top := frameRect.Y + (frame.ClientTop()+cssFloatOrZero(css.Get("padding-top")))*s.Y

		rect.X = rect.X*s.X + left
		rect.Y = rect.Y*s.Y + top
		rect.Width *= s.X
		rect.Height *= s.Y

		current = frame.Window()
	}
	return rect, nil
}

// FrameChain lists the iframe elements between el's window and the top-level
// window, innermost first. The returned error is ErrFrameInaccessible when the
// chain is cut short by an unreadable embedder.
func FrameChain(el Element) ([]Element, error) {
	var chain []Element
	for current := el.Window(); current != nil; {
		frame, err := current.FrameElement()
		if err != nil {
			return chain, err
		}
		if frame == nil {
			break
		}
		chain = append(chain, frame)
		current = frame.Window()
	}
	return chain, nil
}
