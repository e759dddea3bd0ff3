// internal/geometry/offsetparent.go
package geometry

// OffsetParentOf resolves the element whose coordinate system a positioned el
// is laid out in, or the window when there is none. polyfill, when non-nil,
// replaces the platform's raw offsetParent lookup (used for elements hidden in
// closed shadow roots and other non-standard trees).
func OffsetParentOf(el Element, polyfill func(Element) Element) OffsetParent {
	win := el.Window()
	if el.IsTopLayer() {
		return WindowParent(win)
	}

	// SVG elements have no offsetParent; walk the flat tree instead.
	if !el.IsHTML() {
		for current := parentNode(el); current != nil && !isLastTraversableNode(current); current = parentNode(current) {
			if ancestor, ok := current.(Element); ok && !isStaticPositioned(ancestor) {
				return ElementParent(ancestor)
			}
		}
		return WindowParent(win)
	}

	offsetParent := trueOffsetParent(el, polyfill)
	// Unpositioned table parts are never a positioning origin.
	for offsetParent != nil && isTableElement(offsetParent) && isStaticPositioned(offsetParent) {
		offsetParent = trueOffsetParent(offsetParent, polyfill)
	}

	if offsetParent != nil &&
		isLastTraversableNode(offsetParent) &&
		isStaticPositioned(offsetParent) &&
		!isContainingBlock(offsetParent) {
		return WindowParent(win)
	}
	if offsetParent != nil {
		return ElementParent(offsetParent)
	}
	if cb := containingBlock(el); cb != nil {
		return ElementParent(cb)
	}
	return WindowParent(win)
}

// trueOffsetParent reads the platform offsetParent, correcting engines that
// report a non-static <html> instead of <body>.
func trueOffsetParent(el Element, polyfill func(Element) Element) Element {
	if !el.IsHTML() || el.ComputedStyle().Get("position") == "fixed" {
		return nil
	}
	if polyfill != nil {
		return polyfill(el)
	}

	raw := el.OffsetParent()
	if raw == nil {
		return nil
	}
	if root := documentElementOf(el.Window()); root != nil && root == raw {
		doc := raw.Window().Document()
		if doc == nil {
			return nil
		}
		return doc.Body()
	}
	return raw
}
