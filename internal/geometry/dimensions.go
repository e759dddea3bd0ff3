// internal/geometry/dimensions.go
package geometry

import "github.com/xkilldash9x/floatgeo/api/schemas"

// CSSDimensions resolves the content box size of el from its computed style,
// falling back to the layout offsets when the two disagree after rounding.
// Sub-pixel layouts make computed style and the integer offsets diverge; the
// offsets are closer to what was painted.
func CSSDimensions(el Element) schemas.DimensionSample {
	css := el.ComputedStyle()
	// SVG elements may report empty strings here.
	width := cssFloatOrZero(css.Get("width"))
	height := cssFloatOrZero(css.Get("height"))

	// Only box-model elements have layout offsets to compare against.
	if !el.IsHTML() {
		return schemas.DimensionSample{Width: width, Height: height}
	}

	offsetWidth, offsetHeight := el.OffsetWidth(), el.OffsetHeight()
	fallback := round(width) != offsetWidth || round(height) != offsetHeight
	if fallback {
		width, height = offsetWidth, offsetHeight
	}
	return schemas.DimensionSample{Width: width, Height: height, FallbackApplied: fallback}
}
