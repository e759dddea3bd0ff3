// internal/geometry/scale.go
package geometry

import "github.com/xkilldash9x/floatgeo/api/schemas"

// Scale returns the effective transform/zoom scale of an element by comparing
// its rendered bounding rect to its layout box. Non-HTML elements always have a
// unit scale.
func Scale(m Measurable) schemas.Scale {
	el := unwrapElement(m)
	if el == nil || !el.IsHTML() {
		return schemas.UnitScale
	}

	rect := el.BoundingClientRect()
	dims := CSSDimensions(el)

	rw, rh := rect.Width, rect.Height
	if !dims.FallbackApplied {
		rw, rh = round(rw), round(rh)
	}
	// Zero dimensions divide to Inf or NaN, which normalize to 1.
	return schemas.NormalizeScale(schemas.Scale{X: rw / dims.Width, Y: rh / dims.Height})
}
