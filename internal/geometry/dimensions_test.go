// internal/geometry/dimensions_test.go
package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xkilldash9x/floatgeo/api/schemas"
)

func TestCSSDimensions(t *testing.T) {
	w := newFakeWindow()

	t.Run("sub-pixel computed width within rounding keeps the computed value", func(t *testing.T) {
		el := w.add("div", w.doc.body, schemas.Rect{Width: 100, Height: 20})
		el.set("width", "100.4px")
		got := CSSDimensions(el)
		assert.Equal(t, schemas.DimensionSample{Width: 100.4, Height: 20}, got)
	})

	t.Run("disagreement falls back to offsets", func(t *testing.T) {
		el := w.add("div", w.doc.body, schemas.Rect{Width: 100, Height: 20})
		el.set("width", "100.6px")
		got := CSSDimensions(el)
		assert.Equal(t, schemas.DimensionSample{Width: 100, Height: 20, FallbackApplied: true}, got)
	})

	t.Run("unparsable values read as zero", func(t *testing.T) {
		el := w.add("div", w.doc.body, schemas.Rect{Width: 50, Height: 10})
		el.set("width", "auto").set("height", "")
		got := CSSDimensions(el)
		assert.True(t, got.FallbackApplied)
		assert.Equal(t, 50.0, got.Width)
		assert.Equal(t, 10.0, got.Height)
	})

	t.Run("SVG has no offsets to fall back to", func(t *testing.T) {
		el := w.addSVG("circle", w.doc.body, schemas.Rect{Width: 30, Height: 30})
		assert.Equal(t, schemas.DimensionSample{}, CSSDimensions(el))

		el.set("width", "30px").set("height", "12.5px")
		assert.Equal(t, schemas.DimensionSample{Width: 30, Height: 12.5}, CSSDimensions(el))
	})
}

func TestCSSFloat(t *testing.T) {
	tests := map[string]struct {
		in string
		f  float64
		ok bool
	}{
		"pixels":      {"12.5px", 12.5, true},
		"negative":    {"-3px", -3, true},
		"leading dot": {".5em", 0.5, true},
		"exponent":    {"1e2px", 100, true},
		"padded":      {"  7px ", 7, true},
		"keyword":     {"auto", 0, false},
		"empty":       {"", 0, false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f, ok := cssFloat(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.f, f)
		})
	}
}

func TestRoundMatchesJavaScript(t *testing.T) {
	assert.Equal(t, 3.0, round(2.5))
	assert.Equal(t, -2.0, round(-2.5))
	assert.Equal(t, 100.0, round(100.4))
}
