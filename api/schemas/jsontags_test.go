package schemas_test

import (
	"reflect"
	"testing"

	// Third party libraries for expressive and robust assertions.
	"github.com/stretchr/testify/assert"

	// Import the package we are testing.
	"github.com/xkilldash9x/floatgeo/api/schemas"
)

// TestStructJSONTags uses reflection to verify the `json` tags on the snapshot
// and geometry structs. Snapshot files and archived payloads depend on them.
func TestStructJSONTags(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name         string
		structRef    interface{}
		expectedTags map[string]string
	}{
		{
			name:         "Rect",
			structRef:    schemas.Rect{},
			expectedTags: map[string]string{"X": "x", "Y": "y", "Width": "width", "Height": "height"},
		},
		{
			name:         "ElementRects",
			structRef:    schemas.ElementRects{},
			expectedTags: map[string]string{"Reference": "reference", "Floating": "floating"},
		},
		{
			name:         "Scroll",
			structRef:    schemas.Scroll{},
			expectedTags: map[string]string{"ScrollLeft": "scrollLeft", "ScrollTop": "scrollTop"},
		},
		{
			name:      "DimensionSample",
			structRef: schemas.DimensionSample{},
			expectedTags: map[string]string{
				"Width":           "width",
				"Height":          "height",
				"FallbackApplied": "fallbackApplied",
			},
		},
		{
			name:      "PageSnapshot",
			structRef: schemas.PageSnapshot{},
			expectedTags: map[string]string{
				"ID":         "id",
				"URL":        "url",
				"Engine":     "engine",
				"CapturedAt": "capturedAt",
				"Viewport":   "viewport",
				"Root":       "root",
			},
		},
		{
			name:      "FrameSnapshot",
			structRef: schemas.FrameSnapshot{},
			expectedTags: map[string]string{
				"ScrollX":        "scrollX",
				"ScrollY":        "scrollY",
				"VisualViewport": "visualViewport,omitempty",
				"Nodes":          "nodes",
			},
		},
		{
			name:      "NodeSnapshot",
			structRef: schemas.NodeSnapshot{},
			expectedTags: map[string]string{
				"Index":        "index",
				"Parent":       "parent",
				"Tag":          "tag",
				"Namespace":    "namespace,omitempty",
				"Attributes":   "attributes,omitempty",
				"Rect":         "rect",
				"OffsetWidth":  "offsetWidth",
				"OffsetHeight": "offsetHeight",
				"OffsetParent": "offsetParent",
				"ClientLeft":   "clientLeft",
				"ClientTop":    "clientTop",
				"ScrollLeft":   "scrollLeft",
				"ScrollTop":    "scrollTop",
				"TopLayer":     "topLayer,omitempty",
				"Style":        "style,omitempty",
				"Frame":        "frame,omitempty",
				"CrossOrigin":  "crossOrigin,omitempty",
			},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			structType := reflect.TypeOf(tt.structRef)
			actualTags := make(map[string]string)

			for i := 0; i < structType.NumField(); i++ {
				field := structType.Field(i)
				if jsonTag := field.Tag.Get("json"); jsonTag != "" {
					actualTags[field.Name] = jsonTag
				}
			}

			// Catches both missing and unexpected tagged fields.
			assert.Equal(t, tt.expectedTags, actualTags, "JSON tags for struct %s do not match expectations", tt.name)
		})
	}
}
