package geometry

import "errors"

var (
	// ErrFrameInaccessible is returned by Window.FrameElement when the embedding
	// document cannot be read, typically a cross-origin parent.
	ErrFrameInaccessible = errors.New("frame element is not accessible")
	// ErrNilElement is returned by the facade for a missing floating or reference element.
	ErrNilElement = errors.New("element is nil")
)
