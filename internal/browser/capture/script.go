// internal/browser/capture/script.go
package capture

import (
	_ "embed"
	"fmt"
)

//go:embed capture.js
var captureScript string

// Script returns the page serializer evaluated by Capture.
func Script() (string, error) {
	if captureScript == "" {
		return "", fmt.Errorf("capture script is empty or failed to embed")
	}
	return captureScript, nil
}
