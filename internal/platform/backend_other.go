//go:build !linux

package platform

import "fmt"

// NewNativeBackend returns the backend for the current operating system.
// Only X11 is implemented; other systems must run the daemon headless.
func NewNativeBackend(display string) (Backend, func(), error) {
	return nil, func() {}, fmt.Errorf("native window backend: %w", ErrUnsupported)
}
