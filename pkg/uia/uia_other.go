//go:build !windows

package uia

// IsSupported returns true if UI Automation is available on the current platform
func IsSupported() bool {
	return false
}

// New returns the platform inspector
func New() Inspector {
	return Unavailable{}
}

// InitThread is a no-op on platforms without per-thread service setup
func InitThread() error {
	return nil
}
