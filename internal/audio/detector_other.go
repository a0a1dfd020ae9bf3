//go:build !linux || !cgo

package audio

const platformSupported = false

type stubDetector struct{}

func newPlatformDetector() Detector {
	return &stubDetector{}
}

// ListDevices reports ErrUnsupported so callers can branch on capability
// at runtime instead of per build target.
func (d *stubDetector) ListDevices() ([]Device, error) {
	return nil, ErrUnsupported
}
