// Package audio enumerates playback (render) devices the pipeline's audio
// sink can be bound to. Enumeration is only implemented where the host OS
// exposes a device API; elsewhere every operation reports ErrUnsupported at
// runtime so the interface shape is identical on all platforms.
package audio

import "errors"

// ErrUnsupported is returned on platforms without an audio device
// enumeration API. Callers branch on it with errors.Is to degrade to the
// engine's default output.
var ErrUnsupported = errors.New("audio device enumeration not supported on this platform")

// Device is one playback device: a stable identifier the pipeline accepts
// as an output target plus a human-readable name for menus.
type Device struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	CardName string `json:"card_name,omitempty"`
}

// Detector enumerates playback devices.
type Detector interface {
	ListDevices() ([]Device, error)
}

// NewDetector returns the platform detector.
func NewDetector() Detector {
	return newPlatformDetector()
}

// Supported reports whether this platform can enumerate audio devices.
func Supported() bool {
	return platformSupported
}
