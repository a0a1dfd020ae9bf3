// Package ffmpeg builds decoder and prober command lines. It knows nothing
// about process lifecycle; internal/pipeline owns that.
package ffmpeg

import "time"

// DecodeParams describes one decoder invocation. The pipeline rebuilds the
// command whenever playback position, rate, or track selection changes.
type DecodeParams struct {
	// Input
	Input string        // local path or remote URL
	Start time.Duration // decode start position
	// AccurateSeek decodes from the prior keyframe so the first emitted
	// frame lands exactly on Start. When false the decoder snaps to the
	// nearest keyframe before Start, which is cheaper.
	AccurateSeek bool
	// TrickMode decodes keyframes only, for fast scrubbing.
	TrickMode bool

	// Track selection (container stream indices, -1 = decoder default)
	VideoTrack    int
	AudioTrack    int
	SubtitleTrack int

	// Output geometry; zero means native size.
	Width  int
	Height int
	FPSNum int
	FPSDen int

	// Audio branch
	AudioEnabled bool
	AudioDevice  string  // ALSA identifier, empty = default
	Volume       float64 // linear multiplier

	// Subtitle rendering onto the video branch
	SubtitlesEnabled bool

	// Deinterlace inserts a yadif filter ahead of scaling.
	Deinterlace bool
}

// Defaults returns decode parameters for a fresh pipeline on the given
// input: default tracks, native geometry, unity volume.
func Defaults(input string) DecodeParams {
	return DecodeParams{
		Input:         input,
		VideoTrack:    -1,
		AudioTrack:    -1,
		SubtitleTrack: -1,
		AudioEnabled:  true,
		Volume:        1.0,
	}
}
