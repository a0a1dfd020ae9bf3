// Package pipeline defines the contract between the playback backend and
// the wrapped multimedia engine, along with the shipped FFmpeg-based
// implementation. The backend owns exactly one Pipeline per opened URI and
// is the only component allowed to mutate it.
package pipeline

import (
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// State is the playback state requested of the engine. Engine state
// transitions are asynchronous; a Pipeline accepts the request and returns,
// completion is observed through frame delivery.
type State int

const (
	// StateUninitialized is the state before Open and after Close.
	StateUninitialized State = iota
	// StatePaused holds the decode position without producing frames.
	StatePaused
	// StatePlaying produces frames at the configured rate.
	StatePlaying
	// StateStopped is terminal: the engine is torn down for this instance.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SeekFlags select the latency/accuracy trade-off of a seek request.
type SeekFlags uint32

const (
	// SeekFlush discards queued data before seeking.
	SeekFlush SeekFlags = 1 << iota
	// SeekKeyUnit snaps to the nearest keyframe instead of the exact time.
	SeekKeyUnit
	// SeekAccurate decodes from the prior keyframe for frame accuracy.
	SeekAccurate
	// SeekTrick enables forward-predicted trick mode for fast scrubbing.
	SeekTrick
)

// TrackKind identifies a selectable stream class within the container.
type TrackKind int

const (
	TrackVideo TrackKind = iota
	TrackAudio
	TrackSubtitle
)

func (k TrackKind) String() string {
	switch k {
	case TrackVideo:
		return "video"
	case TrackAudio:
		return "audio"
	case TrackSubtitle:
		return "subtitle"
	default:
		return fmt.Sprintf("track(%d)", int(k))
	}
}

// PlayFlags is the engine's feature bitmask. Values are compatible with the
// playbin flag layout so they round-trip through engine properties.
type PlayFlags uint32

const (
	FlagVideo PlayFlags = 1 << iota
	FlagAudio
	FlagSubtitles
	FlagVisualization
	FlagSoftVolume
	FlagNativeAudio
	FlagNativeVideo
	FlagDownload
	FlagBuffering
	FlagDeinterlace
	FlagSoftColorBalance
)

// DefaultFlags is the engine's default-on set.
const DefaultFlags = FlagVideo | FlagAudio | FlagSubtitles | FlagSoftVolume | FlagSoftColorBalance

// flagNames maps the wire/config spelling of each feature flag to its bit,
// in bitmask order.
var flagNames = []struct {
	name string
	flag PlayFlags
}{
	{"video", FlagVideo},
	{"audio", FlagAudio},
	{"subtitles", FlagSubtitles},
	{"visualization", FlagVisualization},
	{"soft-volume", FlagSoftVolume},
	{"native-audio", FlagNativeAudio},
	{"native-video", FlagNativeVideo},
	{"download", FlagDownload},
	{"buffering", FlagBuffering},
	{"deinterlace", FlagDeinterlace},
	{"soft-color-balance", FlagSoftColorBalance},
}

// FlagByName resolves a feature flag from its wire spelling.
func FlagByName(name string) (PlayFlags, bool) {
	for _, fn := range flagNames {
		if fn.name == name {
			return fn.flag, true
		}
	}
	return 0, false
}

// Names returns the wire spellings of every flag set in f, in bitmask order.
func (f PlayFlags) Names() []string {
	var names []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	return names
}

// ParseTrackKind resolves a track kind from its wire spelling.
func ParseTrackKind(name string) (TrackKind, bool) {
	switch name {
	case "video":
		return TrackVideo, true
	case "audio":
		return TrackAudio, true
	case "subtitle":
		return TrackSubtitle, true
	default:
		return 0, false
	}
}

// FrameUpdate is one decoded picture in packed RGBA order together with its
// presentation timecode on the pipeline clock. Ownership transfers to the
// receiver; the pipeline never touches the buffer again after delivery.
type FrameUpdate struct {
	Data     []byte
	Timecode time.Duration
}

// VideoInfo describes the geometry and rate of the frames a pipeline is
// currently producing. It accompanies every FrameUpdate; a new frame's info
// silently replaces the previous one.
type VideoInfo struct {
	Width  int
	Height int
	FPSNum int
	FPSDen int
	Format string
}

// FPS returns the frame rate as a float, or 0 when unknown.
func (v VideoInfo) FPS() float64 {
	if v.FPSDen == 0 {
		return 0
	}
	return float64(v.FPSNum) / float64(v.FPSDen)
}

// FrameSink receives decoded frames on the pipeline's internal decode
// goroutine. Implementations must not block indefinitely.
type FrameSink func(FrameUpdate, VideoInfo)

// Pipeline is the wrapped-engine contract. All methods are synchronous
// requests: they return once the engine has accepted the operation, not once
// it has taken effect. Close is the exception and blocks until the engine
// has fully stopped.
type Pipeline interface {
	// SetState requests a transition to the given playback state.
	SetState(s State) error

	// Seek repositions playback to the given time at the given rate.
	// The flags select the accuracy/latency trade-off.
	Seek(rate float64, flags SeekFlags, to time.Duration) error

	// Step advances exactly frames pictures while paused. frames must be
	// positive; backwards stepping is expressed as an absolute Seek.
	Step(frames int) error

	// Duration reports the media duration, or 0 when not yet known.
	Duration() (time.Duration, error)

	// Track reports the currently selected track index for the given kind.
	Track(kind TrackKind) (int, error)

	// SelectTrack switches the given kind to the container track index.
	SelectTrack(kind TrackKind, index int) error

	// SetVolume applies a linear volume multiplier to the audio branch.
	SetVolume(level float64) error

	// SelectAudioDevice rebuilds the audio output around the given device
	// identifier. Returns audio.ErrUnsupported on platforms without device
	// enumeration.
	SelectAudioDevice(id string) error

	// Flags reports the engine feature bitmask.
	Flags() (PlayFlags, error)

	// SetFlags replaces the engine feature bitmask.
	SetFlags(flags PlayFlags) error

	// SetFrameSink registers the frame callback. Must be called before the
	// first transition to StatePlaying.
	SetFrameSink(sink FrameSink)

	// Close stops the engine synchronously and releases all resources.
	// Safe to call more than once.
	Close() error
}

var (
	initOnce sync.Once
	initErr  error
)

// EnsureInitialized performs process-wide engine initialization exactly
// once: it verifies the decoder binaries are present on PATH. Every
// constructor calls it; repeat calls return the first result.
func EnsureInitialized() error {
	initOnce.Do(func() {
		for _, bin := range []string{"ffmpeg", "ffprobe"} {
			if _, err := exec.LookPath(bin); err != nil {
				initErr = fmt.Errorf("engine init: %w", err)
				return
			}
		}
	})
	return initErr
}
