// Package player implements the playback backend: a polling facade over a
// wrapped multimedia pipeline, reconciling the engine's asynchronous state
// transitions with a synchronous once-per-tick consumer.
package player

import (
	"errors"
	"fmt"
	"time"

	"github.com/zachdedoo13/vidplayer/internal/audio"
	"github.com/zachdedoo13/vidplayer/internal/events"
	"github.com/zachdedoo13/vidplayer/internal/logging"
	"github.com/zachdedoo13/vidplayer/internal/metrics"
	"github.com/zachdedoo13/vidplayer/internal/pipeline"
	"github.com/zachdedoo13/vidplayer/internal/probe"
)

// Volume bounds advertised to callers. Values outside clamp, never error.
const (
	VolumeMin = 0.0
	VolumeMax = 5.0
)

// defaultFrametime is assumed until the first frame's info arrives.
const defaultFrametime = time.Second / 30

// PipelineFactory builds the engine for one URI. Swapped out in tests.
type PipelineFactory func(uri string, logger logging.Logger) (pipeline.Pipeline, error)

// Backend composes the frame channel, probe task, state machine, and seek
// controller behind the per-tick polling contract. It exclusively owns the
// pipeline handle; no other component may mutate it. All methods must be
// called from the single tick goroutine.
type Backend struct {
	logger logging.Logger
	bus    *events.Bus

	newPipeline PipelineFactory
	discover    probe.Discoverer
	detector    audio.Detector

	uri     string
	pipe    pipeline.Pipeline
	frames  *FrameChannel
	machine *stateMachine
	seeker  *seekController

	probeTask    *probe.Task
	probeStarted time.Time
	probeResult  *probe.Probe
	probeErr     error

	latestInfo     pipeline.VideoInfo
	hasInfo        bool
	latestTimecode time.Duration
	volume         float64
	audioDevice    string
}

// Option configures a Backend.
type Option func(*Backend)

// WithPipelineFactory swaps the engine constructor.
func WithPipelineFactory(f PipelineFactory) Option {
	return func(b *Backend) { b.newPipeline = f }
}

// WithDiscoverer swaps the probe discoverer.
func WithDiscoverer(d probe.Discoverer) Option {
	return func(b *Backend) { b.discover = d }
}

// WithBus attaches an event bus for publishing playback events.
func WithBus(bus *events.Bus) Option {
	return func(b *Backend) { b.bus = bus }
}

// New creates a backend and opens the given location. The probe starts
// immediately and completes in the background; the backend is usable
// before it settles.
func New(input string, opts ...Option) (*Backend, error) {
	b := &Backend{
		logger:   logging.GetLogger("player"),
		discover: probe.Discover,
		detector: audio.NewDetector(),
		volume:   1.0,
		newPipeline: func(uri string, logger logging.Logger) (pipeline.Pipeline, error) {
			return pipeline.NewFFmpeg(uri, logger)
		},
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := b.Open(input); err != nil {
		return nil, err
	}
	return b, nil
}

// Open replaces the current media with a new location. The previous
// pipeline is torn down only after its replacement constructs, so a failed
// open leaves the current media playable. The in-flight probe, if any, is
// abandoned: its eventual result must never attach to the new URI.
func (b *Backend) Open(input string) error {
	uri, err := pipeline.NormalizeURI(input)
	if err != nil {
		return err
	}

	pipe, err := b.newPipeline(uri, logging.GetLogger("pipeline"))
	if err != nil {
		return fmt.Errorf("open %s: %w", uri, err)
	}

	frames := NewFrameChannel(2)
	pipe.SetFrameSink(func(u pipeline.FrameUpdate, info pipeline.VideoInfo) {
		if !frames.Send(Frame{Update: u, Info: info}) {
			metrics.IncFramesDropped()
			b.publish(events.FrameDroppedEvent{
				Timecode:  u.Timecode.String(),
				Timestamp: eventTime(),
			})
		}
	})

	if err := pipe.SetState(pipeline.StatePaused); err != nil {
		_ = pipe.Close()
		return fmt.Errorf("preroll %s: %w", uri, err)
	}

	// The replacement is live. Only now tear the current media down, so a
	// failed open never leaves the backend without a working pipeline.
	if b.probeTask != nil {
		b.probeTask.Abandon()
		b.probeTask = nil
	}
	if b.pipe != nil {
		if err := b.pipe.Close(); err != nil {
			b.logger.Warn("Failed to close previous pipeline", "error", err)
		}
	}

	b.uri = uri
	b.pipe = pipe
	b.frames = frames
	b.machine = newStateMachine(pipe, frames, b.logger)
	b.machine.target = pipeline.StatePaused
	b.seeker = newSeekController(pipe)
	b.probeResult, b.probeErr = nil, nil
	b.hasInfo = false
	b.latestInfo = pipeline.VideoInfo{}
	b.latestTimecode = 0

	if b.volume != 1.0 {
		if err := pipe.SetVolume(b.volume); err != nil {
			b.logger.Warn("Failed to re-apply volume", "error", err)
		}
	}

	b.probeTask = probe.Run(uri, b.discover)
	b.probeStarted = time.Now()

	b.logger.Info("Opened media", "uri", uri)
	b.publish(events.MediaOpenedEvent{URI: uri, Timestamp: eventTime()})
	return nil
}

// URI reports the currently opened location.
func (b *Backend) URI() string { return b.uri }

// Update is the per-tick poll: settle the probe if it finished, then run
// the forced-or-normal frame fetch. ErrNoFrame means nothing new this
// tick; cached info and timecode are left untouched.
func (b *Backend) Update() (pipeline.FrameUpdate, error) {
	b.pollProbe()

	f, err := b.machine.NextFrame()
	if err != nil {
		return pipeline.FrameUpdate{}, err
	}

	b.latestInfo = f.Info
	b.hasInfo = true
	b.latestTimecode = f.Update.Timecode
	metrics.IncFramesDelivered()
	metrics.SetTimecode(f.Update.Timecode)
	return f.Update, nil
}

// ForceUpdateNow blocks until the pipeline produces a frame, force-starting
// it if needed. A known latency spike, not for the normal tick path.
func (b *Backend) ForceUpdateNow(endPaused bool) (pipeline.FrameUpdate, error) {
	f, err := b.machine.ForceUpdateNow(endPaused)
	if err != nil {
		return pipeline.FrameUpdate{}, err
	}
	b.latestInfo = f.Info
	b.hasInfo = true
	b.latestTimecode = f.Update.Timecode
	metrics.IncFramesDelivered()
	metrics.SetTimecode(f.Update.Timecode)
	return f.Update, nil
}

// pollProbe joins a finished discovery task and caches its result. The
// result of a task started for a previously opened URI is discarded.
func (b *Backend) pollProbe() {
	if b.probeTask == nil {
		return
	}
	p, err, ok := b.probeTask.TryJoin()
	if !ok {
		return
	}
	task := b.probeTask
	b.probeTask = nil

	if task.Abandoned() || task.URI() != b.uri {
		return
	}

	metrics.ObserveProbe(time.Since(b.probeStarted), err)
	b.probeResult, b.probeErr = p, err

	ev := events.ProbeCompletedEvent{URI: b.uri, Timestamp: eventTime()}
	if err != nil {
		b.logger.Warn("Stream discovery failed", "uri", b.uri, "error", err)
		ev.Error = err.Error()
	} else {
		b.logger.Debug("Stream discovery completed", "uri", b.uri,
			"video", len(p.Video), "audio", len(p.Audio), "captions", len(p.Captions))
	}
	b.publish(ev)
}

// Probe returns the cached discovery result, ErrProbePending while the
// task is still running, or the cached discovery error.
func (b *Backend) Probe() (*probe.Probe, error) {
	if b.probeTask != nil {
		return nil, ErrProbePending
	}
	if b.probeErr != nil {
		return nil, b.probeErr
	}
	if b.probeResult == nil {
		return nil, ErrProbePending
	}
	return b.probeResult, nil
}

// Start requests playback.
func (b *Backend) Start() error {
	if err := b.machine.Start(); err != nil {
		return b.fail("start", err)
	}
	b.publishState()
	return nil
}

// Stop requests pause.
func (b *Backend) Stop() error {
	if err := b.machine.Stop(); err != nil {
		return b.fail("stop", err)
	}
	b.publishState()
	return nil
}

// Quit tears the backend down synchronously. The pipeline is guaranteed
// stopped when it returns; safe to call more than once.
func (b *Backend) Quit() error {
	if b.probeTask != nil {
		b.probeTask.Abandon()
		b.probeTask = nil
	}
	if b.machine == nil {
		return nil
	}
	err := b.machine.Shutdown()
	b.publishState()
	return err
}

// PredictedState reports the requested playback state, which may lead the
// engine's actual state. Display use only.
func (b *Backend) PredictedState() pipeline.State { return b.machine.Target() }

// IsPlaying reports whether playback has been requested.
func (b *Backend) IsPlaying() bool { return b.machine.IsPlaying() }

// IsPaused reports whether pause has been requested.
func (b *Backend) IsPaused() bool { return b.machine.IsPaused() }

// Timecode reports the presentation time of the newest delivered frame.
func (b *Backend) Timecode() time.Duration { return b.latestTimecode }

// Duration reports the media duration, or 0 when unknown.
func (b *Backend) Duration() (time.Duration, error) {
	return b.pipe.Duration()
}

// LatestInfo returns the geometry of the newest delivered frame.
func (b *Backend) LatestInfo() (pipeline.VideoInfo, bool) {
	return b.latestInfo, b.hasInfo
}

// Frametime is the duration of one frame at the latest known rate,
// defaulting to 1/30s before any frame has arrived.
func (b *Backend) Frametime() time.Duration {
	if b.hasInfo {
		if fps := b.latestInfo.FPS(); fps > 0 {
			return time.Duration(float64(time.Second) / fps)
		}
	}
	return defaultFrametime
}

// Speed reports the persisted playback rate multiplier.
func (b *Backend) Speed() float64 { return b.seeker.Rate() }

// SeekTrick scrubs: keyframe-snapped, forward-predicted, approximate.
func (b *Backend) SeekTrick(to time.Duration) error {
	return b.seekOp(seekModeTrick, to, func() error { return b.seeker.SeekTrick(to) })
}

// SeekExact repositions frame-accurately.
func (b *Backend) SeekExact(to time.Duration) error {
	return b.seekOp(seekModeExact, to, func() error { return b.seeker.SeekExact(to) })
}

// SeekKeyframe flushes and snaps to the nearest keyframe.
func (b *Backend) SeekKeyframe(to time.Duration) error {
	return b.seekOp(seekModeKeyframe, to, func() error { return b.seeker.SeekKeyframe(to) })
}

// SeekFlush issues the minimal-guarantee seek.
func (b *Backend) SeekFlush(to time.Duration) error {
	return b.seekOp(seekModeFlush, to, func() error { return b.seeker.SeekFlush(to) })
}

// SeekTimeline is the slider seek. It is a no-op while a forced frame
// capture is underway: two state-disrupting operations must not race on
// the same pipeline.
func (b *Backend) SeekTimeline(to time.Duration, accurate bool) error {
	if b.machine.FetchInProgress() {
		return nil
	}
	return b.seekOp(seekModeTimeline, to, func() error { return b.seeker.SeekTimeline(to, accurate) })
}

// StepFrames advances by n frames when n > 0, using the engine's native
// step, or recedes by |n| frames when n < 0 via an absolute flush seek
// computed from the current timecode. n must not be zero; that is a caller
// contract violation and fails loudly.
func (b *Backend) StepFrames(n int) error {
	if n == 0 {
		panic("player: zero-frame step requested")
	}

	if n > 0 {
		if err := b.pipe.Step(n); err != nil {
			return b.fail("step", err)
		}
		metrics.IncSeek(seekModeStep)
		b.publish(events.SeekIssuedEvent{
			Mode:      seekModeStep,
			Target:    fmt.Sprintf("%+d frames", n),
			Timestamp: eventTime(),
		})
	} else {
		back := time.Duration(-n) * b.Frametime()
		target := b.latestTimecode - back
		if target < 0 {
			target = 0
		}
		if err := b.seekOp(seekModeStep, target, func() error { return b.seeker.SeekFlush(target) }); err != nil {
			return err
		}
	}

	b.machine.QueueForcedFetch()
	return nil
}

// SetSpeed changes the playback rate, anchored at the timecode observed at
// the moment of the call.
func (b *Backend) SetSpeed(rate float64) error {
	if err := b.seeker.SetSpeed(rate, b.latestTimecode); err != nil {
		return b.fail("speed", err)
	}
	metrics.IncSeek(seekModeSpeed)
	metrics.SetPlaybackSpeed(rate)
	b.publish(events.SpeedChangedEvent{Speed: rate, Timestamp: eventTime()})
	if b.machine.IsPaused() {
		b.machine.QueueForcedFetch()
	}
	return nil
}

// seekOp runs one seek request with bookkeeping: metrics, events, and a
// queued forced capture so a paused display still refreshes.
func (b *Backend) seekOp(mode string, to time.Duration, op func() error) error {
	if err := op(); err != nil {
		return b.fail(mode+" seek", err)
	}
	metrics.IncSeek(mode)
	b.publish(events.SeekIssuedEvent{Mode: mode, Target: to.String(), Timestamp: eventTime()})
	if b.machine.IsPaused() {
		b.machine.QueueForcedFetch()
	}
	return nil
}

// VolumeRange reports the accepted volume bounds.
func (b *Backend) VolumeRange() (low, high float64) {
	return VolumeMin, VolumeMax
}

// Volume reports the current volume multiplier.
func (b *Backend) Volume() float64 { return b.volume }

// SetVolume applies a volume multiplier, clamped to the advertised range
// rather than rejected.
func (b *Backend) SetVolume(level float64) error {
	if level < VolumeMin {
		level = VolumeMin
	}
	if level > VolumeMax {
		level = VolumeMax
	}
	if err := b.pipe.SetVolume(level); err != nil {
		return b.fail("volume", err)
	}
	b.volume = level
	return nil
}

// CurrentTrack reports the selected per-kind track index.
func (b *Backend) CurrentTrack(kind pipeline.TrackKind) (int, error) {
	return b.pipe.Track(kind)
}

// SelectTrack switches the given kind to the per-kind track index.
func (b *Backend) SelectTrack(kind pipeline.TrackKind, index int) error {
	if err := b.pipe.SelectTrack(kind, index); err != nil {
		return b.fail("track select", err)
	}
	b.publish(events.TrackChangedEvent{
		Kind:      kind.String(),
		Index:     index,
		Timestamp: eventTime(),
	})
	if b.machine.IsPaused() {
		b.machine.QueueForcedFetch()
	}
	return nil
}

// AudioDevices enumerates playback devices. audio.ErrUnsupported on
// platforms without enumeration, so callers can branch on capability at
// runtime.
func (b *Backend) AudioDevices() ([]audio.Device, error) {
	return b.detector.ListDevices()
}

// CurrentAudioDevice reports the selected device identifier; empty means
// the platform default.
func (b *Backend) CurrentAudioDevice() string { return b.audioDevice }

// SelectAudioDevice rebuilds the audio output around the given device.
func (b *Backend) SelectAudioDevice(id string) error {
	if err := b.pipe.SelectAudioDevice(id); err != nil {
		if errors.Is(err, audio.ErrUnsupported) {
			return err
		}
		return b.fail("audio device", err)
	}
	b.audioDevice = id
	return nil
}

// Flags reports the engine feature bitmask.
func (b *Backend) Flags() (pipeline.PlayFlags, error) {
	return b.pipe.Flags()
}

// SetFlag toggles one engine feature bit.
func (b *Backend) SetFlag(flag pipeline.PlayFlags, on bool) error {
	current, err := b.pipe.Flags()
	if err != nil {
		return b.fail("flags", err)
	}
	next := current &^ flag
	if on {
		next = current | flag
	}
	if next == current {
		return nil
	}
	if err := b.pipe.SetFlags(next); err != nil {
		return b.fail("flags", err)
	}
	return nil
}

// fail logs and publishes a rejected pipeline operation, then returns the
// error to the caller. Mutating operations are never silently swallowed.
func (b *Backend) fail(op string, err error) error {
	b.logger.Error("Pipeline operation failed", "operation", op, "error", err)
	b.publish(events.PipelineErrorEvent{
		Operation: op,
		Error:     err.Error(),
		Timestamp: eventTime(),
	})
	return err
}

func (b *Backend) publishState() {
	b.publish(events.StateChangedEvent{State: b.machine.Target().String(), Timestamp: eventTime()})
}

func (b *Backend) publish(ev events.Event) {
	if b.bus != nil {
		b.bus.Publish(ev)
	}
}

func eventTime() string {
	return time.Now().UTC().Format(time.RFC3339)
}
