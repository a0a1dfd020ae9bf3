package player

import (
	"fmt"

	"github.com/zachdedoo13/vidplayer/internal/logging"
	"github.com/zachdedoo13/vidplayer/internal/metrics"
	"github.com/zachdedoo13/vidplayer/internal/pipeline"
)

// fetchPhase is the forced single-frame capture state. The phases exist
// because starting playback and receiving a decoded frame are not atomic:
// the engine may need a full tick or more to emit a frame after being
// started, so the capture must be resumable across ticks.
type fetchPhase int

const (
	// fetchIdle: no capture requested, ticks do a plain non-blocking
	// receive.
	fetchIdle fetchPhase = iota
	// fetchRequested: a capture is queued but the engine has not been
	// force-started yet.
	fetchRequested
	// fetchInProgress: the engine was force-started; the pre-capture state
	// is saved for restoration once a frame arrives.
	fetchInProgress
)

// stateMachine tracks the requested playback state separately from the
// engine's own asynchronous state, and runs the forced-capture protocol.
// Engine transitions are not instantaneous and polling its live state
// right after a request is unreliable, so the requested state is recorded
// optimistically.
type stateMachine struct {
	pipe   pipeline.Pipeline
	frames *FrameChannel
	logger logging.Logger

	target pipeline.State
	phase  fetchPhase
	saved  pipeline.State // pre-capture state, meaningful only while phase == fetchInProgress
}

func newStateMachine(pipe pipeline.Pipeline, frames *FrameChannel, logger logging.Logger) *stateMachine {
	return &stateMachine{
		pipe:   pipe,
		frames: frames,
		logger: logger,
		target: pipeline.StateUninitialized,
	}
}

// Start requests playback. The target state updates immediately on engine
// acceptance, without waiting for the transition to complete.
func (m *stateMachine) Start() error {
	if m.target == pipeline.StateStopped {
		return ErrStopped
	}
	if err := m.pipe.SetState(pipeline.StatePlaying); err != nil {
		return err
	}
	m.target = pipeline.StatePlaying
	return nil
}

// Stop requests pause. Named after the caller-facing stop control; the
// engine keeps its position and can resume.
func (m *stateMachine) Stop() error {
	if m.target == pipeline.StateStopped {
		return ErrStopped
	}
	if err := m.pipe.SetState(pipeline.StatePaused); err != nil {
		return err
	}
	m.target = pipeline.StatePaused
	return nil
}

// Shutdown tears the engine down synchronously. Irreversible for this
// instance.
func (m *stateMachine) Shutdown() error {
	err := m.pipe.Close()
	m.target = pipeline.StateStopped
	m.phase = fetchIdle
	return err
}

// Target reports the requested playback state. UI display only; callers
// needing confirmed engine state must not rely on it.
func (m *stateMachine) Target() pipeline.State { return m.target }

func (m *stateMachine) IsPlaying() bool { return m.target == pipeline.StatePlaying }
func (m *stateMachine) IsPaused() bool  { return m.target == pipeline.StatePaused }

// QueueForcedFetch requests that the next tick produce a fresh frame even
// while paused. No-op when a capture is already underway.
func (m *stateMachine) QueueForcedFetch() {
	if m.phase == fetchIdle {
		m.phase = fetchRequested
	}
}

// FetchInProgress reports whether a forced capture has force-started the
// engine and is waiting on the frame.
func (m *stateMachine) FetchInProgress() bool { return m.phase == fetchInProgress }

// NextFrame runs one tick of the fetch protocol. ErrNoFrame is the normal
// empty-channel result; for a forced capture it leaves the phase intact so
// the next tick resumes where this one left off.
func (m *stateMachine) NextFrame() (Frame, error) {
	switch m.phase {
	case fetchIdle:
		f, ok := m.frames.TryRecv()
		if !ok {
			return Frame{}, ErrNoFrame
		}
		return f, nil

	case fetchRequested:
		saved := m.target
		if err := m.Start(); err != nil {
			return Frame{}, fmt.Errorf("force-start for frame capture: %w", err)
		}
		m.saved = saved
		m.phase = fetchInProgress
		return m.finishCapture()

	case fetchInProgress:
		return m.finishCapture()

	default:
		panic(fmt.Sprintf("corrupt fetch phase %d", m.phase))
	}
}

// finishCapture attempts the receive that completes a forced capture. The
// phase and saved state are cleared only together with a successful
// receive; on an empty channel everything stays intact for the next tick.
func (m *stateMachine) finishCapture() (Frame, error) {
	f, ok := m.frames.TryRecv()
	if !ok {
		return Frame{}, ErrNoFrame
	}

	m.phase = fetchIdle
	metrics.IncForcedFetch()
	if m.saved != pipeline.StatePlaying {
		if err := m.Stop(); err != nil {
			return Frame{}, fmt.Errorf("re-pause after forced capture: %w", err)
		}
	}
	return f, nil
}

// ForceUpdateNow force-starts the engine and blocks until a frame arrives.
// endPaused re-pauses afterwards. Never call this on a pipeline that
// cannot reach the playing state.
func (m *stateMachine) ForceUpdateNow(endPaused bool) (Frame, error) {
	if err := m.Start(); err != nil {
		return Frame{}, err
	}
	f := m.frames.Recv()
	if endPaused {
		if err := m.Stop(); err != nil {
			return f, err
		}
	}
	return f, nil
}
