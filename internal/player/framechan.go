package player

import (
	"time"

	"github.com/zachdedoo13/vidplayer/internal/pipeline"
)

// DefaultSendTimeout bounds how long the decode goroutine may wait on a
// full channel before shedding the frame.
const DefaultSendTimeout = 500 * time.Millisecond

// Frame pairs one decoded picture with the geometry it was produced under.
type Frame struct {
	Update pipeline.FrameUpdate
	Info   pipeline.VideoInfo
}

// FrameChannel is the bounded single-producer single-consumer handoff
// between the pipeline's decode goroutine and the polling consumer. The
// small capacity bounds staleness, not throughput: only the newest frame
// matters to a display.
type FrameChannel struct {
	ch          chan Frame
	sendTimeout time.Duration
}

// NewFrameChannel creates a channel with the given capacity, clamped to
// [1, 2].
func NewFrameChannel(capacity int) *FrameChannel {
	if capacity < 1 {
		capacity = 1
	}
	if capacity > 2 {
		capacity = 2
	}
	return &FrameChannel{
		ch:          make(chan Frame, capacity),
		sendTimeout: DefaultSendTimeout,
	}
}

// Send offers a frame to the consumer, waiting at most the send timeout.
// Returns false when the frame was shed: a slow consumer must not stall
// the decode goroutine indefinitely.
func (c *FrameChannel) Send(f Frame) bool {
	select {
	case c.ch <- f:
		return true
	default:
	}

	t := time.NewTimer(c.sendTimeout)
	defer t.Stop()
	select {
	case c.ch <- f:
		return true
	case <-t.C:
		return false
	}
}

// TryRecv returns the next frame without blocking. ok is false when the
// channel is empty, which is the normal per-tick condition, not an error.
func (c *FrameChannel) TryRecv() (Frame, bool) {
	select {
	case f := <-c.ch:
		return f, true
	default:
		return Frame{}, false
	}
}

// Recv blocks until a frame arrives. Only the explicit forced-update path
// uses this; it can block indefinitely if the pipeline never reaches the
// playing state, so callers must start the pipeline first.
func (c *FrameChannel) Recv() Frame {
	return <-c.ch
}
