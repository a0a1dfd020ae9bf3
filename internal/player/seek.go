package player

import (
	"fmt"
	"time"

	"github.com/zachdedoo13/vidplayer/internal/pipeline"
)

// Seek mode labels for metrics and events.
const (
	seekModeTrick    = "trick"
	seekModeExact    = "exact"
	seekModeKeyframe = "keyframe"
	seekModeFlush    = "flush"
	seekModeTimeline = "timeline"
	seekModeStep     = "step"
	seekModeSpeed    = "speed"
)

// seekController issues seek requests with explicit accuracy trade-offs.
// Every request goes out at the stored rate: playback speed persists
// across all seek paths.
type seekController struct {
	pipe pipeline.Pipeline
	rate float64
}

func newSeekController(pipe pipeline.Pipeline) *seekController {
	return &seekController{pipe: pipe, rate: 1.0}
}

// Rate reports the persisted playback rate multiplier.
func (c *seekController) Rate() float64 { return c.rate }

// SeekTrick is the scrubbing seek: forward-predicted, keyframe-snapped,
// lowest latency, approximate.
func (c *seekController) SeekTrick(to time.Duration) error {
	return c.pipe.Seek(c.rate, pipeline.SeekFlush|pipeline.SeekKeyUnit|pipeline.SeekTrick, to)
}

// SeekExact is frame-accurate and pays for it with re-decode latency from
// the prior keyframe.
func (c *seekController) SeekExact(to time.Duration) error {
	return c.pipe.Seek(c.rate, pipeline.SeekFlush|pipeline.SeekAccurate, to)
}

// SeekKeyframe flushes and snaps to the nearest keyframe.
func (c *seekController) SeekKeyframe(to time.Duration) error {
	return c.pipe.Seek(c.rate, pipeline.SeekFlush|pipeline.SeekKeyUnit, to)
}

// SeekFlush gives the minimal guarantee: flush queued data and reposition.
func (c *seekController) SeekFlush(to time.Duration) error {
	return c.pipe.Seek(c.rate, pipeline.SeekFlush, to)
}

// SeekTimeline is the slider seek; accurate selects the flush-only exact
// position over keyframe snapping.
func (c *seekController) SeekTimeline(to time.Duration, accurate bool) error {
	flags := pipeline.SeekFlush | pipeline.SeekKeyUnit
	if accurate {
		flags = pipeline.SeekFlush
	}
	return c.pipe.Seek(c.rate, flags, to)
}

// SetSpeed changes the playback rate multiplier. Seeking is the only rate
// mechanism the engine exposes, so the change is issued as a seek at the
// new rate anchored at the given timecode. The rate is persisted only when
// the engine accepts.
func (c *seekController) SetSpeed(rate float64, at time.Duration) error {
	if rate <= 0 {
		return fmt.Errorf("playback speed must be positive, got %v", rate)
	}
	if err := c.pipe.Seek(rate, pipeline.SeekFlush|pipeline.SeekAccurate, at); err != nil {
		return err
	}
	c.rate = rate
	return nil
}
