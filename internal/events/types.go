package events

// Event type constants for kelindar/event.
const (
	TypeStateChanged uint32 = iota + 1
	TypeFrameDropped
	TypeProbeCompleted
	TypePipelineError
	TypeTrackChanged
	TypeSpeedChanged
	TypeSeekIssued
	TypeMediaOpened
	TypePlaybackMetrics
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// StateChangedEvent is published when the requested playback state changes.
type StateChangedEvent struct {
	State     string `json:"state" example:"playing" doc:"Requested playback state"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for StateChangedEvent.
func (e StateChangedEvent) Type() uint32 { return TypeStateChanged }

// FrameDroppedEvent is published when the frame channel sheds a frame
// because the consumer fell behind.
type FrameDroppedEvent struct {
	Timecode  string `json:"timecode" example:"12.345s" doc:"Presentation time of the dropped frame"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for FrameDroppedEvent.
func (e FrameDroppedEvent) Type() uint32 { return TypeFrameDropped }

// ProbeCompletedEvent is published when stream discovery settles, whether
// it succeeded or not.
type ProbeCompletedEvent struct {
	URI       string `json:"uri" example:"file:///media/show.mkv" doc:"Probed media location"`
	Error     string `json:"error,omitempty" doc:"Discovery failure text, empty on success"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ProbeCompletedEvent.
func (e ProbeCompletedEvent) Type() uint32 { return TypeProbeCompleted }

// PipelineErrorEvent is published when a mutating pipeline operation is
// rejected by the wrapped engine.
type PipelineErrorEvent struct {
	Operation string `json:"operation" example:"seek" doc:"The rejected operation"`
	Error     string `json:"error" doc:"Engine failure text"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PipelineErrorEvent.
func (e PipelineErrorEvent) Type() uint32 { return TypePipelineError }

// TrackChangedEvent is published on track selection.
type TrackChangedEvent struct {
	Kind      string `json:"kind" example:"audio" doc:"Track kind: video, audio, subtitle"`
	Index     int    `json:"index" example:"1" doc:"Selected per-kind track index"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for TrackChangedEvent.
func (e TrackChangedEvent) Type() uint32 { return TypeTrackChanged }

// SpeedChangedEvent is published when the playback rate multiplier changes.
type SpeedChangedEvent struct {
	Speed     float64 `json:"speed" example:"2.0" doc:"New playback rate multiplier"`
	Timestamp string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SpeedChangedEvent.
func (e SpeedChangedEvent) Type() uint32 { return TypeSpeedChanged }

// SeekIssuedEvent is published for every seek request handed to the engine.
type SeekIssuedEvent struct {
	Mode      string `json:"mode" example:"keyframe" doc:"Seek mode: trick, exact, keyframe, flush, timeline, step"`
	Target    string `json:"target" example:"42.5s" doc:"Seek target position"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SeekIssuedEvent.
func (e SeekIssuedEvent) Type() uint32 { return TypeSeekIssued }

// MediaOpenedEvent is published when a new URI is opened.
type MediaOpenedEvent struct {
	URI       string `json:"uri" example:"file:///media/show.mkv" doc:"Opened media location"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for MediaOpenedEvent.
func (e MediaOpenedEvent) Type() uint32 { return TypeMediaOpened }

// PlaybackMetricsEvent carries a periodic snapshot of playback counters
// for SSE consumers.
type PlaybackMetricsEvent struct {
	EventType       string `json:"type"`
	DecodeFPS       string `json:"decode_fps"`
	FramesDelivered string `json:"frames_delivered"`
	FramesDropped   string `json:"frames_dropped"`
	Speed           string `json:"speed"`
	Timecode        string `json:"timecode"`
}

// Type returns the event type identifier for PlaybackMetricsEvent.
func (e PlaybackMetricsEvent) Type() uint32 { return TypePlaybackMetrics }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"player" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
