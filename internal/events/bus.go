package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(StateChangedEvent{...})
func (b *Bus) Publish(ev Event) {
	// Use type switch to call the generic Publish with the correct type
	switch e := ev.(type) {
	case StateChangedEvent:
		event.Publish(b.dispatcher, e)
	case FrameDroppedEvent:
		event.Publish(b.dispatcher, e)
	case ProbeCompletedEvent:
		event.Publish(b.dispatcher, e)
	case PipelineErrorEvent:
		event.Publish(b.dispatcher, e)
	case TrackChangedEvent:
		event.Publish(b.dispatcher, e)
	case SpeedChangedEvent:
		event.Publish(b.dispatcher, e)
	case SeekIssuedEvent:
		event.Publish(b.dispatcher, e)
	case MediaOpenedEvent:
		event.Publish(b.dispatcher, e)
	case PlaybackMetricsEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives (type inference)
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e StateChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	// The kelindar/event library uses reflection to determine the event
	// type, so each known handler shape is matched explicitly.
	switch h := handler.(type) {
	case func(StateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(FrameDroppedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProbeCompletedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PipelineErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(TrackChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SpeedChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SeekIssuedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(MediaOpenedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PlaybackMetricsEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}
