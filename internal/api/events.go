package api

import (
	"context"
	"maps"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/zachdedoo13/vidplayer/internal/events"
	"github.com/zachdedoo13/vidplayer/internal/metrics/exporters"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	// Register SSE endpoint with event type mapping
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time event stream for playback state changes, seeks, probe results, and errors",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func() map[string]any {
		// Application events
		eventTypes := map[string]any{
			"state-changed":   events.StateChangedEvent{},
			"frame-dropped":   events.FrameDroppedEvent{},
			"probe-completed": events.ProbeCompletedEvent{},
			"pipeline-error":  events.PipelineErrorEvent{},
			"track-changed":   events.TrackChangedEvent{},
			"speed-changed":   events.SpeedChangedEvent{},
			"seek-issued":     events.SeekIssuedEvent{},
			"media-opened":    events.MediaOpenedEvent{},
		}

		// Add the periodic metrics snapshot for this endpoint
		maps.Copy(eventTypes, exporters.GetEventTypes())

		return eventTypes
	}(), func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Create event channel for this connection
		eventCh := make(chan any, 10)

		// Subscribe to all event types using event bus
		unsubscribers := []func(){
			events.SubscribeToChannel[events.StateChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.FrameDroppedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ProbeCompletedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.PipelineErrorEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.TrackChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SpeedChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SeekIssuedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.MediaOpenedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.PlaybackMetricsEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Send initial connection confirmation
		if err := send.Data(events.StateChangedEvent{
			State:     "connected",
			Timestamp: time.Now().Format(time.RFC3339),
		}); err != nil {
			return
		}

		// Keep connection alive and forward events
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				// Send event using Huma's SSE sender with error handling
				if err := send.Data(event); err != nil {
					// Connection failed, clean up and exit
					return
				}
			}
		}
	})
}
