package exporters

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/zachdedoo13/vidplayer/internal/events"
	"github.com/zachdedoo13/vidplayer/internal/metrics"
)

// EventPublisher interface for publishing events.
type EventPublisher interface {
	Publish(ev events.Event)
}

// SSEExporter exports playback metrics via Server-Sent Events.
type SSEExporter struct {
	eventBus EventPublisher
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewSSEExporter creates a new SSE exporter.
func NewSSEExporter(eventBus EventPublisher) *SSEExporter {
	return &SSEExporter{
		eventBus: eventBus,
		interval: 1 * time.Second,
	}
}

// Start begins the SSE export loop.
func (s *SSEExporter) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run()
}

// Stop stops the SSE exporter and waits for the goroutine to finish.
func (s *SSEExporter) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *SSEExporter) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.publishMetrics()
		}
	}
}

func (s *SSEExporter) publishMetrics() {
	snap := metrics.Snapshot()
	s.eventBus.Publish(events.PlaybackMetricsEvent{
		EventType:       "playback_metrics",
		DecodeFPS:       strconv.FormatFloat(snap.DecodeFPS, 'f', 2, 64),
		FramesDelivered: strconv.FormatFloat(snap.FramesDelivered, 'f', 0, 64),
		FramesDropped:   strconv.FormatFloat(snap.FramesDropped, 'f', 0, 64),
		Speed:           strconv.FormatFloat(snap.Speed, 'f', 2, 64),
		Timecode:        strconv.FormatFloat(snap.Timecode, 'f', 3, 64),
	})
}

// GetEventTypes returns event types for SSE endpoint registration.
func GetEventTypes() map[string]any {
	return map[string]any{
		"playback-metrics": events.PlaybackMetricsEvent{},
	}
}
