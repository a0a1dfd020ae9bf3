package exporters

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zachdedoo13/vidplayer/internal/events"
	"github.com/zachdedoo13/vidplayer/internal/metrics"
)

type capturingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *capturingBus) Publish(ev events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

func (b *capturingBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func (b *capturingBus) last() events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	return b.events[len(b.events)-1]
}

func TestSSEExporterPublishesPeriodically(t *testing.T) {
	bus := &capturingBus{}
	exporter := NewSSEExporter(bus)
	exporter.interval = 10 * time.Millisecond

	metrics.SetPlaybackSpeed(1.5)

	exporter.Start(context.Background())
	defer exporter.Stop()

	deadline := time.After(2 * time.Second)
	for bus.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("no metrics event published")
		case <-time.After(5 * time.Millisecond):
		}
	}

	ev, ok := bus.last().(events.PlaybackMetricsEvent)
	if !ok {
		t.Fatalf("unexpected event type %T", bus.last())
	}
	if ev.EventType != "playback_metrics" {
		t.Errorf("event type = %q", ev.EventType)
	}
	if ev.Speed != "1.50" {
		t.Errorf("speed = %q, want 1.50", ev.Speed)
	}
}

func TestSSEExporterStopIsIdempotent(t *testing.T) {
	exporter := NewSSEExporter(&capturingBus{})
	exporter.Start(context.Background())
	exporter.Stop()
	exporter.Stop()
}

func TestGetEventTypes(t *testing.T) {
	types := GetEventTypes()
	if _, ok := types["playback-metrics"]; !ok {
		t.Error("playback-metrics event type missing")
	}
}
