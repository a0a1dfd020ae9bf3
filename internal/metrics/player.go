// Package metrics provides Prometheus metrics for the playback backend.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vidplayer",
		Subsystem: "player",
		Name:      "frames_delivered_total",
		Help:      "Frames handed to the polling consumer",
	})

	framesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vidplayer",
		Subsystem: "player",
		Name:      "frames_dropped_total",
		Help:      "Frames shed by the bounded channel because the consumer fell behind",
	})

	forcedFetches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vidplayer",
		Subsystem: "player",
		Name:      "forced_fetches_total",
		Help:      "Forced single-frame captures completed while paused",
	})

	seeksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vidplayer",
		Subsystem: "player",
		Name:      "seeks_total",
		Help:      "Seek requests issued to the engine, by mode",
	}, []string{"mode"})

	playbackSpeed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vidplayer",
		Subsystem: "player",
		Name:      "speed",
		Help:      "Current playback rate multiplier",
	})

	timecodeSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vidplayer",
		Subsystem: "player",
		Name:      "timecode_seconds",
		Help:      "Latest delivered presentation time",
	})

	probeDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vidplayer",
		Subsystem: "probe",
		Name:      "duration_seconds",
		Help:      "Wall time of the most recent stream discovery",
	})

	probesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vidplayer",
		Subsystem: "probe",
		Name:      "attempts_total",
		Help:      "Stream discovery attempts, by result",
	}, []string{"result"})

	decodeFPS = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vidplayer",
		Subsystem: "decode",
		Name:      "fps",
		Help:      "Decoder-reported frames per second",
	})

	decodeSpeed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vidplayer",
		Subsystem: "decode",
		Name:      "speed",
		Help:      "Decoder processing speed relative to realtime",
	})

	// Local cache for SSE exporter access.
	snapshot   PlaybackSnapshot
	snapshotMu sync.RWMutex
)

// PlaybackSnapshot holds current metric values for the SSE exporter.
type PlaybackSnapshot struct {
	DecodeFPS       float64
	FramesDelivered float64
	FramesDropped   float64
	Speed           float64
	Timecode        float64
}

// IncFramesDelivered counts one frame handed to the consumer.
func IncFramesDelivered() {
	framesDelivered.Inc()
	updateSnapshot(func(s *PlaybackSnapshot) { s.FramesDelivered++ })
}

// IncFramesDropped counts one frame shed under backpressure.
func IncFramesDropped() {
	framesDropped.Inc()
	updateSnapshot(func(s *PlaybackSnapshot) { s.FramesDropped++ })
}

// IncForcedFetch counts one completed forced single-frame capture.
func IncForcedFetch() {
	forcedFetches.Inc()
}

// IncSeek counts one seek request of the given mode.
func IncSeek(mode string) {
	seeksTotal.WithLabelValues(mode).Inc()
}

// SetPlaybackSpeed records the current rate multiplier.
func SetPlaybackSpeed(speed float64) {
	playbackSpeed.Set(speed)
	updateSnapshot(func(s *PlaybackSnapshot) { s.Speed = speed })
}

// SetTimecode records the latest delivered presentation time.
func SetTimecode(tc time.Duration) {
	secs := tc.Seconds()
	timecodeSeconds.Set(secs)
	updateSnapshot(func(s *PlaybackSnapshot) { s.Timecode = secs })
}

// ObserveProbe records one discovery attempt.
func ObserveProbe(elapsed time.Duration, err error) {
	probeDuration.Set(elapsed.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	probesTotal.WithLabelValues(result).Inc()
}

// SetDecodeFPS records the decoder-reported frame rate.
func SetDecodeFPS(fps float64) {
	decodeFPS.Set(fps)
	updateSnapshot(func(s *PlaybackSnapshot) { s.DecodeFPS = fps })
}

// SetDecodeSpeed records the decoder-reported processing speed.
func SetDecodeSpeed(speed float64) {
	decodeSpeed.Set(speed)
}

// Snapshot returns the current cached values.
func Snapshot() PlaybackSnapshot {
	snapshotMu.RLock()
	defer snapshotMu.RUnlock()
	return snapshot
}

func updateSnapshot(fn func(*PlaybackSnapshot)) {
	snapshotMu.Lock()
	defer snapshotMu.Unlock()
	fn(&snapshot)
}
