package player

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/zachdedoo13/vidplayer/internal/logging"
	"github.com/zachdedoo13/vidplayer/internal/pipeline"
	"github.com/zachdedoo13/vidplayer/internal/probe"
)

type seekCall struct {
	rate  float64
	flags pipeline.SeekFlags
	to    time.Duration
}

// fakePipeline records every request so tests can assert on the exact
// traffic the facade generates.
type fakePipeline struct {
	states   []pipeline.State
	seeks    []seekCall
	steps    []int
	volumes  []float64
	flags    pipeline.PlayFlags
	tracks   map[pipeline.TrackKind]int
	sink     pipeline.FrameSink
	duration time.Duration
	device   string
	closed   bool

	failSetState error
	failPause    error // SetState(StatePaused) only
	failSeek     error
	failStep     error
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{
		flags:  pipeline.DefaultFlags,
		tracks: make(map[pipeline.TrackKind]int),
	}
}

func (f *fakePipeline) SetState(s pipeline.State) error {
	if f.failSetState != nil {
		return f.failSetState
	}
	if f.failPause != nil && s == pipeline.StatePaused {
		return f.failPause
	}
	f.states = append(f.states, s)
	return nil
}

func (f *fakePipeline) Seek(rate float64, flags pipeline.SeekFlags, to time.Duration) error {
	if f.failSeek != nil {
		return f.failSeek
	}
	f.seeks = append(f.seeks, seekCall{rate: rate, flags: flags, to: to})
	return nil
}

func (f *fakePipeline) Step(frames int) error {
	if f.failStep != nil {
		return f.failStep
	}
	f.steps = append(f.steps, frames)
	return nil
}

func (f *fakePipeline) Duration() (time.Duration, error) { return f.duration, nil }

func (f *fakePipeline) Track(kind pipeline.TrackKind) (int, error) { return f.tracks[kind], nil }

func (f *fakePipeline) SelectTrack(kind pipeline.TrackKind, index int) error {
	f.tracks[kind] = index
	return nil
}

func (f *fakePipeline) SetVolume(level float64) error {
	f.volumes = append(f.volumes, level)
	return nil
}

func (f *fakePipeline) SelectAudioDevice(id string) error {
	f.device = id
	return nil
}

func (f *fakePipeline) Flags() (pipeline.PlayFlags, error) { return f.flags, nil }

func (f *fakePipeline) SetFlags(flags pipeline.PlayFlags) error {
	f.flags = flags
	return nil
}

func (f *fakePipeline) SetFrameSink(sink pipeline.FrameSink) { f.sink = sink }

func (f *fakePipeline) Close() error {
	f.closed = true
	return nil
}

func (f *fakePipeline) lastState() pipeline.State {
	if len(f.states) == 0 {
		return pipeline.StateUninitialized
	}
	return f.states[len(f.states)-1]
}

func (f *fakePipeline) lastSeek(t *testing.T) seekCall {
	t.Helper()
	if len(f.seeks) == 0 {
		t.Fatal("no seek recorded")
	}
	return f.seeks[len(f.seeks)-1]
}

// deliver pushes one frame through the pipeline's sink, as the decode
// goroutine would.
func (f *fakePipeline) deliver(tc time.Duration, info pipeline.VideoInfo) {
	f.sink(pipeline.FrameUpdate{Data: []byte{1, 2, 3, 4}, Timecode: tc}, info)
}

func stubDiscoverer(p *probe.Probe, err error) probe.Discoverer {
	return func(context.Context, string) (*probe.Probe, error) {
		return p, err
	}
}

func newTestBackend(t *testing.T, opts ...Option) (*Backend, *fakePipeline) {
	t.Helper()
	fake := newFakePipeline()
	base := []Option{
		WithPipelineFactory(func(uri string, _ logging.Logger) (pipeline.Pipeline, error) {
			return fake, nil
		}),
		WithDiscoverer(stubDiscoverer(&probe.Probe{URI: "file:///clip.mkv"}, nil)),
	}
	b, err := New("file:///clip.mkv", append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = b.Quit() })
	return b, fake
}

func waitProbeSettled(t *testing.T, b *Backend) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		_, _ = b.Update() // ticks are what settle the probe
		if _, err := b.Probe(); !errors.Is(err, ErrProbePending) {
			return
		}
		select {
		case <-deadline:
			t.Fatal("probe never settled")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestEmptyTicksDoNotMutateState(t *testing.T) {
	b, _ := newTestBackend(t)

	for i := 0; i < 5; i++ {
		if _, err := b.Update(); !errors.Is(err, ErrNoFrame) {
			t.Fatalf("tick %d: err = %v, want ErrNoFrame", i, err)
		}
	}

	if b.Timecode() != 0 {
		t.Errorf("timecode mutated to %v on empty ticks", b.Timecode())
	}
	if _, ok := b.LatestInfo(); ok {
		t.Error("video info cached despite no frames")
	}
}

func TestUpdateDeliversFrameAndCachesInfo(t *testing.T) {
	b, fake := newTestBackend(t)

	info := pipeline.VideoInfo{Width: 640, Height: 480, FPSNum: 25, FPSDen: 1}
	fake.deliver(2*time.Second, info)

	u, err := b.Update()
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.Timecode != 2*time.Second {
		t.Errorf("timecode = %v", u.Timecode)
	}
	if b.Timecode() != 2*time.Second {
		t.Errorf("cached timecode = %v", b.Timecode())
	}
	got, ok := b.LatestInfo()
	if !ok || got != info {
		t.Errorf("cached info = %+v ok=%v", got, ok)
	}
}

func TestForcedFetchTwoPhaseProtocol(t *testing.T) {
	b, fake := newTestBackend(t)

	// Paused seek queues a forced capture.
	if err := b.SeekKeyframe(10 * time.Second); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if b.machine.phase != fetchRequested {
		t.Fatalf("phase = %d, want fetchRequested", b.machine.phase)
	}

	// First tick with no frame: the engine must be force-started and the
	// capture left in progress.
	if _, err := b.Update(); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("err = %v, want ErrNoFrame", err)
	}
	if b.machine.phase != fetchInProgress {
		t.Errorf("phase = %d, want fetchInProgress", b.machine.phase)
	}
	if fake.lastState() != pipeline.StatePlaying {
		t.Errorf("engine state = %v, want playing", fake.lastState())
	}
	if b.machine.saved != pipeline.StatePaused {
		t.Errorf("saved state = %v, want paused", b.machine.saved)
	}

	// Still nothing: flags must stay intact across ticks.
	if _, err := b.Update(); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("err = %v", err)
	}
	if b.machine.phase != fetchInProgress {
		t.Error("capture state corrupted by an empty tick")
	}

	// A frame arrives: the capture completes, the pre-capture state is
	// restored, and the flags clear.
	fake.deliver(10*time.Second, pipeline.VideoInfo{Width: 2, Height: 2, FPSNum: 30, FPSDen: 1})
	if _, err := b.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if b.machine.phase != fetchIdle {
		t.Errorf("phase = %d, want fetchIdle", b.machine.phase)
	}
	if fake.lastState() != pipeline.StatePaused {
		t.Errorf("engine state = %v, want paused restored", fake.lastState())
	}
	if !b.IsPaused() {
		t.Error("target state not restored to paused")
	}
}

func TestForcedFetchWhilePlayingStaysPlaying(t *testing.T) {
	b, fake := newTestBackend(t)
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	b.machine.QueueForcedFetch()
	fake.deliver(time.Second, pipeline.VideoInfo{Width: 2, Height: 2})
	if _, err := b.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !b.IsPlaying() {
		t.Error("playing state not preserved through forced capture")
	}
}

func TestForcedFetchRePauseFailurePropagates(t *testing.T) {
	b, fake := newTestBackend(t)

	b.machine.QueueForcedFetch()
	fake.deliver(time.Second, pipeline.VideoInfo{Width: 2, Height: 2})

	boom := errors.New("engine rejected pause")
	fake.failPause = boom
	if _, err := b.Update(); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want re-pause failure", err)
	}
	if b.machine.phase != fetchIdle {
		t.Error("capture flags not cleared after failed re-pause")
	}
}

func TestStepZeroPanics(t *testing.T) {
	b, _ := newTestBackend(t)

	defer func() {
		if recover() == nil {
			t.Error("StepFrames(0) did not panic")
		}
	}()
	_ = b.StepFrames(0)
}

func TestStepForwardUsesNativeStep(t *testing.T) {
	b, fake := newTestBackend(t)

	if err := b.StepFrames(3); err != nil {
		t.Fatalf("StepFrames: %v", err)
	}
	if len(fake.steps) != 1 || fake.steps[0] != 3 {
		t.Errorf("steps = %v, want [3]", fake.steps)
	}
	if b.machine.phase == fetchIdle {
		t.Error("forward step did not queue a forced capture")
	}
}

func TestStepBackwardDefaultFrametime(t *testing.T) {
	b, fake := newTestBackend(t)

	// Deliver a frame with unknown rate so the 1/30 default applies.
	fake.deliver(time.Second, pipeline.VideoInfo{Width: 2, Height: 2})
	if _, err := b.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := b.StepFrames(-5); err != nil {
		t.Fatalf("StepFrames: %v", err)
	}

	got := fake.lastSeek(t)
	want := time.Second - 5*(time.Second/30) // ≈ 0.8333s
	if diff := math.Abs(got.to.Seconds() - want.Seconds()); diff > 0.001 {
		t.Errorf("target = %v, want ≈%v", got.to, want)
	}
	if got.flags != pipeline.SeekFlush {
		t.Errorf("flags = %v, want flush-only", got.flags)
	}
	if b.machine.phase == fetchIdle {
		t.Error("backward step did not queue a forced capture")
	}
}

func TestStepBackwardClampsToZero(t *testing.T) {
	b, fake := newTestBackend(t)

	fake.deliver(100*time.Millisecond, pipeline.VideoInfo{Width: 2, Height: 2})
	if _, err := b.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := b.StepFrames(-30); err != nil {
		t.Fatalf("StepFrames: %v", err)
	}
	if got := fake.lastSeek(t); got.to != 0 {
		t.Errorf("target = %v, want 0", got.to)
	}
}

func TestSpeedChangeAnchorsAtCurrentTimecode(t *testing.T) {
	b, fake := newTestBackend(t)

	fake.deliver(7*time.Second, pipeline.VideoInfo{Width: 2, Height: 2, FPSNum: 30, FPSDen: 1})
	if _, err := b.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := b.SetSpeed(2.0); err != nil {
		t.Fatalf("SetSpeed: %v", err)
	}
	got := fake.lastSeek(t)
	if got.rate != 2.0 {
		t.Errorf("rate = %v, want 2.0", got.rate)
	}
	if got.to != 7*time.Second {
		t.Errorf("anchor = %v, want 7s", got.to)
	}
	if b.Speed() != 2.0 {
		t.Errorf("Speed() = %v", b.Speed())
	}
}

func TestSpeedPersistsAcrossSeeks(t *testing.T) {
	b, fake := newTestBackend(t)

	if err := b.SetSpeed(1.5); err != nil {
		t.Fatalf("SetSpeed: %v", err)
	}
	if err := b.SeekTrick(30 * time.Second); err != nil {
		t.Fatalf("SeekTrick: %v", err)
	}
	if got := fake.lastSeek(t); got.rate != 1.5 {
		t.Errorf("seek rate = %v, want persisted 1.5", got.rate)
	}
	if err := b.SeekExact(31 * time.Second); err != nil {
		t.Fatalf("SeekExact: %v", err)
	}
	if got := fake.lastSeek(t); got.rate != 1.5 {
		t.Errorf("seek rate = %v, want persisted 1.5", got.rate)
	}
}

func TestSpeedRejectsNonPositive(t *testing.T) {
	b, _ := newTestBackend(t)

	if err := b.SetSpeed(0); err == nil {
		t.Error("SetSpeed(0) accepted")
	}
	if err := b.SetSpeed(-1); err == nil {
		t.Error("SetSpeed(-1) accepted")
	}
	if b.Speed() != 1.0 {
		t.Errorf("rate mutated to %v on rejected change", b.Speed())
	}
}

func TestSeekFlagMapping(t *testing.T) {
	tests := []struct {
		name string
		op   func(*Backend) error
		want pipeline.SeekFlags
	}{
		{"trick", func(b *Backend) error { return b.SeekTrick(0) },
			pipeline.SeekFlush | pipeline.SeekKeyUnit | pipeline.SeekTrick},
		{"exact", func(b *Backend) error { return b.SeekExact(0) },
			pipeline.SeekFlush | pipeline.SeekAccurate},
		{"keyframe", func(b *Backend) error { return b.SeekKeyframe(0) },
			pipeline.SeekFlush | pipeline.SeekKeyUnit},
		{"flush", func(b *Backend) error { return b.SeekFlush(0) },
			pipeline.SeekFlush},
		{"timeline accurate", func(b *Backend) error { return b.SeekTimeline(0, true) },
			pipeline.SeekFlush},
		{"timeline fast", func(b *Backend) error { return b.SeekTimeline(0, false) },
			pipeline.SeekFlush | pipeline.SeekKeyUnit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, fake := newTestBackend(t)
			if err := tt.op(b); err != nil {
				t.Fatalf("seek: %v", err)
			}
			if got := fake.lastSeek(t); got.flags != tt.want {
				t.Errorf("flags = %v, want %v", got.flags, tt.want)
			}
		})
	}
}

func TestTimelineSeekSuppressedDuringCapture(t *testing.T) {
	b, fake := newTestBackend(t)

	if err := b.SeekKeyframe(5 * time.Second); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if _, err := b.Update(); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("err = %v", err)
	}
	if !b.machine.FetchInProgress() {
		t.Fatal("capture not in progress")
	}

	seeksBefore := len(fake.seeks)
	if err := b.SeekTimeline(20*time.Second, true); err != nil {
		t.Fatalf("SeekTimeline: %v", err)
	}
	if len(fake.seeks) != seeksBefore {
		t.Error("timeline seek issued while a capture was in progress")
	}
}

func TestVolumeClampsToRange(t *testing.T) {
	b, fake := newTestBackend(t)

	if err := b.SetVolume(7.5); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	if b.Volume() != VolumeMax {
		t.Errorf("volume = %v, want clamped %v", b.Volume(), VolumeMax)
	}
	if fake.volumes[len(fake.volumes)-1] != VolumeMax {
		t.Errorf("engine got %v", fake.volumes[len(fake.volumes)-1])
	}

	if err := b.SetVolume(-0.5); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	if b.Volume() != VolumeMin {
		t.Errorf("volume = %v, want clamped %v", b.Volume(), VolumeMin)
	}

	if err := b.SetVolume(2.5); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	if b.Volume() != 2.5 {
		t.Errorf("in-range volume = %v", b.Volume())
	}
}

func TestProbePendingThenCached(t *testing.T) {
	release := make(chan struct{})
	calls := 0
	b, _ := newTestBackend(t, WithDiscoverer(func(context.Context, string) (*probe.Probe, error) {
		calls++
		<-release
		return &probe.Probe{URI: "file:///clip.mkv", Duration: time.Minute}, nil
	}))

	if _, err := b.Probe(); !errors.Is(err, ErrProbePending) {
		t.Fatalf("err = %v, want ErrProbePending", err)
	}

	close(release)
	waitProbeSettled(t, b)

	p, err := b.Probe()
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if p.Duration != time.Minute {
		t.Errorf("probe = %+v", p)
	}

	// Repeated calls reuse the cached result without re-discovery.
	for i := 0; i < 3; i++ {
		if _, err := b.Probe(); err != nil {
			t.Fatalf("cached Probe: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("discovery ran %d times, want 1", calls)
	}
}

func TestProbeFailureCached(t *testing.T) {
	boom := errors.New("unreadable media")
	b, _ := newTestBackend(t, WithDiscoverer(stubDiscoverer(nil, boom)))

	waitProbeSettled(t, b)

	if _, err := b.Probe(); !errors.Is(err, boom) {
		t.Errorf("err = %v, want cached discovery failure", err)
	}
}

func TestStaleProbeDiscardedOnNewURI(t *testing.T) {
	releaseFirst := make(chan struct{})
	fakes := make(map[string]*fakePipeline)

	b, err := New("file:///first.mkv",
		WithPipelineFactory(func(uri string, _ logging.Logger) (pipeline.Pipeline, error) {
			f := newFakePipeline()
			fakes[uri] = f
			return f, nil
		}),
		WithDiscoverer(func(_ context.Context, uri string) (*probe.Probe, error) {
			if uri == "file:///first.mkv" {
				<-releaseFirst
			}
			return &probe.Probe{URI: uri}, nil
		}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = b.Quit() })

	// Open a new URI while the first probe is still in flight, then let
	// the stale task finish.
	if err := b.Open("file:///second.mkv"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !fakes["file:///first.mkv"].closed {
		t.Error("previous pipeline not torn down on re-open")
	}
	close(releaseFirst)

	waitProbeSettled(t, b)
	p, err := b.Probe()
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if p.URI != "file:///second.mkv" {
		t.Errorf("stale probe result surfaced: %q", p.URI)
	}
}

func TestPipelineFailuresPropagate(t *testing.T) {
	b, fake := newTestBackend(t)

	boom := errors.New("engine rejected")
	fake.failSeek = boom
	if err := b.SeekExact(time.Second); !errors.Is(err, boom) {
		t.Errorf("seek err = %v", err)
	}
	fake.failSeek = nil

	fake.failStep = boom
	if err := b.StepFrames(1); !errors.Is(err, boom) {
		t.Errorf("step err = %v", err)
	}
	fake.failStep = nil

	fake.failSetState = boom
	if err := b.Start(); !errors.Is(err, boom) {
		t.Errorf("start err = %v", err)
	}
	if b.IsPlaying() {
		t.Error("target state updated despite rejected transition")
	}
}

func TestFrametime(t *testing.T) {
	b, fake := newTestBackend(t)

	if b.Frametime() != time.Second/30 {
		t.Errorf("default frametime = %v", b.Frametime())
	}

	fake.deliver(0, pipeline.VideoInfo{Width: 2, Height: 2, FPSNum: 25, FPSDen: 1})
	if _, err := b.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if b.Frametime() != time.Second/25 {
		t.Errorf("frametime = %v, want 40ms", b.Frametime())
	}
}

func TestSetFlagTogglesSingleBit(t *testing.T) {
	b, fake := newTestBackend(t)

	if err := b.SetFlag(pipeline.FlagSubtitles, false); err != nil {
		t.Fatalf("SetFlag: %v", err)
	}
	if fake.flags&pipeline.FlagSubtitles != 0 {
		t.Error("subtitle flag still set")
	}
	if fake.flags&pipeline.FlagVideo == 0 || fake.flags&pipeline.FlagAudio == 0 {
		t.Error("unrelated flags disturbed")
	}

	if err := b.SetFlag(pipeline.FlagSubtitles, true); err != nil {
		t.Fatalf("SetFlag: %v", err)
	}
	if fake.flags&pipeline.FlagSubtitles == 0 {
		t.Error("subtitle flag not restored")
	}
}

func TestTrackSelection(t *testing.T) {
	b, fake := newTestBackend(t)

	if err := b.SelectTrack(pipeline.TrackAudio, 2); err != nil {
		t.Fatalf("SelectTrack: %v", err)
	}
	if fake.tracks[pipeline.TrackAudio] != 2 {
		t.Errorf("engine track = %d", fake.tracks[pipeline.TrackAudio])
	}
	got, err := b.CurrentTrack(pipeline.TrackAudio)
	if err != nil || got != 2 {
		t.Errorf("CurrentTrack = %d, %v", got, err)
	}
}

func TestForceUpdateNowBlocksUntilFrame(t *testing.T) {
	b, fake := newTestBackend(t)

	go func() {
		time.Sleep(20 * time.Millisecond)
		fake.deliver(4*time.Second, pipeline.VideoInfo{Width: 2, Height: 2, FPSNum: 30, FPSDen: 1})
	}()

	u, err := b.ForceUpdateNow(true)
	if err != nil {
		t.Fatalf("ForceUpdateNow: %v", err)
	}
	if u.Timecode != 4*time.Second {
		t.Errorf("timecode = %v", u.Timecode)
	}
	if !b.IsPaused() {
		t.Error("endPaused not honored")
	}
}

func TestQuitTearsDownSynchronously(t *testing.T) {
	b, fake := newTestBackend(t)

	if err := b.Quit(); err != nil {
		t.Fatalf("Quit: %v", err)
	}
	if !fake.closed {
		t.Error("pipeline not closed")
	}
	if b.PredictedState() != pipeline.StateStopped {
		t.Errorf("state = %v, want stopped", b.PredictedState())
	}

	// Stopped is terminal.
	if err := b.Start(); !errors.Is(err, ErrStopped) {
		t.Errorf("Start after Quit: %v", err)
	}
	if err := b.Quit(); err != nil {
		t.Errorf("second Quit: %v", err)
	}
}

func TestOpenFailurePropagates(t *testing.T) {
	boom := errors.New("no such file")
	_, err := New("file:///missing.mkv",
		WithPipelineFactory(func(string, logging.Logger) (pipeline.Pipeline, error) {
			return nil, boom
		}))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestOpenFailureKeepsCurrentMedia(t *testing.T) {
	fake := newFakePipeline()
	calls := 0
	b, err := New("file:///a.mkv",
		WithPipelineFactory(func(string, logging.Logger) (pipeline.Pipeline, error) {
			calls++
			if calls > 1 {
				return nil, errors.New("decoder unavailable")
			}
			return fake, nil
		}),
		WithDiscoverer(stubDiscoverer(&probe.Probe{URI: "file:///a.mkv"}, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := b.Open("file:///b.mkv"); err == nil {
		t.Fatal("expected open failure")
	}
	if fake.closed {
		t.Error("previous pipeline closed by a failed open")
	}
	if b.URI() != "file:///a.mkv" {
		t.Errorf("URI = %q, want previous media", b.URI())
	}

	fake.deliver(time.Second, pipeline.VideoInfo{Width: 2, Height: 2})
	if _, err := b.Update(); err != nil {
		t.Errorf("backend unusable after failed open: %v", err)
	}
}

func TestDurationDelegates(t *testing.T) {
	b, fake := newTestBackend(t)
	fake.duration = 90 * time.Second

	d, err := b.Duration()
	if err != nil || d != 90*time.Second {
		t.Errorf("Duration = %v, %v", d, err)
	}
}

func TestDroppedFrameDoesNotBlockProducer(t *testing.T) {
	b, fake := newTestBackend(t)
	b.frames.sendTimeout = 10 * time.Millisecond

	// Fill the channel beyond capacity; the producer must return, not hang.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 4; i++ {
			fake.deliver(time.Duration(i)*time.Second, pipeline.VideoInfo{Width: 2, Height: 2})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer stalled on a full channel")
	}
}

func ExampleBackend_Update() {
	fake := newFakePipeline()
	b, _ := New("file:///clip.mkv",
		WithPipelineFactory(func(string, logging.Logger) (pipeline.Pipeline, error) { return fake, nil }),
		WithDiscoverer(stubDiscoverer(&probe.Probe{}, nil)))
	defer b.Quit()

	fake.deliver(time.Second, pipeline.VideoInfo{Width: 1280, Height: 720, FPSNum: 30, FPSDen: 1})
	if u, err := b.Update(); err == nil {
		fmt.Println(u.Timecode)
	}
	// Output: 1s
}
