package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zachdedoo13/vidplayer/internal/audio"
	"github.com/zachdedoo13/vidplayer/internal/ffmpeg"
	"github.com/zachdedoo13/vidplayer/internal/logging"
	"github.com/zachdedoo13/vidplayer/internal/metrics"
	"github.com/zachdedoo13/vidplayer/internal/process"
)

const geometryProbeTimeout = 5 * time.Second

// FFmpegPipeline decodes through an ffmpeg subprocess emitting packed RGBA
// rawvideo on stdout. Position, rate, and track changes restart the
// subprocess with rebuilt arguments; audio plays out directly through ALSA
// on the decoder side.
type FFmpegPipeline struct {
	logger logging.Logger
	input  string // local path or remote URL handed to the decoder

	mu       sync.Mutex
	state    State
	rate     float64
	params   ffmpeg.DecodeParams
	flags    PlayFlags
	info     VideoInfo
	duration time.Duration
	timecode time.Duration // last delivered presentation time
	sink     FrameSink
	decoder  *process.Decoder
	session  *readSession
	closed   bool

	// progress is the decoder-reported output time of the current
	// subprocess, in nanoseconds relative to its start position. Written
	// by the stderr goroutine, read by the frame reader; never under mu.
	progress atomic.Int64
}

// NewFFmpeg opens uri and probes its geometry synchronously. The pipeline
// starts in StateUninitialized with no subprocess running; the first
// transition to StatePlaying launches the decoder.
func NewFFmpeg(uri string, logger logging.Logger) (*FFmpegPipeline, error) {
	if err := EnsureInitialized(); err != nil {
		return nil, err
	}

	input := LocalPath(uri)
	info, duration, err := probeGeometry(input)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", input, err)
	}

	p := &FFmpegPipeline{
		logger:   logger,
		input:    input,
		state:    StateUninitialized,
		rate:     1.0,
		params:   ffmpeg.Defaults(input),
		flags:    DefaultFlags,
		info:     info,
		duration: duration,
	}
	p.decoder = process.NewDecoder("ffmpeg", logger,
		process.WithOutputLogger(logging.GetLogger("ffmpeg"), ffmpeg.ParseLogLevel),
		process.WithLineHandler(p.handleProgress))
	return p, nil
}

// handleProgress feeds the decoder's periodic stats lines into the decode
// gauges and records the reported output time for the frame reader. Runs
// on the stderr goroutine.
func (p *FFmpegPipeline) handleProgress(line string) {
	prog, ok := ffmpeg.ParseProgress(line)
	if !ok {
		return
	}
	metrics.SetDecodeFPS(prog.FPS)
	metrics.SetDecodeSpeed(prog.Speed)
	p.progress.Store(int64(prog.Time))
}

// SetFrameSink implements Pipeline.
func (p *FFmpegPipeline) SetFrameSink(sink FrameSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = sink
}

// SetState implements Pipeline.
func (p *FFmpegPipeline) SetState(s State) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("pipeline closed")
	}

	switch s {
	case StatePlaying:
		if p.session == nil {
			if err := p.restartLocked(); err != nil {
				return err
			}
		}
		p.session.gate.Open()
	case StatePaused:
		if p.session != nil {
			p.session.gate.Shut()
		}
	case StateStopped:
		p.stopLocked()
	default:
		return fmt.Errorf("cannot request state %s", s)
	}
	p.state = s
	return nil
}

// Seek implements Pipeline. Every seek tears the subprocess down and
// launches a new one positioned at the target; when paused, the reader
// prerolls a single frame so the new position is visible.
func (p *FFmpegPipeline) Seek(rate float64, flags SeekFlags, to time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("pipeline closed")
	}
	if rate <= 0 {
		return fmt.Errorf("invalid playback rate %v", rate)
	}
	if to < 0 {
		to = 0
	}

	p.rate = rate
	p.params.Start = to
	p.params.AccurateSeek = flags&SeekAccurate != 0 && flags&SeekKeyUnit == 0
	p.params.TrickMode = flags&SeekTrick != 0
	p.timecode = to

	wasPlaying := p.state == StatePlaying
	if err := p.restartLocked(); err != nil {
		return err
	}
	if wasPlaying {
		p.session.gate.Open()
	} else {
		p.session.gate.Allow(1)
	}
	return nil
}

// Step implements Pipeline. The decoder stays positioned where it is; the
// reader is granted exactly frames deliveries before re-pausing.
func (p *FFmpegPipeline) Step(frames int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if frames <= 0 {
		return fmt.Errorf("step count must be positive, got %d", frames)
	}
	if p.state != StatePaused {
		return errors.New("frame stepping requires paused state")
	}
	if p.session == nil {
		if err := p.restartLocked(); err != nil {
			return err
		}
	}
	p.session.gate.Allow(frames)
	return nil
}

// Duration implements Pipeline.
func (p *FFmpegPipeline) Duration() (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration, nil
}

// Track implements Pipeline.
func (p *FFmpegPipeline) Track(kind TrackKind) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch kind {
	case TrackVideo:
		return max(p.params.VideoTrack, 0), nil
	case TrackAudio:
		return max(p.params.AudioTrack, 0), nil
	case TrackSubtitle:
		return max(p.params.SubtitleTrack, 0), nil
	default:
		return 0, fmt.Errorf("unknown track kind %v", kind)
	}
}

// SelectTrack implements Pipeline.
func (p *FFmpegPipeline) SelectTrack(kind TrackKind, index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 {
		return fmt.Errorf("track index must be non-negative, got %d", index)
	}
	switch kind {
	case TrackVideo:
		p.params.VideoTrack = index
	case TrackAudio:
		p.params.AudioTrack = index
	case TrackSubtitle:
		p.params.SubtitleTrack = index
	default:
		return fmt.Errorf("unknown track kind %v", kind)
	}
	return p.reconfigureLocked()
}

// SetVolume implements Pipeline.
func (p *FFmpegPipeline) SetVolume(level float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if level < 0 {
		return fmt.Errorf("volume must be non-negative, got %v", level)
	}
	p.params.Volume = level
	return p.reconfigureLocked()
}

// SelectAudioDevice implements Pipeline. The audio branch is rebuilt around
// the new sink and playback resumes from the current timecode.
func (p *FFmpegPipeline) SelectAudioDevice(id string) error {
	if !audio.Supported() {
		return audio.ErrUnsupported
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.params.AudioDevice = id
	p.params.Start = p.timecode
	p.params.AccurateSeek = true
	return p.reconfigureLocked()
}

// Flags implements Pipeline.
func (p *FFmpegPipeline) Flags() (PlayFlags, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flags, nil
}

// SetFlags implements Pipeline.
func (p *FFmpegPipeline) SetFlags(flags PlayFlags) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.flags = flags
	p.params.AudioEnabled = flags&FlagAudio != 0
	p.params.SubtitlesEnabled = flags&FlagSubtitles != 0
	p.params.Deinterlace = flags&FlagDeinterlace != 0
	return p.reconfigureLocked()
}

// Close implements Pipeline.
func (p *FFmpegPipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.stopLocked()
	p.closed = true
	p.state = StateStopped
	return nil
}

// reconfigureLocked applies pending parameter changes: a live subprocess is
// restarted from the current position, an idle pipeline just keeps the new
// parameters for the next launch.
func (p *FFmpegPipeline) reconfigureLocked() error {
	if p.session == nil {
		return nil
	}
	p.params.Start = p.timecode
	p.params.AccurateSeek = true
	wasOpen := p.session.gate.IsOpen()
	if err := p.restartLocked(); err != nil {
		return err
	}
	if wasOpen {
		p.session.gate.Open()
	} else {
		p.session.gate.Allow(1)
	}
	return nil
}

// restartLocked replaces the running subprocess (if any) with one built from
// the current parameters. The new session starts with its gate shut.
func (p *FFmpegPipeline) restartLocked() error {
	p.stopLocked()
	p.progress.Store(0)

	args := ffmpeg.BuildDecodeArgs(p.params)
	stdout, err := p.decoder.Start("ffmpeg", args)
	if err != nil {
		return fmt.Errorf("launch decoder: %w", err)
	}

	s := &readSession{
		r:     stdout,
		gate:  newFrameGate(),
		start: p.params.Start,
		info:  p.info,
		rate:  p.rate,
		trick: p.params.TrickMode,
	}
	p.session = s
	go p.runReader(s)
	return nil
}

// stopLocked terminates the current session and subprocess.
func (p *FFmpegPipeline) stopLocked() {
	if p.session == nil {
		return
	}
	p.session.gate.Terminate()
	p.session = nil
	p.decoder.Stop()
}

// readSession is one subprocess's read state. A new session is created for
// every launch so a stale reader can never deliver into a newer position.
type readSession struct {
	r     io.ReadCloser
	gate  *frameGate
	start time.Duration
	info  VideoInfo
	rate  float64
	trick bool
}

// runReader consumes raw frames from the subprocess, paces them to the
// presentation clock, and hands them to the sink. It exits on gate
// termination or decoder EOF.
func (p *FFmpegPipeline) runReader(s *readSession) {
	frameSize := s.info.Width * s.info.Height * 4
	if frameSize <= 0 {
		p.logger.Error("Refusing to read frames with unknown geometry",
			"width", s.info.Width, "height", s.info.Height)
		return
	}

	frametime := time.Second / 30
	if fps := s.info.FPS(); fps > 0 {
		frametime = time.Duration(float64(time.Second) / fps)
	}
	interval := time.Duration(float64(frametime) / s.rate)

	var last time.Time
	for n := 0; ; n++ {
		if !s.gate.Wait() {
			return
		}

		buf := make([]byte, frameSize)
		if _, err := io.ReadFull(s.r, buf); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				p.logger.Warn("Decoder stream ended", "error", err)
			}
			return
		}

		if !last.IsZero() {
			if wait := interval - time.Since(last); wait > 0 {
				time.Sleep(wait)
			}
		}
		last = time.Now()

		tc := s.start + frametime*time.Duration(n)
		if s.trick {
			// Keyframe-only decode covers far more media time per frame
			// than the frame count suggests; the decoder's reported
			// output time is the honest position.
			if adv := time.Duration(p.progress.Load()); s.start+adv > tc {
				tc = s.start + adv
			}
		}

		p.mu.Lock()
		sink := p.sink
		if p.session == s {
			p.timecode = tc
		}
		p.mu.Unlock()

		if sink != nil {
			sink(FrameUpdate{Data: buf, Timecode: tc}, s.info)
		}
	}
}

// frameGate coordinates the reader with play/pause and frame stepping.
// Open lets frames flow freely; while shut, Allow grants a bounded burst.
type frameGate struct {
	mu         sync.Mutex
	cond       *sync.Cond
	open       bool
	burst      int
	terminated bool
}

func newFrameGate() *frameGate {
	g := &frameGate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Wait blocks until a frame may be delivered. Returns false when the gate
// has been terminated.
func (g *frameGate) Wait() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for !g.terminated && !g.open && g.burst == 0 {
		g.cond.Wait()
	}
	if g.terminated {
		return false
	}
	if !g.open {
		g.burst--
	}
	return true
}

func (g *frameGate) Open() {
	g.mu.Lock()
	g.open = true
	g.mu.Unlock()
	g.cond.Broadcast()
}

func (g *frameGate) Shut() {
	g.mu.Lock()
	g.open = false
	g.burst = 0
	g.mu.Unlock()
}

func (g *frameGate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// Allow grants n frame deliveries while the gate is shut.
func (g *frameGate) Allow(n int) {
	g.mu.Lock()
	g.burst += n
	g.mu.Unlock()
	g.cond.Broadcast()
}

func (g *frameGate) Terminate() {
	g.mu.Lock()
	g.terminated = true
	g.mu.Unlock()
	g.cond.Broadcast()
}

// probeGeometry runs a bounded ffprobe pass to learn the output geometry
// and media duration before the first decode.
func probeGeometry(input string) (VideoInfo, time.Duration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), geometryProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "ffprobe", ffmpeg.BuildProbeArgs(input)...).Output()
	if err != nil {
		return VideoInfo{}, 0, fmt.Errorf("ffprobe: %w", err)
	}

	var result struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			CodecType  string `json:"codec_type"`
			Width      int    `json:"width"`
			Height     int    `json:"height"`
			RFrameRate string `json:"r_frame_rate"`
			PixFmt     string `json:"pix_fmt"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &result); err != nil {
		return VideoInfo{}, 0, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var info VideoInfo
	for _, s := range result.Streams {
		if s.CodecType != "video" {
			continue
		}
		info.Width = s.Width
		info.Height = s.Height
		info.Format = s.PixFmt
		info.FPSNum, info.FPSDen = parseRational(s.RFrameRate)
		break
	}
	if info.Width == 0 || info.Height == 0 {
		return VideoInfo{}, 0, errors.New("no video stream found")
	}

	var duration time.Duration
	if secs, err := strconv.ParseFloat(result.Format.Duration, 64); err == nil {
		duration = time.Duration(secs * float64(time.Second))
	}
	return info, duration, nil
}

// parseRational parses an ffprobe "num/den" rate string.
func parseRational(s string) (num, den int) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	n, err1 := strconv.Atoi(parts[0])
	d, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || d == 0 {
		return 0, 0
	}
	return n, d
}
