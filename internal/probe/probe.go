// Package probe discovers the stream topology of a media location ahead of
// playback. Discovery runs out of band so opening a URI never blocks on
// container parsing; the backend polls the task each tick.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/zachdedoo13/vidplayer/internal/ffmpeg"
)

// DiscoverTimeout bounds one discovery attempt. Slow or unreachable remote
// sources fail instead of hanging the task forever.
const DiscoverTimeout = 5 * time.Second

// Probe is the discovered topology of one media location.
type Probe struct {
	URI      string         `json:"uri"`
	Duration time.Duration  `json:"duration"`
	Video    []VideoStream  `json:"video"`
	Audio    []AudioStream  `json:"audio"`
	Captions []CaptionTrack `json:"captions"`
}

// VideoStream describes one selectable video track.
type VideoStream struct {
	Index      int     `json:"index"` // per-kind index used for selection
	Name       string  `json:"name"`
	Codec      string  `json:"codec"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FPS        float64 `json:"fps"`
	Bitrate    int64   `json:"bitrate"`
	MaxBitrate int64   `json:"max_bitrate"`
}

// AudioStream describes one selectable audio track.
type AudioStream struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Codec   string `json:"codec"`
	Bitrate int64  `json:"bitrate"`
}

// CaptionTrack describes one selectable subtitle track.
type CaptionTrack struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Codec    string `json:"codec"`
}

// Discoverer resolves a URI to its probe. The context carries the attempt
// deadline.
type Discoverer func(ctx context.Context, uri string) (*Probe, error)

// Discover is the shipped ffprobe-based Discoverer.
func Discover(ctx context.Context, uri string) (*Probe, error) {
	input := uri
	if strings.HasPrefix(uri, "file://") {
		input = strings.TrimPrefix(uri, "file://")
	}

	out, err := exec.CommandContext(ctx, "ffprobe", ffmpeg.BuildProbeArgs(input)...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("discover %s: %s", uri, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("discover %s: %w", uri, err)
	}
	return parseProbeOutput(uri, out)
}

type ffprobeResult struct {
	Format struct {
		Duration string `json:"duration"`
		Bitrate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	Index      int               `json:"index"`
	CodecType  string            `json:"codec_type"`
	CodecName  string            `json:"codec_name"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	RFrameRate string            `json:"r_frame_rate"`
	Bitrate    string            `json:"bit_rate"`
	MaxBitrate string            `json:"max_bit_rate"`
	Tags       map[string]string `json:"tags"`
}

// parseProbeOutput converts ffprobe JSON into the probe model. Per-kind
// indices count streams of one kind in container order, matching the
// decoder's selection scheme.
func parseProbeOutput(uri string, data []byte) (*Probe, error) {
	var result ffprobeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse discovery output: %w", err)
	}

	p := &Probe{URI: uri}

	if secs, err := strconv.ParseFloat(result.Format.Duration, 64); err == nil {
		p.Duration = time.Duration(secs * float64(time.Second))
	}

	for _, s := range result.Streams {
		switch s.CodecType {
		case "video":
			p.Video = append(p.Video, VideoStream{
				Index:      len(p.Video),
				Name:       streamName(s, "Video", len(p.Video)),
				Codec:      s.CodecName,
				Width:      s.Width,
				Height:     s.Height,
				FPS:        rationalFloat(s.RFrameRate),
				Bitrate:    parseInt64(s.Bitrate),
				MaxBitrate: parseInt64(s.MaxBitrate),
			})
		case "audio":
			p.Audio = append(p.Audio, AudioStream{
				Index:   len(p.Audio),
				Name:    streamName(s, "Audio", len(p.Audio)),
				Codec:   s.CodecName,
				Bitrate: parseInt64(s.Bitrate),
			})
		case "subtitle":
			p.Captions = append(p.Captions, CaptionTrack{
				Index:    len(p.Captions),
				Name:     streamName(s, "Subtitles", len(p.Captions)),
				Language: s.Tags["language"],
				Codec:    s.CodecName,
			})
		}
	}

	if len(p.Video) == 0 && len(p.Audio) == 0 {
		return nil, fmt.Errorf("no playable streams in %s", uri)
	}
	return p, nil
}

// streamName prefers the container title tag, falling back to a kind-index
// label.
func streamName(s ffprobeStream, kind string, index int) string {
	if title := s.Tags["title"]; title != "" {
		return title
	}
	if lang := s.Tags["language"]; lang != "" {
		return fmt.Sprintf("%s %d (%s)", kind, index+1, lang)
	}
	return fmt.Sprintf("%s %d", kind, index+1)
}

func rationalFloat(s string) float64 {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

func parseInt64(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
