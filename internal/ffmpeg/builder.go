package ffmpeg

import (
	"fmt"
	"strings"
	"time"
)

// BuildDecodeArgs builds the ffmpeg argv (without the binary name) for a
// decoder emitting packed RGBA rawvideo on stdout. Seek placement encodes
// the accuracy trade-off: -ss before -i snaps to the container keyframe
// index, -ss after -i decodes forward from the prior keyframe.
func BuildDecodeArgs(p DecodeParams) []string {
	args := []string{"-hide_banner", "-loglevel", "level+info", "-stats_period", "0.5"}

	if p.TrickMode {
		args = append(args, "-skip_frame", "nokey")
	}

	if p.Start > 0 && !p.AccurateSeek {
		args = append(args, "-noaccurate_seek", "-ss", formatSeekTime(p.Start))
	}

	args = append(args, "-i", p.Input)

	if p.Start > 0 && p.AccurateSeek {
		args = append(args, "-ss", formatSeekTime(p.Start))
	}

	// Video branch
	if p.VideoTrack >= 0 {
		args = append(args, "-map", fmt.Sprintf("0:v:%d", p.VideoTrack))
	} else {
		args = append(args, "-map", "0:v:0?")
	}

	if vf := videoFilter(p); vf != "" {
		args = append(args, "-vf", vf)
	}

	args = append(args, "-f", "rawvideo", "-pix_fmt", "rgba", "pipe:1")

	// Audio branch plays out directly through ALSA; the video consumer
	// only ever sees stdout.
	if p.AudioEnabled {
		if p.AudioTrack >= 0 {
			args = append(args, "-map", fmt.Sprintf("0:a:%d", p.AudioTrack))
		} else {
			args = append(args, "-map", "0:a:0?")
		}
		if p.Volume != 1.0 {
			args = append(args, "-af", fmt.Sprintf("volume=%.4f", p.Volume))
		}
		device := p.AudioDevice
		if device == "" {
			device = "default"
		}
		args = append(args, "-f", "alsa", device)
	}

	return args
}

// videoFilter assembles the -vf chain for the video branch.
func videoFilter(p DecodeParams) string {
	var filters []string

	if p.Deinterlace {
		filters = append(filters, "yadif")
	}

	if p.SubtitlesEnabled && p.SubtitleTrack >= 0 {
		filters = append(filters, fmt.Sprintf("subtitles=%s:si=%d", escapeFilterPath(p.Input), p.SubtitleTrack))
	}

	if p.Width > 0 && p.Height > 0 {
		filters = append(filters, fmt.Sprintf("scale=%d:%d", p.Width, p.Height))
	}

	if p.FPSNum > 0 && p.FPSDen > 0 {
		filters = append(filters, fmt.Sprintf("fps=%d/%d", p.FPSNum, p.FPSDen))
	}

	return strings.Join(filters, ",")
}

// BuildProbeArgs builds the ffprobe argv for JSON stream discovery.
func BuildProbeArgs(input string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		input,
	}
}

// formatSeekTime renders a duration as fractional seconds for -ss.
func formatSeekTime(d time.Duration) string {
	return fmt.Sprintf("%.6f", d.Seconds())
}

// escapeFilterPath escapes the characters the filter graph parser treats
// specially in file paths.
func escapeFilterPath(path string) string {
	r := strings.NewReplacer(`\`, `\\`, `:`, `\:`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`)
	return r.Replace(path)
}
