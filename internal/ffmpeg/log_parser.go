package ffmpeg

import (
	"strconv"
	"strings"
	"time"
)

// ParseLogLevel extracts the log level from ffmpeg stderr output.
// With -loglevel level+info lines look like "[info] message" or
// "[component @ 0x...] [level] message" for component-specific logs.
// Returns the level and the message with the level stripped but the
// component preserved.
func ParseLogLevel(line string) (level, msg string) {
	if len(line) < 3 || line[0] != '[' {
		return "info", line
	}

	end := strings.Index(line, "] ")
	if end == -1 {
		return "info", line
	}

	bracket := line[1:end]

	if isLogLevel(bracket) {
		return bracket, line[end+2:]
	}

	// Component prefix: keep the component, strip only the [level].
	component := line[:end+2]
	rest := line[end+2:]
	if len(rest) > 2 && rest[0] == '[' {
		if nextEnd := strings.Index(rest, "] "); nextEnd != -1 {
			nextBracket := rest[1:nextEnd]
			if isLogLevel(nextBracket) {
				return nextBracket, component + rest[nextEnd+2:]
			}
		}
	}

	return "info", line
}

func isLogLevel(s string) bool {
	switch s {
	case "quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug", "trace":
		return true
	}
	return false
}

// Progress is one decoded-progress report parsed from an ffmpeg stats line.
type Progress struct {
	Frame int64
	FPS   float64
	Time  time.Duration
	Speed float64
}

// ParseProgress parses ffmpeg periodic stats lines of the form
//
//	frame=  123 fps= 29 q=-0.0 size=... time=00:00:04.10 ... speed=1.02x
//
// Returns false for lines that are not stats reports.
func ParseProgress(line string) (Progress, bool) {
	if !strings.Contains(line, "frame=") || !strings.Contains(line, "time=") {
		return Progress{}, false
	}

	var p Progress
	seen := false

	for _, field := range splitStatsFields(line) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "frame":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				p.Frame = n
				seen = true
			}
		case "fps":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				p.FPS = f
			}
		case "time":
			if d, ok := parseClock(value); ok {
				p.Time = d
			}
		case "speed":
			if f, err := strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64); err == nil {
				p.Speed = f
			}
		}
	}

	return p, seen
}

// splitStatsFields normalizes "frame=  123 fps= 29" into "frame=123",
// "fps=29" tokens; ffmpeg pads values with spaces after the equals sign.
func splitStatsFields(line string) []string {
	collapsed := strings.ReplaceAll(line, "= ", "=")
	for strings.Contains(collapsed, "= ") {
		collapsed = strings.ReplaceAll(collapsed, "= ", "=")
	}
	return strings.Fields(collapsed)
}

// parseClock parses HH:MM:SS.ss timestamps. ffmpeg emits "N/A" before the
// first timed frame.
func parseClock(s string) (time.Duration, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err1 := strconv.Atoi(parts[0])
	minutes, err2 := strconv.Atoi(parts[1])
	seconds, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	total := float64(hours*3600+minutes*60) + seconds
	return time.Duration(total * float64(time.Second)), true
}
