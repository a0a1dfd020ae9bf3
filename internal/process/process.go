package process

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/zachdedoo13/vidplayer/internal/logging"
)

// LineHandler receives stderr lines from the subprocess before they are
// logged. Implementations use it to extract progress reports.
type LineHandler func(line string)

// LogParser parses a stderr line and returns the log level and message.
// Used to map decoder-specific output formats onto slog levels.
type LogParser func(line string) (level, msg string)

// Decoder manages the lifecycle of one decoder subprocess.
type Decoder struct {
	name   string
	logger logging.Logger

	outputLogger logging.Logger // logger for subprocess stderr (nil = use logger)
	logParser    LogParser
	lineHandler  LineHandler

	gracefulTimeout time.Duration
	killTimeout     time.Duration

	mu         sync.Mutex
	cmd        *exec.Cmd
	stdout     io.ReadCloser
	done       chan error
	stderrDone chan struct{}
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithOutputLogger routes subprocess stderr to a dedicated logger, with the
// parser extracting levels from decoder-native output.
func WithOutputLogger(logger logging.Logger, parser LogParser) Option {
	return func(d *Decoder) {
		d.outputLogger = logger
		d.logParser = parser
	}
}

// WithLineHandler registers a callback receiving every raw stderr line.
func WithLineHandler(h LineHandler) Option {
	return func(d *Decoder) { d.lineHandler = h }
}

// WithStopTimeouts overrides the graceful and kill wait durations.
func WithStopTimeouts(graceful, kill time.Duration) Option {
	return func(d *Decoder) {
		d.gracefulTimeout = graceful
		d.killTimeout = kill
	}
}

// NewDecoder creates a decoder runner. name labels log output only.
func NewDecoder(name string, logger logging.Logger, opts ...Option) *Decoder {
	d := &Decoder{
		name:            name,
		logger:          logger,
		gracefulTimeout: 3 * time.Second,
		killTimeout:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the subprocess and returns its binary stdout stream.
// stderr is consumed on an internal goroutine until process exit.
func (d *Decoder) Start(bin string, args []string) (io.ReadCloser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cmd != nil {
		return nil, fmt.Errorf("decoder %s already running", d.name)
	}

	cmd := exec.Command(bin, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", bin, err)
	}

	d.logger.Debug("Decoder started", "name", d.name, "pid", cmd.Process.Pid, "bin", bin)

	stderrDone := make(chan struct{})
	go func() {
		d.streamStderr(stderr)
		close(stderrDone)
	}()

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	d.cmd = cmd
	d.stdout = stdout
	d.done = done
	d.stderrDone = stderrDone
	return stdout, nil
}

// Running reports whether a subprocess has been started and not yet
// stopped or reaped.
func (d *Decoder) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cmd != nil
}

// Done returns the wait channel of the current run, or nil when idle.
func (d *Decoder) Done() <-chan error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

// Stop terminates the subprocess: SIGINT, then SIGKILL after the graceful
// timeout. Blocks until the process is reaped or the kill timeout expires.
// Safe to call when idle.
func (d *Decoder) Stop() {
	d.mu.Lock()
	cmd, done, stderrDone := d.cmd, d.done, d.stderrDone
	d.cmd, d.stdout, d.done, d.stderrDone = nil, nil, nil, nil
	d.mu.Unlock()

	if cmd == nil {
		return
	}

	if cmd.Process != nil {
		if err := cmd.Process.Signal(syscall.SIGINT); err != nil && !errors.Is(err, os.ErrProcessDone) {
			d.logger.Warn("Failed to signal decoder", "name", d.name, "error", err)
		}
	}

	select {
	case err := <-done:
		d.logExit(err)
	case <-time.After(d.gracefulTimeout):
		d.logger.Warn("Decoder did not exit, killing", "name", d.name, "timeout", d.gracefulTimeout)
		if cmd.Process != nil {
			if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				d.logger.Error("Failed to kill decoder", "name", d.name, "error", err)
			}
		}
		select {
		case err := <-done:
			d.logExit(err)
		case <-time.After(d.killTimeout):
			d.logger.Error("Decoder did not exit after kill", "name", d.name)
			return
		}
	}

	<-stderrDone
}

func (d *Decoder) logExit(err error) {
	code := 0
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		code = exitErr.ExitCode()
	default:
		d.logger.Error("Decoder exited abnormally", "name", d.name, "error", err)
		return
	}
	d.logger.Debug("Decoder exited", "name", d.name, "exit_code", code)
}

// streamStderr forwards subprocess stderr into the logging system,
// level-mapped through the configured parser.
func (d *Decoder) streamStderr(r io.Reader) {
	logger := d.outputLogger
	if logger == nil {
		logger = d.logger
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		if d.lineHandler != nil {
			d.lineHandler(line)
		}

		level, msg := "info", line
		if d.logParser != nil {
			level, msg = d.logParser(line)
		}

		switch level {
		case "panic", "fatal", "error":
			logger.Error(msg)
		case "warning":
			logger.Warn(msg)
		case "verbose", "debug", "trace":
			logger.Debug(msg)
		default:
			logger.Info(msg)
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		d.logger.Warn("Error reading decoder stderr", "name", d.name, "error", err)
	}
}
