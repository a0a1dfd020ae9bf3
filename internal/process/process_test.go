package process

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zachdedoo13/vidplayer/internal/logging"
)

func testLogger() logging.Logger {
	return logging.GetLogger("process-test")
}

func TestStartReadsStdout(t *testing.T) {
	d := NewDecoder("echo", testLogger())

	out, err := d.Start("echo", []string{"hello"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	data, err := io.ReadAll(out)
	if err != nil {
		t.Fatalf("reading stdout: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "hello" {
		t.Errorf("expected stdout 'hello', got %q", got)
	}
}

func TestDoubleStartFails(t *testing.T) {
	d := NewDecoder("sleeper", testLogger())

	if _, err := d.Start("sleep", []string{"5"}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	if _, err := d.Start("sleep", []string{"5"}); err == nil {
		t.Error("expected error starting running decoder")
	}
}

func TestStopIdleIsNoop(t *testing.T) {
	d := NewDecoder("idle", testLogger())
	d.Stop() // must not panic or block
	if d.Running() {
		t.Error("idle decoder reported running")
	}
}

func TestStopTerminatesProcess(t *testing.T) {
	d := NewDecoder("sleeper", testLogger(),
		WithStopTimeouts(500*time.Millisecond, time.Second))

	if _, err := d.Start("sleep", []string{"30"}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	start := time.Now()
	d.Stop()
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Stop took too long: %v", elapsed)
	}
	if d.Running() {
		t.Error("decoder still reports running after Stop")
	}
}

func TestDoneSignalsExit(t *testing.T) {
	d := NewDecoder("quick", testLogger())

	out, err := d.Start("true", nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	_, _ = io.Copy(io.Discard, out)

	select {
	case <-d.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Done channel never signalled")
	}
	d.Stop()
}

func TestLineHandlerReceivesStderr(t *testing.T) {
	var mu sync.Mutex
	var lines []string

	d := NewDecoder("stderr", testLogger(),
		WithLineHandler(func(line string) {
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
		}))

	out, err := d.Start("sh", []string{"-c", "echo one >&2; echo two >&2"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	_, _ = io.Copy(io.Discard, out)

	select {
	case <-d.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process never exited")
	}
	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Errorf("unexpected stderr lines: %v", lines)
	}
}

func TestStartRejectsMissingBinary(t *testing.T) {
	d := NewDecoder("missing", testLogger())
	if _, err := d.Start("/nonexistent/binary", nil); err == nil {
		t.Error("expected error for missing binary")
	}
	if d.Running() {
		t.Error("decoder reports running after failed start")
	}
}
