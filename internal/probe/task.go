package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrTaskFailed marks a task that died without producing a discovery
// result. It is distinct from a discovery error: the discoverer never got
// to report one.
var ErrTaskFailed = errors.New("probe task failed")

// Task is the handle to one in-flight discovery. A task completes exactly
// once; after that Finished reports true forever and Join returns the same
// result on every call.
type Task struct {
	uri  string
	done chan struct{}

	mu        sync.Mutex
	probe     *Probe
	err       error
	abandoned bool
}

// Run launches discovery of uri on its own goroutine and returns the task
// handle. A panicking discoverer is converted into ErrTaskFailed instead of
// crashing the process.
func Run(uri string, discover Discoverer) *Task {
	t := &Task{uri: uri, done: make(chan struct{})}

	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				t.mu.Lock()
				t.probe, t.err = nil, fmt.Errorf("%w: %v", ErrTaskFailed, r)
				t.mu.Unlock()
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), DiscoverTimeout)
		defer cancel()

		probe, err := discover(ctx, uri)
		t.mu.Lock()
		t.probe, t.err = probe, err
		t.mu.Unlock()
	}()

	return t
}

// URI reports the location this task is discovering.
func (t *Task) URI() string { return t.uri }

// Finished reports whether the task has completed, without blocking.
func (t *Task) Finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Join blocks until completion and returns the discovery result.
func (t *Task) Join() (*Probe, error) {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.probe, t.err
}

// TryJoin returns the result if the task has completed, or ok=false.
func (t *Task) TryJoin() (probe *Probe, err error, ok bool) {
	if !t.Finished() {
		return nil, nil, false
	}
	probe, err = t.Join()
	return probe, err, true
}

// Abandon detaches the caller from the task. The discovery goroutine runs
// to completion on its own and the result is discarded.
func (t *Task) Abandon() {
	t.mu.Lock()
	t.abandoned = true
	t.mu.Unlock()
}

// Abandoned reports whether the result has been given up on.
func (t *Task) Abandoned() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.abandoned
}

// JoinContext is Join with a caller-supplied cancellation bound.
func (t *Task) JoinContext(ctx context.Context) (*Probe, error) {
	select {
	case <-t.done:
		return t.Join()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
