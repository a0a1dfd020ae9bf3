package player

import (
	"context"
	"sync"

	"github.com/zachdedoo13/vidplayer/internal/pipeline"
)

// command is one unit of work to run on the playback goroutine.
type command struct {
	fn    func(*Backend) error
	reply chan error
}

// Service serializes access to a Backend. The Backend itself is not safe
// for concurrent use: the playback loop owns it and calls Tick once per
// frame interval, while other goroutines (HTTP handlers, signal handlers)
// submit work through Call. Submitted commands run on the playback
// goroutine between frame updates, so callers never touch the Backend
// directly.
type Service struct {
	backend *Backend
	cmds    chan command

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewService wraps the given backend. The caller is responsible for
// driving Tick from a single goroutine and for calling Close when done.
func NewService(backend *Backend) *Service {
	return &Service{
		backend: backend,
		cmds:    make(chan command, 16),
		done:    make(chan struct{}),
	}
}

// Call runs fn on the playback goroutine and returns its result. It
// blocks until the next Tick drains the queue, the context is cancelled,
// or the service closes.
func (s *Service) Call(ctx context.Context, fn func(*Backend) error) error {
	cmd := command{fn: fn, reply: make(chan error, 1)}

	select {
	case s.cmds <- cmd:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tick drains all pending commands, then advances playback by one update.
// It must only be called from the goroutine that owns the backend.
func (s *Service) Tick() (pipeline.FrameUpdate, error) {
	for {
		select {
		case cmd := <-s.cmds:
			cmd.reply <- cmd.fn(s.backend)
		default:
			return s.backend.Update()
		}
	}
}

// Close tears down the backend and unblocks all pending and future Call
// invocations with ErrStopped. It must be called from the goroutine that
// owns the backend; subsequent calls return the first teardown error.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.backend.Quit()
	})
	return s.closeErr
}
