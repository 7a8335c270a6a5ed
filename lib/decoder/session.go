// Package decoder drives a decode engine through its playback lifecycle
// and writes the decoded frames into a Target.
package decoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fosdem/quadplayer/lib/log"
	"github.com/fosdem/quadplayer/lib/metrics"
	"github.com/google/uuid"
)

var ErrAlreadyStarted = errors.New("session already started")

// Session owns one engine and one data source for its whole life:
//
//	Idle -> Preparing -> Playing -> Completed
//	any  -> Failed (asynchronous error, no retry)
//	any  -> Stopped (Release, unless Failed)
//
// Engine events are applied by a single goroutine started in Start.
type Session struct {
	id     uuid.UUID
	name   string
	path   string
	engine Engine
	target Target

	mu          sync.Mutex
	state       State
	err         error
	subscribers []chan State
	released    bool

	events  chan Event
	cancel  context.CancelFunc
	done    chan struct{}
	release sync.Once

	metrics metrics.SessionMetrics
	log     *slog.Logger
}

func NewSession(engine Engine, path string, target Target) *Session {
	id := uuid.New()
	name := filepath.Base(path)
	s := &Session{
		id:      id,
		name:    name,
		path:    path,
		engine:  engine,
		target:  target,
		state:   Idle,
		events:  make(chan Event, 8),
		metrics: metrics.NewSessionMetrics(name, engine.Name()),
		log:     log.Module("decoder").With("session", id.String(), "engine", engine.Name()),
	}
	s.metrics.State.Set(float64(Idle))
	return s
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) Name() string {
	return s.name
}

func (s *Session) Path() string {
	return s.path
}

func (s *Session) EngineName() string {
	return s.engine.Name()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that moved the session to Failed, if any
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// StateChanges returns a channel receiving every state the session moves
// to. Slow readers miss updates. The channel is closed on Release.
func (s *Session) StateChanges() <-chan State {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan State, 8)
	if s.released {
		close(ch)
		return ch
	}
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Start opens the data source and asks the engine to prepare. A source that
// cannot be opened fails the session right away and is returned as a
// *DataSourceOpenError.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.setState(Preparing)
	s.mu.Unlock()

	s.log.Info("opening data source", "path", s.path)
	if err := s.engine.SetDataSource(s.path); err != nil {
		openErr := &DataSourceOpenError{Path: s.path, Err: err}
		s.log.Error("could not open data source", "path", s.path, "error", err)
		s.fail(openErr)
		return openErr
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.engine.PrepareAsync(ctx, s.target, s.events)
	go s.run(ctx)
	return nil
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

func (s *Session) handle(ev Event) {
	switch ev := ev.(type) {
	case Prepared:
		if s.State() != Preparing {
			s.log.Warn("ignoring prepared signal", "state", s.State())
			return
		}
		s.log.Info("prepared, starting playback")
		if err := s.engine.Start(); err != nil {
			s.handle(Error{Code: -1, Err: fmt.Errorf("could not start engine: %w", err)})
			return
		}
		s.transition(Preparing, Playing)

	case Error:
		s.metrics.Errors.Inc()
		err := &DecodeRuntimeError{Code: ev.Code, Subcode: ev.Subcode, Err: ev.Err}
		s.log.Error("decoder reported an error", "code", ev.Code, "subcode", ev.Subcode, "error", ev.Err)
		// the engine is left as it is, playback may simply stall
		s.fail(err)

	case EndOfStream:
		s.log.Info("playback completed")
		s.transition(Playing, Completed)

	default:
		s.log.Warn("unknown decoder event", "event", fmt.Sprintf("%T", ev))
	}
}

// Release stops the engine and frees it. It is safe to call more than once
// and from any goroutine; only the first call does anything.
func (s *Session) Release() {
	s.release.Do(func() {
		s.mu.Lock()
		cancel, done := s.cancel, s.done
		s.mu.Unlock()

		if cancel != nil {
			cancel()
			<-done
		}

		if err := s.engine.Stop(); err != nil {
			s.log.Warn("could not stop engine", "error", err)
		}
		s.engine.Release()

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state != Failed {
			s.setState(Stopped)
		}
		s.released = true
		for _, ch := range s.subscribers {
			close(ch)
		}
		s.subscribers = nil
		s.log.Info("session released", "state", s.state)
	})
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Stopped {
		return
	}
	s.err = err
	s.setState(Failed)
}

func (s *Session) transition(from State, to State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return
	}
	s.setState(to)
}

// must hold s.mu
func (s *Session) setState(state State) {
	if s.state == state {
		return
	}
	s.log.Debug("state change", "from", s.state, "to", state)
	s.state = state
	s.metrics.State.Set(float64(state))
	for _, ch := range s.subscribers {
		select {
		case ch <- state:
		default:
		}
	}
}
