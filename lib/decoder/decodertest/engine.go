// Package decodertest provides a scriptable decode engine for tests.
package decodertest

import (
	"context"
	"sync"

	"github.com/fosdem/quadplayer/lib/decoder"
)

// Engine is a decoder.Engine that produces synthetic frames. Every frame's
// first byte holds the low byte of its sequence number.
type Engine struct {
	// OpenErr is returned by SetDataSource
	OpenErr error
	// StartErr is returned by Start
	StartErr error
	// Prepare makes PrepareAsync send Prepared straight away
	Prepare bool
	// Frames is the number of frames produced in the background after Start
	Frames int
	// Complete sends EndOfStream after the background frames
	Complete bool

	mu       sync.Mutex
	ctx      context.Context
	target   decoder.Target
	events   chan<- decoder.Event
	path     string
	seq      int
	wg       sync.WaitGroup
	started  int
	stopped  int
	released int
}

var _ decoder.Engine = (*Engine)(nil)

func (e *Engine) Name() string {
	return "fake"
}

func (e *Engine) SetDataSource(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.path = path
	return e.OpenErr
}

func (e *Engine) PrepareAsync(ctx context.Context, target decoder.Target, events chan<- decoder.Event) {
	e.mu.Lock()
	e.ctx = ctx
	e.target = target
	e.events = events
	e.mu.Unlock()

	if e.Prepare {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			decoder.Emit(ctx, events, decoder.Prepared{})
		}()
	}
}

func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started++
	if e.StartErr != nil {
		return e.StartErr
	}
	if e.Frames > 0 {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			if e.Produce(e.Frames) == nil && e.Complete {
				e.Signal(decoder.EndOfStream{})
			}
		}()
	}
	return nil
}

func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped++
	return nil
}

func (e *Engine) Release() {
	e.wg.Wait()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released++
}

// Produce writes n frames into the target, blocking on a full target
func (e *Engine) Produce(n int) error {
	e.mu.Lock()
	ctx, target := e.ctx, e.target
	e.mu.Unlock()

	for range n {
		frame, err := target.DequeueFrame(ctx)
		if err != nil {
			return err
		}
		e.mu.Lock()
		frame.Data[0] = byte(e.seq)
		e.seq++
		e.mu.Unlock()
		target.QueueFrame(frame)
	}
	return nil
}

// Signal sends an event to the session as the engine would
func (e *Engine) Signal(ev decoder.Event) bool {
	e.mu.Lock()
	ctx, events := e.ctx, e.events
	e.mu.Unlock()
	return decoder.Emit(ctx, events, ev)
}

func (e *Engine) Path() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.path
}

// Calls returns how often Start, Stop and Release were called
func (e *Engine) Calls() (started, stopped, released int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started, e.stopped, e.released
}
