// Package surface implements the buffer queue a decoder renders into and
// the texture bridge latches out of.
package surface

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/fosdem/quadplayer/lib/encdec"
	"github.com/fosdem/quadplayer/lib/log"
)

var ErrReleased = errors.New("surface released")

// FrameAvailableListener is told once for every queued frame. It is called
// from the producer's goroutine, with no surface lock held.
type FrameAvailableListener interface {
	NotifyFrameAvailable()
}

// Surface is a fixed pool of frames moving through three places: the free
// bin, the FIFO of queued frames waiting to be latched, and the single
// current frame whose pixels are in the texture.
//
// A producer calls DequeueFrame, fills the frame and hands it back with
// QueueFrame (or CancelFrame if decoding failed). The consumer calls Latch
// once per notification. Unlike a latest-frame forwarder no queued frame is
// ever dropped; when every frame is queued or current the producer blocks
// until the consumer catches up.
type Surface struct {
	encdec.FrameInfo

	Name      string
	TextureID uint32

	mu       sync.Mutex
	cond     *sync.Cond
	bin      []*encdec.Frame
	queue    []*encdec.Frame
	current  *encdec.Frame
	released bool

	listener    FrameAvailableListener
	lastFrameID uint64

	CancelledFrames uint64

	log *slog.Logger
}

func New(name string, info *encdec.FrameInfo, alloc encdec.FrameAllocator, textureID uint32, listener FrameAvailableListener) *Surface {
	s := &Surface{
		FrameInfo: *info,
		Name:      name,
		TextureID: textureID,
		listener:  listener,
		log:       log.Module("surface").With("name", name),
	}
	s.cond = sync.NewCond(&s.mu)
	s.bin = make([]*encdec.Frame, info.NumAllocatedFrames)
	for i := range info.NumAllocatedFrames {
		s.bin[i] = alloc.NewFrame(&s.FrameInfo)
	}
	return s
}

// DequeueFrame takes a free frame for writing into, blocking until one is
// available, the context is done or the surface is released.
// Every dequeued frame must be handed back with exactly one of QueueFrame or
// CancelFrame.
func (s *Surface) DequeueFrame(ctx context.Context) (*encdec.Frame, error) {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.cond.Broadcast()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.bin) == 0 && !s.released && ctx.Err() == nil {
		s.cond.Wait()
	}
	if s.released {
		return nil, ErrReleased
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame := s.bin[len(s.bin)-1]
	s.bin = s.bin[:len(s.bin)-1]
	return frame, nil
}

// QueueFrame appends a written frame to the FIFO and notifies the listener.
// The frame is in the queue before the listener hears about it.
func (s *Surface) QueueFrame(frame *encdec.Frame) {
	s.mu.Lock()
	if s.released {
		s.recycle(frame)
		s.mu.Unlock()
		return
	}
	s.lastFrameID += 1
	frame.ID = s.lastFrameID
	s.queue = append(s.queue, frame)
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.NotifyFrameAvailable()
	}
}

// CancelFrame returns a dequeued frame to the pool without queueing it
func (s *Surface) CancelFrame(frame *encdec.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CancelledFrames += 1
	s.recycle(frame)
}

// Latch makes the oldest queued frame current and returns it so its pixels
// can be copied into the texture. The previously current frame goes back to
// the pool. Returns nil when nothing is queued.
// The returned frame stays untouched by producers until the next Latch.
func (s *Surface) Latch() *encdec.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil
	}

	frame := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]

	if s.current != nil {
		s.recycle(s.current)
	}
	s.current = frame
	return frame
}

// Info describes the frames a producer must write
func (s *Surface) Info() encdec.FrameInfo {
	return s.FrameInfo
}

// Current returns the frame last latched, or nil
func (s *Surface) Current() *encdec.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Pending returns the number of queued frames waiting for a latch
func (s *Surface) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Surface) FreeFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bin)
}

// Release wakes any blocked producer and refuses further frames.
// Queued frames are discarded.
func (s *Surface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return
	}
	s.released = true
	if n := len(s.queue); n > 0 {
		s.log.Debug("discarding queued frames", "count", n)
	}
	s.bin = append(s.bin, s.queue...)
	s.queue = nil
	s.cond.Broadcast()
}

// must hold s.mu
func (s *Surface) recycle(frame *encdec.Frame) {
	if len(s.bin) >= s.NumAllocatedFrames {
		panic("more frames returned than extracted??")
	}
	s.bin = append(s.bin, frame)
	s.cond.Broadcast()
}
