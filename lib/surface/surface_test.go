package surface

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fosdem/quadplayer/lib/encdec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingListener struct {
	s       *Surface
	n       atomic.Int64
	pending []int
	mu      sync.Mutex
}

func (l *countingListener) NotifyFrameAvailable() {
	l.n.Add(1)
	if l.s != nil {
		l.mu.Lock()
		l.pending = append(l.pending, l.s.Pending())
		l.mu.Unlock()
	}
}

func newTestSurface(t *testing.T, frames int, listener FrameAvailableListener) *Surface {
	t.Helper()
	info := &encdec.FrameInfo{
		FrameCfg:  encdec.FrameCfg{Width: 4, Height: 2, NumAllocatedFrames: frames},
		FrameType: encdec.RGBAFrames,
	}
	return New("test", info, &encdec.DumbFrameAllocator{}, 7, listener)
}

func produce(t *testing.T, s *Surface, n int) {
	t.Helper()
	for range n {
		f, err := s.DequeueFrame(context.Background())
		require.NoError(t, err)
		s.QueueFrame(f)
	}
}

func TestLatchIsFIFO(t *testing.T) {
	l := &countingListener{}
	s := newTestSurface(t, 4, l)

	produce(t, s, 3)
	assert.Equal(t, int64(3), l.n.Load())
	assert.Equal(t, 3, s.Pending())

	for want := uint64(1); want <= 3; want++ {
		f := s.Latch()
		require.NotNil(t, f)
		assert.Equal(t, want, f.ID)
		assert.Same(t, f, s.Current())
	}
	assert.Nil(t, s.Latch())
	assert.Equal(t, uint64(3), s.Current().ID)
}

func TestListenerSeesQueuedFrame(t *testing.T) {
	l := &countingListener{}
	s := newTestSurface(t, 3, l)
	l.s = s

	produce(t, s, 2)
	assert.Equal(t, []int{1, 2}, l.pending)
}

func TestLatchRecyclesPreviousFrame(t *testing.T) {
	s := newTestSurface(t, 2, nil)

	produce(t, s, 1)
	assert.Equal(t, 1, s.FreeFrames())
	s.Latch()
	assert.Equal(t, 1, s.FreeFrames())

	produce(t, s, 1)
	assert.Equal(t, 0, s.FreeFrames())
	s.Latch()
	// the first frame went back to the bin, the second is current
	assert.Equal(t, 1, s.FreeFrames())
}

func TestDequeueBlocksUntilLatch(t *testing.T) {
	s := newTestSurface(t, 2, nil)
	produce(t, s, 2)

	got := make(chan *encdec.Frame)
	go func() {
		f, err := s.DequeueFrame(context.Background())
		assert.NoError(t, err)
		got <- f
	}()

	select {
	case <-got:
		t.Fatal("dequeue returned with every frame queued")
	case <-time.After(50 * time.Millisecond):
	}

	// first latch only moves a frame to current, the second recycles it
	s.Latch()
	s.Latch()

	select {
	case f := <-got:
		assert.NotNil(t, f)
	case <-time.After(time.Second):
		t.Fatal("dequeue did not unblock")
	}
}

func TestDequeueHonoursContext(t *testing.T) {
	s := newTestSurface(t, 2, nil)
	produce(t, s, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.DequeueFrame(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReleaseUnblocksProducer(t *testing.T) {
	s := newTestSurface(t, 2, nil)
	produce(t, s, 2)

	errs := make(chan error)
	go func() {
		_, err := s.DequeueFrame(context.Background())
		errs <- err
	}()

	time.Sleep(10 * time.Millisecond)
	s.Release()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrReleased)
	case <-time.After(time.Second):
		t.Fatal("release did not unblock the producer")
	}
	assert.Equal(t, 0, s.Pending())
}

func TestQueueAfterReleaseIsDropped(t *testing.T) {
	l := &countingListener{}
	s := newTestSurface(t, 2, l)

	f, err := s.DequeueFrame(context.Background())
	require.NoError(t, err)
	s.Release()
	s.QueueFrame(f)

	assert.Equal(t, int64(0), l.n.Load())
	assert.Equal(t, 0, s.Pending())
	assert.Nil(t, s.Latch())
}

func TestCancelFrame(t *testing.T) {
	l := &countingListener{}
	s := newTestSurface(t, 2, l)

	f, err := s.DequeueFrame(context.Background())
	require.NoError(t, err)
	s.CancelFrame(f)

	assert.Equal(t, 2, s.FreeFrames())
	assert.Equal(t, uint64(1), s.CancelledFrames)
	assert.Equal(t, int64(0), l.n.Load())
}

func TestRecyclingTooManyFramesPanics(t *testing.T) {
	s := newTestSurface(t, 2, nil)
	assert.Panics(t, func() {
		s.CancelFrame(&encdec.Frame{})
	})
}
