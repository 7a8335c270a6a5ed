package renderer

import (
	"context"
	"testing"
	"time"

	"github.com/fosdem/quadplayer/lib/bridge"
	"github.com/fosdem/quadplayer/lib/decoder"
	"github.com/fosdem/quadplayer/lib/decoder/decodertest"
	"github.com/fosdem/quadplayer/lib/encdec"
	"github.com/fosdem/quadplayer/lib/rendering/renderingtest"
	"github.com/fosdem/quadplayer/lib/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	gpu     *renderingtest.FakeGPU
	engines []*decodertest.Engine
	loop    *Loop
	stats   *stats.Stats
}

func newHarness() *harness {
	h := &harness{gpu: renderingtest.NewFakeGPU(), stats: stats.New()}
	h.loop = New(func() *bridge.Bridge {
		engine := &decodertest.Engine{Prepare: true}
		h.engines = append(h.engines, engine)
		return bridge.New(context.Background(), h.gpu, engine, &bridge.Config{
			Name:      "loop",
			VideoPath: "/videos/loop.mp4",
			Frames:    encdec.FrameCfg{Width: 2, Height: 2, NumAllocatedFrames: 4},
		})
	}, h.stats)
	return h
}

func (h *harness) waitPlaying(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.loop.Bridge().Session().State() == decoder.Playing
	}, time.Second, time.Millisecond)
}

func TestLifecycle(t *testing.T) {
	h := newHarness()

	h.loop.OnDrawFrame()
	assert.Equal(t, 0, h.gpu.DrawCount())

	h.loop.OnSurfaceChanged(640, 480)
	h.loop.OnSurfaceCreated()
	h.waitPlaying(t)
	assert.Equal(t, [][4]int32{{0, 0, 640, 480}}, h.gpu.Viewports)

	require.NoError(t, h.engines[0].Produce(3))
	h.loop.OnDrawFrame()
	h.loop.OnDrawFrame()
	assert.Equal(t, 2, h.gpu.DrawCount())
	assert.Equal(t, 3, h.gpu.UploadCount())

	snap := h.stats.Snapshot()
	assert.Equal(t, bridge.FrameCounters{Available: 3, Consumed: 3}, snap.Frames)
	assert.Equal(t, "playing", snap.Session.State)

	h.loop.OnSurfaceChanged(800, 600)
	assert.Equal(t, [4]int32{0, 0, 800, 600}, h.gpu.Viewports[len(h.gpu.Viewports)-1])

	h.loop.OnSurfaceDestroyed()
	assert.Nil(t, h.loop.Bridge())
	assert.Equal(t, 0, h.gpu.Live("texture"))
	assert.Empty(t, h.gpu.ViolationList())

	h.loop.OnDrawFrame()
	assert.Equal(t, 2, h.gpu.DrawCount())
	h.loop.OnSurfaceDestroyed()
}

func TestReload(t *testing.T) {
	h := newHarness()
	h.loop.OnSurfaceChanged(320, 240)
	h.loop.OnSurfaceCreated()
	h.waitPlaying(t)
	first := h.loop.Bridge()

	h.loop.RequestReload()
	h.loop.OnDrawFrame()

	require.Len(t, h.engines, 2)
	assert.NotSame(t, first, h.loop.Bridge())
	assert.Equal(t, decoder.Stopped, first.Session().State())
	_, _, released := h.engines[0].Calls()
	assert.Equal(t, 1, released)

	// the new bridge got the current viewport
	assert.Equal(t, [4]int32{0, 0, 320, 240}, h.gpu.Viewports[len(h.gpu.Viewports)-1])
	assert.Equal(t, uint64(1), h.stats.Snapshot().Reloads)
	assert.Equal(t, 1, h.gpu.Live("texture"))

	h.loop.OnSurfaceDestroyed()
	assert.Empty(t, h.gpu.ViolationList())
}
