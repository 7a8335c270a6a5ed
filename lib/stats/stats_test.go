package stats

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/fosdem/quadplayer/lib/bridge"
	"github.com/fosdem/quadplayer/lib/decoder/decodertest"
	"github.com/fosdem/quadplayer/lib/encdec"
	"github.com/fosdem/quadplayer/lib/rendering/renderingtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateWithoutBridge(t *testing.T) {
	s := New()
	s.Update(nil)
	s.SetWsClients(3)
	s.CountReload()

	snap := s.Snapshot()
	assert.False(t, snap.RenderingEnabled)
	assert.Nil(t, snap.Session)
	assert.Equal(t, 3, snap.WsClients)
	assert.Equal(t, uint64(1), snap.Reloads)
}

func TestUpdateFromBridge(t *testing.T) {
	gpu := renderingtest.NewFakeGPU()
	b := bridge.New(context.Background(), gpu, &decodertest.Engine{}, &bridge.Config{
		Name:      "stats",
		VideoPath: "/videos/a.mp4",
		Frames:    encdec.FrameCfg{Width: 2, Height: 2, NumAllocatedFrames: 2},
	})
	defer b.Release()

	b.NotifyFrameAvailable()
	s := New()
	s.Update(b)

	snap := s.Snapshot()
	assert.True(t, snap.RenderingEnabled)
	assert.Equal(t, bridge.FrameCounters{Available: 1}, snap.Frames)
	assert.Equal(t, uint64(1), snap.PendingFrames)
	require.NotNil(t, snap.Session)
	assert.Equal(t, "fake", snap.Session.Engine)
	assert.Equal(t, "preparing", snap.Session.State)
	assert.Equal(t, "/videos/a.mp4", snap.Session.Path)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"frames":{"available":1,"consumed":0}`)
}
