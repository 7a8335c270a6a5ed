package encdec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumbFrameAllocator(t *testing.T) {
	alloc := &DumbFrameAllocator{}
	info := &FrameInfo{FrameCfg: FrameCfg{Width: 4, Height: 2}, FrameType: RGBAFrames}

	a := alloc.NewFrame(info)
	b := alloc.NewFrame(info)

	assert.Len(t, a.Data, 4*2*4)
	assert.NotSame(t, &a.Data[0], &b.Data[0])
	assert.Equal(t, 16, a.Stride())
}

func TestFrameFillStrided(t *testing.T) {
	alloc := &DumbFrameAllocator{}
	f := alloc.NewFrame(&FrameInfo{FrameCfg: FrameCfg{Width: 1, Height: 2}, FrameType: RGBFrames})

	// rows padded to 4 bytes
	buf := []byte{1, 2, 3, 0, 4, 5, 6, 0}
	require.NoError(t, f.FillStrided(buf, 4))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, f.Data)

	assert.Error(t, f.FillStrided(buf[:5], 4))
	assert.Error(t, f.Fill([]byte{1}))
}

func TestFrameCfgValidate(t *testing.T) {
	assert.NoError(t, (&FrameCfg{Width: 1, Height: 1, NumAllocatedFrames: 2}).Validate())
	assert.Error(t, (&FrameCfg{Width: 1, Height: 1, NumAllocatedFrames: 1}).Validate())
	assert.Error(t, (&FrameCfg{Width: 0, Height: 1, NumAllocatedFrames: 3}).Validate())
	assert.Error(t, (&FrameCfg{Width: 1, Height: 0, NumAllocatedFrames: 3}).Validate())
}
