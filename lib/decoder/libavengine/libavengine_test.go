package libavengine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/fosdem/quadplayer/lib/encdec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPixelFormat(t *testing.T) {
	assert.Equal(t, astiav.PixelFormatRgba, pixelFormat(encdec.RGBAFrames))
	assert.Equal(t, astiav.PixelFormatRgb24, pixelFormat(encdec.RGBFrames))
}

func TestSetDataSourceRejectsGarbage(t *testing.T) {
	e := New("", "")
	assert.Error(t, e.SetDataSource(filepath.Join(t.TempDir(), "missing.mkv")))

	junk := filepath.Join(t.TempDir(), "junk.mkv")
	assert.NoError(t, os.WriteFile(junk, []byte("definitely not a video"), 0o644))
	assert.Error(t, e.SetDataSource(junk))
	e.Release()
}

func TestUnknownInputFormat(t *testing.T) {
	e := New("", "no-such-format")
	assert.ErrorContains(t, e.SetDataSource("whatever"), "no-such-format")
}

func TestFillPadded(t *testing.T) {
	info := &encdec.FrameInfo{FrameCfg: encdec.FrameCfg{Width: 3, Height: 2}, FrameType: encdec.RGBAFrames}
	frame := (&encdec.DumbFrameAllocator{}).NewFrame(info)

	// 12 bytes of pixels per row, padded to 32
	raw := make([]byte, 64)
	for i := range 12 {
		raw[i] = byte(i + 1)
		raw[32+i] = byte(i + 101)
	}
	require.NoError(t, fillPadded(frame, raw))
	assert.Equal(t, raw[:12], frame.Data[:12])
	assert.Equal(t, raw[32:44], frame.Data[12:])

	// packed rows are copied as they are
	packed := make([]byte, 24)
	packed[23] = 0xff
	require.NoError(t, fillPadded(frame, packed))
	assert.Equal(t, packed, frame.Data)

	assert.Error(t, fillPadded(frame, make([]byte, 63)))
	assert.Error(t, fillPadded(frame, make([]byte, 16)))
}
