package gstengine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fosdem/quadplayer/lib/encdec"
	"github.com/stretchr/testify/assert"
)

func TestPipelineDescription(t *testing.T) {
	info := encdec.FrameInfo{
		FrameCfg:  encdec.FrameCfg{Width: 1280, Height: 720, NumAllocatedFrames: 3},
		FrameType: encdec.RGBAFrames,
	}
	desc := PipelineDescription(`/tmp/my "clip".mp4`, info)

	assert.Contains(t, desc, `filesrc location="/tmp/my \"clip\".mp4"`)
	assert.Contains(t, desc, "video/x-raw,format=RGBA,width=1280,height=720")
	assert.Contains(t, desc, "appsink name=sink")
}

func TestSetDataSource(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "clip.mp4")
	assert.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	e := New()
	assert.NoError(t, e.SetDataSource(file))
	assert.Error(t, e.SetDataSource(filepath.Join(dir, "missing.mp4")))
	assert.Error(t, e.SetDataSource(dir))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, CategoryResource, Classify("Resource not found.", "gstfilesrc.c(532): No such file"))
	assert.Equal(t, CategoryCodec, Classify("Internal data stream error.", "not-negotiated"))
	assert.Equal(t, CategoryUnknown, Classify("something odd", ""))
	assert.Equal(t, "codec", CategoryCodec.String())
}
