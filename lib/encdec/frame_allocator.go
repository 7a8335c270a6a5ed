package encdec

import (
	"fmt"
)

type FrameCfg struct {
	Width              int
	Height             int
	NumAllocatedFrames int `yaml:"num_allocated_frames"`
}

type FrameInfo struct {
	FrameCfg
	FrameType FrameType
}

func (i *FrameInfo) CalcBufSize() int {
	return i.Width * i.Height * i.FrameType.BytesPerPixel()
}

type FrameAllocator interface {
	NewFrame(info *FrameInfo) *Frame
}

type DumbFrameAllocator struct{}

func (d *DumbFrameAllocator) NewFrame(info *FrameInfo) *Frame {
	f := &Frame{
		Data:   make([]byte, info.CalcBufSize()),
		Width:  info.Width,
		Height: info.Height,
		Type:   info.FrameType,
	}

	return f
}

// Validate checks the frame geometry. A decode surface needs one frame
// held by the texture and at least one the decoder can write into.
func (f *FrameCfg) Validate() error {
	if f.NumAllocatedFrames < 2 {
		return fmt.Errorf("number of allocated frames must be at least 2")
	}
	if f.Width < 1 {
		return fmt.Errorf("width must be at least 1")
	}
	if f.Height < 1 {
		return fmt.Errorf("height must be at least 1")
	}
	return nil
}
