package encdec

import (
	"fmt"
)

type FrameType int

const (
	RGBAFrames FrameType = iota
	RGBFrames
)

// Frame is one decoded picture sitting in a decode surface slot.
type Frame struct {
	Data   []byte
	Width  int
	Height int
	Type   FrameType

	// ID is assigned by the surface when the frame is queued, so it is
	// monotonic in decode order.
	ID uint64
}

func (f FrameType) BytesPerPixel() int {
	switch f {
	case RGBAFrames:
		return 4
	case RGBFrames:
		return 3
	default:
		panic("unknown frame type")
	}
}

func (f FrameType) String() string {
	switch f {
	case RGBAFrames:
		return "RGBA"
	case RGBFrames:
		return "RGB"
	default:
		panic("unknown frame type")
	}
}

func (f *Frame) Stride() int {
	return f.Width * f.Type.BytesPerPixel()
}

// Fill copies a tightly packed picture into the frame buffer.
func (f *Frame) Fill(buf []byte) error {
	if len(buf) != len(f.Data) {
		return fmt.Errorf("expected buffer of size %d but got %d", len(f.Data), len(buf))
	}
	copy(f.Data, buf)
	return nil
}

// FillStrided copies a picture whose rows are padded to stride bytes.
func (f *Frame) FillStrided(buf []byte, stride int) error {
	rowLen := f.Stride()
	if stride == rowLen {
		return f.Fill(buf[:min(len(buf), len(f.Data))])
	}
	if stride < rowLen || len(buf) < stride*(f.Height-1)+rowLen {
		return fmt.Errorf("buffer of size %d with stride %d does not hold a %dx%d %s picture", len(buf), stride, f.Width, f.Height, f.Type)
	}
	for y := range f.Height {
		copy(f.Data[y*rowLen:(y+1)*rowLen], buf[y*stride:y*stride+rowLen])
	}
	return nil
}
