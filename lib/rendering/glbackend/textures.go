package glbackend

import (
	"github.com/fosdem/quadplayer/lib/encdec"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

func pixelFormat(t encdec.FrameType) (int32, uint32) {
	switch t {
	case encdec.RGBAFrames:
		return gl.RGBA, gl.RGBA
	case encdec.RGBFrames:
		return gl.RGB, gl.RGB
	default:
		panic("Unknown pixel format")
	}
}

func (g *GL) GenTexture(info *encdec.FrameInfo) uint32 {
	internal, packing := pixelFormat(info.FrameType)

	var id uint32
	gl.GenTextures(1, &id)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	borderColor := mgl32.Vec4{0, 0, 0, 0}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &borderColor[0])
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)

	// rows are tightly packed, RGB rows are not 4-byte aligned
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	// the texture stays black until the first frame is latched
	buf := make([]uint8, info.CalcBufSize())
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		internal,
		int32(info.Width),
		int32(info.Height),
		0,
		packing,
		gl.UNSIGNED_BYTE,
		gl.Ptr(&buf[0]),
	)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	HandleOpenGLError("gen texture")
	return id
}

func (g *GL) UploadFrame(texture uint32, frame *encdec.Frame) {
	_, packing := pixelFormat(frame.Type)

	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexSubImage2D(
		gl.TEXTURE_2D,
		0, 0, 0,
		int32(frame.Width), int32(frame.Height),
		packing, gl.UNSIGNED_BYTE, gl.Ptr(frame.Data),
	)
}

func (g *GL) ActiveTexture(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
}

func (g *GL) BindTexture(texture uint32) {
	gl.BindTexture(gl.TEXTURE_2D, texture)
}

func (g *GL) DeleteTexture(texture uint32) {
	gl.DeleteTextures(1, &texture)
}
