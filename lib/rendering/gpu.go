package rendering

import (
	"sync/atomic"

	"github.com/fosdem/quadplayer/lib/encdec"
	"github.com/fosdem/quadplayer/lib/utils"
)

type ShaderStage int

const (
	VertexStage ShaderStage = iota
	FragmentStage
)

func (s ShaderStage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	default:
		return "unknown"
	}
}

// GPU is the slice of OpenGL the player needs. All methods must be called
// from the goroutine that owns the GL context.
type GPU interface {
	CreateShader(stage ShaderStage) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	// ShaderCompileStatus returns whether the last compile succeeded and
	// the shader info log
	ShaderCompileStatus(shader uint32) (bool, string)
	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program uint32, shader uint32)
	LinkProgram(program uint32)
	ProgramLinkStatus(program uint32) (bool, string)
	UseProgram(program uint32)
	DeleteProgram(program uint32)
	AttribLocation(program uint32, name string) int32
	UniformLocation(program uint32, name string) int32
	Uniform1i(location int32, value int32)

	GenVertexArray() uint32
	BindVertexArray(vao uint32)
	DeleteVertexArray(vao uint32)

	// GenBuffer creates an array buffer and fills it with static data
	GenBuffer(data []float32) uint32
	DeleteBuffer(buffer uint32)
	// VertexAttrib enables the attribute at location and sources it from
	// buffer with size floats per vertex
	VertexAttrib(location uint32, buffer uint32, size int32)

	// GenTexture creates a texture with storage for frames described by info
	GenTexture(info *encdec.FrameInfo) uint32
	// UploadFrame replaces the whole content of texture with frame
	UploadFrame(texture uint32, frame *encdec.Frame)
	ActiveTexture(unit uint32)
	BindTexture(texture uint32)
	DeleteTexture(texture uint32)

	Viewport(x, y, width, height int32)
	ClearColor(c utils.Colour)
	Clear()
	DrawTriangleStrip(first int32, count int32)
}

var textureUploadCounter atomic.Uint64

// CountUpload accounts for bytes sent to the GPU by frame latches
func CountUpload(n int) {
	textureUploadCounter.Add(uint64(n))
}

func TextureUploadCounter() uint64 {
	return textureUploadCounter.Load()
}
