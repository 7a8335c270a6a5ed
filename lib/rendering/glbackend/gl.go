package glbackend

import (
	"strings"

	"github.com/fosdem/quadplayer/lib/rendering"
	"github.com/fosdem/quadplayer/lib/utils"
	"github.com/go-gl/gl/v4.1-core/gl"
)

const f32 = 4

// GL implements rendering.GPU on top of a desktop OpenGL 4.1 core context
type GL struct{}

var _ rendering.GPU = (*GL)(nil)

func New() *GL {
	return &GL{}
}

func (g *GL) CreateShader(stage rendering.ShaderStage) uint32 {
	switch stage {
	case rendering.VertexStage:
		return gl.CreateShader(gl.VERTEX_SHADER)
	case rendering.FragmentStage:
		return gl.CreateShader(gl.FRAGMENT_SHADER)
	default:
		return 0
	}
}

func (g *GL) ShaderSource(shader uint32, source string) {
	csources, free := gl.Strs(source)
	size := int32(len(source))
	gl.ShaderSource(shader, 1, csources, &size)
	free()
}

func (g *GL) CompileShader(shader uint32) {
	gl.CompileShader(shader)
}

func (g *GL) ShaderCompileStatus(shader uint32) (bool, string) {
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}

	var logLength int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

	clog := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(clog))
	return false, strings.TrimRight(clog, "\x00")
}

func (g *GL) DeleteShader(shader uint32) {
	gl.DeleteShader(shader)
}

func (g *GL) CreateProgram() uint32 {
	return gl.CreateProgram()
}

func (g *GL) AttachShader(program uint32, shader uint32) {
	gl.AttachShader(program, shader)
}

func (g *GL) LinkProgram(program uint32) {
	gl.LinkProgram(program)
}

func (g *GL) ProgramLinkStatus(program uint32) (bool, string) {
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}

	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

	logmsg := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logmsg))
	return false, strings.TrimRight(logmsg, "\x00")
}

func (g *GL) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (g *GL) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

func (g *GL) AttribLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}

func (g *GL) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (g *GL) Uniform1i(location int32, value int32) {
	gl.Uniform1i(location, value)
}

func (g *GL) GenVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (g *GL) BindVertexArray(vao uint32) {
	gl.BindVertexArray(vao)
}

func (g *GL) DeleteVertexArray(vao uint32) {
	gl.DeleteVertexArrays(1, &vao)
}

func (g *GL) GenBuffer(data []float32) uint32 {
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*f32, gl.Ptr(data), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return vbo
}

func (g *GL) DeleteBuffer(buffer uint32) {
	gl.DeleteBuffers(1, &buffer)
}

func (g *GL) VertexAttrib(location uint32, buffer uint32, size int32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
	gl.EnableVertexAttribArray(location)
	gl.VertexAttribPointerWithOffset(location, size, gl.FLOAT, false, size*f32, 0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (g *GL) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (g *GL) ClearColor(c utils.Colour) {
	gl.ClearColor(c.R, c.G, c.B, c.A)
}

func (g *GL) Clear() {
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (g *GL) DrawTriangleStrip(first int32, count int32) {
	gl.DrawArrays(gl.TRIANGLE_STRIP, first, count)
}
