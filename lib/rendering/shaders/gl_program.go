package shaders

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/fosdem/quadplayer/lib/rendering"
)

type CompileError struct {
	Stage rendering.ShaderStage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile %s shader: %s", e.Stage, e.Log)
}

type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("failed to link program: %s", e.Log)
}

// Program is a linked quad program and the locations the draw needs.
// The zero Program is invalid.
type Program struct {
	ID               uint32
	PositionAttrib   int32
	CoordinateAttrib int32
	TextureUniform   int32
}

func (p Program) Valid() bool {
	return p.ID != 0
}

// BuildProgram renders the embedded quad shaders with data and builds them.
func BuildProgram(gpu rendering.GPU, data *ShaderData) (Program, error) {
	shaderer, err := NewShaderer()
	if err != nil {
		return Program{}, fmt.Errorf("could not get shaders: %w", err)
	}

	vertexShader, err := shaderer.GetShaderSource(VertexShaderName, data)
	if err != nil {
		return Program{}, fmt.Errorf("could not get vertex shader: %w", err)
	}

	fragmentShader, err := shaderer.GetShaderSource(FragmentShaderName, data)
	if err != nil {
		return Program{}, fmt.Errorf("could not get fragment shader: %w", err)
	}

	return BuildProgramFromSource(gpu, vertexShader, fragmentShader, data)
}

// BuildProgramFromSource compiles and links the given sources and looks up
// the attribute and uniform names from data. On any failure the returned
// Program is invalid; callers should disable rendering rather than retry.
func BuildProgramFromSource(gpu rendering.GPU, vertexSource, fragmentSource string, data *ShaderData) (Program, error) {
	vertexShader, vertErr := Compile(gpu, rendering.VertexStage, vertexSource)
	fragmentShader, fragErr := Compile(gpu, rendering.FragmentStage, fragmentSource)
	if err := errors.Join(vertErr, fragErr); err != nil {
		if vertexShader != 0 {
			gpu.DeleteShader(vertexShader)
		}
		if fragmentShader != 0 {
			gpu.DeleteShader(fragmentShader)
		}
		return Program{}, err
	}

	id, err := Link(gpu, vertexShader, fragmentShader)
	if err != nil {
		return Program{}, err
	}

	p := Program{
		ID:               id,
		PositionAttrib:   gpu.AttribLocation(id, data.PositionAttrib),
		CoordinateAttrib: gpu.AttribLocation(id, data.CoordinateAttrib),
		TextureUniform:   gpu.UniformLocation(id, data.TextureUniform),
	}
	if p.PositionAttrib < 0 || p.CoordinateAttrib < 0 {
		gpu.DeleteProgram(id)
		return Program{}, fmt.Errorf("program does not expose attributes %s and %s", data.PositionAttrib, data.CoordinateAttrib)
	}
	return p, nil
}

// Compile compiles a single stage. On failure the diagnostic is logged and
// 0 is returned together with a *CompileError.
func Compile(gpu rendering.GPU, stage rendering.ShaderStage, source string) (uint32, error) {
	shader := gpu.CreateShader(stage)
	if shader == 0 {
		err := &CompileError{Stage: stage, Log: "could not create shader object"}
		slog.Error("shader compilation failed", "module", "shaders", "stage", stage, "error", err.Log)
		return 0, err
	}

	gpu.ShaderSource(shader, source)
	gpu.CompileShader(shader)

	ok, infoLog := gpu.ShaderCompileStatus(shader)
	if !ok {
		gpu.DeleteShader(shader)
		slog.Error("shader compilation failed", "module", "shaders", "stage", stage, "error", infoLog)
		return 0, &CompileError{Stage: stage, Log: infoLog}
	}

	return shader, nil
}

// Link attaches both stages and links them. The shader objects are deleted
// either way. On failure the program is deleted, the diagnostic is logged
// and 0 is returned together with a *LinkError.
func Link(gpu rendering.GPU, vertexShader uint32, fragmentShader uint32) (uint32, error) {
	program := gpu.CreateProgram()

	gpu.AttachShader(program, vertexShader)
	gpu.AttachShader(program, fragmentShader)
	gpu.LinkProgram(program)

	ok, infoLog := gpu.ProgramLinkStatus(program)

	gpu.DeleteShader(vertexShader)
	gpu.DeleteShader(fragmentShader)

	if !ok {
		gpu.DeleteProgram(program)
		slog.Error("program link failed", "module", "shaders", "error", infoLog)
		return 0, &LinkError{Log: infoLog}
	}

	return program, nil
}
