// Package bridge moves decoded frames from a decode surface into a GPU
// texture and draws that texture as a full screen quad.
package bridge

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fosdem/quadplayer/lib/decoder"
	"github.com/fosdem/quadplayer/lib/encdec"
	"github.com/fosdem/quadplayer/lib/log"
	"github.com/fosdem/quadplayer/lib/metrics"
	"github.com/fosdem/quadplayer/lib/rendering"
	"github.com/fosdem/quadplayer/lib/rendering/shaders"
	"github.com/fosdem/quadplayer/lib/surface"
	"github.com/fosdem/quadplayer/lib/utils"
)

const (
	textureUnit = 0
	attribSize  = 2
)

type Config struct {
	Name        string
	VideoPath   string
	Frames      encdec.FrameCfg
	FrameType   encdec.FrameType
	ClearColour utils.Colour
	// Shader defaults to shaders.DefaultShaderData
	Shader *shaders.ShaderData
}

// FrameCounters tracks frames announced by the decoder against frames
// latched into the texture. Consumed never exceeds Available.
type FrameCounters struct {
	Available uint64 `json:"available"`
	Consumed  uint64 `json:"consumed"`
}

func (c FrameCounters) Pending() uint64 {
	return c.Available - c.Consumed
}

// Bridge owns the GPU program, texture and buffers of the player along
// with the decode session writing into the texture.
//
// NotifyFrameAvailable may be called from any goroutine. Every other
// method touches GPU state and belongs on the goroutine owning the GL
// context.
type Bridge struct {
	name        string
	gpu         rendering.GPU
	geometry    Geometry
	clearColour utils.Colour

	program     shaders.Program
	vao         uint32
	positionBuf uint32
	texCoordBuf uint32
	texture     uint32

	surface *surface.Surface
	session *decoder.Session

	// mu guards counters, across notify and the whole drain loop
	mu       sync.Mutex
	counters FrameCounters

	// gpuMu serialises draws against resource deletion
	gpuMu    sync.Mutex
	released bool
	release  sync.Once

	metrics metrics.StreamMetrics
	log     *slog.Logger
}

// New sets up the GPU resources and starts decoding cfg.VideoPath with
// engine. Failures are logged: a broken program disables drawing, a
// source that cannot be opened leaves the session Failed.
func New(ctx context.Context, gpu rendering.GPU, engine decoder.Engine, cfg *Config) *Bridge {
	name := cfg.Name
	if name == "" {
		name = "video"
	}

	b := &Bridge{
		name:        name,
		gpu:         gpu,
		geometry:    QuadGeometry(),
		clearColour: cfg.ClearColour,
		metrics:     metrics.NewStreamMetrics(name),
		log:         log.Module("bridge").With("name", name),
	}

	shaderData := cfg.Shader
	if shaderData == nil {
		shaderData = shaders.DefaultShaderData()
	}
	program, err := shaders.BuildProgram(gpu, shaderData)
	if err != nil {
		b.log.Error("could not build program, rendering disabled", "error", err)
	}
	b.program = program

	b.vao = gpu.GenVertexArray()
	b.positionBuf = gpu.GenBuffer(b.geometry.PositionData())
	b.texCoordBuf = gpu.GenBuffer(b.geometry.TexCoordData())

	info := &encdec.FrameInfo{
		FrameCfg:  cfg.Frames,
		FrameType: cfg.FrameType,
	}
	b.texture = gpu.GenTexture(info)

	b.surface = surface.New(name, info, &encdec.DumbFrameAllocator{}, b.texture, b)
	b.session = decoder.NewSession(engine, cfg.VideoPath, b.surface)
	if err := b.session.Start(ctx); err != nil {
		b.log.Error("could not start decoder session", "error", err)
	}

	return b
}

func (b *Bridge) Name() string {
	return b.name
}

// Enabled reports whether the program linked and frames are drawn
func (b *Bridge) Enabled() bool {
	return b.program.Valid()
}

func (b *Bridge) Session() *decoder.Session {
	return b.session
}

func (b *Bridge) Surface() *surface.Surface {
	return b.surface
}

func (b *Bridge) Counters() FrameCounters {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counters
}

// NotifyFrameAvailable records that the decode surface queued a frame.
// It never touches the GPU.
func (b *Bridge) NotifyFrameAvailable() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.counters.Available += 1
	b.metrics.FramesAvailable.Inc()
}

// DrawFrame latches every pending frame into the texture, in decode order,
// then draws the quad with the latest one. With nothing pending the last
// latched frame is drawn again. Does nothing once released.
func (b *Bridge) DrawFrame() {
	b.gpuMu.Lock()
	defer b.gpuMu.Unlock()

	if b.released {
		return
	}

	if n := b.drain(); n > 1 {
		b.log.Debug("latched backlog", "frames", n)
	}

	b.gpu.ClearColor(b.clearColour)
	b.gpu.Clear()

	if !b.program.Valid() {
		return
	}

	b.gpu.UseProgram(b.program.ID)
	b.gpu.ActiveTexture(textureUnit)
	b.gpu.BindTexture(b.texture)
	b.gpu.Uniform1i(b.program.TextureUniform, textureUnit)

	b.gpu.BindVertexArray(b.vao)
	b.gpu.VertexAttrib(uint32(b.program.PositionAttrib), b.positionBuf, attribSize)
	b.gpu.VertexAttrib(uint32(b.program.CoordinateAttrib), b.texCoordBuf, attribSize)

	b.gpu.DrawTriangleStrip(0, b.geometry.VertexCount())
	b.metrics.Draws.Inc()

	b.gpu.BindVertexArray(0)
	b.gpu.BindTexture(0)
}

// must hold gpuMu
func (b *Bridge) drain() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for b.counters.Consumed != b.counters.Available {
		frame := b.surface.Latch()
		if frame == nil {
			// count it anyway, the loop has to end
			b.log.Warn("frame announced but none queued", "available", b.counters.Available, "consumed", b.counters.Consumed)
			b.metrics.FramesMissing.Inc()
		} else {
			b.gpu.UploadFrame(b.texture, frame)
			rendering.CountUpload(len(frame.Data))
			b.metrics.FramesLatched.Inc()
		}
		b.counters.Consumed += 1
		n++
	}
	return n
}

// Resize updates the viewport
func (b *Bridge) Resize(width int, height int) {
	b.gpuMu.Lock()
	defer b.gpuMu.Unlock()

	if b.released {
		return
	}
	b.gpu.Viewport(0, 0, int32(width), int32(height))
}

// Release stops the decode session, then frees the GPU resources once no
// draw is in flight. Later calls do nothing.
func (b *Bridge) Release() {
	b.release.Do(func() {
		b.session.Release()

		b.gpuMu.Lock()
		defer b.gpuMu.Unlock()
		b.released = true
		// only after any draw in flight has drained its pending frames
		b.surface.Release()

		if b.program.Valid() {
			b.gpu.DeleteProgram(b.program.ID)
		}
		b.gpu.DeleteBuffer(b.positionBuf)
		b.gpu.DeleteBuffer(b.texCoordBuf)
		b.gpu.DeleteVertexArray(b.vao)
		b.gpu.DeleteTexture(b.texture)

		c := b.Counters()
		b.log.Info("released", "available", c.Available, "consumed", c.Consumed)
	})
}
