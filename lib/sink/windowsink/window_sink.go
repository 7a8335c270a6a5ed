// Package windowsink hosts the renderer in a desktop GLFW window.
package windowsink

import (
	"fmt"
	"log/slog"

	"github.com/fosdem/quadplayer/lib/config"
	"github.com/fosdem/quadplayer/lib/log"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type WindowSink struct {
	cfg    *config.WindowCfg
	Window *glfw.Window
	log    *slog.Logger
}

func New(cfg *config.WindowCfg) *WindowSink {
	return &WindowSink{
		cfg: cfg,
		log: log.Module("window"),
	}
}

// Start creates the window and makes its GL context current on the calling
// goroutine, which must be locked to its OS thread
func (w *WindowSink) Start() error {
	if w.Window != nil {
		return nil
	}
	w.log.Debug("initializing window", "title", w.cfg.Title, "width", w.cfg.Width, "height", w.cfg.Height)
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	window, err := glfw.CreateWindow(w.cfg.Width, w.cfg.Height, w.cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("could not create window: %w", err)
	}

	window.MakeContextCurrent()
	if w.cfg.VSyncEnabled() {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	w.Window = window
	return nil
}

// FramebufferSize is the drawable size in pixels, which differs from the
// window size on scaled displays
func (w *WindowSink) FramebufferSize() (int, int) {
	return w.Window.GetFramebufferSize()
}

// OnResize calls fn with the new framebuffer size from inside PollEvents
func (w *WindowSink) OnResize(fn func(width int, height int)) {
	w.Window.SetFramebufferSizeCallback(func(_ *glfw.Window, width int, height int) {
		w.log.Debug("framebuffer resized", "width", width, "height", height)
		fn(width, height)
	})
}

func (w *WindowSink) SwapBuffers() {
	w.Window.SwapBuffers()
}

func (w *WindowSink) ShouldClose() bool {
	return w.Window.ShouldClose()
}

func (w *WindowSink) Destroy() {
	if w.Window == nil {
		return
	}
	w.Window.Destroy()
	w.Window = nil
	glfw.Terminate()
}
