package glbackend

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Init loads the GL entry points. A context must be current.
func Init() error {
	err := gl.Init()
	if err != nil {
		return fmt.Errorf("could not initialise OpenGL context: %w", err)
	}

	slog.Info("OpenGL initialised",
		"module", "gl",
		"vendor", gl.GoStr(gl.GetString(gl.VENDOR)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
	)

	return nil
}

func HandleOpenGLError(what string) {
	glerr := gl.GetError()
	if glerr == gl.NO_ERROR {
		return
	}
	slog.Error("OpenGL error", "module", "gl", "op", what, "code", glerr)
}
