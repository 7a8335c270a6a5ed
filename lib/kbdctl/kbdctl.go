package kbdctl

import (
	"log/slog"

	"github.com/fosdem/quadplayer/lib/log"
	"github.com/fosdem/quadplayer/lib/sink/windowsink"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type Controls struct {
	Quit   func()
	Reload func()
}

func SetupShortcutKeys(ws *windowsink.WindowSink, c Controls) {
	ws.Window.SetKeyCallback(keyCallback(c, log.Module("kbdctl")))
}

func Poll() {
	glfw.PollEvents()
}

// ctrl+shift+Q quits, R restarts the video from the beginning
func keyCallback(c Controls, l *slog.Logger) glfw.KeyCallback {
	return func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Release {
			if key == glfw.KeyQ &&
				mods&glfw.ModControl != 0 &&
				mods&glfw.ModShift != 0 {
				l.Info("told to quit, exiting")
				if c.Quit != nil {
					c.Quit()
				}
			}
		}
		if action == glfw.Press && key == glfw.KeyR && mods == 0 {
			l.Info("reload requested")
			if c.Reload != nil {
				c.Reload()
			}
		}
	}
}
