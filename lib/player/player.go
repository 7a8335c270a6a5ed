// Package player hosts a texture bridge in a window and drives it until
// asked to stop.
package player

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/fosdem/quadplayer/lib/api"
	"github.com/fosdem/quadplayer/lib/bridge"
	"github.com/fosdem/quadplayer/lib/config"
	"github.com/fosdem/quadplayer/lib/decoder"
	"github.com/fosdem/quadplayer/lib/decoder/ffmpegengine"
	"github.com/fosdem/quadplayer/lib/decoder/gstengine"
	"github.com/fosdem/quadplayer/lib/decoder/libavengine"
	"github.com/fosdem/quadplayer/lib/encdec"
	"github.com/fosdem/quadplayer/lib/kbdctl"
	"github.com/fosdem/quadplayer/lib/log"
	"github.com/fosdem/quadplayer/lib/renderer"
	"github.com/fosdem/quadplayer/lib/rendering/glbackend"
	"github.com/fosdem/quadplayer/lib/sink/windowsink"
	"github.com/fosdem/quadplayer/lib/stats"
	"github.com/fosdem/quadplayer/lib/utils"
	"github.com/fosdem/quadplayer/lib/watch"
	"golang.org/x/sys/unix"
)

// slowFrame is logged when a single tick takes longer than this
const slowFrame = 250 * time.Millisecond

// EngineFactory returns a constructor for the configured decode engine. A
// fresh engine is needed for every bridge since engines are single use.
func EngineFactory(cfg *config.DecoderCfg) (func() decoder.Engine, error) {
	switch c := cfg.Cfg.(type) {
	case *config.GStreamerDecoderCfg:
		return func() decoder.Engine { return gstengine.New() }, nil
	case *config.FFmpegDecoderCfg:
		return func() decoder.Engine { return ffmpegengine.New(c.Binary) }, nil
	case *config.LibavDecoderCfg:
		return func() decoder.Engine { return libavengine.New(c.DecoderCodec, c.InputFormat) }, nil
	default:
		return nil, fmt.Errorf("unknown decoder type: %s", cfg.Type)
	}
}

// BridgeConfig maps the player config onto what a bridge needs
func BridgeConfig(cfg *config.Config) *bridge.Config {
	return &bridge.Config{
		Name:        "video",
		VideoPath:   cfg.Video.Path.String(),
		Frames:      cfg.Frames,
		FrameType:   encdec.RGBAFrames,
		ClearColour: utils.ColourParse(cfg.ClearColour),
	}
}

// MakeWindowAndPlay must be called from the main goroutine, locked to its
// OS thread. It returns once the window is closed, a shutdown is requested
// through the keyboard or the api, or the process is signalled.
func MakeWindowAndPlay(cfg *config.Config) error {
	l := log.Module("player")

	newEngine, err := EngineFactory(cfg.Decoder)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer cancel()

	var shutdownRequested atomic.Bool
	requestShutdown := func() {
		shutdownRequested.Store(true)
	}

	ws := windowsink.New(&cfg.Window)
	if err := ws.Start(); err != nil {
		return err
	}
	defer ws.Destroy()

	if err := glbackend.Init(); err != nil {
		return fmt.Errorf("could not initialise renderer: %w", err)
	}
	gpu := glbackend.New()

	st := stats.New()
	bridgeCfg := BridgeConfig(cfg)
	loop := renderer.New(func() *bridge.Bridge {
		return bridge.New(ctx, gpu, newEngine(), bridgeCfg)
	}, st)

	loop.OnSurfaceCreated()
	loop.OnSurfaceChanged(ws.FramebufferSize())
	ws.OnResize(loop.OnSurfaceChanged)
	defer loop.OnSurfaceDestroyed()

	kbdctl.SetupShortcutKeys(ws, kbdctl.Controls{
		Quit:   requestShutdown,
		Reload: loop.RequestReload,
	})

	if cfg.Video.ReloadOnChange {
		err := watch.OnChange(ctx, bridgeCfg.VideoPath, loop.RequestReload)
		if err != nil {
			l.Warn("not reloading on change", "error", err)
		}
	}

	if cfg.Api != nil {
		a := api.New(cfg.Api, st, requestShutdown)
		if err := a.ServeInBackground(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := a.Shutdown(shutdownCtx); err != nil {
				l.Warn("api did not shut down cleanly", "error", err)
			}
		}()
	}

	var deltaTimer utils.DeltaTimer
	for !shutdownRequested.Load() && ctx.Err() == nil {
		if dt := deltaTimer.Next(); dt > slowFrame {
			l.Debug("slow frame", "dt", dt)
		}

		loop.OnDrawFrame()
		ws.SwapBuffers()
		if ws.ShouldClose() {
			break
		}
		kbdctl.Poll()
	}

	l.Info("shutting down")
	return nil
}
