// Package renderer maps the host's surface lifecycle and refresh ticks onto
// a texture bridge.
package renderer

import (
	"log/slog"
	"sync/atomic"

	"github.com/fosdem/quadplayer/lib/bridge"
	"github.com/fosdem/quadplayer/lib/log"
	"github.com/fosdem/quadplayer/lib/stats"
)

// BridgeFactory builds a bridge on the GL goroutine
type BridgeFactory func() *bridge.Bridge

// Loop is driven by the host. Every On* method must be called from the
// goroutine owning the GL context; RequestReload may be called from anywhere.
type Loop struct {
	newBridge BridgeFactory
	bridge    *bridge.Bridge
	stats     *stats.Stats

	width  int
	height int

	reload atomic.Bool

	log *slog.Logger
}

func New(factory BridgeFactory, st *stats.Stats) *Loop {
	return &Loop{
		newBridge: factory,
		stats:     st,
		log:       log.Module("renderer"),
	}
}

// OnSurfaceCreated builds the bridge, replacing one left from a previous
// surface
func (l *Loop) OnSurfaceCreated() {
	if l.bridge != nil {
		l.bridge.Release()
	}
	l.bridge = l.newBridge()
	if l.width > 0 && l.height > 0 {
		l.bridge.Resize(l.width, l.height)
	}
}

func (l *Loop) OnSurfaceChanged(width int, height int) {
	l.width = width
	l.height = height
	if l.bridge != nil {
		l.bridge.Resize(width, height)
	}
}

// OnDrawFrame is the per refresh tick
func (l *Loop) OnDrawFrame() {
	if l.reload.CompareAndSwap(true, false) && l.bridge != nil {
		l.log.Info("reloading video")
		l.OnSurfaceCreated()
		if l.stats != nil {
			l.stats.CountReload()
		}
	}

	if l.bridge != nil {
		l.bridge.DrawFrame()
	}

	if l.stats != nil {
		l.stats.Update(l.bridge)
	}
}

func (l *Loop) OnSurfaceDestroyed() {
	if l.bridge == nil {
		return
	}
	l.bridge.Release()
	l.bridge = nil
}

// RequestReload makes the next tick tear down the bridge and build a fresh
// one, restarting decoding from the start of the file
func (l *Loop) RequestReload() {
	l.reload.Store(true)
}

func (l *Loop) Bridge() *bridge.Bridge {
	return l.bridge
}
