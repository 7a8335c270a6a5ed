package main

import (
	"log"
	"os"
	"runtime"

	"github.com/fosdem/quadplayer/lib/config"
	qlog "github.com/fosdem/quadplayer/lib/log"
	"github.com/fosdem/quadplayer/lib/player"
)

func init() {
	// The OpenGL stuff must be in one thread
	runtime.LockOSThread()
}

// @title			quadplayer API
// @version		1.0
// @description	Status and control API of the quadplayer video renderer
// @BasePath		/
func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <config file>", os.Args[0])
	}
	cfg, err := config.Parse(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}

	level, _ := qlog.ParseLevel(cfg.LogLevel)
	qlog.Setup(level)

	if err := player.MakeWindowAndPlay(cfg); err != nil {
		log.Fatal(err)
	}
}
