package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/busline/logging"
	"github.com/milk9111/busline/prefabs"
)

func main() {
	simName := flag.String("sim", "sim", "simulation file in prefabs/ (basename, .yaml optional)")
	levelName := flag.String("level", "", "override the sim file's level (basename in levels/, .json optional)")
	debug := flag.Bool("debug", false, "draw sensor probes and node names")
	watch := flag.Bool("watch", true, "hot reload prefabs, scripts and levels from disk")
	logLevel := flag.String("log", "", "log level (trace, debug, info, warn, error); defaults to the sim file's")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	flag.Parse()

	cfg, err := prefabs.LoadSimSpec(*simName)
	if err != nil {
		log.Fatal(err)
	}
	if *levelName != "" {
		cfg.Level = *levelName
	}
	if *logLevel == "" {
		*logLevel = cfg.LogLevel
	}
	logger := logging.NewLogger(*logLevel, os.Stderr)

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("busline")
	ebiten.SetTPS(cfg.TickRate)

	game, err := NewGame(cfg, logger, *debug, *watch)
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
