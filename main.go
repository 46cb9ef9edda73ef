package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/wheelchair/logging"
	"github.com/milk9111/wheelchair/prefabs"
	"github.com/milk9111/wheelchair/script"
)

func main() {
	specFile := flag.String("config", prefabs.WheelchairFile, "wheelchair spec in prefabs/ (or an explicit path)")
	scenario := flag.String("script", "", "drive with a scripted scenario instead of the keyboard")
	debug := flag.Bool("debug", false, "enable debug mode")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	level := flag.String("log-level", "", "override the wheelchair file's log level")
	flag.Parse()

	if err := run(*specFile, *scenario, *level, *debug, *baseMonitor); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(specFile, scenario, level string, debug, baseMonitor bool) error {
	spec, err := prefabs.LoadWheelchairSpecFile(specFile)
	if err != nil {
		return err
	}
	if level == "" {
		level = spec.LogLevel
	}
	log, err := logging.New(logging.Config{Level: level, Format: "console"})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var sc *script.Scenario
	if scenario != "" {
		sc, err = script.Load(scenario, 1/float64(ebiten.DefaultTPS), log)
		if err != nil {
			return err
		}
	}

	if baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	w, h := ebiten.Monitor().Size()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(spec.Name)

	game, err := NewGame(GameOptions{
		SpecFile: specFile,
		Spec:     spec,
		Scenario: sc,
		Debug:    debug,
		Log:      log,
	})
	if err != nil {
		return err
	}
	defer game.Close()

	log.Info("starting", logging.String("spec", specFile), logging.String("script", scenario))
	return ebiten.RunGame(game)
}
