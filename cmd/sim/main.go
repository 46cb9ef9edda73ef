// Command sim runs the wheelchair headless: idle or driven by a scenario script,
// optionally streaming telemetry over a websocket.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/milk9111/wheelchair/prefabs"
	"github.com/milk9111/wheelchair/sim"
)

func main() {
	var cfg Config
	flag.StringVar(&cfg.SpecFile, "config", prefabs.WheelchairFile, "chair spec, looked up in prefabs/ unless given as a path")
	flag.StringVar(&cfg.Script, "script", "", "scenario script name or path (empty runs idle)")
	flag.IntVar(&cfg.Frames, "frames", 600, "maximum ticks to run, 0 for no limit")
	flag.Float64Var(&cfg.Dt, "dt", sim.DefaultDt, "seconds per tick")
	flag.StringVar(&cfg.Telemetry, "telemetry", "", "address to serve telemetry on, e.g. 127.0.0.1:8787")
	flag.IntVar(&cfg.Batch, "batch", 0, "run this many copies of the scenario in parallel and report each")
	flag.IntVar(&cfg.Workers, "workers", 4, "batch pool size")
	flag.BoolVar(&cfg.Realtime, "realtime", false, "pace ticks to wall-clock time")
	flag.BoolVar(&cfg.Hold, "hold", false, "keep serving telemetry after the run until interrupted")
	flag.BoolVar(&cfg.Watch, "watch", false, "reapply the wheelchair file when it changes")
	flag.StringVar(&cfg.LogLevel, "log-level", "", "debug, info, warn or error (defaults to the wheelchair file's)")
	flag.StringVar(&cfg.LogFormat, "log-format", "json", "json or console")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := InitializeApp(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sim:", err)
		os.Exit(1)
	}
	err = app.Run(ctx)
	cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "sim:", err)
		os.Exit(1)
	}
}
