package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/milk9111/wheelchair/logging"
	"github.com/milk9111/wheelchair/prefabs"
	"github.com/milk9111/wheelchair/script"
	"github.com/milk9111/wheelchair/sim"
	"github.com/milk9111/wheelchair/telemetry"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 3 * time.Second

type Config struct {
	SpecFile  string
	Script    string
	Frames    int
	Dt        float64
	Telemetry string
	Batch     int
	Workers   int
	Realtime  bool
	Hold      bool
	Watch     bool
	LogLevel  string
	LogFormat string
}

func ProvideSpec(cfg Config) (prefabs.WheelchairSpec, error) {
	return prefabs.LoadWheelchairSpecFile(cfg.SpecFile)
}

func ProvideLogger(cfg Config, spec prefabs.WheelchairSpec) (*logging.Logger, func(), error) {
	level := cfg.LogLevel
	if level == "" {
		level = spec.LogLevel
	}
	log, err := logging.New(logging.Config{Level: level, Format: cfg.LogFormat})
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}

// ProvideScenario returns nil when no script was asked for.
func ProvideScenario(cfg Config, log logging.Log) (*script.Scenario, error) {
	if cfg.Script == "" {
		return nil, nil
	}
	return script.Load(cfg.Script, cfg.Dt, log)
}

type App struct {
	cfg      Config
	spec     prefabs.WheelchairSpec
	scenario *script.Scenario
	hub      *telemetry.Hub
	log      logging.Log
	out      io.Writer
}

func NewApp(cfg Config, spec prefabs.WheelchairSpec, scenario *script.Scenario, hub *telemetry.Hub, log logging.Log) *App {
	return &App{cfg: cfg, spec: spec, scenario: scenario, hub: hub, log: log, out: os.Stdout}
}

func (a *App) Run(ctx context.Context) error {
	if a.cfg.Batch > 0 {
		return a.runBatch(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	addr := a.cfg.Telemetry
	var pub *telemetry.Hub
	if addr != "" {
		pub = a.hub
		a.serve(ctx, g, addr)
	}

	opts := sim.Options{Spec: a.spec, Dt: a.cfg.Dt, Log: a.log}
	if pub != nil {
		opts.Publisher = pub
	}
	if a.scenario != nil {
		opts.Source = a.scenario
	}
	s, err := sim.New(opts)
	if err != nil {
		return err
	}
	if a.scenario != nil {
		a.scenario.SetState(s.State)
	}

	reload := make(chan prefabs.WheelchairSpec, 1)
	if a.cfg.Watch {
		if err := a.watch(ctx, g, reload); err != nil {
			return err
		}
	}

	g.Go(func() error {
		err := a.loop(ctx, s, reload)
		if err == nil {
			err = a.report(s)
		}
		if err != nil || !a.cfg.Hold || addr == "" {
			cancel()
		}
		return err
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) loop(ctx context.Context, s *sim.Simulation, reload <-chan prefabs.WheelchairSpec) error {
	var tick <-chan time.Time
	if a.cfg.Realtime {
		ticker := time.NewTicker(time.Duration(s.Dt() * float64(time.Second)))
		defer ticker.Stop()
		tick = ticker.C
	}

	for n := 0; a.cfg.Frames <= 0 || n < a.cfg.Frames; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case spec := <-reload:
			if err := s.ApplySpec(spec); err != nil {
				a.log.Warn("reload rejected", logging.Error(err))
			}
		default:
		}
		if a.scenario != nil && a.scenario.Done() {
			break
		}
		s.Step()
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
	}
	if a.scenario != nil {
		return a.scenario.Err()
	}
	return nil
}

func (a *App) report(s *sim.Simulation) error {
	data, err := s.Snapshot().JSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(data))
	return err
}

func (a *App) serve(ctx context.Context, g *errgroup.Group, addr string) {
	srv := &http.Server{Addr: addr, Handler: a.hub.Handler()}
	g.Go(func() error {
		a.log.Info("serving telemetry", logging.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("telemetry server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func (a *App) watch(ctx context.Context, g *errgroup.Group, reload chan prefabs.WheelchairSpec) error {
	path := prefabs.Path(a.cfg.SpecFile)
	w, err := prefabs.NewWatcher(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	initial, _ := prefabs.Load(a.cfg.SpecFile)
	r := prefabs.NewReloader(a.cfg.SpecFile, initial)

	g.Go(func() error {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return nil
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				a.log.Warn("watcher error", logging.Error(err))
			case name, ok := <-w.Events:
				if !ok {
					return nil
				}
				if !r.Matches(name) {
					continue
				}
				spec, changed, err := r.Reload()
				if err != nil {
					a.log.Warn("spec reload failed", logging.String("file", name), logging.Error(err))
					continue
				}
				if !changed {
					continue
				}
				// keep only the newest spec
				select {
				case <-reload:
				default:
				}
				reload <- spec
			}
		}
	})
	return nil
}

func (a *App) runBatch(ctx context.Context) error {
	jobs := make([]sim.Job, a.cfg.Batch)
	for i := range jobs {
		jobs[i] = sim.Job{Spec: a.spec, Scenario: a.scenario, Frames: a.cfg.Frames, Dt: a.cfg.Dt}
	}
	results, err := sim.RunBatch(ctx, jobs, a.cfg.Workers, a.log)
	if err != nil {
		return err
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("job %d: %w", r.Index, r.Err))
			continue
		}
		data, err := r.Final.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, string(data))
	}
	return errors.Join(errs...)
}
