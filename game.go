package main

import (
	"path/filepath"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/wheelchair/common"
	"github.com/milk9111/wheelchair/logging"
	"github.com/milk9111/wheelchair/prefabs"
	"github.com/milk9111/wheelchair/script"
	"github.com/milk9111/wheelchair/sim"
	"golang.design/x/clipboard"
)

type Game struct {
	frames int
	debug  bool
	paused bool
	quit   bool

	log      logging.Log
	sim      *sim.Simulation
	keyboard *keyboard
	scenario *script.Scenario
	pauseUI  *ebitenui.UI

	watcher  *prefabs.Watcher
	reloader *prefabs.Reloader

	clipboardOK bool
	status      string
	statusTTL   int
}

type GameOptions struct {
	SpecFile string
	Spec     prefabs.WheelchairSpec
	Scenario *script.Scenario
	Debug    bool
	Log      logging.Log
}

func NewGame(opts GameOptions) (*Game, error) {
	log := logging.OrNop(opts.Log)
	bindings, err := opts.Spec.KeyBindings()
	if err != nil {
		return nil, err
	}
	kb, err := newKeyboard(bindings, 1/float64(ebiten.TPS()))
	if err != nil {
		return nil, err
	}

	g := &Game{debug: opts.Debug, log: log, keyboard: kb, scenario: opts.Scenario}

	simOpts := sim.Options{
		Spec:   opts.Spec,
		Source: kb,
		Dt:     kb.dt,
		Cursor: ebitenCursor{},
		Log:    log,
	}
	if opts.Scenario != nil {
		simOpts.Source = opts.Scenario
	}
	g.sim, err = sim.New(simOpts)
	if err != nil {
		return nil, err
	}
	if opts.Scenario != nil {
		opts.Scenario.SetState(g.sim.State)
	}

	g.pauseUI = NewPauseUI(g)
	g.clipboardOK = clipboard.Init() == nil
	if !g.clipboardOK {
		log.Warn("clipboard unavailable, F2 disabled")
	}
	g.watch(opts.SpecFile)
	return g, nil
}

func (g *Game) watch(specFile string) {
	path := prefabs.Path(specFile)
	w, err := prefabs.NewWatcher(filepath.Dir(path))
	if err != nil {
		g.log.Debug("hot reload off", logging.String("file", path), logging.Error(err))
		return
	}
	initial, _ := prefabs.Load(specFile)
	g.watcher = w
	g.reloader = prefabs.NewReloader(specFile, initial)
	g.log.Info("watching spec", logging.String("file", path))
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

func (g *Game) Update() error {
	if g.quit {
		return ebiten.Termination
	}
	g.frames++
	if g.statusTTL > 0 {
		g.statusTTL--
	}
	g.pollReload()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.setPaused(!g.paused)
	}
	if g.paused {
		g.pauseUI.Update()
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		g.copySnapshot()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		g.debug = !g.debug
	}

	g.sim.Step()
	return nil
}

func (g *Game) setPaused(paused bool) {
	g.paused = paused
	if paused {
		ebitenCursor{}.SetLocked(false)
		return
	}
	g.keyboard.reset()
	ebitenCursor{}.SetLocked(true)
}

func (g *Game) recenter() {
	g.sim.Look().Recenter()
	g.setPaused(false)
}

func (g *Game) pollReload() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case name, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			if !g.reloader.Matches(name) {
				continue
			}
			g.reload()
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				return
			}
			g.log.Warn("watcher error", logging.Error(err))
		default:
			return
		}
	}
}

func (g *Game) reload() {
	spec, changed, err := g.reloader.Reload()
	if err != nil {
		g.log.Warn("spec reload failed", logging.Error(err))
		g.flash("reload failed: " + err.Error())
		return
	}
	if !changed {
		return
	}
	bindings, err := spec.KeyBindings()
	if err == nil {
		err = g.keyboard.bind(bindings)
	}
	if err == nil {
		err = g.sim.ApplySpec(spec)
	}
	if err != nil {
		g.log.Warn("spec rejected", logging.Error(err))
		g.flash("reload rejected: " + err.Error())
		return
	}
	g.flash("spec reloaded")
}

func (g *Game) copySnapshot() {
	if !g.clipboardOK {
		return
	}
	data, err := g.sim.Snapshot().JSON()
	if err != nil {
		g.log.Warn("encode snapshot", logging.Error(err))
		return
	}
	clipboard.Write(clipboard.FmtText, data)
	g.flash("snapshot copied")
}

func (g *Game) flash(msg string) {
	g.status = msg
	g.statusTTL = 2 * ebiten.TPS()
}

func (g *Game) Draw(screen *ebiten.Image) {
	drawWorld(screen, g.sim)
	drawHUD(screen, g)
	if g.paused {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return common.BaseWidth, common.BaseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
