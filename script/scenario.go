// Package script drives a chair from a tengo scenario. A scenario defines
//
//	drive := func(t, state) { return {forward: 1, turn: 0, look_x: 0, look_y: 0, hold: [], done: false} }
//
// which is called once per frame with the elapsed time and the chair's state.
package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/wheelchair/input"
	"github.com/milk9111/wheelchair/logging"
	"github.com/milk9111/wheelchair/prefabs"
)

var (
	ErrNoDriveFunc = errors.New("script: scenario does not define drive")
	ErrBadResult   = errors.New("script: drive returned an unexpected value")
)

const dispatch = `
__out := undefined
if __run {
	__out = drive(__t, __state)
}
`

// StateFunc reports the chair state handed to drive. Values must be tengo
// convertible: numbers, strings, bools and maps or slices of them.
type StateFunc func() map[string]any

type Scenario struct {
	name     string
	compiled *tengo.Compiled
	dt       float64
	state    StateFunc
	tracker  *input.Tracker
	log      logging.Log

	elapsed float64
	done    bool
	err     error
}

// Compile builds a scenario from source. dt is the fixed step NextFrame reports.
func Compile(name string, src []byte, dt float64, log logging.Log) (*Scenario, error) {
	s := tengo.NewScript(append(append([]byte(nil), src...), dispatch...))
	_ = s.Add("__run", false)
	_ = s.Add("__t", 0.0)
	_ = s.Add("__state", map[string]any{})
	s.SetImports(stdlib.GetModuleMap("math", "text", "fmt"))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	// the first run only evaluates the top level so drive can be inspected
	if err := compiled.Run(); err != nil {
		return nil, fmt.Errorf("script: init %s: %w", name, err)
	}
	if fn := compiled.Get("drive").Object(); fn == nil || !fn.CanCall() {
		return nil, fmt.Errorf("%w: %s", ErrNoDriveFunc, name)
	}
	if err := compiled.Set("__run", true); err != nil {
		return nil, err
	}

	return &Scenario{
		name:     name,
		compiled: compiled,
		dt:       dt,
		tracker:  input.NewTracker(),
		log:      logging.OrNop(log).Named("script").With(logging.String("scenario", name)),
	}, nil
}

// Load compiles a scenario from the prefab scripts.
func Load(name string, dt float64, log logging.Log) (*Scenario, error) {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("script: load %s: %w", name, err)
	}
	return Compile(name, src, dt, log)
}

// Clone returns an independent copy restarted at t=0, for running the same scenario
// on another goroutine.
func (s *Scenario) Clone() *Scenario {
	return &Scenario{
		name:     s.name,
		compiled: s.compiled.Clone(),
		dt:       s.dt,
		state:    s.state,
		tracker:  input.NewTracker(),
		log:      s.log,
	}
}

func (s *Scenario) Name() string {
	return s.name
}

func (s *Scenario) SetState(fn StateFunc) {
	s.state = fn
}

// Done reports whether drive asked to stop or failed.
func (s *Scenario) Done() bool {
	return s.done
}

func (s *Scenario) Err() error {
	return s.err
}

func (s *Scenario) Elapsed() float64 {
	return s.elapsed
}

// NextFrame runs drive for the current time and advances the clock by dt. After the
// scenario finishes every frame is idle.
func (s *Scenario) NextFrame() input.Frame {
	if s.done {
		return input.Frame{Dt: s.dt}
	}

	out, err := s.call()
	if err != nil {
		s.err = err
		s.done = true
		s.log.Error("scenario stopped", logging.Float64("t", s.elapsed), logging.Error(err))
		return input.Frame{Dt: s.dt}
	}

	held := input.KeySet(0)
	for _, name := range out.hold {
		k, err := input.ParseKey(name)
		if err != nil {
			s.log.Warn("unknown key in hold", logging.String("key", name))
			continue
		}
		held = held.With(k)
	}

	frame := s.tracker.Frame(s.dt, held, out.forward, out.turn, out.lookX, out.lookY)
	s.elapsed += s.dt
	if out.done {
		s.done = true
		s.log.Debug("scenario finished", logging.Float64("t", s.elapsed))
	}
	return frame
}

type result struct {
	forward, turn float64
	lookX, lookY  float64
	hold          []string
	done          bool
}

func (s *Scenario) call() (result, error) {
	state := map[string]any{}
	if s.state != nil {
		state = s.state()
	}
	if err := s.compiled.Set("__t", s.elapsed); err != nil {
		return result{}, err
	}
	if err := s.compiled.Set("__state", state); err != nil {
		return result{}, err
	}
	if err := s.compiled.Run(); err != nil {
		return result{}, fmt.Errorf("script: run %s: %w", s.name, err)
	}
	return decode(s.compiled.Get("__out").Object())
}

func decode(obj tengo.Object) (result, error) {
	var values map[string]tengo.Object
	switch v := obj.(type) {
	case *tengo.Map:
		values = v.Value
	case *tengo.ImmutableMap:
		values = v.Value
	case *tengo.Undefined, nil:
		return result{}, nil
	default:
		return result{}, fmt.Errorf("%w: %s", ErrBadResult, obj.TypeName())
	}

	var r result
	var err error
	for key, val := range values {
		switch key {
		case "forward":
			r.forward, err = number(key, val)
		case "turn":
			r.turn, err = number(key, val)
		case "look_x":
			r.lookX, err = number(key, val)
		case "look_y":
			r.lookY, err = number(key, val)
		case "hold":
			r.hold, err = names(val)
		case "done":
			r.done = !val.IsFalsy()
		}
		if err != nil {
			return result{}, err
		}
	}
	return r, nil
}

func number(key string, obj tengo.Object) (float64, error) {
	switch v := obj.(type) {
	case *tengo.Float:
		return v.Value, nil
	case *tengo.Int:
		return float64(v.Value), nil
	case *tengo.Undefined:
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %s is %s, want a number", ErrBadResult, key, obj.TypeName())
	}
}

func names(obj tengo.Object) ([]string, error) {
	var items []tengo.Object
	switch v := obj.(type) {
	case *tengo.Array:
		items = v.Value
	case *tengo.ImmutableArray:
		items = v.Value
	case *tengo.String:
		return []string{v.Value}, nil
	case *tengo.Undefined:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: hold is %s, want an array", ErrBadResult, obj.TypeName())
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if str, ok := item.(*tengo.String); ok {
			out = append(out, strings.TrimSpace(str.Value))
		}
	}
	return out, nil
}
