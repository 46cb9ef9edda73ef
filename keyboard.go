package main

import (
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/wheelchair/input"
)

const stickDeadzone = 0.2

// keyboard samples ebiten once per tick into an input.Frame.
type keyboard struct {
	bindings map[input.Key][]ebiten.Key
	tracker  *input.Tracker
	dt       float64

	cursorX, cursorY int
	haveCursor       bool
}

func newKeyboard(bindings map[input.Key][]string, dt float64) (*keyboard, error) {
	k := &keyboard{tracker: input.NewTracker(), dt: dt}
	if err := k.bind(bindings); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *keyboard) bind(bindings map[input.Key][]string) error {
	out := make(map[input.Key][]ebiten.Key, len(bindings))
	for logical, names := range bindings {
		for _, name := range names {
			var key ebiten.Key
			if err := key.UnmarshalText([]byte(name)); err != nil {
				return fmt.Errorf("binding %s: unknown key %q", logical, name)
			}
			out[logical] = append(out[logical], key)
		}
	}
	k.bindings = out
	return nil
}

// reset resumes sampling after the pause menu: keys let go while paused still release,
// keys still down do not re-press, and pointer history starts over.
func (k *keyboard) reset() {
	k.tracker.Reset()
	k.haveCursor = false
}

func (k *keyboard) held() input.KeySet {
	var held input.KeySet
	for logical, keys := range k.bindings {
		for _, key := range keys {
			if ebiten.IsKeyPressed(key) {
				held = held.With(logical)
				break
			}
		}
	}
	return held
}

func (k *keyboard) NextFrame() input.Frame {
	held := k.held()

	var forward, turn float64
	var lookX, lookY float64

	if gamepads := ebiten.AppendGamepadIDs(nil); len(gamepads) > 0 {
		id := gamepads[0]
		ly := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
		lx := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
		if math.Abs(ly) > stickDeadzone {
			forward = -ly
		}
		if math.Abs(lx) > stickDeadzone {
			turn = lx
		}
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightBottom) {
			held = held.With(input.KeyEmergencyBrake)
		}
		rx := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisRightStickHorizontal)
		ry := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisRightStickVertical)
		if math.Hypot(rx, ry) > stickDeadzone {
			lookX, lookY = rx, -ry
		}
	}

	// pointer motion only steers the view while the cursor is captured
	x, y := ebiten.CursorPosition()
	if ebiten.CursorMode() == ebiten.CursorModeCaptured && k.haveCursor {
		lookX += float64(x-k.cursorX) * 0.1
		lookY -= float64(y-k.cursorY) * 0.1
	}
	k.cursorX, k.cursorY, k.haveCursor = x, y, true

	return k.tracker.Frame(k.dt, held, forward, turn, lookX, lookY)
}

// ebitenCursor is the window's pointer, captured while the view is locked.
type ebitenCursor struct{}

func (ebitenCursor) SetLocked(locked bool) {
	if locked {
		ebiten.SetCursorMode(ebiten.CursorModeCaptured)
		return
	}
	ebiten.SetCursorMode(ebiten.CursorModeVisible)
}

func (ebitenCursor) Locked() bool {
	return ebiten.CursorMode() == ebiten.CursorModeCaptured
}
