// Package input carries one frame of host input into the controllers: continuous axes,
// pointer deltas and key edges for the logical key set.
package input

import "github.com/milk9111/wheelchair/common"

// Frame is one frame of input. Axis values are in [-1, 1]; Look deltas are raw pointer
// motion and are scaled by the look sensitivity.
type Frame struct {
	Dt float64

	Forward float64
	Turn    float64

	LookX float64
	LookY float64

	Held     KeySet
	Pressed  KeySet
	Released KeySet
}

func (f Frame) IsPressed(k Key) bool {
	return f.Pressed.Has(k)
}

func (f Frame) IsReleased(k Key) bool {
	return f.Released.Has(k)
}

func (f Frame) IsHeld(k Key) bool {
	return f.Held.Has(k)
}

// Clamped returns the frame with axes clamped to [-1, 1] and a non-negative Dt.
func (f Frame) Clamped() Frame {
	f.Forward = common.Clamp(f.Forward, -1, 1)
	f.Turn = common.Clamp(f.Turn, -1, 1)
	if f.Dt < 0 {
		f.Dt = 0
	}
	return f
}

// AxesFromKeys folds the digital movement keys into axis values. Opposing keys cancel.
func AxesFromKeys(held KeySet) (forward, turn float64) {
	if held.Has(KeyForward) {
		forward += 1
	}
	if held.Has(KeyBackward) {
		forward -= 1
	}
	if held.Has(KeySteerRight) {
		turn += 1
	}
	if held.Has(KeySteerLeft) {
		turn -= 1
	}
	return forward, turn
}
