package input

// Tracker turns the set of keys held this frame into press and release edges by
// diffing against the previous frame.
type Tracker struct {
	prev   KeySet
	resync bool
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Next records held as the current state and returns the edges since the last call.
func (t *Tracker) Next(held KeySet) (pressed, released KeySet) {
	if t == nil {
		return 0, 0
	}
	pressed = held &^ t.prev
	released = t.prev &^ held
	if t.resync {
		pressed = 0
		t.resync = false
	}
	t.prev = held
	return pressed, released
}

// Frame builds a full input frame from held keys and continuous values. Axis
// arguments override the key-derived axes when non-zero, so an analog stick wins over
// digital keys.
func (t *Tracker) Frame(dt float64, held KeySet, forward, turn, lookX, lookY float64) Frame {
	pressed, released := t.Next(held)
	keyForward, keyTurn := AxesFromKeys(held)
	if forward == 0 {
		forward = keyForward
	}
	if turn == 0 {
		turn = keyTurn
	}
	return Frame{
		Dt:       dt,
		Forward:  forward,
		Turn:     turn,
		LookX:    lookX,
		LookY:    lookY,
		Held:     held,
		Pressed:  pressed,
		Released: released,
	}.Clamped()
}

// Reset marks a gap in sampling, e.g. a pause menu. The next call reports no presses
// for keys already down, but still releases anything let go during the gap.
func (t *Tracker) Reset() {
	if t == nil {
		return
	}
	t.resync = true
}
