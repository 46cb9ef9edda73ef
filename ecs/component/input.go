package component

import "github.com/milk9111/wheelchair/input"

// Input holds the frame sampled by the input system for this tick.
type Input struct {
	Frame input.Frame
}

var InputComponent = NewComponent[Input]()
