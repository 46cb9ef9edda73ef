package system

import (
	"github.com/milk9111/wheelchair/ecs"
	"github.com/milk9111/wheelchair/ecs/component"
	"github.com/milk9111/wheelchair/input"
)

// FrameSource produces one input frame per tick: a keyboard sampler, a script or a
// recorded stream.
type FrameSource interface {
	NextFrame() input.Frame
}

type FrameSourceFunc func() input.Frame

func (f FrameSourceFunc) NextFrame() input.Frame {
	return f()
}

type InputSystem struct {
	source FrameSource
	last   input.Frame
}

func NewInputSystem(source FrameSource) *InputSystem {
	return &InputSystem{source: source}
}

// SetSource swaps the frame source, e.g. when a scenario script is reloaded.
func (s *InputSystem) SetSource(source FrameSource) {
	s.source = source
}

func (s *InputSystem) Last() input.Frame {
	return s.last
}

func (s *InputSystem) Update(w *ecs.World) {
	if w == nil || s.source == nil {
		return
	}

	frame := s.source.NextFrame().Clamped()
	s.last = frame

	ecs.ForEach(w, component.InputComponent.Kind(), func(_ ecs.Entity, in *component.Input) {
		in.Frame = frame
	})
}
