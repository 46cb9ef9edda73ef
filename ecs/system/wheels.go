package system

import (
	"github.com/milk9111/wheelchair/ecs"
	"github.com/milk9111/wheelchair/ecs/component"
)

// WheelSystem must run after LocomotionSystem so the visualizer reads this tick's speed.
type WheelSystem struct{}

func NewWheelSystem() *WheelSystem {
	return &WheelSystem{}
}

func (s *WheelSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	ecs.ForEach2(w, component.InputComponent.Kind(), component.WheelsComponent.Kind(), func(e ecs.Entity, in *component.Input, wheels *component.Wheels) {
		if !wheels.Visualizer.Enabled() {
			return
		}
		wheels.Hook()
		wheels.Visualizer.Update(in.Frame)

		if prev, ok := wheels.TakeBrake(); ok {
			w.Events().Push(ecs.Event{
				Type: ecs.EventBrake,
				Data: ecs.BrakeEvent{Entity: e, PrevSpeed: prev},
			})
		}
	})
}
