package system

import (
	"github.com/milk9111/wheelchair/ecs"
	"github.com/milk9111/wheelchair/ecs/component"
)

type LookSystem struct{}

func NewLookSystem() *LookSystem {
	return &LookSystem{}
}

func (s *LookSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	ecs.ForEach2(w, component.InputComponent.Kind(), component.LookComponent.Kind(), func(_ ecs.Entity, in *component.Input, look *component.Look) {
		look.Controller.Update(in.Frame)
	})
}
