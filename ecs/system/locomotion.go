package system

import (
	"github.com/milk9111/wheelchair/ecs"
	"github.com/milk9111/wheelchair/ecs/component"
)

// LocomotionSystem runs every drive controller and mirrors its heading onto the host
// body. Mode transitions are queued as ModeChangedEvent.
type LocomotionSystem struct{}

func NewLocomotionSystem() *LocomotionSystem {
	return &LocomotionSystem{}
}

func (s *LocomotionSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	ecs.ForEach2(w, component.InputComponent.Kind(), component.DriveComponent.Kind(), func(e ecs.Entity, in *component.Input, drive *component.Drive) {
		if drive.Controller == nil {
			return
		}
		drive.Controller.Update(in.Frame)

		if body, ok := ecs.Get(w, e, component.BodyComponent.Kind()); ok && body.Body != nil {
			body.Body.SetHeading(drive.Controller.Heading())
		}

		if mode := drive.Controller.Mode(); mode != drive.LastMode {
			w.Events().Push(ecs.Event{
				Type: ecs.EventModeChanged,
				Data: ecs.ModeChangedEvent{Entity: e, From: drive.LastMode, To: mode},
			})
			drive.LastMode = mode
		}
	})
}
