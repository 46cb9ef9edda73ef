package component

import "github.com/milk9111/wheelchair/controller"

type Wheels struct {
	Visualizer *controller.WheelVisualizer

	hooked  bool
	braked  bool
	brakeAt float64
}

// Hook routes the visualizer's stop transition into the component. It is idempotent.
func (w *Wheels) Hook() {
	if w.hooked || w.Visualizer == nil {
		return
	}
	w.Visualizer.OnBrake(func(prev float64) {
		w.braked = true
		w.brakeAt = prev
	})
	w.hooked = true
}

// TakeBrake reports and clears a stop transition recorded this tick.
func (w *Wheels) TakeBrake() (float64, bool) {
	if !w.braked {
		return 0, false
	}
	w.braked = false
	return w.brakeAt, true
}

var WheelsComponent = NewComponent[Wheels]()
