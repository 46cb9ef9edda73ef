package system

import (
	"fmt"

	"github.com/milk9111/wheelchair/ecs"
	"github.com/milk9111/wheelchair/ecs/component"
	"github.com/milk9111/wheelchair/logging"
	"github.com/milk9111/wheelchair/telemetry"
)

type Publisher interface {
	Publish(telemetry.Snapshot) error
}

// TelemetrySystem runs last: it drains the tick's events, logs them and publishes a
// snapshot for every entity carrying a Telemetry component.
type TelemetrySystem struct {
	pub     Publisher
	run     string
	log     logging.Log
	pending []string
	last    telemetry.Snapshot
}

func NewTelemetrySystem(pub Publisher, run string, log logging.Log) *TelemetrySystem {
	return &TelemetrySystem{pub: pub, run: run, log: logging.OrNop(log).Named("telemetry")}
}

// Last is the most recent snapshot built, published or not.
func (s *TelemetrySystem) Last() telemetry.Snapshot {
	return s.last
}

func (s *TelemetrySystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	for _, evt := range w.Events().Drain() {
		s.pending = append(s.pending, s.describe(evt))
	}

	ecs.ForEach2(w, component.InputComponent.Kind(), component.TelemetryComponent.Kind(), func(e ecs.Entity, in *component.Input, t *component.Telemetry) {
		t.Clock += in.Frame.Dt
		t.Elapsed += in.Frame.Dt

		snap := BuildSnapshot(w, e)
		snap.Run = s.run
		snap.Frame = w.Frame()
		snap.Time = t.Clock
		s.last = snap

		if t.Interval > 0 && t.Elapsed < t.Interval {
			return
		}
		if t.Interval > 0 {
			t.Elapsed -= t.Interval
		}
		snap.Events = s.pending
		s.pending = nil
		s.last = snap

		if s.pub == nil {
			return
		}
		if err := s.pub.Publish(snap); err != nil {
			s.log.Warn("publish snapshot", logging.Error(err))
			return
		}
		t.Sent++
	})
}

func (s *TelemetrySystem) describe(evt ecs.Event) string {
	switch data := evt.Data.(type) {
	case ecs.ModeChangedEvent:
		s.log.Debug("mode changed", logging.String("entity", data.Entity.String()), logging.String("to", data.To.String()))
		return fmt.Sprintf("%s:%s->%s", evt.Type, data.From, data.To)
	case ecs.BrakeEvent:
		s.log.Debug("wheels stopped", logging.String("entity", data.Entity.String()), logging.Float64("from", data.PrevSpeed))
		return fmt.Sprintf("%s:%.2f", evt.Type, data.PrevSpeed)
	default:
		return evt.Type
	}
}

// BuildSnapshot reads whatever of drive, body, look and wheels e carries.
func BuildSnapshot(w *ecs.World, e ecs.Entity) telemetry.Snapshot {
	var snap telemetry.Snapshot

	if drive, ok := ecs.Get(w, e, component.DriveComponent.Kind()); ok && drive.Controller != nil {
		st := drive.Controller.State()
		snap.Mode = st.Mode.String()
		snap.Speed = st.Speed
		snap.NormalizedSpeed = drive.Controller.NormalizedSpeed()
		snap.Heading = st.Heading
		snap.SlopeBlocked = st.SlopeBlocked
		snap.EmergencyBrake = st.EmergencyBrake
	}
	if body, ok := ecs.Get(w, e, component.BodyComponent.Kind()); ok && body.Body != nil {
		p := body.Body.Position()
		snap.Position = [3]float64{p.X(), p.Y(), p.Z()}
		snap.Grounded = body.Body.Grounded()
	}
	if look, ok := ecs.Get(w, e, component.LookComponent.Kind()); ok && look.Controller != nil {
		st := look.Controller.State()
		snap.Yaw = st.Yaw
		snap.Pitch = st.Pitch
	}
	if wheels, ok := ecs.Get(w, e, component.WheelsComponent.Kind()); ok && wheels.Visualizer.Enabled() {
		snap.WheelAngle = wheels.Visualizer.State().Angle
	}
	return snap
}
