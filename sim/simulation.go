// Package sim assembles a chair from a spec and steps it without a window: course and
// body, the three controllers, one ECS entity and the systems in their fixed order.
package sim

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/milk9111/wheelchair/controller"
	"github.com/milk9111/wheelchair/ecs"
	"github.com/milk9111/wheelchair/ecs/component"
	"github.com/milk9111/wheelchair/ecs/system"
	"github.com/milk9111/wheelchair/input"
	"github.com/milk9111/wheelchair/logging"
	"github.com/milk9111/wheelchair/prefabs"
	"github.com/milk9111/wheelchair/scene"
	"github.com/milk9111/wheelchair/telemetry"
)

const DefaultDt = 1.0 / 60

var ErrBadStep = errors.New("sim: time step must be positive")

type Options struct {
	Spec prefabs.WheelchairSpec
	// Source feeds input; nil runs idle frames.
	Source    system.FrameSource
	Dt        float64
	Start     mgl64.Vec3
	Cursor    controller.CursorLock
	Publisher system.Publisher
	RunID     string
	Log       logging.Log
}

// Finisher is implemented by frame sources that end on their own, like scenarios.
type Finisher interface {
	Done() bool
}

type Simulation struct {
	id   string
	spec prefabs.WheelchairSpec
	dt   float64
	log  logging.Log

	world  *ecs.World
	sched  *ecs.Scheduler
	input  *system.InputSystem
	tel    *system.TelemetrySystem
	source system.FrameSource
	entity ecs.Entity

	course *scene.Course
	body   *scene.Body
	rig    *scene.Node
	drive  *controller.LocomotionController
	look   *controller.LookController
	wheels *controller.WheelVisualizer
}

func New(opts Options) (*Simulation, error) {
	dt := opts.Dt
	if dt == 0 {
		dt = DefaultDt
	}
	if !(dt > 0) {
		return nil, fmt.Errorf("%w: %v", ErrBadStep, dt)
	}
	if err := opts.Spec.Validate(); err != nil {
		return nil, err
	}
	id := opts.RunID
	if id == "" {
		id = uuid.NewString()
	}
	log := logging.OrNop(opts.Log).With(logging.String("run", id))

	s := &Simulation{id: id, spec: opts.Spec, dt: dt, log: log}
	if err := s.build(opts); err != nil {
		return nil, err
	}
	s.log.Info("simulation ready",
		logging.String("chair", s.spec.Name),
		logging.Int("course_points", len(s.spec.Course)),
		logging.Bool("rig", s.rig != nil),
	)
	return s, nil
}

func (s *Simulation) build(opts Options) error {
	course, err := s.spec.BuildCourse()
	if err != nil {
		return err
	}
	driveCfg, err := s.spec.LocomotionConfig()
	if err != nil {
		return err
	}

	s.course = course
	s.body = scene.NewBody(course, opts.Start)

	// the body forwards raycasts to whatever course it is on
	s.drive, err = controller.NewLocomotionController(driveCfg, s.body, s.body, s.log)
	if err != nil {
		return err
	}
	s.look, err = controller.NewLookController(s.spec.LookConfig(), opts.Cursor, s.body, s.log)
	if err != nil {
		return err
	}
	s.rig = s.spec.Rig.Build()
	s.wheels, err = controller.NewWheelVisualizer(s.spec.WheelConfig(), s.drive, s.discover(), s.log)
	if err != nil {
		return err
	}

	s.world = ecs.NewWorld()
	s.entity = ecs.CreateEntity(s.world)
	adds := []error{
		ecs.Add(s.world, s.entity, component.InputComponent.Kind(), &component.Input{}),
		ecs.Add(s.world, s.entity, component.DriveComponent.Kind(), component.NewDrive(s.drive)),
		ecs.Add(s.world, s.entity, component.WheelsComponent.Kind(), &component.Wheels{Visualizer: s.wheels}),
		ecs.Add(s.world, s.entity, component.LookComponent.Kind(), &component.Look{Controller: s.look}),
		ecs.Add(s.world, s.entity, component.BodyComponent.Kind(), &component.Body{Body: s.body}),
		ecs.Add(s.world, s.entity, component.TelemetryComponent.Kind(), &component.Telemetry{Interval: s.spec.TelemetryInterval()}),
	}
	if err := errors.Join(adds...); err != nil {
		return err
	}

	s.source = opts.Source
	s.input = system.NewInputSystem(system.FrameSourceFunc(s.nextFrame))
	s.tel = system.NewTelemetrySystem(opts.Publisher, s.id, s.log)
	s.sched = ecs.NewScheduler(
		s.input,
		system.NewLocomotionSystem(),
		system.NewWheelSystem(),
		system.NewLookSystem(),
		s.tel,
	)
	return nil
}

func (s *Simulation) discover() controller.WheelRig {
	if s.rig == nil {
		return controller.WheelRig{}
	}
	return controller.DiscoverWheels(s.rig, controller.WheelRig{}, controller.DefaultWheelKeywords())
}

func (s *Simulation) nextFrame() input.Frame {
	if s.source == nil {
		return input.Frame{Dt: s.dt}
	}
	return s.source.NextFrame()
}

func (s *Simulation) ID() string { return s.id }
func (s *Simulation) Dt() float64 { return s.dt }
func (s *Simulation) Spec() prefabs.WheelchairSpec { return s.spec }
func (s *Simulation) World() *ecs.World { return s.world }
func (s *Simulation) Entity() ecs.Entity { return s.entity }
func (s *Simulation) Course() *scene.Course { return s.course }
func (s *Simulation) Body() *scene.Body { return s.body }
func (s *Simulation) Rig() *scene.Node { return s.rig }
func (s *Simulation) Drive() *controller.LocomotionController { return s.drive }
func (s *Simulation) Look() *controller.LookController { return s.look }
func (s *Simulation) Wheels() *controller.WheelVisualizer { return s.wheels }
func (s *Simulation) LastInput() input.Frame { return s.input.Last() }
func (s *Simulation) SetSource(src system.FrameSource) { s.source = src }

// Step advances one tick.
func (s *Simulation) Step() {
	s.sched.Update(s.world)
}

// Run steps until frames ticks have run, the source finishes or ctx is cancelled.
// frames <= 0 means no frame limit. It returns the number of ticks run.
func (s *Simulation) Run(ctx context.Context, frames int) (int, error) {
	n := 0
	for frames <= 0 || n < frames {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if f, ok := s.source.(Finisher); ok && f.Done() {
			break
		}
		s.Step()
		n++
	}
	s.log.Info("run finished",
		logging.Int("frames", n),
		logging.Float64("z", s.body.Position().Z()),
		logging.String("mode", s.drive.Mode().String()),
	)
	return n, nil
}

// Snapshot is the current state, stamped like a published one.
func (s *Simulation) Snapshot() telemetry.Snapshot {
	snap := system.BuildSnapshot(s.world, s.entity)
	snap.Run = s.id
	snap.Frame = s.world.Frame()
	if tel, ok := ecs.Get(s.world, s.entity, component.TelemetryComponent.Kind()); ok {
		snap.Time = tel.Clock
	}
	return snap
}

// State is the snapshot in the shape scenario scripts read.
func (s *Simulation) State() map[string]any {
	snap := s.Snapshot()
	return map[string]any{
		"time":             snap.Time,
		"frame":            int64(snap.Frame),
		"mode":             snap.Mode,
		"speed":            snap.Speed,
		"normalized_speed": snap.NormalizedSpeed,
		"heading":          snap.Heading,
		"x":                snap.Position[0],
		"y":                snap.Position[1],
		"z":                snap.Position[2],
		"grounded":         snap.Grounded,
		"slope_blocked":    snap.SlopeBlocked,
		"emergency_brake":  snap.EmergencyBrake,
		"yaw":              snap.Yaw,
		"pitch":            snap.Pitch,
		"wheel_angle":      snap.WheelAngle,
	}
}

// ApplySpec retunes the running chair. Controller state is kept; the course is only
// rebuilt when its profile changed and the rig only when its tree did.
func (s *Simulation) ApplySpec(spec prefabs.WheelchairSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	driveCfg, err := spec.LocomotionConfig()
	if err != nil {
		return err
	}
	if err := s.drive.SetConfig(driveCfg); err != nil {
		return err
	}
	if err := s.look.SetConfig(spec.LookConfig()); err != nil {
		return err
	}
	if err := s.wheels.SetConfig(spec.WheelConfig()); err != nil {
		return err
	}

	if !slices.Equal(spec.Course, s.spec.Course) {
		course, err := spec.BuildCourse()
		if err != nil {
			return err
		}
		s.course = course
		s.body.SetCourse(course)
		s.log.Info("course replaced", logging.Int("points", len(spec.Course)))
	}
	if !sameNodes(spec.Rig, s.spec.Rig) {
		s.rig = spec.Rig.Build()
		s.wheels.SetRig(s.discover())
	}
	if tel, ok := ecs.Get(s.world, s.entity, component.TelemetryComponent.Kind()); ok {
		tel.Interval = spec.TelemetryInterval()
	}

	s.spec = spec
	s.log.Info("spec applied", logging.String("chair", spec.Name))
	return nil
}

func sameNodes(a, b *prefabs.NodeSpec) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !sameNodes(&a.Children[i], &b.Children[i]) {
			return false
		}
	}
	return true
}
