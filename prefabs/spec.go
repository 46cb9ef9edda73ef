package prefabs

import (
	"errors"
	"fmt"

	"github.com/milk9111/wheelchair/controller"
	"github.com/milk9111/wheelchair/input"
	"github.com/milk9111/wheelchair/scene"
	"gopkg.in/yaml.v3"
)

const WheelchairFile = "wheelchair.yaml"

var ErrInvalidSpec = errors.New("prefabs: invalid spec")

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}
	return DecodeSpec[T](filename, data)
}

func DecodeSpec[T any](filename string, data []byte) (T, error) {
	var zero T
	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}
	return spec, nil
}

type DriveSpec struct {
	NormalSpeedKmh   float64 `yaml:"normal_speed_kmh"`
	SlowSpeedKmh     float64 `yaml:"slow_speed_kmh"`
	ReverseSpeedKmh  float64 `yaml:"reverse_speed_kmh"`
	AccelTime        float64 `yaml:"accel_time"`
	BrakeTime        float64 `yaml:"brake_time"`
	RotationSpeed    float64 `yaml:"rotation_speed"`
	RotateInPlace    *bool   `yaml:"rotate_in_place"`
	MaxSlope         float64 `yaml:"max_slope"`
	Gravity          float64 `yaml:"gravity"`
	InitialMode      string  `yaml:"initial_mode"`
	SlopeDecay       string  `yaml:"slope_decay"`
	SlopeDecayFactor float64 `yaml:"slope_decay_factor"`
}

type LookSpec struct {
	Sensitivity     float64 `yaml:"sensitivity"`
	VerticalLimit   float64 `yaml:"vertical_limit"`
	HorizontalLimit float64 `yaml:"horizontal_limit"`
	Smooth          *bool   `yaml:"smooth"`
	SmoothSpeed     float64 `yaml:"smooth_speed"`
	RecenterOnIdle  bool    `yaml:"recenter_on_idle"`
	RecenterSpeed   float64 `yaml:"recenter_speed"`
	LookAtAngle     float64 `yaml:"look_at_angle"`
}

type WheelSpec struct {
	Diameter        float64 `yaml:"diameter"`
	SpeedMultiplier float64 `yaml:"speed_multiplier"`
	TopSpeedKmh     float64 `yaml:"top_speed_kmh"`
	CasterSpin      float64 `yaml:"caster_spin"`
	CasterMaxSteer  float64 `yaml:"caster_max_steer"`
}

// CoursePointSpec is one terrain vertex; z runs along the course.
type CoursePointSpec struct {
	Z float64 `yaml:"z"`
	Y float64 `yaml:"y"`
}

type TelemetrySpec struct {
	Rate float64 `yaml:"rate"` // snapshots per second, 0 publishes every frame
	Addr string  `yaml:"addr"`
}

// NodeSpec describes the chair's model hierarchy for wheel discovery.
type NodeSpec struct {
	Name     string     `yaml:"name"`
	Children []NodeSpec `yaml:"children"`
}

type WheelchairSpec struct {
	Name      string              `yaml:"name"`
	Drive     DriveSpec           `yaml:"drive"`
	Look      LookSpec            `yaml:"look"`
	Wheels    WheelSpec           `yaml:"wheels"`
	Bindings  map[string][]string `yaml:"bindings"`
	Course    []CoursePointSpec   `yaml:"course"`
	Telemetry TelemetrySpec       `yaml:"telemetry"`
	Rig       *NodeSpec           `yaml:"rig"`
	LogLevel  string              `yaml:"log_level"`
}

func LoadWheelchairSpec() (WheelchairSpec, error) {
	return LoadWheelchairSpecFile(WheelchairFile)
}

// LoadWheelchairSpecFile loads and validates a chair spec. Fields left out of the
// file keep their defaults.
func LoadWheelchairSpecFile(filename string) (WheelchairSpec, error) {
	data, err := Load(filename)
	if err != nil {
		return WheelchairSpec{}, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}
	return ParseWheelchairSpec(filename, data)
}

func ParseWheelchairSpec(filename string, data []byte) (WheelchairSpec, error) {
	spec := DefaultWheelchairSpec()
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return WheelchairSpec{}, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}
	if err := spec.Validate(); err != nil {
		return WheelchairSpec{}, fmt.Errorf("prefabs: %s: %w", filename, err)
	}
	return spec, nil
}

func DefaultWheelchairSpec() WheelchairSpec {
	d := controller.DefaultLocomotionConfig()
	l := controller.DefaultLookConfig()
	w := controller.DefaultWheelConfig()
	return WheelchairSpec{
		Name: "wheelchair",
		Drive: DriveSpec{
			NormalSpeedKmh:   d.NormalSpeedKmh,
			SlowSpeedKmh:     d.SlowSpeedKmh,
			ReverseSpeedKmh:  d.ReverseSpeedKmh,
			AccelTime:        d.AccelTime,
			BrakeTime:        d.BrakeTime,
			RotationSpeed:    d.RotationSpeed,
			MaxSlope:         d.MaxSlope,
			Gravity:          d.Gravity,
			InitialMode:      d.InitialMode.String(),
			SlopeDecay:       "frame",
			SlopeDecayFactor: d.SlopeDecayFactor,
		},
		Look: LookSpec{
			Sensitivity:     l.Sensitivity,
			VerticalLimit:   l.VerticalLimit,
			HorizontalLimit: l.HorizontalLimit,
			SmoothSpeed:     l.SmoothSpeed,
			RecenterSpeed:   l.RecenterSpeed,
			LookAtAngle:     l.LookAtAngle,
		},
		Wheels: WheelSpec{
			Diameter:        w.Diameter,
			SpeedMultiplier: w.SpeedMultiplier,
			TopSpeedKmh:     w.TopSpeedKmh,
			CasterSpin:      w.CasterSpin,
			CasterMaxSteer:  w.CasterMaxSteer,
		},
		LogLevel: "info",
	}
}

// Validate runs every conversion so a bad file is rejected before anything is applied.
func (s WheelchairSpec) Validate() error {
	drive, err := s.LocomotionConfig()
	if err != nil {
		return err
	}
	if err := drive.Validate(); err != nil {
		return err
	}
	if err := s.LookConfig().Validate(); err != nil {
		return err
	}
	if err := s.WheelConfig().Validate(); err != nil {
		return err
	}
	if _, err := s.KeyBindings(); err != nil {
		return err
	}
	if len(s.Course) > 0 {
		if _, err := s.BuildCourse(); err != nil {
			return fmt.Errorf("%w: course: %w", ErrInvalidSpec, err)
		}
	}
	if s.Telemetry.Rate < 0 {
		return fmt.Errorf("%w: telemetry rate must not be negative", ErrInvalidSpec)
	}
	return nil
}

func (s WheelchairSpec) LocomotionConfig() (controller.LocomotionConfig, error) {
	cfg := controller.DefaultLocomotionConfig()
	d := s.Drive

	mode, err := controller.ParseDriveMode(d.InitialMode)
	if err != nil {
		return cfg, err
	}
	decay, err := controller.ParseSlopeDecay(d.SlopeDecay)
	if err != nil {
		return cfg, err
	}

	cfg.NormalSpeedKmh = d.NormalSpeedKmh
	cfg.SlowSpeedKmh = d.SlowSpeedKmh
	cfg.ReverseSpeedKmh = d.ReverseSpeedKmh
	cfg.AccelTime = d.AccelTime
	cfg.BrakeTime = d.BrakeTime
	cfg.RotationSpeed = d.RotationSpeed
	if d.RotateInPlace != nil {
		cfg.RotateInPlace = *d.RotateInPlace
	}
	cfg.MaxSlope = d.MaxSlope
	cfg.Gravity = d.Gravity
	cfg.InitialMode = mode
	cfg.SlopeDecay = decay
	cfg.SlopeDecayFactor = d.SlopeDecayFactor
	return cfg, nil
}

func (s WheelchairSpec) LookConfig() controller.LookConfig {
	cfg := controller.DefaultLookConfig()
	l := s.Look
	cfg.Sensitivity = l.Sensitivity
	cfg.VerticalLimit = l.VerticalLimit
	cfg.HorizontalLimit = l.HorizontalLimit
	if l.Smooth != nil {
		cfg.Smooth = *l.Smooth
	}
	cfg.SmoothSpeed = l.SmoothSpeed
	cfg.RecenterOnIdle = l.RecenterOnIdle
	cfg.RecenterSpeed = l.RecenterSpeed
	cfg.LookAtAngle = l.LookAtAngle
	return cfg
}

func (s WheelchairSpec) WheelConfig() controller.WheelConfig {
	return controller.WheelConfig{
		Diameter:        s.Wheels.Diameter,
		SpeedMultiplier: s.Wheels.SpeedMultiplier,
		TopSpeedKmh:     s.Wheels.TopSpeedKmh,
		CasterSpin:      s.Wheels.CasterSpin,
		CasterMaxSteer:  s.Wheels.CasterMaxSteer,
	}
}

// KeyBindings resolves the logical key names. The physical key names are left to the
// host that reads them.
func (s WheelchairSpec) KeyBindings() (map[input.Key][]string, error) {
	out := make(map[input.Key][]string, len(s.Bindings))
	for name, keys := range s.Bindings {
		k, err := input.ParseKey(name)
		if err != nil {
			return nil, fmt.Errorf("%w: binding: %v", ErrInvalidSpec, err)
		}
		out[k] = append([]string(nil), keys...)
	}
	return out, nil
}

// CourseProfile is the terrain profile, or nil for flat ground.
func (s WheelchairSpec) CourseProfile() []scene.Point {
	if len(s.Course) == 0 {
		return nil
	}
	out := make([]scene.Point, len(s.Course))
	for i, p := range s.Course {
		out[i] = scene.Point{Z: p.Z, Y: p.Y}
	}
	return out
}

// BuildCourse builds the terrain, falling back to flat ground when none is given.
func (s WheelchairSpec) BuildCourse() (*scene.Course, error) {
	profile := s.CourseProfile()
	if profile == nil {
		return scene.FlatCourse(), nil
	}
	return scene.NewCourse(profile)
}

// TelemetryInterval is the seconds between published snapshots.
func (s WheelchairSpec) TelemetryInterval() float64 {
	if s.Telemetry.Rate <= 0 {
		return 0
	}
	return 1 / s.Telemetry.Rate
}

// Build creates the node tree. A nil spec yields nil.
func (n *NodeSpec) Build() *scene.Node {
	if n == nil {
		return nil
	}
	node := scene.NewNode(n.Name)
	for i := range n.Children {
		node.Add(n.Children[i].Build())
	}
	return node
}
