package controller

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/wheelchair/common"
	"github.com/milk9111/wheelchair/input"
	"github.com/milk9111/wheelchair/logging"
)

const (
	brakeFromThreshold = 0.1
	brakeToThreshold   = 0.01
)

type WheelConfig struct {
	Diameter        float64 // metres
	SpeedMultiplier float64
	TopSpeedKmh     float64
	CasterSpin      float64
	CasterMaxSteer  float64 // degrees
}

func DefaultWheelConfig() WheelConfig {
	return WheelConfig{
		Diameter:        0.6,
		SpeedMultiplier: 1,
		TopSpeedKmh:     6,
		CasterSpin:      2,
		CasterMaxSteer:  30,
	}
}

func (c WheelConfig) Validate() error {
	if !(c.Diameter > 0) {
		return fmt.Errorf("%w: wheel diameter must be positive, got %v", ErrInvalidConfig, c.Diameter)
	}
	if c.TopSpeedKmh < 0 {
		return fmt.Errorf("%w: top speed must not be negative", ErrInvalidConfig)
	}
	if c.CasterMaxSteer < 0 || c.CasterMaxSteer > 90 {
		return fmt.Errorf("%w: caster steer must be within [0, 90]", ErrInvalidConfig)
	}
	return nil
}

// WheelRig holds the wheel references. Any of them may be nil.
type WheelRig struct {
	Left    WheelNode
	Right   WheelNode
	Casters []WheelNode
}

// WheelVisualState is derived entirely from the speed source.
type WheelVisualState struct {
	Angle       float64 // accumulated rear-wheel angle, degrees
	Rate        float64 // degrees per second
	PrevSpeed   float64 // normalized speed of the previous frame
	CasterSpin  []float64
	CasterSteer float64
}

// BrakeFunc is called on the frame the wheels come to a stop.
type BrakeFunc func(prevSpeed float64)

type WheelVisualizer struct {
	cfg     WheelConfig
	speed   SpeedSource
	rig     WheelRig
	log     logging.Log
	enabled bool
	onBrake BrakeFunc

	state WheelVisualState
}

// NewWheelVisualizer builds the visualizer. Without a speed source it comes up
// disabled and every call is a no-op.
func NewWheelVisualizer(cfg WheelConfig, speed SpeedSource, rig WheelRig, log logging.Log) (*WheelVisualizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	wv := &WheelVisualizer{
		cfg:     cfg,
		speed:   speed,
		log:     logging.OrNop(log).Named("wheels"),
		enabled: !isNilSpeedSource(speed),
	}
	wv.SetRig(rig)
	if !wv.enabled {
		wv.log.Error("wheel visualizer disabled: no locomotion controller")
	}
	return wv, nil
}

func isNilSpeedSource(s SpeedSource) bool {
	if s == nil {
		return true
	}
	lc, ok := s.(*LocomotionController)
	return ok && lc == nil
}

func (wv *WheelVisualizer) SetConfig(cfg WheelConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	wv.cfg = cfg
	return nil
}

func (wv *WheelVisualizer) Config() WheelConfig {
	return wv.cfg
}

func (wv *WheelVisualizer) SetRig(rig WheelRig) {
	wv.rig = rig
	wv.state.CasterSpin = make([]float64, len(rig.Casters))
}

func (wv *WheelVisualizer) Rig() WheelRig {
	return wv.rig
}

// OnBrake installs the stop-transition hook. Passing nil restores the no-op.
func (wv *WheelVisualizer) OnBrake(fn BrakeFunc) {
	wv.onBrake = fn
}

func (wv *WheelVisualizer) Enabled() bool {
	return wv != nil && wv.enabled
}

// AngularRate converts a normalized speed into wheel degrees per second.
func (wv *WheelVisualizer) AngularRate(normalized float64) float64 {
	linear := normalized * wv.cfg.TopSpeedKmh / common.KmhToMs
	circumference := math.Pi * wv.cfg.Diameter
	return linear * (360 / circumference) * wv.cfg.SpeedMultiplier
}

func (wv *WheelVisualizer) Update(frame input.Frame) {
	if !wv.Enabled() {
		return
	}
	dt := math.Max(frame.Dt, 0)
	normalized := wv.speed.NormalizedSpeed()

	wv.state.Rate = wv.AngularRate(normalized)
	wv.state.Angle += wv.state.Rate * dt

	rear := common.Euler(wv.state.Angle, 0)
	setRotation(wv.rig.Left, rear)
	setRotation(wv.rig.Right, rear)

	wv.animateCasters(wv.state.Rate, common.Clamp(frame.Turn, -1, 1), dt)

	if math.Abs(wv.state.PrevSpeed) > brakeFromThreshold && math.Abs(normalized) < brakeToThreshold {
		wv.log.Debug("wheels stopped", logging.Float64("from", wv.state.PrevSpeed))
		if wv.onBrake != nil {
			wv.onBrake(wv.state.PrevSpeed)
		}
	}
	wv.state.PrevSpeed = normalized
}

func (wv *WheelVisualizer) animateCasters(rate, turn, dt float64) {
	if len(wv.rig.Casters) == 0 {
		return
	}
	wv.state.CasterSteer = common.Clamp(turn*wv.cfg.CasterMaxSteer, -wv.cfg.CasterMaxSteer, wv.cfg.CasterMaxSteer)
	for i, caster := range wv.rig.Casters {
		if isNilNode(caster) {
			continue
		}
		wv.state.CasterSpin[i] += rate * wv.cfg.CasterSpin * dt
		caster.SetLocalRotation(common.Euler(wv.state.CasterSpin[i], wv.state.CasterSteer))
	}
}

// StopWheels zeroes the rotation state and snaps every wheel to identity.
func (wv *WheelVisualizer) StopWheels() {
	wv.state.Angle = 0
	wv.state.Rate = 0
	wv.state.CasterSteer = 0
	for i := range wv.state.CasterSpin {
		wv.state.CasterSpin[i] = 0
	}
	setRotation(wv.rig.Left, mgl64.QuatIdent())
	setRotation(wv.rig.Right, mgl64.QuatIdent())
	for _, caster := range wv.rig.Casters {
		setRotation(caster, mgl64.QuatIdent())
	}
}

func (wv *WheelVisualizer) State() WheelVisualState {
	s := wv.state
	s.CasterSpin = append([]float64(nil), wv.state.CasterSpin...)
	return s
}

func setRotation(n WheelNode, q mgl64.Quat) {
	if isNilNode(n) {
		return
	}
	n.SetLocalRotation(q)
}
