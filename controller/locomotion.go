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
	inputSmoothing       = 3.0  // 1/s
	emergencyDecayRate   = 10.0 // m/s²
	movingEpsilon        = 0.1  // m/s
	inPlaceRotationBoost = 1.2
	fullSpeedRotationCut = 0.5
	groundedVerticalPin  = -2.0
	slopeReferenceFPS    = 60.0
)

// LocomotionConfig holds the drive tuning. Speeds are in km/h, times in seconds,
// angles in degrees.
type LocomotionConfig struct {
	NormalSpeedKmh  float64
	SlowSpeedKmh    float64
	ReverseSpeedKmh float64

	AccelTime float64
	BrakeTime float64

	RotationSpeed float64
	RotateInPlace bool

	MaxSlope    float64
	Gravity     float64
	InitialMode DriveMode

	SlopeDecay       SlopeDecay
	SlopeDecayFactor float64
	ProbeHeight      float64
	ProbeDrop        float64
	ProbeDistance    float64
}

func DefaultLocomotionConfig() LocomotionConfig {
	return LocomotionConfig{
		NormalSpeedKmh:   6,
		SlowSpeedKmh:     3,
		ReverseSpeedKmh:  2,
		AccelTime:        2,
		BrakeTime:        1.5,
		RotationSpeed:    45,
		RotateInPlace:    true,
		MaxSlope:         10,
		Gravity:          -9.81,
		InitialMode:      DriveNormal,
		SlopeDecay:       SlopeDecayPerFrame,
		SlopeDecayFactor: 0.95,
		ProbeHeight:      0.5,
		ProbeDrop:        0.3,
		ProbeDistance:    2,
	}
}

func (c LocomotionConfig) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"normal speed", c.NormalSpeedKmh},
		{"slow speed", c.SlowSpeedKmh},
		{"reverse speed", c.ReverseSpeedKmh},
		{"accel time", c.AccelTime},
		{"brake time", c.BrakeTime},
		{"probe distance", c.ProbeDistance},
	}
	for _, p := range positive {
		if !(p.value > 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, p.name, p.value)
		}
	}
	if c.RotationSpeed < 0 {
		return fmt.Errorf("%w: rotation speed must not be negative", ErrInvalidConfig)
	}
	if c.MaxSlope < 0 || c.MaxSlope > 90 {
		return fmt.Errorf("%w: max slope must be within [0, 90], got %v", ErrInvalidConfig, c.MaxSlope)
	}
	if c.SlopeDecayFactor < 0 || c.SlopeDecayFactor > 1 {
		return fmt.Errorf("%w: slope decay factor must be within [0, 1], got %v", ErrInvalidConfig, c.SlopeDecayFactor)
	}
	if c.InitialMode > DriveDisabled {
		return fmt.Errorf("%w: initial mode %v", ErrInvalidConfig, c.InitialMode)
	}
	return nil
}

// DriveState is the locomotion controller's per-frame state.
type DriveState struct {
	Mode             DriveMode
	Speed            float64
	TargetSpeed      float64
	SmoothedForward  float64
	SmoothedTurn     float64
	VerticalVelocity float64
	EmergencyBrake   bool

	Heading      float64
	HeadingDelta float64
	SlopeBlocked bool
}

type ModeChangeFunc func(from, to DriveMode)

// LocomotionController maps drive input to a signed forward speed and heading, and
// moves the host body.
type LocomotionController struct {
	cfg   LocomotionConfig
	body  MotionPrimitive
	slope SlopeQuery
	log   logging.Log

	normalCeiling  float64
	slowCeiling    float64
	reverseCeiling float64

	state        DriveState
	onModeChange []ModeChangeFunc
}

func NewLocomotionController(cfg LocomotionConfig, body MotionPrimitive, slope SlopeQuery, log logging.Log) (*LocomotionController, error) {
	if body == nil {
		return nil, ErrNilBody
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lc := &LocomotionController{
		body:  body,
		slope: slope,
		log:   logging.OrNop(log).Named("locomotion"),
		state: DriveState{Mode: cfg.InitialMode},
	}
	lc.applyConfig(cfg)
	return lc, nil
}

// SetConfig swaps the tuning while keeping the current state. Speed is clamped to the
// new ceiling of the active mode.
func (lc *LocomotionController) SetConfig(cfg LocomotionConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	lc.applyConfig(cfg)
	if lc.state.Mode != DriveDisabled {
		limit := math.Max(lc.modeCeiling(), lc.reverseCeiling)
		lc.state.Speed = common.Clamp(lc.state.Speed, -limit, limit)
	}
	return nil
}

func (lc *LocomotionController) applyConfig(cfg LocomotionConfig) {
	lc.cfg = cfg
	lc.normalCeiling = cfg.NormalSpeedKmh / common.KmhToMs
	lc.slowCeiling = cfg.SlowSpeedKmh / common.KmhToMs
	lc.reverseCeiling = cfg.ReverseSpeedKmh / common.KmhToMs
}

func (lc *LocomotionController) OnModeChange(fn ModeChangeFunc) {
	if fn == nil {
		return
	}
	lc.onModeChange = append(lc.onModeChange, fn)
}

// Update advances one frame. Gravity is always integrated after movement.
func (lc *LocomotionController) Update(frame input.Frame) {
	if lc == nil {
		return
	}
	frame = frame.Clamped()
	lc.state.HeadingDelta = 0

	lc.handleModeKeys(frame)

	if lc.state.Mode != DriveDisabled {
		lc.processInput(frame)
		lc.applyMovement(frame.Dt)
	} else {
		lc.emergencyStop(frame.Dt)
	}

	lc.applyGravity(frame.Dt)
}

func (lc *LocomotionController) handleModeKeys(frame input.Frame) {
	switch {
	case frame.IsPressed(input.KeyModeSlow):
		lc.SetMode(DriveSlow)
	case frame.IsPressed(input.KeyModeNormal):
		lc.SetMode(DriveNormal)
	case frame.IsPressed(input.KeyEmergencyBrake):
		lc.SetMode(DriveDisabled)
	case frame.IsReleased(input.KeyEmergencyBrake):
		lc.SetMode(DriveNormal)
	}
}

// SetMode switches drive mode. Entering Disabled latches the emergency brake; any other
// mode clears it.
func (lc *LocomotionController) SetMode(mode DriveMode) {
	prev := lc.state.Mode
	lc.state.Mode = mode
	lc.state.EmergencyBrake = mode == DriveDisabled
	if prev == mode {
		return
	}

	if mode == DriveDisabled {
		lc.log.Warn("emergency brake engaged", logging.Float64("speed", lc.state.Speed))
	} else {
		lc.log.Info("drive mode changed", logging.String("from", prev.String()), logging.String("to", mode.String()))
	}
	for _, fn := range lc.onModeChange {
		fn(prev, mode)
	}
}

func (lc *LocomotionController) processInput(frame input.Frame) {
	dt := frame.Dt
	lc.state.SmoothedForward = common.Lerp(lc.state.SmoothedForward, frame.Forward, inputSmoothing*dt)
	lc.state.SmoothedTurn = common.Lerp(lc.state.SmoothedTurn, frame.Turn, inputSmoothing*dt)

	ceiling := lc.modeCeiling()
	if lc.state.SmoothedForward < 0 {
		ceiling = lc.reverseCeiling
	}

	lc.state.TargetSpeed = lc.state.SmoothedForward * ceiling

	rate := ceiling / lc.cfg.BrakeTime
	if math.Abs(lc.state.TargetSpeed) > math.Abs(lc.state.Speed) {
		rate = ceiling / lc.cfg.AccelTime
	}
	lc.state.Speed = common.MoveTowards(lc.state.Speed, lc.state.TargetSpeed, rate*dt)

	lc.rotate(lc.state.SmoothedTurn, dt)
}

func (lc *LocomotionController) modeCeiling() float64 {
	if lc.state.Mode == DriveSlow {
		return lc.slowCeiling
	}
	return lc.normalCeiling
}

func (lc *LocomotionController) rotationMultiplier() float64 {
	speed := math.Abs(lc.state.Speed)
	switch {
	case lc.cfg.RotateInPlace && speed < movingEpsilon:
		return inPlaceRotationBoost
	case speed > movingEpsilon:
		return 1 - speed/lc.normalCeiling*fullSpeedRotationCut
	default:
		return 1
	}
}

func (lc *LocomotionController) rotate(turn, dt float64) {
	delta := turn * lc.cfg.RotationSpeed * lc.rotationMultiplier() * dt
	lc.state.HeadingDelta = delta
	lc.state.Heading = wrapDegrees(lc.state.Heading + delta)
}

func (lc *LocomotionController) applyMovement(dt float64) {
	if !lc.slopePassable() {
		if !lc.state.SlopeBlocked {
			lc.log.Debug("slope too steep ahead", logging.Float64("speed", lc.state.Speed))
		}
		lc.state.SlopeBlocked = true
		lc.state.Speed *= lc.slopeDecay(dt)
		return
	}
	lc.state.SlopeBlocked = false
	lc.body.Move(lc.velocity().Mul(dt))
}

func (lc *LocomotionController) slopeDecay(dt float64) float64 {
	if lc.cfg.SlopeDecay == SlopeDecayPerTime {
		return math.Pow(lc.cfg.SlopeDecayFactor, dt*slopeReferenceFPS)
	}
	return lc.cfg.SlopeDecayFactor
}

// slopePassable probes the terrain ahead. No hit counts as passable.
func (lc *LocomotionController) slopePassable() bool {
	if lc.slope == nil {
		return true
	}
	origin := lc.body.Position().Add(common.Up.Mul(lc.cfg.ProbeHeight))
	dir := lc.Forward().Sub(common.Up.Mul(lc.cfg.ProbeDrop))
	hit, ok := lc.slope.Raycast(origin, dir, lc.cfg.ProbeDistance)
	if !ok {
		return true
	}
	return common.AngleBetween(hit.Normal, common.Up) <= lc.cfg.MaxSlope
}

func (lc *LocomotionController) emergencyStop(dt float64) {
	lc.state.Speed = common.MoveTowards(lc.state.Speed, 0, emergencyDecayRate*dt)
	lc.state.TargetSpeed = 0
	lc.body.Move(lc.velocity().Mul(dt))
}

func (lc *LocomotionController) velocity() mgl64.Vec3 {
	v := lc.Forward().Mul(lc.state.Speed)
	v[1] = lc.state.VerticalVelocity
	return v
}

func (lc *LocomotionController) applyGravity(dt float64) {
	if lc.body.Grounded() {
		lc.state.VerticalVelocity = groundedVerticalPin
		return
	}
	lc.state.VerticalVelocity += lc.cfg.Gravity * dt
}

// NormalizedSpeed is speed over the normal-mode ceiling; negative when reversing.
func (lc *LocomotionController) NormalizedSpeed() float64 {
	if lc == nil || lc.normalCeiling == 0 {
		return 0
	}
	return lc.state.Speed / lc.normalCeiling
}

func (lc *LocomotionController) IsMoving() bool {
	return lc != nil && math.Abs(lc.state.Speed) > movingEpsilon
}

func (lc *LocomotionController) Speed() float64 {
	return lc.state.Speed
}

func (lc *LocomotionController) Mode() DriveMode {
	return lc.state.Mode
}

// Heading is the body's yaw in degrees, wrapped to (-180, 180].
func (lc *LocomotionController) Heading() float64 {
	return lc.state.Heading
}

func (lc *LocomotionController) SetHeading(deg float64) {
	lc.state.Heading = wrapDegrees(deg)
}

func (lc *LocomotionController) Rotation() mgl64.Quat {
	return common.Euler(0, lc.state.Heading)
}

func (lc *LocomotionController) Forward() mgl64.Vec3 {
	return lc.Rotation().Rotate(common.Forward)
}

// Ceiling returns the speed limit in m/s of the given mode; Disabled reports zero.
func (lc *LocomotionController) Ceiling(mode DriveMode) float64 {
	switch mode {
	case DriveSlow:
		return lc.slowCeiling
	case DriveNormal:
		return lc.normalCeiling
	default:
		return 0
	}
}

func (lc *LocomotionController) ReverseCeiling() float64 {
	return lc.reverseCeiling
}

func (lc *LocomotionController) State() DriveState {
	return lc.state
}

func (lc *LocomotionController) Config() LocomotionConfig {
	return lc.cfg
}

func wrapDegrees(v float64) float64 {
	v = math.Mod(v, 360)
	if v <= -180 {
		v += 360
	} else if v > 180 {
		v -= 360
	}
	return v
}
