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
	lookInputEpsilon      = 0.01
	recenterIdleThreshold = 2.0 // seconds
	defaultLookAtAngle    = 30.0
)

type LookConfig struct {
	Sensitivity     float64
	VerticalLimit   float64
	HorizontalLimit float64

	Smooth      bool
	SmoothSpeed float64

	RecenterOnIdle bool
	RecenterSpeed  float64

	// LookAtAngle is the default cone half-angle for IsLookingAt, in degrees.
	LookAtAngle float64
}

func DefaultLookConfig() LookConfig {
	return LookConfig{
		Sensitivity:     2,
		VerticalLimit:   80,
		HorizontalLimit: 90,
		Smooth:          true,
		SmoothSpeed:     10,
		RecenterOnIdle:  false,
		RecenterSpeed:   1,
		LookAtAngle:     defaultLookAtAngle,
	}
}

func (c LookConfig) Validate() error {
	if c.Sensitivity < 0 {
		return fmt.Errorf("%w: look sensitivity must not be negative", ErrInvalidConfig)
	}
	if c.VerticalLimit < 0 || c.HorizontalLimit < 0 {
		return fmt.Errorf("%w: look limits must not be negative", ErrInvalidConfig)
	}
	if c.Smooth && !(c.SmoothSpeed > 0) {
		return fmt.Errorf("%w: smooth speed must be positive, got %v", ErrInvalidConfig, c.SmoothSpeed)
	}
	if c.RecenterOnIdle && !(c.RecenterSpeed > 0) {
		return fmt.Errorf("%w: recenter speed must be positive, got %v", ErrInvalidConfig, c.RecenterSpeed)
	}
	if c.LookAtAngle < 0 || c.LookAtAngle > 180 {
		return fmt.Errorf("%w: look-at angle must be within [0, 180]", ErrInvalidConfig)
	}
	return nil
}

// OrientationState is the look controller's per-frame state. Yaw and Pitch are
// degrees; Rotation is the smoothed local rotation actually applied.
type OrientationState struct {
	Yaw      float64
	Pitch    float64
	Target   mgl64.Quat
	Rotation mgl64.Quat
	IdleTime float64
}

type LookController struct {
	cfg    LookConfig
	cursor CursorLock
	parent Pose
	log    logging.Log

	horizontalLimit float64
	verticalLimit   float64

	state OrientationState
}

// NewLookController builds the controller and locks the cursor. cursor and parent may be
// nil; a nil parent is the identity pose at the origin.
func NewLookController(cfg LookConfig, cursor CursorLock, parent Pose, log logging.Log) (*LookController, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lc := &LookController{
		cfg:             cfg,
		cursor:          cursor,
		parent:          parent,
		log:             logging.OrNop(log).Named("look"),
		horizontalLimit: cfg.HorizontalLimit,
		verticalLimit:   cfg.VerticalLimit,
		state: OrientationState{
			Target:   mgl64.QuatIdent(),
			Rotation: mgl64.QuatIdent(),
		},
	}
	if cursor != nil {
		cursor.SetLocked(true)
	}
	return lc, nil
}

// SetConfig replaces the tuning; the configured limits become the new defaults and are
// applied immediately.
func (lc *LookController) SetConfig(cfg LookConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	lc.cfg = cfg
	lc.SetLimits(cfg.HorizontalLimit, cfg.VerticalLimit)
	return nil
}

func (lc *LookController) Update(frame input.Frame) {
	if lc == nil {
		return
	}
	dt := math.Max(frame.Dt, 0)
	dx := frame.LookX * lc.cfg.Sensitivity
	dy := frame.LookY * lc.cfg.Sensitivity

	if math.Abs(dx) > lookInputEpsilon || math.Abs(dy) > lookInputEpsilon {
		lc.state.Yaw = common.Clamp(lc.state.Yaw+dx, -lc.horizontalLimit, lc.horizontalLimit)
		lc.state.Pitch = common.Clamp(lc.state.Pitch-dy, -lc.verticalLimit, lc.verticalLimit)
		lc.state.IdleTime = 0
	} else {
		lc.state.IdleTime += dt
		if lc.cfg.RecenterOnIdle && lc.state.IdleTime > recenterIdleThreshold {
			t := lc.cfg.RecenterSpeed * dt
			lc.state.Yaw = common.Lerp(lc.state.Yaw, 0, t)
			lc.state.Pitch = common.Lerp(lc.state.Pitch, 0, t)
		}
	}

	lc.state.Target = common.Euler(lc.state.Pitch, lc.state.Yaw)
	if lc.cfg.Smooth {
		lc.state.Rotation = common.Slerp(lc.state.Rotation, lc.state.Target, lc.cfg.SmoothSpeed*dt)
	} else {
		lc.state.Rotation = lc.state.Target
	}

	if frame.IsPressed(input.KeyToggleCursor) {
		lc.ToggleCursor()
	}
	if frame.IsPressed(input.KeyRecenterView) {
		lc.Recenter()
	}
}

// ToggleCursor flips the host pointer between locked-hidden and free-visible.
func (lc *LookController) ToggleCursor() {
	if lc.cursor == nil {
		return
	}
	locked := !lc.cursor.Locked()
	lc.cursor.SetLocked(locked)
	lc.log.Debug("cursor toggled", logging.Bool("locked", locked))
}

func (lc *LookController) Recenter() {
	lc.state.Yaw = 0
	lc.state.Pitch = 0
	lc.state.Target = mgl64.QuatIdent()
	lc.state.Rotation = mgl64.QuatIdent()
	lc.log.Info("view recentered")
}

// SetLimits overrides the clamp limits at runtime. Negative values are taken as their
// magnitude; the current angles are re-clamped.
func (lc *LookController) SetLimits(horizontal, vertical float64) {
	lc.horizontalLimit = math.Abs(horizontal)
	lc.verticalLimit = math.Abs(vertical)
	lc.state.Yaw = common.Clamp(lc.state.Yaw, -lc.horizontalLimit, lc.horizontalLimit)
	lc.state.Pitch = common.Clamp(lc.state.Pitch, -lc.verticalLimit, lc.verticalLimit)
}

func (lc *LookController) RestoreLimits() {
	lc.SetLimits(lc.cfg.HorizontalLimit, lc.cfg.VerticalLimit)
}

func (lc *LookController) Limits() (horizontal, vertical float64) {
	return lc.horizontalLimit, lc.verticalLimit
}

// WorldRotation is the parent rotation composed with the smoothed local rotation.
func (lc *LookController) WorldRotation() mgl64.Quat {
	if lc.parent == nil {
		return lc.state.Rotation
	}
	return lc.parent.Rotation().Mul(lc.state.Rotation)
}

// LookDirection is the camera's world forward vector.
func (lc *LookController) LookDirection() mgl64.Vec3 {
	return lc.WorldRotation().Rotate(common.Forward).Normalize()
}

func (lc *LookController) Position() mgl64.Vec3 {
	if lc.parent == nil {
		return mgl64.Vec3{}
	}
	return lc.parent.Position()
}

// IsLookingAt reports whether target lies within the configured cone around the look
// direction.
func (lc *LookController) IsLookingAt(target mgl64.Vec3) bool {
	return lc.IsLookingAtWithin(target, lc.cfg.LookAtAngle)
}

func (lc *LookController) IsLookingAtWithin(target mgl64.Vec3, maxAngle float64) bool {
	toTarget := target.Sub(lc.Position())
	if toTarget.Len() < 1e-9 {
		return true
	}
	return common.AngleBetween(lc.LookDirection(), toTarget) <= maxAngle
}

func (lc *LookController) State() OrientationState {
	return lc.state
}
