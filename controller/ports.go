// Package controller holds the three per-frame wheelchair components: the look
// controller, the locomotion controller and the wheel visualizer. Host systems are
// reached only through the small ports declared here.
package controller

import "github.com/go-gl/mathgl/mgl64"

// MotionPrimitive is the host's character mover.
type MotionPrimitive interface {
	// Move displaces the body by d (world space, already scaled by dt).
	Move(d mgl64.Vec3)
	// Grounded reports whether the body rested on a surface after the last Move.
	Grounded() bool
	Position() mgl64.Vec3
}

type RaycastHit struct {
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
}

// SlopeQuery casts a ray of at most maxDistance along direction (need not be unit length).
type SlopeQuery interface {
	Raycast(origin, direction mgl64.Vec3, maxDistance float64) (RaycastHit, bool)
}

// CursorLock is the host pointer state toggled by the look controller.
type CursorLock interface {
	SetLocked(locked bool)
	Locked() bool
}

// Pose is the world transform a camera rig is mounted on.
type Pose interface {
	Position() mgl64.Vec3
	Rotation() mgl64.Quat
}

type SpeedSource interface {
	NormalizedSpeed() float64
}

type WheelNode interface {
	SetLocalRotation(q mgl64.Quat)
	LocalRotation() mgl64.Quat
}

// NamedNode is a scene-graph node that can be searched by name.
type NamedNode interface {
	WheelNode
	Name() string
	Children() []NamedNode
}
