package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/wheelchair/common"
	"github.com/milk9111/wheelchair/controller"
)

const (
	defaultStepHeight = 0.3
	groundSkin        = 0.05
	spawnProbe        = 50.0
)

// Body is a kinematic capsule riding on a Course. It implements
// controller.MotionPrimitive and controller.Pose.
type Body struct {
	course   *Course
	pos      mgl64.Vec3
	heading  float64
	grounded bool

	StepHeight float64
}

// NewBody places a body at start, dropped onto the ground below it when there is any.
func NewBody(course *Course, start mgl64.Vec3) *Body {
	if course == nil {
		course = FlatCourse()
	}
	b := &Body{course: course, pos: start, StepHeight: defaultStepHeight}
	if y, ok := course.HeightAt(start.Z(), start.Y()+b.StepHeight, spawnProbe); ok {
		b.pos[1] = y
		b.grounded = true
	}
	return b
}

func (b *Body) Move(d mgl64.Vec3) {
	next := b.pos.Add(d)
	ground, ok := b.course.HeightAt(next.Z(), next.Y()+b.StepHeight, b.StepHeight+groundSkin)
	if ok && next.Y() <= ground+groundSkin {
		next[1] = ground
		b.grounded = true
	} else {
		b.grounded = false
	}
	b.pos = next
}

func (b *Body) Grounded() bool {
	return b.grounded
}

func (b *Body) Position() mgl64.Vec3 {
	return b.pos
}

// Teleport moves the body without ground snapping and marks it airborne.
func (b *Body) Teleport(pos mgl64.Vec3) {
	b.pos = pos
	b.grounded = false
}

// SetHeading sets the yaw in degrees used by Rotation.
func (b *Body) SetHeading(deg float64) {
	b.heading = deg
}

func (b *Body) Heading() float64 {
	return b.heading
}

func (b *Body) Rotation() mgl64.Quat {
	return common.Euler(0, b.heading)
}

func (b *Body) Course() *Course {
	return b.course
}

// SetCourse moves the body onto new terrain, dropping it onto the ground below its
// current position when there is any.
func (b *Body) SetCourse(c *Course) {
	if c == nil {
		c = FlatCourse()
	}
	b.course = c
	if y, ok := c.HeightAt(b.pos.Z(), b.pos.Y()+spawnProbe/2, spawnProbe); ok {
		b.pos[1] = y
		b.grounded = true
	}
}

// Raycast queries whatever course the body is currently on, so a controller holding
// the body keeps working across SetCourse.
func (b *Body) Raycast(origin, direction mgl64.Vec3, maxDistance float64) (controller.RaycastHit, bool) {
	return b.course.Raycast(origin, direction, maxDistance)
}
