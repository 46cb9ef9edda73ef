package controller

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/wheelchair/common"
	"github.com/milk9111/wheelchair/input"
)

const testDt = 1.0 / 60.0

type fakeBody struct {
	pos      mgl64.Vec3
	grounded bool
	moves    []mgl64.Vec3
}

func (b *fakeBody) Move(d mgl64.Vec3) {
	b.moves = append(b.moves, d)
	b.pos = b.pos.Add(d)
	if b.grounded {
		b.pos[1] = 0
	}
}

func (b *fakeBody) Grounded() bool       { return b.grounded }
func (b *fakeBody) Position() mgl64.Vec3 { return b.pos }

// fakeSlope answers every ray with the same surface. A zero normal means no hit.
type fakeSlope struct {
	normal mgl64.Vec3
	casts  int
}

func (s *fakeSlope) Raycast(origin, direction mgl64.Vec3, maxDistance float64) (RaycastHit, bool) {
	s.casts++
	if s.normal.Len() == 0 {
		return RaycastHit{}, false
	}
	return RaycastHit{Point: origin.Add(direction.Normalize().Mul(maxDistance / 2)), Normal: s.normal, Distance: maxDistance / 2}, true
}

// tilted returns a surface normal leaning deg degrees away from up.
func tilted(deg float64) mgl64.Vec3 {
	return mgl64.QuatRotate(mgl64.DegToRad(deg), common.Right).Rotate(common.Up)
}

type fakeCursor struct {
	locked bool
	calls  int
}

func (c *fakeCursor) SetLocked(locked bool) {
	c.locked = locked
	c.calls++
}

func (c *fakeCursor) Locked() bool { return c.locked }

type fakePose struct {
	pos mgl64.Vec3
	rot mgl64.Quat
}

func (p fakePose) Position() mgl64.Vec3 { return p.pos }
func (p fakePose) Rotation() mgl64.Quat { return p.rot }

type constSpeed struct {
	values []float64
	i      int
}

func (s *constSpeed) NormalizedSpeed() float64 {
	v := s.values[s.i]
	if s.i < len(s.values)-1 {
		s.i++
	}
	return v
}

type fakeNode struct {
	name     string
	rot      mgl64.Quat
	children []NamedNode
}

func newNode(name string, children ...NamedNode) *fakeNode {
	return &fakeNode{name: name, rot: mgl64.QuatIdent(), children: children}
}

func (n *fakeNode) SetLocalRotation(q mgl64.Quat) { n.rot = q }
func (n *fakeNode) LocalRotation() mgl64.Quat     { return n.rot }
func (n *fakeNode) Name() string                  { return n.name }
func (n *fakeNode) Children() []NamedNode         { return n.children }

func driveFrame(forward, turn float64) input.Frame {
	return input.Frame{Dt: testDt, Forward: forward, Turn: turn}
}

func pressFrame(k input.Key) input.Frame {
	return input.Frame{Dt: testDt, Pressed: input.NewKeySet(k), Held: input.NewKeySet(k)}
}
