// Package scene is the reference host for the controllers: a Chipmunk2D terrain
// profile standing in for the world, a kinematic body that rides on it and a small
// scene graph for wheel discovery.
package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/wheelchair/controller"
)

var (
	ErrShortProfile    = errors.New("scene: course profile needs at least two points")
	ErrUnsortedProfile = errors.New("scene: course profile must be strictly increasing in z")
)

const (
	runout          = 1000.0 // metres of flat ground added past each end
	segmentFriction = 0.9
	planeEpsilon    = 1e-9
)

// Point is one vertex of the terrain profile. Z runs along the course, Y is height.
type Point struct {
	Z float64
	Y float64
}

// Course is a height profile along the world Z axis, constant across X. It is stored
// as static segments in a Chipmunk space, with the space X axis carrying world Z.
type Course struct {
	space    *cp.Space
	profile  []Point
	verts    []Point // profile plus the runouts
	segments []*cp.Shape
}

func NewCourse(profile []Point) (*Course, error) {
	if len(profile) < 2 {
		return nil, ErrShortProfile
	}
	for i := 1; i < len(profile); i++ {
		if !(profile[i].Z > profile[i-1].Z) {
			return nil, fmt.Errorf("%w: point %d at z=%v", ErrUnsortedProfile, i, profile[i].Z)
		}
	}

	space := cp.NewSpace()
	c := &Course{space: space, profile: append([]Point(nil), profile...)}

	first, last := profile[0], profile[len(profile)-1]
	c.verts = make([]Point, 0, len(profile)+2)
	c.verts = append(c.verts, Point{Z: first.Z - runout, Y: first.Y})
	c.verts = append(c.verts, profile...)
	c.verts = append(c.verts, Point{Z: last.Z + runout, Y: last.Y})

	for i := 1; i < len(c.verts); i++ {
		a, b := c.verts[i-1], c.verts[i]
		shape := cp.NewSegment(space.StaticBody, cp.Vector{X: a.Z, Y: a.Y}, cp.Vector{X: b.Z, Y: b.Y}, 0)
		shape.SetFriction(segmentFriction)
		space.AddShape(shape)
		c.segments = append(c.segments, shape)
	}
	return c, nil
}

// FlatCourse is a level floor at y=0.
func FlatCourse() *Course {
	c, _ := NewCourse([]Point{{Z: -1, Y: 0}, {Z: 1, Y: 0}})
	return c
}

func (c *Course) Profile() []Point {
	return append([]Point(nil), c.profile...)
}

func (c *Course) Space() *cp.Space {
	return c.space
}

// Raycast implements controller.SlopeQuery. Rays with no extent along the course
// never hit, since the terrain does not vary across X.
func (c *Course) Raycast(origin, direction mgl64.Vec3, maxDistance float64) (controller.RaycastHit, bool) {
	if direction.Len() < planeEpsilon || !(maxDistance > 0) {
		return controller.RaycastHit{}, false
	}
	end := origin.Add(direction.Normalize().Mul(maxDistance))
	start2, end2 := toPlane(origin), toPlane(end)
	if start2.Distance(end2) < planeEpsilon {
		return controller.RaycastHit{}, false
	}

	info := c.space.SegmentQueryFirst(start2, end2, 0, cp.SHAPE_FILTER_ALL)
	if info.Shape == nil {
		return controller.RaycastHit{}, false
	}
	return controller.RaycastHit{
		Point:    origin.Add(end.Sub(origin).Mul(info.Alpha)),
		Normal:   mgl64.Vec3{0, info.Normal.Y, info.Normal.X}.Normalize(),
		Distance: maxDistance * info.Alpha,
	}, true
}

// HeightAt probes straight down from (z, fromY) for at most depth metres. The height
// is read back from the profile so flat ground reports exactly its own level.
func (c *Course) HeightAt(z, fromY, depth float64) (float64, bool) {
	if !(depth > 0) {
		return 0, false
	}
	info := c.space.SegmentQueryFirst(cp.Vector{X: z, Y: fromY}, cp.Vector{X: z, Y: fromY - depth}, 0, cp.SHAPE_FILTER_ALL)
	if info.Shape == nil {
		return 0, false
	}
	return c.Height(z), true
}

// Height is the terrain height at z, runouts included.
func (c *Course) Height(z float64) float64 {
	v := c.verts
	if z <= v[0].Z {
		return v[0].Y
	}
	for i := 1; i < len(v); i++ {
		if z <= v[i].Z {
			a, b := v[i-1], v[i]
			return a.Y + (b.Y-a.Y)*(z-a.Z)/(b.Z-a.Z)
		}
	}
	return v[len(v)-1].Y
}

// SlopeAt is the terrain incline in degrees at z, positive uphill along +Z.
func (c *Course) SlopeAt(z float64) float64 {
	p := c.profile
	if z <= p[0].Z || z >= p[len(p)-1].Z {
		return 0
	}
	for i := 1; i < len(p); i++ {
		if z < p[i].Z {
			return mgl64.RadToDeg(math.Atan2(p[i].Y-p[i-1].Y, p[i].Z-p[i-1].Z))
		}
	}
	return 0
}

func toPlane(v mgl64.Vec3) cp.Vector {
	return cp.Vector{X: v.Z(), Y: v.Y()}
}
