package main

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/wheelchair/common"
	"github.com/milk9111/wheelchair/sim"
	"golang.org/x/image/colornames"
)

const (
	topScale     = 60.0 // px per metre, top-down view
	profileScale = 40.0 // px per metre, side view
	profileTop   = common.BaseHeight * 0.7

	chairWidth  = 0.7
	chairLength = 1.0
	lookLength  = 2.5
)

// topDown maps world x/z around the chair to the upper view; +z points up the screen.
type topDown struct {
	center mgl64.Vec3
}

func (v topDown) point(p mgl64.Vec3) (float32, float32) {
	x := common.BaseWidth/2 + (p.X()-v.center.X())*topScale
	y := profileTop/2 - (p.Z()-v.center.Z())*topScale
	return float32(x), float32(y)
}

func (v topDown) line(dst *ebiten.Image, a, b mgl64.Vec3, width float32, clr color.Color) {
	ax, ay := v.point(a)
	bx, by := v.point(b)
	vector.StrokeLine(dst, ax, ay, bx, by, width, clr, true)
}

func drawWorld(screen *ebiten.Image, s *sim.Simulation) {
	screen.Fill(colornames.Darkslategray)
	drawTopDown(screen, s)
	drawProfile(screen, s)
}

func slopeColor(deg, limit float64) color.Color {
	switch {
	case math.Abs(deg) > limit:
		return colornames.Indianred
	case math.Abs(deg) > limit*0.6:
		return colornames.Orange
	case deg != 0:
		return colornames.Darkseagreen
	default:
		return colornames.Dimgray
	}
}

func drawTopDown(screen *ebiten.Image, s *sim.Simulation) {
	body := s.Body()
	pos := body.Position()
	v := topDown{center: pos}
	limit := s.Drive().Config().MaxSlope

	// one band per metre of course, tinted by its incline
	halfW := common.BaseWidth / 2 / topScale
	halfH := profileTop / 2 / topScale
	for z := math.Floor(pos.Z() - halfH); z <= pos.Z()+halfH; z++ {
		clr := slopeColor(s.Course().SlopeAt(z+0.5), limit)
		v.line(screen, mgl64.Vec3{pos.X() - halfW, 0, z}, mgl64.Vec3{pos.X() + halfW, 0, z}, 1, clr)
	}
	for x := math.Floor(pos.X() - halfW); x <= pos.X()+halfW; x++ {
		v.line(screen, mgl64.Vec3{x, 0, pos.Z() - halfH}, mgl64.Vec3{x, 0, pos.Z() + halfH}, 1, colornames.Dimgray)
	}

	rot := body.Rotation()
	at := func(right, forward float64) mgl64.Vec3 {
		return pos.Add(rot.Rotate(mgl64.Vec3{right, 0, forward}))
	}
	w, l := chairWidth/2, chairLength/2
	corners := []mgl64.Vec3{at(-w, -l), at(w, -l), at(w, l), at(-w, l)}
	frame := colornames.Lightsteelblue
	if s.Drive().State().EmergencyBrake {
		frame = colornames.Red
	}
	for i := range corners {
		v.line(screen, corners[i], corners[(i+1)%len(corners)], 2, frame)
	}

	// rear wheels along the sides, casters steering at the front
	for _, side := range []float64{-w, w} {
		v.line(screen, at(side, -l-0.15), at(side, -l+0.45), 5, colornames.Black)
	}
	steer := mgl64.QuatRotate(mgl64.DegToRad(s.Wheels().State().CasterSteer), common.Up)
	for _, side := range []float64{-w + 0.1, w - 0.1} {
		hub := at(side, l)
		tip := hub.Add(rot.Mul(steer).Rotate(mgl64.Vec3{0, 0, 0.12}))
		v.line(screen, hub, tip, 3, colornames.Black)
	}

	dir := s.Look().LookDirection()
	flat := mgl64.Vec3{dir.X(), 0, dir.Z()}
	if flat.Len() > 1e-6 {
		eye := s.Look().Position()
		v.line(screen, eye, eye.Add(flat.Normalize().Mul(lookLength)), 1, colornames.Gold)
	}
}

func drawProfile(screen *ebiten.Image, s *sim.Simulation) {
	vector.FillRect(screen, 0, profileTop, common.BaseWidth, common.BaseHeight-profileTop, colornames.Midnightblue, false)

	pos := s.Body().Position()
	baseY := profileTop + (common.BaseHeight-profileTop)*0.75
	point := func(z, y float64) (float32, float32) {
		return float32(common.BaseWidth/2 + (z-pos.Z())*profileScale), float32(baseY - (y-pos.Y())*profileScale)
	}

	limit := s.Drive().Config().MaxSlope
	halfW := common.BaseWidth / 2 / profileScale
	from, to := pos.Z()-halfW, pos.Z()+halfW
	course := s.Course()
	verts := course.Profile()
	zs := []float64{from}
	for _, p := range verts {
		if p.Z > from && p.Z < to {
			zs = append(zs, p.Z)
		}
	}
	zs = append(zs, to)
	for i := 1; i < len(zs); i++ {
		a, b := zs[i-1], zs[i]
		ax, ay := point(a, course.Height(a))
		bx, by := point(b, course.Height(b))
		vector.StrokeLine(screen, ax, ay, bx, by, 3, slopeColor(course.SlopeAt((a+b)/2), limit), true)
	}

	// rear wheel with one spoke turning at the wheel angle
	radius := s.Wheels().Config().Diameter / 2
	cx, cy := point(pos.Z(), pos.Y()+radius)
	r := float32(radius * profileScale)
	vector.StrokeCircle(screen, cx, cy, r, 2, colornames.Lightsteelblue, true)
	angle := mgl64.DegToRad(s.Wheels().State().Angle)
	sx := cx + r*float32(math.Sin(angle))
	sy := cy - r*float32(math.Cos(angle))
	vector.StrokeLine(screen, cx, cy, sx, sy, 2, colornames.Lightsteelblue, true)
}

func drawHUD(screen *ebiten.Image, g *Game) {
	snap := g.sim.Snapshot()
	drive := g.sim.Drive().State()

	var b strings.Builder
	fmt.Fprintf(&b, "Frames: %d    FPS: %.2f\n", g.frames, ebiten.ActualFPS())
	fmt.Fprintf(&b, "mode %-8s speed %5.2f km/h  heading %6.1f\n", snap.Mode, snap.Speed*common.KmhToMs, snap.Heading)
	fmt.Fprintf(&b, "look yaw %6.1f pitch %6.1f  cursor locked %v\n", snap.Yaw, snap.Pitch, ebitenCursor{}.Locked())
	if drive.SlopeBlocked {
		b.WriteString("SLOPE TOO STEEP\n")
	}
	if drive.EmergencyBrake {
		b.WriteString("EMERGENCY BRAKE\n")
	}
	if g.scenario != nil {
		fmt.Fprintf(&b, "scenario %s t=%.1f done=%v\n", g.scenario.Name(), g.scenario.Elapsed(), g.scenario.Done())
	}
	if g.debug {
		fmt.Fprintf(&b, "pos %.2f %.2f %.2f grounded %v\n", snap.Position[0], snap.Position[1], snap.Position[2], snap.Grounded)
		fmt.Fprintf(&b, "wheel %.0f deg  normalized %.2f  run %s\n", snap.WheelAngle, snap.NormalizedSpeed, snap.Run)
	}
	if g.statusTTL > 0 {
		b.WriteString(g.status + "\n")
	}
	b.WriteString("WASD drive  1/2 mode  Space brake  Tab cursor  R recenter  F2 copy  Esc pause")
	ebitenutil.DebugPrint(screen, b.String())
}
