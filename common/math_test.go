package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestMoveTowardsDoesNotOvershoot(t *testing.T) {
	tests := []struct {
		name                   string
		current, target, delta float64
		want                   float64
	}{
		{"step_up", 0, 1, 0.25, 0.25},
		{"step_down", 1, -1, 0.5, 0.5},
		{"reach", 0.9, 1, 0.5, 1},
		{"reach_negative", -0.1, -0.2, 0.5, -0.2},
		{"zero_delta", 0.3, 1, 0, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MoveTowards(tt.current, tt.target, tt.delta), 1e-12)
		})
	}
}

func TestLerpClampsT(t *testing.T) {
	assert.Equal(t, 10.0, Lerp(0, 10, 5))
	assert.Equal(t, 0.0, Lerp(0, 10, -1))
	assert.InDelta(t, 2.5, Lerp(0, 10, 0.25), 1e-12)
}

func TestAngleBetween(t *testing.T) {
	assert.InDelta(t, 90, AngleBetween(Up, Forward), 1e-9)
	assert.InDelta(t, 0, AngleBetween(Up, Up.Mul(3)), 1e-9)
	assert.InDelta(t, 180, AngleBetween(Up, Up.Mul(-1)), 1e-9)
	assert.Equal(t, 0.0, AngleBetween(mgl64.Vec3{}, Up))
}

func TestEulerYawTurnsForwardTowardRight(t *testing.T) {
	f := Euler(0, 90).Rotate(Forward)
	assert.InDelta(t, 1, f.X(), 1e-9)
	assert.InDelta(t, 0, f.Z(), 1e-9)

	down := Euler(90, 0).Rotate(Forward)
	assert.InDelta(t, -1, down.Y(), 1e-9)
}

func TestSlerpEndpoints(t *testing.T) {
	target := Euler(10, 20)
	assert.Equal(t, mgl64.QuatIdent(), Slerp(mgl64.QuatIdent(), target, 0))
	assert.Equal(t, target, Slerp(mgl64.QuatIdent(), target, 3))

	half := Slerp(mgl64.QuatIdent(), Euler(0, 40), 0.5)
	f := half.Rotate(Forward)
	assert.InDelta(t, 20, mgl64.RadToDeg(math.Atan2(f.X(), f.Z())), 1e-6)
}
