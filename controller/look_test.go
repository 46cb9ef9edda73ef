package controller

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/wheelchair/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLook(t *testing.T, mutate func(c *LookConfig)) (*LookController, *fakeCursor) {
	t.Helper()
	cfg := DefaultLookConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	cursor := &fakeCursor{}
	lc, err := NewLookController(cfg, cursor, nil, nil)
	require.NoError(t, err)
	return lc, cursor
}

func lookFrame(dx, dy float64) input.Frame {
	return input.Frame{Dt: testDt, LookX: dx, LookY: dy}
}

func TestLookStaysWithinLimits(t *testing.T) {
	lc, _ := newLook(t, nil)
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 5000; i++ {
		lc.Update(lookFrame(r.NormFloat64()*40, r.NormFloat64()*40))
		s := lc.State()
		require.LessOrEqual(t, s.Yaw, 90.0)
		require.GreaterOrEqual(t, s.Yaw, -90.0)
		require.LessOrEqual(t, s.Pitch, 80.0)
		require.GreaterOrEqual(t, s.Pitch, -80.0)
	}
}

func TestLookAppliesSensitivityAndInvertsPitch(t *testing.T) {
	lc, _ := newLook(t, nil)
	lc.Update(lookFrame(5, -10))
	assert.Equal(t, 10.0, lc.State().Yaw)
	assert.Equal(t, 20.0, lc.State().Pitch)
	assert.Equal(t, 0.0, lc.State().IdleTime)
}

func TestLookIgnoresTinyDeltas(t *testing.T) {
	lc, _ := newLook(t, nil)
	// 0.004 * sensitivity 2 stays under the input threshold
	lc.Update(lookFrame(0.004, 0.004))
	assert.Equal(t, 0.0, lc.State().Yaw)
	assert.InDelta(t, testDt, lc.State().IdleTime, 1e-12)
}

func TestRecenterOnIdleConverges(t *testing.T) {
	lc, _ := newLook(t, func(c *LookConfig) { c.RecenterOnIdle = true })
	lc.Update(lookFrame(20, -10))
	require.Equal(t, 40.0, lc.State().Yaw)
	require.Equal(t, 20.0, lc.State().Pitch)

	for i := 0; i < 119; i++ {
		lc.Update(lookFrame(0, 0))
	}
	assert.Equal(t, 40.0, lc.State().Yaw, "no recentering before the idle threshold")

	prevYaw, prevPitch := lc.State().Yaw, lc.State().Pitch
	for i := 0; i < 3000; i++ {
		lc.Update(lookFrame(0, 0))
		s := lc.State()
		require.LessOrEqual(t, s.Yaw, prevYaw)
		require.LessOrEqual(t, s.Pitch, prevPitch)
		require.GreaterOrEqual(t, s.Yaw, 0.0)
		prevYaw, prevPitch = s.Yaw, s.Pitch
	}
	assert.InDelta(t, 0, prevYaw, 1e-3)
	assert.InDelta(t, 0, prevPitch, 1e-3)
}

func TestSmoothingLagsTarget(t *testing.T) {
	lc, _ := newLook(t, nil)
	lc.Update(lookFrame(45, 0))
	s := lc.State()
	assert.False(t, s.Rotation.ApproxEqualThreshold(s.Target, 1e-6))

	for i := 0; i < 600; i++ {
		lc.Update(lookFrame(0, 0))
	}
	s = lc.State()
	assert.True(t, s.Rotation.ApproxEqualThreshold(s.Target, 1e-6))
}

func TestLookDirectionWithoutSmoothing(t *testing.T) {
	lc, _ := newLook(t, func(c *LookConfig) { c.Smooth = false })
	lc.Update(lookFrame(45, 0))
	dir := lc.LookDirection()
	assert.InDelta(t, 1, dir.X(), 1e-9)
	assert.InDelta(t, 0, dir.Z(), 1e-9)

	assert.True(t, lc.IsLookingAt(mgl64.Vec3{10, 0, 0}))
	assert.False(t, lc.IsLookingAt(mgl64.Vec3{0, 0, 10}))
	assert.True(t, lc.IsLookingAtWithin(mgl64.Vec3{0, 0, 10}, 91))
}

func TestLookDirectionFollowsParent(t *testing.T) {
	cfg := DefaultLookConfig()
	cfg.Smooth = false
	parent := fakePose{pos: mgl64.Vec3{0, 1, 0}, rot: mgl64.QuatRotate(mgl64.DegToRad(180), mgl64.Vec3{0, 1, 0})}
	lc, err := NewLookController(cfg, nil, parent, nil)
	require.NoError(t, err)

	dir := lc.LookDirection()
	assert.InDelta(t, -1, dir.Z(), 1e-9)
	assert.True(t, lc.IsLookingAt(mgl64.Vec3{1, 1, -10}))
	assert.False(t, lc.IsLookingAt(mgl64.Vec3{0, 1, 10}))
}

func TestCursorLockedAndToggled(t *testing.T) {
	lc, cursor := newLook(t, nil)
	require.True(t, cursor.Locked())

	lc.Update(pressFrame(input.KeyToggleCursor))
	assert.False(t, cursor.Locked())
	lc.Update(pressFrame(input.KeyToggleCursor))
	assert.True(t, cursor.Locked())
	assert.Equal(t, 3, cursor.calls)
}

func TestRecenterKeySnapsToIdentity(t *testing.T) {
	lc, _ := newLook(t, nil)
	lc.Update(lookFrame(10, 10))

	frame := pressFrame(input.KeyRecenterView)
	frame.LookX = 10
	lc.Update(frame)

	s := lc.State()
	assert.Equal(t, 0.0, s.Yaw)
	assert.Equal(t, 0.0, s.Pitch)
	assert.Equal(t, mgl64.QuatIdent(), s.Rotation)
}

func TestSetLimitsReclampsAndRestores(t *testing.T) {
	lc, _ := newLook(t, nil)
	lc.Update(lookFrame(40, -30))
	require.Equal(t, 80.0, lc.State().Yaw)
	require.Equal(t, 60.0, lc.State().Pitch)

	lc.SetLimits(-30, 15)
	h, v := lc.Limits()
	assert.Equal(t, 30.0, h)
	assert.Equal(t, 15.0, v)
	assert.Equal(t, 30.0, lc.State().Yaw)
	assert.Equal(t, 15.0, lc.State().Pitch)

	lc.RestoreLimits()
	lc.Update(lookFrame(40, 0))
	assert.Equal(t, 90.0, lc.State().Yaw)
}

func TestLookConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *LookConfig)
	}{
		{"negative_limit", func(c *LookConfig) { c.VerticalLimit = -1 }},
		{"zero_smooth_speed", func(c *LookConfig) { c.SmoothSpeed = 0 }},
		{"zero_recenter_speed", func(c *LookConfig) { c.RecenterOnIdle = true; c.RecenterSpeed = 0 }},
		{"wide_cone", func(c *LookConfig) { c.LookAtAngle = 200 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLookConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	cfg := DefaultLookConfig()
	cfg.Smooth = false
	cfg.SmoothSpeed = 0
	assert.NoError(t, cfg.Validate())
}
