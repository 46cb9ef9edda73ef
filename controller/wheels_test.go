package controller

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/wheelchair/common"
	"github.com/milk9111/wheelchair/input"
	"github.com/milk9111/wheelchair/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWheelAngleOverOneSecond(t *testing.T) {
	left, right := newNode("left"), newNode("right")
	wv, err := NewWheelVisualizer(DefaultWheelConfig(), &constSpeed{values: []float64{1}}, WheelRig{Left: left, Right: right}, nil)
	require.NoError(t, err)
	require.True(t, wv.Enabled())

	for i := 0; i < 60; i++ {
		wv.Update(input.Frame{Dt: testDt})
	}

	want := (6 / 3.6) / (math.Pi * 0.6) * 360
	assert.InDelta(t, want, wv.State().Angle, 1e-9)
	assert.InDelta(t, want, wv.AngularRate(1), 1e-9)

	expected := common.Euler(want, 0)
	assert.True(t, left.LocalRotation().ApproxEqualThreshold(expected, 1e-9))
	assert.Equal(t, left.LocalRotation(), right.LocalRotation())
}

func TestWheelsSpinBackwardsWhenReversing(t *testing.T) {
	wv, err := NewWheelVisualizer(DefaultWheelConfig(), &constSpeed{values: []float64{-0.5}}, WheelRig{}, nil)
	require.NoError(t, err)
	wv.Update(input.Frame{Dt: 1})
	assert.Less(t, wv.State().Angle, 0.0)
}

func TestBrakeHookFiresOnStop(t *testing.T) {
	speed := &constSpeed{values: []float64{0.5, 0.3, 0.005, 0, 0.05, 0}}
	wv, err := NewWheelVisualizer(DefaultWheelConfig(), speed, WheelRig{}, nil)
	require.NoError(t, err)

	var fired []float64
	wv.OnBrake(func(prev float64) { fired = append(fired, prev) })
	for i := 0; i < 6; i++ {
		wv.Update(input.Frame{Dt: testDt})
	}
	assert.Equal(t, []float64{0.3}, fired)
}

func TestCasterSpinAndSteer(t *testing.T) {
	caster := newNode("caster")
	rig := WheelRig{Casters: []WheelNode{caster, nil}}
	wv, err := NewWheelVisualizer(DefaultWheelConfig(), &constSpeed{values: []float64{1}}, rig, nil)
	require.NoError(t, err)

	wv.Update(input.Frame{Dt: 0.5, Turn: -2})
	s := wv.State()
	assert.InDelta(t, wv.AngularRate(1)*2*0.5, s.CasterSpin[0], 1e-9)
	assert.Equal(t, 0.0, s.CasterSpin[1])
	assert.Equal(t, -30.0, s.CasterSteer)
	assert.True(t, caster.LocalRotation().ApproxEqualThreshold(common.Euler(s.CasterSpin[0], -30), 1e-9))
}

func TestStopWheelsResetsEverything(t *testing.T) {
	left, caster := newNode("left"), newNode("caster")
	wv, err := NewWheelVisualizer(DefaultWheelConfig(), &constSpeed{values: []float64{1}}, WheelRig{Left: left, Casters: []WheelNode{caster}}, nil)
	require.NoError(t, err)
	wv.Update(input.Frame{Dt: 0.25, Turn: 1})
	require.NotEqual(t, mgl64.QuatIdent(), left.LocalRotation())

	wv.StopWheels()
	s := wv.State()
	assert.Equal(t, 0.0, s.Angle)
	assert.Equal(t, 0.0, s.CasterSteer)
	assert.Equal(t, []float64{0}, s.CasterSpin)
	assert.Equal(t, mgl64.QuatIdent(), left.LocalRotation())
	assert.Equal(t, mgl64.QuatIdent(), caster.LocalRotation())
}

func TestMissingSpeedSourceDisables(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logging.FromZap(zap.New(core))

	var lc *LocomotionController
	left := newNode("left")
	wv, err := NewWheelVisualizer(DefaultWheelConfig(), lc, WheelRig{Left: left}, log)
	require.NoError(t, err)
	assert.False(t, wv.Enabled())

	wv.Update(input.Frame{Dt: 1})
	wv.Update(input.Frame{Dt: 1})
	assert.Equal(t, mgl64.QuatIdent(), left.LocalRotation())

	errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	assert.Len(t, errs, 1)

	wv, err = NewWheelVisualizer(DefaultWheelConfig(), nil, WheelRig{}, nil)
	require.NoError(t, err)
	assert.False(t, wv.Enabled())
}

func TestWheelsFollowLocomotion(t *testing.T) {
	lc, _ := newDrive(t, DefaultLocomotionConfig(), nil)
	wv, err := NewWheelVisualizer(DefaultWheelConfig(), lc, WheelRig{}, nil)
	require.NoError(t, err)

	for i := 0; i < 600; i++ {
		f := driveFrame(1, 0)
		lc.Update(f)
		wv.Update(f)
	}
	assert.InDelta(t, wv.AngularRate(1), wv.State().Rate, 1e-4)
}

func TestWheelConfigValidate(t *testing.T) {
	cfg := DefaultWheelConfig()
	cfg.Diameter = 0
	_, err := NewWheelVisualizer(cfg, nil, WheelRig{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultWheelConfig()
	cfg.CasterMaxSteer = 120
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestDiscoverWheels(t *testing.T) {
	left, right, caster := newNode("Wheel_Left"), newNode("Wheel_Right"), newNode("Caster_Front")
	root := newNode("Wheelchair", left, right, caster)

	rig := DiscoverWheels(root, WheelRig{}, DefaultWheelKeywords())
	assert.Same(t, left, rig.Left)
	assert.Same(t, right, rig.Right)
	require.Len(t, rig.Casters, 1)
	assert.Same(t, caster, rig.Casters[0])
}

func TestDiscoverWheelsKeepsExplicitAndFirstMatch(t *testing.T) {
	explicit := newNode("custom")
	first, second := newNode("RodaDireita"), newNode("right_wheel_2")
	frontWheel := newNode("FrontWheelLeft")
	root := newNode("root",
		newNode("frame", first, frontWheel),
		second,
		newNode("Roda_Esquerda"),
	)

	rig := DiscoverWheels(root, WheelRig{Left: explicit}, DefaultWheelKeywords())
	assert.Same(t, explicit, rig.Left)
	assert.Same(t, first, rig.Right)
	require.Len(t, rig.Casters, 1)
	assert.Same(t, frontWheel, rig.Casters[0])

	assert.Equal(t, WheelRig{}, DiscoverWheels(nil, WheelRig{}, DefaultWheelKeywords()))
}

func TestTypedNilWheelsAreSkipped(t *testing.T) {
	var gone *fakeNode
	right := newNode("right")
	rig := WheelRig{Left: gone, Right: right, Casters: []WheelNode{gone}}
	wv, err := NewWheelVisualizer(DefaultWheelConfig(), &constSpeed{values: []float64{1}}, rig, nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		wv.Update(input.Frame{Dt: testDt, Turn: 1})
		wv.StopWheels()
	})
	assert.Equal(t, mgl64.QuatIdent(), right.rot)

	found := DiscoverWheels(newNode("root", newNode("Wheel_Left")), rig, DefaultWheelKeywords())
	require.NotNil(t, found.Left)
	assert.Equal(t, "Wheel_Left", found.Left.(NamedNode).Name(), "a typed nil slot counts as unassigned")
}
