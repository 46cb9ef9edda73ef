package script

import (
	"errors"
	"testing"

	"github.com/milk9111/wheelchair/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 0.1

func TestScenarioFramesFollowTime(t *testing.T) {
	src := []byte(`
drive := func(t, state) {
	if t < 0.25 {
		return {forward: 1, turn: -0.5, look_x: 3}
	}
	return {forward: -2, done: t >= 0.35}
}`)
	s, err := Compile("timed", src, dt, nil)
	require.NoError(t, err)

	f := s.NextFrame()
	assert.Equal(t, dt, f.Dt)
	assert.Equal(t, 1.0, f.Forward)
	assert.Equal(t, -0.5, f.Turn)
	assert.Equal(t, 3.0, f.LookX)

	s.NextFrame()
	s.NextFrame()
	f = s.NextFrame()
	assert.Equal(t, -1.0, f.Forward, "axes are clamped")
	assert.False(t, s.Done())

	s.NextFrame()
	assert.True(t, s.Done())
	assert.NoError(t, s.Err())

	f = s.NextFrame()
	assert.Equal(t, input.Frame{Dt: dt}, f)
}

func TestScenarioHoldProducesEdges(t *testing.T) {
	src := []byte(`
drive := func(t, state) {
	if t < 0.15 {
		return {hold: ["emergency_brake", "bogus"]}
	}
	return {}
}`)
	s, err := Compile("edges", src, dt, nil)
	require.NoError(t, err)

	f := s.NextFrame()
	assert.True(t, f.IsPressed(input.KeyEmergencyBrake))
	assert.True(t, f.IsHeld(input.KeyEmergencyBrake))

	f = s.NextFrame()
	assert.False(t, f.IsPressed(input.KeyEmergencyBrake))
	assert.True(t, f.IsHeld(input.KeyEmergencyBrake))

	f = s.NextFrame()
	assert.True(t, f.IsReleased(input.KeyEmergencyBrake))
	assert.False(t, f.IsHeld(input.KeyEmergencyBrake))
}

func TestScenarioSeesState(t *testing.T) {
	src := []byte(`
drive := func(t, state) {
	return {forward: state.speed > 1 ? 0 : 1, done: state.mode == "disabled"}
}`)
	s, err := Compile("state", src, dt, nil)
	require.NoError(t, err)

	speed, mode := 0.5, "normal"
	s.SetState(func() map[string]any { return map[string]any{"speed": speed, "mode": mode} })

	assert.Equal(t, 1.0, s.NextFrame().Forward)
	speed = 1.5
	assert.Equal(t, 0.0, s.NextFrame().Forward)
	mode = "disabled"
	s.NextFrame()
	assert.True(t, s.Done())
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile("syntax", []byte(`drive := func(t, state) {`), dt, nil)
	assert.ErrorContains(t, err, "script: compile syntax")

	_, err = Compile("no_func", []byte(`drive := 5`), dt, nil)
	assert.True(t, errors.Is(err, ErrNoDriveFunc), "got %v", err)
}

func TestRuntimeErrorStopsScenario(t *testing.T) {
	s, err := Compile("bad", []byte(`drive := func(t, state) { return {forward: "fast"} }`), dt, nil)
	require.NoError(t, err)

	f := s.NextFrame()
	assert.Equal(t, input.Frame{Dt: dt}, f)
	assert.True(t, s.Done())
	assert.True(t, errors.Is(s.Err(), ErrBadResult))

	s, err = Compile("runtime", []byte(`drive := func(t, state) { return {forward: 1 / state.zero} }`), dt, nil)
	require.NoError(t, err)
	s.NextFrame()
	assert.Error(t, s.Err())
}

func TestCloneRestarts(t *testing.T) {
	s, err := Compile("clock", []byte(`drive := func(t, state) { return {forward: t} }`), dt, nil)
	require.NoError(t, err)
	s.NextFrame()
	s.NextFrame()
	assert.InDelta(t, 0.2, s.Elapsed(), 1e-12)

	c := s.Clone()
	assert.Zero(t, c.Elapsed())
	assert.Equal(t, 0.0, c.NextFrame().Forward)
	assert.InDelta(t, 0.2, s.NextFrame().Forward, 1e-12)
}

func TestEmbeddedScenariosCompile(t *testing.T) {
	for _, name := range []string{"straight", "slalom", "emergency_stop", "ramp"} {
		t.Run(name, func(t *testing.T) {
			s, err := Load(name, 1.0/60, nil)
			require.NoError(t, err)
			s.SetState(func() map[string]any {
				return map[string]any{"speed": 0.0, "slope_blocked": false, "mode": "normal"}
			})
			s.NextFrame()
			assert.NoError(t, s.Err())
		})
	}
}
