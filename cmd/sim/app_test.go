package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/milk9111/wheelchair/prefabs"
	"github.com/milk9111/wheelchair/sim"
	"github.com/milk9111/wheelchair/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestApp(t *testing.T, cfg Config) (*App, *bytes.Buffer) {
	t.Helper()
	if cfg.SpecFile == "" {
		cfg.SpecFile = prefabs.WheelchairFile
	}
	if cfg.Dt == 0 {
		cfg.Dt = sim.DefaultDt
	}
	cfg.LogLevel = "error"
	app, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	var out bytes.Buffer
	app.out = &out
	return app, &out
}

func decodeLines(t *testing.T, out *bytes.Buffer) []telemetry.Snapshot {
	t.Helper()
	var snaps []telemetry.Snapshot
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var s telemetry.Snapshot
		require.NoError(t, json.Unmarshal([]byte(line), &s))
		snaps = append(snaps, s)
	}
	return snaps
}

func TestAppRunsScenarioToCompletion(t *testing.T) {
	const limit = 60 * 30
	app, out := newTestApp(t, Config{Script: "straight", Frames: limit})
	require.NoError(t, app.Run(context.Background()))

	snaps := decodeLines(t, out)
	require.Len(t, snaps, 1)
	assert.Equal(t, "normal", snaps[0].Mode)
	assert.Less(t, snaps[0].Frame, uint64(limit), "the script ends the run, not the frame limit")
	assert.Less(t, snaps[0].Speed, 0.001)
	assert.Greater(t, snaps[0].Position[2], 4.0)
}

func TestAppIdleStopsAtFrameLimit(t *testing.T) {
	app, out := newTestApp(t, Config{Frames: 12})
	require.NoError(t, app.Run(context.Background()))

	snaps := decodeLines(t, out)
	require.Len(t, snaps, 1)
	assert.Equal(t, uint64(12), snaps[0].Frame)
}

func TestAppBatch(t *testing.T) {
	app, out := newTestApp(t, Config{Script: "slalom", Batch: 3, Workers: 2, Frames: 120})
	require.NoError(t, app.Run(context.Background()))

	snaps := decodeLines(t, out)
	require.Len(t, snaps, 3)
	assert.Equal(t, snaps[0].Position, snaps[2].Position)
	assert.NotEqual(t, snaps[0].Run, snaps[1].Run)
}

func TestAppRejectsUnknownScript(t *testing.T) {
	_, _, err := InitializeApp(Config{SpecFile: prefabs.WheelchairFile, Script: "nope", Dt: sim.DefaultDt, LogLevel: "error"})
	assert.Error(t, err)
}

func writeSpec(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), prefabs.WheelchairFile)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestAppWatchForwardsNewestSpec(t *testing.T) {
	data, err := prefabs.SpecsFS.ReadFile(prefabs.WheelchairFile)
	require.NoError(t, err)
	path := writeSpec(t, data)

	app, _ := newTestApp(t, Config{SpecFile: path, Watch: true})
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	reload := make(chan prefabs.WheelchairSpec, 1)
	require.NoError(t, app.watch(ctx, g, reload))

	// an unread spec must not wedge the watcher
	reload <- prefabs.DefaultWheelchairSpec()
	edited := strings.Replace(string(data), "normal_speed_kmh: 6", "normal_speed_kmh: 4", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	require.Eventually(t, func() bool {
		select {
		case spec := <-reload:
			return spec.Drive.NormalSpeedKmh == 4
		default:
			return false
		}
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, g.Wait())
}

func TestAppRunWithWatchStopsAtFrameLimit(t *testing.T) {
	data, err := prefabs.SpecsFS.ReadFile(prefabs.WheelchairFile)
	require.NoError(t, err)

	app, out := newTestApp(t, Config{SpecFile: writeSpec(t, data), Watch: true, Frames: 12})
	require.NoError(t, app.Run(context.Background()))
	require.Len(t, decodeLines(t, out), 1)
}
