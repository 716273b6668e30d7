package telemetry_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qmckit/qmcwalk/telemetry"
)

func TestParseLevel(t *testing.T) {
	lvl, err := telemetry.ParseLevel("coarse")
	require.NoError(t, err)
	assert.Equal(t, telemetry.LevelCoarse, lvl)

	lvl, err = telemetry.ParseLevel("fine")
	require.NoError(t, err)
	assert.Equal(t, telemetry.LevelFine, lvl)

	_, err = telemetry.ParseLevel("verbose")
	assert.ErrorIs(t, err, telemetry.ErrBadLevel)
}

func TestTimer_AccumulatesIntervals(t *testing.T) {
	reg := telemetry.NewRegistry(telemetry.LevelFine)
	tm := reg.Timer("work", telemetry.LevelFine)

	tm.Start()
	time.Sleep(2 * time.Millisecond)
	tm.Stop()
	tm.Start()
	tm.Stop()

	stats := reg.Snapshot()
	require.Len(t, stats, 1)
	assert.Equal(t, "work", stats[0].Name)
	assert.Equal(t, int64(2), stats[0].Calls)
	assert.GreaterOrEqual(t, stats[0].Total, 2*time.Millisecond)
}

func TestTimer_UnmatchedStopIsHarmless(t *testing.T) {
	reg := telemetry.NewRegistry(telemetry.LevelFine)
	tm := reg.Timer("work", telemetry.LevelFine)

	tm.Stop()
	stats := reg.Snapshot()
	require.Len(t, stats, 1)
	assert.Zero(t, stats[0].Calls)
	assert.Zero(t, stats[0].Total)
}

func TestRegistry_ThresholdDisablesFineTimers(t *testing.T) {
	reg := telemetry.NewRegistry(telemetry.LevelCoarse)
	coarse := reg.Timer("total", telemetry.LevelCoarse)
	fine := reg.Timer("stage", telemetry.LevelFine)

	coarse.Start()
	coarse.Stop()
	fine.Start()
	fine.Stop()

	stats := reg.Snapshot()
	require.Len(t, stats, 1)
	assert.Equal(t, "total", stats[0].Name)
}

func TestRegistry_TimerLookupIsStable(t *testing.T) {
	reg := telemetry.NewRegistry(telemetry.LevelFine)
	a := reg.Timer("diffusion", telemetry.LevelFine)
	b := reg.Timer("diffusion", telemetry.LevelFine)
	assert.Same(t, a, b)
}

func TestRegistry_ScopedAndReport(t *testing.T) {
	reg := telemetry.NewRegistry(telemetry.LevelFine)
	tm := reg.Timer("scoped", telemetry.LevelFine)

	func() {
		defer tm.Scoped()()
		time.Sleep(time.Millisecond)
	}()

	stats := reg.Snapshot()
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1), stats[0].Calls)

	// Report must not panic on a populated registry.
	reg.Report(zap.NewNop())
}
