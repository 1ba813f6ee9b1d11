package simulate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ngmaloney/marine-navigator/internal/geo"
	"github.com/ngmaloney/marine-navigator/internal/models"
	"github.com/ngmaloney/marine-navigator/internal/navigation"
	"github.com/ngmaloney/marine-navigator/internal/route"
)

func testRoute(t *testing.T) models.Route {
	t.Helper()
	r, err := route.GenerateRoute(
		models.Location{Lat: 0, Lon: 0, Name: "Start"},
		models.Location{Lat: 0.05, Lon: 0.05, Name: "Harbor"}, 6)
	require.NoError(t, err)
	out, err := route.AddWaypoint(*r, models.Location{Lat: 0, Lon: 0.05, Name: "Mid"})
	require.NoError(t, err)
	return out
}

func TestReplay_Step(t *testing.T) {
	r := testRoute(t)
	// one simulated minute per tick at 6 kn covers 0.1 NM
	rp := NewReplay(Options{Route: r, Interval: time.Second, TimeScale: 60, Logger: zap.NewNop()})

	fix, ok := rp.Step()
	require.True(t, ok)
	assert.InDelta(t, 0.1, geo.Distance(0, 0, fix.Lat, fix.Lon), 1e-6)
	require.NotNil(t, fix.HeadingDeg)
	assert.InDelta(t, 90, *fix.HeadingDeg, 1e-6)
	require.NotNil(t, fix.SpeedMPS)
	assert.InDelta(t, 6, geo.KnotsFromMetersPerSecond(*fix.SpeedMPS), 1e-6)
}

func TestReplay_TurnsAtWaypoints(t *testing.T) {
	r := testRoute(t)
	firstLeg := r.Legs()[0].Distance
	rp := NewReplay(Options{Route: r, Interval: time.Second, TimeScale: 60, Logger: zap.NewNop()})

	var fix models.Fix
	for i := 0; i < int(firstLeg/0.1)+2; i++ {
		var ok bool
		fix, ok = rp.Step()
		require.True(t, ok)
	}
	assert.InDelta(t, 0, *fix.HeadingDeg, 0.1, "heading north on the second leg")
	assert.False(t, rp.Finished())

	for i := 0; i < 100 && !rp.Finished(); i++ {
		fix, _ = rp.Step()
	}
	assert.True(t, rp.Finished())
	fix, _ = rp.Step()
	assert.InDelta(t, 0.05, fix.Lat, 1e-9)
	assert.InDelta(t, 0.05, fix.Lon, 1e-9)
	assert.Equal(t, 0.0, *fix.SpeedMPS)
}

func TestReplay_Dropouts(t *testing.T) {
	rp := NewReplay(Options{Route: testRoute(t), DropoutEvery: 3, Logger: zap.NewNop()})

	var results []bool
	for i := 0; i < 6; i++ {
		_, ok := rp.Step()
		results = append(results, ok)
	}
	assert.Equal(t, []bool{true, true, false, true, true, false}, results)
}

func TestReplay_DenyPermission(t *testing.T) {
	rp := NewReplay(Options{Route: testRoute(t), DenyPermission: true, Logger: zap.NewNop()})
	err := rp.RequestPermission(context.Background())
	var pe *navigation.PositionError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, navigation.ErrPermissionDenied, pe.Kind)

	allowed := NewReplay(Options{Route: testRoute(t), Logger: zap.NewNop()})
	assert.NoError(t, allowed.RequestPermission(context.Background()))
}

func TestReplay_WatchAndCancel(t *testing.T) {
	rp := NewReplay(Options{Route: testRoute(t), Interval: 5 * time.Millisecond, DropoutEvery: 2, Logger: zap.NewNop()})

	var mu sync.Mutex
	var fixes, failures int
	sub, err := rp.WatchPosition(
		func(models.Fix) { mu.Lock(); fixes++; mu.Unlock() },
		func(error) { mu.Lock(); failures++; mu.Unlock() },
	)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fixes >= 2 && failures >= 2
	}, time.Second, 5*time.Millisecond)

	sub.Cancel()
	sub.Cancel()
}

func TestReplay_CancelDuringCallback(t *testing.T) {
	rp := NewReplay(Options{Route: testRoute(t), Interval: time.Millisecond, Logger: zap.NewNop()})

	var sub navigation.Subscription
	ready := make(chan struct{})
	cancelled := make(chan struct{})
	var once sync.Once
	sub, err := rp.WatchOrientation(func(float64) {
		once.Do(func() {
			<-ready
			sub.Cancel()
			close(cancelled)
		})
	})
	require.NoError(t, err)
	close(ready)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("cancel from inside a callback blocked")
	}
}

func TestReplay_DrivesController(t *testing.T) {
	r := testRoute(t)
	rp := NewReplay(Options{Route: r, Interval: time.Millisecond, TimeScale: 60000, Logger: zap.NewNop()})
	ctrl := navigation.New(navigation.Options{Position: rp, Orientation: rp, Logger: zap.NewNop()})

	arrived := make(chan struct{})
	var once sync.Once
	ctrl.On(navigation.EventDestinationReached, func(any) { once.Do(func() { close(arrived) }) })

	require.NoError(t, ctrl.Start(context.Background(), r))
	select {
	case <-arrived:
	case <-time.After(5 * time.Second):
		t.Fatal("replay never reached the destination")
	}

	assert.Eventually(t, func() bool {
		return ctrl.Status().Phase == navigation.PhaseDestinationReached
	}, time.Second, 5*time.Millisecond)
}
