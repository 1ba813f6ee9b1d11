// Package simulate provides sensor sources that replay a route, for demos
// and for exercising the navigation controller without hardware.
package simulate

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ngmaloney/marine-navigator/internal/geo"
	"github.com/ngmaloney/marine-navigator/internal/models"
	"github.com/ngmaloney/marine-navigator/internal/navigation"
)

const (
	DefaultInterval  = time.Second
	DefaultTimeScale = 1.0
)

// Options configures a Replay
type Options struct {
	Route      models.Route
	SpeedKnots float64       // defaults to the route average speed
	Interval   time.Duration // wall time between fixes
	TimeScale  float64       // simulated seconds per wall second

	// DropoutEvery makes every nth tick report the position as unavailable.
	DropoutEvery int
	// DenyPermission makes RequestPermission fail for both sensors.
	DenyPermission bool

	Logger *zap.Logger
	Now    func() time.Time
}

// Replay moves a simulated vessel along a route at constant speed. It
// implements navigation.PositionSource and navigation.OrientationSource.
type Replay struct {
	opts Options
	log  *zap.Logger

	mu     sync.Mutex
	pos    geo.Point
	leg    int
	course float64
	ticks  int
}

// NewReplay creates a replay positioned at the route start
func NewReplay(opts Options) *Replay {
	if opts.SpeedKnots <= 0 {
		opts.SpeedKnots = opts.Route.AverageSpeed
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.TimeScale <= 0 {
		opts.TimeScale = DefaultTimeScale
	}
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := &Replay{opts: opts, log: opts.Logger.Named("simulate")}
	if len(opts.Route.Waypoints) > 0 {
		r.pos = opts.Route.Waypoints[0].Point()
	}
	if len(opts.Route.Waypoints) > 1 {
		r.course = geo.BearingBetween(r.pos, opts.Route.Waypoints[1].Point())
	}
	return r
}

func (r *Replay) RequestPermission(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.opts.DenyPermission {
		return &navigation.PositionError{Kind: navigation.ErrPermissionDenied, Message: "simulated denial"}
	}
	return nil
}

// Finished reports whether the vessel has arrived at the destination.
func (r *Replay) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leg >= len(r.opts.Route.Waypoints)-1
}

// Step advances the vessel by one tick and returns the resulting fix. The
// second result is false when the tick is a simulated dropout.
func (r *Replay) Step() (models.Fix, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ticks++
	elapsed := time.Duration(float64(r.opts.Interval) * r.opts.TimeScale)
	r.advance(r.opts.SpeedKnots * elapsed.Hours())

	if r.opts.DropoutEvery > 0 && r.ticks%r.opts.DropoutEvery == 0 {
		return models.Fix{}, false
	}

	speed := 0.0
	if r.leg < len(r.opts.Route.Waypoints)-1 {
		speed = r.opts.SpeedKnots / 1.94384
	}
	course := r.course
	return models.Fix{
		Lat:        r.pos.Lat,
		Lon:        r.pos.Lon,
		SpeedMPS:   &speed,
		HeadingDeg: &course,
		Accuracy:   5,
		Timestamp:  r.opts.Now(),
	}, true
}

// advance moves distanceNM along the remaining legs. Must be called with mu
// held.
func (r *Replay) advance(distanceNM float64) {
	wps := r.opts.Route.Waypoints
	for distanceNM > 0 && r.leg < len(wps)-1 {
		to := wps[r.leg+1].Point()
		d := geo.DistanceBetween(r.pos, to)
		if d <= distanceNM {
			r.pos = to
			distanceNM -= d
			r.leg++
			if r.leg < len(wps)-1 {
				r.course = geo.BearingBetween(r.pos, wps[r.leg+1].Point())
			}
			continue
		}
		r.course = geo.BearingBetween(r.pos, to)
		r.pos = geo.Destination(r.pos, r.course, distanceNM)
		distanceNM = 0
	}
}

// Course returns the current simulated course over ground.
func (r *Replay) Course() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.course
}

// WatchPosition starts delivering fixes every Interval until cancelled.
func (r *Replay) WatchPosition(onFix func(models.Fix), onError func(error)) (navigation.Subscription, error) {
	return r.every(func() {
		fix, ok := r.Step()
		if !ok {
			onError(&navigation.PositionError{Kind: navigation.ErrPositionUnavailable, Message: "simulated dropout"})
			return
		}
		onFix(fix)
	}), nil
}

// WatchOrientation reports the simulated course every Interval.
func (r *Replay) WatchOrientation(onHeading func(float64)) (navigation.Subscription, error) {
	return r.every(func() { onHeading(r.Course()) }), nil
}

type subscription struct {
	once sync.Once
	done chan struct{}
}

// Cancel stops future ticks without waiting for a callback in progress.
func (s *subscription) Cancel() {
	s.once.Do(func() { close(s.done) })
}

func (r *Replay) every(fn func()) *subscription {
	sub := &subscription{done: make(chan struct{})}
	ticker := time.NewTicker(r.opts.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-sub.done:
				return
			case <-ticker.C:
				select {
				case <-sub.done:
					return
				default:
				}
				fn()
			}
		}
	}()
	r.log.Debug("replay subscription started", zap.Duration("interval", r.opts.Interval))
	return sub
}
