// Package navigation runs the active-route state machine: it consumes
// position and heading updates, tracks progress along the route and raises
// alerts and events for the UI.
package navigation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ngmaloney/marine-navigator/internal/database"
	"github.com/ngmaloney/marine-navigator/internal/geo"
	"github.com/ngmaloney/marine-navigator/internal/models"
	"github.com/ngmaloney/marine-navigator/internal/route"
)

// Phase is the controller's lifecycle state
type Phase string

const (
	PhaseIdle               Phase = "idle"
	PhaseNavigating         Phase = "navigating"
	PhasePaused             Phase = "paused"
	PhaseStopped            Phase = "stopped"
	PhaseDestinationReached Phase = "destination-reached"
)

const (
	ActiveRouteKey = "navigation:active_route"
	HistoryKey     = "navigation:history"

	historySize    = 100
	speedSamples   = 5
	minDeadReckPts = 2
)

// Thresholds tune the navigation checks. Non-positive fields select the
// defaults.
type Thresholds struct {
	ArrivalNM          float64
	ApproachNM         float64
	CourseDeviationDeg float64
	LowSpeedKnots      float64
}

// DefaultThresholds returns the standard navigation thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		ArrivalNM:          route.DefaultArrivalThresholdNM,
		ApproachNM:         0.5,
		CourseDeviationDeg: 45,
		LowSpeedKnots:      0.5,
	}
}

// withDefaults replaces every non-positive threshold with its default.
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if !(t.ArrivalNM > 0) {
		t.ArrivalNM = d.ArrivalNM
	}
	if !(t.ApproachNM > 0) {
		t.ApproachNM = d.ApproachNM
	}
	if !(t.CourseDeviationDeg > 0) {
		t.CourseDeviationDeg = d.CourseDeviationDeg
	}
	if !(t.LowSpeedKnots > 0) {
		t.LowSpeedKnots = d.LowSpeedKnots
	}
	return t
}

// Options configures a Controller
type Options struct {
	Position     PositionSource
	Orientation  OrientationSource // optional
	Capabilities Capabilities
	Store        database.KV // optional offline cache
	Thresholds   Thresholds
	Logger       *zap.Logger
	Now          func() time.Time
}

// DeadReckoning is an advisory position estimate made while the position
// sensor is failing. It is never fed back into the navigation state.
type DeadReckoning struct {
	From       models.Fix    `json:"from"`
	Estimated  geo.Point     `json:"estimated"`
	Heading    float64       `json:"heading"`
	SpeedKnots float64       `json:"speed_knots"`
	DistanceNM float64       `json:"distance_nm"`
	Elapsed    time.Duration `json:"elapsed"`
	ComputedAt time.Time     `json:"computed_at"`
}

// Status is a snapshot of the controller
type Status struct {
	Phase                Phase
	IsNavigating         bool
	Route                *models.Route
	CurrentWaypointIndex int
	State                *models.NavigationState
	DeadReckoning        *DeadReckoning
	HistorySize          int
}

// Controller is the navigation state machine. All mutable state is guarded
// by mu; events are dispatched after mu is released.
type Controller struct {
	position    PositionSource
	orientation OrientationSource
	caps        Capabilities
	store       database.KV
	thresholds  Thresholds
	log         *zap.Logger
	now         func() time.Time

	mu            sync.Mutex
	phase         Phase
	navigating    bool
	generation    uint64
	route         *models.Route
	index         int
	positionSub   Subscription
	headingSub    Subscription
	history       []models.Fix
	speeds        []float64
	compass       *float64
	heading       float64
	state         *models.NavigationState
	deadReckoning *DeadReckoning

	hmu      sync.RWMutex
	handlers map[EventName]Handler
}

// New creates a navigation controller
func New(opts Options) *Controller {
	opts.Thresholds = opts.Thresholds.withDefaults()
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		position:    opts.Position,
		orientation: opts.Orientation,
		caps:        opts.Capabilities,
		store:       opts.Store,
		thresholds:  opts.Thresholds,
		log:         opts.Logger.Named("navigation"),
		now:         opts.Now,
		phase:       PhaseIdle,
		handlers:    make(map[EventName]Handler),
	}
}

func alert(typ models.AlertType, sev models.AlertSeverity, autoClose bool, at time.Time, format string, args ...any) event {
	return event{name: EventAlert, payload: models.NavigationAlert{
		Type:      typ,
		Message:   fmt.Sprintf(format, args...),
		Severity:  sev,
		Timestamp: at,
		AutoClose: autoClose,
	}}
}

// Start begins navigating r. Any active session is stopped first. A
// location permission failure raises a permission-denied alert and is
// returned.
func (c *Controller) Start(ctx context.Context, r models.Route) error {
	if len(r.Waypoints) < 2 {
		return route.ErrRouteTooShort
	}
	if c.position == nil {
		return eris.New("navigation: no position source configured")
	}

	c.Stop()

	c.mu.Lock()
	c.phase = PhaseIdle
	c.mu.Unlock()

	if err := c.position.RequestPermission(ctx); err != nil {
		c.dispatch([]event{alert(models.AlertPermissionDenied, models.SeverityError, false, c.now(),
			"Location permission is required for navigation")})
		return eris.Wrap(err, "navigation: location permission")
	}
	if c.orientation != nil {
		if err := c.orientation.RequestPermission(ctx); err != nil {
			c.log.Warn("motion permission not granted, using GPS course only", zap.Error(err))
		}
	}

	active := r.Clone()

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.route = &active
	c.index = 0
	c.history = nil
	c.speeds = nil
	c.compass = nil
	c.heading = 0
	c.state = nil
	c.deadReckoning = nil
	c.phase = PhaseNavigating
	c.navigating = true
	c.mu.Unlock()

	posSub, err := c.position.WatchPosition(
		func(f models.Fix) { c.handleFix(gen, f) },
		func(err error) { c.handleError(gen, err) },
	)
	if err != nil {
		c.mu.Lock()
		if c.generation == gen {
			c.route = nil
			c.navigating = false
			c.phase = PhaseIdle
		}
		c.mu.Unlock()
		c.dispatch([]event{alert(models.AlertGPSError, models.SeverityError, false, c.now(),
			"Unable to start position updates")})
		return eris.Wrap(err, "navigation: watching position")
	}

	var headSub Subscription
	if c.orientation != nil {
		headSub, err = c.orientation.WatchOrientation(func(h float64) { c.handleHeading(gen, h) })
		if err != nil {
			c.log.Warn("compass unavailable", zap.Error(err))
			headSub = nil
		}
	}

	c.mu.Lock()
	if c.generation != gen {
		// stopped while subscribing
		c.mu.Unlock()
		posSub.Cancel()
		if headSub != nil {
			headSub.Cancel()
		}
		return nil
	}
	c.positionSub = posSub
	c.headingSub = headSub
	c.mu.Unlock()

	if c.store != nil {
		if err := database.SetJSON(c.store, ActiveRouteKey, active); err != nil {
			c.log.Warn("failed to cache active route", zap.Error(err))
		}
	}

	c.log.Info("navigation started",
		zap.String("route", active.ID),
		zap.Int("waypoints", len(active.Waypoints)))
	c.dispatch([]event{{name: EventNavigationStarted, payload: active}})
	return nil
}

// Stop ends the active session. Calling it with no active session does
// nothing.
func (c *Controller) Stop() {
	c.finish(PhaseStopped, true)
}

// finish tears down the session and moves to the given terminal phase.
func (c *Controller) finish(final Phase, forgetRoute bool) {
	c.mu.Lock()
	td, ok := c.detach(final)
	c.mu.Unlock()
	if !ok {
		return
	}
	c.dispatch(c.release(td, forgetRoute))
}

// teardown holds what is left to release once a session has been detached.
type teardown struct {
	posSub  Subscription
	headSub Subscription
	history []models.Fix
	final   Phase
}

// detach ends the current session and bumps the generation so callbacks
// from it are ignored. It reports false when there is no session. Must be
// called with mu held.
func (c *Controller) detach(final Phase) (teardown, bool) {
	if c.route == nil && c.positionSub == nil && c.headingSub == nil {
		return teardown{}, false
	}
	c.generation++
	td := teardown{
		posSub:  c.positionSub,
		headSub: c.headingSub,
		history: append([]models.Fix(nil), c.history...),
		final:   final,
	}
	c.positionSub, c.headingSub = nil, nil
	c.route = nil
	c.index = 0
	c.navigating = false
	c.phase = final
	return td, true
}

// release cancels the detached subscriptions and persists the session. It
// returns the navigationStopped event for the caller to dispatch. Must be
// called without mu held.
func (c *Controller) release(td teardown, forgetRoute bool) []event {
	if td.posSub != nil {
		td.posSub.Cancel()
	}
	if td.headSub != nil {
		td.headSub.Cancel()
	}
	c.persistHistory(td.history)
	if forgetRoute && c.store != nil {
		if err := c.store.Remove(ActiveRouteKey); err != nil {
			c.log.Warn("failed to clear cached route", zap.Error(err))
		}
	}

	c.log.Info("navigation stopped", zap.String("phase", string(td.final)))
	return []event{{name: EventNavigationStopped, payload: td.final}}
}

// Pause suspends the navigation checks. Position updates keep flowing and
// the state keeps being recomputed.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseNavigating {
		c.phase = PhasePaused
		c.navigating = false
	}
}

// Resume re-enables the navigation checks after Pause.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhasePaused {
		c.phase = PhaseNavigating
		c.navigating = true
	}
}

// SkipToNextWaypoint advances the cursor by one leg. The destination always
// remains the final target, so the cursor never moves past the
// second-to-last waypoint. It reports whether the cursor moved.
func (c *Controller) SkipToNextWaypoint() bool {
	c.mu.Lock()
	if c.route == nil || c.index >= len(c.route.Waypoints)-2 {
		c.mu.Unlock()
		return false
	}
	c.index++
	var events []event
	if c.state != nil {
		state := route.CalculateNavigationState(c.state.CurrentPosition, *c.route, c.index)
		c.state = &state
		events = append(events, event{name: EventNavigationUpdate, payload: state})
	}
	c.mu.Unlock()

	c.dispatch(events)
	return true
}

// Status returns a snapshot of the controller state
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Status{
		Phase:                c.phase,
		IsNavigating:         c.navigating,
		CurrentWaypointIndex: c.index,
		HistorySize:          len(c.history),
	}
	if c.route != nil {
		r := c.route.Clone()
		s.Route = &r
	}
	if c.state != nil {
		st := *c.state
		s.State = &st
	}
	if c.deadReckoning != nil {
		dr := *c.deadReckoning
		s.DeadReckoning = &dr
	}
	return s
}

// NavigationHistory returns the recorded fixes, oldest first
func (c *Controller) NavigationHistory() []models.Fix {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Fix(nil), c.history...)
}

// CachedRoute returns the route cached by the last Start that did not end
// in Stop, for resuming after a restart.
func (c *Controller) CachedRoute() (*models.Route, error) {
	if c.store == nil {
		return nil, nil
	}
	var r models.Route
	ok, err := database.GetJSON(c.store, ActiveRouteKey, &r)
	if err != nil || !ok {
		return nil, err
	}
	return &r, nil
}

// SavedHistory returns the fix history persisted by the last session
func (c *Controller) SavedHistory() ([]models.Fix, error) {
	if c.store == nil {
		return nil, nil
	}
	var fixes []models.Fix
	if _, err := database.GetJSON(c.store, HistoryKey, &fixes); err != nil {
		return nil, err
	}
	return fixes, nil
}

func (c *Controller) persistHistory(history []models.Fix) {
	if c.store == nil || len(history) == 0 {
		return
	}
	if err := database.SetJSON(c.store, HistoryKey, history); err != nil {
		c.log.Warn("failed to persist navigation history", zap.Error(err))
	}
}

func (c *Controller) handleHeading(gen uint64, heading float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	h := geo.NormalizeHeading(heading)
	c.compass = &h
}

// handleFix processes one position fix. Checks run only while navigating;
// a paused session still recomputes and publishes its state.
func (c *Controller) handleFix(gen uint64, fix models.Fix) {
	var (
		events  []event
		effects []func()
		arrived bool
		ended   teardown
	)

	c.mu.Lock()
	if gen != c.generation || c.route == nil {
		c.mu.Unlock()
		return
	}
	if fix.Timestamp.IsZero() {
		fix.Timestamp = c.now()
	}

	switch {
	case fix.HeadingDeg != nil:
		c.heading = geo.NormalizeHeading(*fix.HeadingDeg)
	case c.compass != nil:
		c.heading = *c.compass
	}

	if knots, ok := c.fixSpeed(fix); ok {
		c.speeds = append(c.speeds, knots)
		if len(c.speeds) > speedSamples {
			c.speeds = c.speeds[len(c.speeds)-speedSamples:]
		}
	}

	c.history = append(c.history, fix)
	if len(c.history) > historySize {
		c.history = c.history[len(c.history)-historySize:]
	}
	c.deadReckoning = nil

	pos := models.Position{Lat: fix.Lat, Lon: fix.Lon, Heading: c.heading, Speed: c.smoothedSpeed()}
	state := route.CalculateNavigationState(pos, *c.route, c.index)
	c.state = &state
	events = append(events, event{name: EventNavigationUpdate, payload: state})

	if c.navigating {
		var reached bool
		reached, arrived = c.checkProximity(state, &events, &effects)
		if !reached {
			c.checkCourse(state, &events)
		}
	}
	if arrived {
		ended, _ = c.detach(PhaseDestinationReached)
	}
	c.mu.Unlock()

	for _, fn := range effects {
		fn()
	}
	if arrived {
		// handlers see the session already stopped when the arrival events run
		events = append(c.release(ended, true), events...)
	}
	c.dispatch(events)
}

// fixSpeed returns the fix speed in knots, deriving it from the previous
// fix when the receiver did not report one.
func (c *Controller) fixSpeed(fix models.Fix) (float64, bool) {
	if fix.SpeedMPS != nil {
		return geo.KnotsFromMetersPerSecond(*fix.SpeedMPS), true
	}
	if len(c.history) == 0 {
		return 0, false
	}
	prev := c.history[len(c.history)-1]
	dt := fix.Timestamp.Sub(prev.Timestamp)
	if dt <= 0 {
		return 0, false
	}
	return geo.DistanceBetween(prev.Point(), fix.Point()) / dt.Hours(), true
}

func (c *Controller) smoothedSpeed() float64 {
	if len(c.speeds) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range c.speeds {
		sum += s
	}
	return sum / float64(len(c.speeds))
}

// checkProximity raises approach alerts and handles waypoint arrival. It
// reports whether a waypoint was reached and whether that was the
// destination. Must be called with mu held.
func (c *Controller) checkProximity(state models.NavigationState, events *[]event, effects *[]func()) (reached, arrived bool) {
	next := state.NextWaypoint
	if next == nil {
		return false, false
	}
	now := c.now()
	pos := state.CurrentPosition

	if !route.IsNearWaypoint(pos.Lat, pos.Lon, next.Lat, next.Lon, c.thresholds.ArrivalNM) {
		if state.DistanceToNext < c.thresholds.ApproachNM {
			*events = append(*events, alert(models.AlertWaypointApproaching, models.SeverityInfo, true, now,
				"Approaching %s", next.Name))
		}
		return false, false
	}

	reachedIndex := c.index + 1
	c.index = reachedIndex
	caps := c.caps

	if reachedIndex >= len(c.route.Waypoints)-1 {
		c.navigating = false
		c.phase = PhaseDestinationReached
		wp := *next
		*effects = append(*effects, func() {
			caps.vibrate(destinationPattern)
			caps.speak(fmt.Sprintf("Destination reached. You have arrived at %s.", wp.Name))
		})
		final := route.CalculateNavigationState(pos, *c.route, c.index)
		c.state = &final
		*events = append(*events,
			event{name: EventNavigationUpdate, payload: final},
			alert(models.AlertDestinationReached, models.SeveritySuccess, false, now, "Destination reached: %s", wp.Name),
			event{name: EventDestinationReached, payload: wp},
		)
		c.log.Info("destination reached", zap.String("waypoint", wp.Name))
		return true, true
	}

	following := c.route.Waypoints[reachedIndex+1]
	wp := *next
	*effects = append(*effects, func() {
		caps.vibrate(waypointPattern)
		caps.speak(fmt.Sprintf("Waypoint %s reached. Next, %s.", wp.Name, following.Name))
	})
	*events = append(*events,
		alert(models.AlertWaypointReached, models.SeveritySuccess, false, now, "Reached %s. Next: %s", wp.Name, following.Name),
		event{name: EventWaypointReached, payload: WaypointReached{Waypoint: wp, Index: reachedIndex, Next: &following}},
	)

	updated := route.CalculateNavigationState(pos, *c.route, c.index)
	c.state = &updated
	*events = append(*events, event{name: EventNavigationUpdate, payload: updated})

	c.log.Info("waypoint reached", zap.String("waypoint", wp.Name), zap.Int("index", reachedIndex))
	return true, false
}

// checkCourse raises off-course and low-speed alerts. Must be called with
// mu held.
func (c *Controller) checkCourse(state models.NavigationState, events *[]event) {
	if state.NextWaypoint == nil {
		return
	}
	now := c.now()

	if diff, turn, ok := courseCorrection(state.Heading, state.BearingToNext, c.thresholds.CourseDeviationDeg); ok {
		*events = append(*events, alert(models.AlertOffCourse, models.SeverityWarning, true, now,
			"Off course by %.0f°. Turn %s to %03.0f° for %s", diff, turn, state.BearingToNext, state.NextWaypoint.Name))
	}

	if len(c.speeds) > 0 && state.Speed < c.thresholds.LowSpeedKnots {
		*events = append(*events, alert(models.AlertLowSpeed, models.SeverityInfo, true, now,
			"Very low speed (%.1f kn)", state.Speed))
	}
}

// handleError turns a sensor failure into an alert and, with enough
// history, an advisory dead-reckoning estimate.
func (c *Controller) handleError(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.generation || c.route == nil {
		c.mu.Unlock()
		return
	}
	now := c.now()
	kind := errorKind(err)

	typ := models.AlertGPSError
	if kind == ErrPermissionDenied {
		typ = models.AlertPermissionDenied
	}
	events := []event{alert(typ, models.SeverityWarning, false, now, "%s", sensorAlertMessage(kind))}

	if len(c.history) >= minDeadReckPts {
		last := c.history[len(c.history)-1]
		speed := c.smoothedSpeed()
		elapsed := now.Sub(last.Timestamp)
		if elapsed < 0 {
			elapsed = 0
		}
		dist := speed * elapsed.Hours()
		dr := DeadReckoning{
			From:       last,
			Estimated:  geo.Destination(last.Point(), c.heading, dist),
			Heading:    c.heading,
			SpeedKnots: speed,
			DistanceNM: dist,
			Elapsed:    elapsed,
			ComputedAt: now,
		}
		c.deadReckoning = &dr
		events = append(events, event{name: EventDeadReckoning, payload: dr})
		c.log.Info("dead reckoning estimate",
			zap.Float64("lat", dr.Estimated.Lat),
			zap.Float64("lon", dr.Estimated.Lon),
			zap.Float64("distance_nm", dist),
			zap.Duration("since_fix", elapsed))
	}
	history := append([]models.Fix(nil), c.history...)
	c.mu.Unlock()

	c.log.Warn("position sensor error", zap.String("kind", string(kind)), zap.Error(err))
	c.persistHistory(history)
	c.dispatch(events)
}

// courseCorrection compares heading with the bearing to the next waypoint.
// ok is false unless the deviation exceeds limit. The turn is "left" only
// when the bearing is more than 180 degrees clockwise of the heading.
func courseCorrection(heading, bearing, limit float64) (diff float64, turn string, ok bool) {
	diff = geo.HeadingDifference(heading, bearing)
	if diff <= limit {
		return diff, "", false
	}
	turn = "right"
	if bearing-heading > 180 {
		turn = "left"
	}
	return diff, turn, true
}
