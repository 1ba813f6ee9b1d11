package navigation

import "github.com/ngmaloney/marine-navigator/internal/models"

// EventName identifies a controller event
type EventName string

const (
	EventNavigationStarted  EventName = "navigationStarted"  // payload: models.Route
	EventNavigationStopped  EventName = "navigationStopped"  // payload: Phase
	EventNavigationUpdate   EventName = "navigationUpdate"   // payload: models.NavigationState
	EventAlert              EventName = "alert"              // payload: models.NavigationAlert
	EventWaypointReached    EventName = "waypointReached"    // payload: WaypointReached
	EventDestinationReached EventName = "destinationReached" // payload: models.Waypoint
	EventDeadReckoning      EventName = "deadReckoning"      // payload: DeadReckoning
)

// Handler receives an event payload. See the EventName constants for the
// payload type of each event.
type Handler func(payload any)

// WaypointReached is the payload of EventWaypointReached
type WaypointReached struct {
	Waypoint models.Waypoint
	Index    int
	Next     *models.Waypoint
}

type event struct {
	name    EventName
	payload any
}

// On registers the handler for name, replacing any previous handler for
// that name. Only one handler per event is kept.
func (c *Controller) On(name EventName, h Handler) {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	c.handlers[name] = h
}

// Off removes the handler for name.
func (c *Controller) Off(name EventName) {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	delete(c.handlers, name)
}

// dispatch delivers events in order. It must be called without c.mu held.
// Events without a handler are dropped.
func (c *Controller) dispatch(events []event) {
	for _, e := range events {
		c.hmu.RLock()
		h := c.handlers[e.name]
		c.hmu.RUnlock()
		if h != nil {
			h(e.payload)
		}
	}
}
