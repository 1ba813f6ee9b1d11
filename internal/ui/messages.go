package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ngmaloney/marine-navigator/internal/navigation"
)

// Message types for async operations

// EventMsg carries a controller event into the bubbletea loop
type EventMsg struct {
	Name    navigation.EventName
	Payload any
}

// statusTickMsg triggers a periodic status refresh
type statusTickMsg time.Time

// eventsClosedMsg is sent when the event channel has been closed
type eventsClosedMsg struct{}

const statusRefreshInterval = time.Second

var subscribedEvents = []navigation.EventName{
	navigation.EventNavigationStarted,
	navigation.EventNavigationStopped,
	navigation.EventNavigationUpdate,
	navigation.EventAlert,
	navigation.EventWaypointReached,
	navigation.EventDestinationReached,
	navigation.EventDeadReckoning,
}

// Subscribe registers handlers for every controller event and returns the
// channel they are delivered on. Sends never block the controller; events
// that do not fit in the buffer are dropped and the periodic status refresh
// catches up.
func Subscribe(nav Navigator, buffer int) <-chan EventMsg {
	ch := make(chan EventMsg, buffer)
	for _, name := range subscribedEvents {
		name := name
		nav.On(name, func(payload any) {
			select {
			case ch <- EventMsg{Name: name, Payload: payload}:
			default:
			}
		})
	}
	return ch
}

// waitForEvent blocks until the next controller event
func waitForEvent(ch <-chan EventMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return msg
	}
}

func statusTick() tea.Cmd {
	return tea.Tick(statusRefreshInterval, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}
