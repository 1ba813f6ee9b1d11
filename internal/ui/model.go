// Package ui is the terminal navigation console.
package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/ngmaloney/marine-navigator/internal/models"
	"github.com/ngmaloney/marine-navigator/internal/navigation"
)

// Navigator is the part of the navigation controller the console drives
type Navigator interface {
	On(name navigation.EventName, h navigation.Handler)
	Pause()
	Resume()
	Stop()
	SkipToNextWaypoint() bool
	Status() navigation.Status
}

type keyMap struct {
	Pause key.Binding
	Skip  key.Binding
	Stop  key.Binding
	Quit  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Skip, k.Stop, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Pause: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause/resume")),
		Skip:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next waypoint")),
		Stop:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Model represents the console state
type Model struct {
	nav    Navigator
	events <-chan EventMsg
	alerts *navigation.AlertLog
	log    *zap.Logger

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	progress progress.Model

	width  int
	height int

	route         *models.Route
	state         *models.NavigationState
	phase         navigation.Phase
	deadReckoning *navigation.DeadReckoning
	quitting      bool
}

// NewModel creates the console for a navigation session. events should come
// from Subscribe, called before the session starts.
func NewModel(nav Navigator, events <-chan EventMsg, alerts *navigation.AlertLog) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	if alerts == nil {
		alerts = navigation.NewAlertLog(0, 0, nil)
	}

	m := Model{
		nav:      nav,
		events:   events,
		alerts:   alerts,
		log:      zap.L().Named("ui"),
		keys:     defaultKeyMap(),
		help:     help.New(),
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
	m.refresh()
	return m
}

// Init starts listening for controller events
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events), statusTick())
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(60, max(10, msg.Width-20))
		return m, nil

	case EventMsg:
		m.apply(msg)
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		return m, nil

	case statusTickMsg:
		m.refresh()
		return m, statusTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.nav.Stop()
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Pause):
		switch m.nav.Status().Phase {
		case navigation.PhaseNavigating:
			m.nav.Pause()
		case navigation.PhasePaused:
			m.nav.Resume()
		}

	case key.Matches(msg, m.keys.Skip):
		if !m.nav.SkipToNextWaypoint() {
			m.log.Debug("skip ignored, destination is the next target")
		}

	case key.Matches(msg, m.keys.Stop):
		m.nav.Stop()
	}

	m.refresh()
	return m, nil
}

// apply folds a controller event into the model
func (m *Model) apply(msg EventMsg) {
	switch msg.Name {
	case navigation.EventNavigationStarted:
		if r, ok := msg.Payload.(models.Route); ok {
			m.route = &r
			m.state = nil
			m.deadReckoning = nil
			m.alerts.Clear()
		}
		m.phase = navigation.PhaseNavigating

	case navigation.EventNavigationUpdate:
		if s, ok := msg.Payload.(models.NavigationState); ok {
			m.state = &s
			m.deadReckoning = nil
		}

	case navigation.EventAlert:
		if a, ok := msg.Payload.(models.NavigationAlert); ok {
			m.alerts.Add(a)
		}

	case navigation.EventDeadReckoning:
		if dr, ok := msg.Payload.(navigation.DeadReckoning); ok {
			m.deadReckoning = &dr
		}

	case navigation.EventDestinationReached:
		m.phase = navigation.PhaseDestinationReached

	case navigation.EventNavigationStopped:
		if p, ok := msg.Payload.(navigation.Phase); ok {
			m.phase = p
		}
	}
}

// refresh pulls the controller status. It covers events dropped by
// Subscribe when the console falls behind.
func (m *Model) refresh() {
	st := m.nav.Status()
	m.phase = st.Phase
	if st.Route != nil {
		m.route = st.Route
	}
	if st.State != nil {
		m.state = st.State
	}
	m.deadReckoning = st.DeadReckoning
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sections []string

	title := "⚓ Marine Navigator"
	if m.route != nil {
		title = fmt.Sprintf("⚓ %s", m.route.Name)
	}
	sections = append(sections, titleStyle.Render(title), m.renderPhase())

	switch {
	case m.state == nil && m.phase == navigation.PhaseNavigating:
		sections = append(sections, "", fmt.Sprintf("%s %s", m.spinner.View(), mutedStyle.Render("Waiting for GPS fix...")))
	case m.state != nil:
		sections = append(sections,
			sectionHeaderStyle.Render("NAVIGATION"),
			sectionBoxStyle.Render(m.renderNavigation()),
		)
	}

	if m.deadReckoning != nil {
		sections = append(sections, m.renderDeadReckoning())
	}

	sections = append(sections,
		sectionHeaderStyle.Render("ALERTS"),
		m.renderAlerts(),
		helpStyle.Render(m.help.View(m.keys)),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
