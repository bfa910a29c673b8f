package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unklstewy/skyscope/pkg/catalog"
	"github.com/unklstewy/skyscope/pkg/coordinates"
)

const (
	// refreshInterval moves every star with the sidereal clock
	refreshInterval = 2 * time.Second

	// slewTimeout bounds one mount command
	slewTimeout = 10 * time.Second

	minZoom = 0.5
	maxZoom = 4.0
)

// slewer is the part of a mount the finder drives
type slewer interface {
	SlewToCoordinates(ctx context.Context, eq coordinates.EquatorialCoordinates) error
}

// starView is a catalog star placed on the local sky
type starView struct {
	star   catalog.Star
	horiz  coordinates.HorizontalCoordinates
	sunSep float64
}

type model struct {
	stars    []catalog.Star
	observer coordinates.Observer
	sidereal coordinates.SiderealModel
	minAlt   float64
	sunLimit float64
	mount    slewer
	now      func() time.Time

	// Sky state, rebuilt on every tick
	at      time.Time
	lst     float64
	visible []starView
	sun     coordinates.SunPosition

	selected int
	zoom     float64
	polar    bool

	// target is a position typed by the user; it takes the place of the
	// selected star until the selection moves
	target *coordinates.EquatorialCoordinates

	// scope is where the last slew pointed the telescope
	scope *coordinates.EquatorialCoordinates

	inputMode   bool
	inputBuffer string
	status      string
	err         error
}

type tickMsg time.Time

type slewMsg struct {
	name   string
	target coordinates.EquatorialCoordinates
	err    error
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.inputMode {
			return m.handleInput(msg), nil
		}

		// Clear error on any keypress (but don't quit)
		if m.err != nil {
			m.err = nil
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "g":
			m.inputMode = true
			m.inputBuffer = ""
		case "p":
			m.polar = !m.polar
		case "up", "k":
			m.target = nil
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			m.target = nil
			if m.selected < len(m.visible)-1 {
				m.selected++
			}
		case "enter", " ":
			return m.slew()
		case "+", "=":
			if m.zoom < maxZoom {
				m.zoom *= 1.5
			}
		case "-", "_":
			if m.zoom > minZoom {
				m.zoom /= 1.5
			}
		case "0":
			m.zoom = 1.0
		}

	case tickMsg:
		m.refresh()
		return m, tick()

	case slewMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("slew to %s: %w", msg.name, msg.err)
			return m, nil
		}
		target := msg.target
		m.scope = &target
		m.status = "Slewing to " + msg.name
	}

	return m, nil
}

// handleInput edits the goto prompt
func (m model) handleInput(msg tea.KeyMsg) model {
	switch msg.Type {
	case tea.KeyEnter:
		m.inputMode = false
		eq, err := coordinates.ParseICRS(m.inputBuffer)
		if err != nil {
			m.err = err
			return m
		}
		m.target = &eq
		m.status = "Target " + coordinates.FormatICRS(eq, " ")
	case tea.KeyEsc:
		m.inputMode = false
		m.inputBuffer = ""
	case tea.KeyBackspace:
		if len(m.inputBuffer) > 0 {
			m.inputBuffer = m.inputBuffer[:len(m.inputBuffer)-1]
		}
	case tea.KeySpace:
		m.inputBuffer += " "
	case tea.KeyRunes:
		m.inputBuffer += string(msg.Runes)
	}
	return m
}

// refresh recomputes the sun and every star above the altitude limit
func (m *model) refresh() {
	m.at = m.now().UTC()
	m.lst = m.sidereal.Local(m.at, m.observer.Location.Longitude)
	lat := m.observer.Location.Latitude

	sunEq := coordinates.SunEquatorial(m.at)
	m.sun = coordinates.SunPosition{
		Equatorial: sunEq,
		Horizontal: coordinates.EquatorialToHorizontalAt(sunEq, lat, m.lst),
		Time:       m.at,
	}

	visible := make([]starView, 0, len(m.stars))
	for _, s := range m.stars {
		horiz := coordinates.EquatorialToHorizontalAt(s.Equatorial(), lat, m.lst)
		if horiz.Altitude < m.minAlt {
			continue
		}
		visible = append(visible, starView{
			star:   s,
			horiz:  horiz,
			sunSep: m.sun.AngularSeparation(s.Equatorial()),
		})
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].star.Magnitude < visible[j].star.Magnitude
	})
	m.visible = visible

	if m.selected >= len(m.visible) {
		m.selected = len(m.visible) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// pick returns the typed target, or the selected star
func (m model) pick() (string, coordinates.EquatorialCoordinates, bool) {
	if m.target != nil {
		return coordinates.FormatICRS(*m.target, " "), *m.target, true
	}
	if m.selected < len(m.visible) {
		s := m.visible[m.selected].star
		name := s.Label()
		if name == "" {
			name = fmt.Sprintf("HR %d", s.HR)
		}
		return name, s.Equatorial(), true
	}
	return "", coordinates.EquatorialCoordinates{}, false
}

// horizontal places eq on the local sky at the last refresh
func (m model) horizontal(eq coordinates.EquatorialCoordinates) coordinates.HorizontalCoordinates {
	return coordinates.EquatorialToHorizontalAt(eq, m.observer.Location.Latitude, m.lst)
}

// slew points the mount at the current pick unless it is too close to the sun
func (m model) slew() (tea.Model, tea.Cmd) {
	name, eq, ok := m.pick()
	if !ok {
		return m, nil
	}
	if m.mount == nil {
		m.err = fmt.Errorf("no telescope connected")
		return m, nil
	}

	sep := m.sun.AngularSeparation(eq)
	if m.sunLimit > 0 && sep < m.sunLimit {
		m.err = fmt.Errorf("%s is %.1f° from the sun (%s)", name, sep,
			coordinates.GetSafetyZone(sep))
		return m, nil
	}
	if alt := m.horizontal(eq).Altitude; alt < m.minAlt {
		m.err = fmt.Errorf("%s is below the altitude limit (%.1f°)", name, alt)
		return m, nil
	}

	mount := m.mount
	m.status = "Slew requested: " + name
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), slewTimeout)
		defer cancel()
		return slewMsg{name: name, target: eq, err: mount.SlewToCoordinates(ctx, eq)}
	}
}

// cardinal names the compass point nearest an azimuth
func cardinal(azimuth float64) string {
	points := []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	i := int(coordinates.NormalizeAzimuth(azimuth)/45+0.5) % len(points)
	return points[i]
}

func abbreviate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
