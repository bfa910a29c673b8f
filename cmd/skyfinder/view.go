package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/skyscope/pkg/coordinates"
)

// Sky viewport dimensions
const (
	skyWidth  = 80
	skyHeight = 24
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	scopeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	selectedLine = lipgloss.NewStyle().Background(lipgloss.Color("237"))
)

// zoneStyles colors each solar safety zone
var zoneStyles = map[coordinates.SolarSafetyZone]lipgloss.Style{
	coordinates.SafeZoneClear:    lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
	coordinates.SafeZoneCaution:  lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
	coordinates.SafeZoneWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	coordinates.SafeZoneDanger:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	coordinates.SafeZoneCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).Blink(true),
}

func (m model) View() string {
	var s strings.Builder

	title := "SKYSCOPE FINDER"
	if m.polar {
		title = "SKYSCOPE FINDER  ZENITH VIEW"
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	if m.inputMode {
		promptStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
		inputStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
		s.WriteString(promptStyle.Render("Enter RA and Dec (e.g., 05 35 17.3 -05 23 28):"))
		s.WriteString("\n")
		s.WriteString(inputStyle.Render("> " + m.inputBuffer + "_"))
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render("ENTER: Submit  ESC: Cancel"))
		return s.String()
	}

	if m.err != nil {
		s.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render("Press any key to continue..."))
		return s.String()
	}

	var sky string
	if m.polar {
		sky = m.renderPolar()
	} else {
		sky = m.renderSky()
	}
	s.WriteString(sideBySide(sky, m.renderInfo()))
	s.WriteString(m.renderStarList())
	s.WriteString("\n")

	if m.status != "" {
		s.WriteString(statusStyle.Render(m.status))
		s.WriteString("\n")
	}
	s.WriteString(helpStyle.Render("↑/↓: Select  ENTER/SPACE: Slew  G: Goto  P: Zenith view  +/-: Zoom  0: Reset  Q: Quit"))
	s.WriteString("\n")
	return s.String()
}

// sideBySide joins two blocks of lines with a gap between them
func sideBySide(left, right string) string {
	var s strings.Builder
	leftLines := strings.Split(left, "\n")
	rightLines := strings.Split(right, "\n")

	maxLines := len(leftLines)
	if len(rightLines) > maxLines {
		maxLines = len(rightLines)
	}
	for i := 0; i < maxLines; i++ {
		if i < len(leftLines) {
			s.WriteString(leftLines[i])
		} else {
			s.WriteString(strings.Repeat(" ", skyWidth))
		}
		s.WriteString("  ")
		if i < len(rightLines) {
			s.WriteString(rightLines[i])
		}
		s.WriteString("\n")
	}
	return s.String()
}

// newGrid returns a blank character grid
func newGrid(width, height int) [][]rune {
	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}
	return grid
}

// renderSky draws the sky as an azimuth/altitude strip
func (m model) renderSky() string {
	grid := newGrid(skyWidth, skyHeight)

	// Horizon at the altitude limit
	_, horizonY := m.altAzToScreen(m.minAlt, 0)
	if horizonY >= 0 && horizonY < skyHeight {
		for x := 0; x < skyWidth-2; x++ {
			grid[horizonY][x] = '·'
		}
	}

	// Cardinal directions
	grid[skyHeight-1][0] = 'N'
	grid[skyHeight-1][(skyWidth-2)/4] = 'E'
	grid[skyHeight-1][(skyWidth-2)/2] = 'S'
	grid[skyHeight-1][(skyWidth-2)*3/4] = 'W'

	m.plotAll(grid, m.altAzToScreen)
	return renderGrid(grid, skyWidth-2)
}

// altAzToScreen maps altitude to rows and azimuth to columns,
// north at the left edge. Returns -1,-1 when off screen.
func (m model) altAzToScreen(altitude, azimuth float64) (int, int) {
	azimuth = coordinates.NormalizeAzimuth(azimuth)
	x := int((azimuth / 360.0) * float64(skyWidth-2))

	// Higher zoom shows a smaller altitude range above the limit
	altRange := (90 - m.minAlt) / m.zoom
	if altRange <= 0 {
		altRange = 90
	}
	normalizedAlt := (altitude - m.minAlt) / altRange
	y := skyHeight - 2 - int(math.Round(normalizedAlt*float64(skyHeight-2)))

	if x < 0 || x >= skyWidth-2 || y < 0 || y >= skyHeight-1 {
		return -1, -1
	}
	return x, y
}

// plotAll places stars, the sun, the target and the telescope on grid
func (m model) plotAll(grid [][]rune, place func(alt, az float64) (int, int)) {
	set := func(alt, az float64, r rune) {
		if x, y := place(alt, az); x >= 0 && y >= 0 {
			grid[y][x] = r
		}
	}

	for i := len(m.visible) - 1; i >= 0; i-- {
		v := m.visible[i]
		set(v.horiz.Altitude, v.horiz.Azimuth, starGlyph(v.star.Magnitude))
	}
	if m.sun.Horizontal.Altitude >= m.minAlt {
		set(m.sun.Horizontal.Altitude, m.sun.Horizontal.Azimuth, '☉')
	}
	if m.scope != nil {
		h := m.horizontal(*m.scope)
		set(h.Altitude, h.Azimuth, '+')
	}
	if _, eq, ok := m.pick(); ok {
		h := m.horizontal(eq)
		set(h.Altitude, h.Azimuth, '◉')
	}
}

// starGlyph picks a symbol by brightness
func starGlyph(magnitude float64) rune {
	switch {
	case magnitude < 0.5:
		return '✶'
	case magnitude < 1.5:
		return '*'
	case magnitude < 2.5:
		return '+'
	default:
		return '·'
	}
}

// renderGrid draws a bordered grid with colored symbols
func renderGrid(grid [][]rune, width int) string {
	var sky strings.Builder
	sky.WriteString(borderStyle.Render("┌" + strings.Repeat("─", width) + "┐"))
	sky.WriteString("\n")

	for y := range grid {
		sky.WriteString(borderStyle.Render("│"))
		for x := 0; x < width; x++ {
			char := grid[y][x]
			switch char {
			case '+':
				sky.WriteString(scopeStyle.Render(string(char)))
			case '◉':
				sky.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true).Render(string(char)))
			case '☉':
				sky.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(string(char)))
			case '✶', '*':
				sky.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Render(string(char)))
			case 'N', 'E', 'S', 'W':
				sky.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render(string(char)))
			case '·', '◦':
				sky.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("237")).Render(string(char)))
			default:
				sky.WriteRune(char)
			}
		}
		sky.WriteString(borderStyle.Render("│"))
		sky.WriteString("\n")
	}

	sky.WriteString(borderStyle.Render("└" + strings.Repeat("─", width) + "┘"))
	return sky.String()
}

// renderInfo shows the clock, the sun and the current pick
func (m model) renderInfo() string {
	var info strings.Builder

	info.WriteString(headerStyle.Render("Observer"))
	info.WriteString("\n")
	info.WriteString(fmt.Sprintf("Lat %+.4f°  Lon %+.4f°\n",
		m.observer.Location.Latitude, m.observer.Location.Longitude))
	info.WriteString(fmt.Sprintf("UTC %s\n", m.at.Format("2006-01-02 15:04:05")))
	info.WriteString(fmt.Sprintf("LST %s (%s)\n", coordinates.DegreesToHMS(m.lst), m.sidereal))
	info.WriteString("\n")

	info.WriteString(headerStyle.Render("Sun"))
	info.WriteString("\n")
	info.WriteString(fmt.Sprintf("Az %5.1f° %-2s  Alt %+5.1f°\n",
		m.sun.Horizontal.Azimuth, cardinal(m.sun.Horizontal.Azimuth), m.sun.Horizontal.Altitude))
	if m.sun.IsSunAboveHorizon() {
		info.WriteString(errStyle.Render("Daytime: check the sun filter"))
		info.WriteString("\n")
	}
	info.WriteString("\n")

	name, eq, ok := m.pick()
	info.WriteString(headerStyle.Render("Target"))
	info.WriteString("\n")
	if !ok {
		info.WriteString(helpStyle.Render("Nothing above the horizon"))
		info.WriteString("\n")
		return info.String()
	}
	h := m.horizontal(eq)
	sep := m.sun.AngularSeparation(eq)
	zone := coordinates.GetSafetyZone(sep)

	info.WriteString(name + "\n")
	info.WriteString(fmt.Sprintf("RA  %s\n", coordinates.DegreesToHMS(eq.RightAscension)))
	info.WriteString(fmt.Sprintf("Dec %s\n", coordinates.DegreesToDMS(eq.Declination)))
	info.WriteString(fmt.Sprintf("Az  %5.1f° %s\n", h.Azimuth, cardinal(h.Azimuth)))
	info.WriteString(fmt.Sprintf("Alt %+5.1f°\n", h.Altitude))
	info.WriteString("Sun ")
	info.WriteString(zoneStyles[zone].Render(fmt.Sprintf("%.1f° %s", sep, zone)))
	info.WriteString("\n")

	if m.scope != nil {
		info.WriteString("\n")
		sh := m.horizontal(*m.scope)
		info.WriteString(scopeStyle.Render(fmt.Sprintf("Telescope: Az %.1f°  Alt %.1f°  Zoom: %.1fx",
			sh.Azimuth, sh.Altitude, m.zoom)))
		info.WriteString("\n")
	}
	return info.String()
}

// renderStarList shows a window of visible stars around the selection
func (m model) renderStarList() string {
	var list strings.Builder

	list.WriteString(headerStyle.Render("Visible Stars:"))
	list.WriteString(fmt.Sprintf(" (%d)", len(m.visible)))
	list.WriteString("\n\n")

	if len(m.visible) == 0 {
		list.WriteString(helpStyle.Render("  No catalog stars above the horizon"))
		return list.String()
	}

	// Show up to 5 stars
	start := 0
	if m.selected > 2 && len(m.visible) > 5 {
		start = m.selected - 2
	}
	end := start + 5
	if end > len(m.visible) {
		end = len(m.visible)
	}

	for i := start; i < end; i++ {
		v := m.visible[i]

		prefix := "  "
		if i == m.selected && m.target == nil {
			prefix = "→ "
		}
		name := v.star.Label()
		if name == "" {
			name = fmt.Sprintf("HR %d", v.star.HR)
		}

		line := fmt.Sprintf("%s%-16s %5.2f  Az:%3.0f° %-2s Alt:%2.0f°  Sun:%5.1f°",
			prefix,
			abbreviate(name, 16),
			v.star.Magnitude,
			v.horiz.Azimuth,
			cardinal(v.horiz.Azimuth),
			v.horiz.Altitude,
			v.sunSep,
		)
		if i == m.selected && m.target == nil {
			line = selectedLine.Render(line)
		}
		list.WriteString(line)
		list.WriteString("\n")
	}
	return list.String()
}
