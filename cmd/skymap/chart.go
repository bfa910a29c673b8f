package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/unklstewy/skyscope/internal/engine"
	"github.com/unklstewy/skyscope/pkg/projection"
)

// SkyChart is a tview primitive that draws the last engine frame
type SkyChart struct {
	*tview.Box
	app *App
}

// NewSkyChart creates the chart panel
func NewSkyChart(app *App) *SkyChart {
	sc := &SkyChart{
		Box: tview.NewBox(),
		app: app,
	}
	sc.SetBorder(true).SetTitle(" Sky Chart - RA/Dec ")
	return sc
}

// Draw renders the chart using tcell
func (sc *SkyChart) Draw(screen tcell.Screen) {
	sc.Box.DrawForSubclass(screen, sc)
	x, y, width, height := sc.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}

	// The refresh loop resizes the engine view on its next pass
	sc.app.resize(width, height)

	sc.app.mu.RLock()
	frame := sc.app.frame
	showLabels := sc.app.showLabels
	sc.app.mu.RUnlock()
	if frame == nil {
		return
	}

	gridStyle := tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray)
	lineStyle := tcell.StyleDefault.Foreground(tcell.ColorDarkCyan)
	labelStyle := tcell.StyleDefault.Foreground(tcell.ColorSteelBlue)
	eyepieceStyle := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	crossStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)

	set := func(c Cell, ch rune, style tcell.Style) {
		if clip(c, x, y, width, height) {
			screen.SetContent(c.X, c.Y, ch, nil, style)
		}
	}
	text := func(c Cell, s string, style tcell.Style) {
		for i, ch := range []rune(s) {
			set(Cell{X: c.X + i, Y: c.Y}, ch, style)
		}
	}
	polyline := func(points []projection.Point, ch rune, style tcell.Style) {
		for i := 1; i < len(points); i++ {
			for _, c := range linePoints(toCell(points[i-1], x, y), toCell(points[i], x, y)) {
				set(c, ch, style)
			}
		}
	}

	// Back to front: grid, figures, eyepiece, stars, labels
	for _, seg := range frame.Grid {
		polyline(seg, '·', gridStyle)
	}
	for _, seg := range frame.Lines {
		polyline(seg, '.', lineStyle)
	}
	for _, seg := range frame.Eyepiece {
		polyline(seg, '○', eyepieceStyle)
	}

	for _, star := range frame.Stars {
		c := toCell(star.Position, x, y)
		set(c, starGlyph(star.Size), starStyle(star.Size))
		if showLabels && star.Label != "" && star.Size >= 5 {
			text(Cell{X: c.X + 2, Y: c.Y}, star.Label, labelStyle)
		}
	}
	if showLabels {
		for _, label := range frame.Labels {
			text(toCell(label.Position, x, y), label.Text, labelStyle.Italic(true))
		}
	}

	if sun := frame.Sun; sun != nil {
		style := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
		if sun.Separation < 20 {
			style = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true).Blink(true)
		}
		set(toCell(sun.Position, x, y), '☉', style)
	}

	set(toCell(frame.Crosshair, x, y), '+', crossStyle)

	// Status line along the bottom border
	status := fmt.Sprintf(" FOV %.1f° ", frame.View.FieldOfView)
	text(Cell{X: x + width - len([]rune(status)) - 1, Y: y + height - 1}, status, crossStyle)
}

// describeView formats the chart center for the telemetry panel
func describeView(v engine.ViewState) string {
	return fmt.Sprintf("[gray]RA:[-]  [white]%s[-]\n[gray]Dec:[-] [white]%s[-]\n[gray]FOV:[-] [white]%.2f°[-]  [gray]Scale:[-] [white]%.0f[-]\n",
		formatRA(v.Center.RightAscension), formatDec(v.Center.Declination),
		v.FieldOfView, v.Orientation.Scale)
}
