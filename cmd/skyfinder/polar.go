package main

import (
	"math"

	"github.com/unklstewy/skyscope/pkg/coordinates"
)

// Zenith view layout
const (
	polarWidth  = skyWidth - 2
	polarHeight = skyHeight

	// aspectRatio corrects for terminal cells being about twice as tall as wide
	aspectRatio = 0.5
)

// polarRadius is the horizon radius in rows at zoom 1
func polarRadius() float64 {
	maxY := float64(polarHeight/2 - 1)
	maxX := float64(polarWidth/2-1) * aspectRatio
	return math.Min(maxX, maxY)
}

// polarToScreen maps a horizontal position onto a zenith-centered disk seen
// from below: north up, east to the left. Returns -1,-1 outside the disk.
func (m model) polarToScreen(altitude, azimuth float64) (int, int) {
	if altitude < m.minAlt {
		return -1, -1
	}
	maxR := polarRadius()
	r := (90 - altitude) / 90 * maxR * m.zoom
	if r > maxR+0.5 {
		return -1, -1
	}

	az := coordinates.NormalizeAzimuth(azimuth) * coordinates.DegreesToRadians
	cx, cy := polarWidth/2, polarHeight/2
	x := cx - int(math.Round(r*math.Sin(az)/aspectRatio))
	y := cy - int(math.Round(r*math.Cos(az)))

	if x < 0 || x >= polarWidth || y < 0 || y >= polarHeight {
		return -1, -1
	}
	return x, y
}

// renderPolar draws the whole sky around the zenith
func (m model) renderPolar() string {
	grid := newGrid(polarWidth, polarHeight)
	cx, cy := polarWidth/2, polarHeight/2
	maxR := polarRadius()

	// Altitude rings at the horizon, 30° and 60°
	for _, alt := range []float64{0, 30, 60} {
		r := (90 - alt) / 90 * maxR * m.zoom
		if r > maxR+0.5 {
			continue
		}
		drawCircle(grid, cx, cy, int(math.Round(r)), aspectRatio, '◦')
	}

	// Cardinal directions on the horizon
	for _, c := range []struct {
		az   float64
		name rune
	}{{0, 'N'}, {90, 'E'}, {180, 'S'}, {270, 'W'}} {
		if x, y := m.polarToScreen(0, c.az); x >= 0 {
			grid[y][x] = c.name
		}
	}
	grid[cy][cx] = '·'

	m.plotAll(grid, m.polarToScreen)
	return renderGrid(grid, polarWidth)
}

// drawCircle draws a circle on the grid using Bresenham's circle algorithm,
// stretching x by the cell aspect ratio.
func drawCircle(grid [][]rune, cx, cy, radius int, aspectRatio float64, char rune) {
	x := radius
	y := 0
	err := 0

	for x >= y {
		xScaled := int(float64(x) / aspectRatio)
		yScaled := int(float64(y) / aspectRatio)

		setPixel(grid, cx+xScaled, cy+y, char)
		setPixel(grid, cx+yScaled, cy+x, char)
		setPixel(grid, cx-yScaled, cy+x, char)
		setPixel(grid, cx-xScaled, cy+y, char)
		setPixel(grid, cx-xScaled, cy-y, char)
		setPixel(grid, cx-yScaled, cy-x, char)
		setPixel(grid, cx+yScaled, cy-x, char)
		setPixel(grid, cx+xScaled, cy-y, char)

		y++
		err += 1 + 2*y
		if 2*(err-x)+1 > 0 {
			x--
			err += 1 - 2*x
		}
	}
}

// setPixel sets a cell if it is in bounds and empty
func setPixel(grid [][]rune, x, y int, char rune) {
	if y >= 0 && y < len(grid) && x >= 0 && x < len(grid[0]) {
		if grid[y][x] == ' ' {
			grid[y][x] = char
		}
	}
}
