package main

import (
	"github.com/gdamore/tcell/v2"

	"github.com/unklstewy/skyscope/pkg/projection"
)

// cellAspect is the height of a terminal cell in chart pixels. Cells are
// about twice as tall as they are wide, so each cell spans one pixel across
// and two down.
const cellAspect = 2.0

// Cell is a character position on the screen.
type Cell struct {
	X, Y int
}

// chartSize returns the chart surface size in pixels for a box of cells.
func chartSize(width, height int) (float64, float64) {
	return float64(width), float64(height) * cellAspect
}

// toCell maps a chart pixel to a screen cell inside a box whose top-left
// corner is at (x0, y0).
func toCell(p projection.Point, x0, y0 int) Cell {
	return Cell{
		X: x0 + int(p.X),
		Y: y0 + int(p.Y/cellAspect),
	}
}

// clip reports whether c lies inside the box.
func clip(c Cell, x, y, width, height int) bool {
	return c.X >= x && c.X < x+width && c.Y >= y && c.Y < y+height
}

// linePoints returns the cells on a line using Bresenham's algorithm
func linePoints(a, b Cell) []Cell {
	dx := abs(b.X - a.X)
	dy := abs(b.Y - a.Y)
	sx := -1
	if a.X < b.X {
		sx = 1
	}
	sy := -1
	if a.Y < b.Y {
		sy = 1
	}
	err := dx - dy

	cells := make([]Cell, 0, max(dx, dy)+1)
	for {
		cells = append(cells, a)
		if a == b {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			a.X += sx
		}
		if e2 < dx {
			err += dx
			a.Y += sy
		}
	}
	return cells
}

// starGlyph picks a character for a star marker of the given size.
func starGlyph(size float64) rune {
	switch {
	case size >= 5:
		return '✶'
	case size >= 2:
		return '*'
	case size >= 1.5:
		return '+'
	default:
		return '·'
	}
}

// starStyle colors a star by its marker size.
func starStyle(size float64) tcell.Style {
	switch {
	case size >= 5:
		return tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	case size >= 2:
		return tcell.StyleDefault.Foreground(tcell.ColorLightYellow)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorGray)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
