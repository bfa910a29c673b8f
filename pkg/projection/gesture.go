package projection

import (
	"math"

	"github.com/unklstewy/skyscope/pkg/coordinates"
)

// Pan moves the view by a screen-space drag delta in pixels.
//
// A drag across the full view width turns the view 90 degrees of right
// ascension at ReferenceScale; at higher zoom the same drag turns it
// proportionally less. Dragging past a celestial pole reflects the
// declination onto the far side of the pole rather than clamping it.
// Right ascension is not shifted by 180 degrees on a pole crossing.
//
// Pan does nothing while the view size is unknown.
func (p *Projection) Pan(dx, dy float64) {
	if p.width <= 0 || p.height <= 0 {
		return
	}
	if math.IsNaN(dx) || math.IsNaN(dy) || math.IsInf(dx, 0) || math.IsInf(dy, 0) {
		return
	}

	zoom := ReferenceScale / p.orientation.Scale
	deltaRA := 90 * dx / p.width * zoom
	deltaDec := 90 * dy / p.height * zoom

	p.orientation.RAAngle = coordinates.NormalizeRA(p.orientation.RAAngle + deltaRA)
	p.orientation.DecAngle = reflectDeclination(p.orientation.DecAngle + deltaDec)
	p.updateMatrices()
}

// reflectDeclination folds an angle that ran past a pole back into [-90, 90].
func reflectDeclination(angle float64) float64 {
	// Reduce to (-180, 180] first so a single reflection always suffices
	angle = math.Mod(angle, 360)
	if angle > 180 {
		angle -= 360
	} else if angle <= -180 {
		angle += 360
	}

	if angle > 90 {
		angle = 180 - angle
	}
	if angle < -90 {
		angle = -180 - angle
	}
	return angle
}

// BeginZoom records the current scale as the baseline for Zoom.
// Call it when a pinch gesture starts.
func (p *Projection) BeginZoom() {
	p.zoomBaseline = p.orientation.Scale
}

// Zoom sets the scale to the gesture baseline multiplied by factor.
// Factors are relative to the BeginZoom state, not to the previous event.
// Non-positive or non-finite factors are ignored.
func (p *Projection) Zoom(factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	p.SetScale(p.zoomBaseline * factor)
}

// PanTracker turns cumulative gesture translations into per-event deltas.
type PanTracker struct {
	last Point
}

// Begin records the translation at the start of a drag.
func (t *PanTracker) Begin(translation Point) {
	t.last = translation
}

// Move returns the change since the previous call and remembers translation.
func (t *PanTracker) Move(translation Point) Point {
	delta := translation.Sub(t.last)
	t.last = translation
	return delta
}
