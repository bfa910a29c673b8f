package projection

import (
	"math"

	"github.com/unklstewy/skyscope/pkg/coordinates"
)

// ViewportSnapshot describes the external sky viewer at one instant.
type ViewportSnapshot struct {
	// Width and Height are the viewer size in pixels
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Corners are the sky positions of the four viewer corners,
	// in the order the viewer reports them
	Corners [4]coordinates.EquatorialCoordinates `json:"corners"`
}

// HalfDiagonal returns half the viewer's diagonal in pixels.
func (s ViewportSnapshot) HalfDiagonal() float64 {
	return math.Hypot(s.Width, s.Height) / 2
}

// Calibration holds the empirical factors applied when matching the scale of
// an external viewer. The two matching paths disagree by a factor of two for
// reasons that have not been established, so both are kept configurable.
type Calibration struct {
	// CenterMatch multiplies the scale computed by MatchExternalViewport.
	CenterMatch float64 `json:"center_match"`

	// CornerFit multiplies the scale computed by FitViewportCorners.
	CornerFit float64 `json:"corner_fit"`
}

// DefaultCalibration returns CenterMatch 1 and CornerFit 0.5.
func DefaultCalibration() Calibration {
	return Calibration{CenterMatch: 1.0, CornerFit: 0.5}
}

// Calibration returns the active calibration factors.
func (p *Projection) Calibration() Calibration {
	return p.calibration
}

// SetCalibration replaces the calibration factors. Non-positive factors are
// replaced by their defaults.
func (p *Projection) SetCalibration(c Calibration) {
	def := DefaultCalibration()
	if c.CenterMatch <= 0 || math.IsNaN(c.CenterMatch) {
		c.CenterMatch = def.CenterMatch
	}
	if c.CornerFit <= 0 || math.IsNaN(c.CornerFit) {
		c.CornerFit = def.CornerFit
	}
	p.calibration = c
}

// MatchExternalViewport sets the scale so that the distance between center and
// the first snapshot corner equals the viewer's half-diagonal in pixels.
//
// Both points are projected at scale 1 and the new scale is the ratio of the
// half-diagonal to their separation, times Calibration.CenterMatch. When
// either point is culled, or the two coincide, the previous scale is kept and
// false is returned.
func (p *Projection) MatchExternalViewport(center coordinates.EquatorialCoordinates, snapshot ViewportSnapshot) (float64, bool) {
	previous := p.orientation.Scale
	p.orientation.Scale = 1

	c, okCenter := p.MapEquatorial(center)
	corner, okCorner := p.MapEquatorial(snapshot.Corners[0])

	p.orientation.Scale = previous
	if !okCenter || !okCorner {
		return previous, false
	}

	distance := c.Distance(corner)
	halfDiagonal := snapshot.HalfDiagonal()
	if distance <= 0 || halfDiagonal <= 0 || math.IsNaN(distance) {
		return previous, false
	}

	p.SetScale(halfDiagonal / distance * p.calibration.CenterMatch)
	return p.orientation.Scale, true
}

// FitViewportCorners sets the scale from the distance between the projection
// origin and the first snapshot corner, times Calibration.CornerFit. It is
// the path used when only the viewer corners and size are known. A culled
// corner leaves the scale unchanged and returns false.
func (p *Projection) FitViewportCorners(snapshot ViewportSnapshot) (float64, bool) {
	previous := p.orientation.Scale
	p.orientation.Scale = 1
	corner, ok := p.MapEquatorial(snapshot.Corners[0])
	p.orientation.Scale = previous
	if !ok {
		return previous, false
	}

	distance := math.Hypot(corner.X, corner.Y)
	halfDiagonal := snapshot.HalfDiagonal()
	if distance <= 0 || halfDiagonal <= 0 || math.IsNaN(distance) {
		return previous, false
	}

	p.SetScale(halfDiagonal / distance * p.calibration.CornerFit)
	return p.orientation.Scale, true
}

// FieldOfView returns the angular extent of the view in degrees.
//
// The horizontal and vertical edges at the middle of each side are mapped
// back to the sphere and the larger of the two spans is returned. Edges that
// fall outside the visible disk are pulled onto its rim, so a view wider than
// the hemisphere reports 180 degrees. A view with no size reports 0.
func (p *Projection) FieldOfView() float64 {
	if p.width <= 0 || p.height <= 0 {
		return 0
	}

	hw, hh := p.width/2, p.height/2
	horizontal := p.span(Point{X: -hw}, Point{X: hw})
	vertical := p.span(Point{Y: -hh}, Point{Y: hh})
	return math.Max(horizontal, vertical)
}

// span measures the angle between the sphere points under two offsets from
// the view center.
func (p *Projection) span(a, b Point) float64 {
	u := p.rimPoint(a).Vec3()
	v := p.rimPoint(b).Vec3()
	return math.Atan2(u.Cross(v).Len(), u.Dot(v)) * coordinates.RadiansToDegrees
}

// rimPoint unmaps an offset from the view center, pulling offsets beyond
// the visible disk onto its rim. The rim stays exact at any scale.
func (p *Projection) rimPoint(offset Point) coordinates.UnitVector {
	s := p.orientation.Scale
	x, y := offset.X/s, offset.Y/s
	if r := math.Hypot(x, y); r > 1 {
		x, y = x/r, y/r
	}
	return p.fromDisk(x, y)
}

// SetFieldOfView sets the scale so that the larger view dimension spans fov
// degrees. Values are limited to (0, 180]; anything else is ignored.
func (p *Projection) SetFieldOfView(fov float64) {
	if fov <= 0 || math.IsNaN(fov) || p.width <= 0 || p.height <= 0 {
		return
	}
	fov = math.Min(fov, 180)
	half := math.Max(p.width, p.height) / 2
	p.SetScale(half / math.Sin(fov/2*coordinates.DegreesToRadians))
}
