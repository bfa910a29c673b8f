// Package projection maps points on the celestial sphere to a 2D sky chart.
//
// A Projection holds the current view orientation and zoom scale. Points are
// rotated so that the view center lies on the +y (depth) axis, culled when they
// fall behind the observer, and projected orthographically onto the x/z plane.
// Screen taps are inverted back to sky coordinates by reconstructing the
// missing depth component.
//
// A Projection is not safe for concurrent use. All mutating calls must come
// from the goroutine that owns it.
package projection

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/unklstewy/skyscope/pkg/coordinates"
	"github.com/unklstewy/skyscope/pkg/rotation"
)

const (
	// DefaultScale is the initial zoom scale in pixels per unit sphere radius.
	DefaultScale = 400.0

	// ReferenceScale is the scale at which a full-width drag pans 90 degrees.
	ReferenceScale = 400.0

	// diskTolerance absorbs rounding when a mapped point is unmapped again.
	diskTolerance = 1e-12
)

// Point is a position in screen space, in pixels.
// Y grows downward, matching raster conventions.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p offset by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p minus q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// ViewOrientation is the complete mutable state of a Projection.
type ViewOrientation struct {
	// RAAngle is the right ascension at the view center in degrees [0, 360)
	RAAngle float64 `json:"ra_angle"`

	// DecAngle is the declination at the view center in degrees [-90, 90]
	DecAngle float64 `json:"dec_angle"`

	// LatAngle rolls the view about the line of sight in degrees.
	// Zero keeps celestial north up.
	LatAngle float64 `json:"lat_angle"`

	// Scale is the number of pixels per unit of sphere radius. Always positive.
	Scale float64 `json:"scale"`

	// Translation is added to every point before rotation. Normally zero.
	Translation coordinates.UnitVector `json:"translation"`
}

// Center returns the equatorial coordinates at the middle of the view.
func (o ViewOrientation) Center() coordinates.EquatorialCoordinates {
	return coordinates.EquatorialCoordinates{
		RightAscension: o.RAAngle,
		Declination:    o.DecAngle,
	}
}

// Options configures a new Projection.
type Options struct {
	// Scale is the initial zoom scale. Non-positive values use DefaultScale.
	Scale float64

	// Culling hides points on the far hemisphere when true.
	Culling bool

	// LatAngle is the initial roll of the view in degrees.
	LatAngle float64

	// Width and Height are the initial view size in pixels.
	Width  float64
	Height float64

	// Calibration tunes the external viewport matching factors.
	// Zero factors are replaced by their defaults.
	Calibration Calibration
}

// DefaultOptions returns culling enabled at the default scale.
func DefaultOptions() Options {
	return Options{
		Scale:       DefaultScale,
		Culling:     true,
		Calibration: DefaultCalibration(),
	}
}

// Projection is the sky chart state machine.
type Projection struct {
	orientation ViewOrientation
	culling     bool
	width       float64
	height      float64
	calibration Calibration

	// forward and inverse are a cached function of RAAngle, DecAngle and
	// LatAngle; updateMatrices refreshes them after every change.
	forward mgl64.Mat3
	inverse mgl64.Mat3

	// zoomBaseline is the scale captured by BeginZoom
	zoomBaseline float64
}

// New creates a Projection centered on RA 0, Dec 0.
func New(opts Options) *Projection {
	if opts.Scale <= 0 || math.IsNaN(opts.Scale) || math.IsInf(opts.Scale, 0) {
		opts.Scale = DefaultScale
	}
	p := &Projection{
		orientation: ViewOrientation{
			LatAngle: opts.LatAngle,
			Scale:    opts.Scale,
		},
		culling:      opts.Culling,
		zoomBaseline: opts.Scale,
	}
	p.SetCalibration(opts.Calibration)
	p.SetViewSize(opts.Width, opts.Height)
	p.updateMatrices()
	return p
}

// Orientation returns a copy of the current view state.
func (p *Projection) Orientation() ViewOrientation {
	return p.orientation
}

// Matrices returns the cached forward rotation and its inverse.
func (p *Projection) Matrices() (forward, inverse mgl64.Mat3) {
	return p.forward, p.inverse
}

// Center returns the equatorial coordinates at the middle of the view.
func (p *Projection) Center() coordinates.EquatorialCoordinates {
	return p.orientation.Center()
}

// Scale returns the current zoom scale.
func (p *Projection) Scale() float64 {
	return p.orientation.Scale
}

// SetScale replaces the zoom scale. Non-positive or non-finite values are ignored.
func (p *Projection) SetScale(scale float64) {
	if scale > 0 && !math.IsInf(scale, 0) {
		p.orientation.Scale = scale
	}
}

// Culling reports whether far-side points are hidden.
func (p *Projection) Culling() bool {
	return p.culling
}

// SetCulling enables or disables far-side culling.
func (p *Projection) SetCulling(enabled bool) {
	p.culling = enabled
}

// SetTranslation sets the offset added to points before rotation.
func (p *Projection) SetTranslation(v coordinates.UnitVector) {
	p.orientation.Translation = v
}

// SetViewSize records the size of the drawing surface in pixels.
// Negative or non-finite sizes are stored as zero.
func (p *Projection) SetViewSize(width, height float64) {
	p.width = finiteNonNegative(width)
	p.height = finiteNonNegative(height)
}

// ViewSize returns the drawing surface size in pixels.
func (p *Projection) ViewSize() (width, height float64) {
	return p.width, p.height
}

// ViewCenter returns the middle of the drawing surface.
func (p *Projection) ViewCenter() Point {
	return Point{X: p.width / 2, Y: p.height / 2}
}

// GotoEquatorial centers the view on eq. Non-finite coordinates are ignored.
func (p *Projection) GotoEquatorial(eq coordinates.EquatorialCoordinates) {
	if !finite(eq.RightAscension) || !finite(eq.Declination) {
		return
	}
	p.orientation.RAAngle = coordinates.NormalizeRA(eq.RightAscension)
	p.orientation.DecAngle = math.Max(-90, math.Min(90, eq.Declination))
	p.updateMatrices()
}

// SetLatitude sets the roll of the view about the line of sight.
func (p *Projection) SetLatitude(lat float64) {
	p.orientation.LatAngle = lat
	p.updateMatrices()
}

// MapToScreen projects a sphere point to screen space relative to the view
// center. The second result is false when culling is enabled and the point
// lies on the far hemisphere.
func (p *Projection) MapToScreen(v coordinates.UnitVector) (Point, bool) {
	r := p.forward.Mul3x1(v.Add(p.orientation.Translation).Vec3())
	if p.culling && r[1] < 0 {
		return Point{}, false
	}
	s := p.orientation.Scale
	return Point{X: s * r[0], Y: -s * r[2]}, true
}

// MapEquatorial projects an equatorial position; see MapToScreen.
func (p *Projection) MapEquatorial(eq coordinates.EquatorialCoordinates) (Point, bool) {
	return p.MapToScreen(coordinates.EquatorialToUnitVector(eq))
}

// MapToView projects a sphere point into drawing surface coordinates,
// with the origin at the top-left corner.
func (p *Projection) MapToView(v coordinates.UnitVector) (Point, bool) {
	pt, ok := p.MapToScreen(v)
	if !ok {
		return Point{}, false
	}
	return pt.Add(p.ViewCenter()), true
}

// ScreenToEquatorial inverts the projection for a screen point, given the
// screen position of the view center. The second result is false when the
// point lies outside the disk of the visible hemisphere.
func (p *Projection) ScreenToEquatorial(screen, center Point) (coordinates.EquatorialCoordinates, bool) {
	q, ok := p.unmap(screen, center)
	if !ok {
		return coordinates.EquatorialCoordinates{}, false
	}
	return coordinates.UnitVectorToEquatorial(q), true
}

// unmap reconstructs the sphere point under a screen position.
func (p *Projection) unmap(screen, center Point) (coordinates.UnitVector, bool) {
	s := p.orientation.Scale
	x := (screen.X - center.X) / s
	y := (screen.Y - center.Y) / s

	r2 := x*x + y*y
	if r2 > 1+diskTolerance || math.IsNaN(r2) {
		return coordinates.UnitVector{}, false
	}
	return p.fromDisk(x, y), true
}

// fromDisk lifts a point of the unit disk, in scale units, back onto the
// visible hemisphere.
func (p *Projection) fromDisk(x, y float64) coordinates.UnitVector {
	depth := math.Sqrt(math.Max(0, 1-x*x-y*y))
	return coordinates.FromVec3(p.inverse.Mul3x1(mgl64.Vec3{x, depth, -y}))
}

// Facing reports whether v lies on the visible hemisphere, whatever the
// culling setting.
func (p *Projection) Facing(v coordinates.UnitVector) bool {
	return p.forward.Mul3x1(v.Vec3())[1] >= 0
}

// updateMatrices recomputes the forward rotation and its inverse.
//
// The forward matrix turns the frame so that the view center lands on +y:
// first about z by RA-90, then about x by Dec, then about y by the roll.
func (p *Projection) updateMatrices() {
	o := p.orientation
	p.forward = rotation.Compose(
		rotation.AroundY(o.LatAngle),
		rotation.AroundX(o.DecAngle),
		rotation.AroundZ(o.RAAngle-90),
	)
	p.inverse = rotation.Compose(
		rotation.AroundZ(90-o.RAAngle),
		rotation.AroundX(-o.DecAngle),
		rotation.AroundY(-o.LatAngle),
	)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteNonNegative(v float64) float64 {
	if v < 0 || !finite(v) {
		return 0
	}
	return v
}
