package projection

import (
	"math"

	"github.com/unklstewy/skyscope/pkg/coordinates"
	"github.com/unklstewy/skyscope/pkg/rotation"
)

// DefaultCurveSegments is the number of segments used for grid lines and circles.
const DefaultCurveSegments = 100

// CircleOfDeclination returns n+1 points tracing the parallel at dec,
// starting and ending at RA 0.
func CircleOfDeclination(dec float64, n int) []coordinates.UnitVector {
	if n <= 0 {
		n = DefaultCurveSegments
	}
	points := make([]coordinates.UnitVector, 0, n+1)
	for i := 0; i <= n; i++ {
		ra := 360.0 * float64(i) / float64(n)
		points = append(points, coordinates.EquatorialToUnitVector(coordinates.EquatorialCoordinates{
			RightAscension: ra,
			Declination:    dec,
		}))
	}
	return points
}

// ArcOfRightAscension returns n+1 points tracing the meridian at ra from the
// south celestial pole to the north celestial pole.
func ArcOfRightAscension(ra float64, n int) []coordinates.UnitVector {
	if n <= 0 {
		n = DefaultCurveSegments
	}
	points := make([]coordinates.UnitVector, 0, n+1)
	for i := 0; i <= n; i++ {
		dec := -90.0 + 180.0*float64(i)/float64(n)
		points = append(points, coordinates.EquatorialToUnitVector(coordinates.EquatorialCoordinates{
			RightAscension: ra,
			Declination:    dec,
		}))
	}
	return points
}

// FieldOfViewCircle returns n+1 points on the small circle of angular radius
// degrees around center. The circle is built around the north pole and then
// turned so that the pole lands on center.
func FieldOfViewCircle(center coordinates.EquatorialCoordinates, radius float64, n int) []coordinates.UnitVector {
	if n <= 0 {
		n = DefaultCurveSegments
	}
	m := rotation.Compose(
		rotation.AroundZ(90-center.RightAscension),
		rotation.AroundX(90-center.Declination),
	)

	circle := CircleOfDeclination(90-math.Abs(radius), n)
	for i, v := range circle {
		circle[i] = coordinates.FromVec3(m.Mul3x1(v.Vec3()))
	}
	return circle
}

// StrokeSegments projects a curve and splits it into polylines at culled
// points. Runs shorter than two points are dropped.
func (p *Projection) StrokeSegments(curve []coordinates.UnitVector) [][]Point {
	var (
		segments [][]Point
		run      []Point
	)
	for _, v := range curve {
		pt, ok := p.MapToScreen(v)
		if !ok {
			if len(run) > 1 {
				segments = append(segments, run)
			}
			run = nil
			continue
		}
		run = append(run, pt)
	}
	if len(run) > 1 {
		segments = append(segments, run)
	}
	return segments
}

// ProjectSegment projects a line between two sphere points. Both ends must
// be visible.
func (p *Projection) ProjectSegment(a, b coordinates.UnitVector) (Point, Point, bool) {
	pa, okA := p.MapToScreen(a)
	pb, okB := p.MapToScreen(b)
	if !okA || !okB {
		return Point{}, Point{}, false
	}
	return pa, pb, true
}

// ZoomedScale is the scale above which stars are drawn with the zoomed size table.
const ZoomedScale = 1000.0

// MagnitudeSize returns the marker diameter in pixels for a star of the given
// visual magnitude. Faint stars shrink more slowly when the view is zoomed in.
func MagnitudeSize(magnitude, scale float64) float64 {
	sizes := [4]float64{5, 2, 1.5, 0.5}
	if scale > ZoomedScale {
		sizes = [4]float64{5, 3, 1.5, 1.5}
	}

	switch {
	case magnitude < 3.5:
		return sizes[0]
	case magnitude < 4:
		return sizes[1]
	case magnitude < 5:
		return sizes[2]
	default:
		return sizes[3]
	}
}
