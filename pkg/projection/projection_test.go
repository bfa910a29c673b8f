package projection

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/unklstewy/skyscope/pkg/coordinates"
)

func eq(ra, dec float64) coordinates.EquatorialCoordinates {
	return coordinates.EquatorialCoordinates{RightAscension: ra, Declination: dec}
}

func newTestProjection() *Projection {
	opts := DefaultOptions()
	opts.Width = 800
	opts.Height = 600
	return New(opts)
}

func TestNewDefaults(t *testing.T) {
	p := New(Options{Scale: -3})
	o := p.Orientation()
	if o.Scale != DefaultScale {
		t.Errorf("Scale = %v, want %v", o.Scale, DefaultScale)
	}
	if p.Calibration() != DefaultCalibration() {
		t.Errorf("Calibration = %+v, want defaults", p.Calibration())
	}
	fwd, inv := p.Matrices()
	product := fwd.Mul3(inv)
	for i, v := range mgl64.Ident3() {
		if math.Abs(product[i]-v) > 1e-12 {
			t.Fatalf("forward * inverse is not identity: %v", product)
		}
	}
}

func TestCenterMapsToOrigin(t *testing.T) {
	p := newTestProjection()
	for _, c := range []coordinates.EquatorialCoordinates{eq(0, 0), eq(83.6, 22), eq(279.2, 38.8), eq(200, -60)} {
		p.GotoEquatorial(c)
		pt, ok := p.MapEquatorial(c)
		if !ok {
			t.Fatalf("center %+v culled", c)
		}
		if math.Abs(pt.X) > 1e-9 || math.Abs(pt.Y) > 1e-9 {
			t.Errorf("center %+v mapped to %+v, want origin", c, pt)
		}
	}
}

func TestScreenOrientation(t *testing.T) {
	p := newTestProjection()
	p.GotoEquatorial(eq(120, 10))

	north, _ := p.MapEquatorial(eq(120, 15))
	if north.Y >= 0 || math.Abs(north.X) > 1e-9 {
		t.Errorf("north of center mapped to %+v, want straight up", north)
	}
	east, _ := p.MapEquatorial(eq(125, 10))
	if east.X >= 0 {
		t.Errorf("east of center mapped to %+v, want left", east)
	}

	// Rolling the view a quarter turn brings north to the right
	p.SetLatitude(90)
	north, _ = p.MapEquatorial(eq(120, 15))
	if north.X <= 0 || math.Abs(north.Y) > 1e-9 {
		t.Errorf("rolled north mapped to %+v, want straight right", north)
	}
}

func TestBackHemisphereCulling(t *testing.T) {
	p := newTestProjection()
	p.GotoEquatorial(eq(45, 20))
	fwd, _ := p.Matrices()

	for ra := 0.0; ra < 360; ra += 11 {
		for dec := -85.0; dec <= 85; dec += 9.5 {
			v := coordinates.EquatorialToUnitVector(eq(ra, dec))
			depth := fwd.Mul3x1(v.Vec3())[1]
			_, ok := p.MapToScreen(v)
			if ok != (depth >= 0) {
				t.Errorf("(%v, %v): visible=%v with depth %v", ra, dec, ok, depth)
			}
			if p.Facing(v) != (depth >= 0) {
				t.Errorf("(%v, %v): Facing disagrees with depth %v", ra, dec, depth)
			}
		}
	}

	antipode := eq(225, -20)
	if _, ok := p.MapEquatorial(antipode); ok {
		t.Error("antipode of center should be culled")
	}
	p.SetCulling(false)
	if _, ok := p.MapEquatorial(antipode); !ok {
		t.Error("antipode should be mapped with culling disabled")
	}
}

func TestTranslationShiftsDepth(t *testing.T) {
	p := newTestProjection()
	p.GotoEquatorial(eq(0, 0))
	behind := coordinates.EquatorialToUnitVector(eq(180, 0))

	if _, ok := p.MapToScreen(behind); ok {
		t.Fatal("point behind the view should be culled")
	}
	// Moving the eye far enough back brings it into view
	p.SetTranslation(coordinates.UnitVector{X: 2})
	if _, ok := p.MapToScreen(behind); !ok {
		t.Error("translated point should be visible")
	}
}

func TestMapUnmapRoundTrip(t *testing.T) {
	p := newTestProjection()
	centers := []coordinates.EquatorialCoordinates{eq(10, 0), eq(250, 45), eq(90, -70)}
	center := p.ViewCenter()

	for _, c := range centers {
		p.GotoEquatorial(c)
		for ra := 0.0; ra < 360; ra += 7 {
			for dec := -88.0; dec <= 88; dec += 8 {
				target := eq(ra, dec)
				v := coordinates.EquatorialToUnitVector(target)

				// Skip points close to the rim, where depth carries no precision
				fwd, _ := p.Matrices()
				if fwd.Mul3x1(v.Vec3())[1] < 0.05 {
					continue
				}

				screen, ok := p.MapToScreen(v)
				if !ok {
					t.Fatalf("visible point %+v culled", target)
				}
				back, ok := p.ScreenToEquatorial(screen.Add(center), center)
				if !ok {
					t.Fatalf("mapped point %+v has no inverse", target)
				}
				if sep := coordinates.AngularSeparation(back, target); sep > 1e-8 {
					t.Errorf("center %+v: %+v -> %+v (%v deg)", c, target, back, sep)
				}
			}
		}
	}
}

func TestScreenToEquatorialOutOfRange(t *testing.T) {
	p := newTestProjection()
	center := p.ViewCenter()

	if _, ok := p.ScreenToEquatorial(Point{X: center.X + 401, Y: center.Y}, center); ok {
		t.Error("point outside the hemisphere disk should have no inverse")
	}
	got, ok := p.ScreenToEquatorial(Point{X: center.X + 400, Y: center.Y}, center)
	if !ok {
		t.Fatal("point on the rim should invert")
	}
	if sep := coordinates.AngularSeparation(got, p.Center()); math.Abs(sep-90) > 1e-6 {
		t.Errorf("rim point is %v deg from center, want 90", sep)
	}
	if got, ok := p.ScreenToEquatorial(center, center); !ok || coordinates.AngularSeparation(got, p.Center()) > 1e-9 {
		t.Errorf("view center inverted to %+v", got)
	}
}

func TestGotoEquatorialNormalizes(t *testing.T) {
	p := newTestProjection()
	p.GotoEquatorial(eq(-30, 95))
	o := p.Orientation()
	if o.RAAngle != 330 || o.DecAngle != 90 {
		t.Errorf("orientation = %+v, want RA 330 Dec 90", o)
	}

	p.GotoEquatorial(eq(math.NaN(), 10))
	if p.Orientation() != o {
		t.Error("NaN goto should be ignored")
	}

	p.GotoEquatorial(eq(12, 34))
	first := p.Orientation()
	p.GotoEquatorial(eq(12, 34))
	if p.Orientation() != first {
		t.Error("GotoEquatorial should be idempotent")
	}
}
