package coordinates

import (
	"math"
	"testing"
	"time"
)

// angleDiff returns the absolute difference between two angles in degrees,
// taking wrap-around into account.
func angleDiff(a, b float64) float64 {
	d := math.Abs(NormalizeDegrees(a) - NormalizeDegrees(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// TestEquatorialToHorizontalReference checks the worked almanac example:
// M13 seen from Birmingham on 1998-08-10 at 23:10 UT.
func TestEquatorialToHorizontalReference(t *testing.T) {
	observer := Observer{Location: Geographic{Latitude: 52.5, Longitude: -1.9166667}}
	instant := time.Date(1998, 8, 10, 23, 10, 0, 0, time.UTC)
	m13 := EquatorialCoordinates{RightAscension: 250.425, Declination: 36.466667}

	got := EquatorialToHorizontal(m13, observer, instant)

	if math.Abs(got.Altitude-49.1689) > 1e-3 {
		t.Errorf("Altitude = %.6f, want 49.1689", got.Altitude)
	}
	if math.Abs(got.Azimuth-269.1467) > 1e-3 {
		t.Errorf("Azimuth = %.6f, want 269.1467", got.Azimuth)
	}
}

func TestEquatorialToHorizontalCardinal(t *testing.T) {
	const lat, lst = 40.0, 100.0

	tests := []struct {
		name    string
		eq      EquatorialCoordinates
		wantAlt float64
		wantAz  float64
	}{
		{"Zenith", EquatorialCoordinates{lst, lat}, 90, 0},
		{"North celestial pole", EquatorialCoordinates{0, 90}, lat, 0},
		{"Upper culmination south", EquatorialCoordinates{lst, 0}, 90 - lat, 180},
		{"Rising due east", EquatorialCoordinates{lst + 90, 0}, 0, 90},
		{"Setting due west", EquatorialCoordinates{lst - 90, 0}, 0, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EquatorialToHorizontalAt(tt.eq, lat, lst)
			if math.Abs(got.Altitude-tt.wantAlt) > 1e-6 {
				t.Errorf("Altitude = %v, want %v", got.Altitude, tt.wantAlt)
			}
			// Azimuth is undefined at the zenith
			if tt.wantAlt < 89.9 && angleDiff(got.Azimuth, tt.wantAz) > 1e-5 {
				t.Errorf("Azimuth = %v, want %v", got.Azimuth, tt.wantAz)
			}
			if math.IsNaN(got.Altitude) || math.IsNaN(got.Azimuth) {
				t.Errorf("NaN in result: %+v", got)
			}
		})
	}
}

func TestHorizontalToEquatorialCardinal(t *testing.T) {
	const lat, lst = 52.5, 210.0

	tests := []struct {
		name   string
		hz     HorizontalCoordinates
		wantRA float64
		wantDe float64
	}{
		{"Zenith", HorizontalCoordinates{90, 0}, lst, lat},
		{"North horizon", HorizontalCoordinates{0, 0}, lst + 180, 90 - lat},
		{"East horizon", HorizontalCoordinates{0, 90}, lst + 90, 0},
		{"West horizon", HorizontalCoordinates{0, 270}, lst - 90, 0},
		{"South at equator height", HorizontalCoordinates{90 - lat, 180}, lst, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HorizontalToEquatorialAt(tt.hz, lat, lst)
			if math.Abs(got.Declination-tt.wantDe) > 1e-9 {
				t.Errorf("Declination = %v, want %v", got.Declination, tt.wantDe)
			}
			if angleDiff(got.RightAscension, tt.wantRA) > 1e-9 {
				t.Errorf("RightAscension = %v, want %v", got.RightAscension, NormalizeRA(tt.wantRA))
			}
		})
	}
}

// TestHorizontalRoundTrip converts RA/Dec to Alt/Az and back for many
// latitudes and instants. Positions within a degree of the celestial poles are
// skipped because right ascension is degenerate there.
func TestHorizontalRoundTrip(t *testing.T) {
	instant := time.Date(2025, 11, 3, 4, 17, 0, 0, time.UTC)

	maxErr := 0.0
	for lat := -80.0; lat <= 80; lat += 13 {
		observer := Observer{Location: Geographic{Latitude: lat, Longitude: -71.1}}
		for ra := 0.0; ra < 360; ra += 17 {
			for dec := -85.0; dec <= 85; dec += 10 {
				eq := EquatorialCoordinates{RightAscension: ra, Declination: dec}
				hz := EquatorialToHorizontal(eq, observer, instant)
				back := HorizontalToEquatorial(hz, observer, instant)

				if math.Abs(back.Declination-dec) > 1e-4 || angleDiff(back.RightAscension, ra) > 1e-4 {
					t.Errorf("lat %v: (%v, %v) -> %+v -> (%v, %v)",
						lat, ra, dec, hz, back.RightAscension, back.Declination)
				}
				if e := AngularSeparation(eq, back); e > maxErr {
					maxErr = e
				}
			}
		}
	}
	if maxErr > 1e-5 {
		t.Errorf("max round-trip separation %v deg", maxErr)
	}
}

// TestUnitVectorRoundTrip covers the sphere away from the poles
func TestUnitVectorRoundTrip(t *testing.T) {
	for ra := 0.0; ra < 360; ra += 7.5 {
		for dec := -89.0; dec <= 89; dec += 4.45 {
			eq := EquatorialCoordinates{RightAscension: ra, Declination: dec}
			v := EquatorialToUnitVector(eq)

			if l := v.Length(); math.Abs(l-1) > 1e-12 {
				t.Fatalf("length %v for %+v", l, eq)
			}

			back := UnitVectorToEquatorial(v)
			if angleDiff(back.RightAscension, ra) > 1e-9 || math.Abs(back.Declination-dec) > 1e-9 {
				t.Errorf("(%v, %v) round-tripped to (%v, %v)", ra, dec, back.RightAscension, back.Declination)
			}
		}
	}
}

func TestUnitVectorConvention(t *testing.T) {
	tests := []struct {
		name string
		eq   EquatorialCoordinates
		want UnitVector
	}{
		{"Vernal equinox", EquatorialCoordinates{0, 0}, UnitVector{1, 0, 0}},
		{"Six hours", EquatorialCoordinates{90, 0}, UnitVector{0, 1, 0}},
		{"North pole", EquatorialCoordinates{0, 90}, UnitVector{0, 0, 1}},
		{"South pole", EquatorialCoordinates{123, -90}, UnitVector{0, 0, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EquatorialToUnitVector(tt.eq)
			if math.Abs(got.X-tt.want.X) > 1e-12 || math.Abs(got.Y-tt.want.Y) > 1e-12 || math.Abs(got.Z-tt.want.Z) > 1e-12 {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUnitVectorToEquatorialClamps(t *testing.T) {
	// Slightly longer than unit and the zero vector must not produce NaN
	for _, v := range []UnitVector{{0, 0, 1.0000000001}, {0, 0, 0}, {3, 4, 0}} {
		got := UnitVectorToEquatorial(v)
		if math.IsNaN(got.RightAscension) || math.IsNaN(got.Declination) || !got.Valid() {
			t.Errorf("UnitVectorToEquatorial(%+v) = %+v", v, got)
		}
	}
}

func TestAngularSeparation(t *testing.T) {
	tests := []struct {
		name string
		a, b EquatorialCoordinates
		want float64
	}{
		{"Same point", EquatorialCoordinates{10, 10}, EquatorialCoordinates{10, 10}, 0},
		{"Pole to equator", EquatorialCoordinates{0, 90}, EquatorialCoordinates{200, 0}, 90},
		{"Antipodes", EquatorialCoordinates{0, 0}, EquatorialCoordinates{180, 0}, 180},
		{"Across zero RA", EquatorialCoordinates{359, 0}, EquatorialCoordinates{1, 0}, 2},
		{"One arcsecond", EquatorialCoordinates{0, 0}, EquatorialCoordinates{0, 1.0 / 3600}, 1.0 / 3600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AngularSeparation(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AngularSeparation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestZenith(t *testing.T) {
	observer := Observer{Location: Geographic{Latitude: -33.9, Longitude: 18.4}}
	instant := time.Date(2023, 1, 15, 20, 0, 0, 0, time.UTC)

	z := Zenith(observer, instant)
	hz := EquatorialToHorizontal(z, observer, instant)
	if math.Abs(hz.Altitude-90) > 1e-6 {
		t.Errorf("zenith altitude = %v, want 90", hz.Altitude)
	}
}

// TestNormalizeAzimuth tests azimuth normalization
func TestNormalizeAzimuth(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{0, 0},
		{90, 90},
		{360, 0},
		{450, 90},
		{-90, 270},
		{-450, 270},
		{-1e-15, 0},
	}

	for _, tt := range tests {
		got := NormalizeAzimuth(tt.input)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeAzimuth(%v) = %v, want %v", tt.input, got, tt.want)
		}
		if got < 0 || got >= 360 {
			t.Errorf("NormalizeAzimuth(%v) = %v out of range", tt.input, got)
		}
	}
}

func TestClampUnit(t *testing.T) {
	tests := []struct {
		input, want float64
	}{
		{0.5, 0.5},
		{1.0000000002, 1},
		{-1.0000000002, -1},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := ClampUnit(tt.input); got != tt.want {
			t.Errorf("ClampUnit(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
