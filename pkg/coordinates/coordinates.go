package coordinates

import (
	"math"
)

// Constants for coordinate calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// SecondsPerDay is the length of a mean solar day in seconds
	SecondsPerDay = 86400.0

	// J2000 is the Julian Date of the J2000.0 epoch (2000-01-01 12:00 TT)
	J2000 = 2451545.0

	// DaysPerJulianCentury is the number of days in a Julian century
	DaysPerJulianCentury = 36525.0
)

// Geographic represents a position on Earth's surface.
// Uses the WGS84 coordinate system (same as GPS).
type Geographic struct {
	// Latitude in decimal degrees (-90 to +90)
	// Positive = North, Negative = South
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	// Positive = East, Negative = West
	Longitude float64

	// Altitude in meters above mean sea level (MSL)
	Altitude float64
}

// HorizontalCoordinates represents a position in the local horizontal coordinate system.
// Also known as Alt/Az (Altitude-Azimuth) coordinates.
type HorizontalCoordinates struct {
	// Altitude in degrees above the horizon (-90 to +90)
	// 0 = horizon, 90 = zenith
	Altitude float64 `json:"altitude"`

	// Azimuth in degrees from north (0-360)
	// 0/360 = North, 90 = East, 180 = South, 270 = West
	Azimuth float64 `json:"azimuth"`
}

// EquatorialCoordinates represents a position in the equatorial coordinate system.
// Both angles are in degrees. Right ascension is kept in degrees rather than hours
// so that it composes directly with sidereal angles and rotation matrices.
type EquatorialCoordinates struct {
	// RightAscension in decimal degrees (0-360)
	// Increases eastward along the celestial equator
	RightAscension float64 `json:"ra"`

	// Declination in decimal degrees (-90 to +90)
	// 0 = celestial equator, +90 = north celestial pole
	Declination float64 `json:"dec"`
}

// Valid reports whether the declination lies on the sphere.
// A declination outside [-90, 90] means an upstream computation went wrong.
func (e EquatorialCoordinates) Valid() bool {
	return e.Declination >= -90 && e.Declination <= 90 &&
		!math.IsNaN(e.RightAscension) && !math.IsInf(e.RightAscension, 0)
}

// Hours returns the right ascension in decimal hours (0-24).
func (e EquatorialCoordinates) Hours() float64 {
	return NormalizeRA(e.RightAscension) / 15.0
}

// Observer represents the geographic location of the observer.
// All transformations between horizontal and equatorial coordinates
// depend on the observer's position on Earth.
type Observer struct {
	// Location is the observer's position on Earth
	Location Geographic

	// Timezone is the IANA timezone name (e.g., "America/New_York")
	// Used for display only; all internal calculations use UTC
	Timezone string
}

// UnitVector is a point on the unit sphere.
// ra=0,dec=0 maps to (1,0,0); right ascension turns counter-clockwise in the
// xy-plane and dec=90 maps to (0,0,1).
type UnitVector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Dot returns the scalar product of two vectors.
func (u UnitVector) Dot(v UnitVector) float64 {
	return u.X*v.X + u.Y*v.Y + u.Z*v.Z
}

// Add returns the component-wise sum of two vectors.
func (u UnitVector) Add(v UnitVector) UnitVector {
	return UnitVector{X: u.X + v.X, Y: u.Y + v.Y, Z: u.Z + v.Z}
}

// Length returns the Euclidean norm.
func (u UnitVector) Length() float64 {
	return math.Sqrt(u.Dot(u))
}

// ToRadians converts HorizontalCoordinates to radians.
// Returns (altRad, azRad).
func (h HorizontalCoordinates) ToRadians() (float64, float64) {
	return h.Altitude * DegreesToRadians,
		h.Azimuth * DegreesToRadians
}

// ToRadians converts EquatorialCoordinates to radians.
// Returns (raRad, decRad).
func (e EquatorialCoordinates) ToRadians() (float64, float64) {
	return e.RightAscension * DegreesToRadians,
		e.Declination * DegreesToRadians
}

// NormalizeDegrees maps any angle into [0, 360).
func NormalizeDegrees(angle float64) float64 {
	a := math.Mod(angle, 360.0)
	if a < 0 {
		a += 360.0
	}
	// math.Mod of a tiny negative value can round up to exactly 360
	if a >= 360.0 {
		a = 0
	}
	return a
}

// NormalizeAzimuth ensures azimuth is in the range [0, 360).
func NormalizeAzimuth(azimuth float64) float64 {
	return NormalizeDegrees(azimuth)
}

// NormalizeRA ensures right ascension is in the range [0, 360).
func NormalizeRA(ra float64) float64 {
	return NormalizeDegrees(ra)
}

// ClampUnit limits x to [-1, 1] so that asin/acos never see arguments pushed
// out of range by floating point error. NaN is mapped to 0.
func ClampUnit(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 0
	case x > 1:
		return 1
	case x < -1:
		return -1
	}
	return x
}
