package coordinates

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
)

// Day counting is anchored at 2010-01-01 12:00 UTC, whose Julian Day Number is 2455198.
var (
	julianReference    = time.Date(2010, time.January, 1, 12, 0, 0, 0, time.UTC)
	julianReferenceJDN = 2455198.0
)

// JulianDate returns the Julian Date for an instant.
//
// Whole days are counted in 24h periods from the noon reference, and the day
// fraction is measured from the midnight preceding t-12h, which gives the
// noon-based Julian day boundary. Floor division keeps instants before the
// reference on the correct day.
func JulianDate(t time.Time) float64 {
	t = t.UTC()

	// Unix seconds avoid time.Duration overflow for instants centuries away
	between := float64(t.Unix()-julianReference.Unix()) + float64(t.Nanosecond())/1e9
	days := math.Floor(between / SecondsPerDay)

	shifted := t.Add(-12 * time.Hour)
	fraction := (float64(shifted.Hour())*3600 +
		float64(shifted.Minute())*60 +
		float64(shifted.Second()) +
		float64(shifted.Nanosecond())/1e9) / SecondsPerDay

	return julianReferenceJDN + days + fraction
}

// JulianCenturies returns the number of Julian centuries since J2000.0.
func JulianCenturies(jd float64) float64 {
	return (jd - J2000) / DaysPerJulianCentury
}

// Midnight returns 00:00 UTC of the day containing t.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SecondsSinceMidnight returns the UTC seconds elapsed since Midnight(t).
func SecondsSinceMidnight(t time.Time) float64 {
	t = t.UTC()
	return float64(t.Hour())*3600 + float64(t.Minute())*60 +
		float64(t.Second()) + float64(t.Nanosecond())/1e9
}

// GreenwichMeanSiderealTimeSeconds returns GMST in seconds of sidereal time,
// in the range [0, 86400).
//
// Uses the IAU 1982 polynomial for GMST at 0h UT plus the ratio of sidereal
// to solar time multiplied by the UT seconds elapsed since midnight.
func GreenwichMeanSiderealTimeSeconds(t time.Time) float64 {
	T := JulianCenturies(JulianDate(Midnight(t)))

	h0 := 24110.54841 + 8640184.812866*T + 0.093104*T*T - 0.0000062*T*T*T
	omega := 1.00273790935 + 5.9e-11*T

	gmst := math.Mod(h0+omega*SecondsSinceMidnight(t), SecondsPerDay)
	if gmst < 0 {
		gmst += SecondsPerDay
	}
	if gmst >= SecondsPerDay {
		gmst = 0
	}
	return gmst
}

// GreenwichMeanSiderealTime returns GMST as an angle in degrees [0, 360).
func GreenwichMeanSiderealTime(t time.Time) float64 {
	return NormalizeDegrees(GreenwichMeanSiderealTimeSeconds(t) * 360.0 / SecondsPerDay)
}

// LocalMeanSiderealTime returns LMST in degrees [0, 360) for an east-positive longitude.
func LocalMeanSiderealTime(t time.Time, longitude float64) float64 {
	return NormalizeDegrees(GreenwichMeanSiderealTime(t) + longitude)
}

// GreenwichApparentSiderealTime returns GAST in degrees [0, 360).
// Apparent time adds the equation of the equinoxes (nutation) to GMST,
// a correction of at most about a second of time.
func GreenwichApparentSiderealTime(t time.Time) float64 {
	gast := sidereal.Apparent(julian.TimeToJD(t.UTC()))
	return NormalizeDegrees(gast.Sec() * 360.0 / SecondsPerDay)
}

// SiderealModel selects which sidereal time the horizontal transforms use.
type SiderealModel string

const (
	// MeanSidereal uses GMST. This is the default.
	MeanSidereal SiderealModel = "mean"

	// ApparentSidereal uses GAST.
	ApparentSidereal SiderealModel = "apparent"
)

// Local returns the local sidereal time in degrees for the model.
// Unknown models fall back to mean sidereal time.
func (m SiderealModel) Local(t time.Time, longitude float64) float64 {
	if m == ApparentSidereal {
		return NormalizeDegrees(GreenwichApparentSiderealTime(t) + longitude)
	}
	return LocalMeanSiderealTime(t, longitude)
}
