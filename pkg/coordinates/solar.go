package coordinates

import (
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
)

// SunPosition represents the sun's position in the sky
type SunPosition struct {
	// Equatorial is the apparent geocentric RA/Dec of the sun
	Equatorial EquatorialCoordinates

	// Horizontal is the sun's position for the observer (no refraction)
	Horizontal HorizontalCoordinates

	// Time is the calculation instant
	Time time.Time
}

// SunEquatorial returns the sun's apparent right ascension and declination
// in degrees, accurate to about 0.01 degree.
func SunEquatorial(t time.Time) EquatorialCoordinates {
	ra, dec := solar.ApparentEquatorial(julian.TimeToJD(t.UTC()))
	return EquatorialCoordinates{
		RightAscension: NormalizeRA(unit.Angle(ra).Deg()),
		Declination:    dec.Deg(),
	}
}

// CalculateSunPosition calculates the sun's position for a given observer and time.
func CalculateSunPosition(observer Observer, t time.Time) SunPosition {
	eq := SunEquatorial(t)
	return SunPosition{
		Equatorial: eq,
		Horizontal: EquatorialToHorizontal(eq, observer, t),
		Time:       t,
	}
}

// IsSunAboveHorizon returns true if the sun is above the horizon.
// -0.833 degrees accounts for the solar radius and standard refraction.
func (sp SunPosition) IsSunAboveHorizon() bool {
	return sp.Horizontal.Altitude > -0.833
}

// AngularSeparation returns the distance in degrees between the sun and a sky position.
func (sp SunPosition) AngularSeparation(target EquatorialCoordinates) float64 {
	return AngularSeparation(sp.Equatorial, target)
}

// SolarSafetyZone represents safety thresholds for pointing optics near the sun
type SolarSafetyZone int

const (
	SafeZoneClear    SolarSafetyZone = 0 // > 20° from sun - safe
	SafeZoneCaution  SolarSafetyZone = 1 // 10-20° from sun - caution
	SafeZoneWarning  SolarSafetyZone = 2 // 5-10° from sun - warning
	SafeZoneDanger   SolarSafetyZone = 3 // 2-5° from sun - danger
	SafeZoneCritical SolarSafetyZone = 4 // < 2° from sun - CRITICAL
)

// GetSafetyZone returns the safety zone based on angular separation from the sun.
func GetSafetyZone(separation float64) SolarSafetyZone {
	if separation < 2.0 {
		return SafeZoneCritical
	} else if separation < 5.0 {
		return SafeZoneDanger
	} else if separation < 10.0 {
		return SafeZoneWarning
	} else if separation < 20.0 {
		return SafeZoneCaution
	}
	return SafeZoneClear
}

// String returns a human-readable name for the safety zone
func (zone SolarSafetyZone) String() string {
	switch zone {
	case SafeZoneClear:
		return "CLEAR"
	case SafeZoneCaution:
		return "CAUTION"
	case SafeZoneWarning:
		return "WARNING"
	case SafeZoneDanger:
		return "DANGER"
	case SafeZoneCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}
