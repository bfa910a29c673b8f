// Package tracking checks telescope slew targets against mount limits.
package tracking

import (
	"math"

	"github.com/unklstewy/skyscope/pkg/coordinates"
)

// Event describes a mount limit a target runs into.
type Event int

const (
	// NoEvent means the mount can slew and track normally
	NoEvent Event = iota

	// MeridianFlip means an equatorial mount must flip to the other side
	// of the pier to reach the target
	MeridianFlip

	// NearZenith means the target is above the maximum altitude, where alt-az
	// mounts suffer severe field rotation
	NearZenith

	// BelowLimit means the target is under the minimum altitude.
	// The mount must not slew there.
	BelowLimit
)

// String returns the event name used in API responses
func (e Event) String() string {
	switch e {
	case NoEvent:
		return "none"
	case MeridianFlip:
		return "meridian_flip"
	case NearZenith:
		return "near_zenith"
	case BelowLimit:
		return "below_limit"
	default:
		return "unknown"
	}
}

// Limits defines the safe pointing range of a mount.
type Limits struct {
	// MinAltitude is the minimum altitude in degrees (typically 10-20°)
	// Below this, atmospheric refraction and obstacles become issues
	MinAltitude float64 `json:"min_altitude"`

	// MaxAltitude is the maximum altitude in degrees (typically 85-88°)
	MaxAltitude float64 `json:"max_altitude"`

	// MeridianFlipHours is the hour angle limit for equatorial mounts.
	// When |HA| exceeds it a flip is needed. 0 = alt-az mount, never flips
	MeridianFlipHours float64 `json:"meridian_flip_hours"`
}

// DefaultLimits returns conservative limits for an alt-az mount.
func DefaultLimits() Limits {
	return Limits{
		MinAltitude: 10.0,
		MaxAltitude: 85.0,
	}
}

// Assessment is the outcome of checking one target.
type Assessment struct {
	Event Event `json:"-"`

	// HourAngle is the target's hour angle in hours [-12, 12)
	HourAngle float64 `json:"hour_angle"`

	// Advice is a human-readable recommendation
	Advice string `json:"advice"`
}

// Check tests a target against the limits. lst is the local sidereal time
// in degrees.
func Check(target coordinates.EquatorialCoordinates, horiz coordinates.HorizontalCoordinates, lst float64, limits Limits) Assessment {
	ha := HourAngle(lst, target.RightAscension)
	a := Assessment{Event: NoEvent, HourAngle: ha}

	switch {
	case horiz.Altitude < limits.MinAltitude:
		a.Event = BelowLimit
	case horiz.Altitude > limits.MaxAltitude:
		a.Event = NearZenith
	case limits.MeridianFlipHours > 0 && math.Abs(ha) > limits.MeridianFlipHours:
		a.Event = MeridianFlip
	}
	a.Advice = Recommend(a.Event, ha, target.Declination)
	return a
}

// HourAngle returns LST minus RA in hours, normalized to [-12, 12).
// Both arguments are in degrees.
func HourAngle(lst, ra float64) float64 {
	ha := coordinates.NormalizeDegrees(lst-ra) / 15
	if ha >= 12 {
		ha -= 24
	}
	return ha
}

// Recommend provides a recommendation for a limit event.
func Recommend(event Event, hourAngle, dec float64) string {
	switch event {
	case NoEvent:
		if math.Abs(dec) > 85.0 {
			return "Target near celestial pole - tracking may be difficult"
		}
		return "Tracking OK"

	case MeridianFlip:
		side := "west"
		if hourAngle < 0 {
			side = "east"
		}
		return "Hour angle limit exceeded - meridian flip required (pier on " + side + " side)"

	case NearZenith:
		return "Target near zenith - severe field rotation, recommend waiting"

	case BelowLimit:
		return "Target below minimum altitude - wait for it to rise"

	default:
		return "Unknown tracking condition"
	}
}
