package coordinates

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/unklstewy/skyscope/pkg/rotation"
)

// EquatorialToUnitVector converts equatorial coordinates to a point on the unit sphere.
func EquatorialToUnitVector(eq EquatorialCoordinates) UnitVector {
	raRad, decRad := eq.ToRadians()
	sinRA, cosRA := math.Sincos(raRad)
	sinDec, cosDec := math.Sincos(decRad)
	return UnitVector{
		X: cosRA * cosDec,
		Y: sinRA * cosDec,
		Z: sinDec,
	}
}

// UnitVectorToEquatorial converts a point on the unit sphere back to equatorial
// coordinates. The input is normalized first; the zero vector maps to (0, 0).
//
// Right ascension comes from atan2(y, x), which loses precision as |z| approaches
// 1: at the poles every right ascension describes the same point.
func UnitVectorToEquatorial(v UnitVector) EquatorialCoordinates {
	length := v.Length()
	if length == 0 || math.IsNaN(length) {
		return EquatorialCoordinates{}
	}

	ra := math.Atan2(v.Y, v.X) * RadiansToDegrees
	dec := math.Asin(ClampUnit(v.Z/length)) * RadiansToDegrees
	return EquatorialCoordinates{
		RightAscension: NormalizeRA(ra),
		Declination:    dec,
	}
}

// Vec3 converts the vector to an mgl64.Vec3.
func (u UnitVector) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{u.X, u.Y, u.Z}
}

// FromVec3 converts an mgl64.Vec3 to a UnitVector without normalizing it.
func FromVec3(v mgl64.Vec3) UnitVector {
	return UnitVector{X: v[0], Y: v[1], Z: v[2]}
}

// EquatorialToHorizontal converts equatorial coordinates to horizontal (Alt/Az)
// coordinates for an observer at the given instant, using mean sidereal time.
//
// Algorithm:
//  1. Hour angle H = LMST - RA, normalized to [0, 360)
//  2. alt = asin(sin(dec)sin(lat) + cos(dec)cos(lat)cos(H))
//  3. az = acos((sin(dec) - sin(alt)sin(lat)) / (cos(alt)cos(lat)))
//  4. az is reflected to 360 - az when sin(H) > 0 (object west of the meridian)
func EquatorialToHorizontal(eq EquatorialCoordinates, observer Observer, t time.Time) HorizontalCoordinates {
	lst := LocalMeanSiderealTime(t, observer.Location.Longitude)
	return EquatorialToHorizontalAt(eq, observer.Location.Latitude, lst)
}

// EquatorialToHorizontalAt performs the conversion for a precomputed local
// sidereal time in degrees.
func EquatorialToHorizontalAt(eq EquatorialCoordinates, latitude, lst float64) HorizontalCoordinates {
	ha := NormalizeDegrees(lst-eq.RightAscension) * DegreesToRadians
	decRad := eq.Declination * DegreesToRadians
	latRad := latitude * DegreesToRadians

	sinDec, cosDec := math.Sincos(decRad)
	sinLat, cosLat := math.Sincos(latRad)

	sinAlt := ClampUnit(sinDec*sinLat + cosDec*cosLat*math.Cos(ha))
	altRad := math.Asin(sinAlt)

	// At the zenith or at a geographic pole the azimuth is undefined
	var azimuth float64
	denominator := math.Cos(altRad) * cosLat
	if math.Abs(denominator) > 1e-12 {
		cosAz := ClampUnit((sinDec - sinAlt*sinLat) / denominator)
		azimuth = math.Acos(cosAz) * RadiansToDegrees
		if math.Sin(ha) > 0 {
			azimuth = 360.0 - azimuth
		}
	}

	return HorizontalCoordinates{
		Altitude: altRad * RadiansToDegrees,
		Azimuth:  NormalizeAzimuth(azimuth),
	}
}

// HorizontalToEquatorial converts horizontal (Alt/Az) coordinates to equatorial
// coordinates for an observer at the given instant, using mean sidereal time.
//
// The direct inverse formula is ill-conditioned away from the equator, so the
// conversion is done in two steps: solve for hour angle and declination as
// seen from latitude 0, then tilt that unit vector to the observer's latitude
// with a rotation about the north-south (y) axis and read the result back.
func HorizontalToEquatorial(hz HorizontalCoordinates, observer Observer, t time.Time) EquatorialCoordinates {
	lst := LocalMeanSiderealTime(t, observer.Location.Longitude)
	return HorizontalToEquatorialAt(hz, observer.Location.Latitude, lst)
}

// HorizontalToEquatorialAt performs the conversion for a precomputed local
// sidereal time in degrees.
func HorizontalToEquatorialAt(hz HorizontalCoordinates, latitude, lst float64) EquatorialCoordinates {
	altRad, azRad := hz.ToRadians()
	sinAlt, cosAlt := math.Sincos(altRad)
	sinAz, cosAz := math.Sincos(azRad)

	// Equatorial observer: the celestial pole lies on the northern horizon
	dec0 := math.Asin(ClampUnit(cosAlt*cosAz)) * RadiansToDegrees
	ha0 := math.Atan2(-sinAz*cosAlt, sinAlt) * RadiansToDegrees

	// In the meridian frame the hour angle runs opposite to right ascension
	meridian := EquatorialToUnitVector(EquatorialCoordinates{RightAscension: -ha0, Declination: dec0})
	tilted := rotation.AroundY(-latitude).Mul3x1(meridian.Vec3())

	local := UnitVectorToEquatorial(FromVec3(tilted))
	return EquatorialCoordinates{
		RightAscension: NormalizeRA(local.RightAscension + lst),
		Declination:    local.Declination,
	}
}

// AngularSeparation returns the great-circle distance between two positions in degrees.
// Uses atan2 of the cross and dot products, which stays accurate for both tiny
// and near-antipodal separations.
func AngularSeparation(a, b EquatorialCoordinates) float64 {
	u := EquatorialToUnitVector(a).Vec3()
	v := EquatorialToUnitVector(b).Vec3()
	return math.Atan2(u.Cross(v).Len(), u.Dot(v)) * RadiansToDegrees
}

// Zenith returns the equatorial coordinates of the observer's zenith.
func Zenith(observer Observer, t time.Time) EquatorialCoordinates {
	return EquatorialCoordinates{
		RightAscension: LocalMeanSiderealTime(t, observer.Location.Longitude),
		Declination:    observer.Location.Latitude,
	}
}
