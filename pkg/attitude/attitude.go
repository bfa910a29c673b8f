// Package attitude turns a handheld device orientation into the horizontal
// coordinates the device is pointing at.
//
// The device frame follows the usual motion sensor convention: x to the right
// of the screen, y toward the top edge, z out of the screen. The reference
// frame has z pointing up, so a device lying flat with the screen up has the
// identity attitude.
package attitude

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/unklstewy/skyscope/pkg/coordinates"
)

// PointingMode selects which device axis is treated as the line of sight.
type PointingMode int

const (
	// TopOfDevice points along the top edge of the device.
	TopOfDevice PointingMode = iota

	// BackCamera points out of the back of the device, through the camera.
	BackCamera
)

var (
	topVector  = mgl64.Vec3{0, 1, 0}
	backVector = mgl64.Vec3{0, 0, -1}
	upVector   = mgl64.Vec3{0, 0, 1}
)

// String returns the configuration name of the mode.
func (m PointingMode) String() string {
	switch m {
	case TopOfDevice:
		return "top"
	case BackCamera:
		return "back"
	default:
		return fmt.Sprintf("PointingMode(%d)", int(m))
	}
}

// ParsePointingMode accepts "top" or "back" in any case.
func ParsePointingMode(s string) (PointingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top", "":
		return TopOfDevice, nil
	case "back", "camera":
		return BackCamera, nil
	}
	return TopOfDevice, fmt.Errorf("unknown pointing mode %q", s)
}

// reference returns the device-frame vector for the mode.
func (m PointingMode) reference() mgl64.Vec3 {
	if m == BackCamera {
		return backVector
	}
	return topVector
}

// Resolver computes pointing directions for one pointing mode.
// The zero value points along the top of the device.
type Resolver struct {
	Mode PointingMode
}

// NewResolver returns a Resolver for mode.
func NewResolver(mode PointingMode) Resolver {
	return Resolver{Mode: mode}
}

// Resolve returns the altitude and azimuth the device is pointing at.
//
// Altitude is the angle between the rotated pointing vector and the horizontal
// plane. Azimuth is the compass heading, turned around by 180 degrees when the
// screen faces the ground. The quaternion is normalized first; a zero
// quaternion is treated as the identity and a non-finite heading as north.
func (r Resolver) Resolve(q mgl64.Quat, heading float64) coordinates.HorizontalCoordinates {
	q = q.Normalize()
	v := q.Rotate(r.Mode.reference())

	var altitude float64
	if length := v.Len(); length > 0 && !math.IsNaN(length) {
		altitude = math.Asin(coordinates.ClampUnit(v[2]/length)) * coordinates.RadiansToDegrees
	}

	if math.IsNaN(heading) || math.IsInf(heading, 0) {
		heading = 0
	}
	azimuth := heading
	if FacingGround(q) {
		azimuth += 180
	}

	return coordinates.HorizontalCoordinates{
		Altitude: altitude,
		Azimuth:  coordinates.NormalizeAzimuth(azimuth),
	}
}

// FacingGround reports whether the back of the device points upward, which
// means the screen is turned toward the ground.
func FacingGround(q mgl64.Quat) bool {
	return q.Normalize().Rotate(backVector).Dot(upVector) > 0
}

// Quaternion builds an attitude from its components in x, y, z, w order.
func Quaternion(x, y, z, w float64) mgl64.Quat {
	return mgl64.Quat{W: w, V: mgl64.Vec3{x, y, z}}
}
