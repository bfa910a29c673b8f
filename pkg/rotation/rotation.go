// Package rotation builds the 3x3 rotation matrices used to orient the sky sphere.
//
// AroundX and AroundZ rotate the coordinate frame rather than the vector, so
// AroundX(a) equals mgl64.Rotate3DX(-a). AroundY uses the opposite sense and
// equals mgl64.Rotate3DY(a). The projection depends on exactly these signs.
// Composition order is significant; Compose multiplies left to right, so the
// right-most matrix is applied first.
package rotation

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const degreesToRadians = math.Pi / 180.0

// AroundX returns the frame rotation about the x axis by degrees.
func AroundX(degrees float64) mgl64.Mat3 {
	s, c := math.Sincos(degrees * degreesToRadians)
	return mgl64.Mat3FromRows(
		mgl64.Vec3{1, 0, 0},
		mgl64.Vec3{0, c, s},
		mgl64.Vec3{0, -s, c},
	)
}

// AroundY returns the rotation about the y axis by degrees.
func AroundY(degrees float64) mgl64.Mat3 {
	s, c := math.Sincos(degrees * degreesToRadians)
	return mgl64.Mat3FromRows(
		mgl64.Vec3{c, 0, s},
		mgl64.Vec3{0, 1, 0},
		mgl64.Vec3{-s, 0, c},
	)
}

// AroundZ returns the frame rotation about the z axis by degrees.
func AroundZ(degrees float64) mgl64.Mat3 {
	s, c := math.Sincos(degrees * degreesToRadians)
	return mgl64.Mat3FromRows(
		mgl64.Vec3{c, s, 0},
		mgl64.Vec3{-s, c, 0},
		mgl64.Vec3{0, 0, 1},
	)
}

// AroundAxis returns the rotation of vectors by degrees about the axis u
// (Rodrigues' formula). u is normalized first; a zero axis yields the identity.
func AroundAxis(u mgl64.Vec3, degrees float64) mgl64.Mat3 {
	if u.Len() == 0 {
		return mgl64.Ident3()
	}
	u = u.Normalize()
	s, c := math.Sincos(degrees * degreesToRadians)
	t := 1 - c
	x, y, z := u[0], u[1], u[2]

	return mgl64.Mat3FromRows(
		mgl64.Vec3{c + t*x*x, t*x*y - s*z, t*x*z + s*y},
		mgl64.Vec3{t*x*y + s*z, c + t*y*y, t*y*z - s*x},
		mgl64.Vec3{t*x*z - s*y, t*y*z + s*x, c + t*z*z},
	)
}

// Compose multiplies the matrices left to right. No arguments yields the identity.
func Compose(ms ...mgl64.Mat3) mgl64.Mat3 {
	out := mgl64.Ident3()
	for _, m := range ms {
		out = out.Mul3(m)
	}
	return out
}
