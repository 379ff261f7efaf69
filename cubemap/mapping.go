package cubemap

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// maxCot bounds cot(phi) so that the poles stay finite.
const maxCot = 1e9

// WrapAngle returns a wrapped into the half-open range [-pi, pi).
func WrapAngle(a float64) float64 {
	r := a - 2*math.Pi*math.Floor((a+math.Pi)/(2*math.Pi))
	if r < -math.Pi {
		r += 2 * math.Pi
	}
	if r >= math.Pi {
		r -= 2 * math.Pi
	}
	return r
}

// SphericalToDirection returns the unit direction for polar angle phi and
// azimuth theta.
func SphericalToDirection(phi, theta float64) r3.Vector {
	sinPhi := math.Sin(phi)
	return r3.Vector{
		X: sinPhi * math.Sin(theta),
		Y: math.Cos(phi),
		Z: sinPhi * math.Cos(theta),
	}
}

// DirectionToSpherical returns the polar angle and azimuth of d. d does not
// need to be normalized. The zero vector maps to (pi/2, 0).
func DirectionToSpherical(d r3.Vector) (phi, theta float64) {
	r := math.Hypot(d.X, d.Z)
	if r == 0 && d.Y == 0 {
		return math.Pi / 2, 0
	}
	phi = math.Atan2(r, d.Y)
	if r == 0 {
		return phi, 0
	}
	return phi, WrapAngle(math.Atan2(d.X, d.Z))
}

// LatLonToSpherical converts latitude/longitude to polar angle/azimuth.
func LatLonToSpherical(lat, lon float64) (phi, theta float64) {
	return math.Pi/2 - lat, WrapAngle(lon)
}

// SphericalToLatLon converts polar angle/azimuth to latitude/longitude.
func SphericalToLatLon(phi, theta float64) (lat, lon float64) {
	return math.Pi/2 - phi, WrapAngle(theta)
}

// SphericalToFaceUV projects the direction (phi, theta) onto the cube and
// returns the face it lands on with face-local coordinates in [0,1].
func SphericalToFaceUV(phi, theta float64) (Face, float64, float64) {
	phi = math.Max(0, math.Min(math.Pi, phi))

	cot := math.Cos(phi) / math.Sin(phi)
	switch {
	case math.IsNaN(cot):
		cot = 0
	case cot > maxCot:
		cot = maxCot
	case cot < -maxCot:
		cot = -maxCot
	}

	return DirectionToFaceUV(r3.Vector{X: math.Sin(theta), Y: cot, Z: math.Cos(theta)})
}

// DirectionToFaceUV classifies d by its dominant axis and returns the face
// and face-local (u, v) in [0,1]. When two or three axes are equally
// dominant, x wins over y and y wins over z. The zero vector maps to the
// centre of Front.
func DirectionToFaceUV(d r3.Vector) (Face, float64, float64) {
	ax, ay, az := math.Abs(d.X), math.Abs(d.Y), math.Abs(d.Z)
	m := math.Max(ax, math.Max(ay, az))
	if !(m > 0) || math.IsInf(m, 0) {
		return Front, 0.5, 0.5
	}

	// Project onto the cube surface along the ray.
	p := r3.Vector{X: d.X / m, Y: d.Y / m, Z: d.Z / m}

	var f Face
	switch {
	case ax >= ay && ax >= az:
		f = Right
		if d.X < 0 {
			f = Left
		}
	case ay >= az:
		f = Top
		if d.Y < 0 {
			f = Bottom
		}
	default:
		f = Front
		if d.Z < 0 {
			f = Back
		}
	}

	su, sv := cubeToFace(f, p)
	return f, (su + 1) / 2, (sv + 1) / 2
}

// FaceUVToDirection returns the point on the cube surface for face-local
// (u, v). The result is not normalized.
func FaceUVToDirection(f Face, u, v float64) (r3.Vector, error) {
	if !f.Valid() {
		return r3.Vector{}, fmt.Errorf("%w: %d", ErrUnsupportedFace, int(f))
	}
	return faceToCube(f, 2*u-1, 2*v-1), nil
}

// FaceUVToSpherical is the inverse of SphericalToFaceUV.
func FaceUVToSpherical(f Face, u, v float64) (phi, theta float64, err error) {
	d, err := FaceUVToDirection(f, u, v)
	if err != nil {
		return 0, 0, err
	}
	phi, theta = DirectionToSpherical(d.Normalize())
	return phi, theta, nil
}

// cubeToFace maps a point on the cube surface to face coordinates in
// [-1,1]. u grows to the viewer's right and v grows downward when looking
// at the face from the centre of the cube; side faces are upright, Top has
// Front below it and Bottom has Front above it.
func cubeToFace(f Face, p r3.Vector) (float64, float64) {
	switch f {
	case Right:
		return -p.Z, -p.Y
	case Left:
		return p.Z, -p.Y
	case Top:
		return p.X, p.Z
	case Bottom:
		return p.X, -p.Z
	case Front:
		return p.X, -p.Y
	default: // Back
		return -p.X, -p.Y
	}
}

// faceToCube is the inverse of cubeToFace.
func faceToCube(f Face, su, sv float64) r3.Vector {
	switch f {
	case Right:
		return r3.Vector{X: 1, Y: -sv, Z: -su}
	case Left:
		return r3.Vector{X: -1, Y: -sv, Z: su}
	case Top:
		return r3.Vector{X: su, Y: 1, Z: sv}
	case Bottom:
		return r3.Vector{X: su, Y: -1, Z: -sv}
	case Front:
		return r3.Vector{X: su, Y: -sv, Z: 1}
	default: // Back
		return r3.Vector{X: -su, Y: -sv, Z: -1}
	}
}
