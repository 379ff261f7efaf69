package render

import (
	"math"

	"github.com/golang/geo/r3"
)

// Camera models a pinhole camera sitting at the centre of the panorama
// sphere. Yaw and Pitch are in degrees; FOV is the horizontal field of view
// in degrees.
type Camera struct {
	Yaw   float64
	Pitch float64
	FOV   float64

	tanHalfFOV float64
	forward    r3.Vector
	right      r3.Vector
	up         r3.Vector
}

// NewCamera builds the camera basis. Yaw turns toward +x, positive pitch
// looks up.
func NewCamera(yawDeg, pitchDeg, fovDeg float64) Camera {
	fwd := r3.Vector{X: 0, Y: 0, Z: 1}
	right := r3.Vector{X: 1, Y: 0, Z: 0}
	up := r3.Vector{X: 0, Y: 1, Z: 0}

	if yawDeg != 0 {
		fwd, right, up = yawCamera(fwd, right, up, yawDeg)
	}
	if pitchDeg != 0 {
		fwd, right, up = tiltCamera(fwd, right, up, -pitchDeg)
	}

	return Camera{
		Yaw:        yawDeg,
		Pitch:      pitchDeg,
		FOV:        fovDeg,
		tanHalfFOV: math.Tan(fovDeg * math.Pi / 360.0),
		forward:    fwd,
		right:      right,
		up:         up,
	}
}

func (c Camera) Forward() r3.Vector { return c.forward }

// rotateVec applies Rodrigues' rotation formula: rotate v around axis by (cosT, sinT).
func rotateVec(v, axis r3.Vector, cosT, sinT float64) r3.Vector {
	// v*cos + (axis x v)*sin + axis*(axis·v)*(1-cos)
	return v.Mul(cosT).
		Add(axis.Cross(v).Mul(sinT)).
		Add(axis.Mul(axis.Dot(v) * (1.0 - cosT)))
}

// tiltCamera rotates forward/up around the Right axis by tiltDeg.
func tiltCamera(fwd, right, up r3.Vector, tiltDeg float64) (r3.Vector, r3.Vector, r3.Vector) {
	theta := tiltDeg * math.Pi / 180.0
	c, s := math.Cos(theta), math.Sin(theta)

	fwdNew := rotateVec(fwd, right, c, s).Normalize()
	upNew := rotateVec(up, right, c, s).Normalize()
	return fwdNew, right, upNew
}

// yawCamera rotates forward/right around the Up axis by yawDeg.
// This is a left-right (horizontal) camera pan.
func yawCamera(fwd, right, up r3.Vector, yawDeg float64) (r3.Vector, r3.Vector, r3.Vector) {
	theta := yawDeg * math.Pi / 180.0
	c, s := math.Cos(theta), math.Sin(theta)

	fwdNew := rotateVec(fwd, up, c, s).Normalize()
	rightNew := rotateVec(right, up, c, s).Normalize()
	return fwdNew, rightNew, up
}

// ComputeRay returns the normalized viewing direction through pixel (i,j)
// of a width×height image. i,j can be fractional (for supersampling); the
// ray through the centre of pixel (i,j) is ComputeRay(i, j, ...), and i = -0.5
// lies on the left border of the image.
func (c Camera) ComputeRay(i, j float64, width, height int) r3.Vector {
	w := float64(width)
	h := float64(height)

	// NDC in [-1, +1] (centered), flip Y to make +up in screen space.
	xNDC := 2*(i+0.5)/w - 1
	yNDC := -(2*(j+0.5)/h - 1)

	xPlane := xNDC * c.tanHalfFOV
	yPlane := yNDC * c.tanHalfFOV * h / w

	dir := c.right.Mul(xPlane).
		Add(c.up.Mul(yPlane)).
		Add(c.forward)

	return dir.Normalize()
}
