package projection

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Orientation turns the source sphere before it is sampled, in degrees.
// Positive Yaw turns toward +x, positive Pitch toward +y, Roll spins about
// the forward axis.
type Orientation struct {
	Yaw   float64 `yaml:"yaw"`
	Pitch float64 `yaml:"pitch"`
	Roll  float64 `yaml:"roll"`
}

func (o Orientation) IsZero() bool {
	return o.Yaw == 0 && o.Pitch == 0 && o.Roll == 0
}

// Matrix returns the rotation taking an output direction to the direction
// sampled in the source.
func (o Orientation) Matrix() mgl64.Mat3 {
	yaw := mgl64.Rotate3DY(mgl64.DegToRad(o.Yaw))
	pitch := mgl64.Rotate3DX(-mgl64.DegToRad(o.Pitch))
	roll := mgl64.Rotate3DZ(mgl64.DegToRad(o.Roll))
	return yaw.Mul3(pitch).Mul3(roll)
}

// Rotation applies an Orientation to directions.
type Rotation struct {
	m        mgl64.Mat3
	identity bool
}

func (o Orientation) Rotation() Rotation {
	if o.IsZero() {
		return Rotation{m: mgl64.Ident3(), identity: true}
	}
	return Rotation{m: o.Matrix()}
}

func (r Rotation) Identity() bool { return r.identity }

func (r Rotation) Apply(d r3.Vector) r3.Vector {
	if r.identity {
		return d
	}
	v := r.m.Mul3x1(mgl64.Vec3{d.X, d.Y, d.Z})
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}
