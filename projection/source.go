// Package projection samples equirectangular and cubemap panoramas by
// direction.
package projection

import (
	"fmt"
	"image"
	"math"

	"github.com/golang/geo/r3"
	"github.com/tuziel/panorama/colors"
	"github.com/tuziel/panorama/cubemap"
	"github.com/tuziel/panorama/sampler"
)

// Source returns the panorama color seen along a direction.
type Source interface {
	Sample(d r3.Vector) colors.Color4
}

// Equirect is an equirectangular panorama. Column 0 starts at azimuth -pi
// and row 0 at the +y pole.
type Equirect struct {
	picker *sampler.ColorPicker
	w, h   float64
}

func NewEquirect(img *image.NRGBA, mode sampler.EdgeMode) (*Equirect, error) {
	p, err := sampler.NewColorPicker(img, mode)
	if err != nil {
		return nil, fmt.Errorf("equirectangular source: %w", err)
	}
	return &Equirect{picker: p, w: float64(p.Width()), h: float64(p.Height())}, nil
}

func (e *Equirect) Picker() *sampler.ColorPicker { return e.picker }

// PixelAt returns the picker coordinates of (phi, theta). Texel centres sit
// at half-pixel offsets in image space, hence the -0.5.
func (e *Equirect) PixelAt(phi, theta float64) (x, y float64) {
	x = (cubemap.WrapAngle(theta)+math.Pi)/(2*math.Pi)*e.w - 0.5
	y = phi/math.Pi*e.h - 0.5
	return x, y
}

func (e *Equirect) SampleSpherical(phi, theta float64) colors.Color4 {
	return e.picker.At(e.PixelAt(phi, theta))
}

func (e *Equirect) Sample(d r3.Vector) colors.Color4 {
	return e.SampleSpherical(cubemap.DirectionToSpherical(d))
}

// Cube is a six face cubemap indexed by cubemap.Face.
type Cube struct {
	faces [cubemap.NumFaces]*sampler.ColorPicker
}

func NewCube(faces [cubemap.NumFaces]*image.NRGBA, mode sampler.EdgeMode) (*Cube, error) {
	c := &Cube{}
	for _, f := range cubemap.Faces {
		p, err := sampler.NewColorPicker(faces[f], mode)
		if err != nil {
			return nil, fmt.Errorf("cube face %v: %w", f, err)
		}
		c.faces[f] = p
	}
	return c, nil
}

func (c *Cube) Picker(f cubemap.Face) *sampler.ColorPicker { return c.faces[f] }

// PixelAt returns the picker coordinates of face-local (u, v) on face f.
func (c *Cube) PixelAt(f cubemap.Face, u, v float64) (x, y float64) {
	p := c.faces[f]
	return u*float64(p.Width()) - 0.5, v*float64(p.Height()) - 0.5
}

func (c *Cube) SampleFace(f cubemap.Face, u, v float64) colors.Color4 {
	return c.faces[f].At(c.PixelAt(f, u, v))
}

func (c *Cube) SampleSpherical(phi, theta float64) colors.Color4 {
	return c.SampleFace(cubemap.SphericalToFaceUV(phi, theta))
}

func (c *Cube) Sample(d r3.Vector) colors.Color4 {
	return c.SampleFace(cubemap.DirectionToFaceUV(d))
}

// Rotated samples src through an orientation.
type Rotated struct {
	Source
	rot Rotation
}

// Rotate wraps src so that every direction is turned by o before sampling.
// A zero orientation returns src unchanged.
func Rotate(src Source, o Orientation) Source {
	if o.IsZero() {
		return src
	}
	return Rotated{Source: src, rot: o.Rotation()}
}

func (r Rotated) Sample(d r3.Vector) colors.Color4 {
	return r.Source.Sample(r.rot.Apply(d))
}
