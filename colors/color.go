package colors

import (
	"image/color"
	"math"
)

// Color4 is a non-premultiplied RGBA color with float64 components in [0,1].
type Color4 struct {
	R, G, B, A float64
}

func New(r, g, b, a float64) Color4 {
	return Color4{R: r, G: g, B: b, A: a}
}

func (c Color4) RGBA() (r, g, b, a uint32) {
	rf := clamp01(c.R)
	gf := clamp01(c.G)
	bf := clamp01(c.B)
	af := clamp01(c.A)

	// Convert to pre-multiplied 16-bit values
	return uint32(rf*af*65535 + 0.5),
		uint32(gf*af*65535 + 0.5),
		uint32(bf*af*65535 + 0.5),
		uint32(af*65535 + 0.5)
}

func FromStandardColor(c color.Color) Color4 {
	switch v := c.(type) {
	case Color4:
		return v
	case color.NRGBA:
		return FromNRGBA(v)
	}

	r16, g16, b16, a16 := c.RGBA()
	if a16 == 0 {
		return Color4{R: 0, G: 0, B: 0, A: 0}
	}

	// De-premultiply and normalize to [0,1]
	invA := float64(0xFFFF) / float64(a16)
	return Color4{
		R: float64(r16) * invA / 65535.0,
		G: float64(g16) * invA / 65535.0,
		B: float64(b16) * invA / 65535.0,
		A: float64(a16) / 65535.0,
	}
}

func From8BitRgb(r, g, b, a byte) Color4 {
	return Color4{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
		A: float64(a) / 255.0,
	}
}

func FromNRGBA(c color.NRGBA) Color4 {
	return From8BitRgb(c.R, c.G, c.B, c.A)
}

func Red() Color4 {
	return Color4{R: 1, G: 0, B: 0, A: 1}
}

func Green() Color4 {
	return Color4{R: 0, G: 1, B: 0, A: 1}
}

// Add returns c + o (component-wise).
func (c Color4) Add(o Color4) Color4 {
	return Color4{c.R + o.R, c.G + o.G, c.B + o.B, c.A + o.A}
}

// Scale returns c * s (scalar).
func (c Color4) Scale(s float64) Color4 {
	return Color4{c.R * s, c.G * s, c.B * s, c.A * s}
}

// Mix returns lerp(c, o, t) written as c + (o-c)*t, so that mixing
// two equal colors returns that color bit for bit.
func (c Color4) Mix(o Color4, t float64) Color4 {
	return Color4{
		R: lerp(c.R, o.R, t),
		G: lerp(c.G, o.G, t),
		B: lerp(c.B, o.B, t),
		A: lerp(c.A, o.A, t),
	}
}

// MaxDiff returns the largest absolute per-channel difference between c and o.
func (c Color4) MaxDiff(o Color4) float64 {
	d := math.Abs(c.R - o.R)
	d = math.Max(d, math.Abs(c.G-o.G))
	d = math.Max(d, math.Abs(c.B-o.B))
	return math.Max(d, math.Abs(c.A-o.A))
}

// ToNRGBA converts to 8-bit channels, rounding to nearest.
func (c Color4) ToNRGBA() color.NRGBA {
	return color.NRGBA{
		to8bit(c.R),
		to8bit(c.G),
		to8bit(c.B),
		to8bit(c.A),
	}
}

// --- helpers ---

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func to8bit(x float64) uint8 {
	if math.IsNaN(x) {
		return 0
	}
	return uint8(255.0*clamp01(x) + 0.5)
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
