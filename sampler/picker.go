package sampler

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/tuziel/panorama/colors"
)

// EdgeMode decides which texel is read when a neighbour falls outside the
// image.
type EdgeMode int

const (
	// Default lets the caller pick the mode suited to the image; a picker
	// treats it as Clamp.
	Default EdgeMode = iota
	// Clamp repeats the border texels. Used for cube faces, which do not tile.
	Clamp
	// Wrap tiles the image on both axes.
	Wrap
	// WrapX tiles horizontally and clamps vertically. Used for
	// equirectangular images, which are cyclic in longitude only.
	WrapX
)

func (m EdgeMode) String() string {
	switch m {
	case Default:
		return "default"
	case Clamp:
		return "clamp"
	case Wrap:
		return "wrap"
	case WrapX:
		return "wrapx"
	default:
		return fmt.Sprintf("EdgeMode(%d)", int(m))
	}
}

// Or returns m unless it is Default, in which case it returns fallback.
func (m EdgeMode) Or(fallback EdgeMode) EdgeMode {
	if m == Default {
		return fallback
	}
	return m
}

// ParseEdgeMode reads an edge mode name as written in flags and config
// files. An empty string yields Default.
func ParseEdgeMode(s string) (EdgeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return Default, nil
	case "clamp":
		return Clamp, nil
	case "wrap":
		return Wrap, nil
	case "wrapx", "wrap-x":
		return WrapX, nil
	}
	return 0, fmt.Errorf("unknown edge mode %q (want clamp, wrap or wrapx)", s)
}

// ColorPicker samples a pixel buffer at fractional pixel coordinates.
// Integer coordinates address texels directly, so At(x, y) for integer x, y
// returns the stored color unchanged.
type ColorPicker struct {
	img  *image.NRGBA
	w, h int
	mode EdgeMode
}

// NewColorPicker validates img and returns a picker using the given edge mode.
func NewColorPicker(img *image.NRGBA, mode EdgeMode) (*ColorPicker, error) {
	if err := Validate(img); err != nil {
		return nil, err
	}
	if mode == Default {
		mode = Clamp
	}
	return &ColorPicker{
		img:  img,
		w:    img.Rect.Dx(),
		h:    img.Rect.Dy(),
		mode: mode,
	}, nil
}

func (p *ColorPicker) Width() int  { return p.w }
func (p *ColorPicker) Height() int { return p.h }

// Mode is the edge mode in effect; Default resolves to Clamp.
func (p *ColorPicker) Mode() EdgeMode { return p.mode }

// At returns the bilinear interpolation of the four texels around (x, y).
func (p *ColorPicker) At(x, y float64) colors.Color4 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	fx := x - x0
	fy := y - y0

	ix, iy := int(x0), int(y0)
	c00 := p.texel(ix, iy)
	c10 := p.texel(ix+1, iy)
	c01 := p.texel(ix, iy+1)
	c11 := p.texel(ix+1, iy+1)

	top := c00.Mix(c10, fx)
	bottom := c01.Mix(c11, fx)
	return top.Mix(bottom, fy)
}

func (p *ColorPicker) texel(x, y int) colors.Color4 {
	switch p.mode {
	case Wrap:
		x = wrapIndex(x, p.w)
		y = wrapIndex(y, p.h)
	case WrapX:
		x = wrapIndex(x, p.w)
		y = clampIndex(y, p.h)
	default:
		x = clampIndex(x, p.w)
		y = clampIndex(y, p.h)
	}

	i := p.img.PixOffset(p.img.Rect.Min.X+x, p.img.Rect.Min.Y+y)
	s := p.img.Pix[i : i+4 : i+4]
	return colors.From8BitRgb(s[0], s[1], s[2], s[3])
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
