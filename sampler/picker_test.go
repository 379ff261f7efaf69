package sampler

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/tuziel/panorama/colors"
)

// gradient returns a w×h image whose texels are all distinct.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: uint8((x*7 + y*13) % 256),
				A: 255,
			})
		}
	}
	return img
}

func mustPicker(t *testing.T, img *image.NRGBA, mode EdgeMode) *ColorPicker {
	t.Helper()
	p, err := NewColorPicker(img, mode)
	if err != nil {
		t.Fatalf("NewColorPicker: %v", err)
	}
	return p
}

func TestIntegerCoordinatesReturnStoredColor(t *testing.T) {
	img := gradient(7, 5)
	for _, mode := range []EdgeMode{Clamp, Wrap, WrapX} {
		t.Run(mode.String(), func(t *testing.T) {
			p := mustPicker(t, img, mode)
			for y := 0; y < 5; y++ {
				for x := 0; x < 7; x++ {
					want := colors.FromNRGBA(img.NRGBAAt(x, y))
					if got := p.At(float64(x), float64(y)); got != want {
						t.Fatalf("At(%d, %d) = %v, want %v", x, y, got, want)
					}
				}
			}
		})
	}
}

func TestBilinearMidpoint(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(0, 1, color.NRGBA{0, 255, 0, 255})
	img.SetNRGBA(1, 1, color.NRGBA{255, 255, 0, 255})

	p := mustPicker(t, img, Clamp)
	got := p.At(0.5, 0.5)
	want := colors.New(0.5, 0.5, 0, 1)
	if got.MaxDiff(want) > 1e-12 {
		t.Fatalf("At(0.5, 0.5) = %v, want %v", got, want)
	}

	got = p.At(0.25, 0)
	if got.MaxDiff(colors.New(0.25, 0, 0, 1)) > 1e-12 {
		t.Fatalf("At(0.25, 0) = %v", got)
	}
}

func TestWrapModeIsHorizontallyCyclic(t *testing.T) {
	img := gradient(8, 4)
	for _, mode := range []EdgeMode{Wrap, WrapX} {
		p := mustPicker(t, img, mode)
		for _, y := range []float64{0, 1.5, 3} {
			a := p.At(-0.3, y)
			b := p.At(8-0.3, y)
			if a.MaxDiff(b) > 1e-9 {
				t.Fatalf("%v: At(-0.3, %v) = %v, At(7.7, %v) = %v", mode, y, a, y, b)
			}
		}
	}
}

func TestClampModeRepeatsBorder(t *testing.T) {
	img := gradient(8, 4)
	p := mustPicker(t, img, Clamp)
	for _, y := range []float64{0, 1, 2.5} {
		if a, b := p.At(-0.3, y), p.At(0, y); a != b {
			t.Fatalf("At(-0.3, %v) = %v, want %v", y, a, b)
		}
		if a, b := p.At(7.6, y), p.At(7, y); a != b {
			t.Fatalf("At(7.6, %v) = %v, want %v", y, a, b)
		}
	}
}

func TestWrapXClampsVertically(t *testing.T) {
	img := gradient(8, 4)
	p := mustPicker(t, img, WrapX)
	if a, b := p.At(2, -0.4), p.At(2, 0); a != b {
		t.Fatalf("At(2, -0.4) = %v, want %v", a, b)
	}
	if a, b := p.At(2, 3.5), p.At(2, 3); a != b {
		t.Fatalf("At(2, 3.5) = %v, want %v", a, b)
	}

	w := mustPicker(t, img, Wrap)
	if a, b := w.At(2, -1), w.At(2, 3); a != b {
		t.Fatalf("wrap At(2, -1) = %v, want %v", a, b)
	}
}

func TestDefaultModeClamps(t *testing.T) {
	img := gradient(3, 2)
	p := mustPicker(t, img, Default)
	if p.Mode() != Clamp {
		t.Fatalf("Mode() = %v, want clamp", p.Mode())
	}
	if got, want := p.At(-2, -1), colors.FromNRGBA(img.NRGBAAt(0, 0)); got != want {
		t.Errorf("At(-2,-1) = %v, want %v", got, want)
	}
	if got, want := p.At(5, 3), colors.FromNRGBA(img.NRGBAAt(2, 1)); got != want {
		t.Errorf("At(5,3) = %v, want %v", got, want)
	}
	for _, mode := range []EdgeMode{Clamp, Wrap, WrapX} {
		if got := mustPicker(t, img, mode).Mode(); got != mode {
			t.Errorf("Mode() = %v, want %v", got, mode)
		}
	}
}

func TestSinglePixelImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{10, 20, 30, 255})
	for _, mode := range []EdgeMode{Default, Clamp, Wrap, WrapX} {
		p := mustPicker(t, img, mode)
		got := p.At(-3.7, 5.2).ToNRGBA()
		if got != (color.NRGBA{10, 20, 30, 255}) {
			t.Fatalf("%v: got %v", mode, got)
		}
	}
}

func TestNewColorPickerRejectsEmptyImages(t *testing.T) {
	cases := []*image.NRGBA{
		nil,
		image.NewNRGBA(image.Rect(0, 0, 0, 10)),
		image.NewNRGBA(image.Rect(0, 0, 10, 0)),
		{Rect: image.Rect(0, 0, 4, 4), Stride: 16},
	}
	for i, img := range cases {
		if _, err := NewColorPicker(img, Clamp); !errors.Is(err, ErrImageDecoding) {
			t.Fatalf("case %d: expected ErrImageDecoding, got %v", i, err)
		}
	}
}

func TestFromImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(3, 4, 7, 6))
	src.Set(3, 4, color.RGBA{200, 100, 50, 255})
	src.Set(6, 5, color.RGBA{1, 2, 3, 255})

	out, err := FromImage(src)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	if out.Rect != image.Rect(0, 0, 4, 2) {
		t.Fatalf("bounds = %v", out.Rect)
	}
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{200, 100, 50, 255}) {
		t.Fatalf("(0,0) = %v", got)
	}
	if got := out.NRGBAAt(3, 1); got != (color.NRGBA{1, 2, 3, 255}) {
		t.Fatalf("(3,1) = %v", got)
	}

	if _, err := FromImage(image.NewGray(image.Rect(0, 0, 0, 0))); !errors.Is(err, ErrImageDecoding) {
		t.Fatalf("expected ErrImageDecoding, got %v", err)
	}
	if _, err := FromImage(nil); !errors.Is(err, ErrImageDecoding) {
		t.Fatalf("expected ErrImageDecoding, got %v", err)
	}
}

func TestParseEdgeMode(t *testing.T) {
	for _, mode := range []EdgeMode{Clamp, Wrap, WrapX} {
		got, err := ParseEdgeMode(mode.String())
		if err != nil || got != mode {
			t.Fatalf("ParseEdgeMode(%q) = %v, %v", mode.String(), got, err)
		}
	}
	if got, err := ParseEdgeMode(""); err != nil || got != Default {
		t.Fatalf("ParseEdgeMode(\"\") = %v, %v", got, err)
	}
	if Default.Or(WrapX) != WrapX || Clamp.Or(WrapX) != Clamp {
		t.Fatal("Or did not resolve Default")
	}
	if _, err := ParseEdgeMode("mirror"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestCheckDimension(t *testing.T) {
	if err := CheckDimension("face", 1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, d := range [][2]int{{0, 1}, {1, 0}, {-4, 4}} {
		if err := CheckDimension("face", d[0], d[1]); !errors.Is(err, ErrInvalidDimension) {
			t.Fatalf("%v: expected ErrInvalidDimension, got %v", d, err)
		}
	}
}
