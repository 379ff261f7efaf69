// Package sampler turns decoded images into RGBA pixel buffers and samples
// them at fractional pixel positions with bilinear interpolation.
package sampler

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

var (
	ErrInvalidDimension = errors.New("invalid dimension")
	ErrImageDecoding    = errors.New("image decoding failed")
)

// CheckDimension returns ErrInvalidDimension unless w and h are both positive.
func CheckDimension(what string, w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %s %dx%d", ErrInvalidDimension, what, w, h)
	}
	return nil
}

// Validate checks that img is a usable pixel buffer.
func Validate(img *image.NRGBA) error {
	if img == nil {
		return fmt.Errorf("%w: no pixel data", ErrImageDecoding)
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: empty image %dx%d", ErrImageDecoding, w, h)
	}
	if len(img.Pix) < (h-1)*img.Stride+w*4 {
		return fmt.Errorf("%w: pixel data truncated", ErrImageDecoding)
	}
	return nil
}

// FromImage returns img as a non-premultiplied RGBA buffer whose bounds
// start at the origin. An *image.NRGBA that already starts at the origin is
// returned as is.
func FromImage(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: no image", ErrImageDecoding)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image %dx%d", ErrImageDecoding, b.Dx(), b.Dy())
	}
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n, Validate(n)
	}

	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out, nil
}
