package tiff

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/exp/mmap"
)

// Striped is a memory mapped, uncompressed, strip organised TIFF.
// Pixels are read on demand; read failures yield transparent black and are
// reported by Err.
type Striped struct {
	header Header
	reader *mmap.ReaderAt
	firstErr
}

func OpenStriped(path string) (*Striped, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	header, err := ReadHeader(reader, int64(reader.Len()))
	if err != nil {
		reader.Close()
		return nil, err
	}
	if err := checkStriped(&header); err != nil {
		reader.Close()
		return nil, err
	}

	return &Striped{header: header, reader: reader}, nil
}

func checkStriped(h *Header) error {
	if len(h.TileOffsets) > 0 {
		return fmt.Errorf("%w: tiled layout", ErrUnsupported)
	}
	if h.Compression != CompressionNone {
		return fmt.Errorf("%w: compression %d", ErrUnsupported, h.Compression)
	}
	if err := h.checkPixelFormat(); err != nil {
		return err
	}
	if len(h.StripOffsets) == 0 || len(h.StripOffsets) != len(h.StripByteCounts) {
		return fmt.Errorf("%w: invalid strip offset/length", ErrUnsupported)
	}
	if h.RowsPerStrip <= 0 || h.RowsPerStrip > h.Height {
		h.RowsPerStrip = h.Height
	}
	strips := (h.Height + h.RowsPerStrip - 1) / h.RowsPerStrip
	if len(h.StripOffsets) < strips {
		return fmt.Errorf("%w: %d strips for %d rows", ErrUnsupported, len(h.StripOffsets), h.Height)
	}
	return nil
}

func (t *Striped) ColorModel() color.Model {
	return color.NRGBAModel
}

func (t *Striped) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.header.Width, t.header.Height)
}

func (t *Striped) At(x, y int) color.Color {
	h := t.header
	if !(image.Point{x, y}.In(t.Bounds())) {
		return color.NRGBA{}
	}

	strip := y / h.RowsPerStrip
	localY := y % h.RowsPerStrip
	idx := h.StripOffsets[strip] + (localY*h.Width+x)*h.SamplesPerPixel

	var buf [3]byte
	if _, err := t.reader.ReadAt(buf[:h.SamplesPerPixel], int64(idx)); err != nil {
		t.fail(fmt.Errorf("read pixel (%d,%d): %w", x, y, err))
		return color.NRGBA{}
	}
	r, g, b := h.pixel(buf[:])
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func (t *Striped) Close() error {
	return t.reader.Close()
}
