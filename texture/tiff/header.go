// Package tiff reads uncompressed or deflated 8-bit RGB and grayscale TIFF
// files through a memory map, so very large panoramas can be resampled
// without decoding them up front.
package tiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Header holds the tags of the first image directory.
type Header struct {
	ByteOrder       binary.ByteOrder
	Width, Height   int
	SamplesPerPixel int
	BitsPerSample   []int
	Photometric     int
	Compression     int
	PlanarConfig    int

	// Strip layout
	RowsPerStrip    int
	StripOffsets    []int
	StripByteCounts []int

	// Tile layout
	TileWidth      int
	TileHeight     int
	TileOffsets    []int
	TileByteCounts []int
}

// https://www.loc.gov/preservation/digital/formats/content/tiff_tags.shtml
const (
	TagImageWidth                = 256
	TagImageLength               = 257
	TagBitsPerSample             = 258
	TagCompression               = 259
	TagPhotometricInterpretation = 262
	TagStripOffsets              = 273
	TagSamplesPerPixel           = 277
	TagRowsPerStrip              = 278
	TagStripByteCounts           = 279
	TagPlanarConfiguration       = 284
	TagTileWidth                 = 322
	TagTileLength                = 323
	TagTileOffsets               = 324
	TagTileByteCounts            = 325
)

// Compression schemes.
const (
	CompressionNone    = 1
	CompressionDeflate = 8
)

// Photometric interpretations.
const (
	PhotometricBlackIsZero = 1
	PhotometricRGB         = 2
)

// typeShort marks 16-bit tag values; everything else is read as 32-bit.
const typeShort = 3

var (
	// ErrInvalidTiffHeader means the data is not a TIFF file, or its
	// directory points past the end of the file.
	ErrInvalidTiffHeader = errors.New("invalid TIFF header")
	// ErrUnsupported means the file is a TIFF this package cannot read
	// directly; a full decoder may still handle it.
	ErrUnsupported = errors.New("unsupported TIFF layout")
)

// typeSize is the width in bytes of one value of a TIFF field type.
func typeSize(typ uint16) int64 {
	switch typ {
	case typeShort, 8:
		return 2
	case 4, 9, 11, 13:
		return 4
	case 5, 10, 12:
		return 8
	}
	return 1
}

// ReadHeader parses the first image directory of a TIFF of size bytes.
// Tag values, strips and tiles that reach past size are rejected with
// ErrInvalidTiffHeader before anything is allocated for them.
func ReadHeader(reader io.ReaderAt, size int64) (Header, error) {
	read := func(offset, n int64) ([]byte, error) {
		if offset < 0 || n < 0 || offset+n > size {
			return nil, fmt.Errorf("%w: %d bytes at offset %d past end of %d byte file",
				ErrInvalidTiffHeader, n, offset, size)
		}
		buf := make([]byte, n)
		_, err := reader.ReadAt(buf, offset)
		return buf, err
	}

	// Read 8-byte header
	header, err := read(0, 8)
	if err != nil {
		return Header{}, ErrInvalidTiffHeader
	}

	var bo binary.ByteOrder
	switch string(header[0:2]) {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return Header{}, ErrInvalidTiffHeader
	}
	if bo.Uint16(header[2:4]) != 42 {
		return Header{}, ErrInvalidTiffHeader
	}
	ifdOffset := int64(bo.Uint32(header[4:8]))

	entryCountRaw, err := read(ifdOffset, 2)
	if err != nil {
		return Header{}, fmt.Errorf("read IFD: %w", err)
	}
	numEntries := int(bo.Uint16(entryCountRaw))
	entriesRaw, err := read(ifdOffset+2, int64(numEntries)*12)
	if err != nil {
		return Header{}, fmt.Errorf("read IFD entries: %w", err)
	}

	hdr := Header{
		ByteOrder:       bo,
		SamplesPerPixel: 1,
		Photometric:     -1,
		Compression:     CompressionNone,
		PlanarConfig:    1,
	}

	for i := 0; i < numEntries; i++ {
		entry := entriesRaw[i*12 : (i+1)*12]
		tag := bo.Uint16(entry[0:2])
		typ := bo.Uint16(entry[2:4])
		count := int64(bo.Uint32(entry[4:8]))
		if n := count * typeSize(typ); n > 4 {
			if off := int64(bo.Uint32(entry[8:12])); off+n > size {
				return Header{}, fmt.Errorf("%w: tag %d has %d values past end of %d byte file",
					ErrInvalidTiffHeader, tag, count, size)
			}
		}

		// Scalar values are left-justified in the value field.
		scalar := func() int {
			if typ == typeShort {
				return int(bo.Uint16(entry[8:10]))
			}
			return int(bo.Uint32(entry[8:12]))
		}
		array := func() ([]int, error) {
			width := int64(4)
			if typ == typeShort {
				width = 2
			}
			raw := entry[8:12]
			if count*width > 4 {
				raw, err = read(int64(bo.Uint32(entry[8:12])), count*width)
				if err != nil {
					return nil, fmt.Errorf("read tag %d: %w", tag, err)
				}
			}
			out := make([]int, count)
			for i := range out {
				if width == 2 {
					out[i] = int(bo.Uint16(raw[i*2:]))
				} else {
					out[i] = int(bo.Uint32(raw[i*4:]))
				}
			}
			return out, nil
		}

		switch tag {
		case TagImageWidth:
			hdr.Width = scalar()
		case TagImageLength:
			hdr.Height = scalar()
		case TagBitsPerSample:
			hdr.BitsPerSample, err = array()
		case TagCompression:
			hdr.Compression = scalar()
		case TagPhotometricInterpretation:
			hdr.Photometric = scalar()
		case TagStripOffsets:
			hdr.StripOffsets, err = array()
		case TagSamplesPerPixel:
			hdr.SamplesPerPixel = scalar()
		case TagRowsPerStrip:
			hdr.RowsPerStrip = scalar()
		case TagStripByteCounts:
			hdr.StripByteCounts, err = array()
		case TagPlanarConfiguration:
			hdr.PlanarConfig = scalar()
		case TagTileWidth:
			hdr.TileWidth = scalar()
		case TagTileLength:
			hdr.TileHeight = scalar()
		case TagTileOffsets:
			hdr.TileOffsets, err = array()
		case TagTileByteCounts:
			hdr.TileByteCounts, err = array()
		}
		if err != nil {
			return Header{}, err
		}
	}

	if err := hdr.checkExtents(size); err != nil {
		return Header{}, err
	}
	return hdr, nil
}

// checkExtents verifies that every strip and tile lies inside the file.
func (h Header) checkExtents(size int64) error {
	check := func(kind string, offsets, counts []int) error {
		for i := range min(len(offsets), len(counts)) {
			if end := int64(offsets[i]) + int64(counts[i]); end > size {
				return fmt.Errorf("%w: %s %d ends at %d past end of %d byte file",
					ErrInvalidTiffHeader, kind, i, end, size)
			}
		}
		return nil
	}
	if err := check("strip", h.StripOffsets, h.StripByteCounts); err != nil {
		return err
	}
	return check("tile", h.TileOffsets, h.TileByteCounts)
}

// checkPixelFormat accepts 8-bit chunky RGB or grayscale data.
func (h Header) checkPixelFormat() error {
	if h.Width <= 0 || h.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrUnsupported, h.Width, h.Height)
	}
	if h.PlanarConfig != 1 {
		return fmt.Errorf("%w: planar configuration %d", ErrUnsupported, h.PlanarConfig)
	}
	for _, b := range h.BitsPerSample {
		if b != 8 {
			return fmt.Errorf("%w: %d bits per sample", ErrUnsupported, b)
		}
	}
	switch h.Photometric {
	case PhotometricBlackIsZero:
		if h.SamplesPerPixel != 1 {
			return fmt.Errorf("%w: grayscale with %d samples", ErrUnsupported, h.SamplesPerPixel)
		}
	case PhotometricRGB:
		if h.SamplesPerPixel != 3 {
			return fmt.Errorf("%w: RGB with %d samples", ErrUnsupported, h.SamplesPerPixel)
		}
	default:
		return fmt.Errorf("%w: photometric %d", ErrUnsupported, h.Photometric)
	}
	return nil
}

// pixel converts one sample run to a color.
func (h Header) pixel(p []byte) (r, g, b uint8) {
	if h.Photometric == PhotometricRGB {
		return p[0], p[1], p[2]
	}
	return p[0], p[0], p[0]
}

// firstErr records the first error seen while reading pixels lazily.
type firstErr struct {
	mu  sync.Mutex
	err error
}

func (e *firstErr) fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err == nil {
		e.err = err
	}
}

// Err returns the first read error seen by At.
func (e *firstErr) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}
