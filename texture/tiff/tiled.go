package tiff

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/color"
	"io"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/exp/mmap"
)

// DefaultTileCacheSize is the number of decompressed tiles kept in memory.
const DefaultTileCacheSize = 200

// Tiled is a memory mapped, tile organised TIFF, either uncompressed or
// deflated. Decompressed tiles are kept in an LRU cache.
type Tiled struct {
	header      Header
	reader      *mmap.ReaderAt
	cache       *lru.Cache // tileIndex -> []byte
	tilesAcross int
	tileBytes   int
	firstErr
}

func OpenTiled(path string, cacheSize int) (*Tiled, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	header, err := ReadHeader(reader, int64(reader.Len()))
	if err != nil {
		reader.Close()
		return nil, err
	}
	if err := checkTiled(header); err != nil {
		reader.Close()
		return nil, err
	}

	if cacheSize <= 0 {
		cacheSize = DefaultTileCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		reader.Close()
		return nil, err
	}

	return &Tiled{
		header:      header,
		reader:      reader,
		cache:       cache,
		tilesAcross: (header.Width + header.TileWidth - 1) / header.TileWidth,
		tileBytes:   header.TileWidth * header.TileHeight * header.SamplesPerPixel,
	}, nil
}

func checkTiled(h Header) error {
	if len(h.TileOffsets) == 0 {
		return fmt.Errorf("%w: striped layout", ErrUnsupported)
	}
	if h.Compression != CompressionNone && h.Compression != CompressionDeflate {
		return fmt.Errorf("%w: compression %d", ErrUnsupported, h.Compression)
	}
	if err := h.checkPixelFormat(); err != nil {
		return err
	}
	if h.TileWidth <= 0 || h.TileHeight <= 0 {
		return fmt.Errorf("%w: tile size %dx%d", ErrUnsupported, h.TileWidth, h.TileHeight)
	}
	if len(h.TileOffsets) != len(h.TileByteCounts) {
		return fmt.Errorf("%w: invalid tile offset/length", ErrUnsupported)
	}
	across := (h.Width + h.TileWidth - 1) / h.TileWidth
	down := (h.Height + h.TileHeight - 1) / h.TileHeight
	if len(h.TileOffsets) < across*down {
		return fmt.Errorf("%w: %d tiles for a %dx%d grid", ErrUnsupported, len(h.TileOffsets), across, down)
	}
	return nil
}

func (t *Tiled) ColorModel() color.Model {
	return color.NRGBAModel
}

func (t *Tiled) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.header.Width, t.header.Height)
}

func (t *Tiled) At(x, y int) color.Color {
	h := t.header
	if !(image.Point{x, y}.In(t.Bounds())) {
		return color.NRGBA{}
	}

	tileIndex := (y/h.TileHeight)*t.tilesAcross + x/h.TileWidth

	var tile []byte
	if val, ok := t.cache.Get(tileIndex); ok {
		tile = val.([]byte)
	} else {
		var err error
		tile, err = t.loadTile(tileIndex)
		if err != nil {
			t.fail(err)
			return color.NRGBA{}
		}
		t.cache.Add(tileIndex, tile)
	}

	localX := x % h.TileWidth
	localY := y % h.TileHeight
	rowStride := h.TileWidth * h.SamplesPerPixel
	pixOffset := localY*rowStride + localX*h.SamplesPerPixel

	r, g, b := h.pixel(tile[pixOffset:])
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func (t *Tiled) loadTile(index int) ([]byte, error) {
	h := t.header
	buf := make([]byte, h.TileByteCounts[index])
	if _, err := t.reader.ReadAt(buf, int64(h.TileOffsets[index])); err != nil {
		return nil, fmt.Errorf("read tile %d: %w", index, err)
	}

	if h.Compression == CompressionDeflate {
		r, err := zlib.NewReader(bytes.NewReader(buf))
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", index, err)
		}
		defer r.Close()
		buf, err = io.ReadAll(io.LimitReader(r, int64(t.tileBytes)))
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", index, err)
		}
	}
	if len(buf) < t.tileBytes {
		return nil, fmt.Errorf("tile %d: %d bytes, want %d", index, len(buf), t.tileBytes)
	}
	return buf, nil
}

// Len reports how many decompressed tiles are cached.
func (t *Tiled) Len() int { return t.cache.Len() }

func (t *Tiled) Close() error {
	t.cache.Purge()
	return t.reader.Close()
}
