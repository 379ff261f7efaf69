// Package texture loads panorama images from files or URLs into pixel
// buffers, writes them back out, and packs cube faces into common layouts.
package texture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/echoflaresat/tiff"
	"github.com/tuziel/panorama/logger"
	"github.com/tuziel/panorama/sampler"
	rawtiff "github.com/tuziel/panorama/texture/tiff"
	"go.uber.org/zap"
	xtiff "golang.org/x/image/tiff"

	_ "image/gif"  // register GIF format with image.Decode
	_ "image/jpeg" // register JPEG format with image.Decode
	_ "image/png"  // register PNG format with image.Decode

	_ "golang.org/x/image/bmp"  // register BMP format with image.Decode
	_ "golang.org/x/image/webp" // register WebP format with image.Decode
)

// MaxDownloadBytes bounds the size of an image fetched over HTTP.
const MaxDownloadBytes = 512 << 20

// IsURL reports whether src names an http(s) resource.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Load reads src, a file path or an http(s) URL, and returns its pixels.
// Data that no decoder understands yields an error wrapping
// sampler.ErrImageDecoding.
func Load(ctx context.Context, src string) (*image.NRGBA, error) {
	if IsURL(src) {
		data, err := fetch(ctx, src)
		if err != nil {
			return nil, err
		}
		img, err := decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src, err)
		}
		return img, nil
	}
	return loadFile(ctx, src)
}

func fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if len(data) > MaxDownloadBytes {
		return nil, fmt.Errorf("fetch %s: larger than %d bytes", url, MaxDownloadBytes)
	}
	return data, nil
}

// lazyImage is a memory mapped TIFF read pixel by pixel.
type lazyImage interface {
	image.Image
	Err() error
	Close() error
}

func loadFile(ctx context.Context, path string) (*image.NRGBA, error) {
	if img, ok := loadRawTiff(path); ok {
		return img, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// loadRawTiff tries the striped then the tiled memory mapped readers.
func loadRawTiff(path string) (*image.NRGBA, bool) {
	openers := []struct {
		layout string
		open   func(string) (lazyImage, error)
	}{
		{"striped", func(p string) (lazyImage, error) { return rawtiff.OpenStriped(p) }},
		{"tiled", func(p string) (lazyImage, error) { return rawtiff.OpenTiled(p, rawtiff.DefaultTileCacheSize) }},
	}

	for _, o := range openers {
		img, err := o.open(path)
		if err != nil {
			if !errors.Is(err, rawtiff.ErrInvalidTiffHeader) && !errors.Is(err, os.ErrNotExist) {
				logger.Warn("failed to load "+o.layout+" TIFF", zap.String("path", path), zap.Error(err))
			}
			continue
		}

		out, err := sampler.FromImage(img)
		if err == nil {
			err = img.Err()
		}
		img.Close()
		if err != nil {
			logger.Warn("failed to read "+o.layout+" TIFF", zap.String("path", path), zap.Error(err))
			continue
		}
		return out, true
	}
	return nil, false
}

// source is an open image file or a downloaded image.
type source interface {
	io.ReadSeeker
	io.ReaderAt
}

// decode sends TIFF data to the TIFF decoders and everything else to the
// registered image codecs.
func decode(r source) (*image.NRGBA, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var img *image.NRGBA
	if isTiff(r) {
		img, err = decodeTiff(r, size)
	} else {
		var src image.Image
		if src, _, err = image.Decode(r); err == nil {
			img, err = sampler.FromImage(src)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sampler.ErrImageDecoding, err)
	}
	return img, nil
}

func isTiff(r io.ReaderAt) bool {
	var magic [4]byte
	if _, err := r.ReadAt(magic[:], 0); err != nil {
		return false
	}
	return string(magic[:]) == "II*\x00" || string(magic[:]) == "MM\x00*"
}

// decodeTiff uses the lazy TIFF decoder when the directory fits inside the
// data and falls back to x/image/tiff otherwise.
func decodeTiff(r source, size int64) (*image.NRGBA, error) {
	_, err := rawtiff.ReadHeader(r, size)
	if err == nil {
		var img *image.NRGBA
		if img, err = decodeLazyTiff(r); err == nil {
			return img, nil
		}
	}
	logger.Debug("falling back to x/image/tiff", zap.Error(err))

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	src, err := xtiff.Decode(r)
	if err != nil {
		return nil, err
	}
	return sampler.FromImage(src)
}

// decodeLazyTiff reads pixels through github.com/echoflaresat/tiff, which
// panics on corrupt strips and tiles.
func decodeLazyTiff(r source) (img *image.NRGBA, err error) {
	defer func() {
		if p := recover(); p != nil {
			img, err = nil, fmt.Errorf("tiff: %v", p)
		}
	}()

	src, err := tiff.Decode(r)
	if err != nil {
		return nil, err
	}
	return sampler.FromImage(src)
}
