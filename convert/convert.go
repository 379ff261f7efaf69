// Package convert resamples panoramas between the equirectangular and the
// six face cubemap projections.
package convert

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"runtime"
	"time"

	"github.com/tuziel/panorama/cubemap"
	"github.com/tuziel/panorama/logger"
	"github.com/tuziel/panorama/projection"
	"github.com/tuziel/panorama/sampler"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidSample reports a destination pixel whose source coordinate is
// not a finite number.
var ErrInvalidSample = errors.New("sample coordinate out of range")

// Options tunes a conversion. The zero value samples the equirectangular
// image with sampler.WrapX, cube faces with sampler.Clamp, uses no
// orientation and one worker per CPU.
type Options struct {
	EquirectEdge sampler.EdgeMode
	CubeEdge     sampler.EdgeMode
	Orientation  projection.Orientation
	Workers      int
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// DefaultFaceSize is the face edge used when none is given:
// min(width/4, height/2) of the equirectangular source, at least 1.
func DefaultFaceSize(src image.Image) int {
	b := src.Bounds()
	return max(1, min(b.Dx()/4, b.Dy()/2))
}

// DefaultEquirectSize is the output size used when none is given: 4×base by
// 2×base where base is the widest face.
func DefaultEquirectSize(faces [cubemap.NumFaces]*image.NRGBA) (int, int) {
	base := 1
	for _, f := range faces {
		if f != nil {
			base = max(base, f.Rect.Dx())
		}
	}
	return 4 * base, 2 * base
}

// SphereToCubeFace renders one size×size face of the cube from an
// equirectangular image.
func SphereToCubeFace(ctx context.Context, src *image.NRGBA, face cubemap.Face, size int, opts Options) (*image.NRGBA, error) {
	if !face.Valid() {
		return nil, fmt.Errorf("%w: %d", cubemap.ErrUnsupportedFace, int(face))
	}
	if err := sampler.CheckDimension("face size", size, size); err != nil {
		return nil, err
	}
	eq, err := projection.NewEquirect(src, opts.EquirectEdge.Or(sampler.WrapX))
	if err != nil {
		return nil, err
	}
	return renderFace(ctx, eq, face, size, opts)
}

// SphereToCube renders all six faces. Faces are independent and are
// rendered concurrently; the first error cancels the others.
func SphereToCube(ctx context.Context, src *image.NRGBA, size int, opts Options) ([cubemap.NumFaces]*image.NRGBA, error) {
	var out [cubemap.NumFaces]*image.NRGBA

	if err := sampler.CheckDimension("face size", size, size); err != nil {
		return out, err
	}
	eq, err := projection.NewEquirect(src, opts.EquirectEdge.Or(sampler.WrapX))
	if err != nil {
		return out, err
	}

	// Split the worker budget between faces.
	per := opts
	per.Workers = max(1, opts.workers()/cubemap.NumFaces)

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range cubemap.Faces {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := renderFace(gctx, eq, f, size, per)
			if err != nil {
				return fmt.Errorf("face %v: %w", f, err)
			}
			out[f] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return [cubemap.NumFaces]*image.NRGBA{}, err
	}
	return out, nil
}

func renderFace(ctx context.Context, eq *projection.Equirect, face cubemap.Face, size int, opts Options) (*image.NRGBA, error) {
	start := time.Now()
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	rot := opts.Orientation.Rotation()
	picker := eq.Picker()
	inv := 1 / float64(size)

	err := ForEachRow(ctx, size, opts.workers(), func(sy int) error {
		row := dst.Pix[sy*dst.Stride : sy*dst.Stride+size*4]
		v := (float64(sy) + 0.5) * inv
		for sx := 0; sx < size; sx++ {
			u := (float64(sx) + 0.5) * inv
			phi, theta, err := cubemap.FaceUVToSpherical(face, u, v)
			if err != nil {
				return err
			}
			if !rot.Identity() {
				phi, theta = cubemap.DirectionToSpherical(rot.Apply(cubemap.SphericalToDirection(phi, theta)))
			}

			x, y := eq.PixelAt(phi, theta)
			if !finite(x, y) {
				return fmt.Errorf("%w: face %v pixel (%d,%d)", ErrInvalidSample, face, sx, sy)
			}
			c := picker.At(x, y).ToNRGBA()
			row[sx*4+0] = c.R
			row[sx*4+1] = c.G
			row[sx*4+2] = c.B
			row[sx*4+3] = c.A
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("cube face rendered",
		zap.Stringer("face", face),
		zap.Int("size", size),
		zap.Duration("took", time.Since(start)))
	return dst, nil
}

// CubeToSphere renders a width×height equirectangular image from six faces.
func CubeToSphere(ctx context.Context, faces [cubemap.NumFaces]*image.NRGBA, width, height int, opts Options) (*image.NRGBA, error) {
	if err := sampler.CheckDimension("output", width, height); err != nil {
		return nil, err
	}
	cube, err := projection.NewCube(faces, opts.CubeEdge.Or(sampler.Clamp))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	rot := opts.Orientation.Rotation()

	err = ForEachRow(ctx, height, opts.workers(), func(j int) error {
		row := dst.Pix[j*dst.Stride : j*dst.Stride+width*4]
		phi := (float64(j) + 0.5) / float64(height) * math.Pi
		for i := 0; i < width; i++ {
			theta := (float64(i)+0.5)/float64(width)*2*math.Pi - math.Pi

			var (
				f    cubemap.Face
				u, v float64
			)
			if rot.Identity() {
				f, u, v = cubemap.SphericalToFaceUV(phi, theta)
			} else {
				f, u, v = cubemap.DirectionToFaceUV(rot.Apply(cubemap.SphericalToDirection(phi, theta)))
			}

			x, y := cube.PixelAt(f, u, v)
			if !finite(x, y) {
				return fmt.Errorf("%w: pixel (%d,%d)", ErrInvalidSample, i, j)
			}
			c := cube.Picker(f).At(x, y).ToNRGBA()
			row[i*4+0] = c.R
			row[i*4+1] = c.G
			row[i*4+2] = c.B
			row[i*4+3] = c.A
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("equirectangular image rendered",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Duration("took", time.Since(start)))
	return dst, nil
}

func finite(x, y float64) bool {
	return !math.IsNaN(x) && !math.IsNaN(y) && !math.IsInf(x, 0) && !math.IsInf(y, 0)
}
