package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"
	"time"

	"github.com/tuziel/panorama/config"
	"github.com/tuziel/panorama/convert"
	"github.com/tuziel/panorama/cubemap"
	"github.com/tuziel/panorama/logger"
	"github.com/tuziel/panorama/projection"
	"github.com/tuziel/panorama/render"
	"github.com/tuziel/panorama/sampler"
	"github.com/tuziel/panorama/texture"
	"go.uber.org/zap"
)

// job is one command line invocation.
type job struct {
	mode string
	in   string
	out  string
}

func run(ctx context.Context, cfg *config.Config, j job) error {
	if j.in == "" || j.out == "" {
		return errors.New("both -in and -out are required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	layout, err := cfg.Layout()
	if err != nil {
		return err
	}
	cache, err := texture.NewCache(cfg.Cache.Size)
	if err != nil {
		return err
	}

	start := time.Now()
	switch j.mode {
	case "cube":
		err = runCube(ctx, cache, cfg, opts, layout, j)
	case "sphere":
		err = runSphere(ctx, cache, cfg, opts, layout, j)
	case "view":
		err = runView(ctx, cache, cfg, opts, layout, j)
	default:
		return fmt.Errorf("unknown mode %q (want cube, sphere or view)", j.mode)
	}
	if err != nil {
		return err
	}

	logger.Info("done",
		zap.String("mode", j.mode),
		zap.String("out", j.out),
		zap.Duration("took", time.Since(start)))
	return nil
}

// facesLayout picks the cube layout for path. A plain file name with the
// default six file layout is read or written as a cross.
func facesLayout(layout texture.Layout, path string) texture.Layout {
	if layout == texture.Six && !texture.IsFacePattern(path) {
		return texture.Cross
	}
	return layout
}

func runCube(ctx context.Context, cache *texture.Cache, cfg *config.Config, opts convert.Options, layout texture.Layout, j job) error {
	src, err := cache.Load(ctx, j.in)
	if err != nil {
		return err
	}
	size := cfg.Convert.FaceSize
	if size == 0 {
		size = convert.DefaultFaceSize(src)
	}
	logger.Info("converting to cube",
		zap.String("in", j.in),
		zap.Int("width", src.Rect.Dx()),
		zap.Int("height", src.Rect.Dy()),
		zap.Int("face_size", size))

	faces, err := convert.SphereToCube(ctx, src, size, opts)
	if err != nil {
		return err
	}
	return texture.SaveFaces(j.out, faces, facesLayout(layout, j.out))
}

func runSphere(ctx context.Context, cache *texture.Cache, cfg *config.Config, opts convert.Options, layout texture.Layout, j job) error {
	faces, err := texture.LoadFaces(ctx, cache, j.in, facesLayout(layout, j.in))
	if err != nil {
		return err
	}
	w, h := cfg.Convert.Width, cfg.Convert.Height
	if w == 0 || h == 0 {
		w, h = convert.DefaultEquirectSize(faces)
	}
	logger.Info("converting to equirectangular",
		zap.String("in", j.in),
		zap.Ints("face_sizes", faceSizes(faces)),
		zap.Int("width", w),
		zap.Int("height", h))

	img, err := convert.CubeToSphere(ctx, faces, w, h, opts)
	if err != nil {
		return err
	}
	return texture.Save(j.out, img)
}

func runView(ctx context.Context, cache *texture.Cache, cfg *config.Config, opts convert.Options, layout texture.Layout, j job) error {
	src, native, err := viewSource(ctx, cache, opts, layout, j.in)
	if err != nil {
		return err
	}
	size := cfg.View.Size
	if size == 0 {
		size = native
	}
	cam := render.Camera{Yaw: cfg.View.Yaw, Pitch: cfg.View.Pitch, FOV: cfg.View.FOV}
	logger.Info("rendering view",
		zap.String("in", j.in),
		zap.Float64("yaw", cam.Yaw),
		zap.Float64("pitch", cam.Pitch),
		zap.Float64("fov", cam.FOV),
		zap.Int("size", size))

	img, err := render.RenderView(ctx, src, cam, size, size, cfg.View.Supersample, opts.Workers)
	if err != nil {
		return err
	}
	return texture.Save(j.out, img)
}

// viewSource opens in as a cubemap when it names face files or an explicit
// cross/strip layout was asked for, and as an equirectangular image
// otherwise. It also returns the input's face edge, the view size that
// keeps a 90 degree view at the input's resolution.
func viewSource(ctx context.Context, cache *texture.Cache, opts convert.Options, layout texture.Layout, in string) (projection.Source, int, error) {
	var (
		src    projection.Source
		native int
	)
	if texture.IsFacePattern(in) || layout != texture.Six {
		faces, err := texture.LoadFaces(ctx, cache, in, layout)
		if err != nil {
			return nil, 0, err
		}
		cube, err := projection.NewCube(faces, opts.CubeEdge.Or(sampler.Clamp))
		if err != nil {
			return nil, 0, err
		}
		src = cube
		native = slices.Max(faceSizes(faces))
	} else {
		img, err := cache.Load(ctx, in)
		if err != nil {
			return nil, 0, err
		}
		eq, err := projection.NewEquirect(img, opts.EquirectEdge.Or(sampler.WrapX))
		if err != nil {
			return nil, 0, err
		}
		src = eq
		native = convert.DefaultFaceSize(img)
	}
	return projection.Rotate(src, opts.Orientation), native, nil
}

// faceSizes lists the edge of every loaded face.
func faceSizes(faces [cubemap.NumFaces]*image.NRGBA) []int {
	out := make([]int, 0, cubemap.NumFaces)
	for _, f := range faces {
		if f != nil {
			out = append(out, f.Rect.Dx())
		}
	}
	return out
}
