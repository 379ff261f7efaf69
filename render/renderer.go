// Package render draws perspective views out of a panorama.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/tuziel/panorama/colors"
	"github.com/tuziel/panorama/convert"
	"github.com/tuziel/panorama/logger"
	"github.com/tuziel/panorama/projection"
	"github.com/tuziel/panorama/sampler"
	"go.uber.org/zap"
)

// ErrInvalidFOV reports a field of view outside (0, 180) degrees.
var ErrInvalidFOV = errors.New("field of view out of range")

// GenerateSupersamplingOffsets returns n×n offsets in [-0.5, +0.5] for
// supersampling, as pairs (dx, dy) with pixel-center spacing.
func GenerateSupersamplingOffsets(n int) [][2]float64 {
	if n <= 0 {
		return nil
	}
	step := 1.0 / float64(n)
	out := make([][2]float64, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dx := (float64(i)+0.5)*step - 0.5
			dy := (float64(j)+0.5)*step - 0.5
			out = append(out, [2]float64{dx, dy})
		}
	}
	return out
}

// RenderView renders a width×height perspective view of src as seen by cam.
// Each pixel averages supersampling×supersampling rays; values below 1 mean
// one ray per pixel. workers <= 0 uses one worker per CPU.
func RenderView(ctx context.Context, src projection.Source, cam Camera, width, height, supersampling, workers int) (*image.NRGBA, error) {
	if err := sampler.CheckDimension("view", width, height); err != nil {
		return nil, err
	}
	if !(cam.FOV > 0 && cam.FOV < 180) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFOV, cam.FOV)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	cam = NewCamera(cam.Yaw, cam.Pitch, cam.FOV)
	offsets := GenerateSupersamplingOffsets(max(1, supersampling))
	n := float64(len(offsets))

	start := time.Now()
	var done atomic.Int64
	var progressMilestone atomic.Int64

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	err := convert.ForEachRow(ctx, height, workers, func(y int) error {
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < width; x++ {
			colorAccum := colors.Color4{}
			for _, off := range offsets {
				dx, dy := off[0], off[1]
				rayDir := cam.ComputeRay(float64(x)+dx, float64(y)+dy, width, height)
				colorAccum = colorAccum.Add(src.Sample(rayDir))
			}

			c := colorAccum.Scale(1.0 / n).ToNRGBA()
			row[x*4+0] = c.R
			row[x*4+1] = c.G
			row[x*4+2] = c.B
			row[x*4+3] = c.A
		}

		progress := done.Add(1) * 100 / int64(height)
		if m := progressMilestone.Load(); progress >= m+10 && progressMilestone.CompareAndSwap(m, progress/10*10) {
			logger.Debug("view progress", zap.Int64("percent", progress/10*10))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("view rendered",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("rays_per_pixel", len(offsets)),
		zap.Duration("took", time.Since(start)))
	return img, nil
}
