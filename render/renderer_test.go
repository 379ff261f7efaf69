package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/tuziel/panorama/cubemap"
	"github.com/tuziel/panorama/projection"
	"github.com/tuziel/panorama/sampler"
)

func solid(size int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:i+4], []uint8{c.R, c.G, c.B, c.A})
	}
	return img
}

var faceColors = [cubemap.NumFaces]color.NRGBA{
	cubemap.Right:  {255, 0, 0, 255},
	cubemap.Left:   {0, 255, 0, 255},
	cubemap.Top:    {0, 0, 255, 255},
	cubemap.Bottom: {255, 255, 0, 255},
	cubemap.Front:  {255, 255, 255, 255},
	cubemap.Back:   {0, 0, 0, 255},
}

func testCube(t *testing.T) *projection.Cube {
	t.Helper()
	var faces [cubemap.NumFaces]*image.NRGBA
	for _, f := range cubemap.Faces {
		faces[f] = solid(8, faceColors[f])
	}
	cube, err := projection.NewCube(faces, sampler.Clamp)
	if err != nil {
		t.Fatalf("NewCube: %v", err)
	}
	return cube
}

func near(a, b r3.Vector) bool {
	return a.Sub(b).Norm() < 1e-9
}

func TestCameraForward(t *testing.T) {
	cases := []struct {
		name       string
		yaw, pitch float64
		want       r3.Vector
	}{
		{"front", 0, 0, r3.Vector{Z: 1}},
		{"right", 90, 0, r3.Vector{X: 1}},
		{"back", 180, 0, r3.Vector{Z: -1}},
		{"left", -90, 0, r3.Vector{X: -1}},
		{"up", 0, 90, r3.Vector{Y: 1}},
		{"down", 0, -90, r3.Vector{Y: -1}},
		{"right and up", 90, 45, r3.Vector{X: math.Sqrt2 / 2, Y: math.Sqrt2 / 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cam := NewCamera(tc.yaw, tc.pitch, 90)
			if got := cam.Forward(); !near(got, tc.want) {
				t.Fatalf("forward = %v, want %v", got, tc.want)
			}
			// The centre of a single pixel image looks straight ahead.
			if got := cam.ComputeRay(0, 0, 1, 1); !near(got, tc.want) {
				t.Fatalf("ComputeRay = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestComputeRayBorders(t *testing.T) {
	cam := NewCamera(0, 0, 90)

	// Left border of a 4x2 image, on the horizon.
	got := cam.ComputeRay(-0.5, 0.5, 4, 2)
	want := r3.Vector{X: -1, Z: 1}.Normalize()
	if !near(got, want) {
		t.Fatalf("left border = %v, want %v", got, want)
	}

	// Top border: the vertical extent follows the aspect ratio.
	got = cam.ComputeRay(1.5, -0.5, 4, 2)
	want = r3.Vector{Y: 0.5, Z: 1}.Normalize()
	if !near(got, want) {
		t.Fatalf("top border = %v, want %v", got, want)
	}
}

func TestSupersamplingOffsets(t *testing.T) {
	if got := GenerateSupersamplingOffsets(0); got != nil {
		t.Fatalf("n=0: %v", got)
	}
	if got := GenerateSupersamplingOffsets(1); len(got) != 1 || got[0] != [2]float64{0, 0} {
		t.Fatalf("n=1: %v", got)
	}
	got := GenerateSupersamplingOffsets(2)
	if len(got) != 4 {
		t.Fatalf("n=2: %d offsets", len(got))
	}
	var sx, sy float64
	for _, o := range got {
		if math.Abs(o[0]) != 0.25 || math.Abs(o[1]) != 0.25 {
			t.Fatalf("n=2: offset %v", o)
		}
		sx += o[0]
		sy += o[1]
	}
	if sx != 0 || sy != 0 {
		t.Fatalf("offsets not centred: %v, %v", sx, sy)
	}
}

func TestRenderViewLooksAtFaces(t *testing.T) {
	cube := testCube(t)
	cases := []struct {
		name       string
		yaw, pitch float64
		face       cubemap.Face
	}{
		{"front", 0, 0, cubemap.Front},
		{"right", 90, 0, cubemap.Right},
		{"back", 180, 0, cubemap.Back},
		{"top", 0, 90, cubemap.Top},
		{"bottom", 0, -90, cubemap.Bottom},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cam := Camera{Yaw: tc.yaw, Pitch: tc.pitch, FOV: 60}
			img, err := RenderView(context.Background(), cube, cam, 16, 12, 2, 3)
			if err != nil {
				t.Fatalf("RenderView: %v", err)
			}
			if img.Rect != image.Rect(0, 0, 16, 12) {
				t.Fatalf("bounds = %v", img.Rect)
			}
			// A 60 degree view stays inside one face.
			for y := 0; y < 12; y++ {
				for x := 0; x < 16; x++ {
					if got := img.NRGBAAt(x, y); got != faceColors[tc.face] {
						t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, faceColors[tc.face])
					}
				}
			}
		})
	}
}

func TestRenderViewThroughOrientation(t *testing.T) {
	src := projection.Rotate(testCube(t), projection.Orientation{Yaw: 90})
	img, err := RenderView(context.Background(), src, Camera{FOV: 45}, 4, 4, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.NRGBAAt(2, 2); got != faceColors[cubemap.Right] {
		t.Fatalf("centre = %v, want right face", got)
	}
}

func TestRenderViewErrors(t *testing.T) {
	cube := testCube(t)
	ctx := context.Background()

	if _, err := RenderView(ctx, cube, Camera{FOV: 90}, 0, 10, 1, 1); !errors.Is(err, sampler.ErrInvalidDimension) {
		t.Errorf("zero width: got %v", err)
	}
	for _, fov := range []float64{0, -10, 180, math.NaN()} {
		if _, err := RenderView(ctx, cube, Camera{FOV: fov}, 4, 4, 1, 1); !errors.Is(err, ErrInvalidFOV) {
			t.Errorf("fov %v: got %v", fov, err)
		}
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := RenderView(canceled, cube, Camera{FOV: 90}, 8, 8, 1, 2); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled: got %v", err)
	}
}
