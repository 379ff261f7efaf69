package texture

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/tuziel/panorama/cubemap"
	"github.com/tuziel/panorama/sampler"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// Layout is how six cube faces are stored on disk.
type Layout int

const (
	// Six stores one file per face, named by a pattern with a '%'.
	Six Layout = iota
	// Cross is a 4×3 grid: left, front, right and back across the middle
	// row, top above front and bottom below it.
	Cross
	// Strip is a 6×1 row in face index order.
	Strip
)

var layoutNames = [...]string{"six", "cross", "strip"}

func (l Layout) String() string {
	if l < 0 || int(l) >= len(layoutNames) {
		return fmt.Sprintf("Layout(%d)", int(l))
	}
	return layoutNames[l]
}

func ParseLayout(s string) (Layout, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Six, nil
	}
	for i, name := range layoutNames {
		if s == name {
			return Layout(i), nil
		}
	}
	return 0, fmt.Errorf("unknown cube layout %q", s)
}

// FacePlaceholder is replaced by the face name in six file patterns.
const FacePlaceholder = "%"

// FacePath expands a six file pattern such as "faces_%.png" for face f.
func FacePath(pattern string, f cubemap.Face) string {
	return strings.ReplaceAll(pattern, FacePlaceholder, f.String())
}

// IsFacePattern reports whether path names six face files.
func IsFacePattern(path string) bool {
	return strings.Contains(path, FacePlaceholder)
}

// crossCells is the grid cell of every face in the Cross layout.
var crossCells = [cubemap.NumFaces]image.Point{
	cubemap.Right:  {2, 1},
	cubemap.Left:   {0, 1},
	cubemap.Top:    {1, 0},
	cubemap.Bottom: {1, 2},
	cubemap.Front:  {1, 1},
	cubemap.Back:   {3, 1},
}

func faceSize(faces [cubemap.NumFaces]*image.NRGBA) (int, error) {
	size := -1
	for _, f := range cubemap.Faces {
		img := faces[f]
		if err := sampler.Validate(img); err != nil {
			return 0, fmt.Errorf("face %v: %w", f, err)
		}
		w, h := img.Rect.Dx(), img.Rect.Dy()
		if w != h {
			return 0, fmt.Errorf("%w: face %v is %dx%d, not square", sampler.ErrInvalidDimension, f, w, h)
		}
		if size >= 0 && w != size {
			return 0, fmt.Errorf("%w: face %v is %d wide, expected %d", sampler.ErrInvalidDimension, f, w, size)
		}
		size = w
	}
	return size, nil
}

func compose(faces [cubemap.NumFaces]*image.NRGBA, cols, rows int, cell func(cubemap.Face) image.Point) (*image.NRGBA, error) {
	n, err := faceSize(faces)
	if err != nil {
		return nil, err
	}
	canvas := image.NewNRGBA(image.Rect(0, 0, cols*n, rows*n))
	for _, f := range cubemap.Faces {
		at := cell(f).Mul(n)
		draw.Draw(canvas, image.Rect(at.X, at.Y, at.X+n, at.Y+n), faces[f], faces[f].Rect.Min, draw.Src)
	}
	return canvas, nil
}

// ComposeCross packs six equally sized square faces into a 4N×3N cross.
// Cells outside the cross stay transparent.
func ComposeCross(faces [cubemap.NumFaces]*image.NRGBA) (*image.NRGBA, error) {
	return compose(faces, 4, 3, func(f cubemap.Face) image.Point { return crossCells[f] })
}

// ComposeStrip packs six equally sized square faces into a 6N×N strip.
func ComposeStrip(faces [cubemap.NumFaces]*image.NRGBA) (*image.NRGBA, error) {
	return compose(faces, 6, 1, func(f cubemap.Face) image.Point { return image.Pt(int(f), 0) })
}

func split(img *image.NRGBA, n int, cell func(cubemap.Face) image.Point) [cubemap.NumFaces]*image.NRGBA {
	var faces [cubemap.NumFaces]*image.NRGBA
	for _, f := range cubemap.Faces {
		at := img.Rect.Min.Add(cell(f).Mul(n))
		face := image.NewNRGBA(image.Rect(0, 0, n, n))
		draw.Draw(face, face.Rect, img, at, draw.Src)
		faces[f] = face
	}
	return faces
}

// SplitCross cuts a 4N×3N cross into its six faces.
func SplitCross(img *image.NRGBA) ([cubemap.NumFaces]*image.NRGBA, error) {
	if err := sampler.Validate(img); err != nil {
		return [cubemap.NumFaces]*image.NRGBA{}, err
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w%4 != 0 || w/4*3 != h {
		return [cubemap.NumFaces]*image.NRGBA{}, fmt.Errorf("%w: %dx%d is not a 4:3 cross", sampler.ErrInvalidDimension, w, h)
	}
	return split(img, w/4, func(f cubemap.Face) image.Point { return crossCells[f] }), nil
}

// SplitStrip cuts a 6N×N strip into its six faces.
func SplitStrip(img *image.NRGBA) ([cubemap.NumFaces]*image.NRGBA, error) {
	if err := sampler.Validate(img); err != nil {
		return [cubemap.NumFaces]*image.NRGBA{}, err
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w != 6*h {
		return [cubemap.NumFaces]*image.NRGBA{}, fmt.Errorf("%w: %dx%d is not a 6:1 strip", sampler.ErrInvalidDimension, w, h)
	}
	return split(img, h, func(f cubemap.Face) image.Point { return image.Pt(int(f), 0) }), nil
}

// LoadFaces reads a cubemap stored in layout. For Six, src is a pattern
// expanded with FacePath and the six files are loaded concurrently. cache
// may be nil.
func LoadFaces(ctx context.Context, cache *Cache, src string, layout Layout) ([cubemap.NumFaces]*image.NRGBA, error) {
	var faces [cubemap.NumFaces]*image.NRGBA

	switch layout {
	case Six:
		if !IsFacePattern(src) {
			return faces, fmt.Errorf("six file layout needs a %q in %q", FacePlaceholder, src)
		}
		g, gctx := errgroup.WithContext(ctx)
		for _, f := range cubemap.Faces {
			g.Go(func() error {
				img, err := cache.Load(gctx, FacePath(src, f))
				if err != nil {
					return fmt.Errorf("face %v: %w", f, err)
				}
				faces[f] = img
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return [cubemap.NumFaces]*image.NRGBA{}, err
		}
		return faces, nil
	case Cross, Strip:
		img, err := cache.Load(ctx, src)
		if err != nil {
			return faces, err
		}
		if layout == Cross {
			return SplitCross(img)
		}
		return SplitStrip(img)
	default:
		return faces, fmt.Errorf("unknown cube layout %v", layout)
	}
}

// SaveFaces writes six faces in layout. For Six, dst is a pattern expanded
// with FacePath.
func SaveFaces(dst string, faces [cubemap.NumFaces]*image.NRGBA, layout Layout) error {
	switch layout {
	case Six:
		if !IsFacePattern(dst) {
			return fmt.Errorf("six file layout needs a %q in %q", FacePlaceholder, dst)
		}
		for _, f := range cubemap.Faces {
			if err := Save(FacePath(dst, f), faces[f]); err != nil {
				return err
			}
		}
		return nil
	case Cross, Strip:
		pack := ComposeCross
		if layout == Strip {
			pack = ComposeStrip
		}
		img, err := pack(faces)
		if err != nil {
			return err
		}
		return Save(dst, img)
	default:
		return fmt.Errorf("unknown cube layout %v", layout)
	}
}
