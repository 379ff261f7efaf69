// Command cubecross packs six cube face images into one cross or strip image.
package main

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/tuziel/panorama/cubemap"
	"github.com/tuziel/panorama/logger"
	"github.com/tuziel/panorama/texture"
	"go.uber.org/zap"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-strip] <output> <right> <left> <top> <bottom> <front> <back>\n", os.Args[0])
}

func main() {
	args := os.Args[1:]
	layout := texture.Cross
	if len(args) > 0 && args[0] == "-strip" {
		layout = texture.Strip
		args = args[1:]
	}
	if len(args) != 1+cubemap.NumFaces {
		usage()
		os.Exit(1)
	}

	if err := logger.Init("info", ""); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := merge(context.Background(), args[0], args[1:], layout); err != nil {
		logger.Error("merge failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func merge(ctx context.Context, output string, inputs []string, layout texture.Layout) error {
	var faces [cubemap.NumFaces]*image.NRGBA
	for _, f := range cubemap.Faces {
		path := inputs[f]
		logger.Info("loading face", zap.Stringer("face", f), zap.String("path", path))

		img, err := texture.Load(ctx, path)
		if err != nil {
			return fmt.Errorf("could not load %v face %q: %w", f, path, err)
		}
		faces[f] = img
	}

	logger.Info("creating output", zap.String("path", output), zap.Stringer("layout", layout))
	return texture.SaveFaces(output, faces, layout)
}
