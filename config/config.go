// Package config handles panorama tool configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/tuziel/panorama/convert"
	"github.com/tuziel/panorama/projection"
	"github.com/tuziel/panorama/sampler"
	"github.com/tuziel/panorama/texture"
)

// Config holds all tool settings.
type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	View    ViewConfig    `yaml:"view"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// ConvertConfig holds conversion settings. Zero sizes are derived from the
// input image.
type ConvertConfig struct {
	FaceSize     int                    `yaml:"face_size"`
	Width        int                    `yaml:"width"`
	Height       int                    `yaml:"height"`
	EquirectEdge string                 `yaml:"equirect_edge"`
	CubeEdge     string                 `yaml:"cube_edge"`
	Workers      int                    `yaml:"workers"` // 0 means one per CPU
	Layout       string                 `yaml:"layout"`  // six, cross or strip
	Orientation  projection.Orientation `yaml:"orientation"`
}

// ViewConfig holds perspective view settings. Angles are in degrees and a
// zero size is derived from the input image.
type ViewConfig struct {
	FOV         float64 `yaml:"fov"`
	Yaw         float64 `yaml:"yaw"`
	Pitch       float64 `yaml:"pitch"`
	Size        int     `yaml:"size"`
	Supersample int     `yaml:"supersample"`
}

// CacheConfig holds decoded image cache settings.
type CacheConfig struct {
	Size int `yaml:"size"` // number of images
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Convert: ConvertConfig{
			EquirectEdge: sampler.WrapX.String(),
			CubeEdge:     sampler.Clamp.String(),
			Layout:       texture.Six.String(),
		},
		View: ViewConfig{
			FOV:         90,
			Size:        1024,
			Supersample: 2,
		},
		Cache: CacheConfig{
			Size: texture.DefaultCacheSize,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Convert.FaceSize < 0 {
		errs = append(errs, fmt.Errorf("convert.face_size: %w: %d", sampler.ErrInvalidDimension, c.Convert.FaceSize))
	}
	if c.Convert.Width < 0 || c.Convert.Height < 0 {
		errs = append(errs, fmt.Errorf("convert.width/height: %w: %dx%d", sampler.ErrInvalidDimension, c.Convert.Width, c.Convert.Height))
	}
	if (c.Convert.Width == 0) != (c.Convert.Height == 0) {
		errs = append(errs, errors.New("convert.width and convert.height must be set together"))
	}
	if _, err := sampler.ParseEdgeMode(c.Convert.EquirectEdge); err != nil {
		errs = append(errs, fmt.Errorf("convert.equirect_edge: %w", err))
	}
	if _, err := sampler.ParseEdgeMode(c.Convert.CubeEdge); err != nil {
		errs = append(errs, fmt.Errorf("convert.cube_edge: %w", err))
	}
	if c.Convert.Workers < 0 {
		errs = append(errs, fmt.Errorf("convert.workers: negative value %d", c.Convert.Workers))
	}
	if _, err := texture.ParseLayout(c.Convert.Layout); err != nil {
		errs = append(errs, fmt.Errorf("convert.layout: %w", err))
	}
	if !(c.View.FOV > 0 && c.View.FOV < 180) {
		errs = append(errs, fmt.Errorf("view.fov: %v not in (0, 180)", c.View.FOV))
	}
	if c.View.Size < 0 {
		errs = append(errs, fmt.Errorf("view.size: %w: %d", sampler.ErrInvalidDimension, c.View.Size))
	}
	if c.View.Supersample < 1 {
		errs = append(errs, fmt.Errorf("view.supersample: %d is less than 1", c.View.Supersample))
	}
	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Errorf("cache.size: negative value %d", c.Cache.Size))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Options returns the conversion options described by the config.
func (c *Config) Options() (convert.Options, error) {
	eq, err := sampler.ParseEdgeMode(c.Convert.EquirectEdge)
	if err != nil {
		return convert.Options{}, err
	}
	cube, err := sampler.ParseEdgeMode(c.Convert.CubeEdge)
	if err != nil {
		return convert.Options{}, err
	}
	return convert.Options{
		EquirectEdge: eq,
		CubeEdge:     cube,
		Orientation:  c.Convert.Orientation,
		Workers:      c.Convert.Workers,
	}, nil
}

// Layout returns the configured cube layout.
func (c *Config) Layout() (texture.Layout, error) {
	return texture.ParseLayout(c.Convert.Layout)
}
