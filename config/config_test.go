package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tuziel/panorama/sampler"
	"github.com/tuziel/panorama/texture"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	if cfg.Convert.FaceSize != 0 || cfg.Convert.Width != 0 {
		t.Errorf("expected derived sizes, got face %d width %d", cfg.Convert.FaceSize, cfg.Convert.Width)
	}
	if cfg.View.FOV != 90 {
		t.Errorf("expected fov 90, got %v", cfg.View.FOV)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if opts.EquirectEdge != sampler.WrapX || opts.CubeEdge != sampler.Clamp {
		t.Errorf("edges = %v, %v", opts.EquirectEdge, opts.CubeEdge)
	}
	if l, err := cfg.Layout(); err != nil || l != texture.Six {
		t.Errorf("layout = %v, %v", l, err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
convert:
  face_size: 512
  equirect_edge: wrap
  workers: 3
  layout: cross
  orientation:
    yaw: 90
    pitch: -10

view:
  fov: 75
  supersample: 3

logging:
  level: debug
  log_file: /tmp/panorama.log
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Convert.FaceSize != 512 {
		t.Errorf("expected face size 512, got %d", cfg.Convert.FaceSize)
	}
	if cfg.Convert.Orientation.Yaw != 90 || cfg.Convert.Orientation.Pitch != -10 {
		t.Errorf("orientation = %+v", cfg.Convert.Orientation)
	}
	if cfg.View.FOV != 75 || cfg.View.Supersample != 3 {
		t.Errorf("view = %+v", cfg.View)
	}
	// Unset values keep their defaults.
	if cfg.View.Size != 1024 {
		t.Errorf("expected default view size 1024, got %d", cfg.View.Size)
	}
	if cfg.Convert.CubeEdge != "clamp" {
		t.Errorf("expected default cube edge, got %q", cfg.Convert.CubeEdge)
	}
	if cfg.Logging.LogFile != "/tmp/panorama.log" {
		t.Errorf("log file = %q", cfg.Logging.LogFile)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatal(err)
	}
	if opts.EquirectEdge != sampler.Wrap || opts.Workers != 3 || opts.Orientation.Yaw != 90 {
		t.Errorf("options = %+v", opts)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("convert: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Convert.FaceSize = -1
	cfg.Convert.Width = 100
	cfg.Convert.EquirectEdge = "mirror"
	cfg.Convert.Layout = "sphere"
	cfg.View.FOV = 180
	cfg.View.Supersample = 0
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if !errors.Is(err, sampler.ErrInvalidDimension) {
		t.Errorf("expected ErrInvalidDimension in %v", err)
	}
	for _, key := range []string{"face_size", "width and convert.height", "equirect_edge", "layout", "view.fov", "supersample", "logging.level"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error does not mention %s: %v", key, err)
		}
	}
	if _, err := cfg.Options(); err == nil {
		t.Error("Options accepted an unknown edge mode")
	}
}

func TestViewSizeZeroIsDerived(t *testing.T) {
	cfg := Default()
	cfg.View.Size = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("view size 0 rejected: %v", err)
	}
	cfg.View.Size = -1
	if err := cfg.Validate(); !errors.Is(err, sampler.ErrInvalidDimension) {
		t.Fatalf("view size -1: got %v", err)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Convert.Width = 2048
	cfg.Convert.Height = 1024
	cfg.Convert.Orientation.Roll = 5
	cfg.Cache.Size = 4

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded %+v, want %+v", loaded, cfg)
	}
}
