package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tuziel/panorama/config"
	"github.com/tuziel/panorama/logger"
	"go.uber.org/zap"
)

type flags struct {
	mode, in, out                      *string
	size, width, height                *int
	layout, edge                       *string
	workers                            *int
	yawOffset, pitchOffset, rollOffset *float64
	yaw, pitch, fov                    *float64
	supersample                        *int
	configPath, logLevel, logFile      *string
	showHelp                           *bool
}

func defineFlags() flags {
	return flags{
		mode: flag.String("mode", "cube", "Conversion: cube (equirect to faces), sphere (faces to equirect) or view"),
		in:   flag.String("in", "", "Input image path or URL; a % names six face files"),
		out:  flag.String("out", "", "Output image path; a % names six face files"),

		size:   flag.Int("size", 0, "Face edge for cube mode, image edge for view mode (0 derives either from the input)"),
		width:  flag.Int("width", 0, "Equirectangular output width for sphere mode (0 derives it from the faces)"),
		height: flag.Int("height", 0, "Equirectangular output height for sphere mode"),
		layout: flag.String("layout", "six", "Cube layout on disk: six, cross or strip"),

		edge:        flag.String("edge", "", "Edge mode of the sampled image: clamp, wrap or wrapx"),
		workers:     flag.Int("workers", 0, "Worker goroutines (0 uses one per CPU)"),
		yawOffset:   flag.Float64("yaw-offset", 0, "Rotate the panorama about the vertical axis, in degrees"),
		pitchOffset: flag.Float64("pitch-offset", 0, "Tilt the panorama up or down, in degrees"),
		rollOffset:  flag.Float64("roll-offset", 0, "Roll the panorama about the forward axis, in degrees"),

		yaw:         flag.Float64("yaw", 0, "View yaw in degrees"),
		pitch:       flag.Float64("pitch", 0, "View pitch in degrees"),
		fov:         flag.Float64("fov", 90, "View horizontal field of view in degrees"),
		supersample: flag.Int("ss", 2, "View supersampling factor (higher is slower but smoother)"),

		configPath: flag.String("config", "", "Path to a YAML config file"),
		logLevel:   flag.String("log-level", "info", "Log level: debug, info, warn or error"),
		logFile:    flag.String("log-file", "", "Also write JSON logs to this rotating file"),

		showHelp: flag.Bool("h", false, "Show this help message"),
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Panorama - equirectangular and cubemap converter

Usage:
  %[1]s -mode cube   -in pano.jpg    -out faces_%%.png [options]
  %[1]s -mode sphere -in faces_%%.png -out pano.png    [options]
  %[1]s -mode view   -in pano.jpg    -out view.png    [options]

`, os.Args[0])

	printGroup("Input/Output", []string{"mode", "in", "out", "layout"})
	printGroup("Conversion Options", []string{"size", "width", "height", "edge", "workers", "yaw-offset", "pitch-offset", "roll-offset"})
	printGroup("View Options", []string{"yaw", "pitch", "fov", "ss"})
	printGroup("Misc", []string{"config", "log-level", "log-file", "h"})
}

func printGroup(title string, keys []string) {
	fmt.Fprintf(os.Stderr, "%s:\n", title)
	for _, name := range keys {
		if f := flag.Lookup(name); f != nil {
			fmt.Fprintf(os.Stderr, "  -%-13s %s (default %q)\n", f.Name, f.Usage, f.DefValue)
		}
	}
	fmt.Fprintln(os.Stderr)
}

// applyFlags copies explicitly set flags over the file config.
func applyFlags(cfg *config.Config, f flags) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "size":
			cfg.Convert.FaceSize = *f.size
			cfg.View.Size = *f.size
		case "width":
			cfg.Convert.Width = *f.width
		case "height":
			cfg.Convert.Height = *f.height
		case "layout":
			cfg.Convert.Layout = *f.layout
		case "edge":
			cfg.Convert.EquirectEdge = *f.edge
			cfg.Convert.CubeEdge = *f.edge
		case "workers":
			cfg.Convert.Workers = *f.workers
		case "yaw-offset":
			cfg.Convert.Orientation.Yaw = *f.yawOffset
		case "pitch-offset":
			cfg.Convert.Orientation.Pitch = *f.pitchOffset
		case "roll-offset":
			cfg.Convert.Orientation.Roll = *f.rollOffset
		case "yaw":
			cfg.View.Yaw = *f.yaw
		case "pitch":
			cfg.View.Pitch = *f.pitch
		case "fov":
			cfg.View.FOV = *f.fov
		case "ss":
			cfg.View.Supersample = *f.supersample
		case "log-level":
			cfg.Logging.Level = *f.logLevel
		case "log-file":
			cfg.Logging.LogFile = *f.logFile
		}
	})
}

func main() {
	f := defineFlags()
	flag.Usage = printHelp
	flag.Parse()

	if *f.showHelp {
		printHelp()
		return
	}

	cfg, err := config.Load(*f.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyFlags(cfg, f)

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j := job{mode: *f.mode, in: *f.in, out: *f.out}
	if err := run(ctx, cfg, j); err != nil {
		logger.Error("conversion failed", zap.String("mode", j.mode), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
