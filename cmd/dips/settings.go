// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/dips"
	"github.com/gogpu/dips/media"
)

// settings is everything a run needs. Profile files use the yaml keys.
type settings struct {
	Input       string  `yaml:"input"`
	Output      string  `yaml:"output"`
	Encoding    string  `yaml:"encoding"`
	ImageFormat string  `yaml:"image_format"`
	Filter      string  `yaml:"filter"`
	Chroma      string  `yaml:"chroma"`
	SigScalar   float64 `yaml:"sig_scalar"`
	WinSize     int     `yaml:"win_size"`
	Colorize    bool    `yaml:"colorize"`
	Window      int     `yaml:"window"`
	Backend     string  `yaml:"backend"`
	FFmpeg      string  `yaml:"ffmpeg"`
	LogFile     string  `yaml:"log_file"`
	Verbose     bool    `yaml:"verbose"`
	Refresh     []int   `yaml:"refresh"`

	// Actions that do not process a file.
	Probe    bool `yaml:"-"`
	Backends bool `yaml:"-"`
}

// Environment keys read from the process and from .env.
const (
	envFFmpeg  = "DIPS_FFMPEG"
	envBackend = "DIPS_BACKEND"
)

const defaultWindow = 2

var errUsage = errors.New("usage")

func defaultSettings() settings {
	cfg := dips.DefaultFilterConfig()
	return settings{
		Encoding:    media.RGBA.String(),
		ImageFormat: string(media.PNG),
		Filter:      cfg.Filter.String(),
		Chroma:      cfg.Chroma.String(),
		SigScalar:   float64(cfg.Sensitivity),
		WinSize:     cfg.SpatialWindowSize,
		Colorize:    cfg.Colorize,
		Window:      defaultWindow,
		Backend:     "auto",
	}
}

// readEnv returns the value of key from the process environment, falling
// back to the .env file at envPath.
func readEnv(envPath string) (func(string) string, error) {
	file, err := godotenv.Read(envPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", envPath, err)
	}
	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return file[key]
	}, nil
}

func loadProfile(path string, s *settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("parse profile %s: %w", path, err)
	}
	return nil
}

// parseArgs builds the run settings. Precedence, lowest first: defaults,
// environment, profile, flags. Bare integers after the flags are refresh
// markers.
func parseArgs(args []string, getenv func(string) string, stderr io.Writer) (settings, error) {
	s := defaultSettings()
	if v := getenv(envFFmpeg); v != "" {
		s.FFmpeg = v
	}
	if v := getenv(envBackend); v != "" {
		s.Backend = v
	}

	var f settings
	var profile string
	set := flag.NewFlagSet("dips", flag.ContinueOnError)
	set.SetOutput(stderr)
	set.StringVar(&f.Input, "input", s.Input, "input video file or image glob")
	set.StringVar(&f.Output, "output", s.Output, "output video file, or directory ending in / for images")
	set.StringVar(&f.Encoding, "encoding", s.Encoding, "video encoding: RGBA, HFYU or H264")
	set.StringVar(&f.ImageFormat, "image-format", s.ImageFormat, "image sequence format: png, jpeg, gif, bmp or tiff")
	set.StringVar(&f.Filter, "filter", s.Filter, "response curve: sigmoid, inv_sig or none")
	set.StringVar(&f.Chroma, "chroma", s.Chroma, "channel filter: r, g, b or all")
	set.Float64Var(&f.SigScalar, "sig_scalar", s.SigScalar, "sigmoid sensitivity in [1, 10]")
	set.IntVar(&f.WinSize, "win_size", s.WinSize, "odd spatial window in [1, 7]")
	set.BoolVar(&f.Colorize, "colorize", s.Colorize, "tint output by sign of change")
	set.IntVar(&f.Window, "window", s.Window, fmt.Sprintf("history frames in [1, %d]", dips.MaxWindow))
	set.StringVar(&f.Backend, "backend", s.Backend, "compute backend: auto, native, webgpu or soft")
	set.StringVar(&f.FFmpeg, "ffmpeg", s.FFmpeg, "ffmpeg binary (env "+envFFmpeg+")")
	set.StringVar(&f.LogFile, "log-file", s.LogFile, "also log to this rotating file")
	set.BoolVar(&f.Verbose, "v", false, "debug logging")
	set.StringVar(&profile, "profile", "", "YAML profile; flags override its values")
	set.BoolVar(&f.Probe, "probe", false, "report the wgpu-native adapter and exit")
	set.BoolVar(&f.Backends, "backends", false, "list registered backends and exit")
	set.Usage = func() {
		fmt.Fprintln(stderr, "usage: dips -input=PATH -output=PATH [flags] [refresh frame...]")
		set.PrintDefaults()
	}

	// Refresh markers may sit between flags, as in "-input=a.mp4 120 -output=b.avi".
	var markers []string
	for rest := args; ; {
		if err := set.Parse(rest); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return s, errUsage
			}
			return s, err
		}
		rest = set.Args()
		if len(rest) == 0 {
			break
		}
		markers = append(markers, rest[0])
		rest = rest[1:]
	}

	if profile != "" {
		if err := loadProfile(profile, &s); err != nil {
			return s, err
		}
	}

	set.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "input":
			s.Input = f.Input
		case "output":
			s.Output = f.Output
		case "encoding":
			s.Encoding = f.Encoding
		case "image-format":
			s.ImageFormat = f.ImageFormat
		case "filter":
			s.Filter = f.Filter
		case "chroma":
			s.Chroma = f.Chroma
		case "sig_scalar":
			s.SigScalar = f.SigScalar
		case "win_size":
			s.WinSize = f.WinSize
		case "colorize":
			s.Colorize = f.Colorize
		case "window":
			s.Window = f.Window
		case "backend":
			s.Backend = f.Backend
		case "ffmpeg":
			s.FFmpeg = f.FFmpeg
		case "log-file":
			s.LogFile = f.LogFile
		case "v":
			s.Verbose = f.Verbose
		case "probe":
			s.Probe = f.Probe
		case "backends":
			s.Backends = f.Backends
		}
	})

	for _, a := range markers {
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 {
			return s, fmt.Errorf("refresh marker %q is not a frame number", a)
		}
		s.Refresh = append(s.Refresh, n)
	}

	if s.Probe || s.Backends {
		return s, nil
	}
	if s.Input == "" {
		return s, errors.New("input not specified")
	}
	if s.Output == "" {
		return s, errors.New("output not specified")
	}
	return s, nil
}

// filterConfig converts the settings into an engine configuration. Values
// out of range are clamped by the engine.
func (s settings) filterConfig() (dips.FilterConfig, error) {
	cfg := dips.DefaultFilterConfig()
	var err error
	if cfg.Filter, err = dips.ParseFilterKind(s.Filter); err != nil {
		return cfg, err
	}
	if cfg.Chroma, err = dips.ParseChroma(s.Chroma); err != nil {
		return cfg, err
	}
	cfg.Sensitivity = float32(s.SigScalar)
	cfg.SpatialWindowSize = s.WinSize
	cfg.Colorize = s.Colorize
	return cfg.Normalize(), nil
}
