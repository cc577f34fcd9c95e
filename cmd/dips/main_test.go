// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	fcolor "github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/dips"
)

func noEnv(string) string { return "" }

func TestParseArgsDefaults(t *testing.T) {
	s, err := parseArgs([]string{"-input=in.mp4", "-output=out.avi"}, noEnv, io.Discard)
	require.NoError(t, err)

	want := defaultSettings()
	want.Input = "in.mp4"
	want.Output = "out.avi"
	assert.Equal(t, want, s)
	assert.Equal(t, "auto", s.Backend)
	assert.Equal(t, defaultWindow, s.Window)
}

func TestParseArgsRequired(t *testing.T) {
	_, err := parseArgs([]string{"-output=out.avi"}, noEnv, io.Discard)
	assert.ErrorContains(t, err, "input")

	_, err = parseArgs([]string{"-input=in.mp4"}, noEnv, io.Discard)
	assert.ErrorContains(t, err, "output")

	s, err := parseArgs([]string{"-backends"}, noEnv, io.Discard)
	require.NoError(t, err)
	assert.True(t, s.Backends)
}

func TestParseArgsHelp(t *testing.T) {
	var buf bytes.Buffer
	_, err := parseArgs([]string{"-h"}, noEnv, &buf)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, buf.String(), "usage: dips")
}

func TestParseArgsMarkers(t *testing.T) {
	s, err := parseArgs([]string{"-input=a.mp4", "120", "-output=b.avi", "300", "450"}, noEnv, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []int{120, 300, 450}, s.Refresh)
	assert.Equal(t, "b.avi", s.Output)

	for _, bad := range []string{"x", "0", "-3"} {
		_, err := parseArgs([]string{"-input=a", "-output=b", "--", bad}, noEnv, io.Discard)
		assert.Error(t, err, "marker %q", bad)
	}
}

func TestParseArgsEnv(t *testing.T) {
	env := map[string]string{envBackend: "soft", envFFmpeg: "/opt/ffmpeg"}
	getenv := func(k string) string { return env[k] }

	s, err := parseArgs([]string{"-input=a", "-output=b"}, getenv, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "soft", s.Backend)
	assert.Equal(t, "/opt/ffmpeg", s.FFmpeg)

	s, err = parseArgs([]string{"-input=a", "-output=b", "-backend=native"}, getenv, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "native", s.Backend)
}

func TestParseArgsProfile(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "night.yaml")
	require.NoError(t, os.WriteFile(profile, []byte(`
input: cam.mp4
output: diff.avi
filter: inv_sig
sig_scalar: 7.5
window: 6
refresh: [30]
`), 0o644))

	s, err := parseArgs([]string{"-profile", profile, "-window=3", "90"}, noEnv, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "cam.mp4", s.Input)
	assert.Equal(t, "inv_sig", s.Filter)
	assert.Equal(t, 7.5, s.SigScalar)
	assert.Equal(t, 3, s.Window, "flag overrides profile")
	assert.Equal(t, []int{30, 90}, s.Refresh)

	_, err = parseArgs([]string{"-profile", filepath.Join(t.TempDir(), "missing.yaml")}, noEnv, io.Discard)
	assert.Error(t, err)
}

func TestFilterConfig(t *testing.T) {
	s := defaultSettings()
	s.Filter = "inv_sig"
	s.Chroma = "g"
	s.SigScalar = 40
	s.WinSize = 4
	s.Colorize = true

	cfg, err := s.filterConfig()
	require.NoError(t, err)
	assert.Equal(t, dips.InverseSigmoid, cfg.Filter)
	assert.Equal(t, dips.ChromaGreen, cfg.Chroma)
	assert.Equal(t, float32(dips.MaxSensitivity), cfg.Sensitivity)
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.Colorize)

	s.Chroma = "purple"
	_, err = s.filterConfig()
	assert.Error(t, err)
}

func TestRefreshSchedule(t *testing.T) {
	due := refreshSchedule([]int{10, 50}, 4)
	assert.True(t, due[14])
	assert.True(t, due[54])
	assert.False(t, due[10])
	assert.Len(t, due, 2)
}

func TestImageOutput(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, imageOutput(dir))
	assert.True(t, imageOutput("frames/"))
	assert.False(t, imageOutput(filepath.Join(dir, "out.avi")))
}

func TestPrintReport(t *testing.T) {
	fcolor.NoColor = true
	var buf bytes.Buffer
	printReport(&buf, report{Frames: 12345, Written: 12344, Refreshes: 2, Elapsed: time.Second})
	out := buf.String()
	assert.Contains(t, out, "12,345 frames read, 12,344 written")
	assert.Contains(t, out, "2 baseline refreshes")
	assert.Contains(t, out, "12,345.0 fps")
}

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestRunImageSequence(t *testing.T) {
	fcolor.NoColor = true
	in := t.TempDir()
	for i, v := range []uint8{40, 40, 90, 90} {
		writePNG(t, filepath.Join(in, "f"+string(rune('a'+i))+".png"), color.RGBA{v, v, v, 255})
	}
	out := filepath.Join(t.TempDir(), "diff") + "/"

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"-input=" + filepath.Join(in, "*.png"),
		"-output=" + out,
		"-backend=soft",
		"-window=2",
		"1",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	files, err := filepath.Glob(filepath.Join(out, "frame_*.png"))
	require.NoError(t, err)
	assert.Len(t, files, 3)

	text := stdout.String()
	assert.Contains(t, text, "Running DiPs with settings:")
	assert.Contains(t, text, "Frame: 4")
	assert.Contains(t, text, "4 frames read, 3 written, 1 baseline refreshes")
	assert.True(t, strings.Contains(stderr.String(), "refreshing baseline"))
}

func TestRunBackends(t *testing.T) {
	var stdout bytes.Buffer
	code := run([]string{"-backends"}, &stdout, io.Discard)
	assert.Equal(t, 0, code)
	assert.Contains(t, strings.Fields(stdout.String()), "soft")
}

func TestRunBadFlags(t *testing.T) {
	fcolor.NoColor = true
	var stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"-output=x"}, io.Discard, &stderr))
	assert.Contains(t, stderr.String(), "input not specified")

	stderr.Reset()
	code := run([]string{"-input=" + filepath.Join(t.TempDir(), "*.png"), "-output=o/", "-backend=soft"}, io.Discard, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "error:")
}
