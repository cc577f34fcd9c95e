// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package media

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // register decoder
)

// ImageSource reads an ordered sequence of still images as frames. Every
// frame is scaled to the size of the first.
type ImageSource struct {
	paths  []string
	next   int
	width  int
	height int

	mu     sync.Mutex
	closed bool
}

// OpenImages opens the files matching a filepath.Match pattern, in lexical
// order. png, jpeg, gif, bmp, tiff and webp are decoded.
func OpenImages(pattern string) (*ImageSource, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("media: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: nothing matches %q", ErrNoFrames, pattern)
	}
	sort.Strings(paths)

	first, err := decodeFile(paths[0])
	if err != nil {
		return nil, err
	}
	b := first.Bounds()
	slogger().Info("media: reading images", "pattern", pattern, "count", len(paths),
		"width", b.Dx(), "height", b.Dy())
	return &ImageSource{paths: paths, width: b.Dx(), height: b.Dy()}, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("media: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("media: decode %s: %w", path, err)
	}
	return img, nil
}

// Size returns the frame dimensions.
func (s *ImageSource) Size() (width, height int) { return s.width, s.height }

// Len returns the number of images in the sequence.
func (s *ImageSource) Len() int { return len(s.paths) }

// Next decodes the next image.
func (s *ImageSource) Next() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.next >= len(s.paths) {
		return nil, io.EOF
	}
	path := s.paths[s.next]
	s.next++

	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	return toRGBA(img, s.width, s.height).Pix, nil
}

// toRGBA converts img to a tightly packed RGBA image of the given size,
// scaling when the bounds differ.
func toRGBA(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	slogger().Debug("media: scaling image", "from", b.Size(), "to", dst.Bounds().Size())
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Close ends the sequence.
func (s *ImageSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ImageFormat is a still image encoding for ImageSink.
type ImageFormat string

// Writable image formats.
const (
	PNG  ImageFormat = "png"
	JPEG ImageFormat = "jpeg"
	GIF  ImageFormat = "gif"
	BMP  ImageFormat = "bmp"
	TIFF ImageFormat = "tiff"
)

// ParseImageFormat accepts a format name or file extension.
func ParseImageFormat(s string) (ImageFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "gif":
		return GIF, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	}
	return "", fmt.Errorf("%w: image format %q", ErrUnsupportedFormat, s)
}

func (f ImageFormat) encode(w io.Writer, img image.Image) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case GIF:
		return gif.Encode(w, img, nil)
	case BMP:
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: image format %q", ErrUnsupportedFormat, string(f))
	}
}

// ImageSink writes every frame to its own numbered file in a directory.
type ImageSink struct {
	dir    string
	format ImageFormat
	width  int
	height int
	frames int

	mu     sync.Mutex
	closed bool
}

// CreateImages creates dir if needed and returns a sink writing
// frame_000001.<format> onwards.
func CreateImages(dir string, format ImageFormat, width, height int) (*ImageSink, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrFrameSize, width, height)
	}
	if _, err := ParseImageFormat(string(format)); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: %w", err)
	}
	return &ImageSink{dir: dir, format: format, width: width, height: height}, nil
}

// Write encodes one frame to the next file.
func (s *ImageSink) Write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := checkFrame(frame, s.width, s.height); err != nil {
		return err
	}

	img := &image.RGBA{
		Pix:    frame,
		Stride: s.width * 4,
		Rect:   image.Rect(0, 0, s.width, s.height),
	}
	path := filepath.Join(s.dir, fmt.Sprintf("frame_%06d.%s", s.frames+1, s.format))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("media: %w", err)
	}
	if err := s.format.encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("media: encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("media: %w", err)
	}
	s.frames++
	return nil
}

// Frames returns the number of files written.
func (s *ImageSink) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Close ends the sequence.
func (s *ImageSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		slogger().Info("media: images written", "dir", s.dir, "frames", s.frames)
	}
	return nil
}

var (
	_ Source = (*ImageSource)(nil)
	_ Sink   = (*ImageSink)(nil)
)
