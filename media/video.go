// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package media

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// DefaultFrameRate is used by video sinks when no rate is given.
const DefaultFrameRate = 30.0

// Info describes the video stream of a file.
type Info struct {
	Width     int
	Height    int
	FrameRate float64

	// Frames is the frame count reported by the container, or 0.
	Frames int
}

// VideoOption configures OpenVideo and CreateVideo.
type VideoOption func(*videoOptions)

type videoOptions struct {
	ffmpegPath string
	frameRate  float64
	stderr     io.Writer
}

func defaultVideoOptions() videoOptions {
	return videoOptions{frameRate: DefaultFrameRate, stderr: io.Discard}
}

// WithFFmpegPath runs the given ffmpeg binary instead of the one on PATH.
func WithFFmpegPath(path string) VideoOption {
	return func(o *videoOptions) { o.ffmpegPath = path }
}

// WithFrameRate sets the frame rate of a video sink.
func WithFrameRate(fps float64) VideoOption {
	return func(o *videoOptions) {
		if fps > 0 {
			o.frameRate = fps
		}
	}
}

// WithStderr receives ffmpeg's diagnostic output. It is discarded by default.
func WithStderr(w io.Writer) VideoOption {
	return func(o *videoOptions) {
		if w != nil {
			o.stderr = w
		}
	}
}

type probeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		NbFrames   string `json:"nb_frames"`
	} `json:"streams"`
}

// Probe reads the size and rate of the first video stream with ffprobe.
func Probe(path string) (Info, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return Info{}, fmt.Errorf("media: probe %s: %w", path, err)
	}
	return parseProbe(out)
}

func parseProbe(data string) (Info, error) {
	var p probeOutput
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return Info{}, fmt.Errorf("media: parse probe output: %w", err)
	}
	for _, s := range p.Streams {
		if s.CodecType != "video" {
			continue
		}
		if s.Width <= 0 || s.Height <= 0 {
			return Info{}, fmt.Errorf("%w: invalid size %dx%d", ErrNoVideoStream, s.Width, s.Height)
		}
		info := Info{Width: s.Width, Height: s.Height, FrameRate: parseRate(s.RFrameRate)}
		info.Frames, _ = strconv.Atoi(s.NbFrames)
		return info, nil
	}
	return Info{}, ErrNoVideoStream
}

// parseRate parses ffprobe's "num/den" rates. It returns 0 when the rate
// is unknown.
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// VideoSource decodes a video file into RGBA8 frames through an ffmpeg
// process.
type VideoSource struct {
	info   Info
	reader *io.PipeReader
	frame  int
	done   chan error

	mu     sync.Mutex
	closed bool
}

// OpenVideo probes path and starts decoding it.
func OpenVideo(path string, opts ...VideoOption) (*VideoSource, error) {
	info, err := Probe(path)
	if err != nil {
		return nil, err
	}
	o := defaultVideoOptions()
	for _, opt := range opts {
		opt(&o)
	}

	pr, pw := io.Pipe()
	stream := decodeStream(path, o).WithOutput(pw)

	src := &VideoSource{info: info, reader: pr, done: make(chan error, 1)}
	go func() {
		err := stream.Run()
		_ = pw.CloseWithError(err)
		src.done <- err
	}()

	slogger().Info("media: decoding video", "path", path,
		"width", info.Width, "height", info.Height, "fps", info.FrameRate)
	return src, nil
}

func decodeStream(path string, o videoOptions) *ffmpeg.Stream {
	s := ffmpeg.Input(path).
		Output("pipe:", ffmpeg.KwArgs{"f": "rawvideo", "pix_fmt": "rgba"}).
		WithErrorOutput(o.stderr)
	if o.ffmpegPath != "" {
		s = s.SetFfmpegPath(o.ffmpegPath)
	}
	return s
}

// Info returns the probed stream description.
func (s *VideoSource) Info() Info { return s.info }

// Size returns the frame dimensions.
func (s *VideoSource) Size() (width, height int) { return s.info.Width, s.info.Height }

// Next reads one frame.
func (s *VideoSource) Next() ([]byte, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	buf := make([]byte, frameBytes(s.info.Width, s.info.Height))
	_, err := io.ReadFull(s.reader, buf)
	switch {
	case err == nil:
		s.frame++
		return buf, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, fmt.Errorf("%w: frame %d", ErrTruncated, s.frame+1)
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("media: decode frame %d: %w", s.frame+1, err)
	}
}

// Close stops the decoder.
func (s *VideoSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	_ = s.reader.Close()
	<-s.done
	return nil
}

// VideoSink encodes RGBA8 frames into a video file through an ffmpeg
// process.
type VideoSink struct {
	width  int
	height int
	writer *io.PipeWriter
	done   chan error
	frames int

	mu     sync.Mutex
	closed bool
}

// CreateVideo starts an encoder writing width×height frames to path,
// replacing any existing file.
func CreateVideo(path string, width, height int, enc Encoding, opts ...VideoOption) (*VideoSink, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrFrameSize, width, height)
	}
	o := defaultVideoOptions()
	for _, opt := range opts {
		opt(&o)
	}
	stream, err := encodeStream(path, width, height, enc, o)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	stream = stream.WithInput(pr)

	sink := &VideoSink{width: width, height: height, writer: pw, done: make(chan error, 1)}
	go func() {
		err := stream.Run()
		_ = pr.CloseWithError(err)
		sink.done <- err
	}()

	slogger().Info("media: encoding video", "path", path,
		"width", width, "height", height, "encoding", enc.String(), "fps", o.frameRate)
	return sink, nil
}

func encodeStream(path string, width, height int, enc Encoding, o videoOptions) (*ffmpeg.Stream, error) {
	out, err := enc.outputArgs()
	if err != nil {
		return nil, err
	}
	s := ffmpeg.Input("pipe:", ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", width, height),
		"framerate": strconv.FormatFloat(o.frameRate, 'f', -1, 64),
	}).
		Output(path, out).
		OverWriteOutput().
		WithErrorOutput(o.stderr)
	if o.ffmpegPath != "" {
		s = s.SetFfmpegPath(o.ffmpegPath)
	}
	return s, nil
}

// Write encodes one frame.
func (s *VideoSink) Write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := checkFrame(frame, s.width, s.height); err != nil {
		return err
	}
	if _, err := s.writer.Write(frame); err != nil {
		return fmt.Errorf("media: encode frame %d: %w", s.frames+1, err)
	}
	s.frames++
	return nil
}

// Frames returns the number of frames written.
func (s *VideoSink) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Close flushes the encoder and waits for ffmpeg to exit.
func (s *VideoSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	_ = s.writer.Close()
	if err := <-s.done; err != nil {
		return fmt.Errorf("media: ffmpeg: %w", err)
	}
	slogger().Info("media: video written", "frames", s.frames)
	return nil
}

var (
	_ Source = (*VideoSource)(nil)
	_ Sink   = (*VideoSink)(nil)
)
