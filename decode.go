package neoreel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

func init() {
	ffmpeg.LogCompiledCommand = false
}

// Decoder produces a finite, ordered stream of raw rgb24 frames, resampled
// to rate frames per second and kept at the source's native dimensions.
// Closing the stream releases whatever produced it.
type Decoder interface {
	Decode(ctx context.Context, path string, rate int) (io.ReadCloser, error)
}

// FFmpegDecoder decodes with an ffmpeg subprocess.
type FFmpegDecoder struct{}

// Command builds the ffmpeg invocation for path: frames resampled to rate,
// rgb24 rawvideo on stdout, no audio or subtitles.
func (FFmpegDecoder) Command(path string, rate int) *ffmpeg.Stream {
	return ffmpeg.Input(path).
		Output("pipe:", ffmpeg.KwArgs{
			"r":       rate,
			"pix_fmt": "rgb24",
			"vcodec":  "rawvideo",
			"an":      "",
			"sn":      "",
			"f":       "image2pipe",
		})
}

func (d FFmpegDecoder) Decode(ctx context.Context, path string, rate int) (io.ReadCloser, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found in $PATH: %w", err)
	}

	pr, pw := io.Pipe()
	s := &ffmpegStream{pipe: pr, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		err := d.Command(path, rate).
			WithOutput(pw).
			WithErrorOutput(&s.stderr).
			Run()
		if err != nil {
			err = fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(s.stderr.String()))
		}
		s.err = err
		pw.CloseWithError(err)
	}()

	go func() {
		select {
		case <-ctx.Done():
			pr.CloseWithError(ctx.Err())
		case <-s.done:
		}
	}()
	return s, nil
}

type ffmpegStream struct {
	pipe   *io.PipeReader
	stderr bytes.Buffer
	done   chan struct{}
	err    error
	once   sync.Once
}

func (s *ffmpegStream) Read(p []byte) (int, error) { return s.pipe.Read(p) }

// Close waits for ffmpeg to exit. Closing before the stream is drained
// breaks ffmpeg's output pipe, which makes it quit.
func (s *ffmpegStream) Close() error {
	s.once.Do(func() { s.pipe.Close() })
	<-s.done
	return s.err
}

// RawVideoReader splits a raw rgb24 stream into frames.
type RawVideoReader struct {
	Reader io.Reader
	Width  int
	Height int

	buf []byte
}

// Next reads exactly one frame. A short read means the stream is exhausted
// and is reported as io.EOF.
func (r *RawVideoReader) Next() (*RawFrame, error) {
	size := r.Width * r.Height * Channels
	if size <= 0 {
		return nil, fmt.Errorf("neoreel: invalid frame dimensions %dx%d", r.Width, r.Height)
	}
	if len(r.buf) != size {
		r.buf = make([]byte, size)
	}
	if _, err := io.ReadFull(r.Reader, r.buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	return &RawFrame{Pix: r.buf, Width: r.Width, Height: r.Height}, nil
}

// RawFrame is one undecoded frame. Pix is only valid until the next call to
// RawVideoReader.Next.
type RawFrame struct {
	Pix    []byte
	Width  int
	Height int
}
