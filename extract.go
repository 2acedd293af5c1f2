package neoreel

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// OutputName derives a buffer name from a source video path: the base name
// with its last extension removed.
func OutputName(src string) string {
	base := filepath.Base(src)
	if name := strings.TrimSuffix(base, filepath.Ext(base)); name != "" {
		return name
	}
	return base
}

// Extractor turns a video into a thumbnail buffer.
type Extractor struct {
	Prober  Prober
	Decoder Decoder
	Rate    int         // frames per second sampled from the source
	Logger  *log.Logger // defaults to log.Default()
	// OnProbe, if set, is called once the source has been opened.
	OnProbe func(info VideoInfo)
	// OnFrame, if set, is called after every stored frame with its index.
	OnFrame func(i int)
}

// NewExtractor returns an Extractor using ffprobe and ffmpeg.
func NewExtractor(rate int, logger *log.Logger) *Extractor {
	return &Extractor{
		Prober:  VidioProber{},
		Decoder: FFmpegDecoder{},
		Rate:    rate,
		Logger:  logger,
	}
}

// ExtractResult summarizes a finished extraction.
type ExtractResult struct {
	Source       string
	Output       string
	NativeFrames int // frame count reported by the source
	Frames       int // thumbnails stored
	Width        int
	Height       int
}

// Extract samples src and writes its thumbnails to dst. If src cannot be
// opened nothing is written. If anything fails after dst was created, dst
// is removed.
func (e *Extractor) Extract(ctx context.Context, src, dst string) (*ExtractResult, error) {
	logger := e.Logger
	if logger == nil {
		logger = log.Default()
	}
	rate := e.Rate
	if rate <= 0 {
		rate = DefaultRate
	}

	info, err := e.Prober.Probe(src)
	if err != nil {
		return nil, err
	}
	if e.OnProbe != nil {
		e.OnProbe(info)
	}
	logger.Info("converting", "frames", info.Frames, "source", src,
		"size", fmt.Sprintf("%dx%d", info.Width, info.Height), "fps", info.FPS)

	buf, err := CreateBuffer(dst, info.Frames)
	if err != nil {
		return nil, err
	}

	n, err := e.fill(ctx, buf, src, info, rate, logger)
	if err != nil {
		buf.Abort()
		return nil, err
	}
	if err := buf.Close(); err != nil {
		buf.Abort()
		return nil, err
	}

	logger.Info("converted", "frames", n, "output", dst)
	return &ExtractResult{
		Source:       src,
		Output:       dst,
		NativeFrames: info.Frames,
		Frames:       n,
		Width:        info.Width,
		Height:       info.Height,
	}, nil
}

func (e *Extractor) fill(ctx context.Context, buf *BufferWriter, src string, info VideoInfo, rate int, logger *log.Logger) (int, error) {
	stream, err := e.Decoder.Decode(ctx, src, rate)
	if err != nil {
		return 0, fmt.Errorf("start decoder: %w", err)
	}

	frames := &RawVideoReader{Reader: stream, Width: info.Width, Height: info.Height}
	for {
		if err := ctx.Err(); err != nil {
			stream.Close()
			return buf.Len(), err
		}
		raw, err := frames.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			stream.Close()
			return buf.Len(), fmt.Errorf("read frame %d: %w", buf.Len(), err)
		}
		img, err := RawImage(raw.Pix, raw.Width, raw.Height)
		if err != nil {
			stream.Close()
			return buf.Len(), err
		}
		if err := buf.Append(Thumbnail(img)); err != nil {
			stream.Close()
			return buf.Len(), err
		}
		if e.OnFrame != nil {
			e.OnFrame(buf.Len() - 1)
		}
		logger.Debug("frame", "index", buf.Len()-1)
	}

	if err := stream.Close(); err != nil {
		return buf.Len(), fmt.Errorf("decoder: %w", err)
	}
	return buf.Len(), nil
}
