package neoreel

import (
	"fmt"
	"os"

	vidio "github.com/AlexEidt/Vidio"
)

// VideoInfo holds what the extractor needs to know about a source video.
type VideoInfo struct {
	Frames int // at the native frame rate
	Width  int
	Height int
	FPS    float64
}

// Prober reads a source video's metadata.
type Prober interface {
	Probe(path string) (VideoInfo, error)
}

// OpenError reports a source video that could not be opened.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string { return fmt.Sprintf("could not open %s: %v", e.Path, e.Err) }

func (e *OpenError) Unwrap() error { return e.Err }

// VidioProber probes videos with ffprobe through Vidio.
type VidioProber struct{}

func (VidioProber) Probe(path string) (VideoInfo, error) {
	if _, err := os.Stat(path); err != nil {
		return VideoInfo{}, &OpenError{Path: path, Err: err}
	}
	video, err := vidio.NewVideo(path)
	if err != nil {
		return VideoInfo{}, &OpenError{Path: path, Err: err}
	}
	// Only the metadata is needed; decoding happens elsewhere.
	defer video.Close()

	info := VideoInfo{
		Frames: video.Frames(),
		Width:  video.Width(),
		Height: video.Height(),
		FPS:    video.FPS(),
	}
	if info.Width <= 0 || info.Height <= 0 {
		return VideoInfo{}, &OpenError{Path: path, Err: fmt.Errorf("no video stream")}
	}
	return info, nil
}
