package neoreel

import (
	"fmt"
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	// Size is the width and height of every stored thumbnail.
	Size = 8
	// Channels per pixel.
	Channels = 3
	// FrameSize is the number of bytes one thumbnail occupies in a buffer.
	FrameSize = Size * Size * Channels
	// DefaultRate is the number of frames per second a video is sampled at
	// and a buffer is played back at.
	DefaultRate = 24
)

// ChannelOrder describes the order a display expects color channels in.
type ChannelOrder int

const (
	RGB ChannelOrder = iota
	BGR
)

func (o ChannelOrder) String() string {
	switch o {
	case RGB:
		return "rgb"
	case BGR:
		return "bgr"
	}
	return fmt.Sprintf("ChannelOrder(%d)", int(o))
}

// Frame is one 8x8 thumbnail: row-major pixels, three interleaved channels
// per pixel, in the order the decoder captured them (rgb24).
type Frame [FrameSize]byte

// FrameFromImage copies an 8x8 image into a Frame. Images of any other
// size are rejected.
func FrameFromImage(img image.Image) (*Frame, error) {
	b := img.Bounds()
	if b.Dx() != Size || b.Dy() != Size {
		return nil, fmt.Errorf("neoreel: frame must be %dx%d, got %dx%d", Size, Size, b.Dx(), b.Dy())
	}
	var f Frame
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			f[i+0] = uint8(r >> 8)
			f[i+1] = uint8(g >> 8)
			f[i+2] = uint8(bl >> 8)
			i += Channels
		}
	}
	return &f, nil
}

// Image returns the frame as an opaque image in stored channel order.
func (f *Frame) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, Size, Size))
	for p := 0; p < Size*Size; p++ {
		copy(img.Pix[p*4:], f[p*Channels:p*Channels+Channels])
		img.Pix[p*4+3] = 0xff
	}
	return img
}

// Color returns the pixel at x, y normalized to the 0.0-1.0 range, with its
// channels arranged for a display expecting the given order.
func (f *Frame) Color(x, y int, order ChannelOrder) colorful.Color {
	i := (y*Size + x) * Channels
	c := colorful.Color{
		R: float64(f[i+0]) / 255.0,
		G: float64(f[i+1]) / 255.0,
		B: float64(f[i+2]) / 255.0,
	}
	if order == BGR {
		c.R, c.B = c.B, c.R
	}
	return c
}

// Brightness is the mean perceived luminance of the frame, from 0 (black)
// to 1 (white).
func (f *Frame) Brightness() float64 {
	var sum float64
	for i := 0; i < FrameSize; i += Channels {
		sum += float64(grayscale(f[i], f[i+1], f[i+2]))
	}
	return sum / (Size * Size * 255.0)
}

// Standard-ish algorithm for determining the best grayscale for human eyes
// 0.21 R + 0.72 G + 0.07 B
func grayscale(r, g, b uint8) float32 {
	return 0.21*float32(r) + 0.72*float32(g) + 0.07*float32(b)
}
