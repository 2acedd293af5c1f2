package neoreel

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// RawImage reshapes width*height*3 bytes of rgb24 pixel data into an image.
// The pixel data is copied.
func RawImage(pix []byte, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("neoreel: invalid frame dimensions %dx%d", width, height)
	}
	if len(pix) != width*height*Channels {
		return nil, fmt.Errorf("neoreel: %dx%d frame needs %d bytes, got %d", width, height, width*height*Channels, len(pix))
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for p, q := 0, 0; p < len(pix); p, q = p+Channels, q+4 {
		img.Pix[q+0] = pix[p+0]
		img.Pix[q+1] = pix[p+1]
		img.Pix[q+2] = pix[p+2]
		img.Pix[q+3] = 0xff
	}
	return img, nil
}

// CropSquare trims the longer side of img symmetrically so that it becomes
// a square as wide as its shorter side. Square images keep their size.
func CropSquare(img image.Image) *image.NRGBA {
	b := img.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	return imaging.CropCenter(img, side, side)
}

// Thumbnail crops img to a centered square and shrinks it to Size x Size.
// Box filtering averages every source pixel that falls under a destination
// pixel, so detail is smoothed rather than skipped.
func Thumbnail(img image.Image) *Frame {
	small := imaging.Resize(CropSquare(img), Size, Size, imaging.Box)
	f, err := FrameFromImage(small)
	if err != nil {
		// imaging.Resize always honors the requested dimensions.
		panic(err)
	}
	return f
}
