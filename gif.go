package neoreel

import (
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"math"

	xdraw "golang.org/x/image/draw"
)

/*
EncodeGIF writes every frame of src to w as one animated GIF that plays
once at rate frames per second. Each 8x8 frame is enlarged by scale with
nearest neighbour sampling, so pixels stay sharp.

GIF delays are counted in hundredths of a second, so rates that do not
divide 100 are rounded (24 fps becomes 4cs per frame).
*/
func EncodeGIF(w io.Writer, src FrameSource, rate, scale int) error {
	if rate <= 0 {
		rate = DefaultRate
	}
	if scale < 1 {
		scale = 1
	}
	delay := int(math.Round(100 / float64(rate)))
	if delay < 1 {
		delay = 1
	}

	bounds := image.Rect(0, 0, Size*scale, Size*scale)
	giff := &gif.GIF{
		Config:    image.Config{Width: bounds.Dx(), Height: bounds.Dy(), ColorModel: color.Palette(palette.Plan9)},
		LoopCount: -1,
	}
	big := image.NewNRGBA(bounds)
	for i := 0; i < src.Len(); i++ {
		xdraw.NearestNeighbor.Scale(big, bounds, src.Frame(i).Image(), image.Rect(0, 0, Size, Size), xdraw.Src, nil)
		frame := image.NewPaletted(bounds, palette.Plan9)
		draw.FloydSteinberg.Draw(frame, bounds, big, image.Point{})
		giff.Image = append(giff.Image, frame)
		giff.Delay = append(giff.Delay, delay)
		giff.Disposal = append(giff.Disposal, gif.DisposalNone)
	}
	if len(giff.Image) == 0 {
		// A GIF needs at least one image.
		giff.Image = append(giff.Image, image.NewPaletted(bounds, palette.Plan9))
		giff.Delay = append(giff.Delay, delay)
		giff.Disposal = append(giff.Disposal, gif.DisposalNone)
	}
	return gif.EncodeAll(w, giff)
}
