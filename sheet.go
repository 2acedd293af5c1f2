package neoreel

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/llgcode/draw2d/draw2dimg"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
)

// SheetFormat is an image format a contact sheet can be written in.
type SheetFormat string

const (
	PNG  SheetFormat = "png"
	JPEG SheetFormat = "jpeg"
	BMP  SheetFormat = "bmp"
)

// SheetFormatFromFilename picks the sheet format from a file extension.
func SheetFormatFromFilename(name string) (SheetFormat, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".bmp":
		return BMP, nil
	}
	return "", fmt.Errorf("unsupported sheet format %q", filepath.Ext(name))
}

var gridColor = color.RGBA{0x40, 0x40, 0x40, 0xff}

// Sheet lays every frame of src out left to right, top to bottom, on a
// near-square grid with 1px lines between tiles. Each tile is the frame
// enlarged by scale.
func Sheet(src FrameSource, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	n := src.Len()
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	if cols < 1 {
		cols = 1
	}
	rows := (n + cols - 1) / cols
	if rows < 1 {
		rows = 1
	}
	tile := Size * scale
	pitch := tile + 1
	sheet := image.NewRGBA(image.Rect(0, 0, cols*pitch+1, rows*pitch+1))

	for i := 0; i < n; i++ {
		x, y := (i%cols)*pitch+1, (i/cols)*pitch+1
		dst := image.Rect(x, y, x+tile, y+tile)
		xdraw.NearestNeighbor.Scale(sheet, dst, src.Frame(i).Image(), image.Rect(0, 0, Size, Size), xdraw.Src, nil)
	}

	gc := draw2dimg.NewGraphicContext(sheet)
	gc.SetStrokeColor(gridColor)
	gc.SetLineWidth(1)
	w, h := float64(sheet.Bounds().Dx()), float64(sheet.Bounds().Dy())
	// Lines run through pixel centers so they cover exactly one pixel.
	for c := 0; c <= cols; c++ {
		x := float64(c*pitch) + 0.5
		gc.MoveTo(x, 0)
		gc.LineTo(x, h)
	}
	for r := 0; r <= rows; r++ {
		y := float64(r*pitch) + 0.5
		gc.MoveTo(0, y)
		gc.LineTo(w, y)
	}
	gc.Stroke()
	return sheet
}

// EncodeSheet writes the contact sheet of src to w.
func EncodeSheet(w io.Writer, src FrameSource, scale int, format SheetFormat) error {
	sheet := Sheet(src, scale)
	switch format {
	case PNG:
		return png.Encode(w, sheet)
	case JPEG:
		return jpeg.Encode(w, sheet, &jpeg.Options{Quality: 95})
	case BMP:
		return bmp.Encode(w, sheet)
	}
	return fmt.Errorf("unsupported sheet format %q", format)
}
