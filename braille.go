package neoreel

import (
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/nfnt/resize"
)

// Braille represents an 8 dot braille pattern in x,y coordinates space. Eg:
//
//	+----------+
//	|(0,0)(1,0)|
//	|(0,1)(1,1)|
//	|(0,2)(1,2)|
//	|(0,3)(1,3)|
//	+----------+
type Braille [2][4]int

// Rune maps each point in braille to a dot identifier and
// calculates the corresponding unicode symbol.
//
//	+------+
//	|(1)(4)|
//	|(2)(5)|
//	|(3)(6)|
//	|(7)(8)|
//	+------+
//
// See https://en.wikipedia.org/wiki/Braille_Patterns#Identifying.2C_naming_and_ordering)
func (b Braille) Rune() rune {
	lowEndian := [8]int{b[0][0], b[0][1], b[0][2], b[1][0], b[1][1], b[1][2], b[0][3], b[1][3]}
	var v int
	for i, x := range lowEndian {
		v += int(x) << uint(i)
	}
	return rune(v) + '\u2800'
}

// String returns a unicode braille character, ⠀ through ⣿.
func (b Braille) String() string {
	return string(b.Rune())
}

type BrailleOpt func(r *BrailleRenderer)

// WithInvertedColors fills the dots of light pixels instead of dark ones.
func WithInvertedColors() BrailleOpt {
	return func(r *BrailleRenderer) {
		r.invert = true
	}
}

// WithDrawer replaces Floyd-Steinberg diffusion, e.g. with draw.Src for hard
// thresholding.
func WithDrawer(d draw.Drawer) BrailleOpt {
	return func(r *BrailleRenderer) {
		r.drawer = d
	}
}

// BrailleRenderer draws frames in monochrome, one braille symbol per 2x4
// pixel block. It works on terminals without color support.
type BrailleRenderer struct {
	Scale  int
	drawer draw.Drawer
	invert bool
}

func NewBrailleRenderer(scale int, opts ...BrailleOpt) *BrailleRenderer {
	r := BrailleRenderer{
		Scale:  scale,
		drawer: draw.FloydSteinberg,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return &r
}

var monochrome = []color.Color{color.Black, color.White}

func (r *BrailleRenderer) Render(w io.Writer, f *Frame) (int, error) {
	var img image.Image = f.Image()
	if r.Scale > 1 {
		img = resize.Resize(uint(Size*r.Scale), uint(Size*r.Scale), img, resize.NearestNeighbor)
	}

	// Redraw the image with floyd steinberg image diffusion. This
	// allows us to simulate gray or shaded regions with monochrome.
	paletted := image.NewPaletted(img.Bounds(), monochrome)
	r.drawer.Draw(paletted, paletted.Bounds(), img, img.Bounds().Min)

	// Filled dots are lit on a dark terminal, so light pixels get dots
	// unless inverted.
	ink := color.Color(color.White)
	if r.invert {
		ink = color.Black
	}

	var rows int
	bounds := paletted.Bounds()
	for py := bounds.Min.Y; py < bounds.Max.Y; py += 4 {
		for px := bounds.Min.X; px < bounds.Max.X; px += 2 {
			var b Braille
			// Draw left-right, top-bottom.
			for y := 0; y < 4; y++ {
				for x := 0; x < 2; x++ {
					if px+x >= bounds.Max.X || py+y >= bounds.Max.Y {
						continue
					}
					if paletted.At(px+x, py+y) == ink {
						b[x][y] = 1
					}
				}
			}
			if _, err := w.Write([]byte(b.String())); err != nil {
				return rows, err
			}
		}
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return rows, err
		}
		rows++
	}
	return rows, nil
}
