package neoreel

import (
	"bufio"
	"fmt"
	"io"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Renderer draws one frame to a terminal and reports how many text rows it
// used, so the cursor can be moved back before the next frame.
type Renderer interface {
	Render(w io.Writer, f *Frame) (rows int, err error)
}

// ColorRenderer draws frames with 24-bit ANSI colors. Every character cell
// holds two vertically stacked pixels as an upper half block, which keeps
// pixels roughly square.
type ColorRenderer struct {
	Scale int
	// Order is the channel order the terminal expects. Terminals take RGB.
	Order ChannelOrder
}

func NewColorRenderer(scale int) *ColorRenderer {
	return &ColorRenderer{Scale: scale, Order: RGB}
}

func (r *ColorRenderer) Render(w io.Writer, f *Frame) (int, error) {
	scale := r.Scale
	if scale < 1 {
		scale = 1
	}
	side := Size * scale
	at := func(x, y int) colorful.Color {
		return f.Color(x/scale, y/scale, r.Order)
	}

	bw := bufio.NewWriter(w)
	var rows int
	for y := 0; y < side; y += 2 {
		for x := 0; x < side; x++ {
			// side is always even, so every top pixel has a bottom one.
			tr, tg, tb := at(x, y).RGB255()
			br, bg, bb := at(x, y+1).RGB255()
			fmt.Fprintf(bw, "\033[38;2;%d;%d;%dm\033[48;2;%d;%d;%dm▀", tr, tg, tb, br, bg, bb)
		}
		bw.WriteString("\033[0m\n")
		rows++
	}
	return rows, bw.Flush()
}
