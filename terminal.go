package neoreel

import (
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

type Terminal interface {
	ResetCursor(rows int)
	ShowCursor(show bool)
	Size() (cols, lines int, err error)
}

type Xterm struct {
	Writer io.Writer
	// Fd is queried for the window size. Stderr is used when zero, since
	// stdin and stdout are often redirected.
	Fd int
}

// Move the cursor to the beginning of the line and up rows
func (term *Xterm) ResetCursor(rows int) {
	if rows <= 0 {
		return
	}
	term.Writer.Write([]byte(fmt.Sprintf("\033[999D\033[%dA", rows)))
}

func (term *Xterm) ShowCursor(show bool) {
	if show {
		term.Writer.Write([]byte("\033[?12l\033[?25h"))
	} else {
		term.Writer.Write([]byte("\033[?25l"))
	}
}

func (term *Xterm) Size() (cols, lines int, err error) {
	fd := term.Fd
	if fd == 0 {
		fd = unix.Stderr
	}
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return -1, -1, err
	}
	return int(ws.Col), int(ws.Row), nil
}
