package neoreel

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/ssh/terminal"
	"golang.org/x/sys/unix"
)

// FrameSource is an indexed sequence of frames, such as an open buffer.
type FrameSource interface {
	Len() int
	Frame(i int) *Frame
}

// Player shows frames one after another in a terminal.
type Player struct {
	w io.Writer
	r Renderer
	t Terminal

	// Delay is how long each frame stays on screen.
	Delay time.Duration
	// Keys, if set, delivers key presses. Any key cuts the current delay
	// short; ESC, q and CTRL-C stop playback.
	Keys <-chan byte
}

func NewPlayer(w io.Writer, r Renderer, t Terminal, rate int) *Player {
	if t == nil {
		t = &Xterm{
			Writer: w,
		}
	}
	if r == nil {
		r = NewColorRenderer(1)
	}
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Player{
		w:     crlfWriter{w},
		r:     r,
		t:     t,
		Delay: time.Second / time.Duration(rate),
	}
}

/*
Play draws every frame of src once, in order, and returns how many frames
were shown. Each frame is drawn and then held for a fixed Delay. The delay
is not corrected for the time spent drawing, so playback drifts slightly
behind the wall clock.
*/
func (p *Player) Play(src FrameSource) (int, error) {
	p.t.ShowCursor(false)
	defer p.t.ShowCursor(true)
	stop := p.handleInterrupt()
	defer stop()

	var rows int
	for i := 0; i < src.Len(); i++ {
		if i > 0 {
			p.t.ResetCursor(rows)
		}
		var err error
		if rows, err = p.r.Render(p.w, src.Frame(i)); err != nil {
			return i, err
		}
		if quit := p.wait(); quit {
			return i + 1, nil
		}
	}
	return src.Len(), nil
}

func (p *Player) wait() (quit bool) {
	delay := time.NewTimer(p.Delay)
	defer delay.Stop()
	select {
	case <-delay.C:
		return false
	case key, ok := <-p.Keys:
		if !ok {
			// No more keys will come; sit out the delay.
			p.Keys = nil
			<-delay.C
			return false
		}
		return key == 3 || key == 27 || key == 'q'
	}
}

// handleInterrupt brings the cursor back if playback is killed. Call stop
// once playback ends normally.
func (p *Player) handleInterrupt() (stop func()) {
	signals := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case s := <-signals:
			p.t.ShowCursor(true)
			signal.Stop(signals)
			// With the handler gone, the same signal ends the process with
			// its usual status.
			if signum, ok := s.(syscall.Signal); ok {
				syscall.Kill(syscall.Getpid(), signum)
			} else {
				panic(fmt.Sprintf("unexpected signal: %v", s))
			}
		case <-done:
			signal.Stop(signals)
		}
	}()
	return func() { close(done) }
}

// crlfWriter returns the carriage on every line feed. A terminal in raw
// mode for Keyboard no longer does that itself.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	start := 0
	for i, b := range p {
		if b != '\n' || (i > 0 && p[i-1] == '\r') {
			continue
		}
		if _, err := c.w.Write(p[start:i]); err != nil {
			return start, err
		}
		if _, err := c.w.Write([]byte("\r\n")); err != nil {
			return i, err
		}
		start = i + 1
	}
	if _, err := c.w.Write(p[start:]); err != nil {
		return start, err
	}
	return len(p), nil
}

// Keyboard switches the terminal behind fd to raw mode and streams single
// key presses. Call restore when done. It fails if fd is not a terminal.
func Keyboard(fd int) (keys <-chan byte, restore func() error, err error) {
	if !terminal.IsTerminal(fd) {
		return nil, nil, fmt.Errorf("fd %d is not a terminal", fd)
	}
	state, err := terminal.MakeRaw(fd)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan byte, 16)
	go func() {
		defer close(ch)
		p := make([]byte, 1)
		for {
			n, err := unix.Read(fd, p)
			if err != nil || n == 0 {
				return
			}
			if n == 1 {
				select {
				case ch <- p[0]:
				default:
				}
			}
		}
	}()
	return ch, func() error { return terminal.Restore(fd, state) }, nil
}
