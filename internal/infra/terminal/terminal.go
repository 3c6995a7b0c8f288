// Package terminal is the tcell display and keyboard driver.
package terminal

import (
	"cogbattery/internal/screen"

	"github.com/gdamore/tcell/v2"
	"github.com/m-mizutani/goerr/v2"
)

// WindowOptions mirrors the task window settings. In fullscreen mode the
// window covers the whole terminal; otherwise it is Width x Height cells,
// centred, with a frame unless Borderless is set.
type WindowOptions struct {
	Fullscreen bool
	Borderless bool
	Width      int
	Height     int
}

// Terminal drives a tcell screen. It implements screen.Device.
type Terminal struct {
	tty     tcell.Screen
	opts    WindowOptions
	pending *screen.Surface
}

// OpenTerminal initialises the controlling terminal.
func OpenTerminal(opts WindowOptions) (*Terminal, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create terminal screen")
	}
	return NewTerminal(s, opts)
}

// NewTerminal wraps an existing tcell screen, initialising it.
func NewTerminal(s tcell.Screen, opts WindowOptions) (*Terminal, error) {
	if err := s.Init(); err != nil {
		return nil, goerr.Wrap(err, "failed to initialise terminal screen")
	}
	s.HideCursor()
	s.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack))
	s.Clear()
	return &Terminal{tty: s, opts: opts}, nil
}

// Close restores the terminal.
func (t *Terminal) Close() {
	t.tty.Fini()
}

// Size returns the task window size in cells.
func (t *Terminal) Size() (int, int) {
	if t.opts.Fullscreen {
		return t.tty.Size()
	}
	return t.opts.Width, t.opts.Height
}

// SetCaption sets the terminal title, where supported.
func (t *Terminal) SetCaption(title string) {
	t.tty.SetTitle(title)
}

// Blit stages a frame for the next Flip.
func (t *Terminal) Blit(frame *screen.Surface) {
	t.pending = frame.Clone()
}

// Flip draws the staged frame and makes it visible.
func (t *Terminal) Flip() {
	if t.pending == nil {
		return
	}
	ox, oy := t.origin()
	w, h := t.pending.Size()
	if !t.opts.Fullscreen && !t.opts.Borderless {
		t.drawFrame(ox-1, oy-1, w+2, h+2)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := t.pending.At(x, y)
			r := c.Rune
			if r == 0 {
				r = ' '
			}
			t.tty.SetContent(ox+x, oy+y, r, nil, cellStyle(c))
		}
	}
	t.tty.Show()
}

func (t *Terminal) origin() (int, int) {
	if t.opts.Fullscreen {
		return 0, 0
	}
	tw, th := t.tty.Size()
	ox := (tw - t.opts.Width) / 2
	oy := (th - t.opts.Height) / 2
	if ox < 0 {
		ox = 0
	}
	if oy < 0 {
		oy = 0
	}
	return ox, oy
}

func (t *Terminal) drawFrame(x, y, w, h int) {
	style := tcell.StyleDefault.Foreground(tcell.ColorGray).Background(tcell.ColorBlack)
	for i := 1; i < w-1; i++ {
		t.tty.SetContent(x+i, y, tcell.RuneHLine, nil, style)
		t.tty.SetContent(x+i, y+h-1, tcell.RuneHLine, nil, style)
	}
	for j := 1; j < h-1; j++ {
		t.tty.SetContent(x, y+j, tcell.RuneVLine, nil, style)
		t.tty.SetContent(x+w-1, y+j, tcell.RuneVLine, nil, style)
	}
	t.tty.SetContent(x, y, tcell.RuneULCorner, nil, style)
	t.tty.SetContent(x+w-1, y, tcell.RuneURCorner, nil, style)
	t.tty.SetContent(x, y+h-1, tcell.RuneLLCorner, nil, style)
	t.tty.SetContent(x+w-1, y+h-1, tcell.RuneLRCorner, nil, style)
}

// Poll returns the next queued key without blocking.
func (t *Terminal) Poll() (screen.Key, bool) {
	for t.tty.HasPendingEvent() {
		switch ev := t.tty.PollEvent().(type) {
		case nil:
			return screen.KeyOther, false
		case *tcell.EventResize:
			t.tty.Sync()
		case *tcell.EventKey:
			return mapKey(ev), true
		}
	}
	return screen.KeyOther, false
}

// Clear drops every queued event.
func (t *Terminal) Clear() {
	for t.tty.HasPendingEvent() {
		if t.tty.PollEvent() == nil {
			return
		}
	}
}

func mapKey(ev *tcell.EventKey) screen.Key {
	switch ev.Key() {
	case tcell.KeyLeft:
		return screen.KeyLeft
	case tcell.KeyRight:
		return screen.KeyRight
	case tcell.KeyEscape:
		return screen.KeyEscape
	case tcell.KeyF12, tcell.KeyCtrlC:
		return screen.KeyAbort
	case tcell.KeyRune:
		if ev.Rune() == ' ' {
			return screen.KeySpace
		}
	}
	return screen.KeyOther
}

func cellStyle(c screen.Cell) tcell.Style {
	return tcell.StyleDefault.
		Foreground(tcellColor(c.FG)).
		Background(tcellColor(c.BG)).
		Bold(c.Bold)
}

func tcellColor(c screen.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
