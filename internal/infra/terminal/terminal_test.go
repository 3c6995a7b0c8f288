package terminal

import (
	"testing"

	"cogbattery/internal/screen"

	"github.com/gdamore/tcell/v2"
	"github.com/m-mizutani/gt"
)

func newSimTerminal(t *testing.T, opts WindowOptions) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("")
	term, err := NewTerminal(sim, opts)
	gt.NoError(t, err)
	sim.SetSize(40, 12)
	t.Cleanup(term.Close)
	return term, sim
}

func simRune(sim tcell.SimulationScreen, x, y int) rune {
	cells, w, _ := sim.GetContents()
	c := cells[y*w+x]
	if len(c.Runes) == 0 {
		return ' '
	}
	return c.Runes[0]
}

func TestTerminalKeyMapping(t *testing.T) {
	term, sim := newSimTerminal(t, WindowOptions{Fullscreen: true})

	sim.InjectKey(tcell.KeyLeft, 0, tcell.ModNone)
	sim.InjectKey(tcell.KeyRune, ' ', tcell.ModNone)
	sim.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	sim.InjectKey(tcell.KeyF12, 0, tcell.ModNone)

	want := []screen.Key{screen.KeyLeft, screen.KeySpace, screen.KeyOther, screen.KeyAbort}
	for _, w := range want {
		k, ok := term.Poll()
		gt.True(t, ok)
		gt.Equal(t, k, w)
	}
	_, ok := term.Poll()
	gt.False(t, ok)
}

func TestTerminalClearDropsQueuedKeys(t *testing.T) {
	term, sim := newSimTerminal(t, WindowOptions{Fullscreen: true})

	sim.InjectKey(tcell.KeyRight, 0, tcell.ModNone)
	sim.InjectKey(tcell.KeyRight, 0, tcell.ModNone)
	term.Clear()

	_, ok := term.Poll()
	gt.False(t, ok)
}

func TestTerminalFlipWindowed(t *testing.T) {
	term, sim := newSimTerminal(t, WindowOptions{Width: 10, Height: 4})
	w, h := term.Size()
	gt.Equal(t, w, 10)
	gt.Equal(t, h, 4)

	frame := screen.NewSurface(w, h)
	frame.Text("7", screen.Center, screen.Center, screen.Style{FG: screen.Blue})
	term.Blit(frame)
	term.Flip()

	// window is centred in the 40x12 terminal: origin (15, 4)
	gt.Equal(t, simRune(sim, 15+4, 4+2), '7')
	gt.Equal(t, simRune(sim, 14, 3), tcell.RuneULCorner)
}

func TestTerminalFlipBorderless(t *testing.T) {
	term, sim := newSimTerminal(t, WindowOptions{Width: 10, Height: 4, Borderless: true})
	term.Blit(screen.NewSurface(10, 4))
	term.Flip()
	gt.Equal(t, simRune(sim, 14, 3), ' ')
}
