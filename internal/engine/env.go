package engine

import (
	"time"

	"cogbattery/internal/screen"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultPollInterval is the yield between iterations of every wait loop.
const DefaultPollInterval = time.Millisecond

// Env is what the battery hands to each task: the shared display and its
// background surface, the input queue, the clock and the observation hooks.
// The display and background are single-writer resources owned by the
// battery runner.
type Env struct {
	Display      screen.Display
	Input        screen.Input
	Background   *screen.Surface
	Clock        Clock
	Trace        *ScreenTrace
	Observer     Observer
	PollInterval time.Duration
}

// Validate checks the environment is usable and fills defaults.
func (e Env) Validate() (Env, error) {
	if e.Display == nil || e.Input == nil {
		return e, goerr.New("display and input are required")
	}
	if e.Background == nil {
		w, h := e.Display.Size()
		e.Background = screen.NewSurface(w, h)
	}
	dw, dh := e.Display.Size()
	bw, bh := e.Background.Size()
	if dw != bw || dh != bh {
		return e, goerr.Wrap(ErrSurfaceMismatch, "invalid task environment",
			goerr.V("display", [2]int{dw, dh}),
			goerr.V("background", [2]int{bw, bh}))
	}
	if e.Clock == nil {
		e.Clock = SystemClock{}
	}
	if e.Observer == nil {
		e.Observer = NopObserver{}
	}
	if e.PollInterval <= 0 {
		e.PollInterval = DefaultPollInterval
	}
	return e, nil
}

// Caption sets the window caption when the display supports one.
func (e Env) Caption(title string) {
	if c, ok := e.Display.(interface{ SetCaption(string) }); ok {
		c.SetCaption(title)
	}
}
