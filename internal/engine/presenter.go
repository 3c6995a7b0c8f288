package engine

import (
	"context"
	"time"

	"cogbattery/internal/screen"
)

// Presenter shows full-screen stimuli and holds them for fixed durations.
// Every wait polls the input queue once per iteration so the abort key works
// from any screen.
type Presenter struct {
	env Env
}

// NewPresenter builds a presenter over a validated Env.
func NewPresenter(env Env) *Presenter {
	return &Presenter{env: env}
}

// Draw composes a frame on a copy of the background, blits it to the display
// and presents it.
func (p *Presenter) Draw(draw func(frame *screen.Surface)) {
	frame := p.env.Background.Clone()
	if draw != nil {
		draw(frame)
	}
	p.env.Display.Blit(frame)
	p.env.Display.Flip()
}

// Show draws a screen and holds it for d.
func (p *Presenter) Show(ctx context.Context, name string, d time.Duration, draw func(frame *screen.Surface)) error {
	p.Draw(draw)
	return p.Hold(ctx, name, d)
}

// Blank presents the bare background for d.
func (p *Presenter) Blank(ctx context.Context, d time.Duration) error {
	return p.Show(ctx, "blank", d, nil)
}

// Hold keeps the current screen up for d. Keys other than abort are consumed
// and ignored.
func (p *Presenter) Hold(ctx context.Context, name string, d time.Duration) error {
	sw := StartStopwatch(p.env.Clock)
	for sw.Elapsed() < d {
		if err := p.checkAbort(ctx, name); err != nil {
			return err
		}
		p.env.Clock.Sleep(p.env.PollInterval)
	}
	p.record(ctx, name, d, sw)
	return nil
}

// Gate draws a screen and waits, without a deadline, for the space key.
func (p *Presenter) Gate(ctx context.Context, name string, draw func(frame *screen.Surface)) error {
	p.Draw(draw)
	for {
		if err := ctx.Err(); err != nil {
			return aborted(name, err.Error())
		}
		for {
			key, ok := p.env.Input.Poll()
			if !ok {
				break
			}
			switch key {
			case screen.KeyAbort:
				return aborted(name, "abort key")
			case screen.KeySpace:
				return nil
			}
		}
		p.env.Clock.Sleep(p.env.PollInterval)
	}
}

func (p *Presenter) checkAbort(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return aborted(name, err.Error())
	}
	for {
		key, ok := p.env.Input.Poll()
		if !ok {
			return nil
		}
		if key == screen.KeyAbort {
			return aborted(name, "abort key")
		}
	}
}

func (p *Presenter) record(ctx context.Context, name string, intended time.Duration, sw Stopwatch) {
	actual := sw.Elapsed()
	p.env.Trace.Record(ScreenTraceEntry{
		Screen:     name,
		IntendedMS: msOf(intended),
		ActualMS:   msOf(actual),
		StartedAt:  sw.Started(),
		EndedAt:    sw.Started().Add(actual),
	})
	p.env.Observer.ObserveScreen(ctx, name, intended, actual)
}
