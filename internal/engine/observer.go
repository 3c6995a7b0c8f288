package engine

import (
	"context"
	"time"
)

// TrialOutcome summarises one completed trial for metrics.
type TrialOutcome struct {
	Task     string
	Block    string
	Practice bool
	Correct  bool
	Missed   bool
	RT       time.Duration
}

// Observer receives per-trial and per-screen observations.
type Observer interface {
	ObserveTrial(ctx context.Context, outcome TrialOutcome)
	ObserveScreen(ctx context.Context, screen string, intended, actual time.Duration)
}

// NopObserver discards everything.
type NopObserver struct{}

func (NopObserver) ObserveTrial(context.Context, TrialOutcome)                          {}
func (NopObserver) ObserveScreen(context.Context, string, time.Duration, time.Duration) {}

type observers []Observer

// Observers fans observations out to every non-nil observer.
func Observers(list ...Observer) Observer {
	var out observers
	for _, o := range list {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (obs observers) ObserveTrial(ctx context.Context, outcome TrialOutcome) {
	for _, o := range obs {
		o.ObserveTrial(ctx, outcome)
	}
}

func (obs observers) ObserveScreen(ctx context.Context, screen string, intended, actual time.Duration) {
	for _, o := range obs {
		o.ObserveScreen(ctx, screen, intended, actual)
	}
}
