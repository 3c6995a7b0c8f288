package engine

import (
	"context"
	"time"

	"cogbattery/internal/screen"
)

// ResponseKeys maps accepted keys to response categories.
type ResponseKeys map[screen.Key]string

// Response is the outcome of one response window. Value is empty when the
// deadline passed without a recognised key.
type Response struct {
	Value string
	RT    int
}

// Missed reports whether no recognised key arrived before the deadline.
func (r Response) Missed() bool { return r.Value == "" }

// Score returns 1 when the response matches the expected category exactly.
// A missed response never matches.
func (r Response) Score(expected string) int {
	if r.Value != "" && r.Value == expected {
		return 1
	}
	return 0
}

// Collector times response windows against the input queue.
type Collector struct {
	env Env
}

// NewCollector builds a collector over a validated Env.
func NewCollector(env Env) *Collector {
	return &Collector{env: env}
}

// Collect opens a response window: it records the start time, discards any
// queued input so earlier key presses cannot leak in, then polls until a
// recognised key arrives or the deadline elapses. RT is measured either way.
func (c *Collector) Collect(ctx context.Context, name string, keys ResponseKeys, deadline time.Duration) (Response, error) {
	sw := StartStopwatch(c.env.Clock)
	c.env.Input.Clear()

	var value string
wait:
	for {
		if err := ctx.Err(); err != nil {
			return Response{}, aborted(name, err.Error())
		}
		for {
			key, ok := c.env.Input.Poll()
			if !ok {
				break
			}
			if key == screen.KeyAbort {
				return Response{}, aborted(name, "abort key")
			}
			if v, ok := keys[key]; ok {
				value = v
				break wait
			}
		}
		if sw.Elapsed() >= deadline {
			break
		}
		c.env.Clock.Sleep(c.env.PollInterval)
	}

	rt := sw.ElapsedMS()
	actual := sw.Elapsed()
	c.env.Trace.Record(ScreenTraceEntry{
		Screen:     name,
		IntendedMS: msOf(deadline),
		ActualMS:   msOf(actual),
		StartedAt:  sw.Started(),
		EndedAt:    sw.Started().Add(actual),
	})
	return Response{Value: value, RT: rt}, nil
}
