// Package engine holds the trial machinery shared by every task: the timed
// presenter, the response collector, condition generation helpers and the
// cancellation path for the operator abort key.
package engine

import "time"

// Clock supplies monotonic time and the minimal yield used by wait loops.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock reads the process monotonic clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Stopwatch measures time elapsed since it was started.
type Stopwatch struct {
	clock Clock
	start time.Time
}

// StartStopwatch starts measuring now.
func StartStopwatch(c Clock) Stopwatch {
	return Stopwatch{clock: c, start: c.Now()}
}

// Started returns the wall-clock start instant.
func (s Stopwatch) Started() time.Time { return s.start }

// Elapsed returns the time since start.
func (s Stopwatch) Elapsed() time.Duration {
	d := s.clock.Now().Sub(s.start)
	if d < 0 {
		return 0
	}
	return d
}

// ElapsedMS returns the elapsed time in whole milliseconds.
func (s Stopwatch) ElapsedMS() int {
	return int(s.Elapsed().Milliseconds())
}
