// Package sternberg implements the Sternberg memory-scanning task: the subject
// sees a short digit sequence, then decides whether a single probe digit was
// part of it.
package sternberg

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const (
	// Name is the caption and registry display name.
	Name = "Sternberg Task"
	// Sheet is the workbook sheet the main trials are written to.
	Sheet = "Sternberg"

	ProbePresent = "present"
	ProbeAbsent  = "absent"
)

// Timing holds the fixed screen durations of one task instance. Defaults are
// taken from Sternberg (1966).
type Timing struct {
	Stimulus    time.Duration
	BetweenStim time.Duration
	ProbeWarn   time.Duration
	Probe       time.Duration
	Feedback    time.Duration
	ITI         time.Duration
}

// DefaultTiming returns the published durations.
func DefaultTiming() Timing {
	return Timing{
		Stimulus:    1200 * time.Millisecond,
		BetweenStim: 250 * time.Millisecond,
		ProbeWarn:   2000 * time.Millisecond,
		Probe:       2500 * time.Millisecond,
		Feedback:    1000 * time.Millisecond,
		ITI:         750 * time.Millisecond,
	}
}

// Config is everything a task instance needs besides its environment.
type Config struct {
	Blocks        int
	PracticeReps  int
	BlockReps     int
	RunMainBlocks bool
	Universe      []int
	SetSizes      []int
	ProbeTypes    []string
	Timing        Timing
}

// DefaultConfig gives 24 practice trials and two main blocks of 48 trials.
func DefaultConfig() Config {
	return Config{
		Blocks:        2,
		PracticeReps:  6,
		BlockReps:     12,
		RunMainBlocks: true,
		Universe:      []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		SetSizes:      []int{2, 6},
		ProbeTypes:    []string{ProbePresent, ProbeAbsent},
		Timing:        DefaultTiming(),
	}
}

// Validate rejects configurations that cannot generate a trial list.
func (c Config) Validate() error {
	if c.Blocks < 0 {
		return goerr.New("block count must not be negative", goerr.V("blocks", c.Blocks))
	}
	if c.PracticeReps < 1 || c.BlockReps < 1 {
		return goerr.New("repetitions must be at least 1",
			goerr.V("practice_reps", c.PracticeReps),
			goerr.V("block_reps", c.BlockReps))
	}
	if len(c.SetSizes) == 0 || len(c.ProbeTypes) == 0 {
		return goerr.New("set sizes and probe types are required")
	}
	for _, size := range c.SetSizes {
		if size < 1 || size >= len(c.Universe) {
			return goerr.Wrap(ErrSetSize, "invalid set size",
				goerr.V("set_size", size),
				goerr.V("universe", len(c.Universe)))
		}
	}
	for _, pt := range c.ProbeTypes {
		if pt != ProbePresent && pt != ProbeAbsent {
			return goerr.New("unknown probe type", goerr.V("probe_type", pt))
		}
	}
	return nil
}
