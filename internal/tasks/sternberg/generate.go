package sternberg

import (
	"math/rand/v2"
	"strconv"

	"cogbattery/internal/engine"

	"github.com/m-mizutani/goerr/v2"
)

// Conditions is the full factorial of set sizes and probe types.
func (c Config) Conditions() []Condition {
	return engine.Product(c.SetSizes, c.ProbeTypes, func(size int, pt string) Condition {
		return Condition{SetSize: size, ProbeType: pt}
	})
}

// GenerateBlock replicates the condition set reps times, shuffles the order
// and fills in the stimulus content of each trial.
func GenerateBlock(r *rand.Rand, universe []int, conds []Condition, reps int, block string) ([]Trial, error) {
	order := engine.Replicate(conds, reps)
	engine.Shuffle(r, order)

	trials := make([]Trial, 0, len(order))
	for _, cond := range order {
		t, err := generateTrial(r, universe, cond)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to generate trial", goerr.V("block", block))
		}
		t.Block = block
		trials = append(trials, t)
	}
	return trials, nil
}

func generateTrial(r *rand.Rand, universe []int, cond Condition) (Trial, error) {
	if cond.SetSize >= len(universe) {
		return Trial{}, goerr.Wrap(ErrSetSize, "cannot draw an absent probe",
			goerr.V("set_size", cond.SetSize))
	}
	set, err := engine.Sample(r, universe, cond.SetSize)
	if err != nil {
		return Trial{}, err
	}

	pool := set
	if cond.ProbeType == ProbeAbsent {
		pool = engine.Complement(universe, set)
	}
	probe, err := engine.Choice(r, pool)
	if err != nil {
		return Trial{}, goerr.Wrap(err, "failed to pick probe", goerr.V("probe_type", cond.ProbeType))
	}

	return Trial{
		SetSize:   cond.SetSize,
		ProbeType: cond.ProbeType,
		Set:       formatSet(set),
		Probe:     strconv.Itoa(probe),
	}, nil
}
