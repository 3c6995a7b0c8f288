package sternberg

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strconv"
	"time"

	"cogbattery/internal/engine"
	"cogbattery/internal/screen"
	"cogbattery/pkg/domain"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

var responseKeys = engine.ResponseKeys{
	screen.KeyLeft:  ProbePresent,
	screen.KeyRight: ProbeAbsent,
}

// Task is one Sternberg run. All trials are generated by New; Run presents
// them and returns the finalized result.
type Task struct {
	env       engine.Env
	cfg       Config
	presenter *engine.Presenter
	collector *engine.Collector
	practice  []Trial
	blocks    [][]Trial
}

// New validates the environment and configuration and generates the practice
// block and every main block up front.
func New(env engine.Env, cfg Config, r *rand.Rand) (*Task, error) {
	env, err := env.Validate()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid sternberg config")
	}

	conds := cfg.Conditions()
	practice, err := GenerateBlock(r, cfg.Universe, conds, cfg.PracticeReps, "")
	if err != nil {
		return nil, err
	}
	blocks := make([][]Trial, 0, cfg.Blocks)
	for i := 0; i < cfg.Blocks; i++ {
		b, err := GenerateBlock(r, cfg.Universe, conds, cfg.BlockReps, strconv.Itoa(i+1))
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}

	env.Background.Fill(screen.White)
	return &Task{
		env:       env,
		cfg:       cfg,
		presenter: engine.NewPresenter(env),
		collector: engine.NewCollector(env),
		practice:  practice,
		blocks:    blocks,
	}, nil
}

// Practice returns a copy of the generated practice block.
func (t *Task) Practice() []Trial { return slices.Clone(t.practice) }

// Blocks returns a copy of the generated main blocks.
func (t *Task) Blocks() [][]Trial {
	out := make([][]Trial, len(t.blocks))
	for i, b := range t.blocks {
		out[i] = slices.Clone(b)
	}
	return out
}

// Run presents the task and converts the result for the exporter.
func (t *Task) Run(ctx context.Context) (domain.TaskResult, error) {
	res, err := t.Present(ctx)
	if err != nil {
		return domain.TaskResult{}, err
	}
	return res.TaskResult(), nil
}

// Present walks the screens in order: instructions, practice, main blocks
// when enabled, end screen. A returned error wrapping engine.ErrAborted means
// the operator stopped the task and nothing is returned.
func (t *Task) Present(ctx context.Context) (Result, error) {
	logger := ctxlog.From(ctx)
	t.env.Caption(Name)
	logger.Info("task started",
		slog.String("task", Name),
		slog.Int("practice_trials", len(t.practice)),
		slog.Int("blocks", len(t.blocks)),
		slog.Bool("run_main_blocks", t.cfg.RunMainBlocks))

	if err := t.presenter.Gate(ctx, "instructions", drawInstructions); err != nil {
		return Result{}, err
	}
	if err := t.presenter.Gate(ctx, "practice-ready", drawReady(practiceReadyText)); err != nil {
		return Result{}, err
	}

	practice := slices.Clone(t.practice)
	if err := t.runBlock(ctx, practice, true); err != nil {
		return Result{}, err
	}

	var blocks [][]Trial
	if t.cfg.RunMainBlocks && len(t.blocks) > 0 {
		blocks = t.Blocks()
		if err := t.presenter.Gate(ctx, "main-ready", drawReady(mainReadyText)); err != nil {
			return Result{}, err
		}
		for i, b := range blocks {
			if err := t.runBlock(ctx, b, false); err != nil {
				return Result{}, err
			}
			logger.Info("block completed", slog.String("task", Name), slog.Int("block", i+1))
		}
	}

	if err := t.presenter.Gate(ctx, "end", drawReady(endText)); err != nil {
		return Result{}, err
	}

	res := Result{
		Practice:    number(practice),
		Main:        number(blocks...),
		CompletedAt: t.env.Clock.Now(),
	}
	logger.Info("task complete", slog.String("task", Name), slog.Int("rows", len(res.Main)))
	return res, nil
}

func (t *Task) runBlock(ctx context.Context, trials []Trial, practice bool) error {
	for i := range trials {
		if err := t.runTrial(ctx, &trials[i]); err != nil {
			return err
		}
		t.report(ctx, trials[i], practice)
	}
	return nil
}

func (t *Task) runTrial(ctx context.Context, trial *Trial) error {
	timing := t.cfg.Timing
	p := t.presenter

	p.Draw(nil)
	for _, digit := range trial.Digits() {
		if err := p.Show(ctx, "stimulus", timing.Stimulus, drawStimulus(digit)); err != nil {
			return err
		}
		if err := p.Blank(ctx, timing.BetweenStim); err != nil {
			return err
		}
	}

	if err := p.Show(ctx, "probe-warning", timing.ProbeWarn, drawProbeWarning); err != nil {
		return err
	}
	if err := p.Blank(ctx, timing.BetweenStim); err != nil {
		return err
	}

	p.Draw(drawProbe(trial.Probe))
	resp, err := t.collector.Collect(ctx, "probe", responseKeys, timing.Probe)
	if err != nil {
		return err
	}
	trial.Response = resp.Value
	trial.RT = resp.RT
	trial.Correct = resp.Score(trial.ProbeType)

	if err := p.Blank(ctx, timing.BetweenStim); err != nil {
		return err
	}
	if err := p.Show(ctx, "feedback", timing.Feedback, drawFeedback(trial.Correct == 1)); err != nil {
		return err
	}
	return p.Show(ctx, "iti", timing.ITI, nil)
}

func (t *Task) report(ctx context.Context, trial Trial, practice bool) {
	ctxlog.From(ctx, engine.TrialScope).Info("trial completed",
		slog.String("task", Name),
		slog.Bool("practice", practice),
		slog.String("block", trial.Block),
		slog.Int("set_size", trial.SetSize),
		slog.String("probe_type", trial.ProbeType),
		slog.String("set", trial.Set),
		slog.String("probe", trial.Probe),
		slog.String("response", trial.Response),
		slog.Int("rt", trial.RT),
		slog.Int("correct", trial.Correct))

	t.env.Observer.ObserveTrial(ctx, engine.TrialOutcome{
		Task:     Name,
		Block:    trial.Block,
		Practice: practice,
		Correct:  trial.Correct == 1,
		Missed:   trial.Response == "",
		RT:       time.Duration(trial.RT) * time.Millisecond,
	})
}
