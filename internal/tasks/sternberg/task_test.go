package sternberg

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"cogbattery/internal/engine"
	"cogbattery/internal/engine/enginetest"
	"cogbattery/internal/screen"

	"github.com/m-mizutani/gt"
)

const spacePrompt = "(Press space to continue)"

// scriptedSubject answers the task by watching flipped frames: it presses
// space on every gate and responds to probes according to mode.
type scriptedSubject struct {
	dev          *enginetest.Device
	mode         string
	rt           time.Duration
	abortAtProbe int

	probes int
	seen   []string
}

func (s *scriptedSubject) onFlip(text string) {
	switch {
	case strings.Contains(text, spacePrompt):
		s.dev.Press(500*time.Millisecond, screen.KeySpace)
	case strings.Contains(text, "(yes)"):
		s.probes++
		probe, _, _ := strings.Cut(text, "|")
		seen := s.seen
		s.seen = nil
		if s.probes == s.abortAtProbe {
			s.dev.Press(100*time.Millisecond, screen.KeyAbort)
			return
		}
		present := slices.Contains(seen, probe)
		switch s.mode {
		case "miss":
		case "wrong":
			present = !present
			fallthrough
		default:
			key := screen.KeyRight
			if present {
				key = screen.KeyLeft
			}
			s.dev.Press(s.rt, key)
		}
	case len(text) == 1 && text[0] >= '0' && text[0] <= '9':
		s.seen = append(s.seen, text)
	}
}

type countingObserver struct {
	engine.NopObserver
	outcomes []engine.TrialOutcome
}

func (o *countingObserver) ObserveTrial(_ context.Context, outcome engine.TrialOutcome) {
	o.outcomes = append(o.outcomes, outcome)
}

func newTask(t *testing.T, cfg Config, mode string) (*Task, *scriptedSubject, *enginetest.Device, *countingObserver) {
	t.Helper()
	clock := enginetest.NewClock()
	dev := enginetest.NewDevice(clock, 60, 16)
	subj := &scriptedSubject{dev: dev, mode: mode, rt: 400 * time.Millisecond}
	dev.OnFlip = subj.onFlip
	obs := &countingObserver{}

	task, err := New(engine.Env{Display: dev, Input: dev, Clock: clock, Observer: obs}, cfg, engine.NewRand(42))
	gt.NoError(t, err)
	return task, subj, dev, obs
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.PracticeReps = 1
	cfg.BlockReps = 1
	cfg.Blocks = 1
	return cfg
}

func TestNewGeneratesAllBlocksUpFront(t *testing.T) {
	task, _, dev, _ := newTask(t, DefaultConfig(), "correct")

	practice := task.Practice()
	gt.A(t, practice).Length(24)
	for _, tr := range practice {
		gt.Equal(t, tr.Block, "")
	}
	blocks := task.Blocks()
	gt.A(t, blocks).Length(2)
	for i, b := range blocks {
		gt.A(t, b).Length(48)
		for _, tr := range b {
			gt.Equal(t, tr.Block, []string{"1", "2"}[i])
		}
	}
	gt.A(t, dev.Frames).Length(0)
}

func TestNewFailsOnImpossibleSetSize(t *testing.T) {
	clock := enginetest.NewClock()
	dev := enginetest.NewDevice(clock, 60, 16)
	cfg := DefaultConfig()
	cfg.SetSizes = []int{2, 10}

	_, err := New(engine.Env{Display: dev, Input: dev, Clock: clock}, cfg, engine.NewRand(1))
	gt.True(t, errors.Is(err, ErrSetSize))
}

func TestPresentThreeBlocks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Blocks = 3
	task, _, _, obs := newTask(t, cfg, "correct")
	generated := task.Blocks()

	res, err := task.Present(context.Background())
	gt.NoError(t, err)

	gt.A(t, res.Main).Length(144)
	for i, tr := range res.Main {
		gt.Equal(t, tr.TrialNum, i+1)
		src := generated[i/48][i%48]
		gt.Equal(t, tr.Block, src.Block)
		gt.Equal(t, tr.Set, src.Set)
		gt.Equal(t, tr.Probe, src.Probe)
		gt.Equal(t, tr.Response, tr.ProbeType)
		gt.Equal(t, tr.Correct, 1)
		gt.Equal(t, tr.RT, 400)
	}
	gt.Equal(t, res.Main[0].Block, "1")
	gt.Equal(t, res.Main[48].Block, "2")
	gt.Equal(t, res.Main[143].Block, "3")

	gt.A(t, res.Practice).Length(24)
	for i, tr := range res.Practice {
		gt.Equal(t, tr.TrialNum, i+1)
		gt.Equal(t, tr.Block, "")
	}

	gt.A(t, obs.outcomes).Length(168)
	gt.True(t, obs.outcomes[0].Practice)
	gt.False(t, obs.outcomes[24].Practice)

	// generated blocks are left untouched
	gt.Equal(t, task.Blocks()[0][0].Response, "")
}

func TestPresentMissedTrials(t *testing.T) {
	task, _, _, obs := newTask(t, smallConfig(), "miss")

	res, err := task.Present(context.Background())
	gt.NoError(t, err)
	gt.A(t, res.Main).Length(4)
	for _, tr := range append(res.Practice, res.Main...) {
		gt.Equal(t, tr.Response, "")
		gt.Equal(t, tr.RT, 2500)
		gt.Equal(t, tr.Correct, 0)
	}
	for _, o := range obs.outcomes {
		gt.True(t, o.Missed)
		gt.False(t, o.Correct)
	}
}

func TestPresentWrongResponses(t *testing.T) {
	task, _, _, _ := newTask(t, smallConfig(), "wrong")

	res, err := task.Present(context.Background())
	gt.NoError(t, err)
	for _, tr := range res.Main {
		gt.True(t, tr.Response != "")
		gt.True(t, tr.Response != tr.ProbeType)
		gt.Equal(t, tr.Correct, 0)
		gt.N(t, tr.RT).GreaterOrEqual(0)
	}
}

func TestPresentWithoutMainBlocks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PracticeReps = 1
	cfg.RunMainBlocks = false
	task, _, dev, obs := newTask(t, cfg, "correct")

	res, err := task.Present(context.Background())
	gt.NoError(t, err)

	gt.A(t, res.Main).Length(0)
	gt.A(t, task.Blocks()).Length(2)
	gt.A(t, obs.outcomes).Length(4)
	for _, s := range dev.Screens() {
		gt.False(t, strings.Contains(s, mainReadyText))
	}
}

func TestPresentTrialScreenSequence(t *testing.T) {
	cfg := smallConfig()
	cfg.Blocks = 0
	task, _, dev, _ := newTask(t, cfg, "correct")
	first := task.Practice()[0]

	_, err := task.Present(context.Background())
	gt.NoError(t, err)

	screens := dev.Screens()
	gt.True(t, strings.HasPrefix(screens[0], "You will see a sequence"))
	gt.True(t, strings.HasPrefix(screens[1], "We will begin with some practice"))

	want := []string{""}
	for _, d := range first.Digits() {
		want = append(want, d, "")
	}
	want = append(want, probeWarningText, "")
	gt.Equal(t, screens[2:2+len(want)], want)

	rest := screens[2+len(want):]
	gt.True(t, strings.HasPrefix(rest[0], first.Probe+"|(yes)"))
	gt.True(t, strings.HasSuffix(rest[0], "(no)"))
	gt.Equal(t, rest[1:4], []string{"", "correct", ""})

	gt.True(t, strings.HasPrefix(screens[len(screens)-1], endText))
	gt.Equal(t, dev.Caption, Name)
}

func TestPresentFeedbackColour(t *testing.T) {
	cfg := smallConfig()
	cfg.Blocks = 0
	task, _, dev, _ := newTask(t, cfg, "wrong")

	_, err := task.Present(context.Background())
	gt.NoError(t, err)

	var found bool
	for _, f := range dev.Frames {
		if enginetest.FrameText(f) != "incorrect" {
			continue
		}
		found = true
		w, h := f.Size()
		cell := f.At((w-len("incorrect"))/2, h/2)
		gt.Equal(t, cell.Rune, 'i')
		gt.Equal(t, cell.FG, screen.Red)
		gt.Equal(t, cell.BG, screen.White)
	}
	gt.True(t, found)
}

func TestPresentAbort(t *testing.T) {
	task, subj, _, obs := newTask(t, smallConfig(), "correct")
	subj.abortAtProbe = 3

	res, err := task.Present(context.Background())
	gt.True(t, errors.Is(err, engine.ErrAborted))
	gt.A(t, res.Main).Length(0)
	gt.A(t, obs.outcomes).Length(2)
}

func TestPresentCancelledContext(t *testing.T) {
	task, _, _, _ := newTask(t, smallConfig(), "correct")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := task.Run(ctx)
	gt.True(t, errors.Is(err, engine.ErrAborted))
}

func TestRunReturnsTables(t *testing.T) {
	task, _, _, _ := newTask(t, smallConfig(), "correct")

	res, err := task.Run(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, res.Task, Name)
	gt.Equal(t, res.Sheet, Sheet)
	gt.Equal(t, res.Main.Name, "Sternberg")
	gt.Equal(t, res.Main.Columns, Columns)
	gt.Equal(t, res.Main.Len(), 4)
	gt.Equal(t, res.Practice.Name, "Sternberg practice")
	gt.Equal(t, res.Practice.Len(), 4)
	gt.A(t, res.Tables()).Length(2)

	rec := res.Main.Records()[0]
	gt.Equal(t, rec["trialNum"], any(1))
	gt.Equal(t, rec["block"], any("1"))
	gt.Equal(t, rec["correct"], any(1))
	gt.Equal(t, rec["RT"], any(400))
	gt.False(t, res.CompletedAt.IsZero())
}
