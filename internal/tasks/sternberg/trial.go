package sternberg

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"cogbattery/pkg/domain"
)

// ErrSetSize is returned when a set size leaves no digits for an absent probe.
var ErrSetSize = errors.New("set size must be smaller than the stimulus universe")

// Columns is the fixed output schema.
var Columns = []string{"trialNum", "block", "setSize", "probeType", "set", "probe", "response", "RT", "correct"}

// Condition is one combination of independent-variable levels.
type Condition struct {
	SetSize   int
	ProbeType string
}

// Trial is one row of the result. Response, RT and Correct stay zero until the
// trial has been presented.
type Trial struct {
	TrialNum  int
	Block     string
	SetSize   int
	ProbeType string
	Set       string
	Probe     string
	Response  string
	RT        int
	Correct   int
}

// Digits returns the stimulus sequence in presentation order.
func (t Trial) Digits() []string {
	return strings.Split(t.Set, "")
}

func (t Trial) record() []any {
	return []any{t.TrialNum, t.Block, t.SetSize, t.ProbeType, t.Set, t.Probe, t.Response, t.RT, t.Correct}
}

// Result is the finalized output of one run. Main holds the main blocks in
// generation order, numbered 1..N; Practice is numbered on its own.
type Result struct {
	Practice    []Trial
	Main        []Trial
	CompletedAt time.Time
}

// TaskResult converts the result into exporter tables.
func (r Result) TaskResult() domain.TaskResult {
	return domain.TaskResult{
		Task:        Name,
		Sheet:       Sheet,
		Main:        toTable(Sheet, r.Main),
		Practice:    toTable(Sheet+" practice", r.Practice),
		CompletedAt: r.CompletedAt,
	}
}

func toTable(name string, trials []Trial) domain.Table {
	rows := make([][]any, 0, len(trials))
	for _, t := range trials {
		rows = append(rows, t.record())
	}
	return domain.Table{Name: name, Columns: Columns, Rows: rows}
}

// number concatenates blocks in order and assigns dense trial numbers,
// overwriting any per-block numbering.
func number(blocks ...[]Trial) []Trial {
	var out []Trial
	for _, b := range blocks {
		out = append(out, b...)
	}
	for i := range out {
		out[i].TrialNum = i + 1
	}
	return out
}

func formatSet(digits []int) string {
	var sb strings.Builder
	for _, d := range digits {
		sb.WriteString(strconv.Itoa(d))
	}
	return sb.String()
}
