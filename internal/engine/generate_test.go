package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
)

func TestProductOrder(t *testing.T) {
	got := Product([]int{2, 6}, []string{"present", "absent"}, func(n int, s string) string {
		return s + string(rune('0'+n))
	})
	gt.Equal(t, got, []string{"present2", "absent2", "present6", "absent6"})
}

func TestReplicate(t *testing.T) {
	gt.Equal(t, Replicate([]int{1, 2}, 3), []int{1, 2, 1, 2, 1, 2})
	gt.A(t, Replicate([]int{1, 2}, 0)).Length(0)
}

func TestShuffleKeepsElements(t *testing.T) {
	r := NewRand(42)
	items := Replicate([]int{1, 2, 3, 4}, 6)
	Shuffle(r, items)
	sorted := slices.Clone(items)
	slices.Sort(sorted)
	gt.Equal(t, sorted, []int{1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2, 3, 3, 3, 3, 3, 3, 4, 4, 4, 4, 4, 4})
}

func TestSampleDistinct(t *testing.T) {
	r := NewRand(7)
	universe := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	for i := 0; i < 200; i++ {
		got, err := Sample(r, universe, 6)
		gt.NoError(t, err)
		gt.A(t, got).Length(6)
		seen := map[int]bool{}
		for _, v := range got {
			gt.False(t, seen[v])
			seen[v] = true
		}
	}
	_, err := Sample(r, universe, 11)
	gt.Error(t, err)
}

func TestComplementAndChoice(t *testing.T) {
	r := NewRand(1)
	universe := []int{0, 1, 2, 3, 4}
	comp := Complement(universe, []int{3, 1})
	gt.Equal(t, comp, []int{0, 2, 4})

	for i := 0; i < 50; i++ {
		v, err := Choice(r, comp)
		gt.NoError(t, err)
		gt.True(t, slices.Contains(comp, v))
	}
	_, err := Choice(r, Complement(universe, universe))
	gt.Error(t, err)
}

func TestNewRandDeterministic(t *testing.T) {
	a, b := NewRand(99), NewRand(99)
	for i := 0; i < 10; i++ {
		gt.Equal(t, a.IntN(1000), b.IntN(1000))
	}
	seed, err := NewSeed()
	gt.NoError(t, err)
	_ = NewRand(seed)
}

func TestScreenTraceStreamsJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewScreenTrace(&buf)
	tr.Record(ScreenTraceEntry{Screen: "probe", IntendedMS: 2500, ActualMS: 2501.5, StartedAt: time.Unix(0, 0).UTC()})

	var decoded ScreenTraceEntry
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	gt.Equal(t, decoded.Screen, "probe")
	gt.Equal(t, decoded.LatenessMS(), 1.5)

	var nilTrace *ScreenTrace
	nilTrace.Record(ScreenTraceEntry{})
	gt.A(t, nilTrace.Entries()).Length(0)
}

type failingWriter struct{ writes int }

func (w *failingWriter) Write([]byte) (int, error) {
	w.writes++
	return 0, errors.New("disk full")
}

func TestScreenTraceKeepsFirstWriteError(t *testing.T) {
	w := &failingWriter{}
	tr := NewScreenTrace(w)
	gt.NoError(t, tr.Err())

	tr.Record(ScreenTraceEntry{Screen: "fixation"})
	tr.Record(ScreenTraceEntry{Screen: "stimulus"})
	gt.Error(t, tr.Err())
	gt.True(t, strings.Contains(tr.Err().Error(), "failed to write screen trace"))
	gt.Equal(t, w.writes, 1)
	gt.A(t, tr.Entries()).Length(2)

	var nilTrace *ScreenTrace
	gt.NoError(t, nilTrace.Err())
}
