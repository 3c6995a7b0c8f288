package engine

import (
	"encoding/json"
	"io"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// ScreenTraceEntry records one presented screen: how long it was meant to be
// up and how long it actually was.
type ScreenTraceEntry struct {
	Screen     string    `json:"screen"`
	IntendedMS float64   `json:"intended_ms"`
	ActualMS   float64   `json:"actual_ms"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// LatenessMS is actual minus intended duration.
func (e ScreenTraceEntry) LatenessMS() float64 { return e.ActualMS - e.IntendedMS }

// ScreenTrace retains presentation timings and optionally streams them as
// JSON lines. A nil *ScreenTrace is valid and records nothing.
type ScreenTrace struct {
	entries []ScreenTraceEntry
	enc     *json.Encoder
	err     error
}

// NewScreenTrace constructs a trace that writes entries to w when w is non-nil.
func NewScreenTrace(w io.Writer) *ScreenTrace {
	var enc *json.Encoder
	if w != nil {
		enc = json.NewEncoder(w)
	}
	return &ScreenTrace{enc: enc}
}

// Record appends an entry. Streaming stops at the first write error, which
// Err reports; entries are still kept in memory.
func (t *ScreenTrace) Record(entry ScreenTraceEntry) {
	if t == nil {
		return
	}
	t.entries = append(t.entries, entry)
	if t.enc != nil && t.err == nil {
		if err := t.enc.Encode(entry); err != nil {
			t.err = goerr.Wrap(err, "failed to write screen trace", goerr.V("screen", entry.Screen))
		}
	}
}

// Err returns the first error hit while streaming entries.
func (t *ScreenTrace) Err() error {
	if t == nil {
		return nil
	}
	return t.err
}

// Entries returns a copy of all recorded entries.
func (t *ScreenTrace) Entries() []ScreenTraceEntry {
	if t == nil {
		return nil
	}
	out := make([]ScreenTraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

func msOf(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
