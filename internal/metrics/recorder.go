// Package metrics aggregates trial outcomes and presentation timing into
// Prometheus collectors. The battery is not a server, so the registry is
// written to a node-exporter style textfile at the end of a session.
package metrics

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"cogbattery/internal/engine"

	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cogbattery"

// Outcome labels.
const (
	OutcomeCorrect   = "correct"
	OutcomeIncorrect = "incorrect"
	OutcomeMissed    = "missed"
)

// Recorder implements engine.Observer on a private registry.
type Recorder struct {
	registry *prometheus.Registry
	trials   *prometheus.CounterVec
	rt       *prometheus.HistogramVec
	lateness *prometheus.HistogramVec
	tasks    *prometheus.CounterVec
}

var _ engine.Observer = (*Recorder)(nil)

// NewRecorder registers the battery collectors on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		trials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trials_total",
			Help:      "Presented trials by task, phase and outcome.",
		}, []string{"task", "phase", "outcome"}),
		rt: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "response_time_seconds",
			Help:      "Reaction time of answered trials.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 20),
		}, []string{"task", "phase"}),
		lateness: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "screen_lateness_seconds",
			Help:      "Actual minus intended on-screen duration.",
			Buckets:   []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1},
		}, []string{"screen"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Tasks finished by status.",
		}, []string{"task", "status"}),
	}
	r.registry.MustRegister(r.trials, r.rt, r.lateness, r.tasks)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveTrial counts the trial and records its RT when answered.
func (r *Recorder) ObserveTrial(_ context.Context, o engine.TrialOutcome) {
	phase := "main"
	if o.Practice {
		phase = "practice"
	}
	outcome := OutcomeIncorrect
	switch {
	case o.Missed:
		outcome = OutcomeMissed
	case o.Correct:
		outcome = OutcomeCorrect
	}
	r.trials.WithLabelValues(o.Task, phase, outcome).Inc()
	if !o.Missed {
		r.rt.WithLabelValues(o.Task, phase).Observe(o.RT.Seconds())
	}
}

// ObserveScreen records how late a timed screen ran. Early screens count as
// zero.
func (r *Recorder) ObserveScreen(_ context.Context, screen string, intended, actual time.Duration) {
	late := actual - intended
	if late < 0 {
		late = 0
	}
	r.lateness.WithLabelValues(screen).Observe(late.Seconds())
}

// ObserveTask counts a finished task; status is "completed" or "aborted".
func (r *Recorder) ObserveTask(task, status string) {
	r.tasks.WithLabelValues(task, status).Inc()
}

// WriteToTextfile writes the registry in text exposition format.
func (r *Recorder) WriteToTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return goerr.Wrap(err, "failed to create metrics directory", goerr.V("path", path))
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return goerr.Wrap(err, "failed to write metrics", goerr.V("path", path))
	}
	return nil
}
