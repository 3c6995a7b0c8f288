package battery

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"time"

	"cogbattery/internal/archive"
	"cogbattery/internal/config"
	"cogbattery/internal/engine"
	"cogbattery/internal/export"
	"cogbattery/internal/metrics"
	"cogbattery/internal/screen"
	"cogbattery/pkg/domain"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

const (
	caption     = "Cognitive Battery"
	endText     = "End of Experiment"
	traceName   = "screen_trace.json"
	statusDone  = "completed"
	statusAbort = "aborted"
)

// Request is what the operator fills in before a session. Subject.Seed may
// be set to replay a previous session's trial order; zero draws a new seed.
type Request struct {
	Subject     domain.Subject
	RandomOrder bool
}

// Report describes a finished or aborted session.
type Report struct {
	Subject  domain.Subject
	Workbook string
	Results  []domain.TaskResult
	Aborted  bool
	Manifest *archive.Manifest
}

// Runner owns the display for the duration of a session.
type Runner struct {
	settings config.Settings
	env      engine.Env
	registry *Registry
	store    domain.SessionStore
	archive  archive.Store
	metrics  *metrics.Recorder
	now      func() time.Time
	newID    func() string
	newSeed  func() (uint64, error)
}

// Option configures a Runner.
type Option func(*Runner)

// WithRegistry replaces the built-in task registry.
func WithRegistry(r *Registry) Option { return func(x *Runner) { x.registry = r } }

// WithStore records sessions and task results in s.
func WithStore(s domain.SessionStore) Option { return func(x *Runner) { x.store = s } }

// WithArchive copies finished sessions to s.
func WithArchive(s archive.Store) Option { return func(x *Runner) { x.archive = s } }

// WithMetrics feeds trial and screen observations to m and writes it to the
// configured metrics file after the session.
func WithMetrics(m *metrics.Recorder) Option { return func(x *Runner) { x.metrics = m } }

// WithNow overrides the wall clock used for session timestamps.
func WithNow(now func() time.Time) Option { return func(x *Runner) { x.now = now } }

// WithIDGenerator overrides session id generation.
func WithIDGenerator(f func() string) Option { return func(x *Runner) { x.newID = f } }

// NewRunner validates env and builds a runner. The display and background in
// env are shared by every task of the session.
func NewRunner(settings config.Settings, env engine.Env, opts ...Option) (*Runner, error) {
	env, err := env.Validate()
	if err != nil {
		return nil, err
	}
	r := &Runner{
		settings: settings,
		env:      env,
		registry: DefaultRegistry(),
		now:      time.Now,
		newID:    uuid.NewString,
		newSeed:  engine.NewSeed,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics != nil {
		r.env.Observer = engine.Observers(r.env.Observer, r.metrics)
	}
	return r, nil
}

// Run validates the request, prepares the workbook and runs every selected
// task in order. An abort stops the session: the aborted task is not saved,
// earlier tasks already are, and the returned error wraps engine.ErrAborted
// alongside a populated Report.
func (r *Runner) Run(ctx context.Context, req Request) (Report, error) {
	subject := req.Subject
	if err := subject.Validate(); err != nil {
		return Report{}, err
	}

	entries := make([]Entry, 0, len(subject.Tasks))
	for _, name := range subject.Tasks {
		e, ok := r.registry.Lookup(name)
		if !ok {
			return Report{}, goerr.Wrap(ErrUnknownTask, "cannot start session", goerr.V("task", name))
		}
		entries = append(entries, e)
	}

	if subject.Seed == 0 {
		seed, err := r.newSeed()
		if err != nil {
			return Report{}, err
		}
		subject.Seed = seed
	}
	rng := engine.NewRand(subject.Seed)
	if req.RandomOrder {
		engine.Shuffle(rng, entries)
	}
	subject.Tasks = make([]string, len(entries))
	for i, e := range entries {
		subject.Tasks[i] = e.Name
	}
	subject.SessionID = r.newID()
	subject.StartedAt = r.now()

	wb, err := export.Create(export.PathFor(r.settings.DataDir, subject), subject)
	if err != nil {
		return Report{}, err
	}
	defer func() { _ = wb.Close() }()

	logger := ctxlog.From(ctx).With(
		slog.String("session_id", subject.SessionID),
		slog.String("sub_num", subject.SubNum),
		slog.String("condition", subject.Condition))
	ctx = ctxlog.With(ctx, logger)
	logger.Info("session started",
		slog.Any("tasks", subject.Tasks),
		slog.Uint64("seed", subject.Seed),
		slog.String("workbook", wb.Path()))

	if r.store != nil {
		if err := r.store.CreateSession(ctx, subject); err != nil {
			return Report{}, goerr.Wrap(err, "failed to record session")
		}
	}

	report := Report{Subject: subject, Workbook: wb.Path()}
	var runErr error
	for _, e := range entries {
		res, err := r.runTask(ctx, e, rng)
		if err != nil {
			if errors.Is(err, engine.ErrAborted) {
				report.Aborted = true
				r.observeTask(e.Name, statusAbort)
				logger.Warn("task aborted", slog.String("task", e.Name), slog.Any("error", err))
			}
			runErr = err
			break
		}
		if err := r.saveResult(ctx, wb, subject.SessionID, res); err != nil {
			return report, err
		}
		report.Results = append(report.Results, res)
		r.observeTask(e.Name, statusDone)
	}
	if runErr != nil && !report.Aborted {
		return report, runErr
	}

	if !report.Aborted {
		if err := r.endScreen(ctx); err != nil {
			if !errors.Is(err, engine.ErrAborted) {
				return report, err
			}
			logger.Warn("end screen interrupted", slog.Any("error", err))
		}
	}

	if r.archive != nil {
		// An interrupt cancels ctx; what was saved is still archived.
		m, err := r.publish(context.WithoutCancel(ctx), wb, subject, report.Results)
		switch {
		case err == nil:
			report.Manifest = &m
		case report.Aborted:
			logger.Error("failed to archive aborted session", slog.Any("error", err))
		default:
			return report, err
		}
	}
	if r.metrics != nil && r.settings.MetricsFile != "" {
		if err := r.metrics.WriteToTextfile(r.settings.MetricsFile); err != nil {
			logger.Warn("failed to write metrics", slog.Any("error", err))
		}
	}

	logger.Info("session finished",
		slog.Int("tasks_completed", len(report.Results)),
		slog.Bool("aborted", report.Aborted))
	if report.Aborted {
		return report, runErr
	}
	return report, nil
}

func (r *Runner) runTask(ctx context.Context, e Entry, rng *rand.Rand) (domain.TaskResult, error) {
	task, err := e.New(r.env, r.settings, rng)
	if err != nil {
		return domain.TaskResult{}, goerr.Wrap(err, "failed to build task", goerr.V("task", e.Name))
	}
	ctxlog.From(ctx).Info("task starting", slog.String("task", e.Name))
	return task.Run(ctx)
}

func (r *Runner) saveResult(ctx context.Context, wb *export.Workbook, sessionID string, res domain.TaskResult) error {
	if err := wb.AddResult(res); err != nil {
		return err
	}
	if r.store != nil {
		if err := r.store.AppendTaskResult(ctx, sessionID, res); err != nil {
			return goerr.Wrap(err, "failed to record task result", goerr.V("task", res.Task))
		}
	}
	ctxlog.From(ctx).Info("task saved", slog.String("task", res.Task), slog.Int("rows", res.Main.Len()))
	return nil
}

func (r *Runner) endScreen(ctx context.Context) error {
	r.env.Caption(caption)
	r.env.Background.Fill(screen.White)
	return engine.NewPresenter(r.env).Gate(ctx, "end-of-experiment", func(f *screen.Surface) {
		f.Text(endText, screen.Center, screen.Center, screen.Plain)
	})
}

func (r *Runner) publish(ctx context.Context, wb *export.Workbook, subject domain.Subject, results []domain.TaskResult) (archive.Manifest, error) {
	body, err := wb.Bytes()
	if err != nil {
		return archive.Manifest{}, err
	}
	artifacts := []archive.Artifact{{
		Name:        filepath.Base(wb.Path()),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Body:        body,
	}}
	for _, res := range results {
		rendered, err := export.MaterializeResult(res)
		if err != nil {
			return archive.Manifest{}, err
		}
		for _, x := range rendered {
			artifacts = append(artifacts, archive.Artifact{Name: x.Name, ContentType: x.ContentType, Body: x.Payload})
		}
	}
	if entries := r.env.Trace.Entries(); len(entries) > 0 {
		body, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return archive.Manifest{}, goerr.Wrap(err, "failed to encode screen trace")
		}
		artifacts = append(artifacts, archive.Artifact{Name: traceName, ContentType: "application/json", Body: body})
	}
	return archive.NewPublisher(r.archive).Publish(ctx, subject, artifacts)
}

func (r *Runner) observeTask(task, status string) {
	if r.metrics != nil {
		r.metrics.ObserveTask(task, status)
	}
}
