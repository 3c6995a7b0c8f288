package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"cogbattery/internal/archive"
	"cogbattery/internal/battery"
	"cogbattery/internal/engine"
	"cogbattery/internal/logging"
	"cogbattery/internal/metrics"
	"cogbattery/internal/persistence"
	"cogbattery/pkg/domain"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func runCommand(d deps) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "sub", Usage: "Subject number"},
		&cli.StringFlag{Name: "condition", Usage: "Condition number"},
		&cli.StringFlag{Name: "age", Usage: "Subject age"},
		&cli.StringFlag{Name: "sex", Usage: "Subject sex (male|female)"},
		&cli.StringFlag{Name: "ra", Usage: "Research assistant", Sources: cli.EnvVars("COGBATTERY_RA")},
		&cli.StringSliceFlag{Name: "task", Value: []string{"sternberg"}, Usage: "Task to run, repeatable"},
		&cli.BoolFlag{Name: "random-order", Usage: "Shuffle the task order"},
		&cli.Uint64Flag{Name: "seed", Usage: "Replay a session's trial order (0 draws a new seed)"},
		&cli.StringFlag{Name: "log-file", Usage: "JSON log file, '-' to discard"},
		&cli.StringFlag{Name: "log-level", Usage: "debug|info|warn|error"},
		&cli.BoolFlag{Name: "log-trials", Usage: "Log every trial"},
		&cli.StringFlag{Name: "trace-file", Usage: "Stream screen timings as JSON lines"},
	}
	return &cli.Command{
		Name:  "run",
		Usage: "Run a battery session in the terminal",
		Flags: append(flags, settingsFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSession(ctx, cmd, d)
		},
	}
}

func runSession(ctx context.Context, cmd *cli.Command, d deps) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet("log-file") {
		s.Logging.File = cmd.String("log-file")
	}
	if cmd.IsSet("log-level") {
		s.Logging.Level = cmd.String("log-level")
	}
	if cmd.Bool("log-trials") {
		s.Logging.Trials = true
	}

	logger, closer, err := logging.Open(s.Logging.File, s.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	ctx = ctxlog.With(ctx, logger)
	if s.Logging.Trials {
		ctx = ctxlog.EnableScope(ctx, engine.TrialScope)
	}

	req := battery.Request{
		Subject: domain.Subject{
			SubNum:    cmd.String("sub"),
			Condition: cmd.String("condition"),
			Age:       cmd.String("age"),
			Sex:       cmd.String("sex"),
			RA:        cmd.String("ra"),
			Tasks:     cmd.StringSlice("task"),
			Seed:      cmd.Uint64("seed"),
		},
		RandomOrder: cmd.Bool("random-order"),
	}
	// Reject the form before taking over the terminal.
	if err := req.Subject.Validate(); err != nil {
		return err
	}

	store, err := persistence.Open(ctx, s.Store)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}
	arch, err := archive.Open(ctx, s.Archive)
	if err != nil {
		return err
	}

	var traceOut io.Writer
	if path := cmd.String("trace-file"); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return goerr.Wrap(err, "failed to create trace directory", goerr.V("path", path))
		}
		f, err := os.Create(path)
		if err != nil {
			return goerr.Wrap(err, "failed to create trace file", goerr.V("path", path))
		}
		defer func() { _ = f.Close() }()
		traceOut = f
	}

	dev, closeDevice, err := d.openDevice(s.Window)
	if err != nil {
		return err
	}
	release := sync.OnceFunc(closeDevice)
	defer release()

	opts := []battery.Option{battery.WithMetrics(metrics.NewRecorder())}
	if store != nil {
		opts = append(opts, battery.WithStore(store))
	}
	if arch != nil {
		opts = append(opts, battery.WithArchive(arch))
	}
	trace := engine.NewScreenTrace(traceOut)
	env := engine.Env{Display: dev, Input: dev, Clock: d.clock, Trace: trace}
	runner, err := battery.NewRunner(s, env, opts...)
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx, req)
	release()
	if report.Workbook != "" {
		fmt.Fprintf(d.stdout, "Session %s: %d task(s) saved to %s\n",
			report.Subject.SessionID, len(report.Results), report.Workbook)
	}
	if report.Manifest != nil {
		fmt.Fprintf(d.stdout, "Archived %d object(s) under %s\n", len(report.Manifest.Objects), archive.SessionPrefix(report.Subject))
	}
	if err != nil {
		return err
	}
	return trace.Err()
}
