// Command cogbattery runs the cognitive task battery in a terminal and
// manages its settings and stored sessions.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cogbattery/internal/config"
	"cogbattery/internal/engine"
	"cogbattery/internal/infra/terminal"
	"cogbattery/internal/screen"

	"github.com/urfave/cli/v3"
)

// exitAborted is the conventional status for a run stopped by the operator.
const exitAborted = 130

// deps are the process-level collaborators swapped out in tests.
type deps struct {
	stdout     io.Writer
	openDevice func(config.Window) (screen.Device, func(), error)
	// clock is nil outside tests, which selects the system clock.
	clock engine.Clock
}

func openTerminal(w config.Window) (screen.Device, func(), error) {
	t, err := terminal.OpenTerminal(terminal.WindowOptions{
		Fullscreen: w.Fullscreen,
		Borderless: w.Borderless,
		Width:      w.Width,
		Height:     w.Height,
	})
	if err != nil {
		return nil, nil, err
	}
	return t, t.Close, nil
}

func newApp(d deps) *cli.Command {
	return &cli.Command{
		Name:   "cogbattery",
		Usage:  "Cognitive task battery",
		Writer: d.stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "settings",
				Value:   config.DefaultFile,
				Sources: cli.EnvVars("COGBATTERY_SETTINGS"),
				Usage:   "Settings file, created with defaults when missing",
			},
		},
		Commands: []*cli.Command{
			runCommand(d),
			settingsCommand(d),
			sessionsCommand(d),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(deps{stdout: os.Stdout, openDevice: openTerminal})
	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, engine.ErrAborted) {
			fmt.Fprintln(os.Stderr, "Session aborted")
			stop()
			os.Exit(exitAborted)
		}
		slog.Error("command failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
