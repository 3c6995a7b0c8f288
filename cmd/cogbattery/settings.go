package main

import (
	"context"

	"cogbattery/internal/config"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// settingsFlags override file and environment values for a single run.
func settingsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "data-dir", Usage: "Directory for workbooks"},
		&cli.BoolFlag{Name: "fullscreen", Usage: "Use the whole terminal"},
		&cli.IntFlag{Name: "width", Usage: "Task window width in cells"},
		&cli.IntFlag{Name: "height", Usage: "Task window height in cells"},
		&cli.IntFlag{Name: "sternberg-blocks", Usage: "Number of Sternberg main blocks"},
		&cli.StringFlag{Name: "archive", Usage: "Archive driver: none|fs|s3|memory"},
		&cli.StringFlag{Name: "store", Usage: "Session store driver: none|sqlite|postgres|memory"},
	}
}

// loadSettings reads the settings file named by the root flag and applies
// any command-line overrides that were set.
func loadSettings(cmd *cli.Command) (config.Settings, error) {
	s, err := config.Load(cmd.String("settings"))
	if err != nil {
		return config.Settings{}, err
	}
	if cmd.IsSet("data-dir") {
		s.DataDir = cmd.String("data-dir")
	}
	if cmd.IsSet("fullscreen") {
		s.Window.Fullscreen = cmd.Bool("fullscreen")
	}
	if cmd.IsSet("width") {
		s.Window.Width = cmd.Int("width")
	}
	if cmd.IsSet("height") {
		s.Window.Height = cmd.Int("height")
	}
	if cmd.IsSet("sternberg-blocks") {
		s.Sternberg.Blocks = cmd.Int("sternberg-blocks")
	}
	if cmd.IsSet("archive") {
		s.Archive.Driver = cmd.String("archive")
	}
	if cmd.IsSet("store") {
		s.Store.Driver = cmd.String("store")
	}
	if err := s.Validate(); err != nil {
		return config.Settings{}, err
	}
	return s, nil
}

func settingsCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Print the effective settings as YAML",
		Flags: settingsFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(d.stdout)
			enc.SetIndent(2)
			if err := enc.Encode(s); err != nil {
				return goerr.Wrap(err, "failed to encode settings")
			}
			return enc.Close()
		},
	}
}
