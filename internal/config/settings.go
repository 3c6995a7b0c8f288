// Package config loads the battery settings. Settings are read once at
// startup and passed explicitly into the runner and every task constructor.
//
// Precedence, lowest first: built-in defaults, the YAML settings file,
// COGBATTERY_* environment variables, command-line flags (applied by the CLI).
package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "COGBATTERY_"

// DefaultFile is the settings file created on first run.
const DefaultFile = "battery_settings.yaml"

// Window controls how the task display is mapped onto the terminal. Width and
// Height are in character cells and ignored when Fullscreen is set.
type Window struct {
	Fullscreen bool `yaml:"fullscreen" env:"FULLSCREEN"`
	Borderless bool `yaml:"borderless" env:"BORDERLESS"`
	Width      int  `yaml:"width" env:"WIDTH"`
	Height     int  `yaml:"height" env:"HEIGHT"`
}

// Sternberg holds the per-task repetition counts.
type Sternberg struct {
	Blocks        int  `yaml:"blocks" env:"BLOCKS"`
	PracticeReps  int  `yaml:"practice_reps" env:"PRACTICE_REPS"`
	BlockReps     int  `yaml:"block_reps" env:"BLOCK_REPS"`
	RunMainBlocks bool `yaml:"run_main_blocks" env:"RUN_MAIN_BLOCKS"`
}

// S3 configures the S3 / MinIO archive driver. Credentials fall back to the
// default AWS chain when empty.
type S3 struct {
	Bucket          string `yaml:"bucket" env:"BUCKET"`
	Region          string `yaml:"region" env:"REGION"`
	Endpoint        string `yaml:"endpoint" env:"ENDPOINT"`
	PathStyle       bool   `yaml:"path_style" env:"PATH_STYLE"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" env:"ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" env:"SECRET_ACCESS_KEY"`
}

// Archive selects where finished sessions are copied.
//
//	driver: none|fs|s3|memory (default fs)
type Archive struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	FSRoot string `yaml:"fs_root" env:"FS_ROOT"`
	S3     S3     `yaml:"s3" envPrefix:"S3_"`
}

// Store selects the session store.
//
//	driver: none|sqlite|postgres|memory (default sqlite)
type Store struct {
	Driver      string `yaml:"driver" env:"DRIVER"`
	SQLitePath  string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	PostgresDSN string `yaml:"postgres_dsn,omitempty" env:"POSTGRES_DSN"`
}

// Logging controls the JSON log file. Trials enables the per-trial debug
// scope.
type Logging struct {
	Level  string `yaml:"level" env:"LEVEL"`
	File   string `yaml:"file" env:"FILE"`
	Trials bool   `yaml:"trials" env:"TRIALS"`
}

// Settings is the complete battery configuration.
type Settings struct {
	Window      Window    `yaml:"task_windows" envPrefix:"WINDOW_"`
	Sternberg   Sternberg `yaml:"sternberg" envPrefix:"STERNBERG_"`
	DataDir     string    `yaml:"data_dir" env:"DATA_DIR"`
	MetricsFile string    `yaml:"metrics_file" env:"METRICS_FILE"`
	Archive     Archive   `yaml:"archive" envPrefix:"ARCHIVE_"`
	Store       Store     `yaml:"store" envPrefix:"STORE_"`
	Logging     Logging   `yaml:"logging" envPrefix:"LOGGING_"`
}

// Defaults returns the settings written on first run.
func Defaults() Settings {
	return Settings{
		Window: Window{Width: 100, Height: 30},
		Sternberg: Sternberg{
			Blocks:        2,
			PracticeReps:  6,
			BlockReps:     12,
			RunMainBlocks: true,
		},
		DataDir: "data",
		Archive: Archive{Driver: "fs", FSRoot: filepath.Join("data", "archive"), S3: S3{Region: "us-east-1"}},
		Store:   Store{Driver: "sqlite", SQLitePath: filepath.Join("data", "sessions.db")},
		Logging: Logging{Level: "info", File: filepath.Join("data", "cogbattery.log")},
	}
}

// Load reads the settings file at path, creating it with defaults when it
// does not exist, then applies environment overrides and validates.
func Load(path string) (Settings, error) {
	s := Defaults()
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := Save(path, s); err != nil {
			return Settings{}, err
		}
	case err != nil:
		return Settings{}, goerr.Wrap(err, "failed to read settings", goerr.V("path", path))
	default:
		if err := yaml.Unmarshal(b, &s); err != nil {
			return Settings{}, goerr.Wrap(err, "failed to parse settings", goerr.V("path", path))
		}
	}

	if err := s.ApplyEnv(); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ApplyEnv overrides fields from COGBATTERY_* variables. Unset variables
// leave the current value alone.
func (s *Settings) ApplyEnv() error {
	if err := env.ParseWithOptions(s, env.Options{Prefix: EnvPrefix}); err != nil {
		return goerr.Wrap(err, "failed to parse environment overrides")
	}
	return nil
}

// Save writes s as YAML, creating parent directories.
func Save(path string, s Settings) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return goerr.Wrap(err, "failed to encode settings")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return goerr.Wrap(err, "failed to create settings directory", goerr.V("dir", dir))
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return goerr.Wrap(err, "failed to write settings", goerr.V("path", path))
	}
	return nil
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid settings")

// Validate checks ranges and driver names.
func (s Settings) Validate() error {
	if !s.Window.Fullscreen && (s.Window.Width <= 0 || s.Window.Height <= 0) {
		return goerr.Wrap(ErrInvalid, "window size must be positive",
			goerr.V("width", s.Window.Width), goerr.V("height", s.Window.Height))
	}
	if s.Sternberg.Blocks < 0 {
		return goerr.Wrap(ErrInvalid, "sternberg blocks must not be negative", goerr.V("blocks", s.Sternberg.Blocks))
	}
	if s.Sternberg.PracticeReps < 1 || s.Sternberg.BlockReps < 1 {
		return goerr.Wrap(ErrInvalid, "sternberg repetitions must be at least 1",
			goerr.V("practice_reps", s.Sternberg.PracticeReps), goerr.V("block_reps", s.Sternberg.BlockReps))
	}
	if s.DataDir == "" {
		return goerr.Wrap(ErrInvalid, "data_dir is required")
	}
	switch s.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return goerr.Wrap(ErrInvalid, "unknown log level", goerr.V("level", s.Logging.Level))
	}
	switch s.Archive.Driver {
	case "", "none", "fs", "memory":
	case "s3":
		if s.Archive.S3.Bucket == "" {
			return goerr.Wrap(ErrInvalid, "archive.s3.bucket is required for the s3 driver")
		}
	default:
		return goerr.Wrap(ErrInvalid, "unknown archive driver", goerr.V("driver", s.Archive.Driver))
	}
	switch s.Store.Driver {
	case "", "none", "sqlite", "memory":
	case "postgres":
		if s.Store.PostgresDSN == "" {
			return goerr.Wrap(ErrInvalid, "store.postgres_dsn is required for the postgres driver")
		}
	default:
		return goerr.Wrap(ErrInvalid, "unknown store driver", goerr.V("driver", s.Store.Driver))
	}
	return nil
}
