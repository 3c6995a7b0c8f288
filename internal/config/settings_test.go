package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFile)

	s, err := Load(path)
	gt.NoError(t, err)
	gt.Equal(t, s, Defaults())

	_, err = os.Stat(path)
	gt.NoError(t, err)

	again, err := Load(path)
	gt.NoError(t, err)
	gt.Equal(t, again, s)
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	content := `task_windows:
  fullscreen: true
  borderless: true
sternberg:
  blocks: 3
  run_main_blocks: false
store:
  driver: memory
`
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	gt.NoError(t, err)
	gt.True(t, s.Window.Fullscreen)
	gt.True(t, s.Window.Borderless)
	gt.Equal(t, s.Window.Width, 100)
	gt.Equal(t, s.Sternberg.Blocks, 3)
	gt.Equal(t, s.Sternberg.BlockReps, 12)
	gt.False(t, s.Sternberg.RunMainBlocks)
	gt.Equal(t, s.Store.Driver, "memory")
	gt.Equal(t, s.Archive.Driver, "fs")
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	gt.NoError(t, os.WriteFile(path, []byte("sternberg: [1, 2"), 0o644))

	_, err := Load(path)
	gt.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	gt.NoError(t, Save(path, Defaults()))

	t.Setenv("COGBATTERY_STERNBERG_BLOCKS", "5")
	t.Setenv("COGBATTERY_WINDOW_WIDTH", "120")
	t.Setenv("COGBATTERY_ARCHIVE_DRIVER", "s3")
	t.Setenv("COGBATTERY_ARCHIVE_S3_BUCKET", "sessions")
	t.Setenv("COGBATTERY_DATA_DIR", "/srv/battery")
	t.Setenv("COGBATTERY_LOGGING_TRIALS", "true")

	s, err := Load(path)
	gt.NoError(t, err)
	gt.Equal(t, s.Sternberg.Blocks, 5)
	gt.Equal(t, s.Sternberg.PracticeReps, 6)
	gt.Equal(t, s.Window.Width, 120)
	gt.Equal(t, s.Window.Height, 30)
	gt.Equal(t, s.Archive.Driver, "s3")
	gt.Equal(t, s.Archive.S3.Bucket, "sessions")
	gt.Equal(t, s.Archive.S3.Region, "us-east-1")
	gt.Equal(t, s.DataDir, "/srv/battery")
	gt.True(t, s.Logging.Trials)
	gt.Equal(t, s.Logging.Level, "info")
}

func TestEnvParseError(t *testing.T) {
	t.Setenv("COGBATTERY_STERNBERG_BLOCKS", "many")
	s := Defaults()
	gt.Error(t, s.ApplyEnv())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		ok     bool
	}{
		{"defaults", func(*Settings) {}, true},
		{"fullscreen ignores size", func(s *Settings) { s.Window = Window{Fullscreen: true} }, true},
		{"zero width", func(s *Settings) { s.Window.Width = 0 }, false},
		{"negative blocks", func(s *Settings) { s.Sternberg.Blocks = -1 }, false},
		{"zero reps", func(s *Settings) { s.Sternberg.BlockReps = 0 }, false},
		{"missing data dir", func(s *Settings) { s.DataDir = "" }, false},
		{"s3 without bucket", func(s *Settings) { s.Archive.Driver = "s3" }, false},
		{"unknown archive", func(s *Settings) { s.Archive.Driver = "ftp" }, false},
		{"postgres without dsn", func(s *Settings) { s.Store.Driver = "postgres" }, false},
		{"unknown store", func(s *Settings) { s.Store.Driver = "mongo" }, false},
		{"unknown log level", func(s *Settings) { s.Logging.Level = "verbose" }, false},
		{"disabled drivers", func(s *Settings) { s.Store.Driver = "none"; s.Archive.Driver = "none" }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Defaults()
			tc.mutate(&s)
			err := s.Validate()
			if tc.ok {
				gt.NoError(t, err)
				return
			}
			gt.True(t, errors.Is(err, ErrInvalid))
		})
	}
}
