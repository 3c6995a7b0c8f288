package archive_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cogbattery/internal/archive"
	"cogbattery/internal/config"
	"cogbattery/internal/infra/archive/memory"
	"cogbattery/pkg/domain"

	"github.com/m-mizutani/gt"
)

func testSubject() domain.Subject {
	return domain.Subject{
		SessionID: "5f0c",
		StartedAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		SubNum:    "7",
		Condition: "2",
		Age:       "21",
		Sex:       domain.SexFemale,
		RA:        "jk",
		Tasks:     []string{"sternberg"},
	}
}

func TestSessionPrefix(t *testing.T) {
	gt.Equal(t, archive.SessionPrefix(testSubject()), "sessions/7_2/5f0c/")
}

func TestPublishWritesArtifactsAndManifest(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := archive.NewPublisher(store)

	m, err := pub.Publish(ctx, testSubject(), []archive.Artifact{
		{Name: "7_2.xlsx", ContentType: "application/octet-stream", Body: []byte("xlsx")},
		{Name: "Sternberg.csv", ContentType: "text/csv", Body: []byte("trialNum\n1\n")},
	})
	gt.NoError(t, err)
	gt.Equal(t, m.SessionID, "5f0c")
	gt.A(t, m.Objects).Length(2)
	gt.Equal(t, m.Objects[1].Key, "sessions/7_2/5f0c/Sternberg.csv")
	gt.Equal(t, m.Objects[1].Metadata["sub-num"], "7")

	objs, err := store.List(ctx, "sessions/7_2/5f0c/")
	gt.NoError(t, err)
	gt.A(t, objs).Length(3)

	loaded, err := archive.LoadManifest(ctx, store, testSubject())
	gt.NoError(t, err)
	gt.Equal(t, loaded.SessionID, "5f0c")
	gt.Equal(t, loaded.Subject.RA, "jk")
	gt.A(t, loaded.Objects).Length(2)
}

func TestPublishRefusesToOverwrite(t *testing.T) {
	ctx := context.Background()
	pub := archive.NewPublisher(memory.New())
	arts := []archive.Artifact{{Name: "a.csv", Body: []byte("x")}}

	_, err := pub.Publish(ctx, testSubject(), arts)
	gt.NoError(t, err)
	_, err = pub.Publish(ctx, testSubject(), arts)
	gt.True(t, errors.Is(err, archive.ErrExists))
}

func TestLoadManifestMissing(t *testing.T) {
	_, err := archive.LoadManifest(context.Background(), memory.New(), testSubject())
	gt.True(t, errors.Is(err, archive.ErrNotFound))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := archive.Open(ctx, config.Archive{Driver: "none"})
	gt.NoError(t, err)
	gt.True(t, store == nil)

	store, err = archive.Open(ctx, config.Archive{Driver: "memory"})
	gt.NoError(t, err)
	gt.Equal(t, store.Driver(), archive.DriverMemory)

	store, err = archive.Open(ctx, config.Archive{Driver: "fs", FSRoot: t.TempDir()})
	gt.NoError(t, err)
	gt.Equal(t, store.Driver(), archive.DriverFilesystem)

	_, err = archive.Open(ctx, config.Archive{Driver: "s3"})
	gt.Error(t, err)

	_, err = archive.Open(ctx, config.Archive{Driver: "ftp"})
	gt.Error(t, err)
}
