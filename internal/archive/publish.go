package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path"
	"time"

	"cogbattery/pkg/domain"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Artifact is one file produced for a session.
type Artifact struct {
	Name        string
	ContentType string
	Body        []byte
}

// Manifest is written last under a session prefix and lists every artifact.
type Manifest struct {
	SessionID   string         `json:"session_id"`
	Subject     domain.Subject `json:"subject"`
	PublishedAt time.Time      `json:"published_at"`
	Objects     []Object       `json:"objects"`
}

// ManifestName is the manifest's file name within a session prefix.
const ManifestName = "manifest.json"

// SessionPrefix is the key prefix for a subject's session:
// sessions/<sub>_<condition>/<session-id>/.
func SessionPrefix(subject domain.Subject) string {
	return path.Join("sessions", subject.FileStem(), subject.SessionID) + "/"
}

// Publisher writes session artifacts to a Store.
type Publisher struct {
	store Store
	now   func() time.Time
}

// NewPublisher returns a publisher over store.
func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Publish stores each artifact under the session prefix, then the manifest.
// Existing keys are never overwritten.
func (p *Publisher) Publish(ctx context.Context, subject domain.Subject, artifacts []Artifact) (Manifest, error) {
	prefix := SessionPrefix(subject)
	meta := map[string]string{
		"session-id": subject.SessionID,
		"sub-num":    subject.SubNum,
		"condition":  subject.Condition,
	}

	m := Manifest{SessionID: subject.SessionID, Subject: subject, PublishedAt: p.now()}
	for _, a := range artifacts {
		obj, err := p.store.Put(ctx, prefix+a.Name, bytes.NewReader(a.Body), PutOptions{ContentType: a.ContentType, Metadata: meta})
		if err != nil {
			return Manifest{}, goerr.Wrap(err, "failed to archive artifact", goerr.V("name", a.Name))
		}
		m.Objects = append(m.Objects, obj)
	}

	body, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Manifest{}, goerr.Wrap(err, "failed to encode manifest")
	}
	if _, err := p.store.Put(ctx, prefix+ManifestName, bytes.NewReader(body), PutOptions{ContentType: "application/json", Metadata: meta}); err != nil {
		return Manifest{}, goerr.Wrap(err, "failed to archive manifest")
	}

	ctxlog.From(ctx).Info("session archived",
		slog.String("driver", string(p.store.Driver())),
		slog.String("prefix", prefix),
		slog.Int("objects", len(m.Objects)))
	return m, nil
}

// LoadManifest reads a session's manifest back.
func LoadManifest(ctx context.Context, store Store, subject domain.Subject) (Manifest, error) {
	_, rc, err := store.Get(ctx, SessionPrefix(subject)+ManifestName)
	if err != nil {
		return Manifest{}, err
	}
	defer rc.Close()
	var m Manifest
	if err := json.NewDecoder(rc).Decode(&m); err != nil {
		return Manifest{}, goerr.Wrap(err, "failed to decode manifest")
	}
	return m, nil
}
