// Package fs implements the archive store on a local directory.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cogbattery/internal/archive/core"

	"github.com/m-mizutani/goerr/v2"
)

const metaSuffix = ".meta"

// Store maps keys to files under root. Each object has a JSON sidecar
// (file name + ".meta") holding its content type, metadata and digest.
type Store struct {
	root string
}

// New returns a store rooted at root, creating the directory if needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = "archive"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create archive root", goerr.V("root", root))
	}
	return &Store{root: root}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// Root returns the directory backing the store.
func (s *Store) Root() string { return s.root }

func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return "", goerr.Wrap(core.ErrInvalidKey, "rejected key", goerr.V("key", key))
	}
	if strings.HasSuffix(key, metaSuffix) {
		return "", goerr.Wrap(core.ErrInvalidKey, "reserved suffix", goerr.V("key", key))
	}
	return path.Clean(filepath.ToSlash(key)), nil
}

func (s *Store) paths(key string) (data, meta string, err error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", "", err
	}
	data = filepath.Join(s.root, filepath.FromSlash(k))
	return data, data + metaSuffix, nil
}

type sidecar struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ETag        string            `json:"etag"`
	Size        int64             `json:"size"`
	StoredAt    time.Time         `json:"stored_at"`
}

func (m sidecar) object(key string) core.Object {
	return core.Object{
		Key:          key,
		Size:         m.Size,
		ContentType:  m.ContentType,
		ETag:         m.ETag,
		Metadata:     core.CloneMetadata(m.Metadata),
		LastModified: m.StoredAt,
	}
}

func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Object, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.Object{}, err
	}
	if _, err := os.Stat(dataPath); err == nil {
		return core.Object{}, goerr.Wrap(core.ErrExists, "put refused", goerr.V("key", key))
	}
	dir := filepath.Dir(dataPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.Object{}, goerr.Wrap(err, "failed to create object directory", goerr.V("dir", dir))
	}

	// stream to a temp file so size and digest are known before the rename
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return core.Object{}, goerr.Wrap(err, "failed to create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		_ = tmp.Close()
		return core.Object{}, goerr.Wrap(err, "failed to write object", goerr.V("key", key))
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return core.Object{}, goerr.Wrap(err, "failed to sync object", goerr.V("key", key))
	}
	if err := tmp.Close(); err != nil {
		return core.Object{}, goerr.Wrap(err, "failed to close object", goerr.V("key", key))
	}
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return core.Object{}, goerr.Wrap(err, "failed to move object into place", goerr.V("key", key))
	}

	meta := sidecar{
		ContentType: opts.ContentType,
		Metadata:    core.CloneMetadata(opts.Metadata),
		ETag:        hex.EncodeToString(h.Sum(nil)),
		Size:        size,
		StoredAt:    time.Now().UTC(),
	}
	if err := writeSidecar(metaPath, meta); err != nil {
		return core.Object{}, err
	}
	return meta.object(key), nil
}

func (s *Store) Get(_ context.Context, key string) (core.Object, io.ReadCloser, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.Object{}, nil, err
	}
	meta, err := readSidecar(metaPath, key)
	if err != nil {
		return core.Object{}, nil, err
	}
	f, err := os.Open(dataPath)
	if err != nil {
		return core.Object{}, nil, notFound(err, key)
	}
	return meta.object(key), f, nil
}

func (s *Store) Head(_ context.Context, key string) (core.Object, error) {
	_, metaPath, err := s.paths(key)
	if err != nil {
		return core.Object{}, err
	}
	meta, err := readSidecar(metaPath, key)
	if err != nil {
		return core.Object{}, err
	}
	return meta.object(key), nil
}

func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(dataPath); err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to delete object", goerr.V("key", key))
	}
	_ = os.Remove(metaPath)
	return true, nil
}

func (s *Store) List(_ context.Context, prefix string) ([]core.Object, error) {
	var out []core.Object
	err := filepath.WalkDir(s.root, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, metaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, strings.TrimSuffix(p, metaSuffix))
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		meta, err := readSidecar(p, key)
		if err != nil {
			return err
		}
		out = append(out, meta.object(key))
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list archive", goerr.V("prefix", prefix))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func writeSidecar(p string, m sidecar) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode sidecar")
	}
	if err := os.WriteFile(p, b, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write sidecar", goerr.V("path", p))
	}
	return nil
}

func readSidecar(p, key string) (sidecar, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return sidecar{}, notFound(err, key)
	}
	var m sidecar
	if err := json.Unmarshal(b, &m); err != nil {
		return sidecar{}, goerr.Wrap(err, "corrupt sidecar", goerr.V("path", p))
	}
	return m, nil
}

func notFound(err error, key string) error {
	if errors.Is(err, iofs.ErrNotExist) {
		return goerr.Wrap(core.ErrNotFound, "lookup failed", goerr.V("key", key))
	}
	return goerr.Wrap(err, "failed to read object", goerr.V("key", key))
}
