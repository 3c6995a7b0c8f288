// Package memory implements an in-memory archive store for tests.
package memory

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"cogbattery/internal/archive/core"

	"github.com/m-mizutani/goerr/v2"
)

type entry struct {
	obj  core.Object
	data []byte
}

// Store keeps objects in process memory.
type Store struct {
	mu   sync.RWMutex
	objs map[string]entry
}

// New returns an empty store.
func New() *Store { return &Store{objs: make(map[string]entry)} }

func (s *Store) Driver() core.Driver { return core.DriverMemory }

func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Object, error) {
	if strings.TrimSpace(key) == "" {
		return core.Object{}, goerr.Wrap(core.ErrInvalidKey, "empty key")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return core.Object{}, goerr.Wrap(err, "failed to read object", goerr.V("key", key))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objs[key]; ok {
		return core.Object{}, goerr.Wrap(core.ErrExists, "put refused", goerr.V("key", key))
	}
	sum := sha256.Sum256(b)
	obj := core.Object{
		Key:          key,
		Size:         int64(len(b)),
		ContentType:  opts.ContentType,
		ETag:         hex.EncodeToString(sum[:]),
		Metadata:     core.CloneMetadata(opts.Metadata),
		LastModified: time.Now().UTC(),
	}
	s.objs[key] = entry{obj: obj, data: b}
	return obj, nil
}

func (s *Store) lookup(key string) (entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.objs[key]
	if !ok {
		return entry{}, goerr.Wrap(core.ErrNotFound, "lookup failed", goerr.V("key", key))
	}
	e.obj.Metadata = core.CloneMetadata(e.obj.Metadata)
	return e, nil
}

func (s *Store) Get(_ context.Context, key string) (core.Object, io.ReadCloser, error) {
	e, err := s.lookup(key)
	if err != nil {
		return core.Object{}, nil, err
	}
	return e.obj, io.NopCloser(bytes.NewReader(bytes.Clone(e.data))), nil
}

func (s *Store) Head(_ context.Context, key string) (core.Object, error) {
	e, err := s.lookup(key)
	return e.obj, err
}

func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objs[key]
	delete(s.objs, key)
	return ok, nil
}

func (s *Store) List(_ context.Context, prefix string) ([]core.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Object, 0, len(s.objs))
	for k, e := range s.objs {
		if strings.HasPrefix(k, prefix) {
			obj := e.obj
			obj.Metadata = core.CloneMetadata(obj.Metadata)
			out = append(out, obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
