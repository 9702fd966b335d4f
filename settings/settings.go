// Package settings provides the durable key/value store behind the profile
// name table: flat string keys, opaque byte values, synchronous writes, and
// a startup replay that hands every previously saved record back to the
// caller.
package settings

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/user/aurakey-ble/logger"
)

// Store is the durable persistence provider consumed by the name store.
type Store interface {
	// Save durably writes value under key, replacing any previous value.
	// The write is synchronous: when Save returns nil the record survives
	// a restart.
	Save(key string, value []byte) error

	// Load replays every stored record, calling fn once per key. Replay
	// order is unspecified.
	Load(fn func(key string, value []byte)) error
}

// FileStore keeps one file per key inside a directory. Keys are
// percent-escaped into filenames so addresses like
// "C0:FF:EE:00:12:34 (random)" round-trip.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key))
}

func (s *FileStore) Save(key string, value []byte) error {
	if err := os.WriteFile(s.path(key), value, 0644); err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	logger.Debug("settings", "saved %q (%d bytes)", key, len(value))
	return nil
}

func (s *FileStore) Load(fn func(key string, value []byte)) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read settings dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key, err := url.PathUnescape(e.Name())
		if err != nil {
			logger.Warn("settings", "skipping record with malformed name %q: %v", e.Name(), err)
			continue
		}
		value, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			logger.Warn("settings", "skipping unreadable record %q: %v", key, err)
			continue
		}
		fn(key, value)
	}
	return nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu      sync.Mutex
	records map[string][]byte

	// SaveErr, when set, is returned by every Save. Lets tests exercise
	// the durable-write failure path.
	SaveErr error
}

func NewMemStore() *MemStore {
	return &MemStore{records: map[string][]byte{}}
}

func (s *MemStore) Save(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.records[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemStore) Load(fn func(key string, value []byte)) error {
	s.mu.Lock()
	snapshot := make(map[string][]byte, len(s.records))
	for k, v := range s.records {
		snapshot[k] = v
	}
	s.mu.Unlock()
	for k, v := range snapshot {
		fn(k, v)
	}
	return nil
}

// Get returns the stored value, for test assertions.
func (s *MemStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[key]
	return v, ok
}

// Len returns the number of stored records.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// prefixed namespaces another Store: Save prepends the prefix, Load replays
// only matching records with the prefix stripped. This is how the name table
// claims its slice of the device's settings area without other subsystems'
// records leaking into its hydration.
type prefixed struct {
	inner  Store
	prefix string
}

// WithPrefix returns a namespaced view of store.
func WithPrefix(store Store, prefix string) Store {
	return &prefixed{inner: store, prefix: prefix}
}

func (p *prefixed) Save(key string, value []byte) error {
	return p.inner.Save(p.prefix+key, value)
}

func (p *prefixed) Load(fn func(key string, value []byte)) error {
	return p.inner.Load(func(key string, value []byte) {
		if !strings.HasPrefix(key, p.prefix) {
			return
		}
		fn(strings.TrimPrefix(key, p.prefix), value)
	})
}
