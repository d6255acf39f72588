package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"
)

// ErrCorruptStore is returned when the session file cannot be decoded.
var ErrCorruptStore = errors.New("session store is corrupt")

// Store is a string key-value surface with browser local-storage semantics.
// Missing keys are not an error; Get reports them with ok=false.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Clear() error

	// Update runs fn against every stored item and persists the result as one
	// step. Changes made by fn are discarded when it returns an error.
	Update(fn func(items map[string]string) error) error
}

// document is the on-disk layout of a FileStore.
type document struct {
	Version int               `json:"version"`
	Items   map[string]string `json:"items"`
}

// FileStore persists keys to a single JSON file on the local filesystem.
// Every access holds an advisory lock on session.json.lock, so separate
// processes sharing the directory see whole documents only.
type FileStore struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file backed store in baseDir.
// If baseDir is empty, uses ~/.aitutor/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".aitutor")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	path := filepath.Join(baseDir, "session.json")
	s := &FileStore{
		path: path,
		lock: flock.New(path+".lock", flock.SetPermissions(0600)),
	}

	if err := s.ensureDocument(); err != nil {
		return nil, err
	}

	log.Debug().Str("path", s.path).Msg("session store initialized")

	return s, nil
}

// Path returns the location of the session file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(key string) (string, bool, error) {
	var (
		v  string
		ok bool
	)
	err := s.locked(s.lock.RLock, func() error {
		doc, err := s.load()
		if err != nil {
			return err
		}
		v, ok = doc.Items[key]
		return nil
	})
	return v, ok, err
}

func (s *FileStore) Set(key, value string) error {
	return s.Update(func(items map[string]string) error {
		items[key] = value
		return nil
	})
}

func (s *FileStore) Delete(key string) error {
	return s.Update(func(items map[string]string) error {
		delete(items, key)
		return nil
	})
}

// Clear replaces the session file with an empty document. It does not read
// the existing file, so it also resets a corrupt session.
func (s *FileStore) Clear() error {
	return s.locked(s.lock.Lock, func() error {
		return s.save(newDocument())
	})
}

func (s *FileStore) Update(fn func(items map[string]string) error) error {
	return s.locked(s.lock.Lock, func() error {
		doc, err := s.load()
		if err != nil {
			return err
		}
		if err := fn(doc.Items); err != nil {
			return err
		}
		return s.save(doc)
	})
}

// locked runs fn while holding the in-process mutex and the lock file.
func (s *FileStore) locked(acquire func() error, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := acquire(); err != nil {
		return fmt.Errorf("failed to lock session: %w", err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			log.Warn().Err(err).Str("path", s.lock.Path()).Msg("failed to unlock session")
		}
	}()

	return fn()
}

// ensureDocument creates an empty session file if it doesn't exist.
func (s *FileStore) ensureDocument() error {
	return s.locked(s.lock.Lock, func() error {
		if _, err := os.Stat(s.path); err == nil {
			return nil
		}
		return s.save(newDocument())
	})
}

func newDocument() *document {
	return &document{Version: 1, Items: make(map[string]string)}
}

func (s *FileStore) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return newDocument(), nil
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}

	if doc.Items == nil {
		doc.Items = make(map[string]string)
	}

	return &doc, nil
}

// save writes the session file atomically through a uniquely named temp file.
func (s *FileStore) save(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "session-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write session: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// MemoryStore implements Store using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]string)
	return nil
}

func (m *MemoryStore) Update(fn func(items map[string]string) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make(map[string]string, len(m.items))
	for k, v := range m.items {
		items[k] = v
	}
	if err := fn(items); err != nil {
		return err
	}

	m.items = items
	return nil
}
