// ABOUTME: Client-local persistent key/value storage for session state
// ABOUTME: Keeps the auth token and anonymous id in a JSON file under the XDG config directory

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Fixed storage keys
const (
	KeyToken       = "auth_token"
	KeyAnonymousID = "anonymous_id"
)

const stateFileName = "state.json"

// Store persists string values by key in a single JSON document
type Store struct {
	dir string
	mu  sync.Mutex
}

type stateData struct {
	Values map[string]string `json:"values"`
}

// New creates a store rooted at the given config directory
func New(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir returns $XDG_CONFIG_HOME/quickpoll, falling back to ~/.config/quickpoll
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "quickpoll")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "quickpoll")
}

// Dir returns the directory the store writes to
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path() string {
	return filepath.Join(s.dir, stateFileName)
}

// Get returns the value for key, or "" when it was never set
func (s *Store) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

// Set stores value under key
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.write(values)
}

// read loads the state file. A missing or corrupt file reads as empty.
func (s *Store) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path())
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var state stateData
	if err := json.Unmarshal(data, &state); err != nil || state.Values == nil {
		return map[string]string{}, nil
	}
	return state.Values, nil
}

func (s *Store) write(values map[string]string) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(stateData{Values: values}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	// Write to a temp file and rename so a crash never leaves half a file behind
	tmp, err := os.CreateTemp(s.dir, stateFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path()); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// Slot is a single-key view of a Store
type Slot struct {
	store *Store
	key   string
}

// Slot returns a view bound to key
func (s *Store) Slot(key string) *Slot {
	return &Slot{store: s, key: key}
}

// Load returns the slot value, or "" when unset
func (sl *Slot) Load() (string, error) {
	return sl.store.Get(sl.key)
}

// Save stores value in the slot
func (sl *Slot) Save(value string) error {
	return sl.store.Set(sl.key, value)
}

// Clear erases the slot
func (sl *Slot) Clear() error {
	return sl.store.Delete(sl.key)
}
