package trestle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists the session record as a single JSON file.
//
// SECURITY: the record holds bearer credentials. The file is written with
// 0600 permissions and its directory with 0700, and token values are never
// logged.
type Store struct {
	mu   sync.RWMutex
	path string
}

// NewStore creates a store persisting at the given path. Use
// DefaultSessionPath when no override is configured.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultSessionPath returns the default location of the persisted session
// record, under the user's configuration directory.
func DefaultSessionPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return filepath.Join(".trestle-mcp", "session.json")
		}
		return filepath.Join(home, ".trestle-mcp", "session.json")
	}
	return filepath.Join(base, "trestle-mcp", "session.json")
}

// Path returns the location of the persisted record.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted session record. A missing file returns (nil, nil);
// an unreadable or corrupt file returns an error.
func (s *Store) Load() (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session record: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session record: %w", err)
	}
	return &session, nil
}

// Save writes the session record, creating the directory if needed.
func (s *Store) Save(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session record: %w", err)
	}
	return nil
}

// Clear deletes the persisted record. Deleting a record that does not exist
// is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session record: %w", err)
	}
	return nil
}
