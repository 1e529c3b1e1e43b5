package unicrew

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// TokenPair holds the access/refresh credential pair issued by the backend.
// It is treated as one atomic unit: replaced wholesale on login or refresh,
// never partially mutated.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenStore abstracts persistence of the token pair across process restarts.
type TokenStore interface {
	// Load returns the persisted pair, or nil when none is stored.
	// A corrupt entry is discarded and reported as absent, never as an error.
	Load() *TokenPair
	// Save persists the pair, replacing any prior value entirely.
	Save(pair TokenPair) error
	// Clear removes the persisted pair. Clearing an absent pair is a no-op.
	Clear() error
}

// FileTokenStore persists the token pair as a single JSON document on disk.
// It is the client-side analogue of a browser's persistent key-value storage:
// one key, one serialized value.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore creates a token store backed by the given file path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Path returns the backing file path.
func (s *FileTokenStore) Path() string {
	return s.path
}

// Load reads and parses the persisted token pair. Absent or malformed files
// yield nil; a malformed file is removed so it is not re-parsed on every call.
func (s *FileTokenStore) Load() *TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("token store: read %s failed: %v", s.path, err)
		}
		return nil
	}
	var pair TokenPair
	if err = json.Unmarshal(data, &pair); err != nil || strings.TrimSpace(pair.Access) == "" {
		log.Warnf("token store: discarding corrupt token file %s", s.path)
		_ = os.Remove(s.path)
		return nil
	}
	return &pair
}

// Save serializes and persists the pair, overwriting any prior value.
func (s *FileTokenStore) Save(pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("token store: marshal failed: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err = os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("token store: create dir failed: %w", err)
		}
	}
	if err = os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("token store: write file failed: %w", err)
	}
	return nil
}

// Clear removes the persisted pair. Idempotent.
func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("token store: delete failed: %w", err)
	}
	return nil
}
