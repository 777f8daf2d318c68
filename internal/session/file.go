package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/eia/publicaciones/pkg/domain"
)

// document is the on-disk layout. Key names are fixed.
type document struct {
	Token string       `json:"token"`
	User  *domain.User `json:"usuario,omitempty"`
}

const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["token"],
  "properties": {
    "token": {"type": "string", "minLength": 1},
    "usuario": {
      "type": ["object", "null"],
      "properties": {
        "id": {"type": ["string", "number"]},
        "nombreCompleto": {"type": "string"},
        "correoElectronico": {"type": "string"}
      }
    }
  }
}`

var schema = jsonschema.MustCompileString("session.schema.json", documentSchema)

// FileStore persists the session as a 0600 JSON file.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewFileStore returns a store backed by path. The file is created on first Set.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the session file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.read()
	if !ok {
		return "", false
	}
	return doc.Token, true
}

func (s *FileStore) User() (*domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.read()
	if !ok || doc.User == nil {
		return nil, false
	}
	return doc.User, true
}

func (s *FileStore) Set(token string, user *domain.User) error {
	if token == "" {
		return errors.New("session.Set: empty token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(document{Token: token, User: user})
}

func (s *FileStore) SetUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.read()
	if !ok {
		return ErrNoSession
	}
	doc.User = user
	return s.write(doc)
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session.Clear: %w", err)
	}
	return nil
}

// read loads and validates the file. A missing, unreadable, or malformed file
// counts as no session.
func (s *FileStore) read() (document, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("session file unreadable", "path", s.path, "error", err)
		}
		return document{}, false
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		s.logger.Warn("session file is not JSON", "path", s.path, "error", err)
		return document{}, false
	}
	if err := schema.Validate(raw); err != nil {
		s.logger.Warn("session file failed validation", "path", s.path, "error", err)
		return document{}, false
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("session file decode failed", "path", s.path, "error", err)
		return document{}, false
	}
	return doc, true
}

// write replaces the file atomically.
func (s *FileStore) write(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session: create dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("session: replace: %w", err)
	}
	return nil
}
