// Package session persists the signed-in identity and API overrides between
// runs. It is the only state shared across components; callers receive a
// *Store explicitly and never reach it through globals.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Data is the on-disk session.yaml layout.
type Data struct {
	Token       string `yaml:"token,omitempty"`
	UserEmail   string `yaml:"user_email,omitempty"`
	APIEndpoint string `yaml:"api_endpoint,omitempty"`
	APIKey      string `yaml:"api_key,omitempty"`
}

// Store is a goroutine-safe session file. A Store with an empty path keeps
// everything in memory.
type Store struct {
	mu   sync.RWMutex
	path string
	data Data
}

// Open loads the session file at path. A missing file yields an empty session.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s.data); err != nil {
		// An empty file decodes to io.EOF; treat it as an empty session.
		if len(bytes.TrimSpace(raw)) == 0 {
			return s, nil
		}
		return nil, fmt.Errorf("parsing session %s: %w", path, err)
	}
	return s, nil
}

// NewMemory returns a Store that is never written to disk.
func NewMemory() *Store {
	return &Store{}
}

// Path returns the backing file, or "" for in-memory stores.
func (s *Store) Path() string { return s.path }

// Snapshot returns a copy of the current contents.
func (s *Store) Snapshot() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// AccessToken returns the bearer token, if signed in.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Token
}

// ChatAPIKey returns the API key override used for chat completions.
func (s *Store) ChatAPIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.APIKey
}

func (s *Store) UserEmail() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.UserEmail
}

// Endpoint returns the stored API endpoint override.
func (s *Store) Endpoint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.APIEndpoint
}

// LoggedIn reports whether both a token and an email are stored.
func (s *Store) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Token != "" && s.data.UserEmail != ""
}

// SetAuth records a successful sign-in.
func (s *Store) SetAuth(token, email string) error {
	return s.update(func(d *Data) {
		d.Token = token
		d.UserEmail = email
	})
}

// ClearAuth forgets the signed-in identity but keeps API overrides.
func (s *Store) ClearAuth() error {
	return s.update(func(d *Data) {
		d.Token = ""
		d.UserEmail = ""
	})
}

// SetEndpoint stores an API endpoint override; "" removes it.
func (s *Store) SetEndpoint(endpoint string) error {
	return s.update(func(d *Data) { d.APIEndpoint = strings.TrimSpace(endpoint) })
}

// SetAPIKey stores the chat API key; "" removes it.
func (s *Store) SetAPIKey(key string) error {
	return s.update(func(d *Data) { d.APIKey = strings.TrimSpace(key) })
}

func (s *Store) update(fn func(*Data)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data)
	return s.saveLocked()
}

// saveLocked writes via a temp file and rename so a crash never leaves a
// half-written session behind.
func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	out, err := yaml.Marshal(&s.data)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	logrus.Debugf("session saved to %s", s.path)
	return nil
}
