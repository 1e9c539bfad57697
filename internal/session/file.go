package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type fileRecord struct {
	Email string `yaml:"email"`
	Token string `yaml:"token"`
}

// DefaultPath is ~/.taskboard/session.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".taskboard", "session.yaml")
	}
	return filepath.Join(home, ".taskboard", "session.yaml")
}

// Load reads a session saved by Save. A missing file yields ErrInvalidSession.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var rec fileRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	if rec.Token == "" {
		return nil, ErrInvalidSession
	}
	return New(rec.Token, rec.Email), nil
}

// Save writes the session atomically with owner-only permissions.
func Save(path string, s *Session) error {
	token, err := s.Token()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := yaml.Marshal(fileRecord{Email: s.Email(), Token: token})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename session: %w", err)
	}
	return nil
}

// Remove deletes the saved session, if any.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
