// Package prefs persists the single user preference that survives between
// runs: the terminal theme.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/backmassage/pixshift/internal/config"
)

type document struct {
	Theme config.Theme `yaml:"theme"`
}

// Store reads and writes the preference file.
type Store struct {
	path string
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store { return &Store{path: path} }

// DefaultPath is prefs.yaml under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pixshift", "prefs.yaml"), nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Theme returns the stored theme, or light when nothing (or something
// unrecognized) is stored.
func (s *Store) Theme() (config.Theme, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.ThemeLight, nil
	}
	if err != nil {
		return config.ThemeLight, fmt.Errorf("read prefs: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return config.ThemeLight, fmt.Errorf("parse prefs: %w", err)
	}
	switch doc.Theme {
	case config.ThemeLight, config.ThemeDark:
		return doc.Theme, nil
	default:
		return config.ThemeLight, nil
	}
}

// SetTheme stores theme, creating the directory if needed.
func (s *Store) SetTheme(theme config.Theme) error {
	if theme != config.ThemeLight && theme != config.ThemeDark {
		return fmt.Errorf("invalid theme %q", theme)
	}
	data, err := yaml.Marshal(document{Theme: theme})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}
