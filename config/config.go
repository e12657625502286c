// Package config persists the plugin settings for the terminal host.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/Alias1177/Fatebook/models"
)

const relPath = "fatebook/settings.yaml"

// FileStore keeps models.Settings in a YAML file readable only by the owner.
type FileStore struct {
	path string
}

// NewFileStore uses path, or the XDG config location when path is empty.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		p, err := xdg.ConfigFile(relPath)
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		path = p
	}
	return &FileStore{path: path}, nil
}

// Path returns the settings file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns DefaultSettings when the file does not exist yet.
func (s *FileStore) Load(_ context.Context) (models.Settings, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.DefaultSettings, nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("reading %s: %w", s.path, err)
	}

	settings := models.DefaultSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return models.Settings{}, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return settings, nil
}

// Save writes settings atomically.
func (s *FileStore) Save(_ context.Context, settings models.Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}
