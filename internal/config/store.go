package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const configFileName = "config.json"

// DefaultConfigDir returns $XDG_CONFIG_HOME/wallboard (or the platform
// equivalent).
func DefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(dir, "wallboard"), nil
}

// DefaultConfigPath returns the standard config document location.
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Store persists the wallboard config as a JSON document.
type Store struct {
	path string
}

// NewStore returns a store for path. An empty path selects
// DefaultConfigPath.
func NewStore(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Store{path: path}, nil
}

// Path returns the config file location.
func (s *Store) Path() string {
	return s.path
}

// LoadOrInit reads the config, writing DefaultConfig first if no file exists.
func (s *Store) LoadOrInit() (*Config, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		if err := s.write(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	return s.Load()
}

// Load reads and structurally validates the config file. View URLs are not
// checked here; a malformed URL surfaces when the config is applied.
func (s *Store) Load() (*Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.File = s.path
			return nil, verr
		}
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	if err := cfg.ValidateStructure(); err != nil {
		return nil, withFile(err, s.path)
	}
	return &cfg, nil
}

// Save validates cfg and replaces the config file atomically. A rejected
// config leaves the existing file untouched.
func (s *Store) Save(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return s.write(cfg)
}

func (s *Store) write(cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".config-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

func withFile(err error, file string) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		verr.File = file
		return verr
	}
	return err
}
