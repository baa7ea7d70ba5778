package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// BrowserSettings configures the browser process that renders each view.
type BrowserSettings struct {
	// Command is the browser executable. Empty selects the first of
	// DefaultBrowserCandidates found on PATH.
	Command       string        `mapstructure:"command"`
	ExtraArgs     []string      `mapstructure:"extra_args"`
	LaunchTimeout time.Duration `mapstructure:"launch_timeout"`
}

type HTTPSettings struct {
	// Addr is the listen address of the HTTP settings API; empty disables it.
	Addr string `mapstructure:"addr"`
}

type HotkeySettings struct {
	Toggle string `mapstructure:"toggle"`
	Apply  string `mapstructure:"apply"`
}

type LogSettings struct {
	Level string `mapstructure:"level"`
}

// Settings configures the daemon itself, as opposed to the wallboard
// document it reconciles.
type Settings struct {
	ConfigPath  string          `mapstructure:"config_path"`
	StorageRoot string          `mapstructure:"storage_root"`
	Browser     BrowserSettings `mapstructure:"browser"`
	HTTP        HTTPSettings    `mapstructure:"http"`
	Hotkeys     HotkeySettings  `mapstructure:"hotkeys"`
	Log         LogSettings     `mapstructure:"log"`
}

// DefaultBrowserCandidates are tried in order when browser.command is unset.
var DefaultBrowserCandidates = []string{"chromium", "chromium-browser", "google-chrome", "google-chrome-stable"}

const settingsEnvPrefix = "WALLBOARD"

// DefaultStorageRoot returns $XDG_DATA_HOME/wallboard, falling back to
// ~/.local/share/wallboard.
func DefaultStorageRoot() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "wallboard"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "wallboard"), nil
}

// LoadSettings reads settings.yaml from dir (DefaultConfigDir when empty),
// then applies WALLBOARD_* environment overrides. A missing file is not an
// error.
func LoadSettings(dir string) (*Settings, error) {
	if dir == "" {
		d, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	storageRoot, err := DefaultStorageRoot()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName("settings")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(settingsEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("config_path", filepath.Join(dir, configFileName))
	v.SetDefault("storage_root", storageRoot)
	v.SetDefault("browser.command", "")
	v.SetDefault("browser.extra_args", []string{})
	v.SetDefault("browser.launch_timeout", 15*time.Second)
	v.SetDefault("http.addr", "")
	v.SetDefault("hotkeys.toggle", "Mod4-Shift-w")
	v.SetDefault("hotkeys.apply", "")
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks settings values.
func (s *Settings) Validate() error {
	if s.StorageRoot == "" {
		return &ValidationError{Path: "storage_root", Err: fmt.Errorf("storage_root is required")}
	}
	if s.Browser.LaunchTimeout <= 0 {
		return &ValidationError{Path: "browser.launch_timeout", Err: fmt.Errorf("launch_timeout must be > 0")}
	}
	if _, err := ParseLogLevel(s.Log.Level); err != nil {
		return &ValidationError{Path: "log.level", Err: err}
	}
	return nil
}

// ParseLogLevel maps a settings log level onto slog.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log level must be one of: debug, info, warn, error")
	}
}
