package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// SchemaVersion is the only config document version this build understands.
const SchemaVersion = 1

// NumViews is the fixed number of tiles on the wallboard.
const NumViews = 4

// ViewLabelPrefix prefixes every view window label.
const ViewLabelPrefix = "view-"

// MonitorMode selects how the target display is chosen.
type MonitorMode string

const (
	MonitorPrimary      MonitorMode = "primary"
	MonitorIndex        MonitorMode = "index"
	MonitorNameContains MonitorMode = "name_contains"
)

// MonitorSelector chooses exactly one display per apply.
//
// Value must parse as a non-negative integer for MonitorIndex, is the
// (possibly empty) needle for MonitorNameContains and is ignored for
// MonitorPrimary.
type MonitorSelector struct {
	Mode  MonitorMode `json:"mode" yaml:"mode" toml:"mode"`
	Value *string     `json:"value" yaml:"value" toml:"value,omitempty"`
}

// ValueOrEmpty returns the selector value, or "" when absent.
func (m MonitorSelector) ValueOrEmpty() string {
	if m.Value == nil {
		return ""
	}
	return *m.Value
}

// ViewConfig is one tile's content.
type ViewConfig struct {
	ID      string  `json:"id" yaml:"id" toml:"id"`
	URL     string  `json:"url" yaml:"url" toml:"url"`
	Profile *string `json:"profile" yaml:"profile" toml:"profile,omitempty"`
}

// Label returns the stable window label derived from the view id.
func (v ViewConfig) Label() string {
	return ViewLabelPrefix + v.ID
}

// ProfileName returns the storage profile name: the configured profile, or
// the window label when none is set.
func (v ViewConfig) ProfileName() string {
	if v.Profile != nil && *v.Profile != "" {
		return *v.Profile
	}
	return v.Label()
}

// Config is the wallboard configuration document. Views are ordered
// top-left, top-right, bottom-left, bottom-right.
type Config struct {
	Version int                  `json:"version" yaml:"version" toml:"version"`
	Monitor MonitorSelector      `json:"monitor" yaml:"monitor" toml:"monitor"`
	Views   [NumViews]ViewConfig `json:"views" yaml:"views" toml:"views"`
}

// UnmarshalJSON decodes a config and rejects view lists that do not hold
// exactly NumViews entries.
func (c *Config) UnmarshalJSON(data []byte) error {
	var raw struct {
		Version int             `json:"version"`
		Monitor MonitorSelector `json:"monitor"`
		Views   []ViewConfig    `json:"views"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Views) != NumViews {
		return &ValidationError{Path: "views", Err: fmt.Errorf("expected exactly %d views, got %d", NumViews, len(raw.Views))}
	}
	c.Version = raw.Version
	c.Monitor = raw.Monitor
	copy(c.Views[:], raw.Views)
	return nil
}

func strPtr(s string) *string { return &s }

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	return &Config{
		Version: SchemaVersion,
		Monitor: MonitorSelector{Mode: MonitorPrimary},
		Views: [NumViews]ViewConfig{
			{ID: "topLeft", URL: "https://example.com", Profile: strPtr("view1")},
			{ID: "topRight", URL: "https://example.org", Profile: strPtr("view2")},
			{ID: "bottomLeft", URL: "https://example.net", Profile: strPtr("view3")},
			{ID: "bottomRight", URL: "https://www.wikipedia.org", Profile: strPtr("view4")},
		},
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	if c.Monitor.Value != nil {
		out.Monitor.Value = strPtr(*c.Monitor.Value)
	}
	for i, v := range c.Views {
		if v.Profile != nil {
			out.Views[i].Profile = strPtr(*v.Profile)
		}
	}
	return &out
}

// ValidationError reports an invalid config field.
type ValidationError struct {
	Path string
	File string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.File != "" && e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.File, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ValidateStructure checks everything except view URLs: schema version,
// monitor selector, and view ids and profiles.
func (c *Config) ValidateStructure() error {
	if c.Version != SchemaVersion {
		return &ValidationError{Path: "version", Err: fmt.Errorf("unsupported schema version %d (want %d)", c.Version, SchemaVersion)}
	}

	switch c.Monitor.Mode {
	case MonitorPrimary, MonitorNameContains:
	case MonitorIndex:
		if c.Monitor.Value == nil {
			return &ValidationError{Path: "monitor.value", Err: fmt.Errorf("value is required for mode %q", MonitorIndex)}
		}
		if _, err := strconv.ParseUint(*c.Monitor.Value, 10, 0); err != nil {
			return &ValidationError{Path: "monitor.value", Err: fmt.Errorf("%q is not a non-negative integer", *c.Monitor.Value)}
		}
	default:
		return &ValidationError{Path: "monitor.mode", Err: fmt.Errorf("mode must be one of: primary, index, name_contains")}
	}

	seen := make(map[string]int, NumViews)
	for i, v := range c.Views {
		path := fmt.Sprintf("views[%d]", i)
		if err := validateName(v.ID); err != nil {
			return &ValidationError{Path: path + ".id", Err: err}
		}
		if prev, dup := seen[v.ID]; dup {
			return &ValidationError{Path: path + ".id", Err: fmt.Errorf("id %q already used by views[%d]", v.ID, prev)}
		}
		seen[v.ID] = i
		if v.Profile != nil && *v.Profile != "" {
			if err := validateName(*v.Profile); err != nil {
				return &ValidationError{Path: path + ".profile", Err: err}
			}
		}
	}
	return nil
}

// Validate performs the checks applied before a config is persisted.
func (c *Config) Validate() error {
	if err := c.ValidateStructure(); err != nil {
		return err
	}
	for i, v := range c.Views {
		if !strings.HasPrefix(v.URL, "http://") && !strings.HasPrefix(v.URL, "https://") {
			return &ValidationError{
				Path: fmt.Sprintf("views[%d].url", i),
				Err:  fmt.Errorf("URL for '%s' must start with http:// or https://", v.ID),
			}
		}
	}
	return nil
}

// validateName rejects ids and profile names that cannot be used as a single
// path element under the profiles directory.
func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("must not be empty")
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return fmt.Errorf("invalid name %q", name)
	}
	if name == "." || name == ".." || strings.Contains(name, "..") {
		return fmt.Errorf("invalid name %q", name)
	}
	return nil
}
