package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/1broseidon/wallboard/internal/config"
	"github.com/1broseidon/wallboard/internal/settings"
)

var viewTitles = [config.NumViews]string{"Top Left", "Top Right", "Bottom Left", "Bottom Right"}

// formFields holds the editable values bound to the form inputs.
type formFields struct {
	mode     string
	value    string
	urls     [config.NumViews]string
	profiles [config.NumViews]string
}

func fromConfig(cfg *config.Config) *formFields {
	f := &formFields{
		mode:  string(cfg.Monitor.Mode),
		value: cfg.Monitor.ValueOrEmpty(),
	}
	for i, v := range cfg.Views {
		f.urls[i] = v.URL
		if v.Profile != nil {
			f.profiles[i] = *v.Profile
		}
	}
	return f
}

// toConfig applies the form values to a copy of base. View ids are kept.
func (f *formFields) toConfig(base *config.Config) (*config.Config, error) {
	cfg := base.Clone()
	cfg.Monitor.Mode = config.MonitorMode(f.mode)
	switch cfg.Monitor.Mode {
	case config.MonitorPrimary:
		cfg.Monitor.Value = nil
	case config.MonitorIndex, config.MonitorNameContains:
		value := strings.TrimSpace(f.value)
		cfg.Monitor.Value = &value
	default:
		return nil, fmt.Errorf("unknown monitor mode %q", f.mode)
	}
	for i := range cfg.Views {
		cfg.Views[i].URL = strings.TrimSpace(f.urls[i])
		profile := strings.TrimSpace(f.profiles[i])
		if profile == "" {
			cfg.Views[i].Profile = nil
		} else {
			cfg.Views[i].Profile = &profile
		}
	}
	return cfg, nil
}

func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return fmt.Errorf("must start with http:// or https://")
	}
	return nil
}

func validateMonitorValue(mode *string, monitors []settings.MonitorInfo) func(string) error {
	return func(s string) error {
		if config.MonitorMode(*mode) != config.MonitorIndex {
			return nil
		}
		idx, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || idx < 0 {
			return fmt.Errorf("index must be a non-negative integer")
		}
		if len(monitors) > 0 && idx >= len(monitors) {
			return fmt.Errorf("only %d monitors connected", len(monitors))
		}
		return nil
	}
}

func buildForm(f *formFields, monitors []settings.MonitorInfo, width int) *huh.Form {
	w := width - 4
	if w < 40 {
		w = 40
	}

	modeOpts := []huh.Option[string]{
		huh.NewOption("Primary monitor", string(config.MonitorPrimary)),
		huh.NewOption("Monitor by index", string(config.MonitorIndex)),
		huh.NewOption("Monitor by name", string(config.MonitorNameContains)),
	}

	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("monitor_mode").
				Title("Monitor").
				Description("Display the four views are tiled onto").
				Options(modeOpts...).
				Value(&f.mode),

			huh.NewInput().
				Key("monitor_value").
				Title("Monitor Value").
				Description("Index for 'by index', name substring for 'by name'; ignored for primary").
				Validate(validateMonitorValue(&f.mode, monitors)).
				Value(&f.value),
		),
	}

	for i := range f.urls {
		groups = append(groups, huh.NewGroup(
			huh.NewInput().
				Key(fmt.Sprintf("view_%d_url", i)).
				Title(viewTitles[i]+": URL").
				Validate(validateURL).
				Value(&f.urls[i]),
			huh.NewInput().
				Key(fmt.Sprintf("view_%d_profile", i)).
				Title(viewTitles[i]+": Profile").
				Description("Storage profile; empty uses a profile of its own").
				Value(&f.profiles[i]),
		))
	}

	return huh.NewForm(groups...).WithWidth(w).WithShowHelp(true).WithShowErrors(true)
}
