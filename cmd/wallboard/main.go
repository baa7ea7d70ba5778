package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/1broseidon/wallboard/internal/config"
)

var version = "dev"

type rootOptions struct {
	configPath  string
	settingsDir string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "wallboard",
		Short:        "Tile four web views into a 2x2 wallboard on one monitor",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Wallboard config file (default: $XDG_CONFIG_HOME/wallboard/config.json)")
	root.PersistentFlags().StringVar(&opts.settingsDir, "settings-dir", "", "Directory holding settings.yaml (default: $XDG_CONFIG_HOME/wallboard)")

	root.AddCommand(
		newDaemonCmd(opts),
		newApplyCmd(),
		newRebuildCmd(),
		newToggleCmd(),
		newStatusCmd(),
		newMonitorsCmd(),
		newPlanCmd(),
		newConfigCmd(opts),
		newMCPCmd(),
	)
	return root
}

// loadSettings reads daemon settings; --config wins over config_path.
func (o *rootOptions) loadSettings() (*config.Settings, error) {
	s, err := config.LoadSettings(o.settingsDir)
	if err != nil {
		return nil, err
	}
	if o.configPath != "" {
		s.ConfigPath = o.configPath
	}
	return s, nil
}

func (o *rootOptions) store() (*config.Store, error) {
	s, err := o.loadSettings()
	if err != nil {
		return nil, err
	}
	return config.NewStore(s.ConfigPath)
}

func newLogger(level string) (*slog.Logger, error) {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}
