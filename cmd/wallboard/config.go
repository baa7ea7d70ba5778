package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1broseidon/wallboard/internal/config"
	"github.com/1broseidon/wallboard/internal/tui"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect, validate and edit the wallboard config",
	}
	cmd.AddCommand(
		newConfigPrintCmd(opts),
		newConfigValidateCmd(opts),
		newConfigPathCmd(opts),
		newConfigEditCmd(),
	)
	return cmd
}

func newConfigPrintCmd(opts *rootOptions) *cobra.Command {
	var format string
	var defaults bool
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the config file as json, yaml or toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if !defaults {
				store, err := opts.store()
				if err != nil {
					return err
				}
				if cfg, err = store.Load(); err != nil {
					return err
				}
			}
			data, err := config.Render(cfg, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json, yaml or toml")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "Print the built-in default config instead of the file")
	return cmd
}

func newConfigValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a config file without applying it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var store *config.Store
			var err error
			if len(args) == 1 {
				store, err = config.NewStore(args[0])
			} else {
				store, err = opts.store()
			}
			if err != nil {
				return err
			}
			cfg, err := store.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config: ok (%s)\n", store.Path())
			return nil
		},
	}
}

func newConfigPathCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.Path())
			return nil
		},
	}
}

func newConfigEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit the config interactively and apply it through the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.New(newOps()).Run(cmd.Context())
		},
	}
}
