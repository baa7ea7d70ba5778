package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/1broseidon/wallboard/internal/ipc"
	"github.com/1broseidon/wallboard/internal/settings"
)

// newOps returns the settings operations of the running daemon. Tests
// replace it with an in-process service.
var newOps = func() settings.Operations {
	return ipc.NewClient()
}

func newApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Reconcile the view windows with the active config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newOps().Apply(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "applied")
			return nil
		},
	}
}

func newRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Close all view windows and recreate them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newOps().Rebuild(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rebuilt")
			return nil
		},
	}
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Hide or show all view windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			concealed, err := newOps().ToggleVisibility(cmd.Context())
			if err != nil {
				return err
			}
			if concealed {
				fmt.Fprintln(cmd.OutOrStdout(), "views hidden")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "views shown")
			}
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newOps().Status(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), st)
			}
			printStatus(cmd.OutOrStdout(), st)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	return cmd
}

func printStatus(w io.Writer, st settings.Status) {
	fmt.Fprintf(w, "uptime:      %s\n", st.Uptime)
	fmt.Fprintf(w, "config:      %s\n", st.ConfigPath)
	fmt.Fprintf(w, "concealed:   %v\n", st.Concealed)
	fmt.Fprintf(w, "live_views:  %s\n", strings.Join(st.LiveViews, ", "))
	if r := st.LastReport; r != nil {
		outcome := "ok"
		if r.Error != "" {
			outcome = r.Error
		}
		fmt.Fprintf(w, "last_%s:  %s (%s, %s)\n", r.Operation, r.At.Format("2006-01-02 15:04:05"), r.Elapsed, outcome)
	}
}

func newMonitorsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "monitors",
		Short: "List monitors in host order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			monitors, err := newOps().ListMonitors(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), monitors)
			}
			for _, m := range monitors {
				primary := ""
				if m.IsPrimary {
					primary = "  primary"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d  %-24s %dx%d+%d+%d%s\n",
					m.Index, m.Name, m.Size[0], m.Size[1], m.Position[0], m.Position[1], primary)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print monitors as JSON")
	return cmd
}

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the monitor and tiles the active config resolves to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := newOps().PlanConfig(cmd.Context(), nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "monitor: %s %s\n", plan.Display.Name, plan.Display.Bounds)
			for i, name := range []string{"top-left", "top-right", "bottom-left", "bottom-right"} {
				fmt.Fprintf(cmd.OutOrStdout(), "%-13s %s\n", name+":", plan.Tiles[i])
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
