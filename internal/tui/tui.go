// Package tui is the interactive settings editor: a form over the monitor
// selector and the four views, a diff preview and a confirm step, all driven
// through the settings operations of the running daemon.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/1broseidon/wallboard/internal/settings"
)

// ErrNoChanges is returned when the edited config equals the active one.
var ErrNoChanges = errors.New("no changes to save")

// Editor edits the wallboard config interactively.
type Editor struct {
	ops settings.Operations
	out io.Writer
}

// New creates an editor driving ops.
func New(ops settings.Operations) *Editor {
	return &Editor{ops: ops, out: os.Stdout}
}

// Run shows the monitors, runs the settings form and saves the result after
// confirmation. Cancelling the form returns nil without saving.
func (e *Editor) Run(ctx context.Context) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	original, err := e.ops.GetConfig(ctx)
	if err != nil {
		return err
	}
	monitors, err := e.ops.ListMonitors(ctx)
	if err != nil {
		return err
	}
	width := terminalWidth()
	fmt.Fprintln(e.out, renderMonitors(monitors, original.Monitor, width))

	fields := fromConfig(original)
	form := buildForm(fields, monitors, width).
		WithProgramOptions(tea.WithAltScreen())
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	edited, err := fields.toConfig(original)
	if err != nil {
		return err
	}
	lines := computeDiffLines(original, edited)
	if len(lines) == 0 {
		fmt.Fprintln(e.out, renderResult(ErrNoChanges))
		return nil
	}
	fmt.Fprintln(e.out, renderDiff(lines, width))

	confirmed := true
	confirm := huh.NewConfirm().
		Title("Save and apply?").
		Affirmative("Save").
		Negative("Cancel").
		Value(&confirmed)
	if err := huh.NewForm(huh.NewGroup(confirm)).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}
	if !confirmed {
		return nil
	}

	err = e.ops.SaveConfig(ctx, edited)
	fmt.Fprintln(e.out, renderResult(err))
	return err
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
