package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/wallboard/internal/config"
	"github.com/1broseidon/wallboard/internal/settings"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	addStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	rmStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

func boxStyle(width int) lipgloss.Style {
	w := width - 8
	if w > 80 {
		w = 80
	}
	if w < 30 {
		w = 30
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(w)
}

// describeMonitor is the one-line summary of a monitor.
func describeMonitor(m settings.MonitorInfo) string {
	line := fmt.Sprintf("%d  %s  %dx%d+%d+%d", m.Index, m.Name, m.Size[0], m.Size[1], m.Position[0], m.Position[1])
	if m.IsPrimary {
		line += "  (primary)"
	}
	return line
}

// matchesSelector reports whether sel would pick m out of monitors. It
// mirrors the resolver without needing the host.
func matchesSelector(m settings.MonitorInfo, monitors []settings.MonitorInfo, sel config.MonitorSelector) bool {
	switch sel.Mode {
	case config.MonitorPrimary:
		return m.IsPrimary
	case config.MonitorIndex:
		return sel.Value != nil && strings.TrimSpace(*sel.Value) == fmt.Sprint(m.Index)
	case config.MonitorNameContains:
		needle := strings.ToLower(sel.ValueOrEmpty())
		for _, other := range monitors {
			if strings.Contains(strings.ToLower(other.Name), needle) {
				return other.Index == m.Index
			}
		}
	}
	return false
}

func renderMonitors(monitors []settings.MonitorInfo, sel config.MonitorSelector, width int) string {
	var lines []string
	for _, m := range monitors {
		line := describeMonitor(m)
		if matchesSelector(m, monitors, sel) {
			lines = append(lines, selectedStyle.Render("> "+line))
		} else {
			lines = append(lines, dimStyle.Render("  "+line))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, errStyle.Render("no monitors reported by the daemon"))
	}
	content := titleStyle.Render("Monitors") + "\n\n" + strings.Join(lines, "\n")
	return boxStyle(width).Render(content)
}

func renderDiff(lines []diffLine, width int) string {
	out := make([]string, 0, len(lines))
	for _, dl := range lines {
		switch dl.kind {
		case diffAdded:
			out = append(out, addStyle.Render("+ "+dl.text))
		case diffRemoved:
			out = append(out, rmStyle.Render("- "+dl.text))
		default:
			out = append(out, dimStyle.Render("  "+dl.text))
		}
	}
	content := titleStyle.Render("Pending Changes") + "\n\n" + strings.Join(out, "\n")
	return boxStyle(width).Render(content)
}

func renderResult(err error) string {
	if err != nil {
		return errStyle.Render("Error: " + err.Error())
	}
	return okStyle.Render("Config saved and applied")
}
