package tui

import (
	"strconv"
	"strings"

	"quibo-cli/internal/opstatus"

	"github.com/charmbracelet/lipgloss"
)

// failed returns the first operation with an error, by key order.
func (m appModel) failed() (opstatus.Record, bool) {
	for _, rec := range m.flow.Ops().Snapshot() {
		if rec.Error != nil && !rec.IsLoading {
			return rec, true
		}
	}
	return opstatus.Record{}, false
}

// viewStatus renders in-flight operations and the first failure.
func (m appModel) viewStatus(width int) string {
	ops := m.flow.Ops()
	var lines []string

	var loading []string
	for _, rec := range ops.Snapshot() {
		if rec.IsLoading {
			loading = append(loading, rec.LoadingMessage)
		}
	}
	if len(loading) > 0 {
		lines = append(lines, m.spinner.View()+" "+strings.Join(loading, "  ")+styleMuted().Render("   ctrl+x: cancel"))
	}

	if rec, ok := m.failed(); ok {
		e := rec.Error
		msg := styleError().Render(e.Message)
		if rec.RetryCount > 0 {
			msg += styleMuted().Render(" (retried " + strconv.Itoa(rec.RetryCount) + "x)")
		}
		hint := "ctrl+d: dismiss   ?: details"
		if e.Retryable {
			hint = "ctrl+r: retry   " + hint
		}
		lines = append(lines, msg+"  "+styleMuted().Render(hint))
		if m.showDetails && e.Details != "" {
			lines = append(lines, styleMuted().Width(width).Render(e.Details))
		}
	}

	if ops.Offline() {
		lines = append(lines, styleMuted().Render("offline"))
	}
	if m.flash != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorChromeFg).Render(m.flash))
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}
