package tui

import (
	"strconv"
	"strings"

	"quibo-cli/internal/workflow"

	"github.com/charmbracelet/lipgloss"
)

// renderStepper draws "✓ 1 Upload ─ ● 2 Outline ─ ○ 3 Draft ..." and a fill
// bar underneath.
func renderStepper(s workflow.Stepper, width int) string {
	done := lipgloss.NewStyle().Foreground(colorDone)
	cur := lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	future := styleMuted()

	parts := make([]string, 0, len(s.Steps))
	for i, st := range s.Steps {
		label := strconv.Itoa(i+1) + " " + st.Label
		switch s.State(i) {
		case workflow.StepCompleted:
			parts = append(parts, done.Render(glyphStepDone()+" "+label))
		case workflow.StepCurrent:
			parts = append(parts, cur.Render(glyphStepCurrent()+" "+label))
		default:
			parts = append(parts, future.Render(glyphStepFuture()+" "+label))
		}
	}
	line := strings.Join(parts, styleMuted().Render(" "+glyphHRule()+" "))
	return line + "\n" + renderFill(s.Fill(), width)
}

func renderFill(pct float64, width int) string {
	if width < 10 {
		width = 10
	}
	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}
	bar := lipgloss.NewStyle().Foreground(colorAccent).Render(strings.Repeat(glyphHRule(), filled))
	rest := styleMuted().Render(strings.Repeat(glyphHRule(), width-filled))
	return bar + rest
}

// stepKey maps "1".."9" to a 0-based step index.
func stepKey(k string) (int, bool) {
	if len(k) != 1 || k[0] < '1' || k[0] > '9' {
		return 0, false
	}
	return int(k[0] - '1'), true
}
