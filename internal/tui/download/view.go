package download

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/elsanchez/tubefetch/internal/domain"
)

// Styles with adaptive colors for light/dark backgrounds
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "63", Dark: "205"})

	labelStyle = lipgloss.NewStyle().
			Width(10).
			Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "250"})

	focusedLabelStyle = labelStyle.
				Foreground(lipgloss.AdaptiveColor{Light: "63", Dark: "205"})

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "250"})

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "9"}).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "34", Dark: "10"}).
			Bold(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "63", Dark: "205"})

	selectedPresetStyle = lipgloss.NewStyle().
				Bold(true).
				Underline(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "63", Dark: "63"}).
			Padding(1, 2)
)

// View renders the form
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("tubefetch") + "\n\n")
	b.WriteString(m.label(fieldLink, "Link") + m.linkInput.View() + "\n")
	b.WriteString(m.label(fieldOutput, "Save to") + m.outputInput.View() + "\n")
	b.WriteString(m.label(fieldQuality, "Quality") + m.viewPresets() + "\n")

	if status := m.viewStatus(); status != "" {
		b.WriteString("\n" + status + "\n")
	}

	b.WriteString("\n" + helpStyle.Render(m.helpLine()))

	return boxStyle.Render(b.String())
}

func (m Model) label(f field, text string) string {
	if m.focus == f {
		return focusedLabelStyle.Render(text)
	}
	return labelStyle.Render(text)
}

func (m Model) viewPresets() string {
	parts := make([]string, 0, len(presets))
	for i, p := range presets {
		text := p.label + " (" + p.tier.String() + ")"
		if i == m.preset {
			text = selectedPresetStyle.Render(text)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "  ")
}

func (m Model) viewStatus() string {
	if m.running {
		return m.spinner.View() + " Downloading..."
	}
	if m.outcome == nil {
		return m.message
	}

	if m.outcome.Succeeded() {
		line := successStyle.Render(m.message)
		if m.outcome.Bytes > 0 {
			line += helpStyle.Render(" (" + humanize.Bytes(uint64(m.outcome.Bytes)) + ")")
		}
		return line
	}

	line := errorStyle.Render(m.message)
	if m.outcome.Kind() == domain.KindUnknownFailure {
		if m.copied {
			line += "\n" + helpStyle.Render("Details copied to clipboard")
		} else {
			line += "\n" + helpStyle.Render("Press ctrl+y to copy the details")
		}
	}
	return line
}

func (m Model) helpLine() string {
	help := "tab: next field • enter: download • esc: quit"
	if m.focus == fieldQuality {
		help = "←/→: quality • " + help
	}
	return help
}
