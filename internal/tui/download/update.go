package download

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/tubefetch/internal/domain"
)

var (
	keyQuit     = key.NewBinding(key.WithKeys("ctrl+c", "esc"))
	keyNext     = key.NewBinding(key.WithKeys("tab", "down"))
	keyPrev     = key.NewBinding(key.WithKeys("shift+tab", "up"))
	keySubmit   = key.NewBinding(key.WithKeys("enter"))
	keyLeft     = key.NewBinding(key.WithKeys("left", "h"))
	keyRight    = key.NewBinding(key.WithKeys("right", "l"))
	keyCopy     = key.NewBinding(key.WithKeys("ctrl+y"))
	keyCopyChar = key.NewBinding(key.WithKeys("c"))
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case submittedMsg:
		if msg.err != nil {
			m.running = false
			outcome := domain.Failure(domain.KindUnknownFailure, "submit download", msg.err)
			m.setOutcome(outcome)
			return m, nil
		}
		return m, waitOutcome(msg.waiter)

	case outcomeMsg:
		m.running = false
		m.setOutcome(msg.outcome)
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.message = "Could not copy to clipboard: " + msg.err.Error()
			return m, nil
		}
		m.copied = true
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keyQuit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keyNext):
		m.setFocus((m.focus + 1) % fieldCount)
		return m, nil

	case key.Matches(msg, keyPrev):
		m.setFocus((m.focus + fieldCount - 1) % fieldCount)
		return m, nil

	case key.Matches(msg, keySubmit):
		return m.startDownload()

	case key.Matches(msg, keyCopy):
		return m.copyDiagnostic()
	}

	if m.focus == fieldQuality {
		switch {
		case key.Matches(msg, keyLeft):
			if m.preset > 0 {
				m.preset--
			}
			return m, nil
		case key.Matches(msg, keyRight):
			if m.preset < len(presets)-1 {
				m.preset++
			}
			return m, nil
		case key.Matches(msg, keyCopyChar):
			return m.copyDiagnostic()
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

// startDownload envía el formulario; ignora enter mientras hay una descarga en curso
func (m Model) startDownload() (tea.Model, tea.Cmd) {
	if m.running {
		return m, nil
	}

	m.running = true
	m.outcome = nil
	m.copied = false
	m.message = ""
	return m, submitDownload(m.submit, m.Request())
}

func (m Model) copyDiagnostic() (tea.Model, tea.Cmd) {
	text := m.diagnostic()
	if text == "" {
		return m, nil
	}
	return m, copyDiagnostic(m.copy, text)
}

// setOutcome guarda el resultado y el mensaje para el usuario
func (m *Model) setOutcome(outcome domain.DownloadOutcome) {
	m.outcome = &outcome
	if outcome.Succeeded() {
		m.message = "Saved to " + outcome.Path
		return
	}
	m.message = outcome.Kind().UserMessage()
}

func (m *Model) setFocus(f field) {
	m.focus = f
	m.linkInput.Blur()
	m.outputInput.Blur()
	switch f {
	case fieldLink:
		m.linkInput.Focus()
	case fieldOutput:
		m.outputInput.Focus()
	}
}

// updateFocused pasa el mensaje al input con foco
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case fieldLink:
		m.linkInput, cmd = m.linkInput.Update(msg)
	case fieldOutput:
		m.outputInput, cmd = m.outputInput.Update(msg)
	}
	return m, cmd
}
