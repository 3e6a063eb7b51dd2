package download

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/tubefetch/internal/domain"
)

// Async commands that return tea.Msg

func submitDownload(submit SubmitFunc, req domain.DownloadRequest) tea.Cmd {
	return func() tea.Msg {
		waiter, err := submit(context.Background(), req)
		return submittedMsg{waiter: waiter, err: err}
	}
}

func waitOutcome(waiter Waiter) tea.Cmd {
	return func() tea.Msg {
		outcome, err := waiter.Wait(context.Background())
		if err != nil {
			outcome = domain.Failure(domain.KindUnknownFailure, "wait for download", err)
		}
		return outcomeMsg{outcome: outcome}
	}
}

func copyDiagnostic(copy func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: copy(text)}
	}
}
