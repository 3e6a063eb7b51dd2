package download

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elsanchez/tubefetch/internal/domain"
)

type fixedWaiter struct {
	outcome domain.DownloadOutcome
}

func (w fixedWaiter) Wait(ctx context.Context) (domain.DownloadOutcome, error) {
	return w.outcome, nil
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func press(m Model, k tea.KeyType) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

// runDownload presses enter and feeds the async messages back into the model
func runDownload(t *testing.T, m Model) Model {
	t.Helper()

	m, cmd := press(m, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.True(t, m.running)

	next, cmd := m.Update(cmd())
	m = next.(Model)
	if cmd != nil {
		next, _ = m.Update(cmd())
		m = next.(Model)
	}
	return m
}

func TestModel_SubmitsFormValues(t *testing.T) {
	var got domain.DownloadRequest
	submit := func(ctx context.Context, req domain.DownloadRequest) (Waiter, error) {
		got = req
		out := domain.Success("/videos/Clip.mp4")
		out.Bytes = 2048
		return fixedWaiter{outcome: out}, nil
	}

	m := NewModel(submit, "/videos", domain.Tier720p)
	m = typeText(m, "https://youtu.be/abc")

	// Cambiar a High desde el selector de calidad
	m, _ = press(m, tea.KeyTab)
	m, _ = press(m, tea.KeyTab)
	assert.Equal(t, fieldQuality, m.focus)
	m, _ = press(m, tea.KeyRight)

	m = runDownload(t, m)

	assert.Equal(t, "https://youtu.be/abc", got.Link())
	assert.Equal(t, domain.Tier1080p, got.Quality())
	assert.Equal(t, "/videos", got.OutputDir())

	assert.False(t, m.running)
	assert.Contains(t, m.View(), "Saved to /videos/Clip.mp4")
	assert.Contains(t, m.View(), "2.0 kB")
}

func TestModel_DefaultPreset(t *testing.T) {
	assert.Equal(t, domain.Tier720p, NewModel(nil, "", domain.Tier720p).Request().Quality())
	assert.Equal(t, domain.Tier360p, NewModel(nil, "", domain.Tier360p).Request().Quality())
	// Tiers sin preset usan High
	assert.Equal(t, domain.Tier1080p, NewModel(nil, "", domain.Tier480p).Request().Quality())
}

func TestModel_ShowsKindMessage(t *testing.T) {
	submit := func(ctx context.Context, req domain.DownloadRequest) (Waiter, error) {
		return fixedWaiter{outcome: domain.Failure(domain.KindStreamUnavailable, "no 360p", nil)}, nil
	}

	m := NewModel(submit, "/videos", domain.Tier360p)
	m = typeText(m, "https://youtu.be/abc")
	m = runDownload(t, m)

	assert.Contains(t, m.View(), "Could not download the video. No stream available")

	// Sin diagnóstico copiable para fallos conocidos
	_, cmd := press(m, tea.KeyCtrlY)
	assert.Nil(t, cmd)
}

func TestModel_CopiesUnknownFailureDiagnostic(t *testing.T) {
	submit := func(ctx context.Context, req domain.DownloadRequest) (Waiter, error) {
		return fixedWaiter{outcome: domain.Failure(domain.KindUnknownFailure, "panic: boom", nil)}, nil
	}

	m := NewModel(submit, "/videos", domain.Tier720p)
	var copied string
	m.copy = func(s string) error {
		copied = s
		return nil
	}

	m = typeText(m, "https://youtu.be/abc")
	m = runDownload(t, m)
	assert.Contains(t, m.View(), "An error occurred")
	assert.Contains(t, m.View(), "ctrl+y")

	m, cmd := press(m, tea.KeyCtrlY)
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)

	assert.Contains(t, copied, "panic: boom")
	assert.Contains(t, m.View(), "Details copied")
}

func TestModel_SubmitError(t *testing.T) {
	submit := func(ctx context.Context, req domain.DownloadRequest) (Waiter, error) {
		return nil, errors.New("queue stopped")
	}

	m := NewModel(submit, "/videos", domain.Tier720p)
	m = runDownload(t, m)

	require.NotNil(t, m.outcome)
	assert.Equal(t, domain.KindUnknownFailure, m.outcome.Kind())
	assert.False(t, m.running)
}

func TestModel_EnterIgnoredWhileRunning(t *testing.T) {
	m := NewModel(nil, "/videos", domain.Tier720p)
	m.running = true

	_, cmd := press(m, tea.KeyEnter)
	assert.Nil(t, cmd)
}
