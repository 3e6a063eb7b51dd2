package download

import (
	"context"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/tubefetch/internal/domain"
)

// Waiter entrega el resultado de una descarga enviada
type Waiter interface {
	Wait(ctx context.Context) (domain.DownloadOutcome, error)
}

// SubmitFunc envía la petición (normalmente QueueManager.Submit)
type SubmitFunc func(ctx context.Context, req domain.DownloadRequest) (Waiter, error)

// field es el control con foco dentro del formulario
type field int

const (
	fieldLink field = iota
	fieldOutput
	fieldQuality
	fieldCount
)

// preset es una opción de calidad del formulario
type preset struct {
	label string
	tier  domain.QualityTier
}

var presets = []preset{
	{label: "Low", tier: domain.Tier360p},
	{label: "Medium", tier: domain.Tier720p},
	{label: "High", tier: domain.Tier1080p},
}

// Model es el modelo Bubbletea del formulario de descarga
type Model struct {
	// Dependencias
	submit SubmitFunc
	copy   func(string) error

	// Componentes
	linkInput   textinput.Model
	outputInput textinput.Model
	spinner     spinner.Model

	// Estado
	focus    field
	preset   int
	running  bool
	outcome  *domain.DownloadOutcome
	message  string
	copied   bool
	quitting bool
	width    int
}

// NewModel crea el formulario con el directorio y la calidad por defecto
func NewModel(submit SubmitFunc, outputDir string, quality domain.QualityTier) Model {
	linkInput := textinput.New()
	linkInput.Placeholder = "https://www.youtube.com/watch?v=..."
	linkInput.CharLimit = 512
	linkInput.Width = 60
	linkInput.Focus()

	outputInput := textinput.New()
	outputInput.Placeholder = "Output directory"
	outputInput.CharLimit = 1024
	outputInput.Width = 60
	outputInput.SetValue(outputDir)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	selected := len(presets) - 1
	for i, p := range presets {
		if p.tier == quality {
			selected = i
		}
	}

	return Model{
		submit:      submit,
		copy:        clipboard.WriteAll,
		linkInput:   linkInput,
		outputInput: outputInput,
		spinner:     s,
		focus:       fieldLink,
		preset:      selected,
	}
}

// Init inicializa el modelo
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Request arma la petición con los valores actuales del formulario
func (m Model) Request() domain.DownloadRequest {
	return domain.NewDownloadRequest(m.linkInput.Value(), presets[m.preset].tier, m.outputInput.Value())
}

// diagnostic retorna el detalle copiable del último fallo desconocido
func (m Model) diagnostic() string {
	if m.outcome == nil || m.outcome.Kind() != domain.KindUnknownFailure {
		return ""
	}
	return m.outcome.Err.Diagnostic()
}
