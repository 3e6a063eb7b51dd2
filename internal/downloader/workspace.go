package downloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// WorkspacePrefix identifica los directorios temporales de descargas
	WorkspacePrefix = "tubefetch-"

	videoPartName = "video.mp4"
	audioPartName = "audio.mp4"
)

// Workspace es el directorio temporal de una ejecución de dos streams.
// Pertenece a una sola ejecución y se libera en todos los caminos de salida.
type Workspace struct {
	dir  string
	once sync.Once
	err  error
}

// NewWorkspace crea un workspace dentro de parent (o del tmp del sistema si está vacío)
func NewWorkspace(parent string) (*Workspace, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0755); err != nil {
			return nil, fmt.Errorf("create workspace parent: %w", err)
		}
	}

	dir, err := os.MkdirTemp(parent, WorkspacePrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	return &Workspace{dir: dir}, nil
}

// Dir retorna el directorio del workspace
func (w *Workspace) Dir() string { return w.dir }

// VideoPath es el destino fijo del stream de video
func (w *Workspace) VideoPath() string { return filepath.Join(w.dir, videoPartName) }

// AudioPath es el destino fijo del stream de audio
func (w *Workspace) AudioPath() string { return filepath.Join(w.dir, audioPartName) }

// Release elimina el workspace. Es idempotente.
func (w *Workspace) Release() error {
	w.once.Do(func() {
		if err := os.RemoveAll(w.dir); err != nil {
			w.err = fmt.Errorf("remove workspace: %w", err)
		}
	})
	return w.err
}

// SweepWorkspaces elimina workspaces huérfanos (de procesos terminados)
// más viejos que maxAge. Retorna cuántos se eliminaron.
func SweepWorkspaces(parent string, maxAge time.Duration) (int, error) {
	if parent == "" {
		parent = os.TempDir()
	}

	entries, err := os.ReadDir(parent)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read workspace parent: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), WorkspacePrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		if err := os.RemoveAll(filepath.Join(parent, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove stale workspace: %w", err)
		}
		removed++
	}

	return removed, nil
}
