package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elsanchez/tubefetch/internal/domain"
	"github.com/elsanchez/tubefetch/internal/repository"
)

const defaultListLimit = 50

// Handlers maneja las peticiones del servidor
type Handlers struct {
	downloadRepo repository.DownloadRepository
	queue        *QueueManager
	defaults     Defaults
}

// Defaults son los valores usados cuando el cliente no los envía
type Defaults struct {
	Quality   domain.QualityTier
	OutputDir string
}

// NewHandlers crea un nuevo conjunto de handlers
func NewHandlers(downloadRepo repository.DownloadRepository, queue *QueueManager, defaults Defaults) *Handlers {
	return &Handlers{
		downloadRepo: downloadRepo,
		queue:        queue,
		defaults:     defaults,
	}
}

// AddPayload es el payload para añadir una descarga
type AddPayload struct {
	URL       string `json:"url"`
	Quality   string `json:"quality,omitempty"`
	OutputDir string `json:"output_dir,omitempty"`
}

// IDPayload identifica una descarga (status, wait)
type IDPayload struct {
	ID          int64 `json:"id"`
	TimeoutSecs int   `json:"timeout_seconds,omitempty"`
}

// ListPayload es el payload para listar descargas
type ListPayload struct {
	Limit int `json:"limit"`
}

// DownloadView es la forma en que una descarga sale por el socket
type DownloadView struct {
	ID              int64      `json:"id"`
	RunID           string     `json:"run_id"`
	URL             string     `json:"url"`
	Quality         string     `json:"quality"`
	OutputDir       string     `json:"output_dir"`
	Status          string     `json:"status"`
	Plan            string     `json:"plan,omitempty"`
	ResolvedQuality string     `json:"resolved_quality,omitempty"`
	OutputPath      string     `json:"output_path,omitempty"`
	Bytes           int64      `json:"bytes,omitempty"`
	ErrorKind       string     `json:"error_kind,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	UserMessage     string     `json:"user_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func toView(dl *domain.Download) DownloadView {
	v := DownloadView{
		ID:              dl.ID,
		RunID:           dl.RunID,
		URL:             dl.URL,
		Quality:         dl.Quality,
		OutputDir:       dl.OutputDir,
		Status:          string(dl.Status),
		Plan:            string(dl.Plan),
		ResolvedQuality: dl.ResolvedQuality,
		OutputPath:      dl.OutputPath,
		Bytes:           dl.Bytes,
		ErrorKind:       string(dl.ErrorKind),
		ErrorMessage:    dl.ErrorMessage,
		CreatedAt:       dl.CreatedAt,
		CompletedAt:     dl.CompletedAt,
	}
	if dl.ErrorKind != "" {
		v.UserMessage = dl.ErrorKind.UserMessage()
	}
	return v
}

// HandleAdd encola una descarga
func (h *Handlers) HandleAdd(ctx context.Context, payload json.RawMessage) Response {
	var req AddPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return Response{Success: false, Error: fmt.Sprintf("invalid payload: %v", err)}
	}

	if req.URL == "" {
		return Response{Success: false, Error: "url is required"}
	}

	quality := h.defaults.Quality
	if req.Quality != "" {
		parsed, err := domain.ParseQualityTier(req.Quality)
		if err != nil {
			return Response{Success: false, Error: fmt.Sprintf("invalid quality: %v", err)}
		}
		quality = parsed
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = h.defaults.OutputDir
	}

	handle, err := h.queue.Submit(ctx, domain.NewDownloadRequest(req.URL, quality, outputDir))
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("submit download: %v", err)}
	}

	return jsonResponse(map[string]interface{}{
		"id":      handle.ID,
		"run_id":  handle.RunID,
		"quality": quality.String(),
		"status":  domain.StatusPending,
	})
}

// HandleStatus retorna el estado persistido de una descarga
func (h *Handlers) HandleStatus(ctx context.Context, payload json.RawMessage) Response {
	var req IDPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return Response{Success: false, Error: fmt.Sprintf("invalid payload: %v", err)}
	}
	if req.ID == 0 {
		return Response{Success: false, Error: "id is required"}
	}

	dl, err := h.downloadRepo.GetByID(ctx, req.ID)
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("get download: %v", err)}
	}

	return jsonResponse(toView(dl))
}

// HandleWait bloquea hasta que la descarga termine (o venza el timeout)
func (h *Handlers) HandleWait(ctx context.Context, payload json.RawMessage) Response {
	var req IDPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return Response{Success: false, Error: fmt.Sprintf("invalid payload: %v", err)}
	}
	if req.ID == 0 {
		return Response{Success: false, Error: "id is required"}
	}

	if handle, ok := h.queue.Handle(req.ID); ok {
		waitCtx := ctx
		if req.TimeoutSecs > 0 {
			var cancel context.CancelFunc
			waitCtx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutSecs)*time.Second)
			defer cancel()
		}
		if _, err := handle.Wait(waitCtx); err != nil {
			return Response{Success: false, Error: fmt.Sprintf("wait download: %v", err)}
		}
	}

	// El resultado ya quedó persistido antes de resolver el handle
	return h.HandleStatus(ctx, payload)
}

// HandleList lista las descargas recientes
func (h *Handlers) HandleList(ctx context.Context, payload json.RawMessage) Response {
	var req ListPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return Response{Success: false, Error: fmt.Sprintf("invalid payload: %v", err)}
		}
	}
	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}

	downloads, err := h.downloadRepo.GetRecent(ctx, req.Limit)
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("get downloads: %v", err)}
	}

	items := make([]DownloadView, 0, len(downloads))
	for _, dl := range downloads {
		items = append(items, toView(dl))
	}

	return jsonResponse(map[string]interface{}{
		"downloads": items,
		"count":     len(items),
	})
}

// HandleStats maneja la petición de estadísticas
func (h *Handlers) HandleStats(ctx context.Context) Response {
	stats, err := h.queue.GetStats(ctx)
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("get stats: %v", err)}
	}
	return jsonResponse(stats)
}

func jsonResponse(v interface{}) Response {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResponse(fmt.Errorf("encode response: %w", err))
	}
	return Response{Success: true, Data: data}
}
