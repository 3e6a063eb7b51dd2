package daemon

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/elsanchez/tubefetch/internal/domain"
	"github.com/elsanchez/tubefetch/internal/downloader"
	"github.com/elsanchez/tubefetch/internal/repository"
)

// Runner ejecuta una descarga completa (implementado por downloader.Orchestrator)
type Runner interface {
	Run(ctx context.Context, runID string, req domain.DownloadRequest, onState downloader.StateFunc) domain.DownloadOutcome
}

// ErrQueueStopped se retorna al enviar a una cola detenida
var ErrQueueStopped = errors.New("queue stopped")

// Handle es el resultado asíncrono de un Submit: entrega exactamente un resultado
type Handle struct {
	ID    int64
	RunID string

	done    chan struct{}
	once    sync.Once
	outcome domain.DownloadOutcome
}

func newHandle(id int64, runID string) *Handle {
	return &Handle{ID: id, RunID: runID, done: make(chan struct{})}
}

// Done se cierra cuando el resultado está disponible
func (h *Handle) Done() <-chan struct{} { return h.done }

// Outcome retorna el resultado si ya terminó
func (h *Handle) Outcome() (domain.DownloadOutcome, bool) {
	select {
	case <-h.done:
		return h.outcome, true
	default:
		return domain.DownloadOutcome{}, false
	}
}

// Wait bloquea hasta el resultado o hasta que ctx se cancele
func (h *Handle) Wait(ctx context.Context) (domain.DownloadOutcome, error) {
	select {
	case <-h.done:
		return h.outcome, nil
	case <-ctx.Done():
		return domain.DownloadOutcome{}, ctx.Err()
	}
}

// resolve publica el resultado una sola vez
func (h *Handle) resolve(outcome domain.DownloadOutcome) bool {
	resolved := false
	h.once.Do(func() {
		h.outcome = outcome
		close(h.done)
		resolved = true
	})
	return resolved
}

type job struct {
	dl     *domain.Download
	req    domain.DownloadRequest
	handle *Handle
}

// QueueOptions configura el queue manager
type QueueOptions struct {
	Workers   int
	QueueSize int
	Notify    bool // notify-send al terminar
	CopyPath  bool // copiar la ruta final al clipboard

	// SkipRecovery deja intactas las filas previas: la CLI comparte la base con el daemon
	SkipRecovery bool
}

// QueueManager gestiona la cola de descargas con workers paralelos
type QueueManager struct {
	downloadRepo repository.DownloadRepository
	runner       Runner
	opts         QueueOptions
	jobs         chan *job
	busy         atomic.Int32
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
	logger       zerolog.Logger

	mu      sync.Mutex
	handles map[int64]*Handle
	started bool
}

// NewQueueManager crea un nuevo gestor de cola
func NewQueueManager(downloadRepo repository.DownloadRepository, runner Runner, opts QueueOptions, logger zerolog.Logger) *QueueManager {
	ctx, cancel := context.WithCancel(context.Background())

	if opts.Workers <= 0 {
		opts.Workers = 3 // Default: 3 descargas paralelas
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}

	return &QueueManager{
		downloadRepo: downloadRepo,
		runner:       runner,
		opts:         opts,
		jobs:         make(chan *job, opts.QueueSize),
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger.With().Str("component", "queue").Logger(),
		handles:      make(map[int64]*Handle),
	}
}

// Start recupera el estado previo y arranca los workers
func (q *QueueManager) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return nil
	}
	q.started = true
	q.mu.Unlock()

	if !q.opts.SkipRecovery {
		if err := q.recover(ctx); err != nil {
			return fmt.Errorf("recover queue: %w", err)
		}
	}

	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}

	q.logger.Info().Int("workers", q.opts.Workers).Msg("queue manager started")
	return nil
}

// Stop detiene el queue manager; las ejecuciones en curso ven la cancelación
func (q *QueueManager) Stop() {
	q.logger.Info().Msg("queue manager stopping")
	q.cancel()
	q.wg.Wait()

	// Los jobs que ningún worker tomó también terminan con un resultado
	drained := 0
	for {
		select {
		case j := <-q.jobs:
			q.finish(j.handle, domain.Failure(domain.KindUnknownFailure, "queue stopped", ErrQueueStopped))
			drained++
		default:
			if drained > 0 {
				q.logger.Info().Int("drained", drained).Msg("queued downloads cancelled")
			}
			q.logger.Info().Msg("queue manager stopped")
			return
		}
	}
}

// Submit registra la petición y la encola. Retorna inmediatamente.
func (q *QueueManager) Submit(ctx context.Context, req domain.DownloadRequest) (*Handle, error) {
	if q.ctx.Err() != nil {
		return nil, ErrQueueStopped
	}

	dl := &domain.Download{
		RunID:     uuid.NewString(),
		URL:       req.Link(),
		Platform:  downloader.DetectPlatform(req.Link()),
		Quality:   req.Quality().String(),
		OutputDir: req.OutputDir(),
		Status:    domain.StatusPending,
		CreatedAt: time.Now(),
	}

	id, err := q.downloadRepo.Create(ctx, dl)
	if err != nil {
		return nil, fmt.Errorf("create download: %w", err)
	}
	dl.ID = id

	handle := q.track(dl)
	if err := q.enqueue(ctx, &job{dl: dl, req: req, handle: handle}); err != nil {
		q.finish(handle, domain.Failure(domain.KindUnknownFailure, "enqueue download", err))
		return nil, err
	}

	q.logger.Debug().Int64("id", id).Str("run_id", dl.RunID).Msg("download queued")
	return handle, nil
}

// Handle retorna el handle de una descarga aún no terminada
func (q *QueueManager) Handle(id int64) (*Handle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	h, ok := q.handles[id]
	return h, ok
}

func (q *QueueManager) track(dl *domain.Download) *Handle {
	handle := newHandle(dl.ID, dl.RunID)
	q.mu.Lock()
	q.handles[dl.ID] = handle
	q.mu.Unlock()
	return handle
}

func (q *QueueManager) enqueue(ctx context.Context, j *job) error {
	if q.ctx.Err() != nil {
		return ErrQueueStopped
	}
	select {
	case q.jobs <- j:
		return nil
	case <-q.ctx.Done():
		return ErrQueueStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// recover marca como fallidas las ejecuciones interrumpidas y re-encola las pendientes
func (q *QueueManager) recover(ctx context.Context) error {
	active, err := q.downloadRepo.GetActive(ctx)
	if err != nil {
		return err
	}
	for _, dl := range active {
		outcome := domain.Failure(domain.KindUnknownFailure, "interrupted by shutdown", nil)
		if err := q.downloadRepo.Complete(ctx, dl.ID, outcome); err != nil {
			q.logger.Error().Err(err).Int64("id", dl.ID).Msg("failed to mark interrupted download")
		}
	}

	pending, err := q.downloadRepo.GetPending(ctx)
	if err != nil {
		return err
	}
	for _, dl := range pending {
		req, err := dl.Request()
		if err != nil {
			q.downloadRepo.Complete(ctx, dl.ID, domain.Failure(domain.KindInvalidInput, "stored request", err))
			continue
		}

		handle := q.track(dl)
		select {
		case q.jobs <- &job{dl: dl, req: req, handle: handle}:
		default:
			// Cola llena: queda pending para el próximo arranque
			q.mu.Lock()
			delete(q.handles, dl.ID)
			q.mu.Unlock()
		}
	}

	if len(active)+len(pending) > 0 {
		q.logger.Info().Int("interrupted", len(active)).Int("requeued", len(pending)).Msg("queue recovered")
	}
	return nil
}

func (q *QueueManager) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case j := <-q.jobs:
			q.process(j)
		}
	}
}

// process ejecuta un job y publica su resultado en la base y en el handle
func (q *QueueManager) process(j *job) {
	q.busy.Add(1)
	defer q.busy.Add(-1)

	log := q.logger.With().Int64("id", j.dl.ID).Str("run_id", j.dl.RunID).Logger()

	var outcome domain.DownloadOutcome
	func() {
		defer func() {
			if r := recover(); r != nil {
				outcome = domain.Failure(domain.KindUnknownFailure, fmt.Sprintf("worker panic: %v", r), nil)
			}
		}()

		last := domain.StatusPending
		outcome = q.runner.Run(q.ctx, j.dl.RunID, j.req, func(state domain.RunState) {
			status := domain.StatusForState(state)
			if state == domain.StateDone || status == last {
				return
			}
			last = status
			if err := q.downloadRepo.UpdateStatus(q.ctx, j.dl.ID, status); err != nil {
				log.Warn().Err(err).Str("status", string(status)).Msg("failed to update status")
			}
		})
	}()

	q.finish(j.handle, outcome)

	if outcome.Succeeded() {
		q.sendNotification("Download Complete", fmt.Sprintf("Ready: %s", outcome.Path))
		q.copyToClipboard(outcome.Path)
	} else {
		q.sendNotification("Download Failed", fmt.Sprintf("%s: %s", outcome.Kind(), j.dl.URL))
	}
}

// finish persiste el resultado y resuelve el handle
func (q *QueueManager) finish(handle *Handle, outcome domain.DownloadOutcome) {
	if outcome.RunID == "" {
		outcome.RunID = handle.RunID
	}

	// Persistir aunque la cola se esté deteniendo
	if err := q.downloadRepo.Complete(context.Background(), handle.ID, outcome); err != nil {
		q.logger.Error().Err(err).Int64("id", handle.ID).Msg("failed to store outcome")
	}

	q.mu.Lock()
	delete(q.handles, handle.ID)
	q.mu.Unlock()

	handle.resolve(outcome)
}

// sendNotification envía una notificación al usuario
func (q *QueueManager) sendNotification(title, message string) {
	if !q.opts.Notify {
		return
	}
	cmd := exec.Command("notify-send", title, message)
	if err := cmd.Run(); err != nil {
		q.logger.Debug().Err(err).Msg("failed to send notification")
	}
}

// copyToClipboard copia la ruta final al clipboard
func (q *QueueManager) copyToClipboard(text string) {
	if !q.opts.CopyPath || clipboard.Unsupported {
		return
	}
	if err := clipboard.WriteAll(text); err != nil {
		q.logger.Debug().Err(err).Msg("failed to copy to clipboard")
		return
	}
	q.logger.Debug().Str("path", text).Msg("path copied to clipboard")
}

// GetStats retorna estadísticas de la cola
func (q *QueueManager) GetStats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int)

	for _, status := range []domain.DownloadStatus{
		domain.StatusPending,
		domain.StatusDownloading,
		domain.StatusProcessing,
		domain.StatusCompleted,
		domain.StatusFailed,
	} {
		count, err := q.downloadRepo.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		stats[string(status)] = count
	}

	stats["queued"] = len(q.jobs)
	stats["workers_total"] = q.opts.Workers
	stats["workers_busy"] = int(q.busy.Load())

	return stats, nil
}
