package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/elsanchez/tubefetch/internal/domain"
	"github.com/elsanchez/tubefetch/internal/postprocessor"
	"github.com/elsanchez/tubefetch/internal/resolver"
)

// StateFunc recibe cada cambio de etapa de una ejecución
type StateFunc func(state domain.RunState)

// Orchestrator ejecuta una descarga completa: validación, catálogo, plan,
// transferencia(s) y mux. Cada ejecución produce exactamente un resultado.
type Orchestrator struct {
	catalog      Catalog
	muxer        postprocessor.Muxer
	workspaceDir string
	container    string
	logger       zerolog.Logger
}

// OrchestratorOptions configura el orquestador
type OrchestratorOptions struct {
	WorkspaceDir string // padre de los workspaces temporales ("" = tmp del sistema)
	Container    string // contenedor combinado requerido ("" = mp4)
}

// NewOrchestrator crea un orquestador
func NewOrchestrator(catalog Catalog, muxer postprocessor.Muxer, opts OrchestratorOptions, logger zerolog.Logger) *Orchestrator {
	if opts.Container == "" {
		opts.Container = domain.DefaultContainer
	}
	return &Orchestrator{
		catalog:      catalog,
		muxer:        muxer,
		workspaceDir: opts.WorkspaceDir,
		container:    opts.Container,
		logger:       logger.With().Str("component", "orchestrator").Logger(),
	}
}

// Run ejecuta la petición. Nunca retorna error: todo fallo va en el resultado.
// Si runID está vacío se genera uno.
func (o *Orchestrator) Run(ctx context.Context, runID string, req domain.DownloadRequest, onState StateFunc) (outcome domain.DownloadOutcome) {
	if runID == "" {
		runID = uuid.NewString()
	}
	started := time.Now()

	log := o.logger.With().
		Str("run_id", runID).
		Str("url", req.Link()).
		Str("quality", req.Quality().String()).
		Logger()

	notify := func(state domain.RunState) {
		log.Debug().Str("state", string(state)).Msg("run state")
		if onState != nil {
			onState(state)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("run panicked")
			outcome = domain.Failure(domain.KindUnknownFailure, fmt.Sprintf("panic: %v\n%s", r, debug.Stack()), nil)
		}
		outcome.RunID = runID
		outcome.Duration = time.Since(started)

		if outcome.Succeeded() {
			log.Info().
				Str("plan", string(outcome.Plan)).
				Str("tier", outcome.Tier.String()).
				Str("path", outcome.Path).
				Dur("elapsed", outcome.Duration).
				Msg("download completed")
		} else {
			log.Warn().
				Str("kind", string(outcome.Kind())).
				Err(outcome.Err).
				Msg("download failed")
		}
		notify(domain.StateDone)
	}()

	// 1. Validación: nada de red si la entrada es inválida
	notify(domain.StateValidating)
	if err := ValidateRequest(req); err != nil {
		return domain.Failure(domain.KindInvalidInput, "validate request", err)
	}
	if err := ctx.Err(); err != nil {
		return canceled(err)
	}

	// 2. Catálogo
	notify(domain.StateResolvingCatalog)
	catalog, err := o.catalog.ListStreams(ctx, req.Link())
	if err != nil {
		if ctx.Err() != nil {
			return canceled(ctx.Err())
		}
		return domain.Failure(domain.KindCatalogUnavailable, catalogDetail(err), err)
	}

	// 3. Plan
	notify(domain.StatePlanning)
	plan, err := resolver.Resolve(req.Quality(), catalog, resolver.Options{Container: o.container})
	if err != nil {
		var dlErr *domain.DownloadError
		if errors.As(err, &dlErr) {
			return domain.DownloadOutcome{Err: dlErr}
		}
		return domain.Failure(domain.KindUnknownFailure, "resolve plan", err)
	}
	log.Debug().Str("plan", string(plan.Kind)).Str("tier", plan.Tier.String()).Msg("plan resolved")

	if err := ctx.Err(); err != nil {
		return canceled(err)
	}

	// 4. Transferencia (+ mux)
	notify(domain.StateTransferring)
	switch plan.Kind {
	case domain.PlanDual:
		outcome = o.runDual(ctx, req, catalog, plan, notify)
	default:
		outcome = o.runSingle(ctx, req, catalog, plan)
	}
	outcome.Plan = plan.Kind
	outcome.Tier = plan.Tier
	return outcome
}

// runSingle transfiere un stream progresivo directo al destino
func (o *Orchestrator) runSingle(ctx context.Context, req domain.DownloadRequest, catalog *domain.StreamCatalog, plan resolver.Plan) domain.DownloadOutcome {
	dest := filepath.Join(req.OutputDir(), filenameFor(plan.Stream, catalog))
	partial := removePartial(dest)
	defer partial.cleanup()

	written, err := o.catalog.Transfer(ctx, plan.Stream, dest)
	if err != nil {
		if ctx.Err() != nil {
			return canceled(ctx.Err())
		}
		return domain.Failure(domain.KindTransferFailed, fmt.Sprintf("transfer %s stream %s", plan.Tier, plan.Stream.Handle), err)
	}

	partial.commit()
	outcome := domain.Success(dest)
	outcome.Bytes = written
	return outcome
}

// runDual transfiere video y audio a un workspace propio y los combina en el destino
func (o *Orchestrator) runDual(ctx context.Context, req domain.DownloadRequest, catalog *domain.StreamCatalog, plan resolver.Plan, notify StateFunc) domain.DownloadOutcome {
	ws, err := NewWorkspace(o.workspaceDir)
	if err != nil {
		return domain.Failure(domain.KindUnknownFailure, "create workspace", err)
	}
	defer func() {
		if err := ws.Release(); err != nil {
			o.logger.Warn().Err(err).Str("dir", ws.Dir()).Msg("workspace not released")
		}
	}()

	videoBytes, err := o.catalog.Transfer(ctx, plan.Video, ws.VideoPath())
	if err != nil {
		if ctx.Err() != nil {
			return canceled(ctx.Err())
		}
		return domain.Failure(domain.KindTransferFailed, fmt.Sprintf("transfer video stream %s", plan.Video.Handle), err)
	}

	if err := ctx.Err(); err != nil {
		return canceled(err)
	}

	audioBytes, err := o.catalog.Transfer(ctx, plan.Audio, ws.AudioPath())
	if err != nil {
		if ctx.Err() != nil {
			return canceled(ctx.Err())
		}
		return domain.Failure(domain.KindTransferFailed, fmt.Sprintf("transfer audio stream %s", plan.Audio.Handle), err)
	}

	if err := ctx.Err(); err != nil {
		return canceled(err)
	}

	notify(domain.StateMuxing)
	dest := filepath.Join(req.OutputDir(), filenameFor(plan.Video, catalog))
	partial := removePartial(dest)
	defer partial.cleanup()

	meta := postprocessor.Metadata{Title: catalog.Title, Artist: catalog.Author}
	if err := o.muxer.Combine(ctx, ws.VideoPath(), ws.AudioPath(), dest, meta); err != nil {
		if ctx.Err() != nil {
			return canceled(ctx.Err())
		}
		return domain.Failure(domain.KindMuxFailed, "combine video and audio", err)
	}

	partial.commit()
	outcome := domain.Success(dest)
	outcome.Bytes = videoBytes + audioBytes
	return outcome
}

// ValidateRequest verifica link, calidad y directorio de salida
func ValidateRequest(req domain.DownloadRequest) error {
	if err := ValidateLink(req.Link()); err != nil {
		return fmt.Errorf("validate link: %w", err)
	}

	if !req.Quality().Valid() {
		return fmt.Errorf("unsupported quality: %s", req.Quality())
	}

	dir := req.OutputDir()
	if dir == "" {
		return errors.New("output directory is required")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output directory: %s is not a directory", dir)
	}

	// Probar escritura real
	probe, err := os.CreateTemp(dir, ".tubefetch-probe-*")
	if err != nil {
		return fmt.Errorf("output directory not writable: %w", err)
	}
	probe.Close()
	os.Remove(probe.Name())

	return nil
}

func canceled(err error) domain.DownloadOutcome {
	return domain.Failure(domain.KindUnknownFailure, "run canceled", err)
}

func catalogDetail(err error) string {
	switch {
	case errors.Is(err, ErrVideoPrivate):
		return "video is private"
	case errors.Is(err, ErrLoginRequired):
		return "video requires login"
	case errors.Is(err, ErrVideoNotFound):
		return "video not found"
	default:
		return "could not load video"
	}
}

func filenameFor(stream domain.StreamDescriptor, catalog *domain.StreamCatalog) string {
	if stream.DefaultFilename != "" {
		return filepath.Base(stream.DefaultFilename)
	}
	return DefaultFilename(catalog.Title, stream.Container)
}

// partialOutput borra el destino al salir, incluso por panic, salvo que la
// ejecución haya terminado bien o el archivo ya existiera antes
type partialOutput struct {
	path      string
	existed   bool
	committed bool
}

func removePartial(path string) *partialOutput {
	return &partialOutput{path: path, existed: fileExists(path)}
}

func (p *partialOutput) commit() { p.committed = true }

func (p *partialOutput) cleanup() {
	if p.committed || p.existed {
		return
	}
	os.Remove(p.path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
