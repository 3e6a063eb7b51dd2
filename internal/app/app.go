package app

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/elsanchez/tubefetch/internal/config"
	"github.com/elsanchez/tubefetch/internal/daemon"
	"github.com/elsanchez/tubefetch/internal/downloader"
	"github.com/elsanchez/tubefetch/internal/postprocessor"
	"github.com/elsanchez/tubefetch/internal/repository/sqlite"
)

// Engine agrupa todo lo necesario para ejecutar descargas:
// base de datos, orquestador y cola
type Engine struct {
	DB           *sqlite.Database
	Orchestrator *downloader.Orchestrator
	Queue        *daemon.QueueManager
}

// Options ajusta el motor según quién lo use (daemon o CLI)
type Options struct {
	Workers       int  // 0 = cfg.Download.Workers
	SkipToolCheck bool // no verificar ffmpeg/yt-dlp
	NoSideEffects bool // sin notify-send ni clipboard
	SkipRecovery  bool // no tocar descargas de otro proceso (daemon)
}

// NewEngine inicializa base de datos, catálogo, muxer, orquestador y cola.
// La cola no se arranca; usar Start.
func NewEngine(cfg *config.Config, opts Options, logger zerolog.Logger) (*Engine, error) {
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.OutputDir, cfg.Paths.CookiesDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	db, err := sqlite.NewDatabase(cfg.Paths.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	catalogCfg := downloader.CatalogConfig{
		Backend:     cfg.Download.Backend,
		YtDlpPath:   cfg.Tools.YtDlp,
		MaxRate:     cfg.Download.MaxRate,
		Timeout:     cfg.Download.Timeout,
		AccountRepo: db.AccountRepo,
	}

	if !opts.SkipToolCheck {
		if err := downloader.CheckDependencies(catalogCfg); err != nil {
			db.Close()
			return nil, err
		}
		if err := postprocessor.CheckFFmpegInstalled(cfg.Tools.FFmpeg, cfg.Tools.FFprobe); err != nil {
			db.Close()
			return nil, fmt.Errorf("ffmpeg check: %w", err)
		}
	}

	catalog, err := downloader.NewCatalog(catalogCfg, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	muxer := postprocessor.NewFFmpegMuxer(cfg.Tools.FFmpeg, cfg.Tools.FFprobe, logger)
	orch := downloader.NewOrchestrator(catalog, muxer, downloader.OrchestratorOptions{
		WorkspaceDir: cfg.Paths.WorkspaceDir,
		Container:    cfg.Download.Container,
	}, logger)

	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.Download.Workers
	}

	queue := daemon.NewQueueManager(db.DownloadRepo, orch, daemon.QueueOptions{
		Workers:      workers,
		Notify:       cfg.Download.Notify && !opts.NoSideEffects,
		CopyPath:     cfg.Download.CopyPath && !opts.NoSideEffects,
		SkipRecovery: opts.SkipRecovery,
	}, logger)

	return &Engine{
		DB:           db,
		Orchestrator: orch,
		Queue:        queue,
	}, nil
}

// Start arranca la cola (recupera descargas interrumpidas)
func (e *Engine) Start(ctx context.Context) error {
	return e.Queue.Start(ctx)
}

// Close detiene la cola y cierra la base de datos
func (e *Engine) Close() error {
	e.Queue.Stop()
	return e.DB.Close()
}
