package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elsanchez/tubefetch/internal/app"
	"github.com/elsanchez/tubefetch/internal/config"
	"github.com/elsanchez/tubefetch/internal/daemon"
	"github.com/elsanchez/tubefetch/internal/logger"
	"github.com/elsanchez/tubefetch/internal/scheduler"
)

const (
	version = "0.1.0"
)

func main() {
	configPath := flag.String("config", "", "config file")
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tubefetchd v%s\n", version)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "tubefetchd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Dir:    cfg.Logging.Dir,
	})
	defer log.Close()

	log.Info().Str("version", version).Msg("tubefetchd starting")

	engine, err := app.NewEngine(cfg, app.Options{}, log.Logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	log.Info().
		Str("data_dir", cfg.Paths.DataDir).
		Str("output_dir", cfg.Paths.OutputDir).
		Str("backend", cfg.Download.Backend).
		Msg("engine initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("start queue: %w", err)
	}
	log.Info().Int("workers", cfg.Download.Workers).Msg("queue manager started")

	// Tareas de mantenimiento
	sched, err := scheduler.New(log.WithComponent("scheduler"))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	if err := registerTasks(sched, cfg, engine, log); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	tier, _ := cfg.Download.Quality()
	handlers := daemon.NewHandlers(engine.DB.DownloadRepo, engine.Queue, daemon.Defaults{
		Quality:   tier,
		OutputDir: cfg.Paths.OutputDir,
	})

	server := daemon.NewServer(cfg.Paths.Socket, handlers, log.Logger)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	defer server.Stop()

	log.Info().Str("socket", cfg.Paths.Socket).Msg("tubefetchd is ready")

	// Esperar señal de terminación
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

	cancel()
	return nil
}

func registerTasks(sched *scheduler.Scheduler, cfg *config.Config, engine *app.Engine, log *logger.Logger) error {
	var pruneCron string
	if cfg.Maintenance.HistoryRetentionDays > 0 {
		pruneCron = cfg.Maintenance.PruneCron
	}
	retention := time.Duration(cfg.Maintenance.HistoryRetentionDays) * 24 * time.Hour

	tasks := []scheduler.TaskConfig{
		{
			ID:   scheduler.TaskPruneHistory,
			Name: "Prune download history",
			Cron: pruneCron,
			Func: scheduler.PruneHistoryTask(engine.DB.DownloadRepo, retention, log.WithComponent("prune")),
		},
		{
			ID:         scheduler.TaskSweepWorkspaces,
			Name:       "Sweep stale workspaces",
			Cron:       cfg.Maintenance.WorkspaceSweepCron,
			Func:       scheduler.SweepWorkspacesTask(cfg.Paths.WorkspaceDir, cfg.Maintenance.WorkspaceMaxAge, log.WithComponent("sweep")),
			RunOnStart: true,
		},
	}

	for _, task := range tasks {
		if err := sched.RegisterTask(task); err != nil {
			return fmt.Errorf("register task %s: %w", task.ID, err)
		}
	}
	return nil
}
