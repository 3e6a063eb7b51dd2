package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// TaskFunc is the function signature for scheduled tasks.
type TaskFunc func(ctx context.Context) error

// TaskConfig contains configuration for a scheduled task.
type TaskConfig struct {
	ID         string
	Name       string
	Cron       string // "0 4 * * *" for 04:00 daily
	Func       TaskFunc
	RunOnStart bool
}

// TaskInfo is a snapshot of a registered task.
type TaskInfo struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Cron    string     `json:"cron"`
	LastRun *time.Time `json:"last_run,omitempty"`
	LastErr string     `json:"last_error,omitempty"`
	NextRun *time.Time `json:"next_run,omitempty"`
	Running bool       `json:"running"`
}

type taskEntry struct {
	config  TaskConfig
	job     gocron.Job
	lastRun *time.Time
	lastErr error
	running bool
}

// Scheduler runs maintenance tasks in the background.
type Scheduler struct {
	gocron gocron.Scheduler
	logger zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	tasks  map[string]*taskEntry
	mu     sync.RWMutex
	wg     sync.WaitGroup
}

// New creates a new scheduler.
func New(logger zerolog.Logger) (*Scheduler, error) {
	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		gocron: gs,
		logger: logger.With().Str("component", "scheduler").Logger(),
		ctx:    ctx,
		cancel: cancel,
		tasks:  make(map[string]*taskEntry),
	}, nil
}

// RegisterTask registers a new scheduled task. An empty cron disables the task.
func (s *Scheduler) RegisterTask(config TaskConfig) error {
	if config.Cron == "" {
		s.logger.Debug().Str("id", config.ID).Msg("task disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[config.ID]; exists {
		return fmt.Errorf("task with ID %q already registered", config.ID)
	}

	job, err := s.gocron.NewJob(
		gocron.CronJob(config.Cron, false),
		gocron.NewTask(func() { s.executeTask(config.ID) }),
		gocron.WithName(config.Name),
		gocron.WithTags(config.ID),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("create job for task %q: %w", config.ID, err)
	}

	s.tasks[config.ID] = &taskEntry{config: config, job: job}

	s.logger.Info().
		Str("id", config.ID).
		Str("cron", config.Cron).
		Bool("run_on_start", config.RunOnStart).
		Msg("registered task")

	return nil
}

// executeTask runs a task and records its result.
func (s *Scheduler) executeTask(taskID string) {
	s.mu.Lock()
	entry, exists := s.tasks[taskID]
	if !exists || entry.running {
		s.mu.Unlock()
		return
	}
	entry.running = true
	s.mu.Unlock()

	start := time.Now()
	err := entry.config.Func(s.ctx)

	s.mu.Lock()
	entry.running = false
	entry.lastRun = &start
	entry.lastErr = err
	s.mu.Unlock()

	log := s.logger.With().Str("id", taskID).Dur("duration", time.Since(start)).Logger()
	if err != nil {
		log.Error().Err(err).Msg("task failed")
		return
	}
	log.Debug().Msg("task completed")
}

// Start starts the scheduler and runs any tasks configured with RunOnStart.
func (s *Scheduler) Start() {
	s.gocron.Start()

	s.mu.RLock()
	var startup []string
	for id, entry := range s.tasks {
		if entry.config.RunOnStart {
			startup = append(startup, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range startup {
		s.runAsync(id)
	}
}

// Stop cancels running tasks and shuts gocron down.
func (s *Scheduler) Stop() error {
	s.cancel()
	err := s.gocron.Shutdown()
	s.wg.Wait()
	return err
}

// RunNow triggers a task immediately.
func (s *Scheduler) RunNow(taskID string) error {
	s.mu.RLock()
	entry, exists := s.tasks[taskID]
	running := exists && entry.running
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("task %q not found", taskID)
	}
	if running {
		return fmt.Errorf("task %q is already running", taskID)
	}

	s.runAsync(taskID)
	return nil
}

func (s *Scheduler) runAsync(taskID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.executeTask(taskID)
	}()
}

// GetTask returns information about a specific task.
func (s *Scheduler) GetTask(taskID string) (*TaskInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("task %q not found", taskID)
	}

	info := &TaskInfo{
		ID:      entry.config.ID,
		Name:    entry.config.Name,
		Cron:    entry.config.Cron,
		LastRun: entry.lastRun,
		Running: entry.running,
	}
	if entry.lastErr != nil {
		info.LastErr = entry.lastErr.Error()
	}
	if next, err := entry.job.NextRun(); err == nil {
		info.NextRun = &next
	}

	return info, nil
}
