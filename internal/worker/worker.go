package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/hirewell/internal/metrics"
	"github.com/robfig/cron/v3"
)

// Worker runs registered tasks on cron schedules.
//
// A run that is still in progress when its next tick arrives is skipped, so
// a slow sweep never overlaps itself. Panics inside a task are recovered and
// logged by the cron chain.
type Worker struct {
	cron     *cron.Cron
	handlers map[string]JobHandler
	config   Config
	logger   *slog.Logger

	// baseCtx is canceled once shutdown gives up waiting.
	baseCtx context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	started bool

	// catchUp tracks runs started by CatchUp so Stop can wait for them.
	catchUp sync.WaitGroup
}

// New creates a new Worker with the given configuration.
// The worker must be started with Start() and stopped with Stop().
func New(config Config, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		),
	)

	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		cron:     c,
		handlers: make(map[string]JobHandler),
		config:   config,
		logger:   logger,
		baseCtx:  ctx,
		cancel:   cancel,
	}, nil
}

// Register schedules handler on a cron expression.
// The handler's Type() must be unique. Call this before Start().
func (w *Worker) Register(handler JobHandler, schedule string) error {
	taskType := handler.Type()
	if _, exists := w.handlers[taskType]; exists {
		return fmt.Errorf("handler already registered for task %s", taskType)
	}
	if err := ValidateSchedule(schedule); err != nil {
		return fmt.Errorf("register %s: %w", taskType, err)
	}

	if _, err := w.cron.AddFunc(schedule, func() {
		_ = w.execute(w.baseCtx, handler)
	}); err != nil {
		return fmt.Errorf("register %s: %w", taskType, err)
	}

	w.handlers[taskType] = handler
	w.logger.Info("Scheduled task", "task", taskType, "schedule", schedule)
	return nil
}

// Start begins running tasks on their schedules. It does not block.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true
	w.cron.Start()
	w.logger.Info("Worker started", "tasks", len(w.handlers))
}

// Stop stops scheduling new runs and waits for running tasks to finish.
// It respects the configured ShutdownTimeout.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	cronDone := w.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		w.catchUp.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Worker stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("Worker shutdown timeout exceeded, canceling running tasks")
	}
	w.cancel()
}

// CatchUp runs the given tasks once, one after another, in the background.
// It covers ticks missed while the process was down. Stop waits for these
// runs like it waits for scheduled ones.
func (w *Worker) CatchUp(taskTypes ...string) error {
	handlers := make([]JobHandler, 0, len(taskTypes))
	for _, taskType := range taskTypes {
		handler, ok := w.handlers[taskType]
		if !ok {
			return fmt.Errorf("no handler registered for task: %s", taskType)
		}
		handlers = append(handlers, handler)
	}

	w.catchUp.Add(1)
	go func() {
		defer w.catchUp.Done()
		for _, handler := range handlers {
			if w.baseCtx.Err() != nil {
				return
			}
			_ = w.execute(w.baseCtx, handler)
		}
	}()
	return nil
}

// RunNow runs a registered task immediately and returns its error.
func (w *Worker) RunNow(ctx context.Context, taskType string) error {
	handler, ok := w.handlers[taskType]
	if !ok {
		return fmt.Errorf("no handler registered for task: %s", taskType)
	}
	return w.execute(ctx, handler)
}

// execute runs the handler with a timeout context and records the outcome.
func (w *Worker) execute(ctx context.Context, handler JobHandler) error {
	taskType := handler.Type()
	logger := w.logger.With("task", taskType)

	taskCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	logger.Info("Running task")
	start := time.Now()

	if err := handler.Handle(taskCtx); err != nil {
		duration := time.Since(start)
		metrics.TaskFailed(taskType, duration)
		logger.Error("Task failed", "error", err, "duration", duration)
		return err
	}

	duration := time.Since(start)
	metrics.TaskCompleted(taskType, duration)
	logger.Info("Task completed", "duration", duration)
	return nil
}
