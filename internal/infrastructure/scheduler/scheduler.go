package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of background work. It returns how many records it handled.
type Task interface {
	Run(ctx context.Context, now time.Time) (int, error)
}

// TaskFunc adapts a function to Task
type TaskFunc func(ctx context.Context, now time.Time) (int, error)

// Run calls f
func (f TaskFunc) Run(ctx context.Context, now time.Time) (int, error) {
	return f(ctx, now)
}

// Worker is a background loop started with the server
type Worker interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// JobStats counts the runs of a periodic job
type JobStats struct {
	Runs      int64
	Failures  int64
	Processed int64
}

// PeriodicJob runs a task at a fixed interval, e.g. the ticket expiry sweep
type PeriodicJob struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	task     Task
	logger   *zap.Logger
	now      func() time.Time

	runs      atomic.Int64
	failures  atomic.Int64
	processed atomic.Int64

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewPeriodicJob creates a periodic job; timeout bounds every run
func NewPeriodicJob(name string, interval, timeout time.Duration, task Task, logger *zap.Logger) (*PeriodicJob, error) {
	if interval <= 0 || task == nil {
		return nil, ErrInvalidConfig
	}
	if timeout <= 0 {
		timeout = interval
	}
	return &PeriodicJob{
		name:     name,
		interval: interval,
		timeout:  timeout,
		task:     task,
		logger:   logger.With(zap.String("job", name)),
		now:      time.Now,
	}, nil
}

// Name returns the job name
func (j *PeriodicJob) Name() string {
	return j.name
}

// Start starts the loop; the first run happens after one interval
func (j *PeriodicJob) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.isRunning {
		j.mu.Unlock()
		return nil
	}
	j.isRunning = true
	j.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	j.cancel = cancel

	j.wg.Add(1)
	go j.runLoop(ctx)

	j.logger.Info("Periodic job started", zap.Duration("interval", j.interval))
	return nil
}

// Stop stops the loop and waits for a run in progress
func (j *PeriodicJob) Stop(ctx context.Context) error {
	j.mu.Lock()
	if !j.isRunning {
		j.mu.Unlock()
		return nil
	}
	j.isRunning = false
	j.mu.Unlock()

	if j.cancel != nil {
		j.cancel()
	}
	return waitGroup(ctx, &j.wg, j.logger, "Periodic job")
}

func (j *PeriodicJob) runLoop(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = j.RunOnce(ctx)
		}
	}
}

// RunOnce runs the task immediately
func (j *PeriodicJob) RunOnce(ctx context.Context) (int, error) {
	runCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := j.now()
	j.runs.Add(1)
	n, err := j.task.Run(runCtx, start)
	if err != nil {
		j.failures.Add(1)
		j.logger.Error("Periodic job failed", zap.Error(err), zap.Int("processed", n))
		return n, err
	}
	j.processed.Add(int64(n))
	if n > 0 {
		j.logger.Info("Periodic job completed",
			zap.Int("processed", n),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return n, nil
}

// Stats returns the job counters
func (j *PeriodicJob) Stats() JobStats {
	return JobStats{
		Runs:      j.runs.Load(),
		Failures:  j.failures.Load(),
		Processed: j.processed.Load(),
	}
}

// Group starts and stops several workers together
type Group struct {
	workers []Worker
	logger  *zap.Logger
}

// NewGroup creates a worker group
func NewGroup(logger *zap.Logger, workers ...Worker) *Group {
	return &Group{workers: workers, logger: logger}
}

// Add appends a worker
func (g *Group) Add(w Worker) {
	g.workers = append(g.workers, w)
}

// Start starts every worker; on failure the already started ones are stopped
func (g *Group) Start(ctx context.Context) error {
	for i, w := range g.workers {
		if err := w.Start(ctx); err != nil {
			for _, started := range g.workers[:i] {
				_ = started.Stop(ctx)
			}
			return err
		}
	}
	return nil
}

// Stop stops the workers in reverse order and returns the first error
func (g *Group) Stop(ctx context.Context) error {
	var first error
	for i := len(g.workers) - 1; i >= 0; i-- {
		if err := g.workers[i].Stop(ctx); err != nil {
			g.logger.Warn("Worker stop failed", zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup, logger *zap.Logger, what string) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info(what + " stopped")
		return nil
	case <-ctx.Done():
		logger.Warn(what + " stop timed out")
		return ctx.Err()
	}
}
