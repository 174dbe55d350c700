package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DailyTriggerConfig holds configuration for the daily trigger
type DailyTriggerConfig struct {
	// Hour is the local hour (0..23) the task runs at
	Hour int
	// Location is the time zone the hour is read in
	Location *time.Location
	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
	// Timeout bounds one run
	Timeout time.Duration
}

// DefaultDailyTriggerConfig runs at local midnight in Dakar
func DefaultDailyTriggerConfig() DailyTriggerConfig {
	loc, err := time.LoadLocation("Africa/Dakar")
	if err != nil {
		loc = time.UTC
	}
	return DailyTriggerConfig{
		Hour:          0,
		Location:      loc,
		CheckInterval: time.Minute,
		Timeout:       10 * time.Minute,
	}
}

// DailyTrigger runs a task once per local day during the configured hour.
// A server started after that hour waits for the next day.
type DailyTrigger struct {
	name   string
	config DailyTriggerConfig
	task   Task
	logger *zap.Logger
	now    func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewDailyTrigger creates a daily trigger
func NewDailyTrigger(name string, config DailyTriggerConfig, task Task, logger *zap.Logger) (*DailyTrigger, error) {
	if task == nil {
		return nil, ErrInvalidConfig
	}
	if config.Hour < 0 || config.Hour > 23 {
		return nil, ErrInvalidHour
	}
	defaults := DefaultDailyTriggerConfig()
	if config.Location == nil {
		config.Location = defaults.Location
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = defaults.CheckInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	return &DailyTrigger{
		name:   name,
		config: config,
		task:   task,
		logger: logger.With(zap.String("job", name)),
		now:    time.Now,
	}, nil
}

// Start starts the trigger
func (c *DailyTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Daily trigger started",
		zap.Int("hour", c.config.Hour),
		zap.String("location", c.config.Location.String()),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop stops the trigger
func (c *DailyTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	return waitGroup(ctx, &c.wg, c.logger, "Daily trigger")
}

func (c *DailyTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the task if the local hour matches and it has not run today.
// It reports whether the task was started.
func (c *DailyTrigger) checkAndTrigger(ctx context.Context) bool {
	now := c.now().In(c.config.Location)
	currentDate := now.Format("2006-01-02")

	if now.Hour() != c.config.Hour {
		return false
	}

	c.mu.Lock()
	if c.lastRunDate == currentDate {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = currentDate
	c.mu.Unlock()

	c.logger.Info("Triggering daily task", zap.String("date", currentDate))
	c.run(ctx, now)
	return true
}

// TriggerNow runs the task immediately regardless of the hour
func (c *DailyTrigger) TriggerNow(ctx context.Context) (int, error) {
	return c.run(ctx, c.now().In(c.config.Location))
}

func (c *DailyTrigger) run(ctx context.Context, now time.Time) (int, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	n, err := c.task.Run(runCtx, now)
	if err != nil {
		c.logger.Error("Daily task failed", zap.Error(err), zap.Int("processed", n))
		return n, err
	}
	c.logger.Info("Daily task completed", zap.Int("processed", n))
	return n, nil
}
