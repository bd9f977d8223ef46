package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidSchedule is returned for a daily schedule that cannot be parsed
var ErrInvalidSchedule = errors.New("invalid daily schedule")

// Job is one unit of nightly work. day is the business day that just ended,
// at midnight in the trigger's location.
type Job struct {
	Name string
	Run  func(ctx context.Context, day time.Time) error
}

// DailyTriggerConfig holds configuration for the daily trigger
type DailyTriggerConfig struct {
	Hour   int
	Minute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
	// JobTimeout bounds each job run; zero means no bound
	JobTimeout time.Duration
	Location   *time.Location
}

// DefaultDailyTriggerConfig runs at 00:15 store time, checked every minute
func DefaultDailyTriggerConfig() DailyTriggerConfig {
	return DailyTriggerConfig{
		Hour:          0,
		Minute:        15,
		CheckInterval: time.Minute,
		JobTimeout:    10 * time.Minute,
		Location:      time.Local,
	}
}

// ParseDailySchedule reads the minute and hour fields of a cron expression
// such as "15 0 * * *". The remaining fields must be "*".
func ParseDailySchedule(expr string) (hour, minute int, err error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return 0, 0, fmt.Errorf("%w: %q needs 5 fields", ErrInvalidSchedule, expr)
	}
	for _, f := range parts[2:] {
		if f != "*" {
			return 0, 0, fmt.Errorf("%w: %q must run every day", ErrInvalidSchedule, expr)
		}
	}

	minute, err = strconv.Atoi(parts[0])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute must be 0-59, got %q", ErrInvalidSchedule, parts[0])
	}
	hour, err = strconv.Atoi(parts[1])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour must be 0-23, got %q", ErrInvalidSchedule, parts[1])
	}
	return hour, minute, nil
}

// DailyTrigger runs its jobs once per day at the configured time
type DailyTrigger struct {
	config DailyTriggerConfig
	jobs   []Job
	clock  func() time.Time
	logger *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewDailyTrigger creates a new daily trigger. A nil clock uses time.Now.
func NewDailyTrigger(config DailyTriggerConfig, clock func() time.Time, logger *zap.Logger, jobs ...Job) *DailyTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyTrigger{
		config: config,
		jobs:   jobs,
		clock:  clock,
		logger: logger,
	}
}

// Start starts the trigger loop
func (d *DailyTrigger) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = true
	d.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go d.runLoop(ctx)

	d.logger.Info("Daily trigger started",
		zap.Int("hour", d.config.Hour),
		zap.Int("minute", d.config.Minute),
		zap.String("location", d.config.Location.String()),
		zap.Int("jobs", len(d.jobs)),
	)
	return nil
}

// Stop stops the trigger and waits for a running job to return
func (d *DailyTrigger) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = false
	d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Daily trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *DailyTrigger) runLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Tick runs the jobs if the scheduled minute has come and they have not
// run today. It reports whether they ran.
func (d *DailyTrigger) Tick(ctx context.Context) bool {
	now := d.clock().In(d.config.Location)
	if now.Hour() != d.config.Hour || now.Minute() != d.config.Minute {
		return false
	}

	currentDate := now.Format(time.DateOnly)
	d.mu.Lock()
	if d.lastRunDate == currentDate {
		d.mu.Unlock()
		return false
	}
	d.lastRunDate = currentDate
	d.mu.Unlock()

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, d.config.Location)
	d.RunNow(ctx, midnight.AddDate(0, 0, -1))
	return true
}

// RunNow runs every job for day in order. A failing job is logged and
// does not stop the ones after it.
func (d *DailyTrigger) RunNow(ctx context.Context, day time.Time) {
	for _, job := range d.jobs {
		jobCtx, cancel := ctx, context.CancelFunc(func() {})
		if d.config.JobTimeout > 0 {
			jobCtx, cancel = context.WithTimeout(ctx, d.config.JobTimeout)
		}

		started := time.Now()
		err := job.Run(jobCtx, day)
		cancel()

		fields := []zap.Field{
			zap.String("job", job.Name),
			zap.String("day", day.Format(time.DateOnly)),
			zap.Duration("duration", time.Since(started)),
		}
		if err != nil {
			d.logger.Error("Nightly job failed", append(fields, zap.Error(err))...)
			continue
		}
		d.logger.Info("Nightly job finished", fields...)
	}
}
