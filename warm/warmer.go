// Package warm keeps well-known cache keys populated ahead of requests.
package warm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/elinofoods/storefront/cache"
	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"
)

// Metric names reported to stats.Tracker.
const (
	MetricPass       = "warm_pass"
	MetricJobFailed  = "warm_job_failed"
	MetricJobSuccess = "warm_job_success"
)

// Job populates a single cache key.
//
// Key and TTL must match the ones used by the request path reading the key.
type Job struct {
	Name  string
	Key   string
	TTL   time.Duration
	Build func(ctx context.Context) (interface{}, error)
}

// Config controls Warmer.
type Config struct {
	// Schedule is a standard cron expression of repeated passes, default "*/4 * * * *".
	Schedule string

	// StartupDelay is a delay before the first pass, default 5s.
	StartupDelay time.Duration

	// Logger collects messages with context.
	Logger ctxd.Logger

	// Stats tracks stats.
	Stats stats.Tracker
}

// Warmer runs population passes of jobs on schedule.
type Warmer struct {
	store    cache.Writer
	jobs     []Job
	schedule cron.Schedule
	config   Config
	log      ctxd.Logger
	stat     stats.Tracker
}

// New creates a Warmer writing to store.
func New(store cache.Writer, config Config, jobs ...Job) (*Warmer, error) {
	if config.Schedule == "" {
		config.Schedule = "*/4 * * * *"
	}

	if config.StartupDelay == 0 {
		config.StartupDelay = 5 * time.Second
	}

	if len(jobs) == 0 {
		return nil, errors.New("no warm jobs")
	}

	schedule, err := cron.ParseStandard(config.Schedule)
	if err != nil {
		return nil, err
	}

	w := &Warmer{
		store:    store,
		jobs:     jobs,
		schedule: schedule,
		config:   config,
	}

	w.log = config.Logger
	if w.log == nil {
		w.log = ctxd.NoOpLogger{}
	}

	w.stat = config.Stats
	if w.stat == nil {
		w.stat = stats.NoOp{}
	}

	return w, nil
}

// RunOnce performs a single population pass of all jobs.
//
// Failed job does not touch its key, so a previously cached value stays
// servable until its own expiration. Errors of all failed jobs are returned.
func (w *Warmer) RunOnce(ctx context.Context) error {
	var errs *multierror.Error

	start := time.Now()

	for _, job := range w.jobs {
		if err := w.runJob(ctx, job); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	w.stat.Add(ctx, MetricPass, 1)
	w.log.Debug(ctx, "warm pass finished", "elapsed", time.Since(start).String())

	return errs.ErrorOrNil()
}

func (w *Warmer) runJob(ctx context.Context, job Job) error {
	ctx = ctxd.AddFields(ctx, "job", job.Name, "key", job.Key)

	value, err := job.Build(ctx)
	if err != nil {
		w.stat.Add(ctx, MetricJobFailed, 1, "job", job.Name)
		w.log.Error(ctx, "warm job failed", "error", err)

		return ctxd.WrapError(ctx, err, "warm job failed", "job", job.Name)
	}

	w.store.Set(ctx, job.Key, value, job.TTL)

	w.stat.Add(ctx, MetricJobSuccess, 1, "job", job.Name)
	w.log.Info(ctx, "cache warmed")

	return nil
}

// Start runs the first pass after startup delay and then repeats on schedule
// until ctx is done or the returned task is stopped.
func (w *Warmer) Start(ctx context.Context) *Task {
	ctx, cancel := context.WithCancel(ctx)

	t := &Task{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)

		w.loop(ctx)
	}()

	return t
}

func (w *Warmer) loop(ctx context.Context) {
	timer := time.NewTimer(w.config.StartupDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		// Errors are logged per job, next tick retries independently.
		_ = w.RunOnce(ctx)

		now := time.Now()
		timer.Reset(w.schedule.Next(now).Sub(now))
	}
}

// Task is a handle of a started Warmer.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop cancels scheduling and waits for in-flight pass to return.
func (t *Task) Stop() {
	t.once.Do(t.cancel)
	<-t.done
}

// Done is closed when the task is finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
