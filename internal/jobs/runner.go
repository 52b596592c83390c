// Package jobs runs the engine's periodic work on a cron runner. Each job
// sees the time window since its last successful fire.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job keys.
const (
	KeyInstances = "instances"
	KeyReminders = "reminders"
	KeyMood      = "mood"
)

// Watermarks persists the last successful fire of each job.
type Watermarks interface {
	LastFire(ctx context.Context, key string) (*time.Time, error)
	SetLastFire(ctx context.Context, key string, at time.Time) error
}

// Window is the span a fire is responsible for, (From, To]. Prev is the
// last successful fire, nil on the first run.
type Window struct {
	Prev *time.Time
	From time.Time
	To   time.Time
}

type Job struct {
	Key   string
	Every time.Duration
	Run   func(ctx context.Context, w Window) error
}

type Options struct {
	// MaxWindow caps how far back a window reaches after downtime.
	MaxWindow time.Duration
	// Timeout bounds a single fire.
	Timeout time.Duration
}

type Runner struct {
	cron   *cron.Cron
	marks  Watermarks
	opts   Options
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// Now is the clock fires are stamped with.
	Now func() time.Time
}

func NewRunner(marks Watermarks, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger.With("component", "cron")}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		marks:  marks,
		opts:   opts,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		Now:    time.Now,
	}
}

// Add registers job to fire every job.Every. Fires of the same job never
// overlap; a fire that would overlap is skipped.
func (r *Runner) Add(job Job) error {
	if job.Key == "" || job.Run == nil {
		return errors.New("job needs a key and a run function")
	}
	if job.Every < time.Second {
		return fmt.Errorf("job %s: interval %v is below one second", job.Key, job.Every)
	}
	r.cron.Schedule(cron.Every(job.Every), cron.FuncJob(func() {
		if err := r.Fire(r.ctx, job); err != nil {
			r.logger.Error("job failed", "job", job.Key, "error", err)
		}
	}))
	r.logger.Info("job registered", "job", job.Key, "every", job.Every)
	return nil
}

func (r *Runner) Start() {
	r.cron.Start()
}

// Stop cancels running fires and waits for them to return.
func (r *Runner) Stop() {
	r.cancel()
	<-r.cron.Stop().Done()
}

// Fire runs job once for the window ending now. The watermark moves to now
// only when the job succeeds, so a failed window is retried by the next fire.
func (r *Runner) Fire(ctx context.Context, job Job) error {
	now := r.Now().UTC()

	prev, err := r.marks.LastFire(ctx, job.Key)
	if err != nil {
		return fmt.Errorf("load watermark: %w", err)
	}
	w := ComputeWindow(prev, now, job.Every, r.opts.MaxWindow)
	if !w.From.Before(w.To) {
		r.logger.Warn("empty job window, skipping", "job", job.Key, "from", w.From, "to", w.To)
		return nil
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	if err := job.Run(ctx, w); err != nil {
		return err
	}
	if err := r.marks.SetLastFire(ctx, job.Key, now); err != nil {
		return fmt.Errorf("save watermark: %w", err)
	}
	r.logger.Debug("job done", "job", job.Key, "from", w.From, "to", w.To, "took", time.Since(start))
	return nil
}

// ComputeWindow returns the window for a fire at now. Without a previous
// fire the window covers one interval. The start never reaches further back
// than maxWindow when maxWindow is positive.
func ComputeWindow(prev *time.Time, now time.Time, every, maxWindow time.Duration) Window {
	from := now.Add(-every)
	if prev != nil {
		from = prev.UTC()
	}
	if maxWindow > 0 {
		if floor := now.Add(-maxWindow); from.Before(floor) {
			from = floor
		}
	}
	return Window{Prev: prev, From: from, To: now}
}

// cronLogger routes cron's own logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
