package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ibeckermayer/xstoryfinder/internal/logging"
)

// DefaultJobTimeout bounds a single scheduled run
const DefaultJobTimeout = 30 * time.Minute

// Job represents a scheduled task
type Job func(ctx context.Context) error

// Scheduler runs jobs on cron schedules. A job never overlaps with itself:
// a tick that arrives while the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]cron.EntryID
	timeout time.Duration
}

// New creates a scheduler in the given timezone. Empty means local time.
func New(timezone string) (*Scheduler, error) {
	loc := time.Local
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
		}
	}

	logger := cron.PrintfLogger(logging.Logger.StandardLog())
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	return &Scheduler{
		cron:    c,
		jobs:    make(map[string]cron.EntryID),
		timeout: DefaultJobTimeout,
	}, nil
}

// AddJob adds a job with a cron schedule. Standard five-field specs
// ("0 7 * * *") and descriptors ("@every 30m", "@hourly") are accepted.
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunNow(name, job); err != nil {
			logging.Error("Scheduled job failed", "job", name, "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	logging.Debug("Added job", "job", name, "schedule", schedule)
	return nil
}

// RunNow executes a job immediately under the job timeout
func (s *Scheduler) RunNow(name string, job Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	logging.Info("Starting job", "job", name)
	start := time.Now()
	if err := job(ctx); err != nil {
		return err
	}
	logging.Info("Job completed", "job", name, "took", time.Since(start).Round(time.Millisecond))
	return nil
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler. The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Watch runs job once right away, then on schedule until ctx is cancelled.
// It waits for an in-flight run before returning.
func (s *Scheduler) Watch(ctx context.Context, schedule string, job Job) error {
	const name = "watch"

	// run with the caller's context so cancellation reaches the job
	bound := func(jobCtx context.Context) error {
		runCtx, cancel := context.WithCancel(jobCtx)
		defer cancel()
		stop := context.AfterFunc(ctx, cancel)
		defer stop()
		return job(runCtx)
	}

	if err := s.AddJob(name, schedule, bound); err != nil {
		return err
	}

	if err := s.RunNow(name, bound); err != nil {
		logging.Error("Job failed", "job", name, "err", err)
	}

	s.Start()
	if next := s.ListJobs(); len(next) > 0 {
		logging.Info("Watching", "schedule", schedule, "next", next[0].NextRun.Format(time.Kitchen))
	}

	<-ctx.Done()
	<-s.Stop().Done()
	return nil
}

// ListJobs returns info about scheduled jobs
func (s *Scheduler) ListJobs() []JobInfo {
	infos := make([]JobInfo, 0, len(s.jobs))
	for name, entryID := range s.jobs {
		entry := s.cron.Entry(entryID)
		if !entry.Valid() {
			continue
		}
		infos = append(infos, JobInfo{
			Name:    name,
			NextRun: entry.Next,
			LastRun: entry.Prev,
		})
	}
	return infos
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}
