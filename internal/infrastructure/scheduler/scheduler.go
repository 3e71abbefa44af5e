// Package scheduler runs periodic background jobs for the analytics worker.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job is a unit of periodic work. ctx is cancelled when the scheduler stops.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Schedule plans the run that follows t.
type Schedule interface {
	Next(t time.Time) time.Time
	String() string
}

// Every schedules a job at a fixed interval.
type Every time.Duration

// Next implements Schedule.
func (e Every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

func (e Every) String() string {
	return fmt.Sprintf("@every %s", time.Duration(e))
}

// JobResult contains the result of a job execution.
type JobResult struct {
	JobName   string
	StartedAt time.Time
	Duration  time.Duration
	Error     error
}

// Success reports whether the run returned no error.
func (r JobResult) Success() bool {
	return r.Error == nil
}

// JobInfo describes a registered job.
type JobInfo struct {
	Name      string
	Schedule  string
	NextRun   time.Time
	RunCount  int64
	FailCount int64
}

var (
	ErrNilJob                  = errors.New("job cannot be nil")
	ErrInvalidSchedule         = errors.New("schedule must be a positive interval")
	ErrJobAlreadyExists        = errors.New("job already exists")
	ErrJobNotFound             = errors.New("job not found")
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")
	ErrSchedulerNotRunning     = errors.New("scheduler is not running")
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// SchedulerConfig contains configuration for the Scheduler.
type SchedulerConfig struct {
	Logger *slog.Logger

	// MaxHistorySize bounds the kept job results (default: 100).
	MaxHistorySize int
}

type entry struct {
	job      Job
	schedule Schedule
	nextRun  time.Time
	runs     int64
	fails    int64
}

// Scheduler drives each registered job on its own timer. The next run of a
// job is planned only after the previous one returned, so runs of the same
// job never overlap.
type Scheduler struct {
	logger     *slog.Logger
	maxHistory int

	mu      sync.Mutex
	jobs    map[string]*entry
	history []JobResult

	runCtx context.Context // nil while stopped
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a stopped Scheduler.
func NewScheduler(config SchedulerConfig) *Scheduler {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxHistorySize <= 0 {
		config.MaxHistorySize = 100
	}
	return &Scheduler{
		logger:     config.Logger.With("component", "scheduler"),
		maxHistory: config.MaxHistorySize,
		jobs:       make(map[string]*entry),
	}
}

// Register adds job. Names must be unique. A job registered while the
// scheduler runs starts right away.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrInvalidSchedule
	}
	if every, ok := schedule.(Every); ok && every <= 0 {
		return ErrInvalidSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, dup := s.jobs[name]; dup {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}
	e := &entry{job: job, schedule: schedule, nextRun: schedule.Next(time.Now())}
	s.jobs[name] = e
	if s.runCtx != nil {
		s.launch(s.runCtx, e)
	}

	s.logger.Info("job registered", "job", name, "schedule", schedule.String())
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start runs every registered job on its schedule until Stop or until ctx
// is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx != nil {
		return ErrSchedulerAlreadyRunning
	}

	s.runCtx, s.cancel = context.WithCancel(ctx)
	for _, e := range s.jobs {
		s.launch(s.runCtx, e)
	}
	s.logger.Info("scheduler started", "jobs_count", len(s.jobs))
	return nil
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.runCtx == nil {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.cancel()
	s.runCtx, s.cancel = nil, nil
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

// launch must be called with mu held.
func (s *Scheduler) launch(ctx context.Context, e *entry) {
	wait := time.Until(e.nextRun)
	s.wg.Add(1)
	go s.drive(ctx, e, wait)
}

func (s *Scheduler) drive(ctx context.Context, e *entry, wait time.Duration) {
	defer s.wg.Done()

	timer := time.NewTimer(max(wait, 0))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		res := s.execute(ctx, e.job)

		s.mu.Lock()
		e.runs++
		if res.Error != nil {
			e.fails++
		}
		e.nextRun = e.schedule.Next(time.Now())
		wait = time.Until(e.nextRun)
		s.mu.Unlock()

		timer.Reset(max(wait, 0))
	}
}

// execute runs job and records the result. A panicking job counts as failed.
func (s *Scheduler) execute(ctx context.Context, job Job) (res JobResult) {
	res = JobResult{JobName: job.Name(), StartedAt: time.Now()}
	defer func() {
		if r := recover(); r != nil {
			res.Error = fmt.Errorf("job %s panicked: %v", res.JobName, r)
		}
		res.Duration = time.Since(res.StartedAt)
		s.record(res)
	}()

	res.Error = job.Run(ctx)
	return res
}

func (s *Scheduler) record(res JobResult) {
	switch {
	case res.Error == nil, errors.Is(res.Error, context.Canceled):
		s.logger.Debug("job completed", "job", res.JobName, "duration", res.Duration.String())
	default:
		s.logger.Error("job failed", "job", res.JobName, "duration", res.Duration.String(), "error", res.Error)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, res)
	if extra := len(s.history) - s.maxHistory; extra > 0 {
		s.history = append(s.history[:0:0], s.history[extra:]...)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MANUAL EXECUTION & INTROSPECTION
// ══════════════════════════════════════════════════════════════════════════════

// RunNow executes a job immediately, ignoring its schedule.
func (s *Scheduler) RunNow(ctx context.Context, jobName string) (JobResult, error) {
	s.mu.Lock()
	e, ok := s.jobs[jobName]
	s.mu.Unlock()
	if !ok {
		return JobResult{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}
	return s.execute(ctx, e.job), nil
}

// ListJobs returns registered jobs sorted by name.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for name, e := range s.jobs {
		out = append(out, JobInfo{
			Name:      name,
			Schedule:  e.schedule.String(),
			NextRun:   e.nextRun,
			RunCount:  e.runs,
			FailCount: e.fails,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// History returns up to limit recent results, newest last. A non-positive
// limit returns everything kept.
func (s *Scheduler) History(limit int) []JobResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.history
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append([]JobResult(nil), h...)
}
