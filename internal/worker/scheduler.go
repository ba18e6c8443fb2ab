package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	applog "finledger/internal/log"
	"finledger/internal/trace"
)

// Job is a unit of periodic work. Next returns the first run time strictly
// after its argument.
type Job struct {
	Name string
	Next func(after time.Time) time.Time
	Run  func(ctx context.Context, now time.Time) error
}

// Scheduler runs each job in its own goroutine, sleeping until the job's next
// anchor time. A failing run is logged and the job keeps its schedule.
type Scheduler struct {
	jobs []Job
	now  func() time.Time

	// Lifecycle management. stopCh is nil once Stop has claimed it.
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewScheduler(jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, now: time.Now}
}

// WithClock replaces the time source.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Start launches the job loops. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	go s.runLoop(ctx, stopCh, doneCh)

	for _, job := range s.jobs {
		slog.InfoContext(ctx, "Scheduled job",
			"job", job.Name,
			"next_run", job.Next(s.now()).Format(time.RFC3339))
	}
	return nil
}

// Stop signals every job loop and waits for in-flight runs to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running || s.stopCh == nil {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.stopCh = nil
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Scheduler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

// Done is closed once every job loop has exited.
func (s *Scheduler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doneCh
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)

	var g errgroup.Group
	for _, job := range s.jobs {
		g.Go(func() error {
			s.runJob(ctx, job, stopCh)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Scheduler) runJob(ctx context.Context, job Job, stopCh <-chan struct{}) {
	for {
		now := s.now()
		next := job.Next(now)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		RunOnce(ctx, job, s.now())
	}
}

// RunOnce executes a single run of job and logs the outcome. Panics are
// recovered so one job cannot take the process down. Services called by the
// job log with the run's ID.
func RunOnce(ctx context.Context, job Job, now time.Time) (err error) {
	runID := trace.GenerateRunID()
	logger := applog.FromContext(ctx, applog.ComponentWorker).With(
		applog.FieldJob, job.Name,
		"run_id", runID)
	ctx = applog.WithContext(trace.WithRunID(ctx, runID), logger)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
		elapsed := time.Since(start)
		trace.Default.Record(job.Name, start, elapsed, err)
		if err != nil {
			logger.ErrorContext(ctx, "Scheduled job failed",
				applog.FieldError, err,
				"duration", elapsed)
			return
		}
		logger.InfoContext(ctx, "Scheduled job complete",
			"duration", elapsed)
	}()
	return job.Run(ctx, now)
}

// NextDaily returns the first hour:minute in loc strictly after t.
func NextDaily(t time.Time, hour, minute int, loc *time.Location) time.Time {
	local := t.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(t) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

// NextWeekly returns the first weekday at hour:minute in loc strictly after t.
func NextWeekly(t time.Time, weekday time.Weekday, hour, minute int, loc *time.Location) time.Time {
	local := t.In(loc)
	days := (int(weekday) - int(local.Weekday()) + 7) % 7
	next := time.Date(local.Year(), local.Month(), local.Day()+days, hour, minute, 0, 0, loc)
	if !next.After(t) {
		next = time.Date(local.Year(), local.Month(), local.Day()+days+7, hour, minute, 0, 0, loc)
	}
	return next
}
