package cron

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// JobFunc is one run of a scheduled job. ctx is cancelled on Stop or when the
// run exceeds the job's interval.
type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration
	fn       JobFunc
	running  atomic.Bool
}

// Scheduler fires each job on wall-clock multiples of its interval, so a
// one-minute job runs at second zero of every minute. A run that is still
// going when its next slot arrives causes that slot to be skipped.
type Scheduler struct {
	mu     sync.Mutex
	jobs   []*job
	now    func() time.Time
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler() *Scheduler {
	return &Scheduler{now: time.Now}
}

func (s *Scheduler) AddJob(name string, interval time.Duration, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, &job{name: name, interval: interval, fn: fn})
	slog.Info("Cron job registered", "name", name, "interval", interval)
}

// Start runs every job once immediately and then on its schedule. Calling
// Start on a running scheduler does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
	slog.Info("Cron scheduler started", "job_count", len(s.jobs))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	slog.Info("Stopping cron scheduler")
	cancel()
	s.wg.Wait()
	slog.Info("Cron scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, j *job) {
	defer s.wg.Done()

	s.fire(ctx, j)
	for {
		timer := time.NewTimer(untilNextBoundary(s.now(), j.interval))
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Debug("Cron job stopping", "name", j.name)
			return
		case <-timer.C:
			s.fire(ctx, j)
		}
	}
}

// fire starts one run of j unless the previous run is still active.
func (s *Scheduler) fire(ctx context.Context, j *job) bool {
	if !j.running.CompareAndSwap(false, true) {
		slog.Warn("Cron job skipped, previous run still active", "name", j.name)
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer j.running.Store(false)

		runCtx, cancel := context.WithTimeout(ctx, j.interval)
		defer cancel()
		run(runCtx, j)
	}()
	return true
}

func run(ctx context.Context, j *job) {
	start := time.Now()
	if err := j.fn(ctx); err != nil {
		slog.Error("Cron job failed", "name", j.name, "error", err, "duration", time.Since(start))
		return
	}
	slog.Debug("Cron job completed", "name", j.name, "duration", time.Since(start))
}

func untilNextBoundary(now time.Time, interval time.Duration) time.Duration {
	if interval <= 0 {
		return 0
	}
	return now.Truncate(interval).Add(interval).Sub(now)
}

// RunOnce runs every job synchronously on the caller's goroutine.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	jobs := append([]*job(nil), s.jobs...)
	s.mu.Unlock()

	for _, j := range jobs {
		run(ctx, j)
	}
}
