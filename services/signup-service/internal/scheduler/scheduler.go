package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/burakmert236/scrimsignups/common/logger"
)

// Job is one periodic unit of work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	job      Job
	interval time.Duration
	timeout  time.Duration
	logger   *logger.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewScheduler runs job every interval. Each run is bounded by timeout when it
// is positive.
func NewScheduler(job Job, interval, timeout time.Duration, log *logger.Logger) *Scheduler {
	return &Scheduler{
		job:      job,
		interval: interval,
		timeout:  timeout,
		logger:   log.With("component", "scheduler", "job", job.Name()),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start blocks until Stop is called. The job runs once immediately.
func (s *Scheduler) Start() {
	defer close(s.done)

	if s.interval <= 0 {
		s.logger.Warn("Scheduler disabled, interval is not positive", "interval", s.interval)
		<-s.stopChan
		return
	}

	s.logger.Info("Scheduler started", "interval", s.interval)
	s.runOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce()

		case <-s.stopChan:
			s.logger.Info("Scheduler stopped")
			return
		}
	}
}

// Stop is safe to call more than once.
func (s *Scheduler) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	return nil
}

// Wait blocks until a started scheduler has returned from Start.
func (s *Scheduler) Wait() {
	<-s.done
}

func (s *Scheduler) runOnce() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.job.Run(ctx); err != nil {
		s.logger.Error("Scheduled job failed", "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Debug("Scheduled job finished", "duration", time.Since(start))
}
