package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burakmert236/scrimsignups/common/logger"
	"github.com/burakmert236/scrimsignups/common/models"
)

type countingJob struct {
	mu   sync.Mutex
	runs int
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs++
	return j.err
}

func (j *countingJob) count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	job := &countingJob{}
	s := NewScheduler(job, 10*time.Millisecond, time.Second, logger.Nop())

	go s.Start()

	assert.Eventually(t, func() bool { return job.count() >= 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
	s.Wait()
}

func TestScheduler_KeepsRunningAfterFailure(t *testing.T) {
	job := &countingJob{err: errors.New("db down")}
	s := NewScheduler(job, 5*time.Millisecond, 0, logger.Nop())

	go s.Start()
	assert.Eventually(t, func() bool { return job.count() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	s.Wait()
}

func TestScheduler_DisabledInterval(t *testing.T) {
	job := &countingJob{}
	s := NewScheduler(job, 0, 0, logger.Nop())

	go s.Start()
	require.NoError(t, s.Stop())
	s.Wait()

	assert.Zero(t, job.count())
}

type fakePriorityService struct {
	removed int64
	err     error
	calls   int
}

func (f *fakePriorityService) AddPriority(context.Context, string, models.PriorityEntry) (*models.PriorityEntry, error) {
	return nil, nil
}

func (f *fakePriorityService) ExpungePriority(context.Context, string, []string) (int64, error) {
	return 0, nil
}

func (f *fakePriorityService) ListPriority(context.Context, time.Time) ([]models.PriorityEntry, error) {
	return nil, nil
}

func (f *fakePriorityService) ExpungeExpired(context.Context) (int64, error) {
	f.calls++
	return f.removed, f.err
}

func TestPriorityExpunger(t *testing.T) {
	svc := &fakePriorityService{removed: 4}
	job := NewPriorityExpunger(svc, logger.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, "priority-expunge", job.Name())

	svc.err = errors.New("boom")
	require.Error(t, job.Run(context.Background()))
}
