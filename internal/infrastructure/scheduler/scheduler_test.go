package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	block chan struct{}
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "test job " + j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
		}
	}
	return j.err
}

type panicJob struct{}

func (panicJob) Name() string              { return "panics" }
func (panicJob) Description() string       { return "" }
func (panicJob) Run(context.Context) error { panic("boom") }

func newTestScheduler(now *time.Time) *Scheduler {
	s := NewScheduler(SchedulerConfig{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		EnableMetrics: true,
	})
	s.now = func() time.Time { return *now }
	return s
}

func TestParseCron(t *testing.T) {
	at := time.Date(2026, 3, 10, 12, 7, 0, 0, time.UTC)

	s, err := ParseCron("*/15 * * * *", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 12, 15, 0, 0, time.UTC), s.Next(at))
	assert.Equal(t, "*/15 * * * *", s.String())

	daily, err := ParseCron("0 3 * * *", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC), daily.Next(at))

	every, err := ParseCron("@every 10m", nil)
	require.NoError(t, err)
	assert.Equal(t, at.Add(10*time.Minute), every.Next(at))

	for _, bad := range []string{"", "not a cron", "61 * * * *"} {
		_, err := ParseCron(bad, nil)
		assert.ErrorIs(t, err, ErrInvalidSchedule, bad)
	}
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(time.Minute)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, at.Add(time.Minute), s.Next(at))
	assert.Equal(t, "@every 1m0s", s.String())
}

func TestScheduler_RegisterAndRunDue(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestScheduler(&now)
	s.ctx = context.Background()

	job := &countingJob{name: "sweep"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))
	assert.ErrorIs(t, s.Register(job, NewIntervalSchedule(time.Minute)), ErrJobAlreadyExists)

	s.runDue(now.Add(30 * time.Second))
	s.wg.Wait()
	assert.Equal(t, int32(0), job.runs.Load(), "not yet due")

	s.runDue(now.Add(time.Minute))
	s.wg.Wait()
	assert.Equal(t, int32(1), job.runs.Load())

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, int64(1), infos[0].RunCount)
	assert.Equal(t, now.Add(2*time.Minute), infos[0].NextRun)
}

func TestScheduler_SkipsOverlappingRun(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestScheduler(&now)
	s.ctx = context.Background()

	job := &countingJob{name: "slow", block: make(chan struct{})}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))

	s.runDue(now.Add(time.Minute))
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	s.runDue(now.Add(2 * time.Minute))
	close(job.block)
	s.wg.Wait()

	assert.Equal(t, int32(1), job.runs.Load())
}

func TestScheduler_RunNow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestScheduler(&now)

	failing := &countingJob{name: "failing", err: errors.New("db down")}
	require.NoError(t, s.Register(failing, NewIntervalSchedule(time.Hour)))
	require.NoError(t, s.Register(panicJob{}, NewIntervalSchedule(time.Hour)))

	var reported []string
	s.OnJobError(func(name string, _ error) { reported = append(reported, name) })

	result, err := s.RunNow(context.Background(), "failing")
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.True(t, result.Manual)

	_, err = s.RunNow(context.Background(), "panics")
	assert.ErrorIs(t, err, ErrJobPanicked)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	assert.Equal(t, []string{"failing", "panics"}, reported)
	assert.Len(t, s.GetHistory(0), 2)
	assert.Equal(t, int64(2), s.GetMetrics().Snapshot().TotalFailures)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(SchedulerConfig{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}
