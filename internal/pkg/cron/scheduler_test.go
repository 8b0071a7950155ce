package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingRunner struct {
	calls atomic.Int32
}

func (r *countingRunner) RunDueCutoff(ctx context.Context) error {
	r.calls.Add(1)
	return nil
}

func TestScheduler_RunOnceRunsEveryJob(t *testing.T) {
	s := NewScheduler()

	var a, b int
	s.AddJob("a", time.Hour, func(ctx context.Context) error { a++; return nil })
	s.AddJob("b", time.Hour, func(ctx context.Context) error { b++; return errors.New("fails") })
	s.AddJob("c", time.Hour, func(ctx context.Context) error { panic("boom") })

	s.RunOnce(context.Background())

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

func TestScheduler_StartRunsImmediatelyAndStops(t *testing.T) {
	s := NewScheduler()
	runner := &countingRunner{}
	NewPayrollJobs(runner, time.Hour).RegisterJobs(s)

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestScheduler_TicksOnInterval(t *testing.T) {
	s := NewScheduler()
	runner := &countingRunner{}
	NewPayrollJobs(runner, 10*time.Millisecond).RegisterJobs(s)

	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return runner.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := NewScheduler()
	assert.NotPanics(t, s.Stop)
}
