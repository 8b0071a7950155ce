package activity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/buildcrew/workforce-backend/internal/domain/activity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu      sync.Mutex
	entries []activity.Entry
	batches int
	err     error
}

func (r *memoryRepo) CreateBatch(ctx context.Context, entries []activity.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches++
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *memoryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func TestLogger_FlushesOnStop(t *testing.T) {
	repo := &memoryRepo{}
	logger := NewActivityLogger(repo, Config{FlushInterval: time.Hour, WorkerCount: 1})

	logger.Log(context.Background(), activity.Entry{Actor: "Andi", Action: "payroll.recalculate_all", Module: activity.ModulePayroll})
	logger.Log(context.Background(), activity.Entry{Actor: "system", Action: "payroll.cutoff", Module: activity.ModulePayroll})
	logger.Stop()

	require.Equal(t, 2, repo.count())
	for _, e := range repo.entries {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.CreatedAt.IsZero())
	}
}

func TestLogger_FlushesWhenBatchIsFull(t *testing.T) {
	repo := &memoryRepo{}
	logger := NewActivityLogger(repo, Config{BatchSize: 2, FlushInterval: time.Hour, WorkerCount: 1})
	defer logger.Stop()

	logger.Log(context.Background(), activity.Entry{Action: "a"})
	logger.Log(context.Background(), activity.Entry{Action: "b"})

	assert.Eventually(t, func() bool { return repo.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestLogger_FlushesOnInterval(t *testing.T) {
	repo := &memoryRepo{}
	logger := NewActivityLogger(repo, Config{FlushInterval: 10 * time.Millisecond, WorkerCount: 1})
	defer logger.Stop()

	logger.Log(context.Background(), activity.Entry{Action: "a"})

	assert.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestLogger_StorageFailureNeverReachesCaller(t *testing.T) {
	repo := &memoryRepo{err: errors.New("db down")}
	logger := NewActivityLogger(repo, Config{FlushInterval: time.Hour, WorkerCount: 1})

	assert.NotPanics(t, func() {
		logger.Log(context.Background(), activity.Entry{Action: "a"})
	})
	logger.Stop()

	assert.Equal(t, 0, repo.count())
	assert.Equal(t, 1, repo.batches)
}

func TestLogger_LogAfterStopIsDropped(t *testing.T) {
	repo := &memoryRepo{}
	logger := NewActivityLogger(repo, Config{FlushInterval: time.Hour, WorkerCount: 1})
	logger.Stop()
	logger.Stop()

	logger.Log(context.Background(), activity.Entry{Action: "late"})
	assert.Equal(t, 0, repo.count())
}
