package activity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/buildcrew/workforce-backend/internal/domain/activity"
	"github.com/google/uuid"
)

// Config holds activity logger configuration
type Config struct {
	BatchSize     int           // default: 100
	FlushInterval time.Duration // default: 5 seconds
	WorkerCount   int           // default: 2
	QueueSize     int           // default: 1000
}

type service struct {
	repo   activity.Repository
	config Config
	now    func() time.Time

	queue   chan activity.Entry
	wg      sync.WaitGroup
	stopCh  chan struct{}
	stopped atomic.Bool
	once    sync.Once
}

// NewActivityLogger creates an activity logger with background batch writers.
func NewActivityLogger(repo activity.Repository, cfg Config) activity.Logger {
	// Set defaults
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}

	s := &service{
		repo:   repo,
		config: cfg,
		now:    time.Now,
		queue:  make(chan activity.Entry, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("Activity logger started",
		"workers", cfg.WorkerCount, "batch_size", cfg.BatchSize, "flush_interval", cfg.FlushInterval)

	return s
}

// worker drains the queue and writes entries in batches
func (s *service) worker(id int) {
	defer s.wg.Done()

	batch := make([]activity.Entry, 0, s.config.BatchSize)
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.repo.CreateBatch(ctx, batch); err != nil {
			slog.Error("Activity logger: batch insert failed, entries dropped",
				"worker", id, "count", len(batch), "error", err)
		} else {
			slog.Debug("Activity logger: batch inserted", "worker", id, "count", len(batch))
		}

		batch = make([]activity.Entry, 0, s.config.BatchSize)
	}

	for {
		select {
		case entry := <-s.queue:
			batch = append(batch, entry)
			if len(batch) >= s.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stopCh:
			// Drain what is already queued before exiting
			for {
				select {
				case entry := <-s.queue:
					batch = append(batch, entry)
					if len(batch) >= s.config.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// Log queues an entry. It never blocks; a full queue drops the entry.
func (s *service) Log(ctx context.Context, entry activity.Entry) {
	if s.stopped.Load() {
		slog.Warn("Activity logger stopped, entry dropped", "action", entry.Action)
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	select {
	case s.queue <- entry:
	default:
		slog.Warn("Activity log queue full, entry dropped", "action", entry.Action, "actor", entry.Actor)
	}
}

// Stop flushes queued entries and waits for the workers to exit.
func (s *service) Stop() {
	s.once.Do(func() {
		s.stopped.Store(true)
		close(s.stopCh)
		s.wg.Wait()
		slog.Info("Activity logger stopped")
	})
}
