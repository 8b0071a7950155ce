package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/buildcrew/workforce-backend/internal/domain/attendance"
	goredis "github.com/redis/go-redis/v9"
)

// RedisBridge fans attendance changes out across processes through a Redis pub/sub channel.
type RedisBridge struct {
	rdb       *goredis.Client
	channel   string
	listeners *listeners

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// NewRedisBridge connects to Redis and checks the connection with a ping.
func NewRedisBridge(opts RedisOptions) (*RedisBridge, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	slog.Info("Realtime: connected to redis", "addr", opts.Addr, "channel", opts.Channel)

	return &RedisBridge{
		rdb:       rdb,
		channel:   opts.Channel,
		listeners: newListeners(),
	}, nil
}

func (b *RedisBridge) Publish(ctx context.Context, change attendance.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encode attendance change: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish attendance change: %w", err)
	}
	return nil
}

func (b *RedisBridge) Subscribe(fn func(attendance.Change)) func() {
	return b.listeners.add(fn)
}

// Start subscribes to the channel and dispatches received changes until Close.
func (b *RedisBridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.cancel = cancel

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				change, err := decodeChange(msg.Payload)
				if err != nil {
					slog.Warn("Realtime: dropping malformed attendance change", "error", err)
					continue
				}
				b.listeners.dispatch(change)
			}
		}
	}()

	return nil
}

// Close stops the subscription loop and closes the client.
func (b *RedisBridge) Close() error {
	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	b.mu.Unlock()

	b.wg.Wait()
	return b.rdb.Close()
}

func decodeChange(payload string) (attendance.Change, error) {
	var change attendance.Change
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return attendance.Change{}, err
	}
	if change.EmployeeID == "" {
		return attendance.Change{}, fmt.Errorf("attendance change without employee_id")
	}
	return change, nil
}
