package realtime

import (
	"context"

	"github.com/buildcrew/workforce-backend/internal/domain/attendance"
)

// MemoryBridge delivers attendance changes to subscribers in the same process.
type MemoryBridge struct {
	listeners *listeners
}

func NewMemoryBridge() *MemoryBridge {
	return &MemoryBridge{listeners: newListeners()}
}

// Publish delivers the change synchronously to every current subscriber.
func (b *MemoryBridge) Publish(ctx context.Context, change attendance.Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.listeners.dispatch(change)
	return nil
}

func (b *MemoryBridge) Subscribe(fn func(attendance.Change)) func() {
	return b.listeners.add(fn)
}

func (b *MemoryBridge) SubscriberCount() int {
	return b.listeners.count()
}
