package realtime

import (
	"log/slog"
	"sync"

	"github.com/buildcrew/workforce-backend/internal/domain/attendance"
)

// listeners is the callback registry shared by every bridge implementation.
type listeners struct {
	mu   sync.RWMutex
	next int
	fns  map[int]func(attendance.Change)
}

func newListeners() *listeners {
	return &listeners{fns: make(map[int]func(attendance.Change))}
}

func (l *listeners) add(fn func(attendance.Change)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.next
	l.next++
	l.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.fns, id)
		})
	}
}

func (l *listeners) dispatch(change attendance.Change) {
	l.mu.RLock()
	fns := make([]func(attendance.Change), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if p := recover(); p != nil {
					slog.Error("Realtime: attendance listener panicked", "employee_id", change.EmployeeID, "panic", p)
				}
			}()
			fn(change)
		}()
	}
}

func (l *listeners) count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.fns)
}
