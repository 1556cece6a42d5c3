// Package ratelimit считает запросы клиентов в фиксированных окнах.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result описывает решение лимитера по одному запросу.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAfter равно времени до начала следующего окна.
	ResetAfter time.Duration
}

func decide(count int64, limit int, resetAfter time.Duration) Result {
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:    count <= int64(limit),
		Limit:      limit,
		Remaining:  remaining,
		ResetAfter: resetAfter,
	}
}

type window struct {
	count   int64
	resetAt time.Time
}

// Memory хранит счётчики в памяти процесса.
type Memory struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
	sweepAt time.Time
}

// NewMemory создаёт лимитер на limit запросов за окно w.
func NewMemory(limit int, w time.Duration) *Memory {
	return &Memory{
		limit:   limit,
		window:  w,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// Allow учитывает запрос клиента key.
func (m *Memory) Allow(_ context.Context, key string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(m.window)}
		m.windows[key] = w
	}
	w.count++

	return decide(w.count, m.limit, w.resetAt.Sub(now)), nil
}

// sweep удаляет истёкшие окна не чаще одного раза за окно.
func (m *Memory) sweep(now time.Time) {
	if now.Before(m.sweepAt) {
		return
	}
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
	m.sweepAt = now.Add(m.window)
}
