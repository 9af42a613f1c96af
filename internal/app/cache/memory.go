package cache

import (
	"context"
	"sync"
	"time"

	"github.com/linklytics/linklytics/internal/app/models"
)

type memoryEntry struct {
	view      models.LinkView
	expiresAt time.Time
}

type counterEntry struct {
	count     int64
	expiresAt time.Time
}

// Memory реализует LinkCache и Counters в памяти процесса.
// Используется в тестах и при запуске без redis.
type Memory struct {
	mu       sync.Mutex
	links    map[string]memoryEntry
	counters map[string]counterEntry
	flags    map[string]time.Time
}

// NewMemory создаёт пустой кеш в памяти
func NewMemory() *Memory {
	return &Memory{
		links:    make(map[string]memoryEntry),
		counters: make(map[string]counterEntry),
		flags:    make(map[string]time.Time),
	}
}

func (m *Memory) Get(ctx context.Context, code string) (models.LinkView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.links[code]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(m.links, code)
		return models.LinkView{}, ErrMiss
	}
	return entry.view, nil
}

func (m *Memory) Set(ctx context.Context, code string, view models.LinkView, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.links[code] = memoryEntry{view: view, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *Memory) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.links, code)
	return nil
}

func (m *Memory) IncrWithExpiry(ctx context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	entry, ok := m.counters[key]
	if !ok || now.After(entry.expiresAt) {
		entry = counterEntry{count: 0, expiresAt: now.Add(window)}
	}
	entry.count++
	m.counters[key] = entry
	return entry.count, nil
}

func (m *Memory) SetFlag(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.flags[key] = time.Now().Add(ttl)
	return nil
}

func (m *Memory) HasFlag(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiresAt, ok := m.flags[key]
	if !ok || time.Now().After(expiresAt) {
		delete(m.flags, key)
		return false, nil
	}
	return true, nil
}

func (m *Memory) TTL(ctx context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.counters[key]
	if !ok {
		return 0, nil
	}
	remaining := time.Until(entry.expiresAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}
