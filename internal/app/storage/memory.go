package storage

import (
	"context"
	"sync"
	"time"

	"github.com/linklytics/linklytics/internal/app/models"
)

// MemoryStorage — потокобезопасное хранилище в памяти.
// Используется в тестах и при запуске без DATABASE_DSN.
type MemoryStorage struct {
	mu       sync.RWMutex
	links    map[string]models.Link
	clicks   []models.ClickEvent
	webhooks map[string]models.Webhook
}

// NewMemoryStorage создаёт пустое хранилище в памяти
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		links:    make(map[string]models.Link),
		webhooks: make(map[string]models.Webhook),
	}
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStorage) CreateLink(ctx context.Context, link models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.links {
		if existing.ShortCode == link.ShortCode || existing.ShortCode == link.CustomAlias {
			return ErrConflict
		}
		if existing.CustomAlias != "" &&
			(existing.CustomAlias == link.ShortCode || existing.CustomAlias == link.CustomAlias) {
			return ErrConflict
		}
	}
	m.links[link.ID] = link
	return nil
}

func (m *MemoryStorage) GetLinkByCode(ctx context.Context, code string) (models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, link := range m.links {
		if (link.ShortCode == code || link.CustomAlias == code) && link.IsActive {
			return link, nil
		}
	}
	return models.Link{}, ErrNotFound
}

func (m *MemoryStorage) GetLinkByID(ctx context.Context, id, userID string) (models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[id]
	if !ok || link.UserID != userID || !link.IsActive {
		return models.Link{}, ErrNotFound
	}
	return link, nil
}

func (m *MemoryStorage) GetLinksByUser(ctx context.Context, userID string) ([]models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Link
	for _, link := range m.links {
		if link.UserID == userID && link.IsActive {
			result = append(result, link)
		}
	}
	return result, nil
}

func (m *MemoryStorage) UpdateLinkTitle(ctx context.Context, id, userID, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[id]
	if !ok || link.UserID != userID || !link.IsActive {
		return ErrNotFound
	}
	link.Title = title
	m.links[id] = link
	return nil
}

func (m *MemoryStorage) DeleteLink(ctx context.Context, id, userID string) (models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[id]
	if !ok || link.UserID != userID || !link.IsActive {
		return models.Link{}, ErrNotFound
	}
	deleted := link
	link.IsActive = false
	m.links[id] = link
	return deleted, nil
}

func (m *MemoryStorage) IncrementClicks(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, link := range m.links {
		if (link.ShortCode == code || link.CustomAlias == code) && link.IsActive {
			link.Clicks++
			m.links[id] = link
			return nil
		}
	}
	return nil
}

func (m *MemoryStorage) CodeInUse(ctx context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, link := range m.links {
		if link.ShortCode == code || link.CustomAlias == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStorage) CreateClick(ctx context.Context, click models.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clicks = append(m.clicks, click)
	return nil
}

// Clicks возвращает копию всех записанных кликов. Только для тестов.
func (m *MemoryStorage) Clicks() []models.ClickEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.ClickEvent, len(m.clicks))
	copy(result, m.clicks)
	return result
}

func (m *MemoryStorage) CreateWebhook(ctx context.Context, hook models.Webhook) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.webhooks[hook.ID] = hook
	return nil
}

func (m *MemoryStorage) GetWebhooksByUser(ctx context.Context, userID string) ([]models.Webhook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Webhook
	for _, hook := range m.webhooks {
		if hook.UserID == userID {
			result = append(result, hook)
		}
	}
	return result, nil
}

func (m *MemoryStorage) GetActiveWebhooks(ctx context.Context, userID string) ([]models.Webhook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Webhook
	for _, hook := range m.webhooks {
		if hook.UserID == userID && hook.IsActive {
			result = append(result, hook)
		}
	}
	return result, nil
}

func (m *MemoryStorage) UpdateWebhook(ctx context.Context, hook models.Webhook) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.webhooks[hook.ID]
	if !ok || existing.UserID != hook.UserID {
		return ErrNotFound
	}
	hook.Secret = existing.Secret
	hook.CreatedAt = existing.CreatedAt
	m.webhooks[hook.ID] = hook
	return nil
}

func (m *MemoryStorage) UpdateWebhookDelivery(ctx context.Context, id string, failureCount int, isActive bool, lastTriggeredAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hook, ok := m.webhooks[id]
	if !ok {
		return ErrNotFound
	}
	hook.FailureCount = failureCount
	hook.IsActive = isActive
	if lastTriggeredAt != nil {
		hook.LastTriggeredAt = lastTriggeredAt
	}
	m.webhooks[id] = hook
	return nil
}

func (m *MemoryStorage) DeleteWebhook(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hook, ok := m.webhooks[id]
	if !ok || hook.UserID != userID {
		return ErrNotFound
	}
	delete(m.webhooks, id)
	return nil
}

func (m *MemoryStorage) CountURLs(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, link := range m.links {
		if link.IsActive {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStorage) CountUsers(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make(map[string]bool)
	for _, link := range m.links {
		users[link.UserID] = true
	}
	return int64(len(users)), nil
}
