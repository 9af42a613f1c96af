package service

import (
	"context"

	"github.com/linklytics/linklytics/internal/app/models"
)

// Service определяет бизнес-логику для работы с сокращёнными ссылками
// и подписками на вебхуки
type Service interface {
	// CreateLink создаёт сокращённую ссылку, при необходимости с
	// пользовательским алиасом или конфигурацией A/B-теста
	CreateLink(ctx context.Context, req models.CreateLinkRequest, userID string) (models.LinkResponse, error)

	// GetLink возвращает ссылку пользователя по идентификатору
	GetLink(ctx context.Context, id, userID string) (models.LinkResponse, error)

	// GetUserLinks возвращает все ссылки, созданные пользователем
	GetUserLinks(ctx context.Context, userID string) ([]models.LinkResponse, error)

	// UpdateLinkTitle изменяет заголовок ссылки
	UpdateLinkTitle(ctx context.Context, id, userID, title string) error

	// DeleteLink удаляет ссылку и её закешированную проекцию
	DeleteLink(ctx context.Context, id, userID string) error

	// CreateWebhook регистрирует подписку на события и выдаёт секрет подписи
	CreateWebhook(ctx context.Context, req models.CreateWebhookRequest, userID string) (models.Webhook, error)

	// GetUserWebhooks возвращает все вебхуки пользователя
	GetUserWebhooks(ctx context.Context, userID string) ([]models.Webhook, error)

	// UpdateWebhook изменяет подписку; повторная активация сбрасывает
	// счётчик неудачных доставок
	UpdateWebhook(ctx context.Context, id, userID string, req models.UpdateWebhookRequest) (models.Webhook, error)

	// DeleteWebhook удаляет подписку
	DeleteWebhook(ctx context.Context, id, userID string) error

	// TestWebhook отправляет на вебхук подписанное тестовое событие
	// и возвращает результат доставки
	TestWebhook(ctx context.Context, id, userID string) error

	// GetStats возвращает статистику: количество ссылок и количество пользователей
	GetStats(ctx context.Context) (urls int64, users int64, err error)

	// Ping пингует сервис
	Ping(ctx context.Context) error
}
