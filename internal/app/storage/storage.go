package storage

import (
	"context"
	"errors"
	"time"

	"github.com/linklytics/linklytics/internal/app/models"
)

// ErrNotFound возвращается, когда активная ссылка или вебхук не найдены
var ErrNotFound = errors.New("not found")

// ErrConflict возвращается при нарушении уникальности короткого кода или алиаса
var ErrConflict = errors.New("conflict")

// Storage определяет контракт хранилища для ссылок, кликов и вебхуков.
// Инкремент счётчика кликов выполняется атомарно на стороне хранилища.
type Storage interface {
	CreateLink(ctx context.Context, link models.Link) error
	GetLinkByCode(ctx context.Context, code string) (models.Link, error)
	GetLinkByID(ctx context.Context, id, userID string) (models.Link, error)
	GetLinksByUser(ctx context.Context, userID string) ([]models.Link, error)
	UpdateLinkTitle(ctx context.Context, id, userID, title string) error
	DeleteLink(ctx context.Context, id, userID string) (models.Link, error)
	IncrementClicks(ctx context.Context, code string) error
	CodeInUse(ctx context.Context, code string) (bool, error)

	CreateClick(ctx context.Context, click models.ClickEvent) error

	CreateWebhook(ctx context.Context, hook models.Webhook) error
	GetWebhooksByUser(ctx context.Context, userID string) ([]models.Webhook, error)
	GetActiveWebhooks(ctx context.Context, userID string) ([]models.Webhook, error)
	UpdateWebhook(ctx context.Context, hook models.Webhook) error
	UpdateWebhookDelivery(ctx context.Context, id string, failureCount int, isActive bool, lastTriggeredAt *time.Time) error
	DeleteWebhook(ctx context.Context, id, userID string) error

	CountURLs(ctx context.Context) (int64, error)
	CountUsers(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}
