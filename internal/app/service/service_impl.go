package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linklytics/linklytics/internal/app/models"
	"github.com/linklytics/linklytics/internal/app/resolver"
	"github.com/linklytics/linklytics/internal/app/shortcode"
	"github.com/linklytics/linklytics/internal/app/storage"
	"github.com/linklytics/linklytics/internal/app/webhook"
)

const webhookSecretBytes = 32

var ErrConflict = errors.New("short code conflict")

type linkService struct {
	storage    storage.Storage
	resolver   *resolver.Resolver
	dispatcher *webhook.Dispatcher
	baseURL    string
	codeLength int
}

// NewService создаёт новый экземпляр сервиса
func NewService(store storage.Storage, res *resolver.Resolver, dispatcher *webhook.Dispatcher, baseURL string, codeLength int) Service {
	if codeLength <= 0 {
		codeLength = shortcode.DefaultLength
	}
	return &linkService{
		storage:    store,
		resolver:   res,
		dispatcher: dispatcher,
		baseURL:    strings.TrimRight(baseURL, "/"),
		codeLength: codeLength,
	}
}

// CreateLink создаёт сокращённую ссылку
func (s *linkService) CreateLink(ctx context.Context, req models.CreateLinkRequest, userID string) (models.LinkResponse, error) {
	if err := validateURL(req.OriginalURL); err != nil {
		return models.LinkResponse{}, err
	}

	if req.IsABTest {
		if err := models.ValidateDestinations(req.Destinations); err != nil {
			return models.LinkResponse{}, err
		}
	}

	if req.CustomAlias != "" {
		if err := models.ValidateAlias(req.CustomAlias); err != nil {
			return models.LinkResponse{}, err
		}
		inUse, err := s.storage.CodeInUse(ctx, req.CustomAlias)
		if err != nil {
			return models.LinkResponse{}, err
		}
		if inUse {
			return models.LinkResponse{}, ErrConflict
		}
	}

	code, err := shortcode.GenerateUnique(ctx, s.storage, s.codeLength)
	if err != nil {
		return models.LinkResponse{}, err
	}

	link := models.Link{
		ID:           uuid.NewString(),
		ShortCode:    code,
		OriginalURL:  req.OriginalURL,
		CustomAlias:  req.CustomAlias,
		Title:        req.Title,
		UserID:       userID,
		IsActive:     true,
		IsABTest:     req.IsABTest,
		Destinations: req.Destinations,
		ExpiresAt:    req.ExpiresAt,
		CreatedAt:    time.Now(),
	}

	if err := s.storage.CreateLink(ctx, link); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return models.LinkResponse{}, ErrConflict
		}
		return models.LinkResponse{}, err
	}

	s.resolver.Warm(ctx, link.ShortCode, link)
	if link.CustomAlias != "" {
		s.resolver.Warm(ctx, link.CustomAlias, link)
	}

	go s.dispatcher.Dispatch(context.Background(), userID, models.EventURLCreated, webhook.LinkInfo{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
	})

	return s.toResponse(link), nil
}

// GetLink возвращает ссылку пользователя по идентификатору
func (s *linkService) GetLink(ctx context.Context, id, userID string) (models.LinkResponse, error) {
	link, err := s.storage.GetLinkByID(ctx, id, userID)
	if err != nil {
		return models.LinkResponse{}, err
	}
	return s.toResponse(link), nil
}

// GetUserLinks возвращает все ссылки пользователя
func (s *linkService) GetUserLinks(ctx context.Context, userID string) ([]models.LinkResponse, error) {
	links, err := s.storage.GetLinksByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]models.LinkResponse, 0, len(links))
	for _, link := range links {
		responses = append(responses, s.toResponse(link))
	}
	return responses, nil
}

// UpdateLinkTitle изменяет заголовок ссылки
func (s *linkService) UpdateLinkTitle(ctx context.Context, id, userID, title string) error {
	return s.storage.UpdateLinkTitle(ctx, id, userID, title)
}

// DeleteLink удаляет ссылку. Кеш инвалидируется до возврата управления,
// чтобы удалённый код сразу перестал резолвиться.
func (s *linkService) DeleteLink(ctx context.Context, id, userID string) error {
	link, err := s.storage.DeleteLink(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.resolver.Invalidate(ctx, link.ShortCode); err != nil {
		return err
	}
	if link.CustomAlias != "" {
		if err := s.resolver.Invalidate(ctx, link.CustomAlias); err != nil {
			return err
		}
	}

	go s.dispatcher.Dispatch(context.Background(), userID, models.EventURLDeleted, webhook.LinkInfo{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
	})

	return nil
}

// CreateWebhook регистрирует подписку на события
func (s *linkService) CreateWebhook(ctx context.Context, req models.CreateWebhookRequest, userID string) (models.Webhook, error) {
	if err := validateURL(req.URL); err != nil {
		return models.Webhook{}, err
	}
	if err := models.ValidateEvents(req.Events); err != nil {
		return models.Webhook{}, err
	}

	secret, err := generateSecret()
	if err != nil {
		return models.Webhook{}, err
	}

	hook := models.Webhook{
		ID:        uuid.NewString(),
		UserID:    userID,
		URL:       req.URL,
		Events:    req.Events,
		Secret:    secret,
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	if err := s.storage.CreateWebhook(ctx, hook); err != nil {
		return models.Webhook{}, err
	}
	return hook, nil
}

// GetUserWebhooks возвращает все вебхуки пользователя
func (s *linkService) GetUserWebhooks(ctx context.Context, userID string) ([]models.Webhook, error) {
	return s.storage.GetWebhooksByUser(ctx, userID)
}

// webhookByID ищет вебхук пользователя по идентификатору
func (s *linkService) webhookByID(ctx context.Context, id, userID string) (models.Webhook, error) {
	hooks, err := s.storage.GetWebhooksByUser(ctx, userID)
	if err != nil {
		return models.Webhook{}, err
	}
	for _, h := range hooks {
		if h.ID == id {
			return h, nil
		}
	}
	return models.Webhook{}, storage.ErrNotFound
}

// UpdateWebhook изменяет подписку
func (s *linkService) UpdateWebhook(ctx context.Context, id, userID string, req models.UpdateWebhookRequest) (models.Webhook, error) {
	hook, err := s.webhookByID(ctx, id, userID)
	if err != nil {
		return models.Webhook{}, err
	}

	if req.URL != nil {
		if err := validateURL(*req.URL); err != nil {
			return models.Webhook{}, err
		}
		hook.URL = *req.URL
	}
	if req.Events != nil {
		if err := models.ValidateEvents(req.Events); err != nil {
			return models.Webhook{}, err
		}
		hook.Events = req.Events
	}
	if req.IsActive != nil {
		if *req.IsActive && !hook.IsActive {
			hook.FailureCount = 0
		}
		hook.IsActive = *req.IsActive
	}

	if err := s.storage.UpdateWebhook(ctx, hook); err != nil {
		return models.Webhook{}, err
	}
	return hook, nil
}

// DeleteWebhook удаляет подписку
func (s *linkService) DeleteWebhook(ctx context.Context, id, userID string) error {
	return s.storage.DeleteWebhook(ctx, id, userID)
}

// TestWebhook отправляет тестовое событие на вебхук пользователя.
// Неудачная доставка считается ошибкой валидации адресата.
func (s *linkService) TestWebhook(ctx context.Context, id, userID string) error {
	hook, err := s.webhookByID(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.dispatcher.SendTest(ctx, hook); err != nil {
		return fmt.Errorf("%w: %s", models.ErrValidation, err)
	}
	return nil
}

// GetStats возвращает общее количество ссылок и пользователей
func (s *linkService) GetStats(ctx context.Context) (int64, int64, error) {
	urls, err := s.storage.CountURLs(ctx)
	if err != nil {
		return 0, 0, err
	}

	users, err := s.storage.CountUsers(ctx)
	if err != nil {
		return 0, 0, err
	}

	return urls, users, nil
}

func (s *linkService) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

func (s *linkService) toResponse(link models.Link) models.LinkResponse {
	code := link.ShortCode
	if link.CustomAlias != "" {
		code = link.CustomAlias
	}
	return models.LinkResponse{
		ID:          link.ID,
		ShortURL:    s.baseURL + "/" + code,
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		Title:       link.Title,
		Clicks:      link.Clicks,
		IsABTest:    link.IsABTest,
		CreatedAt:   link.CreatedAt,
		ExpiresAt:   link.ExpiresAt,
	}
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return models.ErrValidation
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.ErrValidation
	}
	return nil
}

func generateSecret() (string, error) {
	buf := make([]byte, webhookSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
