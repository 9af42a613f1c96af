package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/linklytics/linklytics/internal/app/cache"
	"github.com/linklytics/linklytics/internal/app/models"
	"github.com/linklytics/linklytics/internal/app/storage"
	"github.com/linklytics/linklytics/internal/middleware/logger"
	"go.uber.org/zap"
)

// ErrExpired возвращается для ссылки, чей срок действия истёк
var ErrExpired = errors.New("link expired")

// Resolver выполняет поиск ссылки по короткому коду по схеме cache-aside:
// сначала кеш, при промахе хранилище с последующим прогревом кеша.
type Resolver struct {
	storage storage.Storage
	cache   cache.LinkCache
	ttl     time.Duration
}

func New(store storage.Storage, linkCache cache.LinkCache, ttl time.Duration) *Resolver {
	return &Resolver{
		storage: store,
		cache:   linkCache,
		ttl:     ttl,
	}
}

// Resolve находит активную ссылку по коду или алиасу и учитывает переход.
// Возвращает storage.ErrNotFound для неизвестных и удалённых кодов и
// ErrExpired для истёкших. Поле Clicks результата содержит счётчик уже
// с учётом текущего перехода.
func (r *Resolver) Resolve(ctx context.Context, code string) (models.LinkView, error) {
	if view, err := r.cache.Get(ctx, code); err == nil {
		// счётчик обновляется вне пути ответа клиенту
		go func() {
			if err := r.storage.IncrementClicks(context.Background(), code); err != nil {
				logger.Log.Error("failed to increment click counter",
					zap.String("code", code), zap.Error(err))
			}
		}()
		view.Clicks++
		return view, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		logger.Log.Warn("link cache unavailable, falling back to storage",
			zap.String("code", code), zap.Error(err))
	}

	link, err := r.storage.GetLinkByCode(ctx, code)
	if err != nil {
		return models.LinkView{}, err
	}

	if link.ExpiresAt != nil && time.Now().After(*link.ExpiresAt) {
		return models.LinkView{}, ErrExpired
	}

	view := models.LinkView{
		ID:           link.ID,
		OriginalURL:  link.OriginalURL,
		UserID:       link.UserID,
		IsABTest:     link.IsABTest,
		Destinations: link.Destinations,
		Clicks:       link.Clicks,
	}

	if err := r.storage.IncrementClicks(ctx, code); err != nil {
		logger.Log.Error("failed to increment click counter",
			zap.String("code", code), zap.Error(err))
	} else {
		view.Clicks++
	}

	if err := r.cache.Set(ctx, code, view, r.ttl); err != nil {
		logger.Log.Warn("failed to warm link cache",
			zap.String("code", code), zap.Error(err))
	}
	return view, nil
}

// Invalidate удаляет проекцию ссылки из кеша.
// Вызывается до ответа клиенту при удалении ссылки, чтобы удалённый
// код не продолжал резолвиться из кеша.
func (r *Resolver) Invalidate(ctx context.Context, code string) error {
	return r.cache.Delete(ctx, code)
}

// Warm кладёт свежесозданную ссылку в кеш
func (r *Resolver) Warm(ctx context.Context, code string, link models.Link) {
	view := models.LinkView{
		ID:           link.ID,
		OriginalURL:  link.OriginalURL,
		UserID:       link.UserID,
		IsABTest:     link.IsABTest,
		Destinations: link.Destinations,
		Clicks:       link.Clicks,
	}
	if err := r.cache.Set(ctx, code, view, r.ttl); err != nil {
		logger.Log.Warn("failed to warm link cache",
			zap.String("code", code), zap.Error(err))
	}
}
