package cache

import (
	"context"
	"errors"
	"time"

	"github.com/linklytics/linklytics/internal/app/models"
)

// ErrMiss возвращается, когда ключ отсутствует в кеше
var ErrMiss = errors.New("cache miss")

// LinkCache хранит денормализованные проекции ссылок с TTL.
// Кеш — расходуемое представление, источником истины остаётся хранилище.
type LinkCache interface {
	Get(ctx context.Context, code string) (models.LinkView, error)
	Set(ctx context.Context, code string, view models.LinkView, ttl time.Duration) error
	Delete(ctx context.Context, code string) error
}

// Counters — узкий интерфейс к разделяемым атомарным счётчикам.
// IncrWithExpiry инкрементирует ключ и выставляет срок жизни на первом
// событии окна одной атомарной операцией.
type Counters interface {
	IncrWithExpiry(ctx context.Context, key string, window time.Duration) (int64, error)
	SetFlag(ctx context.Context, key string, ttl time.Duration) error
	HasFlag(ctx context.Context, key string) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}
