package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/linklytics/linklytics/internal/app/models"
	"github.com/redis/go-redis/v9"
)

const linkKeyPrefix = "url:"

// Скрипт выполняет инкремент и выставление срока жизни одной атомарной
// операцией, чтобы исключить гонку между INCR и EXPIRE при конкурентных
// запросах по одному ключу.
var incrWithExpiryScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// Redis реализует LinkCache и Counters поверх одного redis-клиента
type Redis struct {
	client *redis.Client
	script *redis.Script
}

// NewRedis создаёт клиент и проверяет соединение
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cannot connect to redis: %w", err)
	}

	return &Redis{client: client, script: incrWithExpiryScript}, nil
}

// Close закрывает соединение с redis
func (r *Redis) Close() error {
	return r.client.Close()
}

// Get возвращает закешированную проекцию ссылки
func (r *Redis) Get(ctx context.Context, code string) (models.LinkView, error) {
	payload, err := r.client.Get(ctx, linkKeyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.LinkView{}, ErrMiss
	}
	if err != nil {
		return models.LinkView{}, err
	}

	var view models.LinkView
	if err := json.Unmarshal(payload, &view); err != nil {
		return models.LinkView{}, err
	}
	return view, nil
}

// Set записывает проекцию ссылки с заданным TTL
func (r *Redis) Set(ctx context.Context, code string, view models.LinkView, ttl time.Duration) error {
	payload, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, linkKeyPrefix+code, payload, ttl).Err()
}

// Delete удаляет проекцию ссылки из кеша
func (r *Redis) Delete(ctx context.Context, code string) error {
	return r.client.Del(ctx, linkKeyPrefix+code).Err()
}

// IncrWithExpiry атомарно инкрементирует счётчик и на первом событии
// окна выставляет срок жизни ключа
func (r *Redis) IncrWithExpiry(ctx context.Context, key string, window time.Duration) (int64, error) {
	return r.script.Run(ctx, r.client, []string{key}, window.Milliseconds()).Int64()
}

// SetFlag выставляет флаг с TTL (например, временную блокировку IP)
func (r *Redis) SetFlag(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Set(ctx, key, "1", ttl).Err()
}

// HasFlag проверяет наличие флага
func (r *Redis) HasFlag(ctx context.Context, key string) (bool, error) {
	_, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TTL возвращает оставшийся срок жизни ключа
func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	return r.client.TTL(ctx, key).Result()
}
