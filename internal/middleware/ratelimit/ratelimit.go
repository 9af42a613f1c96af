package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/linklytics/linklytics/internal/app/cache"
	"github.com/linklytics/linklytics/internal/app/contextkeys"
	"github.com/linklytics/linklytics/internal/middleware/logger"
	"github.com/linklytics/linklytics/internal/middleware/realip"
	"go.uber.org/zap"
)

// Limiter ограничивает частоту запросов по фиксированному окну.
// Аутентифицированный трафик считается по идентификатору пользователя
// с повышенной квотой, анонимный — по IP-адресу.
type Limiter struct {
	counters cache.Counters
	window   time.Duration
	max      int64
	authMax  int64
}

// NewLimiter создаёт ограничитель с заданным окном и квотами
func NewLimiter(counters cache.Counters, window time.Duration, max, authMax int64) *Limiter {
	return &Limiter{
		counters: counters,
		window:   window,
		max:      max,
		authMax:  authMax,
	}
}

// Middleware проверяет квоту до выполнения запроса. Превышение даёт
// 429 с подсказкой Retry-After из срока жизни окна. При недоступности
// счётчиков запрос пропускается.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		key, limit := l.keyFor(r)

		count, err := l.counters.IncrWithExpiry(r.Context(), key, l.window)
		if err != nil {
			logger.Log.Warn("rate limit counter failed, allowing request", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if count > limit {
			retryAfter := l.window
			if ttl, err := l.counters.TTL(r.Context(), key); err == nil && ttl > 0 {
				retryAfter = ttl
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())+1))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

func (l *Limiter) keyFor(r *http.Request) (string, int64) {
	if userID, ok := r.Context().Value(contextkeys.UserIDKey).(string); ok && userID != "" {
		return "rate_limit:user:" + userID, l.authMax
	}
	return "rate_limit:ip:" + realip.FromRequest(r), l.max
}
