package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/linklytics/linklytics/internal/app/cache"
	"github.com/linklytics/linklytics/internal/app/contextkeys"
	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_LimitByIP(t *testing.T) {
	l := NewLimiter(cache.NewMemory(), time.Minute, 3, 10)
	handler := l.Middleware(okHandler())

	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Real-IP", "203.0.113.7")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-IP", "203.0.113.7")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// другой IP считается отдельно
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-IP", "198.51.100.1")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_AuthenticatedQuota(t *testing.T) {
	l := NewLimiter(cache.NewMemory(), time.Minute, 1, 5)
	handler := l.Middleware(okHandler())

	// аутентифицированный пользователь получает повышенную квоту
	for i := 0; i < 5; i++ {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(context.WithValue(r.Context(), contextkeys.UserIDKey, "user1"))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(context.WithValue(r.Context(), contextkeys.UserIDKey, "user1"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

type failingCounters struct{}

func (failingCounters) IncrWithExpiry(ctx context.Context, key string, window time.Duration) (int64, error) {
	return 0, errors.New("connection refused")
}

func (failingCounters) SetFlag(ctx context.Context, key string, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (failingCounters) HasFlag(ctx context.Context, key string) (bool, error) {
	return false, errors.New("connection refused")
}

func (failingCounters) TTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, errors.New("connection refused")
}

func TestMiddleware_FailOpen(t *testing.T) {
	l := NewLimiter(failingCounters{}, time.Minute, 1, 1)
	handler := l.Middleware(okHandler())

	for i := 0; i < 5; i++ {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
