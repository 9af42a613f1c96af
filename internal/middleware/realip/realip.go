package realip

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/linklytics/linklytics/internal/app/contextkeys"
)

// Middleware определяет IP-адрес клиента и кладёт его в контекст запроса.
// Порядок источников: первый адрес из X-Forwarded-For, затем X-Real-IP,
// затем адрес соединения.
func Middleware(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ip := FromRequest(r)
		ctx := context.WithValue(r.Context(), contextkeys.ClientIPKey, ip)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}

// FromRequest извлекает IP-адрес клиента из заголовков запроса
func FromRequest(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FromContext возвращает IP-адрес клиента, сохранённый Middleware
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextkeys.ClientIPKey).(string)
	return ip
}
