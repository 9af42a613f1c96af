package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linklytics/linklytics/internal/app/clicks"
	"github.com/linklytics/linklytics/internal/app/resolver"
	"github.com/linklytics/linklytics/internal/app/storage"
	"github.com/linklytics/linklytics/internal/app/webhook"
	"github.com/linklytics/linklytics/internal/middleware/realip"
)

// RedirectHandle резолвит короткий код и отвечает постоянным редиректом.
// Запись клика и рассылка вебхуков выполняются после ответа и не влияют
// ни на задержку, ни на статус редиректа.
func (h *Handler) RedirectHandle(res http.ResponseWriter, req *http.Request) {
	code := chi.URLParam(req, "code")
	ip := realip.FromContext(req.Context())
	if ip == "" {
		ip = realip.FromRequest(req)
	}

	if h.detector.IsBlocked(req.Context(), ip) {
		http.Error(res, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	if h.detector.IsFraudulent(req.Context(), ip, code) {
		http.Error(res, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		return
	}

	view, err := h.resolver.Resolve(req.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			http.Error(res, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, resolver.ErrExpired):
			http.Error(res, http.StatusText(http.StatusGone), http.StatusGone)
		default:
			h.writeError(res, err)
		}
		return
	}

	target := view.OriginalURL
	var variantIdx *int
	if view.IsABTest && len(view.Destinations) > 0 {
		url, idx := h.selector.Select(view.Destinations)
		target = url
		variantIdx = &idx
	}

	http.Redirect(res, req, target, http.StatusMovedPermanently)

	query := req.URL.Query()
	h.recorder.Enqueue(clicks.Task{
		Link: webhook.LinkInfo{
			ID:          view.ID,
			ShortCode:   code,
			OriginalURL: view.OriginalURL,
			UserID:      view.UserID,
		},
		Clicks: view.Clicks,
		Request: clicks.Request{
			IPAddress:   ip,
			UserAgent:   req.UserAgent(),
			Referer:     req.Referer(),
			UTMSource:   query.Get("utm_source"),
			UTMMedium:   query.Get("utm_medium"),
			UTMCampaign: query.Get("utm_campaign"),
			UTMTerm:     query.Get("utm_term"),
			UTMContent:  query.Get("utm_content"),
			Variant:     variantIdx,
		},
	})
}
