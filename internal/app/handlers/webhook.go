package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linklytics/linklytics/internal/app/models"
)

// webhookResponse отдаёт секрет подписи единственный раз, при создании
type webhookResponse struct {
	models.Webhook
	Secret string `json:"secret"`
}

// CreateWebhookHandle регистрирует подписку на события
func (h *Handler) CreateWebhookHandle(res http.ResponseWriter, req *http.Request) {
	userID, ok := userID(req)
	if !ok {
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var body models.CreateWebhookRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(res, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	hook, err := h.service.CreateWebhook(req.Context(), body, userID)
	if err != nil {
		h.writeError(res, err)
		return
	}
	writeJSON(res, http.StatusCreated, webhookResponse{Webhook: hook, Secret: hook.Secret})
}

// GetWebhooksHandle возвращает все вебхуки пользователя
func (h *Handler) GetWebhooksHandle(res http.ResponseWriter, req *http.Request) {
	userID, ok := userID(req)
	if !ok {
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	hooks, err := h.service.GetUserWebhooks(req.Context(), userID)
	if err != nil {
		h.writeError(res, err)
		return
	}
	if len(hooks) == 0 {
		res.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(res, http.StatusOK, hooks)
}

// UpdateWebhookHandle изменяет подписку
func (h *Handler) UpdateWebhookHandle(res http.ResponseWriter, req *http.Request) {
	userID, ok := userID(req)
	if !ok {
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var body models.UpdateWebhookRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(res, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	hook, err := h.service.UpdateWebhook(req.Context(), chi.URLParam(req, "id"), userID, body)
	if err != nil {
		h.writeError(res, err)
		return
	}
	writeJSON(res, http.StatusOK, hook)
}

// TestWebhookHandle отправляет подписанное тестовое событие на вебхук
func (h *Handler) TestWebhookHandle(res http.ResponseWriter, req *http.Request) {
	userID, ok := userID(req)
	if !ok {
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := h.service.TestWebhook(req.Context(), chi.URLParam(req, "id"), userID); err != nil {
		h.writeError(res, err)
		return
	}
	writeJSON(res, http.StatusOK, map[string]string{"message": "test webhook sent"})
}

// DeleteWebhookHandle удаляет подписку
func (h *Handler) DeleteWebhookHandle(res http.ResponseWriter, req *http.Request) {
	userID, ok := userID(req)
	if !ok {
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := h.service.DeleteWebhook(req.Context(), chi.URLParam(req, "id"), userID); err != nil {
		h.writeError(res, err)
		return
	}
	res.WriteHeader(http.StatusNoContent)
}
