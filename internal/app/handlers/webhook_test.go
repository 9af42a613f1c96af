package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/linklytics/linklytics/internal/app/config"
	"github.com/linklytics/linklytics/internal/app/handlers"
	"github.com/linklytics/linklytics/internal/app/models"
	"github.com/linklytics/linklytics/internal/app/storage"
	"github.com/linklytics/linklytics/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWebhookHandle(t *testing.T) {
	svc := &mockService{
		CreateWebhookFunc: func(ctx context.Context, req models.CreateWebhookRequest, userID string) (models.Webhook, error) {
			return models.Webhook{
				ID:       "wh1",
				UserID:   userID,
				URL:      req.URL,
				Events:   req.Events,
				Secret:   "s3cret",
				IsActive: true,
			}, nil
		},
	}
	h, _ := handlers.NewHandler(&config.Config{}, svc, nil, nil, nil)

	body, _ := json.Marshal(models.CreateWebhookRequest{
		URL:    "https://hooks.example.com/x",
		Events: []string{models.EventClick},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks", bytes.NewReader(body))
	req = testutils.WithTestUserContext(req, "user1")
	w := httptest.NewRecorder()

	h.CreateWebhookHandle(w, req)
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	// секрет отдаётся только в ответе на создание
	var created map[string]interface{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	assert.Equal(t, "s3cret", created["secret"])
}

func TestCreateWebhookHandle_InvalidEvents(t *testing.T) {
	svc := &mockService{
		CreateWebhookFunc: func(ctx context.Context, req models.CreateWebhookRequest, userID string) (models.Webhook, error) {
			return models.Webhook{}, models.ErrValidation
		},
	}
	h, _ := handlers.NewHandler(&config.Config{}, svc, nil, nil, nil)

	body, _ := json.Marshal(models.CreateWebhookRequest{
		URL:    "https://hooks.example.com/x",
		Events: []string{"unknown_event"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks", bytes.NewReader(body))
	req = testutils.WithTestUserContext(req, "user1")
	w := httptest.NewRecorder()

	h.CreateWebhookHandle(w, req)
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGetWebhooksHandle_NoContent(t *testing.T) {
	h, _ := handlers.NewHandler(&config.Config{}, &mockService{}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/webhooks", nil)
	req = testutils.WithTestUserContext(req, "user1")
	w := httptest.NewRecorder()

	h.GetWebhooksHandle(w, req)
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
}

func TestUpdateWebhookHandle(t *testing.T) {
	svc := &mockService{
		UpdateWebhookFunc: func(ctx context.Context, id, userID string, req models.UpdateWebhookRequest) (models.Webhook, error) {
			assert.Equal(t, "wh1", id)
			return models.Webhook{ID: id, IsActive: true}, nil
		},
	}
	h, _ := handlers.NewHandler(&config.Config{}, svc, nil, nil, nil)

	active := true
	body, _ := json.Marshal(models.UpdateWebhookRequest{IsActive: &active})
	req := httptest.NewRequest(http.MethodPatch, "/api/webhooks/wh1", bytes.NewReader(body))
	req = testutils.WithTestUserContext(req, "user1")
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", "wh1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	w := httptest.NewRecorder()

	h.UpdateWebhookHandle(w, req)
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestTestWebhookHandle(t *testing.T) {
	svc := &mockService{
		TestWebhookFunc: func(ctx context.Context, id, userID string) error {
			assert.Equal(t, "wh1", id)
			return nil
		},
	}
	h, _ := handlers.NewHandler(&config.Config{}, svc, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/wh1/test", nil)
	req = testutils.WithTestUserContext(req, "user1")
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", "wh1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	w := httptest.NewRecorder()

	h.TestWebhookHandle(w, req)
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestTestWebhookHandle_DeliveryFailed(t *testing.T) {
	svc := &mockService{
		TestWebhookFunc: func(ctx context.Context, id, userID string) error {
			return models.ErrValidation
		},
	}
	h, _ := handlers.NewHandler(&config.Config{}, svc, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/wh1/test", nil)
	req = testutils.WithTestUserContext(req, "user1")
	w := httptest.NewRecorder()

	h.TestWebhookHandle(w, req)
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestDeleteWebhookHandle_NotFound(t *testing.T) {
	svc := &mockService{
		DeleteWebhookFunc: func(ctx context.Context, id, userID string) error {
			return storage.ErrNotFound
		},
	}
	h, _ := handlers.NewHandler(&config.Config{}, svc, nil, nil, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/webhooks/missing", nil)
	req = testutils.WithTestUserContext(req, "user1")
	w := httptest.NewRecorder()

	h.DeleteWebhookHandle(w, req)
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
