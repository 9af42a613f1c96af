package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linklytics/linklytics/internal/app/clicks"
	"github.com/linklytics/linklytics/internal/app/config"
	"github.com/linklytics/linklytics/internal/app/contextkeys"
	"github.com/linklytics/linklytics/internal/app/fraud"
	"github.com/linklytics/linklytics/internal/app/models"
	"github.com/linklytics/linklytics/internal/app/resolver"
	"github.com/linklytics/linklytics/internal/app/service"
	"github.com/linklytics/linklytics/internal/app/storage"
	"github.com/linklytics/linklytics/internal/app/variant"
	"github.com/linklytics/linklytics/internal/middleware/logger"
	"go.uber.org/zap"
)

// Handler обслуживает HTTP API сервиса коротких ссылок
type Handler struct {
	config   *config.Config
	service  service.Service
	resolver *resolver.Resolver
	detector *fraud.Detector
	recorder *clicks.Recorder
	selector *variant.Selector
}

// NewHandler создаёт новый Handler
func NewHandler(conf *config.Config, svc service.Service, res *resolver.Resolver, detector *fraud.Detector, recorder *clicks.Recorder) (*Handler, error) {
	if conf == nil {
		return nil, errors.New("nil config")
	}
	return &Handler{
		config:   conf,
		service:  svc,
		resolver: res,
		detector: detector,
		recorder: recorder,
		selector: variant.NewSelector(nil),
	}, nil
}

// CreateLinkHandle создаёт сокращённую ссылку
func (h *Handler) CreateLinkHandle(res http.ResponseWriter, req *http.Request) {
	userID, ok := userID(req)
	if !ok {
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var body models.CreateLinkRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(res, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	link, err := h.service.CreateLink(req.Context(), body, userID)
	if err != nil {
		h.writeError(res, err)
		return
	}
	writeJSON(res, http.StatusCreated, link)
}

// GetUserLinksHandle возвращает все ссылки пользователя
func (h *Handler) GetUserLinksHandle(res http.ResponseWriter, req *http.Request) {
	userID, ok := userID(req)
	if !ok {
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	links, err := h.service.GetUserLinks(req.Context(), userID)
	if err != nil {
		h.writeError(res, err)
		return
	}
	if len(links) == 0 {
		res.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(res, http.StatusOK, links)
}

// GetLinkHandle возвращает ссылку пользователя по идентификатору
func (h *Handler) GetLinkHandle(res http.ResponseWriter, req *http.Request) {
	userID, ok := userID(req)
	if !ok {
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	link, err := h.service.GetLink(req.Context(), chi.URLParam(req, "id"), userID)
	if err != nil {
		h.writeError(res, err)
		return
	}
	writeJSON(res, http.StatusOK, link)
}

// UpdateLinkHandle изменяет заголовок ссылки
func (h *Handler) UpdateLinkHandle(res http.ResponseWriter, req *http.Request) {
	userID, ok := userID(req)
	if !ok {
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var body models.UpdateLinkRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(res, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id := chi.URLParam(req, "id")
	if err := h.service.UpdateLinkTitle(req.Context(), id, userID, body.Title); err != nil {
		h.writeError(res, err)
		return
	}

	link, err := h.service.GetLink(req.Context(), id, userID)
	if err != nil {
		h.writeError(res, err)
		return
	}
	writeJSON(res, http.StatusOK, link)
}

// DeleteLinkHandle удаляет ссылку
func (h *Handler) DeleteLinkHandle(res http.ResponseWriter, req *http.Request) {
	userID, ok := userID(req)
	if !ok {
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := h.service.DeleteLink(req.Context(), chi.URLParam(req, "id"), userID); err != nil {
		h.writeError(res, err)
		return
	}
	res.WriteHeader(http.StatusNoContent)
}

// InternalStatsHandle возвращает статистику сервиса.
// Доступ ограничен доверенной подсетью на уровне роутера.
func (h *Handler) InternalStatsHandle(res http.ResponseWriter, req *http.Request) {
	urls, users, err := h.service.GetStats(req.Context())
	if err != nil {
		h.writeError(res, err)
		return
	}
	writeJSON(res, http.StatusOK, models.StatsResponse{URLs: urls, Users: users})
}

func userID(req *http.Request) (string, bool) {
	id, ok := req.Context().Value(contextkeys.UserIDKey).(string)
	return id, ok && id != ""
}

func writeJSON(res http.ResponseWriter, status int, v interface{}) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	if err := json.NewEncoder(res).Encode(v); err != nil {
		logger.Log.Error("failed to write response", zap.Error(err))
	}
}

func (h *Handler) writeError(res http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		http.Error(res, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrConflict):
		http.Error(res, http.StatusText(http.StatusConflict), http.StatusConflict)
	case errors.Is(err, storage.ErrNotFound):
		http.Error(res, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	default:
		logger.Log.Error("request failed", zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
