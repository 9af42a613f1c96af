package handlers

import (
	"fmt"
	"net/http"

	"github.com/linklytics/linklytics/internal/middleware/logger"
	"go.uber.org/zap"
)

func (h *Handler) Ping(res http.ResponseWriter, req *http.Request) {
	logger.Log.Info("PingHandle", zap.String("url", req.URL.String()))
	if err := h.service.Ping(req.Context()); err != nil {
		res.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(res, err.Error())
		return
	}
	res.WriteHeader(http.StatusOK)
}
