package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eduportal/progress-service/internal/models"
	"github.com/eduportal/progress-service/internal/services"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondServiceError maps a progress service error to an HTTP status and sends it
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, err error, message string) {
	status := http.StatusInternalServerError
	var netErr *services.NetworkError

	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		h.Logger.Debug(message, zap.Error(err))
		h.RespondError(w, http.StatusUnauthorized, "access token rejected")
		return
	case errors.Is(err, services.ErrToggleInFlight), errors.Is(err, services.ErrBackwardTransition):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidScore),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, models.ErrInvalidUserID),
		errors.Is(err, models.ErrMalformedRecord):
		status = http.StatusBadRequest
	case errors.As(err, &netErr):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		h.Logger.Error(message, zap.Error(err))
		h.RespondError(w, status, message)
		return
	}
	h.Logger.Debug(message, zap.Error(err))
	h.RespondError(w, status, err.Error())
}
