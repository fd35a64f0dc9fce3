package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/qrtist/backend/internal/middlewares"
	"github.com/qrtist/backend/internal/models"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RequestLogger returns the handler logger annotated with the request id of r
func (h *BaseHandler) RequestLogger(r *http.Request) *zap.Logger {
	return middlewares.ContextLogger(r.Context(), h.Logger)
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response",
			zap.Error(err),
			zap.String("request_id", w.Header().Get(middlewares.RequestIDHeader)),
		)
	}
}

// RespondError sends an error JSON response.
// The request id set by RequestIDMiddleware is echoed so clients can quote it.
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, models.ErrorResponse{
		Success:   false,
		Error:     message,
		RequestID: w.Header().Get(middlewares.RequestIDHeader),
	})
}
