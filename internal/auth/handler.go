package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type tokenResponse struct {
	CanvasID string `json:"canvasId"`
	Token    string `json:"token"`
}

// Refresh issues a new token for the canvas of the current one. It must be
// mounted behind CanvasMiddleware.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	canvasID := CanvasIDFromContext(r.Context())
	if canvasID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing canvas"})
		return
	}

	token, err := h.service.IssueToken(canvasID)
	if err != nil {
		slog.Error("refresh token failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{CanvasID: canvasID, Token: token})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
