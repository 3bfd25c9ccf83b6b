package session

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// TokenValidator resolves a session token to the canvas it grants.
type TokenValidator interface {
	ValidateToken(token string) (canvasID string, err error)
}

// ServeWS upgrades /ws/canvas/{canvasId}?token=... to a session.
func (h *Hub) ServeWS(tokens TokenValidator, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		canvasID := mux.Vars(r)["canvasId"]

		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		granted, err := tokens.ValidateToken(token)
		if err != nil || granted != canvasID {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if _, err := h.Room(canvasID); err != nil {
			http.Error(w, "canvas not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			slog.Error("websocket accept", "error", err)
			return
		}

		client := NewClient(h, conn, canvasID, uuid.New().String())
		h.Register(client)

		ctx := r.Context()
		go client.WritePump(ctx)
		client.ReadPump(ctx)
	}
}
