package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

type contextKey string

const CanvasIDKey contextKey = "canvasID"

// CanvasMiddleware requires a bearer token issued for the {canvasId} route
// variable.
func (s *Service) CanvasMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
			return
		}

		canvasID, err := s.ValidateToken(parts[1])
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		if want, ok := mux.Vars(r)["canvasId"]; ok && want != canvasID {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token not valid for this canvas"})
			return
		}

		ctx := context.WithValue(r.Context(), CanvasIDKey, canvasID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func CanvasIDFromContext(ctx context.Context) string {
	canvasID, _ := ctx.Value(CanvasIDKey).(string)
	return canvasID
}
