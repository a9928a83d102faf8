package notify

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"MicroShop/internal/auth"
	"MicroShop/pkg/kit"
)

type Server struct {
	Pipeline *Pipeline
	Log      *zap.Logger
}

func (s *Server) ListHandler() http.HandlerFunc   { return s.list }
func (s *Server) StreamHandler() http.HandlerFunc { return s.stream }

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	history, err := s.Pipeline.History(r.Context(), userID)
	if err != nil {
		s.Log.Error("notification history failed", zap.Error(err), zap.Int64("user_id", userID))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{"notifications": history})
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	err := s.Pipeline.Stream(r.Context(), w, userID)
	if err != nil && !errors.Is(err, context.Canceled) {
		// Headers are written; nothing left to send the client.
		s.Log.Warn("notification stream ended", zap.Error(err), zap.Int64("user_id", userID))
	}
}
