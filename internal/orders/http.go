package orders

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MicroShop/internal/auth"
	"MicroShop/pkg/kit"
)

type Server struct {
	Service *Service
	Log     *zap.Logger
}

func (s *Server) CreateHandler() http.HandlerFunc       { return s.create }
func (s *Server) UpdateStatusHandler() http.HandlerFunc { return s.updateStatus }

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	orderID, err := s.Service.Create(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrEmptyCart) {
			kit.WriteError(w, r, http.StatusBadRequest, "Cart is empty", nil)
			return
		}
		s.Log.Error("order create failed", zap.Error(err), zap.Int64("user_id", userID))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, map[string]any{"message": "Order created", "order_id": orderID})
}

type statusReq struct {
	Status string `json:"status"`
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad order id", nil)
		return
	}

	var req statusReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.Status == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "status required", nil)
		return
	}

	if err := s.Service.UpdateStatus(r.Context(), orderID, req.Status); err != nil {
		if errors.Is(err, ErrNotFound) {
			kit.WriteError(w, r, http.StatusNotFound, "Order not found", map[string]any{"id": orderID})
			return
		}
		s.Log.Error("status update failed", zap.Error(err), zap.Int64("order_id", orderID))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{"message": "Status updated"})
}
