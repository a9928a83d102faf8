package cart

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"MicroShop/internal/auth"
	"MicroShop/pkg/kit"
)

type Server struct {
	Cart *Store
	Log  *zap.Logger
}

func (s *Server) AddHandler() http.HandlerFunc   { return s.add }
func (s *Server) GetHandler() http.HandlerFunc   { return s.get }
func (s *Server) ClearHandler() http.HandlerFunc { return s.clear }

type addReq struct {
	ProductID int64 `json:"product_id"`
	Quantity  *int  `json:"quantity"`
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req addReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	err := s.Cart.Add(r.Context(), userID, req.ProductID, qty)
	switch {
	case errors.Is(err, ErrProductNotFound):
		kit.WriteError(w, r, http.StatusNotFound, fmt.Sprintf("Product %d not found", req.ProductID), nil)
	case errors.Is(err, ErrBadQuantity):
		kit.WriteError(w, r, http.StatusBadRequest, "quantity must be positive", nil)
	case err != nil:
		s.Log.Error("cart add failed", zap.Error(err), zap.Int64("user_id", userID))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	default:
		kit.WriteJSON(w, http.StatusOK, map[string]any{"message": "Added to cart"})
	}
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	cart, err := s.Cart.Get(r.Context(), userID)
	if err != nil {
		s.Log.Error("cart read failed", zap.Error(err), zap.Int64("user_id", userID))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{"cart": cart})
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	if err := s.Cart.Clear(r.Context(), userID); err != nil {
		s.Log.Error("cart clear failed", zap.Error(err), zap.Int64("user_id", userID))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{"message": "Cart deleted"})
}
