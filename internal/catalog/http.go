package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MicroShop/pkg/kit"
)

type Server struct {
	Store Store
	Cache *Cache
	Log   *zap.Logger
}

func (s *Server) ListHandler() http.HandlerFunc   { return s.list }
func (s *Server) GetHandler() http.HandlerFunc    { return s.get }
func (s *Server) CreateHandler() http.HandlerFunc { return s.create }
func (s *Server) UpdateHandler() http.HandlerFunc { return s.update }
func (s *Server) DeleteHandler() http.HandlerFunc { return s.del }

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, err := s.Cache.ListProducts(r.Context())
	if err != nil {
		s.Log.Error("list products failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad product id", nil)
		return
	}

	p, found, err := s.Cache.GetProduct(r.Context(), id)
	if err != nil {
		s.Log.Error("get product failed", zap.Error(err), zap.Int64("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

type createReq struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price"`
	Stock *int     `json:"stock"`
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.Name == "" || req.Price == nil || req.Stock == nil {
		kit.WriteError(w, r, http.StatusBadRequest, "missing required fields", nil)
		return
	}

	id, err := s.Store.Create(r.Context(), req.Name, *req.Price, *req.Stock)
	if err != nil {
		s.Log.Error("create product failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	if err := s.Cache.InvalidateList(r.Context()); err != nil {
		s.Log.Error("invalidate after create failed", zap.Error(err), zap.Int64("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "cache invalidation failed", nil)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, map[string]any{"message": "Product created", "id": id})
}

type updateReq struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price"`
	Stock *int     `json:"stock"`
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad product id", nil)
		return
	}

	var req updateReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	found, err := s.Store.Update(r.Context(), id, Update{Name: req.Name, Price: req.Price, Stock: req.Stock})
	if err != nil {
		s.Log.Error("update product failed", zap.Error(err), zap.Int64("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"id": id})
		return
	}

	if err := s.Cache.Invalidate(r.Context(), id); err != nil {
		s.Log.Error("invalidate after update failed", zap.Error(err), zap.Int64("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "cache invalidation failed", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{"message": "Product updated"})
}

func (s *Server) del(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad product id", nil)
		return
	}

	found, err := s.Store.Delete(r.Context(), id)
	if err != nil {
		s.Log.Error("delete product failed", zap.Error(err), zap.Int64("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"id": id})
		return
	}

	if err := s.Cache.Invalidate(r.Context(), id); err != nil {
		s.Log.Error("invalidate after delete failed", zap.Error(err), zap.Int64("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "cache invalidation failed", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{"message": "Product deleted"})
}

func productID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
