package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"MicroShop/pkg/kit"
)

type Server struct {
	Log    *zap.Logger
	Store  UserStore
	Tokens *Tokens
}

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) RegisterHandler() http.HandlerFunc { return s.register }
func (s *Server) LoginHandler() http.HandlerFunc    { return s.login }

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Password = strings.TrimSpace(req.Password)

	if req.Username == "" || req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "username/password required", nil)
		return
	}

	if _, err := s.Store.Create(r.Context(), req.Username, req.Password, RoleUser); err != nil {
		if errors.Is(err, ErrUsernameExists) {
			kit.WriteError(w, r, http.StatusBadRequest, "user already exists", nil)
			return
		}
		s.Log.Error("user create failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, map[string]any{"message": "User registered successfully"})
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Password = strings.TrimSpace(req.Password)

	u, err := s.Store.Verify(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		s.Log.Error("credential check failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	token, err := s.Tokens.Issue(r.Context(), u.ID, u.Role)
	if err != nil {
		s.Log.Error("token issue failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{Token: token, Role: u.Role})
}
