package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"Inventory/pkg/kit"
)

const (
	maxBodyBytes    = 1 << 20
	defaultTokenTTL = 15 * time.Minute
)

type Server struct {
	Log   *zap.Logger
	Store OperatorStore
	JWT   *TokenMaker

	TokenTTL time.Duration
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := kit.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Email = normalizeEmail(req.Email)
	req.Password = strings.TrimSpace(req.Password)
	if req.Email == "" || req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "email/password required", nil)
		return
	}

	op, err := s.Store.Verify(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	if err != nil {
		s.logger().Error("verify operator", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	ttl := s.ttl()
	tok, err := s.JWT.New(op, ttl)
	if err != nil {
		s.logger().Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{AccessToken: tok, ExpiresIn: int(ttl.Seconds())})
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	c, ok := ClaimsFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"operator_id": c.OperatorID,
		"email":       c.Email,
		"role":        c.Role,
	})
}

func (s *Server) ttl() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return defaultTokenTTL
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
