package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/videohub/backend/internal/auth"
	"github.com/videohub/backend/internal/logging"
	"github.com/videohub/backend/internal/models"
)

// AuthHandler implements the account endpoints under /api/auth.
type AuthHandler struct {
	Auth    AuthService
	Limiter RateLimiter
	Debug   bool
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type logoutRequest struct {
	SessionToken string `json:"sessionToken"`
}

type registerResponse struct {
	Success bool        `json:"success"`
	User    models.User `json:"user"`
	Token   string      `json:"token"`
}

type loginResponse struct {
	Success      bool        `json:"success"`
	User         models.User `json:"user"`
	Token        string      `json:"token"`
	SessionToken string      `json:"sessionToken"`
}

type userResponse struct {
	Success bool        `json:"success"`
	User    models.User `json:"user"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Register handles POST /api/auth/register.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "auth:register") {
		logging.FromContext(ctx).Warn("register rate limited", "ip", clientIP(r))
		respondMessage(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid register payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Auth.Register(ctx, req.Email, req.Password)
	if err != nil {
		respondError(ctx, w, err, h.Debug)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, registerResponse{Success: true, User: result.User, Token: result.Token})
}

// Login handles POST /api/auth/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "auth:login") {
		logging.FromContext(ctx).Warn("login rate limited", "ip", clientIP(r))
		respondMessage(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid login payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		respondError(ctx, w, err, h.Debug)
		return
	}

	respondJSON(ctx, w, http.StatusOK, loginResponse{
		Success:      true,
		User:         result.User,
		Token:        result.Token,
		SessionToken: result.SessionToken,
	})
}

// Logout handles POST /api/auth/logout. The session token may be sent in the
// body; a missing, unknown or unreadable token still succeeds.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logging.FromContext(ctx).Debug("ignoring logout payload", "error", err)
		req = logoutRequest{}
	}

	if req.SessionToken != "" {
		h.Auth.Logout(ctx, req.SessionToken)
	}

	respondJSON(ctx, w, http.StatusOK, messageResponse{Success: true, Message: "logged out"})
}

// Verify handles GET /api/auth/verify.
func (h AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.Auth.VerifyToken(ctx, auth.BearerToken(r.Header.Get("Authorization")))
	if err != nil {
		respondError(ctx, w, err, h.Debug)
		return
	}

	respondJSON(ctx, w, http.StatusOK, userResponse{Success: true, User: user})
}
