package admin

import (
	"net/http"
	"time"

	"folio/internal/apperr"
	"folio/internal/auth"
	"folio/internal/models"
	"folio/internal/response"
	"folio/internal/server"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the signed-in user. Token is included for API
// clients that authenticate with a Bearer header instead of the cookie.
type LoginResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// HandleLogin authenticates a user and creates a session.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := response.DecodeBody(r, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	sess, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(w, err)
		return
	}
	server.SetSessionCookie(w, r, sess.Token, sess.ExpiresAt)
	response.JSON(w, LoginResponse{User: sess.User, Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

// HandleLogout ends the caller's session.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if token := server.SessionToken(r); token != "" {
		if err := h.Auth.Logout(r.Context(), token); err != nil {
			response.Error(w, err)
			return
		}
	}
	server.ClearSessionCookie(w)
	response.JSON(w, map[string]string{"status": "ok"})
}

// MeResponse is the signed-in user plus the operations their role allows.
type MeResponse struct {
	*models.User
	Operations []auth.Operation `json:"operations"`
}

// HandleMe returns the signed-in user.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u := server.UserFrom(r.Context())
	if u == nil {
		response.Error(w, apperr.Unauthorized("authentication required"))
		return
	}
	response.JSON(w, MeResponse{User: u, Operations: auth.Operations(u.Role)})
}
