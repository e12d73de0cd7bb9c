package admin

import (
	"net/http"

	"folio/internal/auth"
	"folio/internal/response"
	"folio/internal/server"
)

// HandleListUsers returns every account.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Auth.ListUsers(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, users)
}

// HandleCreateUser adds an account.
func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in auth.CreateUserInput
	if err := response.DecodeBody(r, &in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	u, err := h.Auth.CreateUser(r.Context(), server.Actor(r), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSONStatus(w, http.StatusCreated, u)
}

// HandleUpdateUser changes an account's name, role, active flag or password.
func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request, id string) {
	var in auth.UpdateUserInput
	if err := response.DecodeBody(r, &in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	u, err := h.Auth.UpdateUser(r.Context(), server.Actor(r), id, in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, u)
}
