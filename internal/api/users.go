package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nvaprinting/stockroom/internal/ledger"
	"github.com/nvaprinting/stockroom/internal/model"
	"github.com/nvaprinting/stockroom/internal/store"
)

var roleHint = "role must be one of " + strings.Join(model.Roles, ", ")

// UsersHandler manages operator accounts. Every route is admin only.
type UsersHandler struct {
	DB *sql.DB
}

type userRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	switch {
	case err != nil:
		slog.Error("listing operators", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list users")
	case users == nil:
		jsonResponse(w, http.StatusOK, []model.User{})
	default:
		jsonResponse(w, http.StatusOK, users)
	}
}

// Create handles POST /api/users. Usernames are trimmed and must be unused.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		jsonError(w, http.StatusBadRequest, "username is required")
		return
	}
	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, roleHint)
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if existing, err := store.GetUserByUsername(ctx, h.DB, req.Username); err != nil {
		domainError(w, err)
		return
	} else if existing != nil {
		jsonError(w, http.StatusConflict, "username "+req.Username+" is taken")
		return
	}

	user, err := store.CreateUserWithPassword(ctx, h.DB, req.Username, req.Password, req.Role)
	if err != nil {
		domainError(w, err)
		return
	}
	slog.Info("operator added", "actor", ledger.ActorFrom(ctx), "username", user.Username, "role", user.Role)
	jsonResponse(w, http.StatusCreated, user)
}

// SetRole handles PUT /api/users/{id}/role. Admins cannot demote themselves.
func (h *UsersHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, roleHint)
		return
	}
	if claims := GetClaims(r.Context()); claims != nil && claims.UserID == id && req.Role != model.RoleAdmin {
		jsonError(w, http.StatusBadRequest, "cannot change your own role")
		return
	}

	ctx := r.Context()
	if err := store.UpdateUserRole(ctx, h.DB, id, req.Role); err != nil {
		userError(w, err)
		return
	}
	user, err := store.GetUser(ctx, h.DB, id)
	if err != nil || user == nil {
		userError(w, err)
		return
	}
	slog.Info("operator role changed", "actor", ledger.ActorFrom(ctx), "username", user.Username, "role", user.Role)
	jsonResponse(w, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{id}. The account is soft-deleted so
// ledger history keeps naming it.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if claims := GetClaims(r.Context()); claims != nil && claims.UserID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	ctx := r.Context()
	user, err := store.GetUser(ctx, h.DB, id)
	if err != nil || user == nil {
		userError(w, err)
		return
	}
	if err := store.DeleteUser(ctx, h.DB, id); err != nil {
		userError(w, err)
		return
	}
	slog.Info("operator removed", "actor", ledger.ActorFrom(ctx), "username", user.Username, "role", user.Role)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// userError answers 404 for a missing account and 500 otherwise. A nil err
// means the lookup found nothing.
func userError(w http.ResponseWriter, err error) {
	if err == nil || errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	slog.Error("user request failed", "error", err)
	jsonError(w, http.StatusInternalServerError, "internal error")
}
