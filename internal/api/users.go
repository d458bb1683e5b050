package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/danharte/stencil/internal/account"
)

type changePasswordRequest struct {
	Password string `json:"password"`
}

// assignRolesRequest replaces the full grant set for a user. Role IDs
// arrive as strings because snowflake IDs overflow JSON number precision.
type assignRolesRequest struct {
	RoleIDs []string `json:"role_ids"`
}

// handleListUsers returns a page of active users, optionally filtered by
// a username/nickname substring.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r.URL.Query())
	filter := r.URL.Query().Get("filter")

	result, err := s.accounts.SearchUsers(r.Context(), page, size, filter)
	if err != nil {
		s.writeServiceError(w, r, err, "list users failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleCreateUser registers a new account.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req account.CreateUserInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	actor := userFromContext(r.Context()).Username
	user, err := s.accounts.CreateUser(r.Context(), req, actor)
	if err != nil {
		s.writeServiceError(w, r, err, "create user failed")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// handleGetUser returns a single user by ID.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "invalid user id")
		return
	}

	user, err := s.accounts.GetUser(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "get user failed")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleUpdateUser patches a user's profile fields.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "invalid user id")
		return
	}

	var req account.UpdateUserInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	actor := userFromContext(r.Context()).Username
	user, err := s.accounts.UpdateUser(r.Context(), id, req, actor)
	if err != nil {
		s.writeServiceError(w, r, err, "update user failed")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleChangePassword replaces a user's password.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "invalid user id")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	actor := userFromContext(r.Context()).Username
	if err := s.accounts.ChangePassword(r.Context(), id, req.Password, actor); err != nil {
		s.writeServiceError(w, r, err, "change password failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

// handleDeactivateUser soft-deletes an account, freeing its username.
func (s *Server) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "invalid user id")
		return
	}

	actor := userFromContext(r.Context()).Username
	user, err := s.accounts.DeactivateUser(r.Context(), id, actor)
	if err != nil {
		s.writeServiceError(w, r, err, "deactivate user failed")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleAssignRoles replaces a user's grant set with the given roles.
func (s *Server) handleAssignRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "invalid user id")
		return
	}

	var req assignRolesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	roleIDs := make([]int64, 0, len(req.RoleIDs))
	for _, raw := range req.RoleIDs {
		roleID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || roleID < 1 {
			writeBadRequest(w, "invalid role id: "+raw)
			return
		}
		roleIDs = append(roleIDs, roleID)
	}

	actor := userFromContext(r.Context()).Username
	if err := s.accounts.AssignRoles(r.Context(), id, roleIDs, actor); err != nil {
		s.writeServiceError(w, r, err, "assign roles failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"assigned": len(roleIDs)})
}
