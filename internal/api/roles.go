package api

import (
	"encoding/json"
	"net/http"

	"github.com/danharte/stencil/internal/account"
)

// handleListRoles returns a page of active roles, optionally filtered by
// a name substring.
func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r.URL.Query())
	filter := r.URL.Query().Get("filter")

	result, err := s.accounts.SearchRoles(r.Context(), page, size, filter)
	if err != nil {
		s.writeServiceError(w, r, err, "list roles failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleCreateRole registers a new role.
func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req account.CreateRoleInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	actor := userFromContext(r.Context()).Username
	role, err := s.accounts.CreateRole(r.Context(), req, actor)
	if err != nil {
		s.writeServiceError(w, r, err, "create role failed")
		return
	}

	writeJSON(w, http.StatusCreated, role)
}

// handleUpdateRole patches a role's name or description.
func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "invalid role id")
		return
	}

	var req account.UpdateRoleInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	actor := userFromContext(r.Context()).Username
	role, err := s.accounts.UpdateRole(r.Context(), id, req, actor)
	if err != nil {
		s.writeServiceError(w, r, err, "update role failed")
		return
	}

	writeJSON(w, http.StatusOK, role)
}

// handleDeactivateRole disables a role.
func (s *Server) handleDeactivateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "invalid role id")
		return
	}

	actor := userFromContext(r.Context()).Username
	role, err := s.accounts.DeactivateRole(r.Context(), id, actor)
	if err != nil {
		s.writeServiceError(w, r, err, "deactivate role failed")
		return
	}

	writeJSON(w, http.StatusOK, role)
}
