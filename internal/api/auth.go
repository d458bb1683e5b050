package api

import (
	"encoding/json"
	"net/http"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"user_name"`
	Password string `json:"password"`
}

// handleLogin authenticates a user and returns a JWT token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	result, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleMe returns the authenticated user's profile with role names.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		writeUnauthorized(w, "authentication required")
		return
	}

	detail, err := s.auth.Detail(r.Context(), user)
	if err != nil {
		s.writeServiceError(w, r, err, "resolve user detail failed")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}
