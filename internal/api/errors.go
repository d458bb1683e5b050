package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danharte/stencil/internal/account"
	"github.com/danharte/stencil/internal/auth"
	"github.com/danharte/stencil/internal/file"
	"github.com/danharte/stencil/internal/repository"
	"github.com/danharte/stencil/internal/store"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeUnauthorized    = "unauthorised"
	ErrCodeForbidden       = "forbidden"
	ErrCodeConflict        = "conflict"
	ErrCodePayloadTooLarge = "payload_too_large"
	ErrCodeInternal        = "internal_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeForbidden writes a 403 error response.
func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// writeConflict writes a 409 error response.
func writeConflict(w http.ResponseWriter, message string) {
	writeError(w, http.StatusConflict, ErrCodeConflict, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeServiceError maps a service-layer error to an HTTP response.
// Unrecognised errors are logged and reported as a generic 500 so
// internal details never leak to clients.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	switch {
	case errors.Is(err, auth.ErrEmptyCredentials):
		writeBadRequest(w, "username and password are required")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeUnauthorized(w, "invalid credentials")
	case errors.Is(err, auth.ErrUserInactive):
		writeUnauthorized(w, "account is deactivated")
	case errors.Is(err, auth.ErrTokenExpired):
		writeUnauthorized(w, "token expired")
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrTokenInvalid):
		writeUnauthorized(w, "authentication required")
	case errors.Is(err, auth.ErrForbidden):
		writeForbidden(w, "insufficient permissions")
	case errors.Is(err, repository.ErrNotFound):
		writeNotFound(w, "resource not found")
	case errors.Is(err, store.ErrUsernameExists):
		writeConflict(w, "username already exists")
	case errors.Is(err, store.ErrRoleExists):
		writeConflict(w, "role name already exists")
	case errors.Is(err, repository.ErrInvalidPage):
		writeBadRequest(w, "page and size must be positive integers")
	case errors.Is(err, repository.ErrColumnNotAllowed):
		writeBadRequest(w, "unknown field in request")
	case errors.Is(err, account.ErrInvalidInput):
		writeBadRequest(w, err.Error())
	case errors.Is(err, account.ErrUnknownRole):
		writeBadRequest(w, "one or more role ids are unknown or inactive")
	case errors.Is(err, file.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "file exceeds the maximum upload size")
	case errors.Is(err, file.ErrBadKey):
		writeBadRequest(w, "malformed file key")
	default:
		s.logger.Error(logMsg,
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeInternalError(w, "internal server error")
	}
}
