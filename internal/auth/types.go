package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized covers every failure to establish identity: a
	// bad or expired token, an unknown subject, or a deactivated
	// account. Callers get one uniform error so responses do not leak
	// which case occurred.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the identity is fine but the role set does
	// not include any of the required roles.
	ErrForbidden = errors.New("forbidden")

	// ErrEmptyCredentials rejects a login with a blank username or
	// password before touching the database.
	ErrEmptyCredentials = errors.New("username and password are required")

	// ErrInvalidCredentials covers both unknown-username and
	// wrong-password, again deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUserInactive is returned when the account exists but has been
	// deactivated.
	ErrUserInactive = errors.New("account is deactivated")

	// ErrTokenInvalid marks a token that failed signature, structure
	// or claim checks.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired marks a structurally valid token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Finer-grained rejection classes. Each wraps ErrTokenInvalid so
// callers that only care about valid-or-not keep a single check.
var (
	ErrTokenMalformed   = fmt.Errorf("%w: malformed", ErrTokenInvalid)
	ErrSignatureInvalid = fmt.Errorf("%w: bad signature", ErrTokenInvalid)
	ErrMissingSubject   = fmt.Errorf("%w: missing subject", ErrTokenInvalid)
)

// UserDetail is the self-view returned to an authenticated caller. It
// carries the resolved role names alongside the profile fields; the
// password never leaves the store layer.
type UserDetail struct {
	ID            int64    `json:"id,string"`
	Username      string   `json:"user_name"`
	Nickname      string   `json:"nick_name"`
	Email         string   `json:"email"`
	Avatar        string   `json:"avatar"`
	LastLoginTime string   `json:"last_login_time"`
	Roles         []string `json:"roles"`
}
