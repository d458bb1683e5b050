package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danharte/stencil/internal/infrastructure/logging"
	"github.com/danharte/stencil/internal/repository"
	"github.com/danharte/stencil/internal/store"
)

// LoginResult is the payload returned on a successful login.
type LoginResult struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

// Service implements login and the authenticated self-view.
type Service struct {
	tokens   *TokenService
	users    *store.Users
	resolver *Resolver
	logger   *logging.Logger
}

// NewService wires the auth service.
func NewService(tokens *TokenService, users *store.Users, resolver *Resolver, logger *logging.Logger) *Service {
	return &Service{tokens: tokens, users: users, resolver: resolver, logger: logger}
}

// Login checks credentials and issues a bearer token. Unknown
// usernames and wrong passwords produce the same error; a deactivated
// account is called out separately, but only once its password
// verifies, so the user knows recovery needs an administrator without
// the error revealing which usernames exist.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	user, err := s.users.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if s.inactiveAccountMatches(ctx, username, password) {
				return nil, ErrUserInactive
			}
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.TouchLastLogin(ctx, user, time.Now()); err != nil {
		// A failed stamp should not block the login itself.
		s.logger.Warn("failed to stamp last login", "user_id", user.ID, "error", err)
	}

	token, expiresIn, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "user_name", user.Username)
	return &LoginResult{Token: token, TokenType: "bearer", ExpiresIn: expiresIn}, nil
}

// Detail builds the authenticated self-view, resolving the user's
// current role names.
func (s *Service) Detail(ctx context.Context, user *store.User) (*UserDetail, error) {
	roles, err := s.resolver.RoleSet(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &UserDetail{
		ID:            user.ID,
		Username:      user.Username,
		Nickname:      user.Nickname,
		Email:         user.Email,
		Avatar:        user.Avatar,
		LastLoginTime: user.LastLoginTime,
		Roles:         roles,
	}, nil
}

// inactiveAccountMatches reports whether username and password belong
// to a deactivated account. The password must verify against the
// stored hash before the deactivation is disclosed, so an
// unauthenticated caller cannot tell a deactivated username from an
// unknown one.
func (s *Service) inactiveAccountMatches(ctx context.Context, username, password string) bool {
	all, err := s.users.List(ctx, repository.ListOptions{
		Where: "user_name = ?",
		Args:  []any{username},
	})
	if err != nil {
		return false
	}
	for _, u := range all {
		if !u.IsActive && VerifyPassword(password, u.Password) {
			return true
		}
	}
	return false
}
