package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/danharte/stencil/internal/auth"
	"github.com/danharte/stencil/internal/infrastructure/logging"
	"github.com/danharte/stencil/internal/repository"
	"github.com/danharte/stencil/internal/store"
)

var (
	// ErrInvalidInput rejects requests missing required fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownRole is returned when a role assignment references a
	// role id that does not exist or is deactivated.
	ErrUnknownRole = errors.New("unknown role")
)

// Service implements user and role administration.
type Service struct {
	users    *store.Users
	roles    *store.Roles
	links    *store.UserRoles
	resolver *auth.Resolver
	logger   *logging.Logger
}

// NewService wires the account service.
func NewService(users *store.Users, roles *store.Roles, links *store.UserRoles, resolver *auth.Resolver, logger *logging.Logger) *Service {
	return &Service{users: users, roles: roles, links: links, resolver: resolver, logger: logger}
}

// CreateUserInput carries the fields for a new account.
type CreateUserInput struct {
	Username string `json:"user_name"`
	Password string `json:"password"`
	Nickname string `json:"nick_name"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

// CreateUser registers a new account, hashing the password before it
// is stored.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput, actor string) (*store.User, error) {
	if in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", ErrInvalidInput)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &store.User{
		Username: in.Username,
		Password: hash,
		Nickname: in.Nickname,
		Email:    in.Email,
		Avatar:   in.Avatar,
	}
	if err := s.users.Create(ctx, user, actor); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.ID, "user_name", user.Username, "actor", actor)
	return user, nil
}

// UpdateUserInput is a partial profile update. Nil fields are left
// unchanged; a pointer to an empty string clears the field.
type UpdateUserInput struct {
	Nickname *string `json:"nick_name"`
	Email    *string `json:"email"`
	Avatar   *string `json:"avatar"`
}

// UpdateUser patches the profile fields present in in.
func (s *Service) UpdateUser(ctx context.Context, userID int64, in UpdateUserInput, actor string) (*store.User, error) {
	patch := repository.Patch{}
	if in.Nickname != nil {
		patch["nick_name"] = *in.Nickname
	}
	if in.Email != nil {
		patch["email"] = *in.Email
	}
	if in.Avatar != nil {
		patch["avatar"] = *in.Avatar
	}
	return s.users.UpdateByID(ctx, userID, patch, actor)
}

// ChangePassword replaces the user's password with a fresh hash.
func (s *Service) ChangePassword(ctx context.Context, userID int64, newPassword string, actor string) error {
	if newPassword == "" {
		return fmt.Errorf("password is required: %w", ErrInvalidInput)
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	_, err = s.users.UpdateByID(ctx, userID, repository.Patch{"password": hash}, actor)
	return err
}

// DeactivateUser disables the account and drops its cached role set.
// The row and its history remain.
func (s *Service) DeactivateUser(ctx context.Context, userID int64, actor string) (*store.User, error) {
	user, err := s.users.Deactivate(ctx, userID, actor)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.InvalidateRoles(ctx, userID); err != nil {
		return nil, err
	}
	s.logger.Info("user deactivated", "user_id", userID, "actor", actor)
	return user, nil
}

// SearchUsers pages through active users matching filter.
func (s *Service) SearchUsers(ctx context.Context, page, size int, filter string) (*repository.Page[*store.User], error) {
	return s.users.Search(ctx, page, size, filter)
}

// GetUser fetches one account.
func (s *Service) GetUser(ctx context.Context, userID int64) (*store.User, error) {
	return s.users.GetByID(ctx, userID)
}

// AssignRoles replaces the user's role set with roleIDs. Every id must
// name an active role. The cached role set is invalidated before the
// call returns, so a follow-up authorization check sees the new
// grants.
func (s *Service) AssignRoles(ctx context.Context, userID int64, roleIDs []int64, actor string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}

	roles, err := s.roles.GetByIDs(ctx, roleIDs)
	if err != nil {
		return err
	}
	active := make(map[int64]bool, len(roles))
	for _, r := range roles {
		if r.IsActive {
			active[r.ID] = true
		}
	}
	for _, id := range roleIDs {
		if !active[id] {
			return fmt.Errorf("role %d: %w", id, ErrUnknownRole)
		}
	}

	replaceErr := s.links.Replace(ctx, userID, roleIDs, actor)

	// Drop the cached set even when the replace failed: the stored
	// grants are authoritative either way, and the next read must
	// re-fetch them rather than serve a set the database may not hold.
	if err := s.resolver.InvalidateRoles(ctx, userID); err != nil {
		if replaceErr == nil {
			return err
		}
		s.logger.Warn("failed to invalidate role cache", "user_id", userID, "error", err)
	}
	if replaceErr != nil {
		return replaceErr
	}

	s.logger.Info("roles assigned", "user_id", userID, "role_count", len(roleIDs), "actor", actor)
	return nil
}

// CreateRoleInput carries the fields for a new role.
type CreateRoleInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateRole registers a new role.
func (s *Service) CreateRole(ctx context.Context, in CreateRoleInput, actor string) (*store.Role, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("role name is required: %w", ErrInvalidInput)
	}
	role := &store.Role{Name: in.Name, Description: in.Description}
	if err := s.roles.Create(ctx, role, actor); err != nil {
		return nil, err
	}
	return role, nil
}

// UpdateRoleInput is a partial role update.
type UpdateRoleInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// UpdateRole patches the role fields present in in.
func (s *Service) UpdateRole(ctx context.Context, roleID int64, in UpdateRoleInput, actor string) (*store.Role, error) {
	patch := repository.Patch{}
	if in.Name != nil {
		patch["name"] = *in.Name
	}
	if in.Description != nil {
		patch["description"] = *in.Description
	}
	return s.roles.UpdateByID(ctx, roleID, patch, actor)
}

// DeactivateRole disables a role. Users holding it lose the grant as
// their cached role sets expire; the role cache TTL bounds the lag.
func (s *Service) DeactivateRole(ctx context.Context, roleID int64, actor string) (*store.Role, error) {
	role, err := s.roles.Deactivate(ctx, roleID, actor)
	if err != nil {
		return nil, err
	}
	s.logger.Info("role deactivated", "role_id", roleID, "actor", actor)
	return role, nil
}

// SearchRoles pages through active roles matching filter.
func (s *Service) SearchRoles(ctx context.Context, page, size int, filter string) (*repository.Page[*store.Role], error) {
	return s.roles.Search(ctx, page, size, filter)
}
