package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/danharte/stencil/internal/infrastructure/database"
	"github.com/danharte/stencil/internal/repository"
)

// ErrUsernameExists is returned when creating a user whose username is
// already taken by an active account.
var ErrUsernameExists = errors.New("username already exists")

// Users persists User records.
type Users struct {
	*repository.Repository[*User]
}

// NewUsers creates the user store.
func NewUsers(db *database.DB, node *snowflake.Node) *Users {
	return &Users{
		Repository: repository.New(db, node, func() *User { return &User{} }),
	}
}

// Create inserts a new user. The password must already be hashed by
// the caller. A taken username is ErrUsernameExists; the partial
// unique index on active usernames is the backstop for races.
func (s *Users) Create(ctx context.Context, u *User, createdBy string) error {
	if _, err := s.ByUsername(ctx, u.Username); err == nil {
		return fmt.Errorf("%q: %w", u.Username, ErrUsernameExists)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	if err := s.Add(ctx, u, createdBy); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%q: %w", u.Username, ErrUsernameExists)
		}
		return err
	}
	return nil
}

// ByUsername fetches the active user holding username. Deactivated
// accounts do not match; their username is free for reuse.
func (s *Users) ByUsername(ctx context.Context, username string) (*User, error) {
	users, err := s.List(ctx, repository.ListOptions{
		Where:      "user_name = ?",
		Args:       []any{username},
		ActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %q: %w", username, repository.ErrNotFound)
	}
	return users[0], nil
}

// Search pages through active users whose username or nickname
// contains filter. An empty filter matches everyone. Newest first.
func (s *Users) Search(ctx context.Context, page, size int, filter string) (*repository.Page[*User], error) {
	opts := repository.ListOptions{
		OrderBy:    "id",
		Descending: true,
		ActiveOnly: true,
	}
	if filter != "" {
		pattern := "%" + filter + "%"
		opts.Where = "user_name LIKE ? OR nick_name LIKE ?"
		opts.Args = []any{pattern, pattern}
	}
	return s.ListPage(ctx, page, size, opts)
}

// TouchLastLogin stamps the user's last login time.
func (s *Users) TouchLastLogin(ctx context.Context, u *User, when time.Time) error {
	stamp := when.UTC().Format(time.RFC3339)
	return s.Update(ctx, u, repository.Patch{"last_login_time": stamp}, u.Username)
}
