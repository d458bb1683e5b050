package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/danharte/stencil/internal/infrastructure/database"
	"github.com/danharte/stencil/internal/repository"
)

// ErrRoleExists is returned when creating a role whose name is taken.
var ErrRoleExists = errors.New("role name already exists")

// Roles persists Role records.
type Roles struct {
	*repository.Repository[*Role]
}

// NewRoles creates the role store.
func NewRoles(db *database.DB, node *snowflake.Node) *Roles {
	return &Roles{
		Repository: repository.New(db, node, func() *Role { return &Role{} }),
	}
}

// Create inserts a new role, mapping the unique-name constraint to
// ErrRoleExists.
func (s *Roles) Create(ctx context.Context, r *Role, createdBy string) error {
	if err := s.Add(ctx, r, createdBy); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%q: %w", r.Name, ErrRoleExists)
		}
		return err
	}
	return nil
}

// ByName fetches the active role with the given name.
func (s *Roles) ByName(ctx context.Context, name string) (*Role, error) {
	roles, err := s.List(ctx, repository.ListOptions{
		Where:      "name = ?",
		Args:       []any{name},
		ActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("role %q: %w", name, repository.ErrNotFound)
	}
	return roles[0], nil
}

// Search pages through active roles whose name contains filter, newest
// first.
func (s *Roles) Search(ctx context.Context, page, size int, filter string) (*repository.Page[*Role], error) {
	opts := repository.ListOptions{
		OrderBy:    "id",
		Descending: true,
		ActiveOnly: true,
	}
	if filter != "" {
		opts.Where = "name LIKE ?"
		opts.Args = []any{"%" + filter + "%"}
	}
	return s.ListPage(ctx, page, size, opts)
}

// Names resolves role ids to their names in one query, skipping
// inactive roles. Used when building a user's role set.
func (s *Roles) Names(ctx context.Context, ids []int64) ([]string, error) {
	roles, err := s.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		if r.IsActive {
			names = append(names, r.Name)
		}
	}
	return names, nil
}
