package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/danharte/stencil/internal/infrastructure/database"
	"github.com/danharte/stencil/internal/repository"
)

// UserRoles persists the links between users and roles.
type UserRoles struct {
	*repository.Repository[*UserRole]
	db *database.DB
}

// NewUserRoles creates the link store.
func NewUserRoles(db *database.DB, node *snowflake.Node) *UserRoles {
	return &UserRoles{
		Repository: repository.New(db, node, func() *UserRole { return &UserRole{} }),
		db:         db,
	}
}

// ActiveRoleIDs returns the role ids granted to the user through
// active links.
func (s *UserRoles) ActiveRoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	links, err := s.List(ctx, repository.ListOptions{
		Where:      "user_id = ?",
		Args:       []any{userID},
		ActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.RoleID)
	}
	return ids, nil
}

// Replace revokes the user's current grants and installs roleIDs as
// the new set, in one transaction: a failure anywhere leaves the
// previous grants in place. An empty roleIDs leaves the user with no
// roles.
func (s *UserRoles) Replace(ctx context.Context, userID int64, roleIDs []int64, updatedBy string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin role replace for user %d: %w", userID, err)
	}

	if err := s.revokeAll(ctx, tx, userID, updatedBy); err != nil {
		tx.Rollback() //nolint:errcheck // Revoke error takes precedence
		return err
	}

	if len(roleIDs) > 0 {
		links := make([]*UserRole, 0, len(roleIDs))
		for _, roleID := range roleIDs {
			links = append(links, &UserRole{UserID: userID, RoleID: roleID})
		}
		if err := s.AddAllTx(ctx, tx, links, updatedBy); err != nil {
			tx.Rollback() //nolint:errcheck // Insert error takes precedence
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit role replace for user %d: %w", userID, err)
	}
	return nil
}

// revokeAll deactivates every active link for the user in one
// statement rather than a fetch-and-update loop.
func (s *UserRoles) revokeAll(ctx context.Context, tx *sql.Tx, userID int64, updatedBy string) error {
	stamp := time.Now().UTC().Format(time.RFC3339)
	_, err := tx.ExecContext(ctx,
		`UPDATE UserRole SET is_active = 0, update_time = ?, update_by = ? WHERE user_id = ? AND is_active = 1`,
		stamp, updatedBy, userID)
	if err != nil {
		return fmt.Errorf("revoke links for user %d: %w", userID, err)
	}
	return nil
}
