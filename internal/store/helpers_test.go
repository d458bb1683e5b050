package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/snowflake"

	"github.com/danharte/stencil/internal/infrastructure/database"
	_ "github.com/danharte/stencil/migrations"
)

// stores bundles every typed store over one freshly migrated database.
type stores struct {
	users *Users
	roles *Roles
	links *UserRoles
	files *Files
}

func testStores(t *testing.T) *stores {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "store.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	return &stores{
		users: NewUsers(db, node),
		roles: NewRoles(db, node),
		links: NewUserRoles(db, node),
		files: NewFiles(db, node),
	}
}

func createUser(t *testing.T, users *Users, username string) *User {
	t.Helper()

	u := &User{Username: username, Password: "x", Nickname: username}
	if err := users.Create(context.Background(), u, "tester"); err != nil {
		t.Fatalf("Create(%q) error = %v", username, err)
	}
	return u
}

func createRole(t *testing.T, roles *Roles, name string) *Role {
	t.Helper()

	r := &Role{Name: name}
	if err := roles.Create(context.Background(), r, "tester"); err != nil {
		t.Fatalf("Create(%q) error = %v", name, err)
	}
	return r
}
