package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/danharte/stencil/internal/infrastructure/cache"
	"github.com/danharte/stencil/internal/infrastructure/config"
	"github.com/danharte/stencil/internal/infrastructure/database"
	"github.com/danharte/stencil/internal/infrastructure/logging"
	"github.com/danharte/stencil/internal/store"
	_ "github.com/danharte/stencil/migrations"
)

const testSecret = "test-secret-test-secret-test-secret!"

// fixture wires the full auth stack over a migrated throwaway database.
type fixture struct {
	users    *store.Users
	roles    *store.Roles
	links    *store.UserRoles
	tokens   *TokenService
	resolver *Resolver
	service  *Service
	cache    *cache.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "auth.db"),
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

	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")
	c := cache.NewMemory()
	t.Cleanup(func() { c.Close() }) //nolint:errcheck // Test cleanup

	tokens := NewTokenService(config.JWTConfig{
		Secret:   testSecret,
		Issuer:   "stencil",
		Audience: "stencil",
		TTL:      3600,
	})

	users := store.NewUsers(db, node)
	roles := store.NewRoles(db, node)
	links := store.NewUserRoles(db, node)
	resolver := NewResolver(tokens, users, roles, links, c, time.Minute, logger)

	return &fixture{
		users:    users,
		roles:    roles,
		links:    links,
		tokens:   tokens,
		resolver: resolver,
		service:  NewService(tokens, users, resolver, logger),
		cache:    c,
	}
}

// createUser stores a user with a real bcrypt hash of password.
func (f *fixture) createUser(t *testing.T, username, password string) *store.User {
	t.Helper()

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	u := &store.User{Username: username, Password: hash, Nickname: username}
	if err := f.users.Create(context.Background(), u, "tester"); err != nil {
		t.Fatalf("Create(%q) error = %v", username, err)
	}
	return u
}

// grant creates the named roles (if needed) and installs them as the
// user's role set, without touching the cache.
func (f *fixture) grant(t *testing.T, userID int64, names ...string) {
	t.Helper()
	ctx := context.Background()

	ids := make([]int64, 0, len(names))
	for _, name := range names {
		role, err := f.roles.ByName(ctx, name)
		if err != nil {
			role = &store.Role{Name: name}
			if err := f.roles.Create(ctx, role, "tester"); err != nil {
				t.Fatalf("Create(%q) error = %v", name, err)
			}
		}
		ids = append(ids, role.ID)
	}
	if err := f.links.Replace(ctx, userID, ids, "tester"); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
}
