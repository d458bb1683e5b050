package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/danharte/stencil/internal/account"
	"github.com/danharte/stencil/internal/auth"
	"github.com/danharte/stencil/internal/file"
	"github.com/danharte/stencil/internal/infrastructure/cache"
	"github.com/danharte/stencil/internal/infrastructure/config"
	"github.com/danharte/stencil/internal/infrastructure/database"
	"github.com/danharte/stencil/internal/infrastructure/logging"
	"github.com/danharte/stencil/internal/repository"
	"github.com/danharte/stencil/internal/store"
	_ "github.com/danharte/stencil/migrations"
)

const testSecret = "test-secret-test-secret-test-secret!"

// apiFixture wires the full service stack behind a router, ready for
// httptest traffic.
type apiFixture struct {
	srv    *Server
	router http.Handler
	users  *store.Users
	roles  *store.Roles
	links  *store.UserRoles
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "api.db"),
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

	users := store.NewUsers(db, node)
	roles := store.NewRoles(db, node)
	links := store.NewUserRoles(db, node)
	files := store.NewFiles(db, node)

	tokens := auth.NewTokenService(config.JWTConfig{
		Secret:   testSecret,
		Issuer:   "stencil",
		Audience: "stencil",
		TTL:      3600,
	})
	resolver := auth.NewResolver(tokens, users, roles, links, c, time.Minute, logger)

	fileSvc, err := file.NewService(config.FilesConfig{
		Dir:       filepath.Join(t.TempDir(), "files"),
		URLPrefix: "/static",
		MaxSize:   1 << 20,
		ChunkSize: 4096,
	}, files, logger)
	if err != nil {
		t.Fatalf("file.NewService() error = %v", err)
	}

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		Logger:   logger,
		DB:       db,
		Auth:     auth.NewService(tokens, users, resolver, logger),
		Resolver: resolver,
		Accounts: account.NewService(users, roles, links, resolver, logger),
		Files:    fileSvc,
		Reports:  repository.NewExecutor(db),
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return &apiFixture{
		srv:    srv,
		router: srv.buildRouter(),
		users:  users,
		roles:  roles,
		links:  links,
	}
}

// createUser stores a user with a real bcrypt hash of password.
func (f *apiFixture) createUser(t *testing.T, username, password string) *store.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
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
// user's full role set.
func (f *apiFixture) grant(t *testing.T, userID int64, names ...string) {
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

// admin creates a user holding the admin role and returns a bearer token.
func (f *apiFixture) admin(t *testing.T) string {
	t.Helper()

	u := f.createUser(t, "root", "root-password")
	f.grant(t, u.ID, store.AdminRole)
	return f.login(t, "root", "root-password")
}

// login runs the real login endpoint and returns the bearer token.
func (f *apiFixture) login(t *testing.T, username, password string) string {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"user_name": username,
		"password":  password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result auth.LoginResult
	decodeBody(t, rec, &result)
	return result.Token
}

// do performs a JSON request against the router. An empty token leaves
// the Authorization header unset.
func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}
