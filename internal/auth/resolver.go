package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danharte/stencil/internal/infrastructure/cache"
	"github.com/danharte/stencil/internal/infrastructure/logging"
	"github.com/danharte/stencil/internal/store"
)

// Resolver turns bearer tokens into users and answers role checks.
// Role sets are cached cache-aside with a short TTL; assignment
// changes invalidate the entry synchronously so the next check sees
// the new grants.
type Resolver struct {
	tokens *TokenService
	users  *store.Users
	roles  *store.Roles
	links  *store.UserRoles
	cache  cache.Cache
	ttl    time.Duration
	logger *logging.Logger
}

// NewResolver wires the resolver. ttl bounds how stale a cached role
// set may get when invalidation is missed (for example by a crashed
// process between write and invalidate).
func NewResolver(tokens *TokenService, users *store.Users, roles *store.Roles, links *store.UserRoles, c cache.Cache, ttl time.Duration, logger *logging.Logger) *Resolver {
	return &Resolver{
		tokens: tokens,
		users:  users,
		roles:  roles,
		links:  links,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// CurrentUser resolves a bearer token to its active user. Every
// failure mode collapses into ErrUnauthorized: bad signature, expiry,
// unknown subject and deactivated account all look the same to the
// caller.
func (r *Resolver) CurrentUser(ctx context.Context, token string) (*store.User, error) {
	subjectID, err := r.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	user, err := r.users.GetByID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: subject %d", ErrUnauthorized, subjectID)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: subject %d", ErrUnauthorized, subjectID)
	}
	return user, nil
}

// RoleSet returns the user's active role names, consulting the cache
// first. A cache backend failure is logged and falls through to the
// database; authorization never fails because the cache is down.
func (r *Resolver) RoleSet(ctx context.Context, userID int64) ([]string, error) {
	key := roleCacheKey(userID)

	cached, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("role cache read failed", "user_id", userID, "error", err)
	} else if ok {
		var names []string
		if err := json.Unmarshal(cached, &names); err == nil {
			return names, nil
		}
		r.logger.Warn("role cache entry corrupt, refetching", "user_id", userID)
	}

	roleIDs, err := r.links.ActiveRoleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	names, err := r.roles.Names(ctx, roleIDs)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(names); err == nil {
		if err := r.cache.Set(ctx, key, encoded, r.ttl); err != nil {
			r.logger.Warn("role cache write failed", "user_id", userID, "error", err)
		}
	}
	return names, nil
}

// RequireRoles passes when the user holds at least one of required.
// An empty required list passes for any authenticated user.
func (r *Resolver) RequireRoles(ctx context.Context, userID int64, required ...string) error {
	if len(required) == 0 {
		return nil
	}

	held, err := r.RoleSet(ctx, userID)
	if err != nil {
		return err
	}

	for _, want := range required {
		for _, have := range held {
			if want == have {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: requires one of %v", ErrForbidden, required)
}

// InvalidateRoles drops the cached role set for a user. Called
// synchronously after any assignment change, before the write is
// acknowledged.
func (r *Resolver) InvalidateRoles(ctx context.Context, userID int64) error {
	if err := r.cache.Delete(ctx, roleCacheKey(userID)); err != nil {
		return fmt.Errorf("invalidating roles for user %d: %w", userID, err)
	}
	return nil
}

func roleCacheKey(userID int64) string {
	return fmt.Sprintf("user:roles:%d", userID)
}
