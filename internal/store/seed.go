package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/danharte/stencil/internal/infrastructure/logging"
	"github.com/danharte/stencil/internal/repository"
)

// seedPasswordBytes is the number of random bytes for the seed admin password.
const seedPasswordBytes = 16

// AdminRole is the role name that guards management endpoints. The
// seeded first account holds it.
const AdminRole = "admin"

// Seed creates the admin role and the initial admin account on first
// boot if no users exist. hash turns the generated password into its
// stored form. The password is logged once and must be changed
// immediately. Returns the generated password, empty if seeding was
// skipped.
func Seed(ctx context.Context, users *Users, roles *Roles, links *UserRoles, logger *logging.Logger, hash func(string) (string, error)) (string, error) {
	count, err := users.Count(ctx, repository.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("checking user count: %w", err)
	}
	if count > 0 {
		logger.Info("users exist, skipping admin seed")
		return "", nil
	}

	passwordBytes := make([]byte, seedPasswordBytes)
	if _, err := rand.Read(passwordBytes); err != nil {
		return "", fmt.Errorf("generating seed password: %w", err)
	}
	password := hex.EncodeToString(passwordBytes)

	hashed, err := hash(password)
	if err != nil {
		return "", fmt.Errorf("hashing seed password: %w", err)
	}

	role, err := roles.ByName(ctx, AdminRole)
	if err != nil {
		role = &Role{Name: AdminRole, Description: "Full administrative access"}
		if err := roles.Create(ctx, role, "system"); err != nil {
			return "", fmt.Errorf("creating admin role: %w", err)
		}
	}

	admin := &User{
		Username: "admin",
		Password: hashed,
		Nickname: "Administrator",
	}
	if err := users.Create(ctx, admin, "system"); err != nil {
		return "", fmt.Errorf("creating seed admin: %w", err)
	}

	if err := links.Replace(ctx, admin.ID, []int64{role.ID}, "system"); err != nil {
		return "", fmt.Errorf("granting admin role: %w", err)
	}

	logger.Warn("seed admin account created",
		"username", "admin",
		"password", password,
		"action_required", "change this password immediately",
	)

	return password, nil
}
