// Package store defines the persisted record types and their typed
// stores.
//
// Each record type (User, Role, UserRole, FileInfo) implements
// repository.Record; each store embeds the generic Repository and adds
// the queries its type needs, like username lookup or LIKE search.
// Unique-constraint violations surface as typed errors
// (ErrUsernameExists, ErrRoleExists) rather than raw driver errors.
//
// Seed bootstraps an empty database with the admin role and a
// first-boot admin account holding a generated password.
package store
