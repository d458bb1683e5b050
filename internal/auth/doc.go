// Package auth implements authentication and authorization.
//
// Identity is an HS256 bearer token carrying only the subject id.
// Roles are never embedded in the token: the Resolver re-fetches the
// user and role set on every request, consulting a short-TTL cache so
// the hot path stays off the database. Role assignment changes
// invalidate the cache synchronously, which keeps a revoked grant from
// outliving the write by more than an in-flight request.
//
// Passwords are stored as bcrypt hashes. Login failures collapse to
// uniform errors so responses cannot be used to enumerate accounts.
package auth
