// Package account implements user and role administration on top of
// the typed stores: registration, profile patching, password changes,
// soft deactivation, and role assignment.
//
// Role assignment replaces the user's whole grant set and invalidates
// the cached role set synchronously, so authorization reflects the
// change as soon as the call returns.
package account
