// Package repository implements the generic persistence layer.
//
// Every persisted type satisfies the Record interface, declaring its
// table, its domain columns, and a patch allowlist. Repository[T]
// supplies the CRUD operations on top: single and batch reads, paged
// listing, audited inserts and updates, hard deletes and soft
// deactivation. Batch writes are transactional; a failure on any row
// rolls back the lot.
//
// The repository owns the id and audit columns. Snowflake ids are
// assigned on insert, timestamps are stored as RFC3339 UTC TEXT, and
// update_time is refreshed on every write. Identifier positions in the
// generated SQL only ever contain declared column names, so ordering
// and patch input from callers cannot inject SQL.
//
// Executor covers the queries typed stores cannot express: raw SELECT
// text with :name bound parameters, flat or paged. In paged mode the
// original query is wrapped in SELECT COUNT(*) for the total and run
// again with LIMIT/OFFSET appended.
package repository
