package repository

import "time"

// Audit carries the bookkeeping columns shared by every table. The
// repository stamps these on writes; records never set them directly.
type Audit struct {
	IsActive   bool      `json:"is_active"`
	CreateTime time.Time `json:"create_time"`
	UpdateTime time.Time `json:"update_time"`
	CreateBy   string    `json:"create_by"`
	UpdateBy   string    `json:"update_by"`
}

// Meta satisfies the Record interface for any type that embeds Audit.
func (a *Audit) Meta() *Audit { return a }

// Record is implemented by every persisted type. A record describes
// only its domain columns; the repository manages id and the audit
// columns on its behalf.
//
// Columns, Values and Dest must agree on order. Apply is the patch
// allowlist: it converts and assigns a single column value, returning
// false for columns that must not be patched (which includes anything
// outside the domain columns). Meta comes for free by embedding Audit.
type Record interface {
	Table() string
	GetID() int64
	SetID(id int64)
	Columns() []string
	Values() []any
	Dest() []any
	Apply(column string, value any) bool
	Meta() *Audit
}

// Patch is a partial update: only the keys present are written. This
// mirrors a JSON body decoded with absent fields omitted, so an empty
// string is a real value and a missing key means "leave unchanged".
type Patch map[string]any

// auditColumns lists the bookkeeping columns in their fixed SQL order.
var auditColumns = []string{"is_active", "create_time", "update_time", "create_by", "update_by"}

// parseTime parses an RFC3339 timestamp from SQLite TEXT storage.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// formatTime renders t for SQLite TEXT storage, always in UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
