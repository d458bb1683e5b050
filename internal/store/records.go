package store

import (
	"github.com/danharte/stencil/internal/repository"
)

// User is a login-capable account. Snowflake ids exceed what
// JavaScript can hold in a number, so they marshal as strings.
type User struct {
	ID            int64  `json:"id,string"`
	Username      string `json:"user_name"`
	Password      string `json:"-"`
	Nickname      string `json:"nick_name"`
	Email         string `json:"email"`
	LastLoginTime string `json:"last_login_time"`
	Avatar        string `json:"avatar"`
	repository.Audit
}

func (u *User) Table() string  { return "User" }
func (u *User) GetID() int64   { return u.ID }
func (u *User) SetID(id int64) { u.ID = id }

func (u *User) Columns() []string {
	return []string{"user_name", "password", "nick_name", "email", "last_login_time", "avatar"}
}

func (u *User) Values() []any {
	return []any{u.Username, u.Password, u.Nickname, u.Email, u.LastLoginTime, u.Avatar}
}

func (u *User) Dest() []any {
	return []any{&u.Username, &u.Password, &u.Nickname, &u.Email, &u.LastLoginTime, &u.Avatar}
}

func (u *User) Apply(column string, value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	switch column {
	case "user_name":
		u.Username = s
	case "password":
		u.Password = s
	case "nick_name":
		u.Nickname = s
	case "email":
		u.Email = s
	case "last_login_time":
		u.LastLoginTime = s
	case "avatar":
		u.Avatar = s
	default:
		return false
	}
	return true
}

// Role names a grant like "admin". Names are unique.
type Role struct {
	ID          int64  `json:"id,string"`
	Name        string `json:"name"`
	Description string `json:"description"`
	repository.Audit
}

func (r *Role) Table() string  { return "Role" }
func (r *Role) GetID() int64   { return r.ID }
func (r *Role) SetID(id int64) { r.ID = id }

func (r *Role) Columns() []string { return []string{"name", "description"} }
func (r *Role) Values() []any     { return []any{r.Name, r.Description} }
func (r *Role) Dest() []any       { return []any{&r.Name, &r.Description} }

func (r *Role) Apply(column string, value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	switch column {
	case "name":
		r.Name = s
	case "description":
		r.Description = s
	default:
		return false
	}
	return true
}

// UserRole links a user to a role. Deactivating the link revokes the
// grant without losing the history.
type UserRole struct {
	ID     int64 `json:"id,string"`
	UserID int64 `json:"user_id,string"`
	RoleID int64 `json:"role_id,string"`
	repository.Audit
}

func (l *UserRole) Table() string  { return "UserRole" }
func (l *UserRole) GetID() int64   { return l.ID }
func (l *UserRole) SetID(id int64) { l.ID = id }

func (l *UserRole) Columns() []string { return []string{"user_id", "role_id"} }
func (l *UserRole) Values() []any     { return []any{l.UserID, l.RoleID} }
func (l *UserRole) Dest() []any       { return []any{&l.UserID, &l.RoleID} }

// Apply rejects everything: links are created and deactivated, never
// repointed.
func (l *UserRole) Apply(string, any) bool { return false }

// FileInfo records an uploaded file's stored key and metadata.
type FileInfo struct {
	ID          int64  `json:"id,string"`
	FileKey     string `json:"file_key"`
	FileURL     string `json:"file_url"`
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	ContentType string `json:"content_type"`
	repository.Audit
}

func (f *FileInfo) Table() string  { return "FileInfo" }
func (f *FileInfo) GetID() int64   { return f.ID }
func (f *FileInfo) SetID(id int64) { f.ID = id }

func (f *FileInfo) Columns() []string {
	return []string{"file_key", "file_url", "file_name", "file_size", "content_type"}
}

func (f *FileInfo) Values() []any {
	return []any{f.FileKey, f.FileURL, f.FileName, f.FileSize, f.ContentType}
}

func (f *FileInfo) Dest() []any {
	return []any{&f.FileKey, &f.FileURL, &f.FileName, &f.FileSize, &f.ContentType}
}

func (f *FileInfo) Apply(column string, value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	switch column {
	case "file_name":
		f.FileName = s
	default:
		return false
	}
	return true
}
