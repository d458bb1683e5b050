package store

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"

	"github.com/danharte/stencil/internal/infrastructure/database"
	"github.com/danharte/stencil/internal/repository"
)

// Files persists FileInfo records.
type Files struct {
	*repository.Repository[*FileInfo]
}

// NewFiles creates the file metadata store.
func NewFiles(db *database.DB, node *snowflake.Node) *Files {
	return &Files{
		Repository: repository.New(db, node, func() *FileInfo { return &FileInfo{} }),
	}
}

// ByKey fetches the record for a stored file key.
func (s *Files) ByKey(ctx context.Context, key string) (*FileInfo, error) {
	files, err := s.List(ctx, repository.ListOptions{
		Where: "file_key = ?",
		Args:  []any{key},
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("file %q: %w", key, repository.ErrNotFound)
	}
	return files[0], nil
}
