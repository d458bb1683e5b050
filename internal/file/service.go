package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/danharte/stencil/internal/infrastructure/config"
	"github.com/danharte/stencil/internal/infrastructure/logging"
	"github.com/danharte/stencil/internal/store"
)

var (
	// ErrFileTooLarge is returned when an upload exceeds the
	// configured size limit. The partial file is removed.
	ErrFileTooLarge = errors.New("file exceeds size limit")

	// ErrBadKey rejects stored-file keys carrying path separators or
	// traversal sequences.
	ErrBadKey = errors.New("invalid file key")
)

// Service stores uploaded files on disk under generated keys and
// records their metadata.
type Service struct {
	files     *store.Files
	dir       string
	urlPrefix string
	maxSize   int64
	chunkSize int
	logger    *logging.Logger
}

// NewService creates the file service and its storage directory.
func NewService(cfg config.FilesConfig, files *store.Files, logger *logging.Logger) (*Service, error) {
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating files directory: %w", err)
	}
	return &Service{
		files:     files,
		dir:       cfg.Dir,
		urlPrefix: strings.TrimSuffix(cfg.URLPrefix, "/"),
		maxSize:   cfg.MaxSize,
		chunkSize: cfg.ChunkSize,
		logger:    logger,
	}, nil
}

// Upload streams r to disk under a fresh key that keeps the original
// extension, then records the metadata. The size limit is enforced
// while streaming, so an oversized body is cut off at the limit rather
// than buffered whole; the partial file is removed.
func (s *Service) Upload(ctx context.Context, r io.Reader, fileName, contentType, actor string) (*store.FileInfo, error) {
	key := strings.ReplaceAll(uuid.NewString(), "-", "") + sanitizeExt(fileName)
	path := filepath.Join(s.dir, key)

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", key, err)
	}

	size, err := s.copyBounded(out, r)
	if cerr := out.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path) //nolint:errcheck // Best-effort cleanup of the partial file
		if errors.Is(err, ErrFileTooLarge) {
			return nil, fmt.Errorf("%q: %w", fileName, ErrFileTooLarge)
		}
		return nil, fmt.Errorf("storing %s: %w", key, err)
	}

	info := &store.FileInfo{
		FileKey:     key,
		FileURL:     s.urlPrefix + "/" + key,
		FileName:    fileName,
		FileSize:    size,
		ContentType: contentType,
	}
	if err := s.files.Add(ctx, info, actor); err != nil {
		os.Remove(path) //nolint:errcheck // Keep disk and metadata consistent
		return nil, err
	}

	s.logger.Info("file stored", "key", key, "size", size, "actor", actor)
	return info, nil
}

// Resolve looks up a stored key and returns its metadata plus the
// on-disk path for serving.
func (s *Service) Resolve(ctx context.Context, key string) (*store.FileInfo, string, error) {
	if !validKey(key) {
		return nil, "", fmt.Errorf("%q: %w", key, ErrBadKey)
	}
	info, err := s.files.ByKey(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return info, filepath.Join(s.dir, key), nil
}

// copyBounded copies r to w in chunks, failing once the running total
// passes the size limit.
func (s *Service) copyBounded(w io.Writer, r io.Reader) (int64, error) {
	buf := make([]byte, s.chunkSize)
	var total int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			total += int64(n)
			if total > s.maxSize {
				return total, ErrFileTooLarge
			}
			if _, werr := w.Write(buf[:n]); werr != nil {
				return total, werr
			}
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// sanitizeExt keeps a plain extension like ".png" and drops anything
// suspicious.
func sanitizeExt(fileName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(fileName)))
	if ext == "" || strings.ContainsAny(ext, "/\\") || len(ext) > 16 {
		return ""
	}
	return ext
}

func validKey(key string) bool {
	return key != "" && !strings.ContainsAny(key, "/\\") && !strings.Contains(key, "..")
}
