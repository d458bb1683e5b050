package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleUploadFile accepts a multipart upload and stores the first part
// named "file". The body is streamed so oversize uploads are rejected
// without buffering them.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		writeBadRequest(w, "multipart form body required")
		return
	}

	actor := userFromContext(r.Context()).Username

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeBadRequest(w, "malformed multipart body")
			return
		}

		if part.FormName() != "file" {
			//nolint:errcheck // Skipping an unused form part
			part.Close()
			continue
		}

		info, err := s.files.Upload(r.Context(), part, part.FileName(), part.Header.Get("Content-Type"), actor)
		//nolint:errcheck // Reader is drained or abandoned either way
		part.Close()
		if err != nil {
			s.writeServiceError(w, r, err, "file upload failed")
			return
		}

		writeJSON(w, http.StatusCreated, info)
		return
	}

	writeBadRequest(w, "form field \"file\" is required")
}

// handleServeFile streams a stored file back by key.
func (s *Server) handleServeFile(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	info, path, err := s.files.Resolve(r.Context(), key)
	if err != nil {
		s.writeServiceError(w, r, err, "resolve file failed")
		return
	}

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	http.ServeFile(w, r, path)
}
