package api

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// uploadFile posts a multipart body with a single "file" part.
func (f *apiFixture) uploadFile(t *testing.T, token, fileName, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := io.WriteString(part, content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestFileUploadAndServe(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "ada", "correct-horse")
	token := f.login(t, "ada", "correct-horse")

	rec := f.uploadFile(t, token, "notes.TXT", "hello stencil")
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}

	var info struct {
		FileKey  string `json:"file_key"`
		FileName string `json:"file_name"`
		FileSize int64  `json:"file_size"`
		FileURL  string `json:"file_url"`
	}
	decodeBody(t, rec, &info)
	if info.FileName != "notes.TXT" {
		t.Errorf("file_name = %q, want original name", info.FileName)
	}
	if info.FileSize != int64(len("hello stencil")) {
		t.Errorf("file_size = %d, want %d", info.FileSize, len("hello stencil"))
	}
	if !strings.HasSuffix(info.FileKey, ".txt") {
		t.Errorf("file_key = %q, want lowercased extension", info.FileKey)
	}
	if info.FileURL != "/static/"+info.FileKey {
		t.Errorf("file_url = %q, want /static/%s", info.FileURL, info.FileKey)
	}

	// Download through the public URL
	rec = f.do(t, http.MethodGet, info.FileURL, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("serve status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "hello stencil" {
		t.Errorf("served body = %q", got)
	}
}

func TestFileUploadRequiresAuth(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.uploadFile(t, "", "notes.txt", "hello")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestFileUploadMissingPart(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "ada", "correct-horse")
	token := f.login(t, "ada", "correct-horse")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("comment", "no file here"); err != nil {
		t.Fatalf("WriteField() error = %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestServeFileErrors(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("unknown key", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/static/0123456789abcdef.txt", "", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("traversal key", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/static/..%2fsecrets.txt", "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}
