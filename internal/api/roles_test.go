package api

import (
	"net/http"
	"testing"
)

func TestRoleAdminFlow(t *testing.T) {
	f := newAPIFixture(t)
	token := f.admin(t)

	// Create
	rec := f.do(t, http.MethodPost, "/api/v1/roles", token, map[string]any{
		"name":        "editor",
		"description": "can edit content",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	decodeBody(t, rec, &created)
	if created.Name != "editor" || created.ID == "" {
		t.Fatalf("created role = %+v", created)
	}

	// Duplicate name conflicts
	rec = f.do(t, http.MethodPost, "/api/v1/roles", token, map[string]any{
		"name": "editor",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want %d", rec.Code, http.StatusConflict)
	}

	// Patch description only
	rec = f.do(t, http.MethodPatch, "/api/v1/roles/"+created.ID, token, map[string]any{
		"description": "content editors",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body.String())
	}
	var patched struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	decodeBody(t, rec, &patched)
	if patched.Name != "editor" || patched.Description != "content editors" {
		t.Errorf("patched role = %+v", patched)
	}

	// List includes admin and editor
	rec = f.do(t, http.MethodGet, "/api/v1/roles", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %s", rec.Code, rec.Body.String())
	}
	var page struct {
		Total int64 `json:"total"`
	}
	decodeBody(t, rec, &page)
	if page.Total != 2 {
		t.Errorf("total = %d, want 2", page.Total)
	}

	// Deactivate drops the role from active listings
	rec = f.do(t, http.MethodDelete, "/api/v1/roles/"+created.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = f.do(t, http.MethodGet, "/api/v1/roles", token, nil)
	decodeBody(t, rec, &page)
	if page.Total != 1 {
		t.Errorf("total after deactivate = %d, want 1", page.Total)
	}
}

func TestRoleNotFound(t *testing.T) {
	f := newAPIFixture(t)
	token := f.admin(t)

	rec := f.do(t, http.MethodPatch, "/api/v1/roles/12345", token, map[string]any{
		"name": "ghost",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
