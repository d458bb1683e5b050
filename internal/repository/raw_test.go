package repository

import (
	"context"
	"errors"
	"testing"
)

func testExecutor(t *testing.T) (*Executor, *Repository[*gadget]) {
	t.Helper()
	repo, db := testRepo(t)
	return NewExecutor(db), repo
}

func TestExecuteFlat(t *testing.T) {
	ex, repo := testExecutor(t)
	ctx := context.Background()

	addGadget(t, repo, "low", 1)
	addGadget(t, repo, "high", 9)

	res, err := ex.Execute(ctx,
		"SELECT name, tier FROM Gadget WHERE tier > :min ORDER BY tier",
		map[string]any{"min": 5})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if res.Total != nil {
		t.Error("flat mode should not report a total")
	}
	if len(res.Rows) != 1 {
		t.Fatalf("Execute() returned %d rows, want 1", len(res.Rows))
	}
	if res.Rows[0]["name"] != "high" {
		t.Errorf("name = %v, want high", res.Rows[0]["name"])
	}
}

func TestExecutePaged(t *testing.T) {
	ex, repo := testExecutor(t)
	ctx := context.Background()

	for i := int64(0); i < 12; i++ {
		addGadget(t, repo, "g", i)
	}

	res, err := ex.Execute(ctx,
		"SELECT id, tier FROM Gadget ORDER BY tier",
		map[string]any{"page": 2, "size": 5})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if res.Total == nil || *res.Total != 12 {
		t.Fatalf("Total = %v, want 12", res.Total)
	}
	if res.Page != 2 || res.Size != 5 {
		t.Errorf("Page/Size = %d/%d, want 2/5", res.Page, res.Size)
	}
	if len(res.Rows) != 5 {
		t.Fatalf("page 2 returned %d rows, want 5", len(res.Rows))
	}
	// Page 2 of size 5 starts at the sixth row, tier 5.
	if tier, ok := res.Rows[0]["tier"].(int64); !ok || tier != 5 {
		t.Errorf("first tier on page 2 = %v, want 5", res.Rows[0]["tier"])
	}
}

func TestExecutePagedLastPageShort(t *testing.T) {
	ex, repo := testExecutor(t)
	ctx := context.Background()

	for i := int64(0); i < 12; i++ {
		addGadget(t, repo, "g", i)
	}

	res, err := ex.Execute(ctx,
		"SELECT id FROM Gadget ORDER BY id",
		map[string]any{"page": 3, "size": 5})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(res.Rows) != 2 {
		t.Errorf("last page returned %d rows, want 2", len(res.Rows))
	}
}

func TestExecuteInvalidPaging(t *testing.T) {
	ex, repo := testExecutor(t)
	ctx := context.Background()
	addGadget(t, repo, "g", 1)

	tests := []struct {
		name   string
		params map[string]any
	}{
		{"page without size", map[string]any{"page": 1}},
		{"size without page", map[string]any{"size": 10}},
		{"zero page", map[string]any{"page": 0, "size": 10}},
		{"negative size", map[string]any{"page": 1, "size": -1}},
		{"non-numeric page", map[string]any{"page": "abc", "size": 10}},
		{"fractional size", map[string]any{"page": 1, "size": 2.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ex.Execute(ctx, "SELECT id FROM Gadget", tt.params)
			if !errors.Is(err, ErrInvalidPage) {
				t.Errorf("Execute() error = %v, want ErrInvalidPage", err)
			}
		})
	}
}

func TestExecuteStringParamsFromQueryString(t *testing.T) {
	ex, repo := testExecutor(t)
	ctx := context.Background()

	for i := int64(0); i < 3; i++ {
		addGadget(t, repo, "g", i)
	}

	// Query-string values arrive as strings; paging must still work.
	res, err := ex.Execute(ctx,
		"SELECT id FROM Gadget ORDER BY id",
		map[string]any{"page": "1", "size": "2"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(res.Rows) != 2 {
		t.Errorf("returned %d rows, want 2", len(res.Rows))
	}
}
