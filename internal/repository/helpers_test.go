package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/snowflake"

	"github.com/danharte/stencil/internal/infrastructure/database"
)

// gadget is the record type used by the package tests.
type gadget struct {
	ID   int64
	Name string
	Tier int64
	Audit
}

func (g *gadget) Table() string     { return "Gadget" }
func (g *gadget) GetID() int64      { return g.ID }
func (g *gadget) SetID(id int64)    { g.ID = id }
func (g *gadget) Columns() []string { return []string{"name", "tier"} }
func (g *gadget) Values() []any     { return []any{g.Name, g.Tier} }
func (g *gadget) Dest() []any       { return []any{&g.Name, &g.Tier} }

func (g *gadget) Apply(column string, value any) bool {
	switch column {
	case "name":
		s, ok := value.(string)
		if !ok {
			return false
		}
		g.Name = s
		return true
	case "tier":
		switch n := value.(type) {
		case int:
			g.Tier = int64(n)
		case int64:
			g.Tier = n
		case float64:
			g.Tier = int64(n)
		default:
			return false
		}
		return true
	default:
		return false
	}
}

const gadgetSchema = `
	CREATE TABLE Gadget (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		tier INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		create_time TEXT NOT NULL DEFAULT '',
		update_time TEXT NOT NULL DEFAULT '',
		create_by TEXT NOT NULL DEFAULT 'system',
		update_by TEXT NOT NULL DEFAULT 'system'
	) STRICT;
`

func testRepo(t *testing.T) (*Repository[*gadget], *database.DB) {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "repo.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if _, err := db.ExecContext(context.Background(), gadgetSchema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	return New(db, node, func() *gadget { return &gadget{} }), db
}

func addGadget(t *testing.T, repo *Repository[*gadget], name string, tier int64) *gadget {
	t.Helper()

	g := &gadget{Name: name, Tier: tier}
	if err := repo.Add(context.Background(), g, "tester"); err != nil {
		t.Fatalf("Add(%q) error = %v", name, err)
	}
	return g
}
