package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"

	"github.com/danharte/stencil/internal/infrastructure/database"
)

// RawResult is the outcome of Executor.Execute. In flat mode only Rows
// is set; in paged mode Total, Page and Size are filled in as well.
type RawResult struct {
	Total *int64           `json:"total,omitempty"`
	Page  int              `json:"page,omitempty"`
	Size  int              `json:"size,omitempty"`
	Rows  []map[string]any `json:"rows"`
}

// Executor runs caller-supplied SELECT statements with :name bound
// parameters. It exists for the queries a typed store cannot express;
// identifier positions still belong to the caller, so it must only
// ever receive trusted query text.
type Executor struct {
	db *database.DB
}

// NewExecutor creates an Executor on db.
func NewExecutor(db *database.DB) *Executor {
	return &Executor{db: db}
}

// Execute runs query with params bound by name.
//
// When params carries both "page" and "size", those two keys are
// stripped from the bind set and the query runs paged: the total comes
// from wrapping the original query in SELECT COUNT(*), and the rows
// from appending LIMIT/OFFSET. Supplying only one of the two keys, or
// values below 1, is ErrInvalidPage. Without them the query runs flat.
func (e *Executor) Execute(ctx context.Context, query string, params map[string]any) (*RawResult, error) {
	pageVal, hasPage := params["page"]
	sizeVal, hasSize := params["size"]

	if hasPage != hasSize {
		return nil, fmt.Errorf("page and size must be supplied together: %w", ErrInvalidPage)
	}

	if !hasPage {
		rows, err := e.queryMaps(ctx, query, namedArgs(params))
		if err != nil {
			return nil, err
		}
		return &RawResult{Rows: rows}, nil
	}

	page, err := toInt(pageVal)
	if err != nil {
		return nil, fmt.Errorf("page: %w", ErrInvalidPage)
	}
	size, err := toInt(sizeVal)
	if err != nil {
		return nil, fmt.Errorf("size: %w", ErrInvalidPage)
	}
	if page < 1 || size < 1 {
		return nil, fmt.Errorf("page %d size %d: %w", page, size, ErrInvalidPage)
	}

	bind := make(map[string]any, len(params))
	for k, v := range params {
		if k == "page" || k == "size" {
			continue
		}
		bind[k] = v
	}
	args := namedArgs(bind)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM (%s)", query)
	var total int64
	if err := e.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count query: %w", err)
	}

	pagedQuery := query + " LIMIT :raw_limit OFFSET :raw_offset"
	pagedArgs := append(args,
		sql.Named("raw_limit", size),
		sql.Named("raw_offset", (page-1)*size),
	)
	rows, err := e.queryMaps(ctx, pagedQuery, pagedArgs)
	if err != nil {
		return nil, err
	}

	return &RawResult{Total: &total, Page: page, Size: size, Rows: rows}, nil
}

func (e *Executor) queryMaps(ctx context.Context, query string, args []any) ([]map[string]any, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("raw query: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("raw query columns: %w", err)
	}

	out := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("raw query scan: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, c := range cols {
			v := values[i]
			// TEXT columns come back as []byte; strings are friendlier
			// to JSON encoding and callers alike.
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[c] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("raw query rows: %w", err)
	}
	return out, nil
}

func namedArgs(params map[string]any) []any {
	args := make([]any, 0, len(params))
	for k, v := range params {
		args = append(args, sql.Named(k, v))
	}
	return args
}

// toInt accepts the integer encodings that survive JSON decoding and
// query-string parsing.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if math.Trunc(n) != n {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("not an integer: %T", v)
	}
}
