package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/danharte/stencil/internal/infrastructure/database"
)

// Repository provides the CRUD operations shared by every persisted
// type. Typed stores embed it and add their own queries on top.
//
// All SQL is built from the record's declared columns; caller input
// never reaches an identifier position unvalidated.
type Repository[T Record] struct {
	db    *database.DB
	node  *snowflake.Node
	newFn func() T
}

// New creates a Repository for T. newFn must return a fresh zero
// record; it is called once per scanned row.
func New[T Record](db *database.DB, node *snowflake.Node, newFn func() T) *Repository[T] {
	return &Repository[T]{db: db, node: node, newFn: newFn}
}

// ListOptions narrows and orders list queries. The zero value lists
// every row ordered by id ascending.
type ListOptions struct {
	OrderBy    string // column to sort by; must be a declared column
	Descending bool
	Where      string // optional filter fragment with ? placeholders
	Args       []any  // arguments for Where
	ActiveOnly bool   // restrict to is_active = 1
}

// execer is satisfied by both *database.DB and *sql.Tx, so inserts can
// run standalone or inside a batch transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetByID fetches a single record. Deactivated records are still
// returned; callers filter on IsActive when it matters.
func (r *Repository[T]) GetByID(ctx context.Context, id int64) (T, error) {
	var zero T
	rec := r.newFn()

	query := fmt.Sprintf(`SELECT %s FROM %q WHERE id = ?`, r.selectClause(rec), rec.Table())
	row := r.db.QueryRowContext(ctx, query, id)

	out, err := r.scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return zero, fmt.Errorf("get %s: %w", rec.Table(), err)
	}
	return out, nil
}

// GetByIDs fetches multiple records in a single IN query. Results
// follow the order of ids; missing ids are skipped, not errors.
func (r *Repository[T]) GetByIDs(ctx context.Context, ids []int64) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rec := r.newFn()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf(`SELECT %s FROM %q WHERE id IN (%s)`,
		r.selectClause(rec), rec.Table(), placeholders)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", rec.Table(), err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	byID := make(map[int64]T, len(ids))
	for rows.Next() {
		item, err := r.scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", rec.Table(), err)
		}
		byID[item.GetID()] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows %s: %w", rec.Table(), err)
	}

	out := make([]T, 0, len(byID))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// Count returns the number of rows matching opts. Ordering fields in
// opts are ignored.
func (r *Repository[T]) Count(ctx context.Context, opts ListOptions) (int64, error) {
	rec := r.newFn()
	where, args := whereClause(opts)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %q%s`, rec.Table(), where)

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", rec.Table(), err)
	}
	return total, nil
}

// List returns every record matching opts, ordered by opts.OrderBy
// (default id ascending).
func (r *Repository[T]) List(ctx context.Context, opts ListOptions) ([]T, error) {
	rec := r.newFn()
	orderBy, err := r.orderClause(rec, opts)
	if err != nil {
		return nil, err
	}

	where, args := whereClause(opts)
	query := fmt.Sprintf(`SELECT %s FROM %q%s ORDER BY %s`,
		r.selectClause(rec), rec.Table(), where, orderBy)
	return r.queryList(ctx, rec.Table(), query, args)
}

// ListPage returns one page of records plus the total row count for
// the same filter. Pages are 1-based; page or size below 1 is
// ErrInvalidPage.
func (r *Repository[T]) ListPage(ctx context.Context, page, size int, opts ListOptions) (*Page[T], error) {
	if page < 1 || size < 1 {
		return nil, fmt.Errorf("page %d size %d: %w", page, size, ErrInvalidPage)
	}

	total, err := r.Count(ctx, opts)
	if err != nil {
		return nil, err
	}

	rec := r.newFn()
	orderBy, err := r.orderClause(rec, opts)
	if err != nil {
		return nil, err
	}

	where, args := whereClause(opts)
	query := fmt.Sprintf(`SELECT %s FROM %q%s ORDER BY %s LIMIT ? OFFSET ?`,
		r.selectClause(rec), rec.Table(), where, orderBy)
	args = append(args, size, (page-1)*size)

	items, err := r.queryList(ctx, rec.Table(), query, args)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}

	return &Page[T]{Total: total, Page: page, Size: size, Items: items}, nil
}

// Add inserts rec, assigning a snowflake id when none is set and
// stamping the audit columns. The record is active on creation.
func (r *Repository[T]) Add(ctx context.Context, rec T, createdBy string) error {
	return r.insert(ctx, r.db, rec, createdBy, time.Now().UTC())
}

// AddAll inserts all records in one transaction. A failure on any
// record rolls back the whole batch.
func (r *Repository[T]) AddAll(ctx context.Context, recs []T, createdBy string) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}

	if err := r.AddAllTx(ctx, tx, recs, createdBy); err != nil {
		tx.Rollback() //nolint:errcheck // Insert error takes precedence
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch insert: %w", err)
	}
	return nil
}

// AddAllTx inserts all records inside the caller's transaction, for
// mutations that must commit atomically with other statements. The
// caller owns commit and rollback.
func (r *Repository[T]) AddAllTx(ctx context.Context, tx *sql.Tx, recs []T, createdBy string) error {
	now := time.Now().UTC()
	for _, rec := range recs {
		if err := r.insert(ctx, tx, rec, createdBy, now); err != nil {
			return err
		}
	}
	return nil
}

// Update writes the columns named in patch to rec's row. Columns the
// record refuses via Apply return ErrColumnNotAllowed and nothing is
// written. update_time and update_by are always refreshed, even for an
// empty patch.
func (r *Repository[T]) Update(ctx context.Context, rec T, patch Patch, updatedBy string) error {
	if rec.GetID() == 0 {
		return fmt.Errorf("%w: record has no id", ErrNotFound)
	}

	// Deterministic column order keeps the generated SQL stable.
	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	valueIndex := make(map[string]int, len(rec.Columns()))
	for i, c := range rec.Columns() {
		valueIndex[c] = i
	}

	set := make([]string, 0, len(keys)+2)
	args := make([]any, 0, len(keys)+3)
	for _, k := range keys {
		idx, ok := valueIndex[k]
		if !ok || !rec.Apply(k, patch[k]) {
			return fmt.Errorf("column %q: %w", k, ErrColumnNotAllowed)
		}
		// Read back through Values so the SQL argument carries the
		// record's canonical type, not the raw JSON decode.
		set = append(set, k+" = ?")
		args = append(args, rec.Values()[idx])
	}

	now := time.Now().UTC()
	set = append(set, "update_time = ?", "update_by = ?")
	args = append(args, formatTime(now), updatedBy, rec.GetID())

	query := fmt.Sprintf(`UPDATE %q SET %s WHERE id = ?`, rec.Table(), strings.Join(set, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", rec.Table(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", rec.Table(), err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, rec.GetID())
	}

	audit := rec.Meta()
	audit.UpdateTime = now
	audit.UpdateBy = updatedBy
	return nil
}

// UpdateByID fetches the record, applies patch, and returns the
// updated record.
func (r *Repository[T]) UpdateByID(ctx context.Context, id int64, patch Patch, updatedBy string) (T, error) {
	var zero T
	rec, err := r.GetByID(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := r.Update(ctx, rec, patch, updatedBy); err != nil {
		return zero, err
	}
	return rec, nil
}

// Delete removes the row and returns the record as it was before
// removal.
func (r *Repository[T]) Delete(ctx context.Context, id int64) (T, error) {
	var zero T
	rec, err := r.GetByID(ctx, id)
	if err != nil {
		return zero, err
	}

	query := fmt.Sprintf(`DELETE FROM %q WHERE id = ?`, rec.Table())
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return zero, fmt.Errorf("delete %s: %w", rec.Table(), err)
	}
	return rec, nil
}

// DeleteAll removes every id in one transaction. If any id is missing
// nothing is removed and ErrNotFound is returned. The removed records
// are returned in the order of ids.
func (r *Repository[T]) DeleteAll(ctx context.Context, ids []int64) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	recs, err := r.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[int64]bool, len(recs))
	for _, rec := range recs {
		found[rec.GetID()] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
	}

	rec := r.newFn()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch delete: %w", err)
	}

	query := fmt.Sprintf(`DELETE FROM %q WHERE id = ?`, rec.Table())
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, query, id)
		if err != nil {
			tx.Rollback() //nolint:errcheck // Delete error takes precedence
			return nil, fmt.Errorf("delete %s: %w", rec.Table(), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			tx.Rollback() //nolint:errcheck // Delete error takes precedence
			return nil, fmt.Errorf("delete %s: %w", rec.Table(), err)
		}
		if n == 0 {
			// Row vanished between the fetch and the delete.
			tx.Rollback() //nolint:errcheck // Not-found takes precedence
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch delete: %w", err)
	}
	return recs, nil
}

// Deactivate flips is_active off without removing the row, and returns
// the updated record.
func (r *Repository[T]) Deactivate(ctx context.Context, id int64, updatedBy string) (T, error) {
	var zero T
	rec := r.newFn()
	now := time.Now().UTC()

	query := fmt.Sprintf(`UPDATE %q SET is_active = 0, update_time = ?, update_by = ? WHERE id = ?`, rec.Table())
	res, err := r.db.ExecContext(ctx, query, formatTime(now), updatedBy, id)
	if err != nil {
		return zero, fmt.Errorf("deactivate %s: %w", rec.Table(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return zero, fmt.Errorf("deactivate %s: %w", rec.Table(), err)
	}
	if n == 0 {
		return zero, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	return r.GetByID(ctx, id)
}

func (r *Repository[T]) insert(ctx context.Context, ex execer, rec T, createdBy string, now time.Time) error {
	if rec.GetID() == 0 {
		rec.SetID(r.node.Generate().Int64())
	}
	*rec.Meta() = Audit{
		IsActive:   true,
		CreateTime: now,
		UpdateTime: now,
		CreateBy:   createdBy,
		UpdateBy:   createdBy,
	}

	cols := make([]string, 0, len(rec.Columns())+6)
	cols = append(cols, "id")
	cols = append(cols, rec.Columns()...)
	cols = append(cols, auditColumns...)

	args := make([]any, 0, len(cols))
	args = append(args, rec.GetID())
	args = append(args, rec.Values()...)
	args = append(args, 1, formatTime(now), formatTime(now), createdBy, createdBy)

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	query := fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`,
		rec.Table(), strings.Join(cols, ", "), placeholders)

	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", rec.Table(), err)
	}
	return nil
}

// selectClause lists id, the record's columns, and the audit columns
// in the order scanRecord expects.
func (r *Repository[T]) selectClause(rec T) string {
	cols := make([]string, 0, len(rec.Columns())+6)
	cols = append(cols, "id")
	cols = append(cols, rec.Columns()...)
	cols = append(cols, auditColumns...)
	return strings.Join(cols, ", ")
}

func (r *Repository[T]) orderClause(rec T, opts ListOptions) (string, error) {
	orderBy := opts.OrderBy
	if orderBy == "" {
		orderBy = "id"
	}
	if !columnAllowed(rec, orderBy) {
		return "", fmt.Errorf("order by %q: %w", orderBy, ErrColumnNotAllowed)
	}
	if opts.Descending {
		return orderBy + " DESC", nil
	}
	return orderBy + " ASC", nil
}

func (r *Repository[T]) scanRecord(scan func(dest ...any) error) (T, error) {
	var zero T
	rec := r.newFn()

	var (
		id         int64
		isActive   int64
		createTime string
		updateTime string
		createBy   string
		updateBy   string
	)
	dest := make([]any, 0, len(rec.Columns())+6)
	dest = append(dest, &id)
	dest = append(dest, rec.Dest()...)
	dest = append(dest, &isActive, &createTime, &updateTime, &createBy, &updateBy)

	if err := scan(dest...); err != nil {
		return zero, err
	}

	rec.SetID(id)
	*rec.Meta() = Audit{
		IsActive:   isActive != 0,
		CreateTime: parseTime(createTime),
		UpdateTime: parseTime(updateTime),
		CreateBy:   createBy,
		UpdateBy:   updateBy,
	}
	return rec, nil
}

func (r *Repository[T]) queryList(ctx context.Context, table, query string, args []any) ([]T, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	var out []T
	for rows.Next() {
		rec, err := r.scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows %s: %w", table, err)
	}
	return out, nil
}

func columnAllowed[T Record](rec T, column string) bool {
	if column == "id" {
		return true
	}
	for _, c := range rec.Columns() {
		if c == column {
			return true
		}
	}
	for _, c := range auditColumns {
		if c == column {
			return true
		}
	}
	return false
}

func whereClause(opts ListOptions) (string, []any) {
	var clauses []string
	var args []any
	if opts.ActiveOnly {
		clauses = append(clauses, "is_active = 1")
	}
	if opts.Where != "" {
		clauses = append(clauses, "("+opts.Where+")")
		args = append(args, opts.Args...)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
