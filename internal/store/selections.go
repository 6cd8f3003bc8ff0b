package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// Selection is a named, materialized subset of variant identities.
// Count is frozen at creation time.
type Selection struct {
	ID    int64
	Name  string
	Count int64
}

// Materialize executes compiled query text, collects the distinct set
// of matched variant identities, and stores them as a new named
// selection. The first projected column of the query must be the
// variant identity, which holds for every query the compiler emits and
// for set-algebra combinations of them.
//
// Selection names are unique; materializing an existing name is an
// error. Re-deriving a selection means creating a new one.
func (s *Store) Materialize(ctx context.Context, name, queryText string) (Selection, error) {
	if err := validateSelectionName(name); err != nil {
		return Selection{}, fmt.Errorf("materialize: %w", err)
	}

	ids, err := s.collectIdentities(ctx, queryText)
	if err != nil {
		return Selection{}, fmt.Errorf("materialize %q: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Selection{}, fmt.Errorf("materialize %q: begin tx: %w", name, err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx,
		`INSERT INTO selections (name, count) VALUES (?, ?)`, name, len(ids))
	if err != nil {
		return Selection{}, fmt.Errorf("materialize %q: insert: %w", name, err)
	}
	selectionID, err := result.LastInsertId()
	if err != nil {
		return Selection{}, fmt.Errorf("materialize %q: id: %w", name, err)
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO selection_has_variant (selection_id, variant_id)
		VALUES (?, ?)
	`)
	if err != nil {
		return Selection{}, fmt.Errorf("materialize %q: prepare: %w", name, err)
	}
	defer insert.Close()

	for _, id := range ids {
		if _, err := insert.ExecContext(ctx, selectionID, id); err != nil {
			return Selection{}, fmt.Errorf("materialize %q: membership: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Selection{}, fmt.Errorf("materialize %q: commit: %w", name, err)
	}

	slog.Info("selection materialized", "name", name, "count", len(ids))
	return Selection{ID: selectionID, Name: name, Count: int64(len(ids))}, nil
}

// collectIdentities runs query text and returns the distinct values of
// its first column in first-occurrence order. Deduplication happens
// here rather than relying on the query's own DISTINCT, so set
// semantics hold regardless of the engine's set-operator behavior.
func (s *Store) collectIdentities(ctx context.Context, queryText string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	ids := []int64{}
	seen := map[int64]bool{}
	scan := make([]any, len(cols))
	for rows.Next() {
		var id int64
		scan[0] = &id
		for i := 1; i < len(scan); i++ {
			scan[i] = new(any)
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return ids, nil
}

// ListSelections returns every selection in creation order.
func (s *Store) ListSelections(ctx context.Context) ([]Selection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, count FROM selections ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	defer rows.Close()

	selections := []Selection{}
	for rows.Next() {
		var sel Selection
		if err := rows.Scan(&sel.ID, &sel.Name, &sel.Count); err != nil {
			return nil, fmt.Errorf("list selections: scan: %w", err)
		}
		selections = append(selections, sel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list selections: iterate: %w", err)
	}
	return selections, nil
}

// SelectionByName looks up one selection. Returns NotFoundError if no
// selection has that name.
func (s *Store) SelectionByName(ctx context.Context, name string) (Selection, error) {
	var sel Selection
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, count FROM selections WHERE name = ?`, name).
		Scan(&sel.ID, &sel.Name, &sel.Count)
	if err == sql.ErrNoRows {
		return Selection{}, &NotFoundError{Kind: "selection", Name: name}
	}
	if err != nil {
		return Selection{}, fmt.Errorf("selection %q: %w", name, err)
	}
	return sel, nil
}

// SelectionVariants returns the variant identities belonging to a named
// selection, in ascending order.
func (s *Store) SelectionVariants(ctx context.Context, name string) ([]int64, error) {
	sel, err := s.SelectionByName(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT variant_id FROM selection_has_variant
		WHERE selection_id = ?
		ORDER BY variant_id ASC
	`, sel.ID)
	if err != nil {
		return nil, fmt.Errorf("selection %q variants: %w", name, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("selection %q variants: scan: %w", name, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("selection %q variants: iterate: %w", name, err)
	}
	return ids, nil
}

// DropSelection deletes a selection and its membership rows. Returns
// NotFoundError if the selection does not exist. The bootstrap "all"
// selection cannot be dropped.
func (s *Store) DropSelection(ctx context.Context, name string) error {
	if name == "all" {
		return fmt.Errorf("drop selection: the \"all\" selection cannot be dropped")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM selections WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("drop selection %q: %w", name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("drop selection %q: rows affected: %w", name, err)
	}
	if affected == 0 {
		return &NotFoundError{Kind: "selection", Name: name}
	}
	return nil
}

func validateSelectionName(name string) error {
	if name == "" {
		return fmt.Errorf("empty selection name")
	}
	if strings.ContainsAny(name, "`'") {
		return fmt.Errorf("invalid selection name %q", name)
	}
	return nil
}
