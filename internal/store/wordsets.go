package store

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Wordset is the summary of one named value set.
type Wordset struct {
	Name  string
	Count int64
}

// SetWordset stores a named value set, replacing any previous set with
// the same name. Values are NFC-normalized and deduplicated; the
// compiler references the set through a correlated subquery, so value
// order is irrelevant.
func (s *Store) SetWordset(ctx context.Context, name string, values []string) error {
	if err := validateWordsetName(name); err != nil {
		return fmt.Errorf("set wordset: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set wordset %q: begin tx: %w", name, err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM wordsets WHERE name = ?`, name); err != nil {
		return fmt.Errorf("set wordset %q: clear: %w", name, err)
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO wordsets (name, value) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("set wordset %q: prepare: %w", name, err)
	}
	defer insert.Close()

	for _, value := range values {
		value = norm.NFC.String(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		if _, err := insert.ExecContext(ctx, name, value); err != nil {
			return fmt.Errorf("set wordset %q: insert: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set wordset %q: commit: %w", name, err)
	}
	return nil
}

// ListWordsets returns every word set name with its value count, in
// name order.
func (s *Store) ListWordsets(ctx context.Context) ([]Wordset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, COUNT(*) FROM wordsets GROUP BY name ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list wordsets: %w", err)
	}
	defer rows.Close()

	sets := []Wordset{}
	for rows.Next() {
		var ws Wordset
		if err := rows.Scan(&ws.Name, &ws.Count); err != nil {
			return nil, fmt.Errorf("list wordsets: scan: %w", err)
		}
		sets = append(sets, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list wordsets: iterate: %w", err)
	}
	return sets, nil
}

// WordsetValues returns the values of a named set in ascending order.
// Returns NotFoundError if the set does not exist.
func (s *Store) WordsetValues(ctx context.Context, name string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT value FROM wordsets WHERE name = ? ORDER BY value ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("wordset %q: %w", name, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("wordset %q: scan: %w", name, err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("wordset %q: iterate: %w", name, err)
	}
	if len(values) == 0 {
		return nil, &NotFoundError{Kind: "wordset", Name: name}
	}
	return values, nil
}

// DropWordset deletes a named value set. Returns NotFoundError if the
// set does not exist.
func (s *Store) DropWordset(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM wordsets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("drop wordset %q: %w", name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("drop wordset %q: rows affected: %w", name, err)
	}
	if affected == 0 {
		return &NotFoundError{Kind: "wordset", Name: name}
	}
	return nil
}

func validateWordsetName(name string) error {
	if name == "" {
		return fmt.Errorf("empty wordset name")
	}
	if strings.Contains(name, "'") {
		return fmt.Errorf("invalid wordset name %q", name)
	}
	return nil
}
