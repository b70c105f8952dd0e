package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/shadestore/internal/ir"
)

// ErrNotFound is returned for names and tags that do not resolve.
var ErrNotFound = errors.New("store: element not found")

// Element is a stored record. Name is empty for unnamed elements.
type Element struct {
	Tag     ir.Tag
	Name    string
	Class   ir.ClassID
	Payload []byte
	Txn     string
}

// Lookup resolves a name to its tag and class.
func (s *Store) Lookup(ctx context.Context, name string) (ir.Tag, ir.ClassID, error) {
	var (
		id    int64
		gen   int64
		class int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, generation, class_id FROM elements WHERE name = ?
	`, name).Scan(&id, &gen, &class)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.NullTag, 0, fmt.Errorf("lookup %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return ir.NullTag, 0, fmt.Errorf("lookup %s: %w", name, err)
	}
	return makeTag(id, gen), ir.ClassID(class), nil
}

// Class returns the class of the element tag refers to.
func (s *Store) Class(ctx context.Context, tag ir.Tag) (ir.ClassID, error) {
	var class int64
	err := s.db.QueryRowContext(ctx, `
		SELECT class_id FROM elements WHERE id = ? AND generation = ?
	`, int64(tag.ID), int64(tag.Gen)).Scan(&class)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("class of %s: %w", tag, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("class of %s: %w", tag, err)
	}
	return ir.ClassID(class), nil
}

// Access reads the element tag refers to.
func (s *Store) Access(ctx context.Context, tag ir.Tag) (Element, error) {
	if !tag.IsValid() {
		return Element{}, fmt.Errorf("access %s: %w", tag, ErrNotFound)
	}
	var (
		el    Element
		name  sql.NullString
		class int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT name, class_id, payload, txn FROM elements WHERE id = ? AND generation = ?
	`, int64(tag.ID), int64(tag.Gen)).Scan(&name, &class, &el.Payload, &el.Txn)
	if errors.Is(err, sql.ErrNoRows) {
		return Element{}, fmt.Errorf("access %s: %w", tag, ErrNotFound)
	}
	if err != nil {
		return Element{}, fmt.Errorf("access %s: %w", tag, err)
	}
	el.Tag = tag
	el.Name = name.String
	el.Class = ir.ClassID(class)
	return el, nil
}

// Valid reports whether tag still resolves to an element.
func (s *Store) Valid(ctx context.Context, tag ir.Tag) (bool, error) {
	if !tag.IsValid() {
		return false, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM elements WHERE id = ? AND generation = ?
	`, int64(tag.ID), int64(tag.Gen)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("valid %s: %w", tag, err)
	}
	return n == 1, nil
}

// Count returns the number of elements of class.
func (s *Store) Count(ctx context.Context, class ir.ClassID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM elements WHERE class_id = ?
	`, int64(class)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", class, err)
	}
	return n, nil
}

// Names returns the names of all named elements of class in commit order.
func (s *Store) Names(ctx context.Context, class ir.ClassID) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM elements WHERE class_id = ? AND name IS NOT NULL ORDER BY id ASC
	`, int64(class))
	if err != nil {
		return nil, fmt.Errorf("names of %s: %w", class, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("names of %s: %w", class, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("names of %s: %w", class, err)
	}
	return names, nil
}

func makeTag(id, gen int64) ir.Tag {
	return ir.Tag{ID: uint64(id), Gen: uint32(gen)}
}
