package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/shadestore/internal/ir"
)

// ErrNameTaken matches every *NameTakenError.
var ErrNameTaken = errors.New("store: name already taken")

// NameTakenError reports a lost create: the name is held by Existing.
type NameTakenError struct {
	Name     string
	Existing ir.Tag
	Class    ir.ClassID
}

func (e *NameTakenError) Error() string {
	return fmt.Sprintf("name %s already taken by %s %s", e.Name, e.Class, e.Existing)
}

func (e *NameTakenError) Is(target error) bool {
	return target == ErrNameTaken
}

// Pending is an element to be written.
type Pending struct {
	Name    string
	Class   ir.ClassID
	Payload []byte
}

// Create writes an unnamed element.
func (s *Store) Create(ctx context.Context, txn *Txn, class ir.ClassID, payload []byte) (ir.Tag, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO elements (name, class_id, payload, txn) VALUES (NULL, ?, ?, ?)
	`, int64(class), payload, txn.ID())
	if err != nil {
		return ir.NullTag, fmt.Errorf("create %s: %w", class, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ir.NullTag, fmt.Errorf("create %s: %w", class, err)
	}
	return makeTag(id, 1), nil
}

// CreateIfAbsent writes a named element unless the name is taken, in which
// case it returns a *NameTakenError.
func (s *Store) CreateIfAbsent(ctx context.Context, txn *Txn, el Pending) (ir.Tag, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return ir.NullTag, fmt.Errorf("create %s: begin transaction: %w", el.Name, err)
	}
	defer tx.Rollback() // No-op if committed

	tag, err := insertNamed(ctx, tx, txn, el)
	if err != nil {
		return ir.NullTag, err
	}
	if err := tx.Commit(); err != nil {
		return ir.NullTag, fmt.Errorf("create %s: commit: %w", el.Name, err)
	}
	return tag, nil
}

// CommitModule writes a module and the elements that depend on its tag in
// one transaction. dependents receives the module's tag. If any name is
// taken nothing is written and the *NameTakenError of the first conflict
// is returned. The dependents' tags are returned in order.
func (s *Store) CommitModule(ctx context.Context, txn *Txn, module Pending, dependents func(ir.Tag) ([]Pending, error)) (ir.Tag, []ir.Tag, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return ir.NullTag, nil, fmt.Errorf("commit %s: begin transaction: %w", module.Name, err)
	}
	defer tx.Rollback() // No-op if committed

	tag, err := insertNamed(ctx, tx, txn, module)
	if err != nil {
		return ir.NullTag, nil, err
	}

	var deps []Pending
	if dependents != nil {
		if deps, err = dependents(tag); err != nil {
			return ir.NullTag, nil, fmt.Errorf("commit %s: %w", module.Name, err)
		}
	}
	tags := make([]ir.Tag, 0, len(deps))
	for _, d := range deps {
		t, err := insertNamed(ctx, tx, txn, d)
		if err != nil {
			return ir.NullTag, nil, err
		}
		tags = append(tags, t)
	}

	if err := tx.Commit(); err != nil {
		return ir.NullTag, nil, fmt.Errorf("commit %s: %w", module.Name, err)
	}
	return tag, tags, nil
}

// insertNamed uses ON CONFLICT(name) DO NOTHING and reads the winner back
// when no row was inserted.
func insertNamed(ctx context.Context, tx *sql.Tx, txn *Txn, el Pending) (ir.Tag, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO elements (name, class_id, payload, txn) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, el.Name, int64(el.Class), el.Payload, txn.ID())
	if err != nil {
		return ir.NullTag, fmt.Errorf("create %s: %w", el.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ir.NullTag, fmt.Errorf("create %s: rows affected: %w", el.Name, err)
	}
	if n == 0 {
		var id, gen, class int64
		err := tx.QueryRowContext(ctx, `
			SELECT id, generation, class_id FROM elements WHERE name = ?
		`, el.Name).Scan(&id, &gen, &class)
		if err != nil {
			return ir.NullTag, fmt.Errorf("create %s: read existing: %w", el.Name, err)
		}
		return ir.NullTag, &NameTakenError{Name: el.Name, Existing: makeTag(id, gen), Class: ir.ClassID(class)}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ir.NullTag, fmt.Errorf("create %s: %w", el.Name, err)
	}
	return makeTag(id, 1), nil
}

// Remove deletes the element tag refers to. Tags that point at it dangle
// afterwards; shared resource index entries go with it.
func (s *Store) Remove(ctx context.Context, tag ir.Tag) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM elements WHERE id = ? AND generation = ?
	`, int64(tag.ID), int64(tag.Gen))
	if err != nil {
		return fmt.Errorf("remove %s: %w", tag, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove %s: %w", tag, err)
	}
	if n == 0 {
		return fmt.Errorf("remove %s: %w", tag, ErrNotFound)
	}
	return nil
}
