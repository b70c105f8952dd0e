package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/shadestore/internal/ir"
)

// InsertResourceIfAbsent returns the element indexed under key, creating
// it from payload when the key is new. inserted reports whether this call
// created it. Lookup and insert share one transaction.
func (s *Store) InsertResourceIfAbsent(ctx context.Context, txn *Txn, key, location, variant string, class ir.ClassID, payload []byte) (ir.Tag, bool, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return ir.NullTag, false, fmt.Errorf("insert resource %s: begin transaction: %w", location, err)
	}
	defer tx.Rollback() // No-op if committed

	tag, err := lookupResource(ctx, tx, key)
	if err == nil {
		return tag, false, tx.Commit()
	}
	if !errors.Is(err, ErrNotFound) {
		return ir.NullTag, false, fmt.Errorf("insert resource %s: %w", location, err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO elements (name, class_id, payload, txn) VALUES (NULL, ?, ?, ?)
	`, int64(class), payload, txn.ID())
	if err != nil {
		return ir.NullTag, false, fmt.Errorf("insert resource %s: %w", location, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ir.NullTag, false, fmt.Errorf("insert resource %s: %w", location, err)
	}

	res, err = tx.ExecContext(ctx, `
		INSERT INTO resource_index (key, location, variant, element_id) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`, key, location, variant, id)
	if err != nil {
		return ir.NullTag, false, fmt.Errorf("insert resource %s: index: %w", location, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ir.NullTag, false, fmt.Errorf("insert resource %s: index: %w", location, err)
	}
	if n == 0 {
		// Another writer indexed the key since our lookup; keep theirs.
		if err := tx.Rollback(); err != nil {
			return ir.NullTag, false, fmt.Errorf("insert resource %s: rollback: %w", location, err)
		}
		tag, err := s.LookupResource(ctx, key)
		return tag, false, err
	}

	if err := tx.Commit(); err != nil {
		return ir.NullTag, false, fmt.Errorf("insert resource %s: commit: %w", location, err)
	}
	return makeTag(id, 1), true, nil
}

// LookupResource returns the element indexed under key.
func (s *Store) LookupResource(ctx context.Context, key string) (ir.Tag, error) {
	return lookupResource(ctx, s.db, key)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func lookupResource(ctx context.Context, q queryer, key string) (ir.Tag, error) {
	var id, gen int64
	err := q.QueryRowContext(ctx, `
		SELECT e.id, e.generation FROM resource_index r
		JOIN elements e ON e.id = r.element_id
		WHERE r.key = ?
	`, key).Scan(&id, &gen)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.NullTag, fmt.Errorf("resource %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return ir.NullTag, fmt.Errorf("resource %s: %w", key, err)
	}
	return makeTag(id, gen), nil
}
