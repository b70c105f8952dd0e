package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/shadestore/internal/ir"
)

// RefsFunc enumerates the outgoing references of an element.
type RefsFunc func(Element) ([]ir.Tag, error)

// Reachable returns every element reachable from roots through refs,
// roots included, sorted by id. Dangling tags are skipped.
func (s *Store) Reachable(ctx context.Context, roots []ir.Tag, refs RefsFunc) ([]ir.Tag, error) {
	seen := make(map[ir.Tag]bool)
	queue := append([]ir.Tag(nil), roots...)
	var out []ir.Tag

	for len(queue) > 0 {
		tag := queue[0]
		queue = queue[1:]
		if !tag.IsValid() || seen[tag] {
			continue
		}
		seen[tag] = true

		el, err := s.Access(ctx, tag)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reachable: %w", err)
		}
		out = append(out, tag)

		next, err := refs(el)
		if err != nil {
			return nil, fmt.Errorf("reachable: references of %s: %w", tag, err)
		}
		queue = append(queue, next...)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Gen < out[j].Gen
	})
	return out, nil
}
