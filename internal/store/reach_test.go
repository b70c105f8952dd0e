package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shadestore/internal/ir"
)

type refPayload struct {
	Refs []ir.Tag `json:"refs"`
}

func payloadRefs(el Element) ([]ir.Tag, error) {
	var p refPayload
	if err := json.Unmarshal(el.Payload, &p); err != nil {
		return nil, err
	}
	return p.Refs, nil
}

func createWithRefs(t *testing.T, s *Store, refs ...ir.Tag) ir.Tag {
	t.Helper()
	payload, err := json.Marshal(refPayload{Refs: refs})
	require.NoError(t, err)
	tag, err := s.Create(context.Background(), NewTxn(), ir.ClassFunctionCall, payload)
	require.NoError(t, err)
	return tag
}

func TestReachable(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	leaf := createWithRefs(t, s)
	mid := createWithRefs(t, s, leaf)
	root := createWithRefs(t, s, mid, leaf, ir.Tag{ID: 999, Gen: 1})
	unrelated := createWithRefs(t, s)

	got, err := s.Reachable(ctx, []ir.Tag{root}, payloadRefs)
	require.NoError(t, err)
	assert.Equal(t, []ir.Tag{leaf, mid, root}, got)
	assert.NotContains(t, got, unrelated)
}

func TestReachable_Cycle(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := createWithRefs(t, s)
	b := createWithRefs(t, s, a)
	// Point a back at b.
	payload, err := json.Marshal(refPayload{Refs: []ir.Tag{b}})
	require.NoError(t, err)
	_, err = s.db.Exec(`UPDATE elements SET payload = ? WHERE id = ?`, payload, int64(a.ID))
	require.NoError(t, err)

	got, err := s.Reachable(ctx, []ir.Tag{a}, payloadRefs)
	require.NoError(t, err)
	assert.Equal(t, []ir.Tag{a, b}, got)
}
