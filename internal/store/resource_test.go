package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/shadestore/internal/ir"
)

func TestInsertResourceIfAbsent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tag, inserted, err := s.InsertResourceIfAbsent(ctx, NewTxn(), "k1", "/tex/wood.png", `{"gamma":"srgb"}`, ir.ClassTexture, []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, inserted)

	again, inserted, err := s.InsertResourceIfAbsent(ctx, NewTxn(), "k1", "/tex/wood.png", `{"gamma":"srgb"}`, ir.ClassTexture, []byte(`{}`))
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, tag, again)

	other, inserted, err := s.InsertResourceIfAbsent(ctx, NewTxn(), "k2", "/tex/wood.png", `{"gamma":"linear"}`, ir.ClassTexture, []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotEqual(t, tag, other)

	got, err := s.LookupResource(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, tag, got)
}

func TestInsertResourceIfAbsent_Concurrent(t *testing.T) {
	s := createTestStore(t, WithDriver(DriverPure))
	ctx := context.Background()

	tags := make([]ir.Tag, 6)
	g, gctx := errgroup.WithContext(ctx)
	for i := range tags {
		g.Go(func() error {
			tag, _, err := s.InsertResourceIfAbsent(gctx, NewTxn(), "shared", "/a.ies", "{}", ir.ClassLightProfile, []byte(`{}`))
			tags[i] = tag
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, tag := range tags[1:] {
		assert.Equal(t, tags[0], tag)
	}

	n, err := s.Count(ctx, ir.ClassLightProfile)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLookupResource_RemovedWithElement(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tag, _, err := s.InsertResourceIfAbsent(ctx, NewTxn(), "k", "/a.png", "{}", ir.ClassTexture, []byte(`{}`))
	require.NoError(t, err)
	require.NoError(t, s.Remove(ctx, tag))

	_, err = s.LookupResource(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}
