package providertest

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/accredit/internal/ident"
	"github.com/dwsmith1983/accredit/internal/provider"
)

var ids = ident.New()

func newID(t *testing.T) string {
	t.Helper()
	id, err := ids.Next()
	require.NoError(t, err)
	return id
}

// RunStore exercises one projection store. sample builds a record for an id;
// change returns a modified copy used to verify Put.
func RunStore[T any](t *testing.T, s provider.Store[T], sample func(id string) T, change func(T) T) {
	t.Helper()

	t.Run("InsertGet", func(t *testing.T) {
		ctx := context.Background()
		id := newID(t)
		rec := sample(id)

		require.NoError(t, s.Insert(ctx, id, rec))
		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("InsertDuplicate", func(t *testing.T) {
		ctx := context.Background()
		id := newID(t)
		require.NoError(t, s.Insert(ctx, id, sample(id)))
		err := s.Insert(ctx, id, sample(id))
		assert.ErrorIs(t, err, provider.ErrAlreadyExists)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get(context.Background(), newID(t))
		assert.ErrorIs(t, err, provider.ErrNotFound)
	})

	t.Run("PutReplaces", func(t *testing.T) {
		ctx := context.Background()
		id := newID(t)
		rec := sample(id)
		require.NoError(t, s.Insert(ctx, id, rec))

		updated := change(rec)
		require.NoError(t, s.Put(ctx, id, updated))
		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("PutMissing", func(t *testing.T) {
		id := newID(t)
		err := s.Put(context.Background(), id, sample(id))
		assert.ErrorIs(t, err, provider.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		ctx := context.Background()
		id := newID(t)
		require.NoError(t, s.Insert(ctx, id, sample(id)))
		require.NoError(t, s.Delete(ctx, id))

		_, err := s.Get(ctx, id)
		assert.ErrorIs(t, err, provider.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, id), provider.ErrNotFound)

		listed, err := s.ListIDs(ctx)
		require.NoError(t, err)
		assert.NotContains(t, listed, id)
	})

	t.Run("ListIDsDescending", func(t *testing.T) {
		ctx := context.Background()
		want := []string{newID(t), newID(t), newID(t)}
		for _, id := range want {
			require.NoError(t, s.Insert(ctx, id, sample(id)))
		}

		listed, err := s.ListIDs(ctx)
		require.NoError(t, err)
		assert.True(t, slices.IsSortedFunc(listed, func(a, b string) int {
			switch {
			case a > b:
				return -1
			case a < b:
				return 1
			}
			return 0
		}), "ids not descending: %v", listed)

		var ours []string
		for _, id := range listed {
			if slices.Contains(want, id) {
				ours = append(ours, id)
			}
		}
		slices.Reverse(want)
		assert.Equal(t, want, ours)
	})
}

// TestStoresAreIndependent verifies a record written to one projection is not
// visible through another.
func TestStoresAreIndependent(t *testing.T, prov provider.Provider) {
	ctx := context.Background()
	id := newID(t)
	require.NoError(t, prov.Process().Insert(ctx, id, SampleProcess(id)))

	_, err := prov.Faculty().Get(ctx, id)
	assert.ErrorIs(t, err, provider.ErrNotFound)
	_, err = prov.Annual().Get(ctx, id)
	assert.ErrorIs(t, err, provider.ErrNotFound)

	require.NoError(t, prov.Faculty().Insert(ctx, id, SampleFaculty(id)))
	_, err = prov.Process().Get(ctx, id)
	assert.NoError(t, err)
}

// TestPing verifies the backend reports healthy.
func TestPing(t *testing.T, prov provider.Provider) {
	assert.NoError(t, prov.Ping(context.Background()))
}
