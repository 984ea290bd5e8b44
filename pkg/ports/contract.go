package ports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formwork/pkg/domain"
)

// RunRecoveryCacheContract runs a suite of tests to verify that a RecoveryCache
// implementation adheres to the defined interface contract.
func RunRecoveryCacheContract(t *testing.T, cache RecoveryCache) {
	ctx := context.Background()

	snap := domain.Snapshot{
		Field: domain.Field{
			Name:     "user.email",
			Value:    "ann@example.com",
			HasValue: true,
			Touched:  true,
			Errors:   []domain.ErrorEntry{{Field: "user.email", Message: "taken"}},
		},
		Meta: domain.Meta{
			Name:            "user.email",
			Trigger:         domain.DefaultTrigger,
			ValuePropName:   domain.DefaultValuePropName,
			InitialValue:    "initial",
			HasInitialValue: true,
			ValidateFirst:   true,
		},
	}

	t.Run("Put and Take", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, "user.email", snap))

		got, err := cache.Take(ctx, "user.email")
		require.NoError(t, err, "Take should not return error")
		assert.Equal(t, snap.Field.Value, got.Field.Value)
		assert.True(t, got.Field.HasValue)
		assert.True(t, got.Field.Touched)
		assert.Equal(t, snap.Field.Errors, got.Field.Errors)
		assert.Equal(t, snap.Meta.InitialValue, got.Meta.InitialValue)
		assert.True(t, got.Meta.ValidateFirst)
	})

	t.Run("Take Is Exactly Once", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, "once", snap))
		_, err := cache.Take(ctx, "once")
		require.NoError(t, err)

		_, err = cache.Take(ctx, "once")
		assert.ErrorIs(t, err, ErrSnapshotNotFound)
	})

	t.Run("Take Non-Existent", func(t *testing.T) {
		_, err := cache.Take(ctx, "missing")
		assert.ErrorIs(t, err, ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, "gone", snap))
		require.NoError(t, cache.Delete(ctx, "gone"))

		_, err := cache.Take(ctx, "gone")
		assert.ErrorIs(t, err, ErrSnapshotNotFound, "Take after Delete should return ErrSnapshotNotFound")

		assert.NoError(t, cache.Delete(ctx, "gone"), "Delete of a missing name is not an error")
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, "a", snap))
		require.NoError(t, cache.Put(ctx, "b", snap))
		require.NoError(t, cache.Clear(ctx))

		_, err := cache.Take(ctx, "a")
		assert.ErrorIs(t, err, ErrSnapshotNotFound)
		_, err = cache.Take(ctx, "b")
		assert.ErrorIs(t, err, ErrSnapshotNotFound)
	})
}
