package product

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Upsert then List", func(t *testing.T) {
		repo := NewMemoryRepository()
		clock := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
		repo.now = func() time.Time { clock = clock.Add(time.Second); return clock }

		first, err := repo.Upsert(ctx, Product{ID: "owner-1", Name: "One", Pending: true})
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.False(t, first.Pending)

		_, err = repo.Upsert(ctx, Product{ID: "owner-2", Name: "Two"})
		require.NoError(t, err)

		updated, err := repo.Upsert(ctx, Product{ID: "owner-1", Name: "One v2"})
		require.NoError(t, err)
		assert.Equal(t, first.CreatedAt, updated.CreatedAt)
		assert.True(t, updated.UpdatedAt.After(first.UpdatedAt))

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "owner-2", list[0].ID)
		assert.Equal(t, "One v2", list[1].Name)
	})

	t.Run("Missing id", func(t *testing.T) {
		_, err := NewMemoryRepository().Upsert(ctx, Product{})
		assert.ErrorIs(t, err, ErrMissingID)
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewMemoryRepository(Product{ID: "owner-1"})

		found, err := repo.Delete(ctx, "owner-1")
		require.NoError(t, err)
		assert.True(t, found)

		found, err = repo.Delete(ctx, "owner-1")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Subscribe receives events until closed", func(t *testing.T) {
		repo := NewMemoryRepository()
		var got []Event
		sub, err := repo.Subscribe(ctx, func(ev Event) { got = append(got, ev) })
		require.NoError(t, err)

		_, _ = repo.Upsert(ctx, Product{ID: "owner-1"})
		_, _ = repo.Upsert(ctx, Product{ID: "owner-1", Name: "renamed"})
		_, _ = repo.Delete(ctx, "owner-1")
		require.NoError(t, sub.Close())
		_, _ = repo.Upsert(ctx, Product{ID: "owner-2"})

		require.Len(t, got, 3)
		assert.Equal(t, EventInserted, got[0].Type)
		assert.Equal(t, EventUpdated, got[1].Type)
		assert.Equal(t, "renamed", got[1].Record.Name)
		assert.Equal(t, Event{Type: EventDeleted, ID: "owner-1"}, got[2])
	})

	t.Run("Cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewMemoryRepository().List(cctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
