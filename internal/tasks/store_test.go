package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-ideas-backend/internal/db"
	"todo-ideas-backend/internal/testutil"
)

func strPtr(s string) *string { return &s }

func TestStoreCreateAndGet(t *testing.T) {
	store := NewStore(testutil.Postgres(t))
	ctx := context.Background()

	due := NewDate(2025, time.June, 30)
	before := time.Now().Add(-time.Minute)
	created, err := store.Create(ctx, 1700000000123, Fields{Text: "write report", TaskOwner: strPtr("ana"), DueDate: &due})
	require.NoError(t, err)

	got, err := store.Get(ctx, 1700000000123)
	require.NoError(t, err)
	assert.Equal(t, "write report", got.Text)
	assert.False(t, got.Completed)
	require.NotNil(t, got.TaskOwner)
	assert.Equal(t, "ana", *got.TaskOwner)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2025-06-30", got.DueDate.String())
	assert.True(t, got.CreatedAt.After(before))
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestStoreDuplicateID(t *testing.T) {
	store := NewStore(testutil.Postgres(t))
	ctx := context.Background()

	_, err := store.Create(ctx, 1, Fields{Text: "a"})
	require.NoError(t, err)
	_, err = store.Create(ctx, 1, Fields{Text: "b"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))
}

func TestStoreReplaceAndDelete(t *testing.T) {
	store := NewStore(testutil.Postgres(t))
	ctx := context.Background()

	_, err := store.Replace(ctx, 9, Fields{Text: "x"})
	require.ErrorIs(t, err, db.ErrNotFound)

	_, err = store.Create(ctx, 9, Fields{Text: "x", TaskOwner: strPtr("lee")})
	require.NoError(t, err)

	updated, err := store.Replace(ctx, 9, Fields{Text: "y", Completed: true})
	require.NoError(t, err)
	assert.Equal(t, "y", updated.Text)
	assert.True(t, updated.Completed)
	assert.Nil(t, updated.TaskOwner)

	id, err := store.Delete(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)

	_, err = store.Get(ctx, 9)
	require.ErrorIs(t, err, db.ErrNotFound)
	_, err = store.Delete(ctx, 9)
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestStoreDeleteCompletedAndOrdering(t *testing.T) {
	store := NewStore(testutil.Postgres(t))
	ctx := context.Background()

	n, err := store.DeleteCompleted(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	for i := int64(1); i <= 5; i++ {
		_, err := store.Create(ctx, i, Fields{Text: "t", Completed: i%2 == 0})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	n, err = store.DeleteCompleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	list, err := store.List(ctx)
	require.NoError(t, err)
	ids := make([]int64, 0, len(list))
	for _, task := range list {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []int64{5, 3, 1}, ids)
}
