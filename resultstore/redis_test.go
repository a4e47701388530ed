package resultstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisStore creates a test Redis store with miniredis
func setupRedisStore(t *testing.T, opts ...RedisOption) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client, opts...)
	return store, mr
}

func TestRedisStore_LoadNotFound(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_LoadInvalidID(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	result := NewResult("run-1", scoredConversation("weather-easy-1"))

	err := store.Save(ctx, result)
	require.NoError(t, err)

	loaded, err := store.Load(ctx, "run-1/weather-easy-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1/weather-easy-1", loaded.ID)
	assert.Equal(t, "run-1", loaded.RunID)
	require.NotNil(t, loaded.Conversation)
	assert.Equal(t, "weather-easy-1", loaded.Conversation.Name)
	require.NotNil(t, loaded.Conversation.Metrics)
	assert.True(t, loaded.Conversation.Metrics.Success)
}

func TestRedisStore_SaveInvalidResult(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	err := store.Save(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidResult)
}

func TestRedisStore_SaveInvalidID(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	err := store.Save(ctx, &Result{ID: ""})
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestRedisStore_Delete(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	result := NewResult("run-1", scoredConversation("weather-easy-1"))
	require.NoError(t, store.Save(ctx, result))

	err := store.Delete(ctx, result.ID)
	require.NoError(t, err)

	_, err = store.Load(ctx, result.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	ids, err := store.List(ctx, ListOptions{RunID: "run-1"})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_DeleteNotFound(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	err := store.Delete(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ListByRun(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		conv := scoredConversation(fmt.Sprintf("calendar-%d", i))
		require.NoError(t, store.Save(ctx, NewResult("run-a", conv)))
	}
	require.NoError(t, store.Save(ctx, NewResult("run-b", scoredConversation("email-0"))))

	ids, err := store.List(ctx, ListOptions{RunID: "run-a"})
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	ids, err = store.List(ctx, ListOptions{RunID: "run-b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"run-b/email-0"}, ids)
}

func TestRedisStore_ListAll(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		conv := scoredConversation(fmt.Sprintf("reminder-%d", i))
		require.NoError(t, store.Save(ctx, NewResult(fmt.Sprintf("run-%d", i), conv)))
	}

	ids, err := store.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}

func TestRedisStore_ListPagination(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		conv := scoredConversation(fmt.Sprintf("alarm-%d", i))
		require.NoError(t, store.Save(ctx, NewResult("run-a", conv)))
	}

	ids, err := store.List(ctx, ListOptions{RunID: "run-a", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	ids, err = store.List(ctx, ListOptions{RunID: "run-a", Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	ids, err = store.List(ctx, ListOptions{RunID: "run-a", Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_ListSorted(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		conv := scoredConversation(fmt.Sprintf("message-%d", i))
		require.NoError(t, store.Save(ctx, NewResult("run-a", conv)))
		// Redis set membership is unordered, so sorting relies on the
		// stored timestamps. Space them out so ordering is unambiguous.
		time.Sleep(5 * time.Millisecond)
	}

	ids, err := store.List(ctx, ListOptions{
		RunID:     "run-a",
		SortBy:    SortByUpdatedAt,
		SortOrder: "asc",
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, "run-a/message-0", ids[0])

	ids, err = store.List(ctx, ListOptions{
		RunID:     "run-a",
		SortBy:    SortByUpdatedAt,
		SortOrder: "desc",
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, "run-a/message-2", ids[0])
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	store, mr := setupRedisStore(t, WithTTL(time.Minute))
	ctx := context.Background()

	result := NewResult("run-1", scoredConversation("weather-easy-1"))
	require.NoError(t, store.Save(ctx, result))

	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, result.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_WithPrefix(t *testing.T) {
	store, mr := setupRedisStore(t, WithPrefix("myeval"))
	ctx := context.Background()

	result := NewResult("run-1", scoredConversation("weather-easy-1"))
	require.NoError(t, store.Save(ctx, result))

	assert.True(t, mr.Exists("myeval:result:run-1/weather-easy-1"))
}
