package checkpoint

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreUnseenThread(t *testing.T) {
	store := NewMemoryStore()

	cont, err := store.Load(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Nil(t, cont)
}

func TestMemoryStoreRoundtrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	saved := &Continuation{
		State:     StateClassified,
		Query:     "品質改善の方法は",
		Route:     "manufacturing",
		Reason:    "keyword-match:manufacturing:2",
		Turn:      3,
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Save(ctx, "thread-1", saved))

	loaded, err := store.Load(ctx, "thread-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, *saved, *loaded)

	// Mutating the loaded copy must not affect the stored state.
	loaded.Turn = 99
	again, err := store.Load(ctx, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, 3, again.Turn)
}

func TestMemoryStoreSaveReplaces(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "t", &Continuation{State: StateClassified, Turn: 0}))
	require.NoError(t, store.Save(ctx, "t", &Continuation{State: StateFinalized, Turn: 1}))

	loaded, err := store.Load(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, StateFinalized, loaded.State)
	assert.Equal(t, 1, loaded.Turn)
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "t", &Continuation{State: StateFinalized}))
	require.NoError(t, store.Clear(ctx, "t"))

	loaded, err := store.Load(ctx, "t")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Clearing an unseen id is fine.
	require.NoError(t, store.Clear(ctx, "missing"))
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("thread-%d", n%4)
			_ = store.Save(ctx, id, &Continuation{State: StateClassified, Turn: n})
			_, _ = store.Load(ctx, id)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		loaded, err := store.Load(ctx, fmt.Sprintf("thread-%d", i))
		require.NoError(t, err)
		assert.NotNil(t, loaded)
	}
}
