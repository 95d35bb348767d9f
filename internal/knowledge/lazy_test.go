package knowledge

import (
	"context"
	"fmt"
	"sync"
	"testing"

	chromem "github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/log"
)

func testStoreInit(t *testing.T) func(context.Context) (*Store, error) {
	t.Helper()
	return func(context.Context) (*Store, error) {
		db := chromem.NewDB()
		c, err := db.GetOrCreateCollection("test_qa", nil, stubEmbedding)
		if err != nil {
			return nil, err
		}
		return NewStoreWithCollection(c, log.NewNop())
	}
}

func TestLazy_InitializesOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	lazy := NewLazy(testStoreInit(t))
	assert.Equal(t, 0, lazy.InitCount(), "construction must not initialize")

	first, err := lazy.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := lazy.Get(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, lazy.InitCount())
}

func TestLazy_ConcurrentGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	lazy := NewLazy(testStoreInit(t))

	const goroutines = 16
	stores := make([]*Store, goroutines)

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := lazy.Get(ctx)
			assert.NoError(t, err)
			stores[i] = s
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, lazy.InitCount(), "exactly one goroutine runs the init")
	for _, s := range stores {
		assert.Same(t, stores[0], s)
	}
}

func TestLazy_RetriesAfterFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	attempts := 0
	inner := testStoreInit(t)
	lazy := NewLazy(func(ctx context.Context) (*Store, error) {
		attempts++
		if attempts == 1 {
			return nil, fmt.Errorf("transient startup failure")
		}
		return inner(ctx)
	})

	_, err := lazy.Get(ctx)
	assert.ErrorContains(t, err, "transient startup failure")

	// A failed init is not cached: the next call tries again.
	store, err := lazy.Get(ctx)
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.Equal(t, 2, lazy.InitCount())
}
