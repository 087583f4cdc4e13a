package lane

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanes_SameKeyInOrder(t *testing.T) {
	l := New()

	var mu sync.Mutex
	var got []int
	var running int32
	for i := 0; i < 100; i++ {
		i := i
		l.Go("conv", func() {
			assert.Equal(t, int32(1), atomic.AddInt32(&running, 1), "overlapping work for one key")
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			atomic.AddInt32(&running, -1)
		})
	}
	l.Wait()

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 0, l.Active())
}

func TestLanes_KeysRunInParallel(t *testing.T) {
	l := New()
	release := make(chan struct{})
	started := make(chan string, 2)

	for _, key := range []string{"a", "b"} {
		key := key
		l.Go(key, func() {
			started <- key
			<-release
		})
	}

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case k := <-started:
			seen[k] = true
		case <-time.After(time.Second):
			t.Fatal("keys did not run concurrently")
		}
	}
	assert.Len(t, seen, 2)
	close(release)
	l.Wait()
}

func TestLanes_Do(t *testing.T) {
	l := New()
	var n int
	for i := 0; i < 10; i++ {
		err := l.Do(context.Background(), "k", func(ctx context.Context) { n++ })
		require.NoError(t, err)
	}
	assert.Equal(t, 10, n)
}

func TestLanes_DoCancelledWhileQueued(t *testing.T) {
	l := New()
	block := make(chan struct{})
	l.Go("k", func() { <-block })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ran := false
	err := l.Do(ctx, "k", func(ctx context.Context) { ran = true })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(block)
	l.Wait()
	assert.False(t, ran)
}

func TestLanes_ManyKeys(t *testing.T) {
	l := New()
	var mu sync.Mutex
	perKey := map[string][]int{}

	for i := 0; i < 20; i++ {
		for k := 0; k < 5; k++ {
			key := fmt.Sprintf("k%d", k)
			i := i
			l.Go(key, func() {
				mu.Lock()
				perKey[key] = append(perKey[key], i)
				mu.Unlock()
			})
		}
	}
	l.Wait()

	for k, seq := range perKey {
		require.Len(t, seq, 20, k)
		for i, v := range seq {
			assert.Equal(t, i, v, k)
		}
	}
}
