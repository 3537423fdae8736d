package bot

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanesKeepPerKeyOrder(t *testing.T) {
	l := newLanes()

	var mu sync.Mutex
	got := map[int64][]int{}
	for i := 0; i < 100; i++ {
		for key := int64(1); key <= 5; key++ {
			l.Submit(key, func() {
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
			})
		}
	}
	l.Wait()

	require.Len(t, got, 5)
	for key, seq := range got {
		require.Len(t, seq, 100, "key %d", key)
		for i, v := range seq {
			assert.Equal(t, i, v, "key %d out of order", key)
		}
	}
	assert.Empty(t, l.pending)
}

func TestLanesRunKeysConcurrently(t *testing.T) {
	l := newLanes()
	release := make(chan struct{})
	started := make(chan int64, 2)

	// key 1 blocks until key 2 has run, which only works if they run in parallel
	l.Submit(1, func() {
		started <- 1
		<-release
	})
	l.Submit(2, func() {
		started <- 2
		close(release)
	})

	done := make(chan struct{})
	go func() {
		l.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("lanes for different keys did not run concurrently")
	}
	assert.Len(t, started, 2)
}

func TestLanesSerializeSameKey(t *testing.T) {
	l := newLanes()

	var mu sync.Mutex
	running, maxRunning := 0, 0
	for i := 0; i < 20; i++ {
		l.Submit(7, func() {
			mu.Lock()
			running++
			if running > maxRunning {
				maxRunning = running
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
		})
	}
	l.Wait()

	assert.Equal(t, 1, maxRunning)
}
