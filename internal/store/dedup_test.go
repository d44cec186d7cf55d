package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupStore_CheckAndMark(t *testing.T) {
	d := NewDedupStore()

	assert.False(t, d.Seen("tx1"))
	assert.False(t, d.CheckAndMark("tx1"), "first delivery passes")
	assert.True(t, d.CheckAndMark("tx1"), "redelivery is caught")
	assert.True(t, d.Seen("tx1"))
	assert.Equal(t, 1, d.Len())
}

func TestDedupStore_Clear(t *testing.T) {
	d := NewDedupStore()
	d.MarkSeen("tx1")
	d.MarkSeen("tx2")
	assert.Equal(t, 2, d.Len())

	d.Clear()
	assert.Equal(t, 0, d.Len())
	assert.False(t, d.Seen("tx1"), "cleared hashes may be acted on again")
}

func TestDedupStore_ConcurrentCheckAndMark(t *testing.T) {
	d := NewDedupStore()

	const workers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	passed := 0

	// All workers race on the same hash; exactly one may pass.
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !d.CheckAndMark("contended") {
				mu.Lock()
				passed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, passed)
}

func TestDedupStore_DistinctHashes(t *testing.T) {
	d := NewDedupStore()
	for i := 0; i < 100; i++ {
		assert.False(t, d.CheckAndMark(fmt.Sprintf("tx-%d", i)))
	}
	assert.Equal(t, 100, d.Len())
}
