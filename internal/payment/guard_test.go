package payment

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuard_AcquireRelease(t *testing.T) {
	var guard Guard

	assert.True(t, guard.Acquire())
	assert.False(t, guard.Acquire())
	assert.True(t, guard.Held())

	guard.Release()
	assert.False(t, guard.Held())
	assert.True(t, guard.Acquire())
}

func TestGuard_ConcurrentAcquireAdmitsOne(t *testing.T) {
	var guard Guard
	var wg sync.WaitGroup
	var winners atomicCounter

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if guard.Acquire() {
				winners.inc()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), winners.get())
}

type atomicCounter struct {
	mu sync.Mutex
	n  int64
}

func (c *atomicCounter) inc() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *atomicCounter) get() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
