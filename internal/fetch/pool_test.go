package fetch

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPoolBoundedConcurrency(t *testing.T) {
	const workers = 4
	const tasks = 64
	pool := newWorkerPool(workers)
	defer pool.Stop()

	var running, peak, completed int32
	var wg sync.WaitGroup
	wg.Add(tasks)
	for i := 0; i < tasks; i++ {
		pool.Submit(func() {
			defer wg.Done()
			now := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&running, -1)
			atomic.AddInt32(&completed, 1)
		})
	}
	wg.Wait()
	assert.Equal(t, int32(tasks), atomic.LoadInt32(&completed))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(workers))
}

func TestWorkerPoolResubmitFromTask(t *testing.T) {
	pool := newWorkerPool(1)
	defer pool.Stop()

	done := make(chan struct{})
	pool.Submit(func() {
		pool.Submit(func() { close(done) })
	})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("requeued task never ran")
	}
}
