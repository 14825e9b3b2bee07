package fetch

import "sync"

// workerPool runs tasks on a fixed number of long-lived goroutines.
// Submit never blocks: queued tasks wait in a FIFO until a worker frees
// up, which lets the aggregation loop requeue failed chunks while every
// worker is busy.
type workerPool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
}

func newWorkerPool(workers int) *workerPool {
	p := &workerPool{}
	p.cond = sync.NewCond(&p.mu)
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

func (p *workerPool) run() {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()
		task()
	}
}

func (p *workerPool) Submit(task func()) {
	p.mu.Lock()
	if !p.closed {
		p.queue = append(p.queue, task)
	}
	p.mu.Unlock()
	p.cond.Signal()
}

// Stop drains nothing: queued tasks are dropped and running tasks exit on
// their own once the download's done channel closes.
func (p *workerPool) Stop() {
	p.mu.Lock()
	p.closed = true
	p.queue = nil
	p.mu.Unlock()
	p.cond.Broadcast()
}
