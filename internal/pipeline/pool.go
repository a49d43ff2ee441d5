package pipeline

import "sync"

const queueDepth = 64

// WorkerPool is a fixed-size pool of goroutines consuming a FIFO task
// queue. It bounds concurrent generation work (composition and closing)
// independently of per-probe fan-out, which never goes through the pool.
//
// Resize follows a drain contract: queued and in-flight tasks run to
// completion before workers restart at the new size. Resize calls are
// serialized; Submit during a resize blocks until the new workers are up.
type WorkerPool struct {
	mu     sync.Mutex
	queue  chan func()
	wg     sync.WaitGroup
	size   int
	closed bool
}

func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	p := &WorkerPool{}
	p.start(size)
	return p
}

// start must be called with mu held (or before the pool is shared).
func (p *WorkerPool) start(n int) {
	p.queue = make(chan func(), queueDepth)
	p.size = n
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.worker(p.queue)
	}
}

func (p *WorkerPool) worker(queue <-chan func()) {
	defer p.wg.Done()
	for fn := range queue {
		fn()
	}
}

// Future is the handle returned by Submit.
type Future[T any] struct {
	done  chan struct{}
	value T
}

// Wait blocks until the task has run and returns its result.
func (f *Future[T]) Wait() T {
	<-f.done
	return f.value
}

// Submit enqueues fn and returns a handle to its eventual result. After
// Close the task runs inline on the caller; tasks are never dropped.
func Submit[T any](p *WorkerPool, fn func() T) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	p.enqueue(func() {
		f.value = fn()
		close(f.done)
	})
	return f
}

func (p *WorkerPool) enqueue(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		fn()
		return
	}
	p.queue <- fn
}

// Resize drains the pool and restarts it with n workers. No-op when the
// size is unchanged or the pool is closed.
func (p *WorkerPool) Resize(n int) {
	if n < 1 {
		n = 1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || n == p.size {
		return
	}
	close(p.queue)
	p.wg.Wait()
	p.start(n)
}

// Close drains the pool and stops all workers.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	close(p.queue)
	p.wg.Wait()
	p.closed = true
}

func (p *WorkerPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}
