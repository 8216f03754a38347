// Package workerpool provides a resizable execution gate for scan
// dispatch: a bounded set of task goroutines whose permitted count can be
// changed mid-flight by the concurrency feedback loop.
package workerpool

import (
	"sync"
)

// Pool admits tasks while fewer than the current limit are running.
// Submit blocks when the gate is full, so a caller pushing a chunk of
// work naturally backs off when the limit is lowered.
type Pool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	limit  int
	active int
	closed bool
	wg     sync.WaitGroup
}

// New creates a pool admitting up to limit concurrent tasks. A limit
// below one is raised to one.
func New(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	p := &Pool{limit: limit}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Submit runs task in its own goroutine once a slot is free, blocking the
// caller until admitted. Returns false if the pool is closed.
func (p *Pool) Submit(task func()) bool {
	p.mu.Lock()
	for p.active >= p.limit && !p.closed {
		p.cond.Wait()
	}
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.active++
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer func() {
			p.mu.Lock()
			p.active--
			p.cond.Broadcast()
			p.mu.Unlock()
			p.wg.Done()
		}()
		task()
	}()
	return true
}

// Resize changes the admission limit. Shrinking does not interrupt
// running tasks; the pool drains down to the new limit as they finish.
func (p *Pool) Resize(limit int) {
	if limit < 1 {
		limit = 1
	}
	p.mu.Lock()
	p.limit = limit
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Limit returns the current admission limit.
func (p *Pool) Limit() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.limit
}

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Wait blocks until every admitted task has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Close rejects further submissions and waits for running tasks.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}

// IsClosed reports whether the pool has been closed.
func (p *Pool) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
