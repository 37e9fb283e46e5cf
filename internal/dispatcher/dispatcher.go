// Package dispatcher implements an I/O event loop and worker pool, grounded
// on the original C++ core's IOContext (original_source/IOContext.h,
// IOContext.cpp): three single-producer/multi-consumer completion queues
// drained by one event thread, backed by a worker pool for the actual
// blocking work. The worker pool itself is built on golang.org/x/sync/semaphore
// rather than a hand-rolled thread pool.
package dispatcher

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kayros-web/kayros/config"
	"golang.org/x/sync/semaphore"
)

// Completion is a zero-argument callback posted to one of the three
// completion queues; the event thread runs it inline, so it must not block.
type Completion func()

// Dispatcher is the worker pool plus the three completion queues described in
// spec.md §4.5.
type Dispatcher struct {
	cfg config.Dispatcher

	sem *semaphore.Weighted
	wg  sync.WaitGroup

	acceptQ  chan Completion
	parserQ  chan Completion
	sessionQ chan Completion

	stopCh  chan struct{}
	running atomic.Bool
}

// queueDepth is the completion queues' buffer size; posting beyond it blocks
// the poster, which is the natural back-pressure point when the event thread
// falls behind.
const queueDepth = 4096

// New builds a Dispatcher. A zero WorkerPoolSize defaults to
// runtime.NumCPU()*4, mirroring the original core's hardware_concurrency*4.
func New(cfg config.Dispatcher) *Dispatcher {
	poolSize := cfg.WorkerPoolSize
	if poolSize <= 0 {
		poolSize = runtime.NumCPU() * 4
	}

	d := &Dispatcher{
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(poolSize)),
		acceptQ:  make(chan Completion, queueDepth),
		parserQ:  make(chan Completion, queueDepth),
		sessionQ: make(chan Completion, queueDepth),
		stopCh:   make(chan struct{}),
	}
	d.running.Store(true)
	return d
}

// Post enqueues task onto the worker pool. Acquiring a pool slot blocks if
// every worker is busy, which is the pool's only form of back-pressure.
func (d *Dispatcher) Post(task func()) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer d.sem.Release(1)
		task()
	}()
}

// PostAccept enqueues an accept-completion, run inline by the event thread.
func (d *Dispatcher) PostAccept(c Completion) { d.acceptQ <- c }

// PostParser enqueues a parser-completion (bytes transferred + callback).
func (d *Dispatcher) PostParser(c Completion) { d.parserQ <- c }

// PostSession enqueues a session-completion (session stats + callback).
func (d *Dispatcher) PostSession(c Completion) { d.sessionQ <- c }

// Run drains the three completion queues on the calling goroutine until Stop
// is called, executing each dequeued callback inline — the event thread is
// cooperative, so callbacks must return promptly. It blocks until Stop.
func (d *Dispatcher) Run() {
	wait := d.cfg.DrainInterval
	if wait <= 0 {
		wait = 50 * time.Millisecond
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case c := <-d.acceptQ:
			c()
		case c := <-d.parserQ:
			c()
		case c := <-d.sessionQ:
			c()
		case <-timer.C:
			timer.Reset(wait)
		}
	}
}

// Stop flips the run flag, unblocking Run, then waits for every posted
// worker-pool task to finish.
func (d *Dispatcher) Stop() {
	if !d.running.CompareAndSwap(true, false) {
		return
	}
	close(d.stopCh)
	d.wg.Wait()
}
