package core

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrPoolClosed is returned when submitting to a stopped pool
var ErrPoolClosed = errors.New("dispatch pool is closed")

// DefaultWorkers is the reference worker count
const DefaultWorkers = 4

// DispatchPool runs jobs on a fixed number of workers fed by an unbounded
// FIFO queue. Submit never blocks. Jobs are independent and may complete
// in any order.
type DispatchPool struct {
	workers  int
	logger   *zap.Logger
	recorder Recorder

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	started bool
	closed  bool
	wg      sync.WaitGroup
}

// NewDispatchPool creates a pool; call Start to launch the workers
func NewDispatchPool(workers int, logger *zap.Logger, recorder Recorder) *DispatchPool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	p := &DispatchPool{
		workers:  workers,
		logger:   logger,
		recorder: recorder,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Start launches the workers. Calling it more than once has no effect.
func (p *DispatchPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Debug("Dispatch pool started", zap.Int("workers", p.workers))
}

// Submit queues a job
func (p *DispatchPool) Submit(job func()) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.queue = append(p.queue, job)
	depth := len(p.queue)
	p.mu.Unlock()

	p.recorder.SetQueueDepth(depth)
	p.cond.Signal()
	return nil
}

// Stop refuses new jobs, lets the workers drain the queue and waits for
// them to exit
func (p *DispatchPool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	started := p.started
	p.mu.Unlock()

	p.cond.Broadcast()
	if !started {
		// Nothing will ever drain the queue, run what was submitted inline.
		p.drainInline()
		return
	}
	p.wg.Wait()
	p.logger.Debug("Dispatch pool stopped")
}

// QueueDepth returns the number of jobs waiting for a worker
func (p *DispatchPool) QueueDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *DispatchPool) next() (func(), bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return nil, false
	}

	job := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	p.recorder.SetQueueDepth(len(p.queue))
	return job, true
}

func (p *DispatchPool) worker(id int) {
	defer p.wg.Done()
	for {
		job, ok := p.next()
		if !ok {
			return
		}
		p.run(id, job)
	}
}

func (p *DispatchPool) drainInline() {
	p.mu.Lock()
	jobs := p.queue
	p.queue = nil
	p.mu.Unlock()

	for _, job := range jobs {
		p.run(-1, job)
	}
}

func (p *DispatchPool) run(worker int, job func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Job panicked",
				zap.Int("worker", worker),
				zap.Any("panic", r))
		}
	}()
	job()
}
