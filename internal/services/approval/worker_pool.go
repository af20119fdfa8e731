package approval

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// WorkerPool is an in-process TaskQueue backed by a bounded channel
type WorkerPool struct {
	workers int
	tasks   chan ReviewTaskMessage
	handle  func(ctx context.Context, msg ReviewTaskMessage) error

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewWorkerPool creates a pool of workers running handle. queueSize bounds
// how many tasks may wait.
func NewWorkerPool(workers, queueSize int, handle func(ctx context.Context, msg ReviewTaskMessage) error) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		workers: workers,
		tasks:   make(chan ReviewTaskMessage, queueSize),
		handle:  handle,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers
func (p *WorkerPool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	logrus.Infof("Review worker pool started (workers: %d, queue: %d)", p.workers, cap(p.tasks))
}

func (p *WorkerPool) run(id int) {
	defer p.wg.Done()
	for msg := range p.tasks {
		if err := p.handle(p.ctx, msg); err != nil {
			logrus.WithFields(logrus.Fields{
				"worker":  id,
				"task_id": msg.TaskID,
			}).WithError(err).Error("Review task failed")
		}
	}
}

// Publish enqueues msg without blocking
func (p *WorkerPool) Publish(_ context.Context, msg ReviewTaskMessage) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrQueueClosed
	}

	select {
	case p.tasks <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop drains queued tasks and waits for the workers to exit
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
	logrus.Info("Review worker pool stopped")
}
