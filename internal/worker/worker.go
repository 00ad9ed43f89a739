package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Task is a function that represents a background job
type Task func(ctx context.Context) error

const (
	queueSize   = 1000
	taskTimeout = 30 * time.Second
)

type WorkerPool struct {
	taskQueue chan Task
	wg        sync.WaitGroup
	// mu guards closed and the send to taskQueue against a concurrent close.
	mu     sync.RWMutex
	closed bool
	log    zerolog.Logger
}

func NewWorkerPool(size int, log zerolog.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	wp := &WorkerPool{
		taskQueue: make(chan Task, queueSize),
		log:       log,
	}

	for range size {
		wp.wg.Add(1)
		go wp.startWorker()
	}

	return wp
}

func (wp *WorkerPool) startWorker() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		if err := task(ctx); err != nil {
			wp.log.Warn().Err(err).Msg("worker task failed")
		}
		cancel()
	}
}

// Submit queues t. It never blocks: tasks are dropped while shutting down or
// when the queue is full, and Submit reports whether t was accepted.
func (wp *WorkerPool) Submit(t Task) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		wp.log.Warn().Msg("task submitted during shutdown, dropping")
		return false
	}
	select {
	case wp.taskQueue <- t:
		return true
	default:
		wp.log.Warn().Msg("task queue full, dropping task")
		return false
	}
}

// Shutdown closes the queue and waits for workers to finish
func (wp *WorkerPool) Shutdown() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.taskQueue)
	wp.mu.Unlock()
	wp.wg.Wait()
}
