package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Task is one unit of work bound to a customer key.
type Task func(ctx context.Context)

// CustomerQueue serializes work per customer key while letting different
// customers run concurrently. Each key gets its own goroutine and buffered
// channel; the goroutine drains the channel and exits once it runs dry.
type CustomerQueue struct {
	mu      sync.Mutex
	workers map[string]chan Task
	wg      sync.WaitGroup
	closed  bool
	logger  *zap.Logger
}

const workerBuffer = 16

func NewCustomerQueue(logger *zap.Logger) *CustomerQueue {
	return &CustomerQueue{
		workers: make(map[string]chan Task),
		logger:  logger,
	}
}

// Submit enqueues a task for the given key. Tasks for the same key run in
// submission order, one at a time. Returns false after Close or when the
// key's buffer is full.
func (q *CustomerQueue) Submit(ctx context.Context, key string, task Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	ch, exists := q.workers[key]
	if !exists {
		ch = make(chan Task, workerBuffer)
		q.workers[key] = ch
		q.wg.Add(1)
		go q.drain(ctx, key, ch)
	}

	// The send happens under the lock so the worker's final dry check in
	// drain cannot miss a task that was accepted here.
	select {
	case ch <- task:
		return true
	default:
		q.logger.Warn("customer queue full, dropping event", zap.String("key", key))
		return false
	}
}

func (q *CustomerQueue) drain(ctx context.Context, key string, ch chan Task) {
	defer q.wg.Done()
	for {
		select {
		case task := <-ch:
			task(ctx)
		default:
			// Channel is dry. Retire the worker unless a submit raced in
			// while we held no lock.
			q.mu.Lock()
			select {
			case task := <-ch:
				q.mu.Unlock()
				task(ctx)
				continue
			default:
			}
			delete(q.workers, key)
			q.mu.Unlock()
			return
		}
	}
}

// Close stops accepting tasks and waits for in-flight work to finish.
func (q *CustomerQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wg.Wait()
}
