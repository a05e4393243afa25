package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/staybook/booking-service/internal/mail"
)

var (
	ErrQueueFull   = errors.New("mail queue is full")
	ErrQueueClosed = errors.New("mail queue is closed")
)

const sendTimeout = 10 * time.Second

// MailQueue delivers messages on a fixed pool of goroutines. Enqueue never
// blocks the caller.
type MailQueue struct {
	mailer mail.Mailer
	logger *zap.Logger
	jobs   chan mail.Message

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewMailQueue starts workers goroutines reading from a buffer of size messages.
func NewMailQueue(mailer mail.Mailer, logger *zap.Logger, workers, size int) *MailQueue {
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = 64
	}
	q := &MailQueue{
		mailer: mailer,
		logger: logger,
		jobs:   make(chan mail.Message, size),
	}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.run()
	}
	return q
}

// Enqueue schedules msg for delivery.
func (q *MailQueue) Enqueue(msg mail.Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting messages and waits for queued ones to be sent,
// or for ctx to end.
func (q *MailQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MailQueue) run() {
	defer q.wg.Done()
	for msg := range q.jobs {
		q.deliver(msg)
	}
}

func (q *MailQueue) deliver(msg mail.Message) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("mail delivery panicked", zap.Any("panic", r), zap.String("subject", msg.Subject))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := q.mailer.Send(ctx, msg); err != nil {
		q.logger.Warn("mail delivery failed", zap.Error(err), zap.String("subject", msg.Subject))
		return
	}
	q.logger.Debug("mail delivered", zap.String("subject", msg.Subject))
}
