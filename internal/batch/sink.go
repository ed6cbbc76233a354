package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rniirs/news-harvester/internal/domain"
)

// DefaultSize is used when New receives a non-positive size.
const DefaultSize = 10

// SendFunc delivers one batch downstream.
type SendFunc func(ctx context.Context, records []domain.NewsRecord) error

// Sink buffers records and hands them to a SendFunc in fixed-size batches.
// A batch whose send fails is parked in Failed and never retried.
type Sink struct {
	mu     sync.Mutex
	size   int
	send   SendFunc
	buf    []domain.NewsRecord
	sent   []domain.NewsRecord
	failed []domain.NewsRecord
}

func New(size int, send SendFunc) *Sink {
	if size <= 0 {
		size = DefaultSize
	}
	if send == nil {
		send = func(context.Context, []domain.NewsRecord) error { return nil }
	}
	return &Sink{size: size, send: send}
}

// Add buffers records and flushes every full batch.
func (s *Sink) Add(ctx context.Context, records ...domain.NewsRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = append(s.buf, records...)
	var errs []error
	for len(s.buf) >= s.size {
		if err := s.flush(ctx, s.size); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FlushAll drains the buffer, sending a final partial batch when needed.
func (s *Sink) FlushAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for len(s.buf) > 0 {
		if err := s.flush(ctx, min(s.size, len(s.buf))); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Sink) flush(ctx context.Context, n int) error {
	chunk := make([]domain.NewsRecord, n)
	copy(chunk, s.buf[:n])
	s.buf = s.buf[n:]

	if err := s.send(ctx, chunk); err != nil {
		s.failed = append(s.failed, chunk...)
		return fmt.Errorf("send batch of %d records: %w", n, err)
	}
	s.sent = append(s.sent, chunk...)
	return nil
}

// Sent returns the records delivered so far.
func (s *Sink) Sent() []domain.NewsRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.NewsRecord(nil), s.sent...)
}

// Failed returns the records whose batch could not be delivered.
func (s *Sink) Failed() []domain.NewsRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.NewsRecord(nil), s.failed...)
}

// Pending reports how many records are buffered.
func (s *Sink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}
