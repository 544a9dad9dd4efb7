package orderjournal

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sbansal6/alpaca-mcp-server/internal/config"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/sirupsen/logrus"
)

const (
	defaultBufferSize   = 256
	defaultWriteTimeout = 5 * time.Second
)

// Sink persists or forwards a journal entry.
type Sink interface {
	Write(ctx context.Context, entry entity.OrderJournal) error
}

// JournalService buffers entries in memory and hands them to the sink from a
// single goroutine, so order dispatch never waits on storage.
type JournalService struct {
	sink         Sink
	entries      chan entity.OrderJournal
	writeTimeout time.Duration
	dropped      atomic.Int64
	done         chan struct{}
}

func NewJournalService(sink Sink, cfg config.OrderJournalConfig) *JournalService {
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	return &JournalService{
		sink:         sink,
		entries:      make(chan entity.OrderJournal, bufferSize),
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
}

// Record enqueues entry and drops it when the buffer is full.
func (s *JournalService) Record(_ context.Context, entry entity.OrderJournal) {
	select {
	case s.entries <- entry:
	default:
		dropped := s.dropped.Add(1)
		logrus.WithFields(logrus.Fields{
			"id":              entry.ID,
			"client_order_id": entry.ClientOrderID,
			"dropped":         dropped,
		}).Warn("order journal buffer full, entry dropped")
	}
}

// Dropped is the number of entries lost to a full buffer.
func (s *JournalService) Dropped() int64 {
	return s.dropped.Load()
}

// Run writes entries until ctx is done, then flushes whatever is buffered.
func (s *JournalService) Run(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			s.flush()
			return
		case entry := <-s.entries:
			s.write(entry)
		}
	}
}

// Shutdown waits for Run to flush. Run must have been started.
func (s *JournalService) Shutdown(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *JournalService) flush() {
	for {
		select {
		case entry := <-s.entries:
			s.write(entry)
		default:
			return
		}
	}
}

func (s *JournalService) write(entry entity.OrderJournal) {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	if err := s.sink.Write(ctx, entry); err != nil {
		logrus.WithFields(logrus.Fields{
			"id":              entry.ID,
			"client_order_id": entry.ClientOrderID,
			"outcome":         entry.Outcome,
		}).WithError(err).Error("failed to write order journal entry")
	}
}
