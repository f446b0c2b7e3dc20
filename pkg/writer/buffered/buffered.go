// Package buffered batches expenses from a channel and hands them to a flush function.
package buffered

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

// DefaultBatchSize is the default number of expenses to buffer before flushing.
const DefaultBatchSize = 10

// DefaultFlushInterval is the default interval between automatic flushes.
const DefaultFlushInterval = 30 * time.Second

// Flusher persists one batch. It must be all-or-nothing: expenses of a batch
// are acknowledged only when it returns nil.
type Flusher func(ctx context.Context, expenses []*api.Expense) error

// Config holds configuration for buffered writing.
type Config struct {
	// BatchSize defaults to DefaultBatchSize.
	BatchSize int
	// FlushInterval defaults to DefaultFlushInterval.
	FlushInterval time.Duration
}

// Writer buffers expenses and flushes them in batches.
type Writer struct {
	mu      sync.Mutex
	buffer  []*api.Expense
	flusher Flusher
	config  Config
	logger  *slog.Logger
}

// New creates a new buffered writer with the given flusher function.
func New(flusher Flusher, cfg Config, logger *slog.Logger) *Writer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Writer{
		buffer:  make([]*api.Expense, 0, cfg.BatchSize),
		flusher: flusher,
		config:  cfg,
		logger:  logger,
	}
}

// Write consumes expenses until the channel closes or ctx is canceled.
// Message IDs of flushed expenses are sent to ackChan when it is non-nil.
// A failed flush is logged and its expenses are dropped without acknowledgement,
// except when the channel closes, where the error is returned.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Expense, ackChan chan<- string) error {
	ticker := time.NewTicker(w.config.FlushInterval)
	defer ticker.Stop()

	w.logger.Info("buffered writer started",
		"batch_size", w.config.BatchSize,
		"flush_interval", w.config.FlushInterval,
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("buffered writer stopping, flushing remaining buffer")
			// The batch is still persisted, but acknowledgements are not delivered after cancellation.
			if _, err := w.flush(context.WithoutCancel(ctx)); err != nil {
				w.logger.Error("failed to flush on shutdown", "error", err)
			}
			return ctx.Err()

		case <-ticker.C:
			if err := w.flushAndAck(ctx, ackChan); err != nil {
				w.logger.Error("failed to flush on interval", "error", err)
			}

		case expense, ok := <-in:
			if !ok {
				w.logger.Info("input channel closed, flushing remaining buffer")
				return w.flushAndAck(ctx, ackChan)
			}

			w.mu.Lock()
			w.buffer = append(w.buffer, expense)
			full := len(w.buffer) >= w.config.BatchSize
			w.mu.Unlock()

			if full {
				if err := w.flushAndAck(ctx, ackChan); err != nil {
					w.logger.Error("failed to flush on batch size", "error", err)
				}
			}
		}
	}
}

func (w *Writer) flushAndAck(ctx context.Context, ackChan chan<- string) error {
	flushed, err := w.flush(ctx)
	if err != nil {
		return err
	}
	if ackChan == nil {
		return nil
	}

	for _, e := range flushed {
		if e.MessageID == "" {
			continue
		}
		select {
		case ackChan <- e.MessageID:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// flush writes all buffered expenses and returns them.
func (w *Writer) flush(ctx context.Context) ([]*api.Expense, error) {
	w.mu.Lock()
	if len(w.buffer) == 0 {
		w.mu.Unlock()
		return nil, nil
	}

	toFlush := make([]*api.Expense, len(w.buffer))
	copy(toFlush, w.buffer)
	w.buffer = w.buffer[:0]
	w.mu.Unlock()

	w.logger.Debug("flushing buffer", "count", len(toFlush))

	if err := w.flusher(ctx, toFlush); err != nil {
		return nil, err
	}

	w.logger.Info("flushed expenses", "count", len(toFlush))
	return toFlush, nil
}

// BufferLen returns the current number of buffered expenses.
func (w *Writer) BufferLen() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buffer)
}
