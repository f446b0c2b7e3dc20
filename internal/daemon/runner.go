// Package daemon runs the source -> parser -> writer pipeline.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ArionMiles/smsexpensor/pkg/api"
	"github.com/ArionMiles/smsexpensor/pkg/catalog"
	"github.com/ArionMiles/smsexpensor/pkg/dedupe"
	"github.com/ArionMiles/smsexpensor/pkg/parser"
)

// ErrNoPermission is returned when the source does not grant message access.
var ErrNoPermission = errors.New("message access was not granted")

const (
	ackBatchSize     = 50
	ackFlushInterval = time.Second
	// pendingTimeout is how long an unacknowledged message blocks re-parsing.
	// Expenses of a failed flush are never acknowledged and are retried after it.
	pendingTimeout = 10 * time.Minute
)

type pendingMessage struct {
	msg   api.RawMessage
	since time.Time
}

// Options configures a Runner.
type Options struct {
	// OwnerID is recorded on every expense.
	OwnerID string
	// SourceName is recorded on every expense.
	SourceName string
	// Interval between polls. Ignored when Once is set.
	Interval time.Duration
	// Lookback drops messages older than now minus Lookback. Zero disables the filter.
	Lookback time.Duration
	// BatchLimit caps how many fresh messages are processed per poll. Zero means no limit.
	BatchLimit int
	// Once runs a single poll and returns after everything is written.
	Once bool
}

// Stats counts what the runner has done so far.
type Stats struct {
	Polls   int
	Read    int
	Skipped int
	// Ignored counts fresh messages that produced no expense.
	Ignored int
	Parsed  int
	Written int
}

// Runner manages the expense tracking daemon lifecycle.
type Runner struct {
	source  api.Source
	writer  api.Writer
	parser  *parser.Parser
	catalog catalog.Provider
	seen    dedupe.Store
	opts    Options
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	pending map[string]pendingMessage
	stats   Stats
}

// New creates a new daemon runner. A nil seen store defaults to an in-memory one.
func New(source api.Source, writer api.Writer, p *parser.Parser, provider catalog.Provider, seen dedupe.Store, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if seen == nil {
		seen = dedupe.NewMemory()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}

	return &Runner{
		source:  source,
		writer:  writer,
		parser:  p,
		catalog: provider,
		seen:    seen,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
		pending: make(map[string]pendingMessage),
	}
}

// Stats returns a snapshot of the runner counters.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Run polls the source until ctx is canceled, or once when Options.Once is set.
func (r *Runner) Run(ctx context.Context) error {
	perms, err := r.source.RequestPermissions(ctx)
	if err != nil {
		return fmt.Errorf("requesting permissions: %w", err)
	}
	if !perms.Messages {
		return ErrNoPermission
	}

	r.logger.Info("starting smsexpensor daemon",
		"source", r.opts.SourceName,
		"owner", r.opts.OwnerID,
		"interval", r.opts.Interval,
		"once", r.opts.Once,
	)

	expenses := make(chan *api.Expense, 100)
	ackChan := make(chan string, 100)

	writerDone := make(chan error, 1)
	go func() {
		writerDone <- r.writer.Write(ctx, expenses, ackChan)
	}()

	ackDone := make(chan struct{})
	go func() {
		defer close(ackDone)
		r.handleAcknowledgments(ctx, ackChan)
	}()

	r.poll(ctx, expenses)
	if !r.opts.Once {
		ticker := time.NewTicker(r.opts.Interval)
	loop:
		for {
			select {
			case <-ctx.Done():
				r.logger.Info("daemon stopping", "reason", ctx.Err())
				break loop
			case <-ticker.C:
				r.poll(ctx, expenses)
			}
		}
		ticker.Stop()
	}
	close(expenses)

	writeErr := <-writerDone
	close(ackChan)
	<-ackDone

	r.closeWriter()

	if writeErr != nil && !errors.Is(writeErr, context.Canceled) {
		return fmt.Errorf("writer: %w", writeErr)
	}

	stats := r.Stats()
	r.logger.Info("daemon stopped",
		"polls", stats.Polls,
		"read", stats.Read,
		"parsed", stats.Parsed,
		"written", stats.Written,
	)
	return nil
}

// poll reads one batch, parses it and queues the expenses for the writer.
// Errors are logged; the next poll retries.
func (r *Runner) poll(ctx context.Context, out chan<- *api.Expense) {
	r.mu.Lock()
	r.stats.Polls++
	r.mu.Unlock()

	categories, err := r.catalog.Categories(ctx, r.opts.OwnerID)
	if err != nil {
		r.logger.Error("failed to load category catalog", "owner", r.opts.OwnerID, "error", err)
		return
	}

	var read, skipped int
	keep := func(msg api.RawMessage) bool {
		read++
		if r.fresh(ctx, msg) {
			return true
		}
		skipped++
		return false
	}

	// Stale and processed messages are rejected before the batch limit applies,
	// so a full window of old messages cannot starve newer ones.
	fresh, err := api.ReadFiltered(ctx, r.source, r.opts.BatchLimit, keep)
	if err != nil {
		r.logger.Error("failed to read messages", "error", err)
		return
	}

	r.mu.Lock()
	r.stats.Read += read
	r.stats.Skipped += skipped
	r.mu.Unlock()

	if len(fresh) == 0 {
		r.logger.Debug("no new messages", "read", read)
		return
	}

	result, err := r.parser.ParseBatch(fresh, categories)
	if err != nil {
		r.logger.Warn("dropping batch", "messages", len(fresh), "error", err)
		r.ignore(ctx, fresh)
		return
	}

	r.logger.Info("parsed messages",
		"read", read,
		"considered", result.Considered,
		"parsed", result.Parsed,
	)

	parsed := make(map[string]bool, len(result.Entries))
	for _, entry := range result.Entries {
		parsed[dedupe.Key(entry.Message)] = true
	}
	var ignored []api.RawMessage
	for _, msg := range fresh {
		if !parsed[dedupe.Key(msg)] {
			ignored = append(ignored, msg)
		}
	}
	r.ignore(ctx, ignored)

	for _, entry := range result.Entries {
		expense := api.NewExpense(entry.Candidate, r.opts.OwnerID)
		expense.CategoryName = parser.CategoryName(categories, entry.Candidate.CategoryID)
		expense.Source = r.opts.SourceName
		expense.MessageID = dedupe.Key(entry.Message)

		r.mu.Lock()
		r.pending[expense.MessageID] = pendingMessage{msg: entry.Message, since: r.now()}
		r.stats.Parsed++
		r.mu.Unlock()

		select {
		case out <- expense:
		case <-ctx.Done():
			return
		}
	}
}

// fresh reports whether msg is inside the lookback window and neither processed nor in flight.
func (r *Runner) fresh(ctx context.Context, msg api.RawMessage) bool {
	if r.opts.Lookback > 0 && msg.TimestampMs > 0 {
		cutoff := r.now().Add(-r.opts.Lookback).UnixMilli()
		if msg.TimestampMs < cutoff {
			return false
		}
	}

	if r.inFlight(msg) {
		return false
	}

	seen, err := r.seen.Seen(ctx, dedupe.Key(msg))
	if err != nil {
		r.logger.Warn("dedupe lookup failed, processing message anyway", "error", err)
	}
	return !seen
}

// inFlight reports whether msg was queued for writing and not yet acknowledged.
func (r *Runner) inFlight(msg api.RawMessage) bool {
	key := dedupe.Key(msg)

	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[key]
	if !ok {
		return false
	}
	if r.now().Sub(p.since) > pendingTimeout {
		r.logger.Warn("message was never acknowledged, retrying", "message_id", key)
		delete(r.pending, key)
		return false
	}
	return true
}

// ignore marks messages that produced no expense as processed, so they are
// not read again.
func (r *Runner) ignore(ctx context.Context, msgs []api.RawMessage) {
	if len(msgs) == 0 {
		return
	}
	r.mu.Lock()
	r.stats.Ignored += len(msgs)
	r.mu.Unlock()

	r.markProcessed(ctx, msgs)
}

// markProcessed records messages in the dedupe store and, when the source
// supports it, acknowledges them at the source.
func (r *Runner) markProcessed(ctx context.Context, msgs []api.RawMessage) {
	keys := make([]string, 0, len(msgs))
	var sourceIDs []string
	for _, msg := range msgs {
		keys = append(keys, dedupe.Key(msg))
		if msg.ID != "" {
			sourceIDs = append(sourceIDs, msg.ID)
		}
	}

	if err := r.seen.Mark(ctx, keys...); err != nil {
		r.logger.Warn("failed to mark messages as processed", "count", len(keys), "error", err)
	}
	if acker, ok := r.source.(api.Acknowledger); ok && len(sourceIDs) > 0 {
		if err := acker.Ack(ctx, sourceIDs); err != nil {
			r.logger.Warn("failed to acknowledge messages at source", "count", len(sourceIDs), "error", err)
		}
	}
}

// handleAcknowledgments marks written messages as processed.
func (r *Runner) handleAcknowledgments(ctx context.Context, ackChan <-chan string) {
	ticker := time.NewTicker(ackFlushInterval)
	defer ticker.Stop()

	var batch []api.RawMessage
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		r.markProcessed(ctx, batch)
		batch = batch[:0]
	}

	for {
		select {
		case id, ok := <-ackChan:
			if !ok {
				// The writer is done; acknowledge what is left even if ctx was canceled.
				final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
				flush(final)
				cancel()
				return
			}

			r.mu.Lock()
			p, found := r.pending[id]
			delete(r.pending, id)
			if found {
				r.stats.Written++
			}
			r.mu.Unlock()

			if !found {
				r.logger.Warn("acknowledgment for unknown message", "message_id", id)
				continue
			}
			batch = append(batch, p.msg)
			if len(batch) >= ackBatchSize {
				flush(ctx)
			}

		case <-ticker.C:
			flush(ctx)
		}
	}
}

func (r *Runner) closeWriter() {
	switch c := r.writer.(type) {
	case io.Closer:
		if err := c.Close(); err != nil {
			r.logger.Warn("failed to close writer", "error", err)
		}
	case interface{ Close() }:
		c.Close()
	}
}
