// Package parser extracts expense candidates from bank and wallet transaction SMS.
//
// Every step is a pure function of its input: a Parser holds only read-only
// tables and can be shared between goroutines.
package parser

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

// ErrInvalidBatch is returned when a non-empty batch contains no usable message at all.
var ErrInvalidBatch = errors.New("invalid batch: every message is missing a body or timestamp")

// Options configures a Parser.
type Options struct {
	// Policy combines the sender and keyword heuristics. Defaults to PolicyAny.
	Policy Policy
	// Rules replaces the default category rules when non-nil.
	Rules []CategoryRule
	// DefaultCategory is the catalog name used when no rule matches. Defaults to "Misc".
	DefaultCategory string
	// Location is used to truncate message timestamps to a date. Defaults to UTC.
	Location *time.Location
	// Workers > 1 parses batches in parallel. Output order is unaffected.
	Workers int
}

// Parser turns raw messages into expense candidates.
type Parser struct {
	classifier  *Classifier
	categorizer *Categorizer
	location    *time.Location
	workers     int
}

// New creates a Parser.
func New(opts Options) *Parser {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	return &Parser{
		classifier:  NewClassifier(opts.Policy),
		categorizer: NewCategorizer(opts.Rules, opts.DefaultCategory),
		location:    loc,
		workers:     opts.Workers,
	}
}

// Entry pairs a parsed candidate with the message it came from.
type Entry struct {
	Message   api.RawMessage
	Candidate api.Candidate
}

// Result is the outcome of parsing a batch.
type Result struct {
	// Entries are in input order.
	Entries []Entry
	// Considered is the number of input messages.
	Considered int
	// Parsed is the number of candidates produced.
	Parsed int
}

// Candidates returns the parsed candidates in input order.
func (r Result) Candidates() []api.Candidate {
	out := make([]api.Candidate, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, e.Candidate)
	}
	return out
}

// Parse extracts a candidate from a single message.
// It returns false when the message is not transaction-like or has no positive amount.
func (p *Parser) Parse(msg api.RawMessage, catalog []api.Category) (api.Candidate, bool) {
	if !p.classifier.IsTransaction(msg.SenderID, msg.Body) {
		return api.Candidate{}, false
	}

	amount, ok := ExtractAmount(msg.Body)
	if !ok {
		return api.Candidate{}, false
	}

	description := ExtractDescription(msg.Body)

	return api.Candidate{
		Amount:          amount,
		Description:     description,
		CategoryID:      p.categorizer.Categorize(msg.Body+" "+description, catalog),
		TransactionDate: p.Date(msg.TimestampMs),
		PaymentMethod:   InferPaymentMethod(msg.Body),
	}, true
}

// Date truncates an epoch-millisecond timestamp to a calendar date in the parser's location.
func (p *Parser) Date(timestampMs int64) string {
	return time.UnixMilli(timestampMs).In(p.location).Format(api.DateLayout)
}

// ParseBatch parses every message against the catalog. Messages that are not
// transactions or have no amount are dropped silently; only the counts report them.
//
// A message is unusable when its body is blank or its TimestampMs is not
// positive: 0 means the timestamp is missing, not the Unix epoch. Unusable
// messages are dropped, and ErrInvalidBatch is returned only when every
// message of a non-empty batch is unusable.
func (p *Parser) ParseBatch(msgs []api.RawMessage, catalog []api.Category) (Result, error) {
	if err := validateBatch(msgs); err != nil {
		return Result{}, err
	}

	parsed := make([]*api.Candidate, len(msgs))
	if p.workers > 1 && len(msgs) > 1 {
		p.parseParallel(msgs, catalog, parsed)
	} else {
		for i, msg := range msgs {
			parsed[i] = p.parseOne(msg, catalog)
		}
	}

	result := Result{Considered: len(msgs)}
	for i, c := range parsed {
		if c == nil {
			continue
		}
		result.Entries = append(result.Entries, Entry{Message: msgs[i], Candidate: *c})
	}
	result.Parsed = len(result.Entries)

	return result, nil
}

func (p *Parser) parseOne(msg api.RawMessage, catalog []api.Category) *api.Candidate {
	if !usable(msg) {
		return nil
	}
	c, ok := p.Parse(msg, catalog)
	if !ok {
		return nil
	}
	return &c
}

func (p *Parser) parseParallel(msgs []api.RawMessage, catalog []api.Category, out []*api.Candidate) {
	indexes := make(chan int)

	var wg sync.WaitGroup
	for range min(p.workers, len(msgs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				out[i] = p.parseOne(msgs[i], catalog)
			}
		}()
	}

	for i := range msgs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
}

func usable(msg api.RawMessage) bool {
	return strings.TrimSpace(msg.Body) != "" && msg.TimestampMs > 0
}

func validateBatch(msgs []api.RawMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	for _, msg := range msgs {
		if usable(msg) {
			return nil
		}
	}
	return ErrInvalidBatch
}
