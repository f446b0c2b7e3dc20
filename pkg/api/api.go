// Package api defines the core interfaces and data structures for smsexpensor.
package api

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the format of Candidate.TransactionDate.
const DateLayout = time.DateOnly

// ErrUnavailable is returned by sources that cannot access messages on the current platform.
var ErrUnavailable = errors.New("message access is not available on this platform")

// RawMessage is a single SMS (or SMS-like notification) as read from a source.
type RawMessage struct {
	// ID is the source's identifier for the message, if it has one.
	// It is used for acknowledgements and deduplication only.
	ID          string `json:"id,omitempty"`
	SenderID    string `json:"senderId"`
	Body        string `json:"body"`
	TimestampMs int64  `json:"timestampMs"`
}

// Time returns the message timestamp.
func (m RawMessage) Time() time.Time {
	return time.UnixMilli(m.TimestampMs)
}

// Category is an entry of the caller-owned category catalog.
type Category struct {
	ID   string `json:"id" koanf:"id"`
	Name string `json:"name" koanf:"name"`
}

// PaymentMethod is how a transaction was paid.
type PaymentMethod string

// Supported payment methods.
const (
	PaymentCreditCard    PaymentMethod = "Credit Card"
	PaymentDebitCard     PaymentMethod = "Debit Card"
	PaymentDigitalWallet PaymentMethod = "Digital Wallet"
	PaymentBankTransfer  PaymentMethod = "Bank Transfer"
)

// Candidate is an expense parsed from a transaction message, not yet persisted.
type Candidate struct {
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	CategoryID      string          `json:"categoryId"`
	TransactionDate string          `json:"transactionDate"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
}

// Expense is a candidate that has been assigned an identity and an owner for storage.
type Expense struct {
	Candidate

	ID               string `json:"id"`
	OwnerID          string `json:"ownerId"`
	CategoryName     string `json:"categoryName,omitempty"`
	Source           string `json:"source,omitempty"`
	RecurringEnabled bool   `json:"recurringEnabled"`
	// MessageID identifies the source message within the owner's expenses.
	// Writers upsert on it and send it back on the ack channel after a successful write.
	MessageID string `json:"-"`
}

// NewExpense assigns a fresh ID and an owner to a candidate.
// Recurrence is never inferred from a message.
func NewExpense(c Candidate, ownerID string) *Expense {
	return &Expense{
		Candidate: c,
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
	}
}

// Permissions reports which capabilities a source can provide.
type Permissions struct {
	Messages bool `json:"messages"`
}

// Source gives access to raw messages on a platform (device export, mailbox, ...).
type Source interface {
	// RequestPermissions asks the platform for message access.
	RequestPermissions(ctx context.Context) (Permissions, error)
	// ReadMessages returns up to limit messages, newest first when the source knows the order.
	// A limit <= 0 means no limit.
	ReadMessages(ctx context.Context, limit int) ([]RawMessage, error)
}

// Filter reports whether a source should return a message.
type Filter func(RawMessage) bool

// FilteringSource is implemented by sources that apply a Filter before the read
// limit, so that rejected messages do not use up the limit.
type FilteringSource interface {
	ReadMessagesFunc(ctx context.Context, limit int, keep Filter) ([]RawMessage, error)
}

// ReadFiltered returns up to limit messages accepted by keep. Sources that do
// not implement FilteringSource are read without a limit and filtered here.
func ReadFiltered(ctx context.Context, src Source, limit int, keep Filter) ([]RawMessage, error) {
	if fs, ok := src.(FilteringSource); ok {
		return fs.ReadMessagesFunc(ctx, limit, keep)
	}

	msgs, err := src.ReadMessages(ctx, 0)
	if err != nil {
		return nil, err
	}
	return FilterMessages(msgs, limit, keep), nil
}

// FilterMessages keeps the messages accepted by keep, in order, up to limit.
// A nil keep accepts everything and a limit <= 0 means no limit.
func FilterMessages(msgs []RawMessage, limit int, keep Filter) []RawMessage {
	out := make([]RawMessage, 0, len(msgs))
	for _, msg := range msgs {
		if limit > 0 && len(out) >= limit {
			break
		}
		if keep != nil && !keep(msg) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// Acknowledger is implemented by sources that can mark messages as processed.
type Acknowledger interface {
	Ack(ctx context.Context, messageIDs []string) error
}

// Writer consumes expenses from a channel and writes them to a destination.
// Successfully written expense message IDs are sent to the ackChan.
type Writer interface {
	Write(ctx context.Context, in <-chan *Expense, ackChan chan<- string) error
}

// Saver persists a batch of expenses synchronously.
type Saver interface {
	Save(ctx context.Context, expenses []*Expense) error
}

// ParseRequest is the body of the remote parse endpoint.
type ParseRequest struct {
	Messages []RawMessage `json:"messages"`
	// Categories overrides the stored catalog of the caller when set.
	Categories []Category `json:"categories,omitempty"`
}

// ParseResponse is returned by the remote parse endpoint.
type ParseResponse struct {
	Success           bool       `json:"success"`
	ProcessedMessages int        `json:"processedMessages"`
	ParsedExpenses    int        `json:"parsedExpenses"`
	InsertedExpenses  int        `json:"insertedExpenses"`
	Expenses          []*Expense `json:"expenses"`
}
