// Package dedupe remembers which messages have already been turned into expenses.
package dedupe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

// Store records processed message keys.
type Store interface {
	// Seen reports whether key has been marked.
	Seen(ctx context.Context, key string) (bool, error)
	// Mark records keys as processed.
	Mark(ctx context.Context, keys ...string) error
}

// Key identifies a message. Source IDs are used when present, otherwise a
// digest of sender, timestamp and body.
func Key(msg api.RawMessage) string {
	if msg.ID != "" {
		return "id:" + msg.ID
	}

	h := sha256.New()
	h.Write([]byte(msg.SenderID))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.FormatInt(msg.TimestampMs, 10)))
	h.Write([]byte{'|'})
	h.Write([]byte(msg.Body))
	return "sig:" + hex.EncodeToString(h.Sum(nil))
}

// Memory is an in-process Store. The zero value is ready to use.
type Memory struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{seen: make(map[string]struct{})}
}

// Seen implements Store.
func (m *Memory) Seen(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.seen[key]
	return ok, nil
}

// Mark implements Store.
func (m *Memory) Mark(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = make(map[string]struct{})
	}
	for _, k := range keys {
		m.seen[k] = struct{}{}
	}
	return nil
}

// Len returns the number of marked keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.seen)
}
