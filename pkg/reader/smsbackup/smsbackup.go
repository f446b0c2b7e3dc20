// Package smsbackup reads SMS from an "SMS Backup & Restore" XML export of a device inbox.
package smsbackup

import (
	"cmp"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

// Message types used by the export format.
const (
	TypeInbox = 1
	TypeSent  = 2
)

// sms is a single <sms> element of the export.
type sms struct {
	Address string `xml:"address,attr"`
	Body    string `xml:"body,attr"`
	Date    string `xml:"date,attr"`
	Type    int    `xml:"type,attr"`
}

// backup is the root <smses> element of the export.
type backup struct {
	XMLName xml.Name `xml:"smses"`
	SMS     []sms    `xml:"sms"`
}

// Config holds configuration for the export source.
type Config struct {
	// Path is the XML export file. It is re-read on every ReadMessages call.
	Path string
	// IncludeSent also returns messages sent from the device.
	IncludeSent bool
}

// Source reads messages from an export file.
type Source struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a new export source.
func New(cfg Config, logger *slog.Logger) (*Source, error) {
	if cfg.Path == "" {
		return nil, errors.New("path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{cfg: cfg, logger: logger}, nil
}

// RequestPermissions reports whether the export file is readable.
// A missing file is reported as no access rather than an error.
func (s *Source) RequestPermissions(_ context.Context) (api.Permissions, error) {
	f, err := os.Open(s.cfg.Path)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return api.Permissions{Messages: false}, nil
	}
	if err != nil {
		return api.Permissions{}, fmt.Errorf("opening %s: %w", s.cfg.Path, err)
	}
	f.Close()
	return api.Permissions{Messages: true}, nil
}

// ReadMessages returns inbox messages from the export, newest first.
func (s *Source) ReadMessages(ctx context.Context, limit int) ([]api.RawMessage, error) {
	return s.ReadMessagesFunc(ctx, limit, nil)
}

// ReadMessagesFunc is ReadMessages with messages rejected by keep skipped before the limit applies.
func (s *Source) ReadMessagesFunc(ctx context.Context, limit int, keep api.Filter) ([]api.RawMessage, error) {
	f, err := os.Open(s.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.cfg.Path, err)
	}
	defer f.Close()

	msgs, err := Decode(f, s.cfg.IncludeSent)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.cfg.Path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msgs = api.FilterMessages(msgs, limit, keep)

	s.logger.Debug("read export", "path", s.cfg.Path, "messages", len(msgs))
	return msgs, nil
}

// Decode parses an export document and returns its messages newest first.
// Elements with an unparseable date keep a zero timestamp so that batch validation sees them.
func Decode(r io.Reader, includeSent bool) ([]api.RawMessage, error) {
	var doc backup
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding XML: %w", err)
	}

	msgs := make([]api.RawMessage, 0, len(doc.SMS))
	for _, m := range doc.SMS {
		if m.Type == TypeSent && !includeSent {
			continue
		}
		ts, _ := strconv.ParseInt(strings.TrimSpace(m.Date), 10, 64)
		msgs = append(msgs, api.RawMessage{
			SenderID:    m.Address,
			Body:        m.Body,
			TimestampMs: ts,
		})
	}

	slices.SortStableFunc(msgs, func(a, b api.RawMessage) int {
		return cmp.Compare(b.TimestampMs, a.TimestampMs)
	})
	return msgs, nil
}
