// Package mbox reads forwarded SMS from an mbox mail folder, such as a
// Thunderbird local folder that an SMS-to-email forwarder delivers into.
package mbox

import (
	"cmp"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"slices"
	"strings"

	"github.com/emersion/go-mbox"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

// Config holds configuration for the mbox source.
type Config struct {
	// Path is the mbox file.
	Path string
	// SenderHeader is read for the SMS sender ID. When empty the From display name is used.
	SenderHeader string
}

// Source reads messages from an mbox file.
type Source struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a new mbox source.
func New(cfg Config, logger *slog.Logger) (*Source, error) {
	if cfg.Path == "" {
		return nil, errors.New("path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{cfg: cfg, logger: logger}, nil
}

// RequestPermissions reports whether the mbox file is readable.
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

// ReadMessages returns messages from the mbox, newest first.
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

	msgs, err := Decode(ctx, f, s.cfg.SenderHeader, s.logger)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.cfg.Path, err)
	}

	msgs = api.FilterMessages(msgs, limit, keep)
	return msgs, nil
}

// Decode reads every message of an mbox stream. Messages that are not valid
// RFC 5322 are logged and skipped.
func Decode(ctx context.Context, r io.Reader, senderHeader string, logger *slog.Logger) ([]api.RawMessage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	mr := mbox.NewReader(r)
	var msgs []api.RawMessage
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := mr.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading message %d: %w", i, err)
		}

		msg, err := mail.ReadMessage(raw)
		if err != nil {
			logger.Warn("skipping malformed message", "index", i, "error", err)
			continue
		}

		parsed, err := toRawMessage(msg, senderHeader)
		if err != nil {
			logger.Warn("skipping unreadable message", "index", i, "error", err)
			continue
		}
		msgs = append(msgs, parsed)
	}

	slices.SortStableFunc(msgs, func(a, b api.RawMessage) int {
		return cmp.Compare(b.TimestampMs, a.TimestampMs)
	})
	return msgs, nil
}

func toRawMessage(msg *mail.Message, senderHeader string) (api.RawMessage, error) {
	body, err := textBody(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return api.RawMessage{}, err
	}

	var ts int64
	if date, err := msg.Header.Date(); err == nil {
		ts = date.UnixMilli()
	}

	return api.RawMessage{
		ID:          strings.Trim(msg.Header.Get("Message-Id"), "<> "),
		SenderID:    sender(msg.Header, senderHeader),
		Body:        strings.TrimSpace(body),
		TimestampMs: ts,
	}, nil
}

func sender(h mail.Header, senderHeader string) string {
	if senderHeader != "" {
		if v := strings.TrimSpace(h.Get(senderHeader)); v != "" {
			return v
		}
	}

	from := h.Get("From")
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return strings.TrimSpace(from)
	}
	if addr.Name != "" {
		return addr.Name
	}
	return addr.Address
}

// textBody returns the first text/plain part of a possibly multipart body.
func textBody(contentType, encoding string, r io.Reader) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(r, params["boundary"])
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				return "", nil
			}
			if err != nil {
				return "", fmt.Errorf("reading multipart body: %w", err)
			}
			body, err := textBody(part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"), part)
			if err != nil {
				return "", err
			}
			if body != "" {
				return body, nil
			}
		}
	}

	if mediaType != "text/plain" {
		return "", nil
	}

	decoded, err := io.ReadAll(decoder(encoding, r))
	if err != nil {
		return "", fmt.Errorf("decoding body: %w", err)
	}
	return string(decoded), nil
}

func decoder(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, newlineStripper{r})
	default:
		return r
	}
}

// newlineStripper drops CR and LF so base64 bodies wrapped at 76 columns decode.
type newlineStripper struct{ r io.Reader }

func (n newlineStripper) Read(p []byte) (int, error) {
	for {
		c, err := n.r.Read(p)
		if c == 0 {
			return 0, err
		}
		kept := p[:0]
		for _, b := range p[:c] {
			if b != '\r' && b != '\n' {
				kept = append(kept, b)
			}
		}
		if len(kept) > 0 || err != nil {
			return len(kept), err
		}
	}
}
