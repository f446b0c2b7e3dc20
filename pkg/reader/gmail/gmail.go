// Package gmail implements a message source backed by a Gmail mailbox that
// receives forwarded SMS (for example through an SMS-to-email forwarding app).
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

// DefaultQuery selects unread forwarded SMS.
const DefaultQuery = "is:unread label:sms"

// Source reads SMS forwarded to a Gmail mailbox.
type Source struct {
	client *gmail.Service
	query  string
	// senderHeader names the header holding the original SMS sender.
	senderHeader string
	logger       *slog.Logger
}

// Config holds configuration for the Gmail source.
type Config struct {
	// Query is the Gmail search query selecting forwarded SMS. Defaults to DefaultQuery.
	Query string
	// SenderHeader is read for the SMS sender ID. When empty the From display name is used.
	SenderHeader string
}

// New creates a new Gmail source.
func New(httpClient *http.Client, cfg Config, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := gmail.NewService(context.Background(), option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}

	query := cfg.Query
	if query == "" {
		query = DefaultQuery
	}

	return &Source{
		client:       client,
		query:        query,
		senderHeader: cfg.SenderHeader,
		logger:       logger,
	}, nil
}

// RequestPermissions checks that the mailbox is reachable with the granted scopes.
func (s *Source) RequestPermissions(ctx context.Context) (api.Permissions, error) {
	if _, err := s.client.Users.GetProfile("me").Context(ctx).Do(); err != nil {
		return api.Permissions{}, fmt.Errorf("getting gmail profile: %w", err)
	}
	return api.Permissions{Messages: true}, nil
}

// pageSize is the number of message references requested per list call.
const pageSize = 100

// ReadMessages lists messages matching the query, newest first, and fetches each one.
// Messages that cannot be fetched are logged and skipped.
func (s *Source) ReadMessages(ctx context.Context, limit int) ([]api.RawMessage, error) {
	return s.ReadMessagesFunc(ctx, limit, nil)
}

// ReadMessagesFunc pages through the query until limit messages accepted by keep
// are collected or the query is exhausted.
func (s *Source) ReadMessagesFunc(ctx context.Context, limit int, keep api.Filter) ([]api.RawMessage, error) {
	size := int64(pageSize)
	if limit > 0 && limit < pageSize {
		size = int64(limit)
	}

	var msgs []api.RawMessage
	pageToken := ""
	for {
		call := s.client.Users.Messages.List("me").Q(s.query).MaxResults(size).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("listing messages: %w", err)
		}
		s.logger.Debug("listed messages", "count", len(resp.Messages), "query", s.query)

		for _, ref := range resp.Messages {
			msg, err := s.client.Users.Messages.Get("me", ref.Id).Context(ctx).Do()
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				s.logger.Error("failed to get message", "message_id", ref.Id, "error", err)
				continue
			}

			raw := toRawMessage(msg, s.senderHeader)
			if raw.Body == "" {
				s.logger.Warn("empty message body", "message_id", ref.Id)
				continue
			}
			if keep != nil && !keep(raw) {
				continue
			}
			msgs = append(msgs, raw)
			if limit > 0 && len(msgs) >= limit {
				return msgs, nil
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	s.logger.Info("found messages", "count", len(msgs), "query", s.query)
	return msgs, nil
}

// Ack marks processed messages as read so the default query skips them.
func (s *Source) Ack(ctx context.Context, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}

	err := s.client.Users.Messages.BatchModify("me", &gmail.BatchModifyMessagesRequest{
		Ids:            messageIDs,
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("marking %d messages as read: %w", len(messageIDs), err)
	}

	s.logger.Debug("marked messages as read", "count", len(messageIDs))
	return nil
}

func toRawMessage(msg *gmail.Message, senderHeader string) api.RawMessage {
	raw := api.RawMessage{
		ID:          msg.Id,
		TimestampMs: msg.InternalDate,
	}
	if msg.Payload == nil {
		return raw
	}

	raw.SenderID = senderOf(msg.Payload.Headers, senderHeader)
	raw.Body = strings.TrimSpace(extractBody(msg.Payload))
	return raw
}

func senderOf(headers []*gmail.MessagePartHeader, senderHeader string) string {
	var from string
	for _, h := range headers {
		if senderHeader != "" && strings.EqualFold(h.Name, senderHeader) {
			return strings.TrimSpace(h.Value)
		}
		if strings.EqualFold(h.Name, "From") {
			from = h.Value
		}
	}

	addr, err := mail.ParseAddress(from)
	if err != nil {
		return strings.TrimSpace(from)
	}
	if addr.Name != "" {
		return addr.Name
	}
	return addr.Address
}

// extractBody prefers text/plain and falls back to the top-level body.
func extractBody(part *gmail.MessagePart) string {
	if body := findPart(part, "text/plain"); body != "" {
		return body
	}
	if part.Body != nil && part.Body.Data != "" {
		return decode(part.Body.Data)
	}
	return ""
}

func findPart(part *gmail.MessagePart, mimeType string) string {
	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		return decode(part.Body.Data)
	}
	for _, child := range part.Parts {
		if body := findPart(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}

func decode(data string) string {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// Gmail sometimes omits padding.
		b, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(b)
}
