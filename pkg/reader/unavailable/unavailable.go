// Package unavailable provides the message source for platforms without SMS access.
package unavailable

import (
	"context"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

// Source denies every request with api.ErrUnavailable.
type Source struct{}

// New creates an unavailable source.
func New() *Source {
	return &Source{}
}

// RequestPermissions always fails with api.ErrUnavailable.
func (*Source) RequestPermissions(context.Context) (api.Permissions, error) {
	return api.Permissions{}, api.ErrUnavailable
}

// ReadMessages always fails with api.ErrUnavailable.
func (*Source) ReadMessages(context.Context, int) ([]api.RawMessage, error) {
	return nil, api.ErrUnavailable
}
