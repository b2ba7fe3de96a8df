// Package session resolves who is acting on a request and decides what that
// identity may reach: role views, booking visibility and status changes.
package session

import (
	"context"

	"github.com/iliyamo/service-booking/internal/model"
)

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity attached to ctx.  The second result is
// false for anonymous requests.
func FromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(model.Identity)
	return id, ok
}
