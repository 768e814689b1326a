// Package resettoken stores single-use password reset tokens. Tokens expire
// on a TTL and are consumed atomically so a link can never be replayed.
package resettoken

import (
	"context"
	"time"

	id "gatepass/pkg/domain"
)

type Store interface {
	// Put records token → registrant with the given TTL.
	Put(ctx context.Context, token string, registrantID id.RegistrantID, ttl time.Duration) error

	// Consume resolves and deletes the token in one step. Returns
	// sentinel.ErrExpired for unknown or expired tokens.
	Consume(ctx context.Context, token string) (id.RegistrantID, error)
}
