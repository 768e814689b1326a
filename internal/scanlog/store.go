package scanlog

import (
	"context"

	id "gatepass/pkg/domain"
)

// Store persists scan entries. Append must surface its error to the caller
// (never fail silently); list queries return newest-first.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListAll(ctx context.Context) ([]Entry, error)
	ListByRegistrant(ctx context.Context, registrantID id.RegistrantID) ([]Entry, error)
}
