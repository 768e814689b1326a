package scanlog

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/requestcontext"
)

// EventSink mirrors appended entries to an external stream (Kafka).
// Offer must never block the request path.
type EventSink interface {
	Offer(entry Entry)
}

// Service enforces read authorization over the audit trail and stamps
// entries on the way in. The store stays a dumb sequence.
type Service struct {
	store  Store
	sink   EventSink
	logger *slog.Logger
}

type Option func(*Service)

// WithSink mirrors appends to an external event sink, fire-and-forget.
func WithSink(sink EventSink) Option {
	return func(s *Service) { s.sink = sink }
}

func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append stamps and persists one entry. Errors propagate to the caller;
// whether to suppress them is the caller's policy, not the log's.
func (s *Service) Append(ctx context.Context, entry Entry) error {
	if entry.ID.IsNil() {
		entry.ID = id.EntryID(uuid.New())
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if err := s.store.Append(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append scan entry")
	}
	if s.sink != nil {
		s.sink.Offer(entry)
	}
	return nil
}

// ListAll returns every entry, newest first. Admin only.
func (s *Service) ListAll(ctx context.Context, requester id.Actor) ([]Entry, error) {
	if !requester.Role.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "not authorized to view these logs")
	}
	entries, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list scan entries")
	}
	return entries, nil
}

// ListForRegistrant returns one registrant's entries, newest first.
// Admins may read anyone's; everyone else only their own.
func (s *Service) ListForRegistrant(ctx context.Context, registrantID id.RegistrantID, requester id.Actor) ([]Entry, error) {
	if !requester.Role.IsAdmin() && requester.ID != registrantID {
		return nil, dErrors.New(dErrors.CodeForbidden, "not authorized to view these logs")
	}
	entries, err := s.store.ListByRegistrant(ctx, registrantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list scan entries")
	}
	return entries, nil
}
