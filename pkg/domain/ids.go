// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "gatepass/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a RegistrantID where an
// EntryID is expected.
type (
	RegistrantID uuid.UUID
	EntryID      uuid.UUID
)

// RegistrationNumber is the human-readable registration identifier printed on
// badges and confirmation mails (e.g. "reg17564312340123456789"). It is opaque:
// no ordering is implied by its numeric parts.
type RegistrationNumber string

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseRegistrantID(s string) (RegistrantID, error) {
	id, err := parseUUID(s, "registrant ID")
	return RegistrantID(id), err
}

func ParseEntryID(s string) (EntryID, error) {
	id, err := parseUUID(s, "entry ID")
	return EntryID(id), err
}

// String methods - for logging and debugging.

func (id RegistrantID) String() string { return uuid.UUID(id).String() }
func (id EntryID) String() string      { return uuid.UUID(id).String() }

func (n RegistrationNumber) String() string { return string(n) }

// Text marshaling - IDs travel as canonical UUID strings in JSON bodies.

func (id RegistrantID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id EntryID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }

func (id *RegistrantID) UnmarshalText(b []byte) error {
	parsed, err := ParseRegistrantID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *EntryID) UnmarshalText(b []byte) error {
	parsed, err := ParseEntryID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// IsNil checks - used for service-layer validation.

func (id RegistrantID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// parseUUID is the shared validation logic. Nil UUIDs are allowed here; use
// IsNil() at the service layer so store lookups can return proper "not found"
// errors for consistency.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return id, nil
}
