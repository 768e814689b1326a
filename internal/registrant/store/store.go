// Package store persists registrant identities. Stores are interface-driven
// so services stay testable and in-memory or postgres persistence can be
// swapped without rewiring business code.
package store

import (
	"context"

	"gatepass/internal/registrant/models"
	id "gatepass/pkg/domain"
)

// Store is the identity registry contract. Uniqueness of email and
// registration number is the store's responsibility: concurrent writers race
// and the store rejects the loser, never the service layer.
type Store interface {
	// CreateIfEmailAvailable persists the registrant atomically, failing with
	// sentinel.ErrAlreadyUsed when the email (case-insensitive) or the
	// registration number is taken. No partial record is ever visible.
	CreateIfEmailAvailable(ctx context.Context, r *models.Registrant) error

	FindByID(ctx context.Context, registrantID id.RegistrantID) (*models.Registrant, error)
	FindByEmail(ctx context.Context, email string) (*models.Registrant, error)

	// ListByRole backs the admin notification fan-out; it is an explicit
	// query, not a hidden global.
	ListByRole(ctx context.Context, role id.Role) ([]*models.Registrant, error)

	// AttachCertificates sets both certificate refs if and only if either is
	// still missing, and returns the up-to-date record. Attaching onto a
	// record that already has both refs is a no-op, which makes first-scan
	// generation idempotent.
	AttachCertificates(ctx context.Context, registrantID id.RegistrantID, docPath, imagePath string) (*models.Registrant, error)

	// SetQRImagePath repairs a missing verification image reference. The QR
	// content itself is never rewritten.
	SetQRImagePath(ctx context.Context, registrantID id.RegistrantID, path string) error

	UpdatePasswordHash(ctx context.Context, registrantID id.RegistrantID, hash string) error
}
