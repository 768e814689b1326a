//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gatepass/internal/registrant/models"
	"gatepass/internal/registrant/store"
	id "gatepass/pkg/domain"
	"gatepass/pkg/platform/sentinel"
	"gatepass/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func newTestRegistrant(email string) *models.Registrant {
	now := time.Now().UTC()
	return &models.Registrant{
		ID:                 id.RegistrantID(uuid.New()),
		Name:               "Integration Registrant",
		Email:              models.NormalizeEmail(email),
		Role:               id.RoleUser,
		RegistrationNumber: id.RegistrationNumber("reg" + uuid.NewString()),
		Payment: models.PaymentInfo{
			OrderID:   "order-1",
			PaymentID: "pay-1",
			Amount:    5000,
			Status:    models.PaymentPaid,
		},
		QRContent:    "USER_ID:placeholder",
		RegisteredAt: now,
		UpdatedAt:    now,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	r := newTestRegistrant("roundtrip@example.com")
	r.QRContent = "USER_ID:" + r.ID.String()

	s.Require().NoError(s.store.CreateIfEmailAvailable(ctx, r))

	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.Email, found.Email)
	s.Equal(r.RegistrationNumber, found.RegistrationNumber)
	s.Equal(r.Payment.Status, found.Payment.Status)
	s.Equal(r.QRContent, found.QRContent)

	byEmail, err := s.store.FindByEmail(ctx, "ROUNDTRIP@example.com")
	s.Require().NoError(err)
	s.Equal(r.ID, byEmail.ID)
}

// TestConcurrentDuplicateEmail verifies the unique index arbitrates the race:
// exactly one writer succeeds, the rest get ErrAlreadyUsed.
func (s *PostgresStoreSuite) TestConcurrentDuplicateEmail() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := newTestRegistrant("race@example.com")
			switch err := s.store.CreateIfEmailAvailable(ctx, r); {
			case err == nil:
				successCount.Add(1)
			case s.ErrorIs(err, sentinel.ErrAlreadyUsed):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), conflictCount.Load())
}

func (s *PostgresStoreSuite) TestAttachCertificatesIdempotent() {
	ctx := context.Background()
	r := newTestRegistrant("attach@example.com")
	s.Require().NoError(s.store.CreateIfEmailAvailable(ctx, r))

	first, err := s.store.AttachCertificates(ctx, r.ID, "/first.pdf", "/first.png")
	s.Require().NoError(err)
	s.True(first.HasCertificate())

	second, err := s.store.AttachCertificates(ctx, r.ID, "/second.pdf", "/second.png")
	s.Require().NoError(err)
	s.Equal("/first.pdf", second.CertificateFile)
	s.Equal("/first.png", second.CertificateImage)
}

func (s *PostgresStoreSuite) TestUpdatesRequireExistingRow() {
	ctx := context.Background()
	unknown := id.RegistrantID(uuid.New())

	s.ErrorIs(s.store.SetQRImagePath(ctx, unknown, "/p"), sentinel.ErrNotFound)
	s.ErrorIs(s.store.UpdatePasswordHash(ctx, unknown, "h"), sentinel.ErrNotFound)
}
