package verification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gatepass/internal/certificate"
	"gatepass/internal/registrant/models"
	"gatepass/internal/registrant/store"
	"gatepass/internal/scanlog"
	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/platform/middleware/metadata"
)

// countingRenderer records render calls; rendering itself is simulated.
type countingRenderer struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (r *countingRenderer) Render(_ context.Context, reg *models.Registrant) (certificate.Paths, error) {
	r.calls.Add(1)
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.err != nil {
		return certificate.Paths{}, r.err
	}
	return certificate.Paths{
		Document: "/tmp/certs/" + reg.ID.String() + "-certificate.pdf",
		Image:    "/tmp/certs/" + reg.ID.String() + "-certificate.png",
	}, nil
}

// failingLogStore rejects every append so the suppression policy can be
// observed.
type failingLogStore struct{}

func (failingLogStore) Append(context.Context, scanlog.Entry) error {
	return errors.New("log store down")
}
func (failingLogStore) ListAll(context.Context) ([]scanlog.Entry, error) { return nil, nil }
func (failingLogStore) ListByRegistrant(context.Context, id.RegistrantID) ([]scanlog.Entry, error) {
	return nil, nil
}

type VerificationServiceSuite struct {
	suite.Suite
	registrants *store.InMemory
	logStore    *scanlog.InMemoryStore
	renderer    *countingRenderer
	service     *Service
	operator    id.Actor
	ctx         context.Context
}

func TestVerificationServiceSuite(t *testing.T) {
	suite.Run(t, new(VerificationServiceSuite))
}

func (s *VerificationServiceSuite) SetupTest() {
	s.registrants = store.NewInMemory()
	s.logStore = scanlog.NewInMemoryStore()
	s.renderer = &countingRenderer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	logs := scanlog.NewService(s.logStore, logger)
	s.service = NewService(s.registrants, logs, s.renderer, nil, logger)
	s.operator = id.Actor{ID: id.RegistrantID(uuid.New()), Role: id.RoleAdmin}
	s.ctx = metadata.WithClientMetadata(context.Background(), "10.0.0.1",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36")
}

func (s *VerificationServiceSuite) issue(name string) *models.Registrant {
	r := &models.Registrant{
		ID:                 id.RegistrantID(uuid.New()),
		Name:               name,
		Email:              name + "@example.com",
		Role:               id.RoleUser,
		RegistrationNumber: id.RegistrationNumber("reg" + uuid.NewString()),
	}
	r.QRContent = "USER_ID:" + r.ID.String()
	s.Require().NoError(s.registrants.CreateIfEmailAvailable(s.ctx, r))
	return r
}

func (s *VerificationServiceSuite) lastEntry() scanlog.Entry {
	entries, err := s.logStore.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().NotEmpty(entries)
	return entries[0]
}

func (s *VerificationServiceSuite) TestClassification() {
	s.Run("malformed token is invalid with format detail", func() {
		res, err := s.service.Verify(s.ctx, "not-a-uuid", s.operator)
		s.Require().NoError(err)
		s.False(res.Valid)
		s.Equal("Invalid QR code format", res.Detail)
		s.Nil(res.Registrant)

		entry := s.lastEntry()
		s.Nil(entry.RegistrantID, "no identity ref for a malformed token")
		s.Equal("not-a-uuid", entry.RawToken)
		s.False(entry.Valid)
	})

	s.Run("unknown identity is invalid with lookup detail", func() {
		token := "USER_ID:" + uuid.NewString()
		res, err := s.service.Verify(s.ctx, token, s.operator)
		s.Require().NoError(err)
		s.False(res.Valid)
		s.Equal("User not found for scanned QR", res.Detail)

		entry := s.lastEntry()
		s.Nil(entry.RegistrantID)
		s.Equal(token, entry.RawToken, "raw token is preserved verbatim")
	})

	s.Run("known identity verifies with greeting detail", func() {
		r := s.issue("asha")
		res, err := s.service.Verify(s.ctx, r.QRContent, s.operator)
		s.Require().NoError(err)
		s.True(res.Valid)
		s.Equal("QR code verified for asha", res.Detail)
		s.Require().NotNil(res.Registrant)
		s.Equal(r.ID, res.Registrant.ID)

		entry := s.lastEntry()
		s.Require().NotNil(entry.RegistrantID)
		s.Equal(r.ID, *entry.RegistrantID)
		s.Equal(s.operator.ID, entry.OperatorID)
		s.True(entry.Valid)
		s.NotEmpty(entry.Device, "station device summary is recorded")
	})

	s.Run("prefixed and bare tokens resolve identically", func() {
		r := s.issue("bare")
		prefixed, err := s.service.Verify(s.ctx, r.QRContent, s.operator)
		s.Require().NoError(err)
		bare, err := s.service.Verify(s.ctx, r.ID.String(), s.operator)
		s.Require().NoError(err)

		s.True(prefixed.Valid)
		s.True(bare.Valid)
		s.Equal(prefixed.Detail, bare.Detail)
	})

	s.Run("operator without a scanning role is rejected before classification", func() {
		_, err := s.service.Verify(s.ctx, "anything", id.Actor{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		entries, listErr := s.logStore.ListAll(s.ctx)
		s.Require().NoError(listErr)
		for _, e := range entries {
			s.NotEqual("anything", e.RawToken, "rejected operators leave no audit entry")
		}
	})
}

func (s *VerificationServiceSuite) TestCertificateGeneration() {
	s.Run("first valid scan attaches both artifacts", func() {
		r := s.issue("first")
		res, err := s.service.Verify(s.ctx, r.QRContent, s.operator)
		s.Require().NoError(err)
		s.Require().NotNil(res.Registrant)
		s.True(res.Registrant.HasCertificate())
		s.Equal("/uploads/certificates/"+r.ID.String()+"-certificate.pdf", res.Registrant.CertificateFile)
		s.Equal("/uploads/certificates/"+r.ID.String()+"-certificate.png", res.Registrant.CertificateImage)
		s.Equal(int32(1), s.renderer.calls.Load())
	})

	s.Run("second scan does not render again", func() {
		r := s.issue("second")
		_, err := s.service.Verify(s.ctx, r.QRContent, s.operator)
		s.Require().NoError(err)
		before := s.renderer.calls.Load()

		res, err := s.service.Verify(s.ctx, r.QRContent, s.operator)
		s.Require().NoError(err)
		s.True(res.Valid)
		s.Equal(before, s.renderer.calls.Load())
	})

	s.Run("concurrent first scans collapse into one render", func() {
		r := s.issue("storm")
		s.renderer.delay = 20 * time.Millisecond
		defer func() { s.renderer.delay = 0 }()
		before := s.renderer.calls.Load()

		const scanners = 8
		var wg sync.WaitGroup
		for i := 0; i < scanners; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := s.service.Verify(s.ctx, r.QRContent, s.operator)
				s.NoError(err)
				s.True(res.Valid)
			}()
		}
		wg.Wait()

		s.Equal(before+1, s.renderer.calls.Load())
	})

	s.Run("render failure surfaces without flipping the classification", func() {
		r := s.issue("broken")
		s.renderer.err = errors.New("disk full")
		defer func() { s.renderer.err = nil }()

		res, err := s.service.Verify(s.ctx, r.QRContent, s.operator)
		s.Require().NoError(err)
		s.True(res.Valid, "a certificate problem is not a gate rejection")
		s.Require().Error(res.CertificateErr)
		s.True(dErrors.HasCode(res.CertificateErr, dErrors.CodeInternal))
		s.Require().NotNil(res.Registrant)
		s.False(res.Registrant.HasCertificate())

		s.True(s.lastEntry().Valid, "the audit entry records the scan as valid")
	})
}

func (s *VerificationServiceSuite) TestAuditAppendFailure() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	logs := scanlog.NewService(failingLogStore{}, logger)
	service := NewService(s.registrants, logs, s.renderer, nil, logger)

	r := s.issue("resilient")
	res, err := service.Verify(s.ctx, r.QRContent, s.operator)
	s.Require().NoError(err, "an audit failure never suppresses the response")
	s.True(res.Valid)
}
