package issuance

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	mailmocks "gatepass/internal/mail/mocks"
	"gatepass/internal/qr"
	"gatepass/internal/registrant/models"
	"gatepass/internal/registrant/store"
	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/requestcontext"
)

type stubHasher struct{}

func (stubHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

type IssuanceServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	mockMailer *mailmocks.MockMailer
	store      *store.InMemory
	service    *Service
	uploadsDir string
	ctx        context.Context
}

func TestIssuanceServiceSuite(t *testing.T) {
	suite.Run(t, new(IssuanceServiceSuite))
}

func (s *IssuanceServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockMailer = mailmocks.NewMockMailer(s.ctrl)
	s.store = store.NewInMemory()
	s.uploadsDir = s.T().TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewService(s.store, s.mockMailer, stubHasher{}, nil, logger, Config{
		UploadsDir: s.uploadsDir,
		EventName:  "Test Summit",
		LoginURL:   "https://example.com/login",
	})
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
}

func (s *IssuanceServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *IssuanceServiceSuite) paidFact() models.PaymentInfo {
	return models.PaymentInfo{
		OrderID:   "order-1",
		PaymentID: "pay-1",
		Signature: "sig-1",
		Amount:    5000,
		Status:    models.PaymentPaid,
	}
}

func (s *IssuanceServiceSuite) attendee(email string) RegistrantData {
	return RegistrantData{
		Name:     "Asha Rao",
		Email:    email,
		Password: "secret-password",
	}
}

func (s *IssuanceServiceSuite) TestIssue() {
	s.Run("rejects unconfirmed payment before any allocation", func() {
		fact := s.paidFact()
		fact.Status = models.PaymentPending

		_, err := s.service.Issue(s.ctx, s.attendee("pending@example.com"), fact)
		s.Require().ErrorIs(err, ErrPaymentNotConfirmed)

		_, err = s.store.FindByEmail(s.ctx, "pending@example.com")
		s.Require().Error(err, "no identity may exist for an unconfirmed payment")
	})

	s.Run("issues a complete identity for a paid fact", func() {
		s.mockMailer.EXPECT().
			Send(gomock.Any(), "asha@example.com", gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		r, err := s.service.Issue(s.ctx, s.attendee("asha@example.com"), s.paidFact())
		s.Require().NoError(err)

		s.Equal(id.RoleUser, r.Role, "role defaults to user")
		s.Equal("hashed:secret-password", r.PasswordHash)
		s.Equal(qr.TokenFor(r.ID), r.QRContent)
		s.Regexp(`^reg\d{13}\d{10}$`, r.RegistrationNumber.String())
		s.Equal("/uploads/qrcodes/"+r.ID.String()+"-qrcode.png", r.QRImagePath)
		s.False(r.HasCertificate(), "certificates are attached at first scan, not issuance")

		_, err = os.Stat(filepath.Join(s.uploadsDir, "qrcodes", qr.ImageFileName(r.ID)))
		s.Require().NoError(err, "QR image must exist on disk")

		persisted, err := s.store.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(r.QRContent, persisted.QRContent)
	})

	s.Run("returns DuplicateEmail for a taken address", func() {
		s.mockMailer.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.service.Issue(s.ctx, s.attendee("dup@example.com"), s.paidFact())
		s.Require().NoError(err)

		_, err = s.service.Issue(s.ctx, s.attendee("DUP@example.com"), s.paidFact())
		s.Require().ErrorIs(err, ErrDuplicateEmail)
	})

	s.Run("mail failure never rolls back issuance", func() {
		s.mockMailer.EXPECT().
			Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(dErrors.New(dErrors.CodeUnavailable, "smtp down"))

		r, err := s.service.Issue(s.ctx, s.attendee("nomail@example.com"), s.paidFact())
		s.Require().NoError(err)

		_, err = s.store.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
	})

	s.Run("fans out a notification per admin", func() {
		admin := &models.Registrant{
			ID:                 id.RegistrantID(uuid.New()),
			Name:               "Organizer",
			Email:              "organizer@example.com",
			Role:               id.RoleAdmin,
			RegistrationNumber: id.RegistrationNumber("regadmin"),
		}
		s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, admin))

		s.mockMailer.EXPECT().
			Send(gomock.Any(), "fanout@example.com", gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)
		s.mockMailer.EXPECT().
			Send(gomock.Any(), "organizer@example.com", gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(nil)

		_, err := s.service.Issue(s.ctx, s.attendee("fanout@example.com"), s.paidFact())
		s.Require().NoError(err)
	})

	s.Run("rejects invalid attendee data", func() {
		data := s.attendee("valid@example.com")
		data.Name = strings.Repeat("x", 101)
		_, err := s.service.Issue(s.ctx, data, s.paidFact())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("concurrent issuance for one email yields exactly one identity", func() {
		s.mockMailer.EXPECT().
			Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil).
			AnyTimes()

		const attempts = 8
		var wg sync.WaitGroup
		errs := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = s.service.Issue(s.ctx, s.attendee("one@example.com"), s.paidFact())
			}(i)
		}
		wg.Wait()

		issued := 0
		for _, err := range errs {
			if err == nil {
				issued++
			} else {
				s.ErrorIs(err, ErrDuplicateEmail)
			}
		}
		s.Equal(1, issued)
	})
}

func (s *IssuanceServiceSuite) TestResendCredential() {
	s.Run("re-renders a missing QR image from the existing token", func() {
		s.mockMailer.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)

		r, err := s.service.Issue(s.ctx, s.attendee("resend@example.com"), s.paidFact())
		s.Require().NoError(err)
		originalContent := r.QRContent

		qrPath := filepath.Join(s.uploadsDir, "qrcodes", qr.ImageFileName(r.ID))
		s.Require().NoError(os.Remove(qrPath))

		repaired, err := s.service.ResendCredential(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(originalContent, repaired.QRContent, "token is never re-minted")

		_, err = os.Stat(qrPath)
		s.Require().NoError(err, "QR image must be back on disk")
	})

	s.Run("restores a lost image ref when the artifact is intact", func() {
		s.mockMailer.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)

		r, err := s.service.Issue(s.ctx, s.attendee("lostref@example.com"), s.paidFact())
		s.Require().NoError(err)
		s.Require().NoError(s.store.SetQRImagePath(s.ctx, r.ID, ""))

		repaired, err := s.service.ResendCredential(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal("/uploads/qrcodes/"+qr.ImageFileName(r.ID), repaired.QRImagePath)

		stored, err := s.store.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(repaired.QRImagePath, stored.QRImagePath)
	})

	s.Run("returns NotFound for unknown registrant", func() {
		_, err := s.service.ResendCredential(s.ctx, id.RegistrantID(uuid.New()))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
