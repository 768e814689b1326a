package issuance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"gatepass/internal/mail"
	"gatepass/internal/platform/metrics"
	"gatepass/internal/qr"
	"gatepass/internal/registrant/models"
	"gatepass/internal/registrant/store"
	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/platform/sentinel"
	"gatepass/pkg/requestcontext"
)

var tracer = otel.Tracer("gatepass/issuance")

// RegistrantData carries the validated attendee fields accepted at the
// payment boundary. The payment fact itself is never taken from this struct.
type RegistrantData struct {
	Name        string
	Email       string
	Password    string
	Role        id.Role
	Profession  string
	City        string
	State       string
	Designation string
	Phone       string
}

// PasswordHasher turns a plaintext credential into its stored form.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Service orchestrates identity creation, token encoding, and persistence as
// one unit, given a confirmed payment fact. Notification is a convenience
// channel: delivery failures are logged and never roll back issuance.
type Service struct {
	registrants store.Store
	mailer      mail.Mailer
	hasher      PasswordHasher
	metrics     *metrics.Metrics
	logger      *slog.Logger

	uploadsDir string
	eventName  string
	loginURL   string
}

// Config groups the non-dependency knobs for the service.
type Config struct {
	UploadsDir string
	EventName  string
	LoginURL   string
}

func NewService(registrants store.Store, mailer mail.Mailer, hasher PasswordHasher, m *metrics.Metrics, logger *slog.Logger, cfg Config) *Service {
	return &Service{
		registrants: registrants,
		mailer:      mailer,
		hasher:      hasher,
		metrics:     m,
		logger:      logger,
		uploadsDir:  cfg.UploadsDir,
		eventName:   cfg.EventName,
		loginURL:    cfg.LoginURL,
	}
}

// Issue converts a confirmed payment into a durable registrant identity with
// its verification token and QR artifact.
//
// Order matters: the payment fact is checked before any allocation, the ID is
// allocated before token encoding (the token embeds it), and persistence is a
// single write so no partial identity is ever visible. An orphaned QR file
// from a failed persist is acceptable; cleanup is out of scope.
func (s *Service) Issue(ctx context.Context, data RegistrantData, fact models.PaymentInfo) (*models.Registrant, error) {
	ctx, span := tracer.Start(ctx, "issuance.Issue")
	defer span.End()

	if !fact.Status.Confirmed() {
		return nil, ErrPaymentNotConfirmed
	}

	if data.Role == "" {
		data.Role = id.RoleUser
	}
	now := requestcontext.Now(ctx)

	hash := ""
	if data.Password != "" {
		var err error
		hash, err = s.hasher.Hash(data.Password)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
		}
	}

	registrantID := id.RegistrantID(uuid.New())
	span.SetAttributes(attribute.String("registrant.id", registrantID.String()))

	r := &models.Registrant{
		ID:                 registrantID,
		Name:               data.Name,
		Email:              models.NormalizeEmail(data.Email),
		Role:               data.Role,
		PasswordHash:       hash,
		Profession:         data.Profession,
		City:               data.City,
		State:              data.State,
		Designation:        data.Designation,
		Phone:              data.Phone,
		RegistrationNumber: NewRegistrationNumber(now),
		Payment:            fact,
		QRContent:          qr.TokenFor(registrantID),
		RegisteredAt:       now,
		UpdatedAt:          now,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	qrPath, err := qr.WriteImage(filepath.Join(s.uploadsDir, "qrcodes"), r.QRContent, registrantID)
	if err != nil {
		return nil, errEncodingFailed(err)
	}
	r.QRImagePath = "/uploads/qrcodes/" + filepath.Base(qrPath)

	if err := s.registrants.CreateIfEmailAvailable(ctx, r); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, ErrDuplicateEmail
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist registrant")
	}

	s.metrics.IncrementRegistrantsIssued()

	s.sendConfirmation(ctx, r, data.Password, qrPath)
	s.notifyAdmins(ctx, r)

	return r, nil
}

// ResendCredential repairs and re-delivers an issued credential. The token is
// never re-minted: a missing image is re-rendered from the identity-derived
// content, so a reprinted badge scans identically to the original.
func (s *Service) ResendCredential(ctx context.Context, registrantID id.RegistrantID) (*models.Registrant, error) {
	r, err := s.registrants.FindByID(ctx, registrantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registrant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registrant")
	}

	content := r.QRContent
	if content == "" {
		content = qr.TokenFor(r.ID)
	}
	qrDir := filepath.Join(s.uploadsDir, "qrcodes")
	qrPath := filepath.Join(qrDir, qr.ImageFileName(r.ID))
	if _, statErr := os.Stat(qrPath); statErr != nil {
		qrPath, err = qr.WriteImage(qrDir, content, r.ID)
		if err != nil {
			return nil, errEncodingFailed(err)
		}
	}
	// Either side may be the corrupted one: the artifact can be gone while the
	// ref survives, or the ref lost while the file is intact. The render above
	// restored the former; this write restores the latter.
	if ref := "/uploads/qrcodes/" + filepath.Base(qrPath); r.QRImagePath != ref {
		if err := s.registrants.SetQRImagePath(ctx, r.ID, ref); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update verification image path")
		}
		r.QRImagePath = ref
	}

	s.sendConfirmation(ctx, r, "", qrPath)
	return r, nil
}

func (s *Service) sendConfirmation(ctx context.Context, r *models.Registrant, plaintextPassword, qrPath string) {
	body := confirmationBody(r, s.eventName, s.loginURL, plaintextPassword)
	attachments := []mail.Attachment{
		{Filename: qr.ImageFileName(r.ID), Path: qrPath, ContentID: "qrcode.png"},
		{Filename: "event-pass.png", Path: qrPath},
	}
	subject := fmt.Sprintf("Your %s registration is confirmed", s.eventName)
	if err := s.mailer.Send(ctx, r.Email, subject, body, attachments); err != nil {
		s.logger.ErrorContext(ctx, "confirmation mail failed",
			"registrant_id", r.ID.String(),
			"error", err,
		)
	}
}

// notifyAdmins fans a short note out to every admin. The admin set comes from
// an explicit role query against the identity store.
func (s *Service) notifyAdmins(ctx context.Context, r *models.Registrant) {
	admins, err := s.registrants.ListByRole(ctx, id.RoleAdmin)
	if err != nil {
		s.logger.ErrorContext(ctx, "admin lookup for notification failed", "error", err)
		return
	}
	subject := fmt.Sprintf("New registration: %s", r.Name)
	body := fmt.Sprintf("<p>%s (%s) registered for %s.<br>Registration number: %s</p>",
		r.Name, r.Email, s.eventName, r.RegistrationNumber)
	for _, admin := range admins {
		if err := s.mailer.Send(ctx, admin.Email, subject, body, nil); err != nil {
			s.logger.WarnContext(ctx, "admin notification failed",
				"admin_email", admin.Email,
				"error", err,
			)
		}
	}
}

func confirmationBody(r *models.Registrant, eventName, loginURL, plaintextPassword string) string {
	passwordLine := ""
	if plaintextPassword != "" {
		passwordLine = fmt.Sprintf("<p><strong>Password:</strong> %s</p>", plaintextPassword)
	}
	loginLine := ""
	if loginURL != "" {
		loginLine = fmt.Sprintf(`<p><a href="%s">Login to your account</a></p>`, loginURL)
	}
	return fmt.Sprintf(`
<div>
  <h2>Registration Confirmed</h2>
  <p>Hi <strong>%s</strong>, welcome to <b>%s</b>!</p>
  <p><strong>Registration Number:</strong> %s</p>
  <p><strong>Email:</strong> %s</p>
  %s
  <p>Show this QR code at the event:</p>
  <img src="cid:qrcode.png" alt="QR Code" />
  %s
</div>`, r.Name, eventName, r.RegistrationNumber, r.Email, passwordLine, loginLine)
}
