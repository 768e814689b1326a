// Package verification classifies presented gate tokens. One call, one
// classification, one audit entry; the only identity mutation it ever makes
// is attaching the lazily generated certificate artifacts on first valid scan.
package verification

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"gatepass/internal/certificate"
	"gatepass/internal/platform/metrics"
	"gatepass/internal/qr"
	"gatepass/internal/registrant/models"
	"gatepass/internal/registrant/store"
	"gatepass/internal/scanlog"
	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/platform/middleware/metadata"
	"gatepass/pkg/platform/sentinel"
)

var tracer = otel.Tracer("gatepass/verification")

// Classification detail strings are part of the external contract; scanner
// clients and downstream audit consumers match on them.
const (
	detailInvalidFormat = "Invalid QR code format"
	detailNotFound      = "User not found for scanned QR"
)

// Result is the outcome of one scan. CertificateErr is set when the scan was
// valid but artifact generation failed; the classification stands either way.
type Result struct {
	Valid          bool
	Detail         string
	Registrant     *models.Registrant
	CertificateErr error
}

// Renderer is the document-render collaborator.
type Renderer interface {
	Render(ctx context.Context, r *models.Registrant) (certificate.Paths, error)
}

// Service resolves presented tokens against the identity store.
type Service struct {
	registrants store.Store
	logs        *scanlog.Service
	renderer    Renderer
	metrics     *metrics.Metrics
	logger      *slog.Logger

	// group serializes certificate generation per registrant so concurrent
	// first-scans collapse into one render. Cross-process duplicates remain
	// possible and harmless: the artifacts are deterministic.
	group singleflight.Group
}

func NewService(registrants store.Store, logs *scanlog.Service, renderer Renderer, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		registrants: registrants,
		logs:        logs,
		renderer:    renderer,
		metrics:     m,
		logger:      logger,
	}
}

// Verify classifies one presented token on behalf of an operator.
//
// Tokens with the "USER_ID:" prefix and raw legacy IDs resolve identically.
// Whatever the classification, exactly one audit entry is appended with the
// raw presented string; an append failure is logged and counted but never
// suppresses the response.
func (s *Service) Verify(ctx context.Context, rawToken string, operator id.Actor) (*Result, error) {
	ctx, span := tracer.Start(ctx, "verification.Verify")
	defer span.End()

	if !operator.Role.CanScan() {
		return nil, dErrors.New(dErrors.CodeForbidden, "not authorized to scan")
	}

	res := s.classify(ctx, rawToken)
	span.SetAttributes(attribute.Bool("scan.valid", res.Valid))

	outcome := "invalid"
	if res.Valid {
		outcome = "valid"
	}
	s.metrics.ObserveScan(outcome)

	entry := scanlog.Entry{
		OperatorID: operator.ID,
		RawToken:   rawToken,
		Valid:      res.Valid,
		Detail:     res.Detail,
		Device:     metadata.DeviceSummary(ctx),
	}
	if res.Registrant != nil {
		rid := res.Registrant.ID
		entry.RegistrantID = &rid
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		s.metrics.IncrementScanLogFailures()
		s.logger.ErrorContext(ctx, "scan audit append failed",
			"operator_id", operator.ID.String(),
			"error", err,
		)
	}

	return res, nil
}

// classify is the single-transition state machine: malformed → NOT_FOUND,
// unknown → NOT_FOUND, resolved → VALID (+ lazy certificate generation).
func (s *Service) classify(ctx context.Context, rawToken string) *Result {
	registrantID, err := id.ParseRegistrantID(qr.Normalize(rawToken))
	if err != nil {
		return &Result{Valid: false, Detail: detailInvalidFormat}
	}

	r, err := s.registrants.FindByID(ctx, registrantID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			// Store trouble is still an invalid scan from the gate's point of
			// view, but worth a log line of its own.
			s.logger.ErrorContext(ctx, "registrant lookup failed",
				"registrant_id", registrantID.String(),
				"error", err,
			)
		}
		return &Result{Valid: false, Detail: detailNotFound}
	}

	res := &Result{
		Valid:  true,
		Detail: "QR code verified for " + r.Name,
	}

	if !r.HasCertificate() {
		updated, genErr := s.generateCertificate(ctx, r.ID)
		if genErr != nil {
			res.CertificateErr = dErrors.Wrap(genErr, dErrors.CodeInternal, "certificate generation failed")
			s.logger.ErrorContext(ctx, "certificate generation failed",
				"registrant_id", r.ID.String(),
				"error", genErr,
			)
		} else {
			r = updated
		}
	}
	res.Registrant = r
	return res
}

// generateCertificate renders both artifacts and attaches them at most once.
// The singleflight key collapses concurrent first-scans of one registrant;
// the store's conditional attach guards everything else.
func (s *Service) generateCertificate(ctx context.Context, registrantID id.RegistrantID) (*models.Registrant, error) {
	v, err, _ := s.group.Do(registrantID.String(), func() (any, error) {
		current, err := s.registrants.FindByID(ctx, registrantID)
		if err != nil {
			return nil, err
		}
		if current.HasCertificate() {
			return current, nil
		}

		start := time.Now()
		paths, err := s.renderer.Render(ctx, current)
		s.metrics.ObserveCertRender(time.Since(start))
		if err != nil {
			return nil, err
		}

		docRef := "/uploads/certificates/" + filepath.Base(paths.Document)
		imageRef := "/uploads/certificates/" + filepath.Base(paths.Image)
		return s.registrants.AttachCertificates(ctx, registrantID, docRef, imageRef)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Registrant), nil
}
