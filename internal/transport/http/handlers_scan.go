package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gatepass/internal/platform/middleware"
	"gatepass/internal/scanlog"
	"gatepass/internal/verification"
	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/platform/httputil"
)

// ScanHandler exposes the gate scanner endpoint and the audit trail reads.
type ScanHandler struct {
	verification *verification.Service
	logs         *scanlog.Service
	resolver     middleware.ActorResolver
	logger       *slog.Logger
}

func NewScanHandler(verificationSvc *verification.Service, logs *scanlog.Service, resolver middleware.ActorResolver, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{
		verification: verificationSvc,
		logs:         logs,
		resolver:     resolver,
		logger:       logger,
	}
}

func (h *ScanHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.resolver, h.logger))
		r.Post("/scan", h.handleScan)
		r.Get("/scan/logs", h.handleListLogs)
		r.Get("/scan/logs/{registrantID}", h.handleListRegistrantLogs)
	})
}

type scanRequest struct {
	Token string `json:"token"`
}

type scanResponse struct {
	Valid            bool            `json:"valid"`
	Message          string          `json:"message"`
	Registrant       *scanRegistrant `json:"registrant,omitempty"`
	CertificateError string          `json:"certificate_error,omitempty"`
}

// scanRegistrant is the scanner-facing projection: enough to greet the
// attendee and hand over artifacts, nothing more.
type scanRegistrant struct {
	ID                 id.RegistrantID       `json:"id"`
	Name               string                `json:"name"`
	Email              string                `json:"email"`
	RegistrationNumber id.RegistrationNumber `json:"registration_number"`
	CertificateFile    string                `json:"certificate_file,omitempty"`
	CertificateImage   string                `json:"certificate_image,omitempty"`
}

func (h *ScanHandler) handleScan(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[scanRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.Token == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "token is required"))
		return
	}

	result, err := h.verification.Verify(r.Context(), req.Token, middleware.ActorFromContext(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := scanResponse{
		Valid:   result.Valid,
		Message: result.Detail,
	}
	if result.Registrant != nil {
		resp.Registrant = &scanRegistrant{
			ID:                 result.Registrant.ID,
			Name:               result.Registrant.Name,
			Email:              result.Registrant.Email,
			RegistrationNumber: result.Registrant.RegistrationNumber,
			CertificateFile:    result.Registrant.CertificateFile,
			CertificateImage:   result.Registrant.CertificateImage,
		}
	}
	if result.CertificateErr != nil {
		resp.CertificateError = dErrors.MessageOf(result.CertificateErr)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *ScanHandler) handleListLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.logs.ListAll(r.Context(), middleware.ActorFromContext(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"logs": entries})
}

func (h *ScanHandler) handleListRegistrantLogs(w http.ResponseWriter, r *http.Request) {
	registrantID, err := id.ParseRegistrantID(chi.URLParam(r, "registrantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.logs.ListForRegistrant(r.Context(), registrantID, middleware.ActorFromContext(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"logs": entries})
}
