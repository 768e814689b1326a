package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gatepass/internal/issuance"
	"gatepass/internal/platform/middleware"
	id "gatepass/pkg/domain"
	"gatepass/pkg/platform/httputil"
)

// RegistrantHandler exposes the admin repair flow.
type RegistrantHandler struct {
	issuance *issuance.Service
	resolver middleware.ActorResolver
	logger   *slog.Logger
}

func NewRegistrantHandler(issuanceSvc *issuance.Service, resolver middleware.ActorResolver, logger *slog.Logger) *RegistrantHandler {
	return &RegistrantHandler{
		issuance: issuanceSvc,
		resolver: resolver,
		logger:   logger,
	}
}

func (h *RegistrantHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.resolver, h.logger))
		r.Use(middleware.RequireAdmin)
		r.Post("/registrants/{registrantID}/resend-credential", h.handleResendCredential)
	})
}

// handleResendCredential re-renders a missing QR artifact from the existing
// identity-derived token and re-sends the confirmation mail. The token itself
// is never re-minted.
func (h *RegistrantHandler) handleResendCredential(w http.ResponseWriter, r *http.Request) {
	registrantID, err := id.ParseRegistrantID(chi.URLParam(r, "registrantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	registrant, err := h.issuance.ResendCredential(r.Context(), registrantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, registrant)
}
