package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gatepass/internal/auth"
	"gatepass/internal/issuance"
	"gatepass/internal/payment"
	"gatepass/internal/platform/middleware"
	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/platform/httputil"
)

// AuthHandler exposes login, profile, account creation, and the password
// reset flow.
type AuthHandler struct {
	auth     *auth.Service
	issuance *issuance.Service
	resolver middleware.ActorResolver
	logger   *slog.Logger
}

func NewAuthHandler(authSvc *auth.Service, issuanceSvc *issuance.Service, resolver middleware.ActorResolver, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     authSvc,
		issuance: issuanceSvc,
		resolver: resolver,
		logger:   logger,
	}
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/forgot-password", h.handleForgotPassword)
	r.Put("/auth/reset-password/{token}", h.handleResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.resolver, h.logger))
		r.Get("/auth/me", h.handleMe)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/auth/register", h.handleRegister)
		})
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[loginRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "email and password are required"))
		return
	}

	token, registrant, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  registrant,
	})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	registrant, err := h.auth.Profile(r.Context(), middleware.ActorFromContext(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, registrant)
}

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	Profession  string `json:"profession"`
	City        string `json:"city"`
	State       string `json:"state"`
	Designation string `json:"designation"`
	Phone       string `json:"phone"`
}

// handleRegister creates an account directly, without a gateway round trip.
// Admin only; the identity is issued against a free payment fact.
func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[registerRequest](w, r, h.logger)
	if !ok {
		return
	}

	role := id.RoleUser
	if req.Role != "" {
		parsed, err := id.ParseRole(req.Role)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		role = parsed
	}

	registrant, err := h.issuance.Issue(r.Context(), issuance.RegistrantData{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        role,
		Profession:  req.Profession,
		City:        req.City,
		State:       req.State,
		Designation: req.Designation,
		Phone:       req.Phone,
	}, payment.FreeFact())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, registrant)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[forgotPasswordRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.Email == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "email is required"))
		return
	}
	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "if the email is registered, a reset link has been sent",
	})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (h *AuthHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	req, ok := httputil.Decode[resetPasswordRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := h.auth.ResetPassword(r.Context(), token, req.Password); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
