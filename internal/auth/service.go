// Package auth authenticates registrants and runs the password reset flow.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gatepass/internal/auth/resettoken"
	"gatepass/internal/jwttoken"
	"gatepass/internal/mail"
	"gatepass/internal/registrant/models"
	"gatepass/internal/registrant/store"
	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/platform/sentinel"
)

const (
	accessTokenTTL = 24 * time.Hour
	resetTokenTTL  = 15 * time.Minute
)

// errInvalidCredentials covers both unknown email and wrong password so a
// login probe cannot enumerate registered addresses.
var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")

// Service authenticates registrants against their stored credentials.
type Service struct {
	registrants store.Store
	tokens      *jwttoken.JWTService
	resetTokens resettoken.Store
	hasher      *BcryptHasher
	mailer      mail.Mailer
	logger      *slog.Logger

	resetBaseURL string
}

func NewService(
	registrants store.Store,
	tokens *jwttoken.JWTService,
	resetTokens resettoken.Store,
	hasher *BcryptHasher,
	mailer mail.Mailer,
	logger *slog.Logger,
	resetBaseURL string,
) *Service {
	return &Service{
		registrants:  registrants,
		tokens:       tokens,
		resetTokens:  resetTokens,
		hasher:       hasher,
		mailer:       mailer,
		logger:       logger,
		resetBaseURL: resetBaseURL,
	}
}

// Login exchanges an email and password for a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.Registrant, error) {
	r, err := s.registrants.FindByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil, errInvalidCredentials
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registrant")
	}
	if r.PasswordHash == "" || !s.hasher.Compare(r.PasswordHash, password) {
		return "", nil, errInvalidCredentials
	}

	token, err := s.tokens.GenerateAccessToken(r.ID, r.Role, accessTokenTTL)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return token, r, nil
}

// Profile returns the registrant behind an authenticated actor.
func (s *Service) Profile(ctx context.Context, actor id.Actor) (*models.Registrant, error) {
	r, err := s.registrants.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registrant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registrant")
	}
	return r, nil
}

// RequestPasswordReset mints a single-use token and mails the reset link.
// Unknown emails succeed silently for the same enumeration reason as Login.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	r, err := s.registrants.FindByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registrant")
	}

	token, err := newResetToken()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint reset token")
	}
	if err := s.resetTokens.Put(ctx, token, r.ID, resetTokenTTL); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store reset token")
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.resetBaseURL, token)
	body := fmt.Sprintf(`<p>Hi %s,</p><p>Reset your password using the link below. It expires in %d minutes.</p><p><a href="%s">Reset password</a></p>`,
		r.Name, int(resetTokenTTL.Minutes()), link)
	if err := s.mailer.Send(ctx, r.Email, "Password reset", body, nil); err != nil {
		s.logger.ErrorContext(ctx, "reset mail failed", "registrant_id", r.ID.String(), "error", err)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to send reset email")
	}
	return nil
}

// ResetPassword consumes the token and installs the new credential.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return dErrors.New(dErrors.CodeInvalidInput, "password must be at least 8 characters")
	}
	registrantID, err := s.resetTokens.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrExpired) {
			return dErrors.New(dErrors.CodeUnauthorized, "reset token is invalid or expired")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume reset token")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	if err := s.registrants.UpdatePasswordHash(ctx, registrantID, hash); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "registrant not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
	}
	return nil
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
