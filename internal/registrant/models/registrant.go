package models

import (
	"regexp"
	"strings"
	"time"

	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
)

// PaymentStatus is the settled state of a registration payment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
	PaymentFree    PaymentStatus = "free"
)

// Confirmed reports whether the status represents an accepted registration.
// Only confirmed payments may mint an identity.
func (s PaymentStatus) Confirmed() bool {
	return s == PaymentPaid || s == PaymentFree
}

// PaymentInfo records the gateway facts attached to a registrant. Immutable
// once the status is paid or free.
type PaymentInfo struct {
	OrderID   string        `json:"order_id"`
	PaymentID string        `json:"payment_id"`
	Signature string        `json:"-"`
	Amount    int64         `json:"amount"`
	Status    PaymentStatus `json:"status"`
}

// Registrant is the aggregate root for an attendee identity.
//
// Invariants:
//   - Email is unique case-insensitively across all registrants (store-enforced)
//   - RegistrationNumber is unique and immutable after creation
//   - QRContent is "USER_ID:<id>" and is set exactly once, at issuance
//   - CertificateFile/CertificateImage start empty and are attached at most
//     once, by the verification engine on first valid scan
type Registrant struct {
	ID                 id.RegistrantID       `json:"id"`
	Name               string                `json:"name"`
	Email              string                `json:"email"`
	Role               id.Role               `json:"role"`
	PasswordHash       string                `json:"-"`
	Profession         string                `json:"profession,omitempty"`
	City               string                `json:"city,omitempty"`
	State              string                `json:"state,omitempty"`
	Designation        string                `json:"designation,omitempty"`
	Phone              string                `json:"phone,omitempty"`
	RegistrationNumber id.RegistrationNumber `json:"registration_number"`
	Payment            PaymentInfo           `json:"payment_info"`
	QRContent          string                `json:"qr_content"`
	QRImagePath        string                `json:"qr_image"`
	CertificateFile    string                `json:"certificate_file,omitempty"`
	CertificateImage   string                `json:"certificate_image,omitempty"`
	RegisteredAt       time.Time             `json:"registered_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// HasCertificate reports whether both derived artifacts are present.
// Verification must regenerate when either ref is missing.
func (r *Registrant) HasCertificate() bool {
	return r.CertificateFile != "" && r.CertificateImage != ""
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const maxFieldLen = 100

// Validate enforces the field invariants before any side effect runs.
func (r *Registrant) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	if len(r.Name) > maxFieldLen {
		return dErrors.New(dErrors.CodeInvalidInput, "name cannot be more than 100 characters")
	}
	if !emailPattern.MatchString(r.Email) {
		return dErrors.New(dErrors.CodeInvalidInput, "a valid email is required")
	}
	if r.Role != id.RoleUser && r.Role != id.RoleAdmin {
		return dErrors.New(dErrors.CodeInvalidInput, "role must be user or admin")
	}
	for _, f := range []string{r.Profession, r.City, r.State, r.Designation} {
		if len(f) > maxFieldLen {
			return dErrors.New(dErrors.CodeInvalidInput, "field cannot be more than 100 characters")
		}
	}
	if len(r.Phone) > 20 {
		return dErrors.New(dErrors.CodeInvalidInput, "phone number cannot be more than 20 characters")
	}
	return nil
}

// NormalizeEmail lowercases and trims an email for case-insensitive matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
