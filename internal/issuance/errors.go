package issuance

import dErrors "gatepass/pkg/domain-errors"

var (
	// ErrPaymentNotConfirmed rejects issuance before any identity is
	// allocated: only paid or free registrations mint credentials.
	ErrPaymentNotConfirmed = dErrors.New(dErrors.CodeFailedPrecondition, "payment not confirmed")

	// ErrDuplicateEmail is returned for the losing writer of an email race
	// as well as the plain already-registered case.
	ErrDuplicateEmail = dErrors.New(dErrors.CodeConflict, "email is already registered")
)

// errEncodingFailed is fatal to issuance: an identity without a verification
// artifact is unusable at the gate.
func errEncodingFailed(cause error) error {
	return dErrors.Wrap(cause, dErrors.CodeInternal, "failed to render verification image")
}
