// Package payment turns gateway callbacks into trusted payment facts. Nothing
// downstream ever re-checks a signature; this is the only place the gateway
// secret is used.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"gatepass/internal/registrant/models"
	dErrors "gatepass/pkg/domain-errors"
)

// Placeholder references recorded for zero-amount registrations. They keep
// the payment columns non-empty so free and paid identities share one shape.
const (
	FreeOrderID   = "FREE_REGISTRATION"
	FreePaymentID = "FREE_PAYMENT"
	FreeSignature = "FREE_SIGNATURE"
)

// ErrSignatureMismatch rejects a callback whose signature does not match the
// order and payment identifiers. No identity is allocated past this point.
var ErrSignatureMismatch = dErrors.New(dErrors.CodeFailedPrecondition, "payment verification failed")

// Callback is the raw gateway notification as presented by the client.
type Callback struct {
	OrderID   string
	PaymentID string
	Signature string
	Amount    int64
}

// Verifier validates gateway callbacks against the shared signing secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks the callback and returns the payment fact to issue against.
//
// A zero amount is a free registration: no gateway round trip happened, so
// there is nothing to verify and placeholder references are recorded instead.
func (v *Verifier) Verify(cb Callback) (models.PaymentInfo, error) {
	if cb.Amount == 0 {
		return FreeFact(), nil
	}

	if cb.OrderID == "" || cb.PaymentID == "" || cb.Signature == "" {
		return models.PaymentInfo{}, dErrors.New(dErrors.CodeInvalidInput, "missing payment verification fields")
	}
	if !hmac.Equal([]byte(v.sign(cb.OrderID, cb.PaymentID)), []byte(cb.Signature)) {
		return models.PaymentInfo{}, ErrSignatureMismatch
	}

	return models.PaymentInfo{
		OrderID:   cb.OrderID,
		PaymentID: cb.PaymentID,
		Signature: cb.Signature,
		Amount:    cb.Amount,
		Status:    models.PaymentPaid,
	}, nil
}

// FreeFact is the payment fact recorded for registrations created without a
// gateway round trip: zero-amount callbacks and admin account creation.
func FreeFact() models.PaymentInfo {
	return models.PaymentInfo{
		OrderID:   FreeOrderID,
		PaymentID: FreePaymentID,
		Signature: FreeSignature,
		Amount:    0,
		Status:    models.PaymentFree,
	}
}

func (v *Verifier) sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
