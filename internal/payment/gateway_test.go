package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/registrant/models"
	dErrors "gatepass/pkg/domain-errors"
)

func signedCallback(secret string, amount int64) Callback {
	cb := Callback{OrderID: "order-42", PaymentID: "pay-42", Amount: amount}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(cb.OrderID + "|" + cb.PaymentID))
	cb.Signature = hex.EncodeToString(mac.Sum(nil))
	return cb
}

func TestVerify(t *testing.T) {
	verifier := NewVerifier("gateway-secret")

	t.Run("accepts a correctly signed callback", func(t *testing.T) {
		fact, err := verifier.Verify(signedCallback("gateway-secret", 5000))
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPaid, fact.Status)
		assert.Equal(t, "order-42", fact.OrderID)
		assert.Equal(t, int64(5000), fact.Amount)
	})

	t.Run("rejects a signature minted with the wrong secret", func(t *testing.T) {
		_, err := verifier.Verify(signedCallback("attacker-secret", 5000))
		require.ErrorIs(t, err, ErrSignatureMismatch)
	})

	t.Run("rejects a tampered callback", func(t *testing.T) {
		cb := signedCallback("gateway-secret", 5000)
		cb.PaymentID = "pay-evil"
		_, err := verifier.Verify(cb)
		require.ErrorIs(t, err, ErrSignatureMismatch)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		cb := signedCallback("gateway-secret", 5000)
		cb.Signature = ""
		_, err := verifier.Verify(cb)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("zero amount skips verification entirely", func(t *testing.T) {
		fact, err := verifier.Verify(Callback{Amount: 0})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentFree, fact.Status)
		assert.Equal(t, FreeOrderID, fact.OrderID)
		assert.Equal(t, FreePaymentID, fact.PaymentID)
	})
}

func TestFreeFactIsConfirmed(t *testing.T) {
	assert.True(t, FreeFact().Status.Confirmed())
}
