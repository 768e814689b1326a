package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gatepass/internal/issuance"
	"gatepass/internal/payment"
	"gatepass/pkg/platform/httputil"
)

// PaymentHandler runs the public registration path: gateway callback in,
// issued identity out.
type PaymentHandler struct {
	payments *payment.Verifier
	issuance *issuance.Service
	logger   *slog.Logger
}

func NewPaymentHandler(payments *payment.Verifier, issuanceSvc *issuance.Service, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		issuance: issuanceSvc,
		logger:   logger,
	}
}

func (h *PaymentHandler) Register(r chi.Router) {
	r.Post("/payments/verify", h.handleVerify)
}

type verifyPaymentRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
	Amount    int64  `json:"amount"`

	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Profession  string `json:"profession"`
	City        string `json:"city"`
	State       string `json:"state"`
	Designation string `json:"designation"`
	Phone       string `json:"phone"`
}

func (h *PaymentHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[verifyPaymentRequest](w, r, h.logger)
	if !ok {
		return
	}

	fact, err := h.payments.Verify(payment.Callback{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		Amount:    req.Amount,
	})
	if err != nil {
		h.logger.WarnContext(r.Context(), "payment verification rejected",
			"order_id", req.OrderID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	registrant, err := h.issuance.Issue(r.Context(), issuance.RegistrantData{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Profession:  req.Profession,
		City:        req.City,
		State:       req.State,
		Designation: req.Designation,
		Phone:       req.Phone,
	}, fact)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, registrant)
}
