package http

import (
	"net/http"

	"github.com/debarkamondal/dezmerce-backend/internal/service"
)

type PaymentsHandler struct {
	sessions SessionIssuer
	settler  Settler
	tokens   OrderTokens
}

func NewPaymentsHandler(sessions SessionIssuer, settler Settler, tokens OrderTokens) *PaymentsHandler {
	return &PaymentsHandler{
		sessions: sessions,
		settler:  settler,
		tokens:   tokens,
	}
}

// GET /api/v1/payments/session?token=
//
// Returns the gateway checkout session for the order, creating it on
// first call. Safe to call repeatedly; the gateway order id never
// changes once bound.
func (h *PaymentsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "order token is required")
		return
	}
	ref, err := h.tokens.VerifyOrderToken(raw)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	session, err := h.sessions.GetOrCreateSession(r.Context(), *ref)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

type PaymentConfirmationDTO struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// POST /api/v1/payments/callback
//
// The gateway posts the checkout outcome here, form-encoded. The target
// order is derived from the gateway's own payment record, so the route
// needs no token; the HMAC signature is the authentication.
func (h *PaymentsHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "malformed_callback", "invalid form body")
		return
	}

	cb := service.Callback{
		GatewayOrderID: r.PostFormValue("razorpay_order_id"),
		PaymentID:      r.PostFormValue("razorpay_payment_id"),
		Signature:      r.PostFormValue("razorpay_signature"),
	}

	order, err := h.settler.ConfirmPayment(r.Context(), cb)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, PaymentConfirmationDTO{
		OrderID: order.ID,
		Status:  string(order.Status),
	})
}
