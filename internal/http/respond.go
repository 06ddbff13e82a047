package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/debarkamondal/dezmerce-backend/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleDomainError maps the service error taxonomy to HTTP statuses once,
// at the edge. Store and gateway diagnostics stay in the logs; the response
// body only carries the category.
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart has no items")
	case errors.Is(err, domain.ErrMalformedCallback):
		respondError(w, http.StatusBadRequest, "malformed_callback", "callback payload is incomplete or inconsistent")
	case errors.Is(err, domain.ErrSignature):
		respondError(w, http.StatusBadRequest, "invalid_signature", "callback signature verification failed")
	case errors.Is(err, domain.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, domain.ErrStaleItem):
		respondError(w, http.StatusConflict, "stale_item", err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		respondError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, domain.ErrPaymentNotCaptured):
		respondError(w, http.StatusConflict, "payment_not_captured", "payment is not captured")
	case errors.Is(err, domain.ErrGateway):
		respondError(w, http.StatusBadGateway, "gateway_error", "payment gateway request failed")
	case errors.Is(err, domain.ErrRefund):
		respondError(w, http.StatusBadGateway, "refund_failed", "payment gateway rejected the refund")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
