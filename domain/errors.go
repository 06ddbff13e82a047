package domain

import "errors"

// Error taxonomy shared across the core. Packages wrap these with
// fmt.Errorf("...: %w", err) and the HTTP edge maps them to status codes.
var (
	ErrValidation         = errors.New("invalid request")
	ErrNotFound           = errors.New("not found")
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrStaleItem          = errors.New("item is no longer in the catalog")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrSignature          = errors.New("payment signature mismatch")
	ErrMalformedCallback  = errors.New("malformed payment callback")
	ErrPaymentNotCaptured = errors.New("payment not captured")
	ErrPersistence        = errors.New("store operation failed")
	ErrGateway            = errors.New("payment gateway failure")
	ErrRefund             = errors.New("refund rejected by gateway")
	ErrInvalidState       = errors.New("illegal order status transition")
)
