package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Order statuses the gateway reports.
const (
	OrderStatusCreated = "created"

	PaymentStatusCaptured = "captured"

	RefundStatusProcessed = "processed"
	RefundStatusPending   = "pending"
)

// Order is a checkout session created on the gateway for one of our orders.
type Order struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// Payment is the gateway's own record of a charge. Description carries the
// receipt reference ("order:<id>") the session was created with.
type Payment struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	Email       string `json:"email"`
	Contact     string `json:"contact"`
	Description string `json:"description"`
}

type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.status, e.body)
}

func (e *apiError) retryable() bool {
	return e.status >= 500
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
	breaker    *gobreaker.CircuitBreaker[[]byte]
	attempts   int
	backoff    time.Duration
}

// NewClient builds the gateway adapter. Calls carry a hard timeout, a
// small bounded retry for transient failures and a circuit breaker so a
// dead gateway fails fast instead of piling up blocked requests.
func NewClient(baseURL, keyID, keySecret string) *Client {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		keyID:      keyID,
		keySecret:  keySecret,
		breaker:    breaker,
		attempts:   3,
		backoff:    200 * time.Millisecond,
	}
}

// CreateOrder opens a gateway checkout session for the given amount in
// minor currency units. receipt carries our order reference.
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	payload := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}

	data, err := c.do(ctx, http.MethodPost, "/v1/orders", payload)
	if err != nil {
		return nil, err
	}

	var order Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("failed to decode gateway order: %w", err)
	}
	return &order, nil
}

func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	data, err := c.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil)
	if err != nil {
		return nil, err
	}

	var payment Payment
	if err := json.Unmarshal(data, &payment); err != nil {
		return nil, fmt.Errorf("failed to decode gateway payment: %w", err)
	}
	return &payment, nil
}

// Refund asks the gateway to return the captured amount for a payment.
func (c *Client) Refund(ctx context.Context, paymentID string, amount int64) (*Refund, error) {
	payload := map[string]interface{}{"amount": amount}

	data, err := c.do(ctx, http.MethodPost, "/v1/payments/"+paymentID+"/refund", payload)
	if err != nil {
		return nil, err
	}

	var refund Refund
	if err := json.Unmarshal(data, &refund); err != nil {
		return nil, fmt.Errorf("failed to decode gateway refund: %w", err)
	}
	return &refund, nil
}

// VerifySignature checks a callback signature against this client's secret.
func (c *Client) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return VerifySignature(gatewayOrderID, paymentID, signature, c.keySecret)
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal gateway request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, c.backoff<<uint(attempt-1)); err != nil {
				return nil, err
			}
		}

		data, err := c.breaker.Execute(func() ([]byte, error) {
			return c.roundTrip(ctx, method, path, body)
		})
		if err == nil {
			return data, nil
		}
		lastErr = err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		var apiErr *apiError
		if errors.As(err, &apiErr) && !apiErr.retryable() {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	return nil, lastErr
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &apiError{status: resp.StatusCode, body: string(data)}
	}

	return data, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
