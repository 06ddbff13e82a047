package http

import (
	"net/http"
	"time"

	"github.com/debarkamondal/dezmerce-backend/domain"
	"github.com/debarkamondal/dezmerce-backend/internal/service"
)

type OrdersHandler struct {
	resolver SnapshotResolver
	ledger   OrderLedger
	sessions SessionIssuer
	settler  Settler
	tokens   OrderTokens
}

func NewOrdersHandler(resolver SnapshotResolver, ledger OrderLedger, sessions SessionIssuer, settler Settler, tokens OrderTokens) *OrdersHandler {
	return &OrdersHandler{
		resolver: resolver,
		ledger:   ledger,
		sessions: sessions,
		settler:  settler,
		tokens:   tokens,
	}
}

type CustomerDTO struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type CreateOrderRequestDTO struct {
	Customer CustomerDTO   `json:"customer"`
	Items    []CartItemDTO `json:"items,omitempty"`
}

type CreateOrderResponseDTO struct {
	OrderID string           `json:"order_id"`
	Token   string           `json:"token"`
	Total   string           `json:"total"`
	Session *service.Session `json:"session,omitempty"`
}

type OrderSummaryDTO struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Total      string `json:"total"`
	TrackingID string `json:"tracking_id,omitempty"`
	RefundID   string `json:"refund_id,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func orderSummary(order *domain.Order) OrderSummaryDTO {
	return OrderSummaryDTO{
		ID:         order.ID,
		Status:     string(order.Status),
		Total:      order.Receipt.Total.String(),
		TrackingID: order.TrackingID,
		RefundID:   order.RefundID,
		CreatedAt:  order.CreatedAt.Format(time.RFC3339),
	}
}

// POST /api/v1/orders
//
// Checkout. Authenticated users are priced from their stored cart, which
// the order write consumes; guests submit their items and a contact
// email. The response carries the order's capability token and, when the
// gateway is reachable, the checkout session.
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	owner := getUserEmail(r.Context())
	authenticated := owner != ""

	customer := domain.Customer{
		Name:    req.Customer.Name,
		Email:   req.Customer.Email,
		Phone:   req.Customer.Phone,
		Address: req.Customer.Address,
	}
	if authenticated {
		// The token identity wins over whatever the body claims.
		customer.Email = owner
	}

	var clientItems []domain.CartItem
	for _, item := range req.Items {
		clientItems = append(clientItems, domain.CartItem{
			Category: item.Category,
			ItemID:   item.ID,
			Quantity: item.Quantity,
		})
	}

	receipt, err := h.resolver.Resolve(r.Context(), owner, clientItems)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	order, err := h.ledger.CreateOrder(r.Context(), customer, receipt, authenticated)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	ref := domain.OrderRef{Owner: order.Owner, OrderID: order.ID}
	capToken, err := h.tokens.IssueOrderToken(ref)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	resp := CreateOrderResponseDTO{
		OrderID: order.ID,
		Token:   capToken,
		Total:   order.Receipt.Total.String(),
	}

	// The order exists regardless of the gateway; if the session cannot
	// be opened now the client retries via GET /payments/session.
	if session, err := h.sessions.GetOrCreateSession(r.Context(), ref); err == nil {
		resp.Session = session
	}

	respondJSON(w, http.StatusCreated, resp)
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	owner := getUserEmail(r.Context())

	orders, err := h.ledger.ListByOwner(r.Context(), owner)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	dtos := make([]OrderSummaryDTO, 0, len(orders))
	for _, order := range orders {
		dtos = append(dtos, orderSummary(order))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// GET /api/v1/orders/status?token=
//
// Status lookup by capability token; works for guests and users alike.
func (h *OrdersHandler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.orderRef(w, r)
	if !ok {
		return
	}

	order, err := h.ledger.GetOrder(r.Context(), *ref)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orderSummary(order))
}

type CancelOrderRequestDTO struct {
	Token string `json:"token"`
}

// POST /api/v1/orders/cancel
//
// Customer-initiated cancellation of a paid order, authorized by the
// order's capability token. Issues the refund and terminates the order.
func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ref, err := h.tokens.VerifyOrderToken(req.Token)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	order, err := h.settler.CancelOrder(r.Context(), *ref)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orderSummary(order))
}

func (h *OrdersHandler) orderRef(w http.ResponseWriter, r *http.Request) (*domain.OrderRef, bool) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "order token is required")
		return nil, false
	}
	ref, err := h.tokens.VerifyOrderToken(raw)
	if err != nil {
		handleDomainError(w, err)
		return nil, false
	}
	return ref, true
}
