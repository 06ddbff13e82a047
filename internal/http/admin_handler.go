package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/debarkamondal/dezmerce-backend/domain"
)

const defaultAdminListLimit = 50

type AdminHandler struct {
	ledger  OrderLedger
	settler Settler
}

func NewAdminHandler(ledger OrderLedger, settler Settler) *AdminHandler {
	return &AdminHandler{
		ledger:  ledger,
		settler: settler,
	}
}

type AdminOrderDTO struct {
	OrderSummaryDTO
	Owner    string      `json:"owner"`
	Customer CustomerDTO `json:"customer"`
}

func adminOrder(order *domain.Order) AdminOrderDTO {
	return AdminOrderDTO{
		OrderSummaryDTO: orderSummary(order),
		Owner:           order.Owner,
		Customer: CustomerDTO{
			Name:    order.Customer.Name,
			Email:   order.Customer.Email,
			Phone:   order.Customer.Phone,
			Address: order.Customer.Address,
		},
	}
}

// GET /api/v1/admin/orders?status=&limit=
//
// Status scan, newest-first. Defaults to paid: the orders waiting to be
// shipped.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = string(domain.OrderStatusPaid)
	}

	limit := defaultAdminListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	orders, err := h.ledger.ListByStatus(r.Context(), domain.OrderStatus(status), limit)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	dtos := make([]AdminOrderDTO, 0, len(orders))
	for _, order := range orders {
		dtos = append(dtos, adminOrder(order))
	}
	respondJSON(w, http.StatusOK, dtos)
}

type ShipOrderRequestDTO struct {
	Owner      string `json:"owner"`
	TrackingID string `json:"tracking_id"`
}

// POST /api/v1/admin/orders/{order_id}/ship
func (h *AdminHandler) ShipOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	var req ShipOrderRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Owner == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "owner is required")
		return
	}

	order, err := h.settler.Ship(r.Context(),
		domain.OrderRef{Owner: req.Owner, OrderID: orderID}, req.TrackingID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, adminOrder(order))
}

type DeliverOrderRequestDTO struct {
	Owner string `json:"owner"`
}

// POST /api/v1/admin/orders/{order_id}/deliver
func (h *AdminHandler) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	var req DeliverOrderRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Owner == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "owner is required")
		return
	}

	order, err := h.settler.MarkDelivered(r.Context(),
		domain.OrderRef{Owner: req.Owner, OrderID: orderID})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, adminOrder(order))
}

// POST /api/v1/admin/orders/{order_id}/cancel
//
// Admin-side refund-and-cancel of a paid order.
func (h *AdminHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	var req DeliverOrderRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Owner == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "owner is required")
		return
	}

	order, err := h.settler.CancelOrder(r.Context(),
		domain.OrderRef{Owner: req.Owner, OrderID: orderID})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, adminOrder(order))
}
