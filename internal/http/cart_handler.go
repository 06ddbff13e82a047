package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/debarkamondal/dezmerce-backend/domain"
	"github.com/debarkamondal/dezmerce-backend/internal/repository"
	"github.com/debarkamondal/dezmerce-backend/internal/service"
)

type CartHandler struct {
	carts   repository.CartRepository
	catalog service.CatalogLookup
}

func NewCartHandler(carts repository.CartRepository, catalog service.CatalogLookup) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: catalog,
	}
}

type CartItemDTO struct {
	Category string `json:"category"`
	ID       string `json:"id"`
	Quantity int    `json:"qty"`
}

type CartResponseDTO struct {
	Items []CartItemDTO `json:"items"`
}

type PriceEntryDTO struct {
	Category string `json:"category"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
}

type PricesResponseDTO struct {
	Items []PriceEntryDTO `json:"items"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	owner := getUserEmail(r.Context())

	cart, err := h.carts.GetCart(r.Context(), owner)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			respondJSON(w, http.StatusOK, CartResponseDTO{Items: []CartItemDTO{}})
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	items := make([]CartItemDTO, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemDTO{Category: item.Category, ID: item.ItemID, Quantity: item.Quantity})
	}
	respondJSON(w, http.StatusOK, CartResponseDTO{Items: items})
}

// POST /api/v1/cart replaces the stored cart wholesale.
func (h *CartHandler) PutCart(w http.ResponseWriter, r *http.Request) {
	owner := getUserEmail(r.Context())

	var req CartResponseDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	items := make([]domain.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Category == "" || item.ID == "" {
			respondError(w, http.StatusBadRequest, "invalid_request", "item category and id are required")
			return
		}
		if item.Quantity <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_request", "item qty must be positive")
			return
		}
		items = append(items, domain.CartItem{Category: item.Category, ItemID: item.ID, Quantity: item.Quantity})
	}

	cart := &domain.Cart{
		Owner:     owner,
		Items:     items,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.carts.PutCart(r.Context(), cart); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to store cart")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PUT /api/v1/cart/prices revalidates client-held items against the
// catalog. Public: guests refresh their local cart with trusted prices
// before checkout.
func (h *CartHandler) RevalidatePrices(w http.ResponseWriter, r *http.Request) {
	var req CartResponseDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "no items submitted")
		return
	}

	refs := make([]domain.ItemRef, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Category == "" || item.ID == "" {
			respondError(w, http.StatusBadRequest, "invalid_request", "item category and id are required")
			return
		}
		refs = append(refs, domain.ItemRef{Category: item.Category, ItemID: item.ID})
	}

	entries, err := h.catalog.Lookup(r.Context(), refs)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "price lookup failed")
		return
	}

	// Items no longer in the catalog are omitted; the client drops them.
	out := make([]PriceEntryDTO, 0, len(entries))
	for _, ref := range refs {
		entry, ok := entries[ref.Key()]
		if !ok {
			continue
		}
		out = append(out, PriceEntryDTO{
			Category: entry.Category,
			ID:       entry.ItemID,
			Title:    entry.Title,
			Price:    entry.Price.String(),
		})
	}
	respondJSON(w, http.StatusOK, PricesResponseDTO{Items: out})
}
