package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/debarkamondal/dezmerce-backend/domain"
	"github.com/debarkamondal/dezmerce-backend/internal/repository"
	"github.com/debarkamondal/dezmerce-backend/internal/service"
)

// --- Mocks ---

type ResolverMock struct {
	receipt *domain.Receipt
	err     error
}

func (m ResolverMock) Resolve(_ context.Context, _ string, _ []domain.CartItem) (*domain.Receipt, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.receipt, nil
}

type LedgerMock struct {
	order  *domain.Order
	orders []*domain.Order
	err    error

	gotCustomer      domain.Customer
	gotAuthenticated bool
	gotStatus        domain.OrderStatus
}

func (m *LedgerMock) CreateOrder(_ context.Context, customer domain.Customer, receipt *domain.Receipt, authenticated bool) (*domain.Order, error) {
	m.gotCustomer = customer
	m.gotAuthenticated = authenticated
	if m.err != nil {
		return nil, m.err
	}
	order := *m.order
	order.Customer = customer
	order.Owner = customer.Email
	order.Receipt = *receipt
	return &order, nil
}

func (m *LedgerMock) GetOrder(_ context.Context, _ domain.OrderRef) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *LedgerMock) ListByOwner(_ context.Context, _ string) ([]*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

func (m *LedgerMock) ListByStatus(_ context.Context, status domain.OrderStatus, _ int) ([]*domain.Order, error) {
	m.gotStatus = status
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

type SessionsMock struct {
	session *service.Session
	err     error
	calls   int
}

func (m *SessionsMock) GetOrCreateSession(_ context.Context, _ domain.OrderRef) (*service.Session, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

type SettlerMock struct {
	order *domain.Order
	err   error

	gotCallback   service.Callback
	gotRef        domain.OrderRef
	gotTrackingID string
}

func (m *SettlerMock) ConfirmPayment(_ context.Context, cb service.Callback) (*domain.Order, error) {
	m.gotCallback = cb
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *SettlerMock) CancelOrder(_ context.Context, ref domain.OrderRef) (*domain.Order, error) {
	m.gotRef = ref
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *SettlerMock) Ship(_ context.Context, ref domain.OrderRef, trackingID string) (*domain.Order, error) {
	m.gotRef = ref
	m.gotTrackingID = trackingID
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *SettlerMock) MarkDelivered(_ context.Context, ref domain.OrderRef) (*domain.Order, error) {
	m.gotRef = ref
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

// TokensMock verifies any token of the form "tok:<owner>:<order id>".
type TokensMock struct{}

func (TokensMock) IssueOrderToken(ref domain.OrderRef) (string, error) {
	return "tok:" + ref.Owner + ":" + ref.OrderID, nil
}

func (TokensMock) VerifyOrderToken(tokenString string) (*domain.OrderRef, error) {
	rest, ok := strings.CutPrefix(tokenString, "tok:")
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	owner, orderID, ok := strings.Cut(rest, ":")
	if !ok || owner == "" || orderID == "" {
		return nil, domain.ErrUnauthorized
	}
	return &domain.OrderRef{Owner: owner, OrderID: orderID}, nil
}

// VerifierMock treats "user-token" and "admin-token" as valid sessions.
type VerifierMock struct{}

func (VerifierMock) VerifyUserToken(tokenString string) (string, string, error) {
	switch tokenString {
	case "user-token":
		return "jane@example.com", "", nil
	case "admin-token":
		return "admin@example.com", "admin", nil
	}
	return "", "", domain.ErrUnauthorized
}

type CartsMock struct {
	cart *domain.Cart
	err  error

	putCart *domain.Cart
}

func (m *CartsMock) GetCart(_ context.Context, _ string) (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, repository.ErrCartNotFound
	}
	return m.cart, nil
}

func (m *CartsMock) PutCart(_ context.Context, cart *domain.Cart) error {
	if m.err != nil {
		return m.err
	}
	m.putCart = cart
	return nil
}

func (m *CartsMock) DeleteCart(_ context.Context, _ string) error {
	return m.err
}

type CatalogMock struct {
	entries map[string]domain.CatalogEntry
	err     error
}

func (m CatalogMock) Lookup(_ context.Context, refs []domain.ItemRef) (map[string]domain.CatalogEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]domain.CatalogEntry)
	for _, ref := range refs {
		if entry, ok := m.entries[ref.Key()]; ok {
			out[ref.Key()] = entry
		}
	}
	return out, nil
}

// --- helpers ---

func withUser(r *http.Request, email string) *http.Request {
	ctx := context.WithValue(r.Context(), userEmailKey, email)
	return r.WithContext(ctx)
}
