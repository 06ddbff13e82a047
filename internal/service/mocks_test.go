package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/debarkamondal/dezmerce-backend/domain"
	"github.com/debarkamondal/dezmerce-backend/internal/cache"
	"github.com/debarkamondal/dezmerce-backend/internal/gateway"
	"github.com/debarkamondal/dezmerce-backend/internal/repository"
)

// MockCatalogRepository implements repository.CatalogRepository for testing
type MockCatalogRepository struct {
	Entries map[string]domain.CatalogEntry // keyed by domain.ItemKey
	Err     error
	Calls   int
}

func (m *MockCatalogRepository) BatchGet(_ context.Context, refs []domain.ItemRef) ([]domain.CatalogEntry, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	var out []domain.CatalogEntry
	for _, ref := range refs {
		if entry, ok := m.Entries[ref.Key()]; ok {
			out = append(out, entry)
		}
	}
	return out, nil
}

// MockCatalogCache implements cache.CatalogCache for testing
type MockCatalogCache struct {
	mu      sync.Mutex
	Stored  map[string]domain.CatalogEntry
	GetErr  error
	SetErr  error
	GetHits int
}

func (m *MockCatalogCache) Get(_ context.Context, ref domain.ItemRef) (*domain.CatalogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	entry, ok := m.Stored[ref.Key()]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	m.GetHits++
	return &entry, nil
}

func (m *MockCatalogCache) Set(_ context.Context, entry *domain.CatalogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	if m.Stored == nil {
		m.Stored = make(map[string]domain.CatalogEntry)
	}
	m.Stored[entry.Key()] = *entry
	return nil
}

func (m *MockCatalogCache) Delete(_ context.Context, ref domain.ItemRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Stored, ref.Key())
	return nil
}

// MockCartRepository implements repository.CartRepository for testing
type MockCartRepository struct {
	Carts  map[string]*domain.Cart
	GetErr error
}

func (m *MockCartRepository) GetCart(_ context.Context, owner string) (*domain.Cart, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	cart, ok := m.Carts[owner]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return cart, nil
}

func (m *MockCartRepository) PutCart(_ context.Context, cart *domain.Cart) error {
	if m.Carts == nil {
		m.Carts = make(map[string]*domain.Cart)
	}
	m.Carts[cart.Owner] = cart
	return nil
}

func (m *MockCartRepository) DeleteCart(_ context.Context, owner string) error {
	if _, ok := m.Carts[owner]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.Carts, owner)
	return nil
}

// MockOrderRepository implements repository.OrderRepository with the same
// conditional-update semantics as the store, so settlement races can be
// exercised without a database.
type MockOrderRepository struct {
	mu      sync.Mutex
	Orders  map[string]*domain.Order          // keyed owner:id
	Index   map[string][]string               // owner -> order ids
	Markers map[string]*repository.RefundMarker

	Carts *MockCartRepository // consumed by CreateOrder when set

	CreateErr        error
	GetErr           error
	SetGatewayErr    error
	MarkPaidErr      error
	MarkCancelledErr error
	PutMarkerErr     error

	ConsumedCart bool
}

func key(owner, id string) string { return owner + ":" + id }

func (m *MockOrderRepository) CreateOrder(_ context.Context, order *domain.Order, consumeCart bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if m.Orders == nil {
		m.Orders = make(map[string]*domain.Order)
	}
	k := key(order.Owner, order.ID)
	if _, ok := m.Orders[k]; ok {
		return repository.ErrDuplicateOrder
	}
	stored := *order
	m.Orders[k] = &stored

	if consumeCart {
		if m.Index == nil {
			m.Index = make(map[string][]string)
		}
		m.Index[order.Owner] = append(m.Index[order.Owner], order.ID)
		if m.Carts != nil {
			delete(m.Carts.Carts, order.Owner)
		}
		m.ConsumedCart = true
	}
	return nil
}

func (m *MockOrderRepository) GetOrder(_ context.Context, owner, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	order, ok := m.Orders[key(owner, orderID)]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *MockOrderRepository) ListByOwner(_ context.Context, owner string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	ids := m.Index[owner]
	for i := len(ids) - 1; i >= 0; i-- {
		if order, ok := m.Orders[key(owner, ids[i])]; ok {
			copied := *order
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockOrderRepository) ListByStatus(_ context.Context, status domain.OrderStatus, _ int) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, order := range m.Orders {
		if order.Status == status {
			copied := *order
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockOrderRepository) SetGatewayOrderID(_ context.Context, owner, orderID, gatewayOrderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetGatewayErr != nil {
		return false, m.SetGatewayErr
	}
	order, ok := m.Orders[key(owner, orderID)]
	if !ok || order.GatewayOrderID != "" {
		return false, nil
	}
	order.GatewayOrderID = gatewayOrderID
	return true, nil
}

func (m *MockOrderRepository) MarkPaid(_ context.Context, owner, orderID, paymentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkPaidErr != nil {
		return false, m.MarkPaidErr
	}
	order, ok := m.Orders[key(owner, orderID)]
	if !ok || order.Status != domain.OrderStatusInitiated || order.GatewayPaymentID != "" {
		return false, nil
	}
	order.Status = domain.OrderStatusPaid
	order.GatewayPaymentID = paymentID
	return true, nil
}

func (m *MockOrderRepository) MarkCancelled(_ context.Context, owner, orderID, refundID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkCancelledErr != nil {
		return false, m.MarkCancelledErr
	}
	order, ok := m.Orders[key(owner, orderID)]
	if !ok {
		return false, nil
	}
	fresh := order.Status == domain.OrderStatusPaid && order.RefundID == ""
	retry := order.RefundID == refundID && refundID != ""
	if !fresh && !retry {
		return false, nil
	}
	order.Status = domain.OrderStatusCancelled
	order.RefundID = refundID
	return true, nil
}

func (m *MockOrderRepository) SetTracking(_ context.Context, owner, orderID, trackingID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.Orders[key(owner, orderID)]
	if !ok || order.Status != domain.OrderStatusPaid {
		return false, nil
	}
	order.Status = domain.OrderStatusShipped
	order.TrackingID = trackingID
	return true, nil
}

func (m *MockOrderRepository) MarkDelivered(_ context.Context, owner, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.Orders[key(owner, orderID)]
	if !ok || order.Status != domain.OrderStatusShipped {
		return false, nil
	}
	order.Status = domain.OrderStatusDelivered
	return true, nil
}

func (m *MockOrderRepository) PutRefundMarker(_ context.Context, marker *repository.RefundMarker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutMarkerErr != nil {
		return m.PutMarkerErr
	}
	if m.Markers == nil {
		m.Markers = make(map[string]*repository.RefundMarker)
	}
	m.Markers[marker.RefundID] = marker
	return nil
}

func (m *MockOrderRepository) ListRefundMarkers(_ context.Context, _ int) ([]*repository.RefundMarker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*repository.RefundMarker
	for _, marker := range m.Markers {
		out = append(out, marker)
	}
	return out, nil
}

func (m *MockOrderRepository) DeleteRefundMarker(_ context.Context, refundID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Markers, refundID)
	return nil
}

// MockGateway implements PaymentGateway for testing
type MockGateway struct {
	Secret string

	NextGatewayOrderID string
	OrderStatus        string // defaults to "created"
	CreateOrderErr     error
	CreateOrderCalls   int

	Payments map[string]*gateway.Payment
	FetchErr error

	RefundResult *gateway.Refund
	RefundErr    error
	RefundCalls  int
}

func (m *MockGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*gateway.Order, error) {
	m.CreateOrderCalls++
	if m.CreateOrderErr != nil {
		return nil, m.CreateOrderErr
	}
	status := m.OrderStatus
	if status == "" {
		status = gateway.OrderStatusCreated
	}
	id := m.NextGatewayOrderID
	if id == "" {
		id = fmt.Sprintf("gw_%d", m.CreateOrderCalls)
	}
	return &gateway.Order{ID: id, Status: status, Amount: amount, Currency: currency, Receipt: receipt}, nil
}

func (m *MockGateway) FetchPayment(_ context.Context, paymentID string) (*gateway.Payment, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	payment, ok := m.Payments[paymentID]
	if !ok {
		return nil, errors.New("payment not found")
	}
	return payment, nil
}

func (m *MockGateway) Refund(_ context.Context, _ string, _ int64) (*gateway.Refund, error) {
	m.RefundCalls++
	if m.RefundErr != nil {
		return nil, m.RefundErr
	}
	if m.RefundResult != nil {
		return m.RefundResult, nil
	}
	return &gateway.Refund{ID: "rfnd_1", Status: gateway.RefundStatusProcessed}, nil
}

func (m *MockGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return gateway.VerifySignature(gatewayOrderID, paymentID, signature, m.Secret)
}

// MockAuditPublisher captures published settlement events
type MockAuditPublisher struct {
	mu     sync.Mutex
	Events []domain.AuditEvent
	Err    error
}

func (m *MockAuditPublisher) Publish(_ context.Context, event domain.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockAuditPublisher) Published() []domain.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditEvent(nil), m.Events...)
}
