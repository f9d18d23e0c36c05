package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"foodslink_backend/internal/models"
	"foodslink_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// nopExecutor satisfies repositories.SQLExecutor for the in-memory fakes,
// which ignore the executor entirely.
type nopExecutor struct{}

func (nopExecutor) Exec(string, ...interface{}) (sql.Result, error) { return nil, nil }
func (nopExecutor) QueryRow(string, ...interface{}) *sql.Row        { return nil }
func (nopExecutor) Query(string, ...interface{}) (*sql.Rows, error) { return nil, nil }

// memOrderRepo is an in-memory OrderRepository. txMu serializes transactions;
// mu guards each individual operation, so the revision guard is atomic even
// when callers race outside a transaction.
type memOrderRepo struct {
	txMu    sync.Mutex
	mu      sync.Mutex
	nextID  int64
	orders  map[int64]*models.Order
	lines   map[int64]*models.OrderLine
	charges map[int64]*models.AdditionalCharge
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{
		orders:  make(map[int64]*models.Order),
		lines:   make(map[int64]*models.OrderLine),
		charges: make(map[int64]*models.AdditionalCharge),
	}
}

func (m *memOrderRepo) WithinTx(fn func(ex repositories.SQLExecutor) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(nopExecutor{})
}

func (m *memOrderRepo) CreateOrder(_ repositories.SQLExecutor, order *models.Order) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	order.ID = m.nextID
	if order.Revision == 0 {
		order.Revision = 1
	}
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}
	stored := *order
	stored.Lines = nil
	stored.Charges = nil
	m.orders[order.ID] = &stored
	return order.ID, nil
}

func (m *memOrderRepo) GetOrderByID(orderID int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[orderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *stored
	return &cp, nil
}

func (m *memOrderRepo) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := []models.Order{}
	for _, o := range m.orders {
		if o.TenantID != filters.TenantID {
			continue
		}
		if filters.TableCode != nil && o.TableCode != *filters.TableCode {
			continue
		}
		if filters.Status != nil && o.Status != *filters.Status {
			continue
		}
		matched = append(matched, *o)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched, len(matched), nil
}

func (m *memOrderRepo) UpdateOrderGuard(_ repositories.SQLExecutor, orderID, expectedRevision int64, upd repositories.OrderUpdate) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[orderID]
	if !ok || stored.Revision != expectedRevision {
		return 0, nil
	}
	if upd.Status != nil {
		stored.Status = *upd.Status
	}
	if upd.PaymentMethod != nil {
		stored.PaymentMethod = upd.PaymentMethod
	}
	if upd.Subtotal != nil {
		stored.Subtotal = *upd.Subtotal
	}
	if upd.Total != nil {
		stored.Total = *upd.Total
	}
	stored.Revision++
	stored.UpdatedAt = time.Now()
	return 1, nil
}

func (m *memOrderRepo) DeleteOrder(_ repositories.SQLExecutor, orderID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[orderID]; !ok {
		return 0, repositories.ErrNotFound
	}
	delete(m.orders, orderID)
	return 1, nil
}

func (m *memOrderRepo) CreateOrderLine(_ repositories.SQLExecutor, line *models.OrderLine) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	line.ID = m.nextID
	stored := *line
	m.lines[line.ID] = &stored
	return line.ID, nil
}

func (m *memOrderRepo) GetOrderLines(orderID int64) ([]models.OrderLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := []models.OrderLine{}
	for _, l := range m.lines {
		if l.OrderID == orderID {
			lines = append(lines, *l)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines, nil
}

func (m *memOrderRepo) UpdateLineQuantity(_ repositories.SQLExecutor, lineID int64, quantity int, lineTotal decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.lines[lineID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.Quantity = quantity
	stored.LineTotal = lineTotal
	return nil
}

func (m *memOrderRepo) DeleteOrderLines(_ repositories.SQLExecutor, orderID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, l := range m.lines {
		if l.OrderID == orderID {
			delete(m.lines, id)
			removed++
		}
	}
	return removed, nil
}

func (m *memOrderRepo) CreateCharge(_ repositories.SQLExecutor, charge *models.AdditionalCharge) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	charge.ID = m.nextID
	stored := *charge
	m.charges[charge.ID] = &stored
	return charge.ID, nil
}

func (m *memOrderRepo) GetOrderCharges(orderID int64) ([]models.AdditionalCharge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	charges := []models.AdditionalCharge{}
	for _, ch := range m.charges {
		if ch.OrderID == orderID {
			charges = append(charges, *ch)
		}
	}
	sort.Slice(charges, func(i, j int) bool { return charges[i].ID < charges[j].ID })
	return charges, nil
}

func (m *memOrderRepo) UpdateChargeResolved(_ repositories.SQLExecutor, chargeID int64, resolved decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.charges[chargeID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.Resolved = resolved
	return nil
}

func (m *memOrderRepo) DeleteCharge(_ repositories.SQLExecutor, chargeID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.charges[chargeID]; !ok {
		return 0, repositories.ErrNotFound
	}
	delete(m.charges, chargeID)
	return 1, nil
}

func (m *memOrderRepo) DeleteOrderCharges(_ repositories.SQLExecutor, orderID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, ch := range m.charges {
		if ch.OrderID == orderID {
			delete(m.charges, id)
			removed++
		}
	}
	return removed, nil
}

// memSessionRepo is an in-memory TableSessionRepository.
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]map[int64]struct{}
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]map[int64]struct{})}
}

func (m *memSessionRepo) key(tenantID int64, tableCode string) string {
	return fmt.Sprintf("%d:%s", tenantID, tableCode)
}

func (m *memSessionRepo) AddOrder(_ context.Context, tenantID int64, tableCode string, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(tenantID, tableCode)
	if m.sessions[k] == nil {
		m.sessions[k] = make(map[int64]struct{})
	}
	m.sessions[k][orderID] = struct{}{}
	return nil
}

func (m *memSessionRepo) RemoveOrder(_ context.Context, tenantID int64, tableCode string, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions[m.key(tenantID, tableCode)], orderID)
	return nil
}

func (m *memSessionRepo) ActiveOrders(_ context.Context, tenantID int64, tableCode string) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []int64{}
	for id := range m.sessions[m.key(tenantID, tableCode)] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memSessionRepo) contains(tenantID int64, tableCode string, orderID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[m.key(tenantID, tableCode)][orderID]
	return ok
}

// memTenantRepo is an in-memory TenantRepository.
type memTenantRepo struct {
	tenants map[int64]*models.Tenant
}

func (m *memTenantRepo) GetTenantByID(tenantID int64) (*models.Tenant, error) {
	t, ok := m.tenants[tenantID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// captureNotifier records every published order event.
type captureNotifier struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (n *captureNotifier) NotifyOrderChanged(_ context.Context, event models.OrderEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *captureNotifier) all() []models.OrderEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.OrderEvent, len(n.events))
	copy(out, n.events)
	return out
}

// newTestOrderService wires an order service over the in-memory fakes.
func newTestOrderService() (OrderService, *memOrderRepo, *memSessionRepo, *captureNotifier) {
	orderRepo := newMemOrderRepo()
	sessionRepo := newMemSessionRepo()
	notifier := &captureNotifier{}
	return NewOrderService(orderRepo, sessionRepo, notifier), orderRepo, sessionRepo, notifier
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
