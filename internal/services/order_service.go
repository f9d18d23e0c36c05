package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foodslink_backend/internal/models"
	"foodslink_backend/internal/repositories"
	"foodslink_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Data Transfer Objects (DTOs) ---

// CreateOrderLineRequest is one submitted cart line. Item name and unit price
// are captured here and frozen on the order; the catalog is not consulted.
type CreateOrderLineRequest struct {
	ItemID    int64           `json:"item_id" binding:"required"`
	ItemName  string          `json:"item_name" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Note      string          `json:"note"`
}

// CreateChargeRequest describes an additional charge (tax, packing, service).
type CreateChargeRequest struct {
	Label  string          `json:"label" binding:"required"`
	Kind   string          `json:"kind" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// CreateOrderRequest is used for creating a new order from a submitted cart.
type CreateOrderRequest struct {
	TenantID            int64                    `json:"tenant" binding:"required"`
	TableCode           string                   `json:"table" binding:"required"`
	CustomerName        string                   `json:"customer"`
	ImmediateSettlement bool                     `json:"immediate_settlement"`
	PaymentMethod       *string                  `json:"payment_method"`
	Lines               []CreateOrderLineRequest `json:"lines" binding:"required,dive"`
	Charges             []CreateChargeRequest    `json:"charges" binding:"omitempty,dive"`
}

// AdvanceOrderRequest moves an order along the status graph. ExpectedRevision
// is the revision the caller last observed; a mismatch rejects the write.
type AdvanceOrderRequest struct {
	TargetStatus     string  `json:"target_status" binding:"required"`
	ExpectedRevision int64   `json:"expected_revision" binding:"required"`
	PaymentMethod    *string `json:"payment_method"`
}

// AddChargeRequest attaches an additional charge to an open order.
type AddChargeRequest struct {
	Label            string          `json:"label" binding:"required"`
	Kind             string          `json:"kind" binding:"required"`
	Amount           decimal.Decimal `json:"amount"`
	ExpectedRevision int64           `json:"expected_revision" binding:"required"`
}

// UpdateLineQuantityRequest adjusts a line before kitchen acknowledgement.
// Quantity 0 keeps the line but removes it from billing.
type UpdateLineQuantityRequest struct {
	Quantity         *int  `json:"quantity" binding:"required"`
	ExpectedRevision int64 `json:"expected_revision" binding:"required"`
}

// --- End of DTOs ---

// OrderNotifier receives an event after every committed order mutation. It is
// a best-effort supplement to polling: implementations must not block and any
// delivery failure is logged, never surfaced to the mutating caller.
type OrderNotifier interface {
	NotifyOrderChanged(ctx context.Context, event models.OrderEvent)
}

// --- OrderService Interface ---

type OrderService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderByID(tenantID, orderID int64) (*models.Order, error)
	AdvanceOrder(ctx context.Context, tenantID, orderID int64, req AdvanceOrderRequest) (*models.Order, error)
	AddCharge(ctx context.Context, tenantID, orderID int64, req AddChargeRequest) (*models.Order, error)
	RemoveCharge(ctx context.Context, tenantID, orderID, chargeID, expectedRevision int64) (*models.Order, error)
	UpdateLineQuantity(ctx context.Context, tenantID, orderID, lineID int64, req UpdateLineQuantityRequest) (*models.Order, error)
	DeleteOrder(ctx context.Context, tenantID, orderID int64) error
	ActiveTableOrders(ctx context.Context, tenantID int64, tableCode string) (*models.TableSession, error)
}

// --- orderService Implementation ---

type orderService struct {
	orderRepo   repositories.OrderRepository
	sessionRepo repositories.TableSessionRepository
	notifier    OrderNotifier
}

// NewOrderService creates a new instance of OrderService. notifier may be nil.
func NewOrderService(
	or repositories.OrderRepository,
	sr repositories.TableSessionRepository,
	notifier OrderNotifier,
) OrderService {
	return &orderService{
		orderRepo:   or,
		sessionRepo: sr,
		notifier:    notifier,
	}
}

// --- Method Implementations ---

func (s *orderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	linesToCreate := make([]models.OrderLine, 0, len(req.Lines))
	billable := 0
	for _, lineReq := range req.Lines {
		if lineReq.Quantity < 0 {
			return nil, fmt.Errorf("%w: quantity for item ID %d must not be negative", ErrValidation, lineReq.ItemID)
		}
		if lineReq.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: unit price for item ID %d must not be negative", ErrValidation, lineReq.ItemID)
		}
		if lineReq.Quantity >= 1 {
			billable++
		}
		line := models.OrderLine{
			ItemID:    lineReq.ItemID,
			ItemName:  lineReq.ItemName,
			UnitPrice: lineReq.UnitPrice,
			Quantity:  lineReq.Quantity,
			Note:      models.StringPtr(lineReq.Note),
		}
		line.LineTotal = LineTotal(line)
		linesToCreate = append(linesToCreate, line)
	}
	if billable == 0 {
		return nil, ErrEmptyOrder
	}

	chargesToCreate := make([]models.AdditionalCharge, 0, len(req.Charges))
	for _, chargeReq := range req.Charges {
		if err := validateCharge(chargeReq.Kind, chargeReq.Amount); err != nil {
			return nil, err
		}
		chargesToCreate = append(chargesToCreate, models.AdditionalCharge{
			Label:  chargeReq.Label,
			Kind:   chargeReq.Kind,
			Amount: chargeReq.Amount,
		})
	}

	status := StatusPending
	var paymentMethod *string
	if req.ImmediateSettlement {
		if req.PaymentMethod == nil || !IsValidPaymentMethod(*req.PaymentMethod) {
			return nil, fmt.Errorf("%w: immediate settlement requires a payment method (cash or online)", ErrValidation)
		}
		status = StatusPaid
		paymentMethod = req.PaymentMethod
	}

	subtotal, total, resolvedCharges := ComputeBilling(linesToCreate, chargesToCreate)

	order := &models.Order{
		TenantID:      req.TenantID,
		TableCode:     req.TableCode,
		CustomerName:  models.StringPtr(req.CustomerName),
		Status:        status,
		PaymentMethod: paymentMethod,
		Subtotal:      subtotal,
		Total:         total,
		Revision:      1,
	}

	err := s.orderRepo.WithinTx(func(ex repositories.SQLExecutor) error {
		if _, repoErr := s.orderRepo.CreateOrder(ex, order); repoErr != nil {
			return fmt.Errorf("failed to create order record: %w", repoErr)
		}
		for i := range linesToCreate {
			linesToCreate[i].OrderID = order.ID
			if _, repoErr := s.orderRepo.CreateOrderLine(ex, &linesToCreate[i]); repoErr != nil {
				return fmt.Errorf("failed to create order line (item_id: %d): %w", linesToCreate[i].ItemID, repoErr)
			}
		}
		for i := range resolvedCharges {
			resolvedCharges[i].OrderID = order.ID
			if _, repoErr := s.orderRepo.CreateCharge(ex, &resolvedCharges[i]); repoErr != nil {
				return fmt.Errorf("failed to create charge %q: %w", resolvedCharges[i].Label, repoErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Lines = linesToCreate
	order.Charges = resolvedCharges

	// An order joins its table session only while it is unpaid.
	if order.Status != StatusPaid {
		if sessErr := s.sessionRepo.AddOrder(ctx, order.TenantID, order.TableCode, order.ID); sessErr != nil {
			utils.LogError(sessErr, fmt.Sprintf("CreateOrder: failed to register order %d in table session", order.ID))
		}
	}

	s.notify(ctx, order)
	return order, nil
}

func (s *orderService) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	orders, totalCount, err := s.orderRepo.GetOrders(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, totalCount, nil
}

func (s *orderService) GetOrderByID(tenantID, orderID int64) (*models.Order, error) {
	order, err := s.loadOwnedOrder(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.attachDetails(order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) AdvanceOrder(ctx context.Context, tenantID, orderID int64, req AdvanceOrderRequest) (*models.Order, error) {
	order, err := s.loadOwnedOrder(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == StatusPaid {
		return nil, ErrOrderClosed
	}
	if !IsValidOrderStatus(req.TargetStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.TargetStatus)
	}
	if !CanTransition(order.Status, req.TargetStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, req.TargetStatus)
	}

	upd := repositories.OrderUpdate{Status: &req.TargetStatus}
	if req.TargetStatus == StatusPaid {
		if req.PaymentMethod == nil || !IsValidPaymentMethod(*req.PaymentMethod) {
			return nil, fmt.Errorf("%w: settling an order requires a payment method (cash or online)", ErrValidation)
		}
		upd.PaymentMethod = req.PaymentMethod
	}

	err = s.orderRepo.WithinTx(func(ex repositories.SQLExecutor) error {
		rows, repoErr := s.orderRepo.UpdateOrderGuard(ex, orderID, req.ExpectedRevision, upd)
		if repoErr != nil {
			return fmt.Errorf("failed to advance order status: %w", repoErr)
		}
		if rows == 0 {
			return ErrStaleRevision
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Settlement closes the order's slot in the table session.
	if req.TargetStatus == StatusPaid {
		if sessErr := s.sessionRepo.RemoveOrder(ctx, tenantID, order.TableCode, orderID); sessErr != nil {
			utils.LogError(sessErr, fmt.Sprintf("AdvanceOrder: failed to release order %d from table session", orderID))
		}
	}

	updated, err := s.GetOrderByID(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, updated)
	return updated, nil
}

func (s *orderService) AddCharge(ctx context.Context, tenantID, orderID int64, req AddChargeRequest) (*models.Order, error) {
	order, err := s.loadOwnedOrder(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == StatusPaid {
		return nil, ErrOrderClosed
	}
	if err := validateCharge(req.Kind, req.Amount); err != nil {
		return nil, err
	}

	lines, charges, err := s.loadLinesAndCharges(orderID)
	if err != nil {
		return nil, err
	}

	charges = append(charges, models.AdditionalCharge{
		OrderID: orderID,
		Label:   req.Label,
		Kind:    req.Kind,
		Amount:  req.Amount,
	})
	subtotal, total, resolvedCharges := ComputeBilling(lines, charges)

	err = s.orderRepo.WithinTx(func(ex repositories.SQLExecutor) error {
		rows, repoErr := s.orderRepo.UpdateOrderGuard(ex, orderID, req.ExpectedRevision,
			repositories.OrderUpdate{Subtotal: &subtotal, Total: &total})
		if repoErr != nil {
			return fmt.Errorf("failed to update order billing: %w", repoErr)
		}
		if rows == 0 {
			return ErrStaleRevision
		}
		return s.persistResolvedCharges(ex, resolvedCharges)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.GetOrderByID(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, updated)
	return updated, nil
}

func (s *orderService) RemoveCharge(ctx context.Context, tenantID, orderID, chargeID, expectedRevision int64) (*models.Order, error) {
	order, err := s.loadOwnedOrder(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == StatusPaid {
		return nil, ErrOrderClosed
	}

	lines, charges, err := s.loadLinesAndCharges(orderID)
	if err != nil {
		return nil, err
	}

	remaining := make([]models.AdditionalCharge, 0, len(charges))
	found := false
	for _, charge := range charges {
		if charge.ID == chargeID {
			found = true
			continue
		}
		remaining = append(remaining, charge)
	}
	if !found {
		return nil, ErrChargeNotFound
	}

	subtotal, total, resolvedCharges := ComputeBilling(lines, remaining)

	err = s.orderRepo.WithinTx(func(ex repositories.SQLExecutor) error {
		rows, repoErr := s.orderRepo.UpdateOrderGuard(ex, orderID, expectedRevision,
			repositories.OrderUpdate{Subtotal: &subtotal, Total: &total})
		if repoErr != nil {
			return fmt.Errorf("failed to update order billing: %w", repoErr)
		}
		if rows == 0 {
			return ErrStaleRevision
		}
		if _, repoErr := s.orderRepo.DeleteCharge(ex, chargeID); repoErr != nil {
			return fmt.Errorf("failed to delete charge %d: %w", chargeID, repoErr)
		}
		return s.persistResolvedCharges(ex, resolvedCharges)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.GetOrderByID(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, updated)
	return updated, nil
}

func (s *orderService) UpdateLineQuantity(ctx context.Context, tenantID, orderID, lineID int64, req UpdateLineQuantityRequest) (*models.Order, error) {
	order, err := s.loadOwnedOrder(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == StatusPaid {
		return nil, ErrOrderClosed
	}
	if order.Status != StatusPending {
		return nil, fmt.Errorf("%w: line quantities are mutable only while the order is pending", ErrValidation)
	}
	quantity := *req.Quantity
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}

	lines, charges, err := s.loadLinesAndCharges(orderID)
	if err != nil {
		return nil, err
	}

	var target *models.OrderLine
	for i := range lines {
		if lines[i].ID == lineID {
			target = &lines[i]
			break
		}
	}
	if target == nil {
		return nil, ErrLineNotFound
	}
	target.Quantity = quantity
	target.LineTotal = LineTotal(*target)

	subtotal, total, resolvedCharges := ComputeBilling(lines, charges)

	err = s.orderRepo.WithinTx(func(ex repositories.SQLExecutor) error {
		rows, repoErr := s.orderRepo.UpdateOrderGuard(ex, orderID, req.ExpectedRevision,
			repositories.OrderUpdate{Subtotal: &subtotal, Total: &total})
		if repoErr != nil {
			return fmt.Errorf("failed to update order billing: %w", repoErr)
		}
		if rows == 0 {
			return ErrStaleRevision
		}
		if repoErr := s.orderRepo.UpdateLineQuantity(ex, lineID, quantity, target.LineTotal); repoErr != nil {
			return fmt.Errorf("failed to update line %d: %w", lineID, repoErr)
		}
		return s.persistResolvedCharges(ex, resolvedCharges)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.GetOrderByID(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, updated)
	return updated, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, tenantID, orderID int64) error {
	order, err := s.loadOwnedOrder(tenantID, orderID)
	if err != nil {
		return err
	}

	err = s.orderRepo.WithinTx(func(ex repositories.SQLExecutor) error {
		if _, repoErr := s.orderRepo.DeleteOrderCharges(ex, orderID); repoErr != nil {
			return fmt.Errorf("failed to delete order charges: %w", repoErr)
		}
		if _, repoErr := s.orderRepo.DeleteOrderLines(ex, orderID); repoErr != nil {
			return fmt.Errorf("failed to delete order lines: %w", repoErr)
		}
		if _, repoErr := s.orderRepo.DeleteOrder(ex, orderID); repoErr != nil {
			if errors.Is(repoErr, repositories.ErrNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to delete order: %w", repoErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if sessErr := s.sessionRepo.RemoveOrder(ctx, tenantID, order.TableCode, orderID); sessErr != nil {
		utils.LogError(sessErr, fmt.Sprintf("DeleteOrder: failed to release order %d from table session", orderID))
	}
	return nil
}

func (s *orderService) ActiveTableOrders(ctx context.Context, tenantID int64, tableCode string) (*models.TableSession, error) {
	orderIDs, err := s.sessionRepo.ActiveOrders(ctx, tenantID, tableCode)
	if err != nil {
		return nil, fmt.Errorf("failed to read table session: %w", err)
	}
	return &models.TableSession{
		TenantID:  tenantID,
		TableCode: tableCode,
		OrderIDs:  orderIDs,
	}, nil
}

// --- helpers ---

// loadOwnedOrder fetches the order and enforces the tenant boundary before
// any state-machine logic runs. Cross-tenant access is a security-relevant
// event and is logged as such.
func (s *orderService) loadOwnedOrder(tenantID, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID from repository: %w", err)
	}
	if order.TenantID != tenantID {
		utils.LogWarn("cross-tenant order access rejected", map[string]interface{}{
			"order_id":         orderID,
			"order_tenant_id":  order.TenantID,
			"caller_tenant_id": tenantID,
		})
		return nil, ErrTenantMismatch
	}
	return order, nil
}

func (s *orderService) attachDetails(order *models.Order) error {
	lines, charges, err := s.loadLinesAndCharges(order.ID)
	if err != nil {
		return err
	}
	order.Lines = lines
	order.Charges = charges
	return nil
}

func (s *orderService) loadLinesAndCharges(orderID int64) ([]models.OrderLine, []models.AdditionalCharge, error) {
	lines, err := s.orderRepo.GetOrderLines(orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get lines for order %d: %w", orderID, err)
	}
	charges, err := s.orderRepo.GetOrderCharges(orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get charges for order %d: %w", orderID, err)
	}
	return lines, charges, nil
}

// persistResolvedCharges writes back the resolved amount of every surviving
// charge after a recomputation. Percent charges are stored resolved, never
// re-applied at read time, so every recompute must persist them again.
func (s *orderService) persistResolvedCharges(ex repositories.SQLExecutor, charges []models.AdditionalCharge) error {
	for i := range charges {
		if charges[i].ID == 0 {
			if _, err := s.orderRepo.CreateCharge(ex, &charges[i]); err != nil {
				return fmt.Errorf("failed to create charge %q: %w", charges[i].Label, err)
			}
			continue
		}
		if err := s.orderRepo.UpdateChargeResolved(ex, charges[i].ID, charges[i].Resolved); err != nil {
			return fmt.Errorf("failed to update resolved amount of charge %d: %w", charges[i].ID, err)
		}
	}
	return nil
}

func (s *orderService) notify(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyOrderChanged(ctx, models.OrderEvent{
		TenantID:   order.TenantID,
		OrderID:    order.ID,
		TableCode:  order.TableCode,
		Status:     order.Status,
		Revision:   order.Revision,
		Total:      order.Total,
		OccurredAt: time.Now(),
	})
}

func validateCharge(kind string, amount decimal.Decimal) error {
	if kind != models.ChargeKindFixed && kind != models.ChargeKindPercent {
		return fmt.Errorf("%w: unknown charge kind %q", ErrValidation, kind)
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: charge amount must not be negative", ErrValidation)
	}
	return nil
}
