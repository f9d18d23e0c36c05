package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"foodslink_backend/internal/models"
	"foodslink_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// ConfirmPaymentRequest is the inbound settlement signal from the payment
// gateway (callback or polling confirmation). It is the only trusted source
// for online settlement; a customer terminal's own claim is never accepted.
type ConfirmPaymentRequest struct {
	OrderID         int64           `json:"order_id" binding:"required"`
	AmountConfirmed decimal.Decimal `json:"amount_confirmed"`
	Reference       string          `json:"reference" binding:"required"`
}

// MarkCashCollectedRequest settles an order over the counter. The staff
// action is the source of truth; no external confirmation is involved.
type MarkCashCollectedRequest struct {
	ExpectedRevision int64 `json:"expected_revision" binding:"required"`
}

// --- PaymentService Interface ---

type PaymentService interface {
	GenerateIntent(tenantID, orderID int64) (*models.PaymentIntent, error)
	ConfirmOnlinePayment(ctx context.Context, tenantID int64, req ConfirmPaymentRequest) (*models.Order, error)
	MarkCashCollected(ctx context.Context, tenantID, orderID int64, req MarkCashCollectedRequest) (*models.Order, error)
}

// --- paymentService Implementation ---

type paymentService struct {
	orderService OrderService
	tenantRepo   repositories.TenantRepository
}

// NewPaymentService creates a new instance of PaymentService.
func NewPaymentService(os OrderService, tr repositories.TenantRepository) PaymentService {
	return &paymentService{
		orderService: os,
		tenantRepo:   tr,
	}
}

// --- Method Implementations ---

// GenerateIntent builds an ephemeral UPI payment target from the order's live
// total. The reference encodes the order's current revision, so any mutation
// that changes the total (and therefore bumps the revision) invalidates every
// previously displayed intent without any stored intent state.
func (s *paymentService) GenerateIntent(tenantID, orderID int64) (*models.PaymentIntent, error) {
	order, err := s.orderService.GetOrderByID(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == StatusPaid {
		return nil, ErrOrderClosed
	}

	tenant, err := s.tenantRepo.GetTenantByID(tenantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant %d: %w", tenantID, err)
	}

	reference := IntentReference(order)
	return &models.PaymentIntent{
		Payee:     tenant.UPIAddr,
		PayeeName: tenant.Name,
		Amount:    order.Total.Round(2),
		Reference: reference,
		URI:       buildUPIURI(tenant, order, reference),
	}, nil
}

// ConfirmOnlinePayment reconciles an external settlement signal with the
// order. Both the confirmed amount and the reference must match the order's
// live state; an intent generated before a charge changed the total fails
// here and is held for manual reconciliation, never auto-accepted.
func (s *paymentService) ConfirmOnlinePayment(ctx context.Context, tenantID int64, req ConfirmPaymentRequest) (*models.Order, error) {
	order, err := s.orderService.GetOrderByID(tenantID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == StatusPaid {
		return nil, ErrOrderClosed
	}
	if req.Reference != IntentReference(order) {
		return nil, fmt.Errorf("%w: reference %q does not match the order's current intent", ErrAmountMismatch, req.Reference)
	}
	if !req.AmountConfirmed.Equal(order.Total.Round(2)) {
		return nil, fmt.Errorf("%w: confirmed %s, order total is %s",
			ErrAmountMismatch, req.AmountConfirmed.StringFixed(2), order.Total.StringFixed(2))
	}

	method := PaymentMethodOnline
	return s.orderService.AdvanceOrder(ctx, tenantID, req.OrderID, AdvanceOrderRequest{
		TargetStatus:     StatusPaid,
		ExpectedRevision: order.Revision,
		PaymentMethod:    &method,
	})
}

// MarkCashCollected settles the order as a cash payment under the revision
// the staff terminal last observed.
func (s *paymentService) MarkCashCollected(ctx context.Context, tenantID, orderID int64, req MarkCashCollectedRequest) (*models.Order, error) {
	method := PaymentMethodCash
	return s.orderService.AdvanceOrder(ctx, tenantID, orderID, AdvanceOrderRequest{
		TargetStatus:     StatusPaid,
		ExpectedRevision: req.ExpectedRevision,
		PaymentMethod:    &method,
	})
}

// IntentReference is the deterministic payment reference for an order at its
// current revision.
func IntentReference(order *models.Order) string {
	return fmt.Sprintf("FLX-%d-R%d", order.ID, order.Revision)
}

// buildUPIURI assembles a upi://pay deep link for external QR rendering.
func buildUPIURI(tenant *models.Tenant, order *models.Order, reference string) string {
	params := url.Values{}
	params.Set("pa", tenant.UPIAddr)
	params.Set("pn", tenant.Name)
	params.Set("am", order.Total.Round(2).StringFixed(2))
	params.Set("cu", "INR")
	params.Set("tr", reference)
	params.Set("tn", fmt.Sprintf("Order %d, table %s", order.ID, order.TableCode))

	var uri strings.Builder
	uri.WriteString("upi://pay?")
	uri.WriteString(params.Encode())
	return uri.String()
}
