package handlers

import (
	"net/http"

	"foodslink_backend/internal/services"
	"foodslink_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PaymentHandler holds the payment service.
type PaymentHandler struct {
	paymentService services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(ps services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: ps}
}

// CreatePaymentIntent returns a fresh UPI payment target for the order's live
// total. The customer terminal renders it as a scannable code.
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	tenantID, ok := requireTenantQuery(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	intent, err := h.paymentService.GenerateIntent(tenantID, orderID)
	if err != nil {
		respondOrderError(c, err, "CreatePaymentIntent")
		return
	}
	c.JSON(http.StatusOK, intent)
}

// ConfirmPayment receives the authoritative settlement signal from the
// payment gateway. A customer terminal's own "I paid" claim never reaches
// this path; only the gateway callback does.
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	tenantID, ok := requireTenantQuery(c)
	if !ok {
		return
	}

	var req services.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "ConfirmPayment: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	order, err := h.paymentService.ConfirmOnlinePayment(c.Request.Context(), tenantID, req)
	if err != nil {
		respondOrderError(c, err, "ConfirmPayment")
		return
	}
	c.JSON(http.StatusOK, order)
}

// MarkCashCollected settles an order as paid in cash at the counter.
func (h *PaymentHandler) MarkCashCollected(c *gin.Context) {
	tenantID := c.GetInt64("tenantID")
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.MarkCashCollectedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "MarkCashCollected: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	order, err := h.paymentService.MarkCashCollected(c.Request.Context(), tenantID, orderID, req)
	if err != nil {
		respondOrderError(c, err, "MarkCashCollected")
		return
	}
	c.JSON(http.StatusOK, order)
}
